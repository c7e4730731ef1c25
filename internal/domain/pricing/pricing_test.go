package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseInput() Input {
	return Input{
		BasePrice:     300,
		BedroomCount:  2,
		BathroomCount: 1,
		ExtrasTotal:   0,
		Frequency:     FrequencyOneTime,
		Rates:         DefaultRates(),
	}
}

func TestCompute_OneTimeNoPromo(t *testing.T) {
	got := Compute(baseInput())

	assert.Equal(t, 440.00, got.Subtotal)
	assert.Equal(t, 0.00, got.FrequencyDiscount)
	assert.Equal(t, 0.00, got.PromoDiscount)
	assert.Equal(t, 44.00, got.ServiceFee)
	assert.Equal(t, 484.00, got.Total)
}

func TestCompute_WeeklyDiscount(t *testing.T) {
	in := baseInput()
	in.Frequency = FrequencyWeekly

	got := Compute(in)

	assert.Equal(t, 440.00, got.Subtotal)
	assert.Equal(t, 66.00, got.FrequencyDiscount)
	assert.Equal(t, 37.40, got.ServiceFee)
	assert.Equal(t, 411.40, got.Total)
}

func TestCompute_PercentPromo(t *testing.T) {
	in := baseInput()
	in.Promo = &Discount{Kind: DiscountPercent, Value: 20}

	got := Compute(in)

	assert.Equal(t, 88.00, got.PromoDiscount)
	assert.Equal(t, 35.20, got.ServiceFee)
	assert.Equal(t, 387.20, got.Total)
}

func TestCompute_FixedPromo(t *testing.T) {
	in := baseInput()
	in.Promo = &Discount{Kind: DiscountFixed, Value: 40}

	got := Compute(in)

	assert.Equal(t, 40.00, got.PromoDiscount)
	assert.Equal(t, 40.00, got.ServiceFee)
	assert.Equal(t, 440.00, got.Total)
}

func TestCompute_FixedPromoExceedsBalance_NotClamped(t *testing.T) {
	// A fixed promo larger than the discounted subtotal drives the fee
	// and total negative; the engine deliberately does not clamp.
	in := Input{
		BasePrice: 50,
		Frequency: FrequencyOneTime,
		Promo:     &Discount{Kind: DiscountFixed, Value: 100},
		Rates:     DefaultRates(),
	}

	got := Compute(in)

	assert.Equal(t, 50.00, got.Subtotal)
	assert.Equal(t, 100.00, got.PromoDiscount)
	assert.Equal(t, -5.00, got.ServiceFee)
	assert.Equal(t, -55.00, got.Total)
}

func TestCompute_UnknownFrequencyDegradesToZeroDiscount(t *testing.T) {
	in := baseInput()
	in.Frequency = "fortnightly"

	got := Compute(in)

	assert.Equal(t, 0.00, got.FrequencyDiscount)
	assert.Equal(t, 484.00, got.Total)
}

func TestCompute_FrequencyTable(t *testing.T) {
	cases := []struct {
		frequency Frequency
		rate      float64
	}{
		{FrequencyOneTime, 0},
		{FrequencyWeekly, 0.15},
		{FrequencyBiWeekly, 0.10},
		{FrequencyMonthly, 0.05},
		{"", 0},
		{"daily", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.rate, tc.frequency.DiscountRate(), "frequency %q", tc.frequency)
	}
}

func TestCompute_RoundingHalfUp(t *testing.T) {
	// 300.005 must round up to 300.01 on the cent boundary.
	in := Input{
		BasePrice: 300.005,
		Frequency: FrequencyOneTime,
		Rates:     Rates{BedroomRate: 50, BathroomRate: 40, ServiceFee: 0},
	}

	got := Compute(in)

	assert.Equal(t, 300.01, got.Subtotal)
	assert.Equal(t, 300.01, got.Total)
}

func TestCompute_ZeroRatesChargeNothingExtra(t *testing.T) {
	in := baseInput()
	in.Rates = Rates{}

	got := Compute(in)

	assert.Equal(t, 300.00, got.Subtotal)
	assert.Equal(t, 0.00, got.ServiceFee)
	assert.Equal(t, 300.00, got.Total)
}

func TestCompute_Deterministic(t *testing.T) {
	in := baseInput()
	in.Frequency = FrequencyMonthly
	in.Promo = &Discount{Kind: DiscountPercent, Value: 12.5}
	in.ExtrasTotal = 35.99

	first := Compute(in)
	second := Compute(in)

	assert.Equal(t, first, second)
}
