package pricing

import "math"

// Per-unit surcharges and the service fee rate. Individual services may
// override the room rates through their catalog configuration.
const (
	DefaultBedroomRate  = 50.0
	DefaultBathroomRate = 40.0
	DefaultServiceFee   = 0.10
)

// Frequency identifies how often a cleaning recurs.
type Frequency string

const (
	FrequencyOneTime  Frequency = "one-time"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// frequencyDiscounts maps each recurrence to its discount rate. Unknown
// values fall through to zero discount rather than erroring: the booking
// UI recomputes on every change and must never block on transient input.
var frequencyDiscounts = map[Frequency]float64{
	FrequencyOneTime:  0,
	FrequencyWeekly:   0.15,
	FrequencyBiWeekly: 0.10,
	FrequencyMonthly:  0.05,
}

// DiscountRate returns the discount fraction for f, zero if unrecognized.
func (f Frequency) DiscountRate() float64 {
	return frequencyDiscounts[f]
}

// DiscountKind distinguishes percentage promos from flat-amount promos.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// Discount describes an applied promo: a percentage of the post-frequency
// amount or a flat amount off.
type Discount struct {
	Kind  DiscountKind
	Value float64
}

// Rates holds the per-unit surcharges and service fee rate used in a quote.
type Rates struct {
	BedroomRate  float64
	BathroomRate float64
	ServiceFee   float64
}

// DefaultRates returns the standard rate configuration.
func DefaultRates() Rates {
	return Rates{
		BedroomRate:  DefaultBedroomRate,
		BathroomRate: DefaultBathroomRate,
		ServiceFee:   DefaultServiceFee,
	}
}

// Input is everything needed to price one booking configuration.
type Input struct {
	BasePrice     float64
	BedroomCount  int
	BathroomCount int
	ExtrasTotal   float64
	Frequency     Frequency
	Promo         *Discount
	Rates         Rates
}

// Result is the itemized price breakdown. Every field is independently
// rounded to two decimal places.
type Result struct {
	Subtotal          float64 `json:"subtotal"`
	FrequencyDiscount float64 `json:"frequency_discount"`
	PromoDiscount     float64 `json:"promo_discount"`
	ServiceFee        float64 `json:"service_fee"`
	Total             float64 `json:"total"`
}

// Compute derives the price breakdown for the given input. It is a pure
// function: same input, same output, no side effects, and it never fails.
// Unrecognized frequencies price as zero discount, and a zero Rates value
// prices with no surcharges and no fee.
//
// A fixed promo larger than the remaining balance is NOT clamped; the fee
// and total may go negative. Promo values are validated upstream against
// realistic booking totals.
func Compute(in Input) Result {
	rates := in.Rates

	subtotal := in.BasePrice +
		float64(in.BedroomCount)*rates.BedroomRate +
		float64(in.BathroomCount)*rates.BathroomRate +
		in.ExtrasTotal

	frequencyDiscount := subtotal * in.Frequency.DiscountRate()
	afterFrequency := subtotal - frequencyDiscount

	var promoDiscount float64
	if in.Promo != nil {
		switch in.Promo.Kind {
		case DiscountPercent:
			promoDiscount = afterFrequency * in.Promo.Value / 100
		case DiscountFixed:
			promoDiscount = in.Promo.Value
		}
	}

	afterAllDiscounts := afterFrequency - promoDiscount
	serviceFee := afterAllDiscounts * rates.ServiceFee
	total := afterAllDiscounts + serviceFee

	return Result{
		Subtotal:          round2(subtotal),
		FrequencyDiscount: round2(frequencyDiscount),
		PromoDiscount:     round2(promoDiscount),
		ServiceFee:        round2(serviceFee),
		Total:             round2(total),
	}
}

// round2 rounds half-up on the cent boundary.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
