package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparklean/service-booking/internal/domain/pricing"
	promoDomain "github.com/sparklean/service-booking/internal/domain/promo"
	"github.com/sparklean/service-booking/internal/domain/shared"
	"github.com/sparklean/service-booking/internal/events"
)

func seedPromoCode(t *testing.T, repo *fakePromoRepo, code, slug string, kind pricing.DiscountKind, value float64) *promoDomain.PromoCode {
	t.Helper()
	p, err := promoDomain.NewPromoCode(
		code, kind, value, slug,
		time.Now().UTC().Add(-time.Hour),
		time.Now().UTC().Add(24*time.Hour),
		uuid.New(),
	)
	require.NoError(t, err)
	require.NoError(t, repo.SaveCode(context.Background(), p))
	return p
}

func newPromoFixture(t *testing.T) (*PromoService, *fakePromoRepo, *fakePublisher) {
	t.Helper()
	repo := newFakePromoRepo()
	publisher := &fakePublisher{}
	svc := NewPromoService(repo, publisher, zap.NewNop())
	return svc, repo, publisher
}

func TestClaimPromo(t *testing.T) {
	ctx := context.Background()

	t.Run("claims an active code for the session", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)

		claim, err := svc.ClaimPromo(ctx, uuid.New(), "sess-1", ClaimPromoRequest{
			Code:        "SPRING20",
			ServiceSlug: "deep-clean",
		})
		require.NoError(t, err)
		assert.Equal(t, "SPRING20", claim.Code)
		assert.Equal(t, "sess-1", claim.SessionID)
		assert.Equal(t, string(promoDomain.StatusClaimed), claim.Status)
		assert.False(t, claim.AlreadyClaimed)
	})

	t.Run("repeat claim returns the existing claim unchanged", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)
		userID := uuid.New()
		req := ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "deep-clean"}

		first, err := svc.ClaimPromo(ctx, userID, "sess-1", req)
		require.NoError(t, err)
		second, err := svc.ClaimPromo(ctx, userID, "sess-1", req)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.False(t, first.AlreadyClaimed)
		assert.True(t, second.AlreadyClaimed)
		assert.Equal(t, "promo code already claimed for this session", second.Message)
	})

	t.Run("losing an insert race resolves to the winner's claim", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)
		userID := uuid.New()
		req := ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "deep-clean"}

		// The competing request inserts between our existence check and
		// our insert; the unique constraint turns our insert into a
		// duplicate and we return the winner.
		var winnerID uuid.UUID
		repo.beforeSaveClaim = func() {
			winner, err := promoDomain.NewClaim("SPRING20", "sess-1", "deep-clean", userID, time.Now().UTC().Add(24*time.Hour))
			require.NoError(t, err)
			require.NoError(t, repo.SaveClaim(ctx, winner))
			winnerID = winner.ID()
		}

		claim, err := svc.ClaimPromo(ctx, userID, "sess-1", req)
		require.NoError(t, err)
		assert.Equal(t, winnerID, claim.ID)
		assert.True(t, claim.AlreadyClaimed)
	})

	t.Run("same session can claim distinct codes", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)
		seedPromoCode(t, repo, "FLAT40", "deep-clean", pricing.DiscountFixed, 40)
		userID := uuid.New()

		first, err := svc.ClaimPromo(ctx, userID, "sess-1", ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "deep-clean"})
		require.NoError(t, err)
		second, err := svc.ClaimPromo(ctx, userID, "sess-1", ClaimPromoRequest{Code: "FLAT40", ServiceSlug: "deep-clean"})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("rejects an unknown code", func(t *testing.T) {
		svc, _, _ := newPromoFixture(t)

		_, err := svc.ClaimPromo(ctx, uuid.New(), "sess-1", ClaimPromoRequest{Code: "NOPE", ServiceSlug: "deep-clean"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects an expired code", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		expired, err := promoDomain.NewPromoCode(
			"OLD10", pricing.DiscountPercent, 10, "deep-clean",
			time.Now().UTC().Add(-48*time.Hour),
			time.Now().UTC().Add(-24*time.Hour),
			uuid.New(),
		)
		require.NoError(t, err)
		require.NoError(t, repo.SaveCode(ctx, expired))

		_, err = svc.ClaimPromo(ctx, uuid.New(), "sess-1", ClaimPromoRequest{Code: "OLD10", ServiceSlug: "deep-clean"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects a code scoped to another service", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)

		_, err := svc.ClaimPromo(ctx, uuid.New(), "sess-1", ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "move-out-clean"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects anonymous claims", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)

		_, err := svc.ClaimPromo(ctx, uuid.Nil, "sess-1", ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "deep-clean"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestRevokeClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes a claim and publishes an audit event", func(t *testing.T) {
		svc, repo, publisher := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)

		claim, err := svc.ClaimPromo(ctx, uuid.New(), "sess-1", ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "deep-clean"})
		require.NoError(t, err)

		require.NoError(t, svc.RevokeClaim(ctx, claim.ID, "booking service changed"))

		stored, err := repo.FindClaimByID(ctx, claim.ID)
		require.NoError(t, err)
		assert.Equal(t, promoDomain.StatusRevoked, stored.Status())
		assert.Equal(t, "booking service changed", stored.RevokeReason())

		published := publisher.published(events.PromoClaimRevoked)
		require.Len(t, published, 1)
		var event events.PromoClaimRevokedEvent
		require.NoError(t, published[0].event.ParseData(&event))
		assert.Equal(t, claim.ID, event.ClaimID)
		assert.Equal(t, "booking service changed", event.Reason)
	})

	t.Run("revoking twice is an invalid transition", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)

		claim, err := svc.ClaimPromo(ctx, uuid.New(), "sess-1", ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "deep-clean"})
		require.NoError(t, err)

		require.NoError(t, svc.RevokeClaim(ctx, claim.ID, "first"))
		err = svc.RevokeClaim(ctx, claim.ID, "second")
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		stored, err := repo.FindClaimByID(ctx, claim.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", stored.RevokeReason())
	})

	t.Run("session can claim the code again after revocation", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)
		userID := uuid.New()
		req := ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "deep-clean"}

		first, err := svc.ClaimPromo(ctx, userID, "sess-1", req)
		require.NoError(t, err)
		require.NoError(t, svc.RevokeClaim(ctx, first.ID, "booking service changed"))

		second, err := svc.ClaimPromo(ctx, userID, "sess-1", req)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, string(promoDomain.StatusClaimed), second.Status)
	})

	t.Run("revoked claims stay listed as audit records", func(t *testing.T) {
		svc, repo, _ := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)

		claim, err := svc.ClaimPromo(ctx, uuid.New(), "sess-1", ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "deep-clean"})
		require.NoError(t, err)
		require.NoError(t, svc.RevokeClaim(ctx, claim.ID, "booking service changed"))

		claims, total, err := svc.ListClaims(ctx, 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, string(promoDomain.StatusRevoked), claims[0].Status)
	})

	t.Run("propagates store failures", func(t *testing.T) {
		svc, repo, publisher := newPromoFixture(t)
		seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)

		claim, err := svc.ClaimPromo(ctx, uuid.New(), "sess-1", ClaimPromoRequest{Code: "SPRING20", ServiceSlug: "deep-clean"})
		require.NoError(t, err)

		repo.updateErr = errors.New("connection reset")
		err = svc.RevokeClaim(ctx, claim.ID, "booking service changed")
		require.Error(t, err)
		assert.Empty(t, publisher.published(events.PromoClaimRevoked))
	})
}

func TestValidatePromo(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newPromoFixture(t)
	seedPromoCode(t, repo, "SPRING20", "deep-clean", pricing.DiscountPercent, 20)

	t.Run("valid for the matching service", func(t *testing.T) {
		result, err := svc.ValidatePromo(ctx, "SPRING20", "deep-clean")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, string(pricing.DiscountPercent), result.Kind)
		assert.Equal(t, 20.0, result.Value)
	})

	t.Run("invalid for another service", func(t *testing.T) {
		result, err := svc.ValidatePromo(ctx, "SPRING20", "move-out-clean")
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})

	t.Run("unknown codes are invalid, not errors", func(t *testing.T) {
		result, err := svc.ValidatePromo(ctx, "NOPE", "deep-clean")
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})

	t.Run("matching is case-sensitive", func(t *testing.T) {
		result, err := svc.ValidatePromo(ctx, "spring20", "deep-clean")
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})
}

func TestCreatePromo(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPromoFixture(t)

	t.Run("creates a code from a valid request", func(t *testing.T) {
		dto, err := svc.CreatePromo(ctx, uuid.New(), CreatePromoRequest{
			Code:       "FLAT40",
			Kind:       "fixed",
			Value:      40,
			AppliesTo:  "deep-clean",
			ValidFrom:  time.Now().UTC().Format(time.RFC3339),
			ValidUntil: time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		})
		require.NoError(t, err)
		assert.Equal(t, "FLAT40", dto.Code)
		assert.Equal(t, "fixed", dto.Kind)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		_, err := svc.CreatePromo(ctx, uuid.New(), CreatePromoRequest{
			Code:       "FLAT40",
			Kind:       "fixed",
			Value:      40,
			AppliesTo:  "deep-clean",
			ValidFrom:  "yesterday",
			ValidUntil: time.Now().UTC().Format(time.RFC3339),
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects invalid discount kinds", func(t *testing.T) {
		_, err := svc.CreatePromo(ctx, uuid.New(), CreatePromoRequest{
			Code:       "WEIRD",
			Kind:       "bogo",
			Value:      1,
			AppliesTo:  "deep-clean",
			ValidFrom:  time.Now().UTC().Format(time.RFC3339),
			ValidUntil: time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}
