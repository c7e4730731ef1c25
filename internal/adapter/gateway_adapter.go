package adapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionStatus is the gateway's view of a transaction.
type TransactionStatus string

const (
	TransactionSuccess   TransactionStatus = "success"
	TransactionFailed    TransactionStatus = "failed"
	TransactionAbandoned TransactionStatus = "abandoned"
)

// PaymentGateway is the Anti-Corruption Layer over the hosted payment
// provider. The provider implements the actual card flow; this service only
// initializes transactions and verifies their outcome by reference.
type PaymentGateway interface {
	// InitializeTransaction registers a pending transaction and returns
	// the provider reference plus the hosted checkout URL the customer
	// is redirected to.
	InitializeTransaction(ctx context.Context, amountMinor int64, currency, customerEmail, callbackURL string) (reference, checkoutURL string, err error)

	// VerifyTransaction fetches the final status for a reference.
	VerifyTransaction(ctx context.Context, reference string) (TransactionStatus, error)

	// RefundTransaction reverses a successful transaction.
	RefundTransaction(ctx context.Context, reference string, amountMinor int64) error
}

// MockGateway is a development/testing implementation of PaymentGateway.
// Every initialized transaction verifies as successful.
type MockGateway struct {
	logger *zap.Logger
}

// NewMockGateway creates a mock gateway for development.
func NewMockGateway(logger *zap.Logger) *MockGateway {
	return &MockGateway{logger: logger}
}

// InitializeTransaction simulates registering a transaction.
func (m *MockGateway) InitializeTransaction(ctx context.Context, amountMinor int64, currency, customerEmail, callbackURL string) (string, string, error) {
	reference := fmt.Sprintf("txn_mock_%s", uuid.New().String()[:8])
	checkoutURL := fmt.Sprintf("https://checkout.mock.local/%s", reference)

	m.logger.Info("[MOCK GATEWAY] transaction initialized",
		zap.String("reference", reference),
		zap.Int64("amount_minor", amountMinor),
		zap.String("currency", currency),
		zap.String("customer_email", customerEmail),
	)
	return reference, checkoutURL, nil
}

// VerifyTransaction simulates a successful verification.
func (m *MockGateway) VerifyTransaction(ctx context.Context, reference string) (TransactionStatus, error) {
	m.logger.Info("[MOCK GATEWAY] transaction verified",
		zap.String("reference", reference),
	)
	return TransactionSuccess, nil
}

// RefundTransaction simulates a refund.
func (m *MockGateway) RefundTransaction(ctx context.Context, reference string, amountMinor int64) error {
	m.logger.Info("[MOCK GATEWAY] refund created",
		zap.String("reference", reference),
		zap.Int64("amount_minor", amountMinor),
	)
	return nil
}
