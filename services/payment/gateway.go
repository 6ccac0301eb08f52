package payment

import (
	"context"
	"errors"
)

var (
	// ErrInvalidAmount is the local guard: intents are only created for
	// positive minor-unit amounts, the provider is never called otherwise.
	ErrInvalidAmount = errors.New("amount must be a positive integer in minor units")
	// ErrUnavailable means the provider was unreachable or timed out.
	// The whole operation is safe to retry.
	ErrUnavailable = errors.New("payment gateway unavailable")
	// ErrRejected means the provider explicitly declined the request.
	ErrRejected = errors.New("payment gateway rejected the request")
	// ErrSignatureInvalid means the webhook payload failed authenticity
	// verification and must not be processed.
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	// ErrAlreadyRefunded fires on a refund for a transaction this adapter
	// already saw refunded.
	ErrAlreadyRefunded = errors.New("transaction already refunded")
)

// Intent statuses as normalized by the adapter.
const (
	IntentRequiresAction = "requires_action"
	IntentSucceeded      = "succeeded"
	IntentFailed         = "failed"
)

// Webhook event types the engine reacts to.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Intent is the provider's representation of an in-progress charge.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"` // minor units
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

// Event is a verified webhook delivery.
type Event struct {
	ID     string
	Type   string
	Intent Intent
	Raw    []byte
}

// Refund is the provider's record of money returned.
type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"` // minor units
	Status string `json:"status"`
}

// Gateway is the boundary to the external payment provider. It translates
// wire calls and verifies webhook authenticity; it never touches enrollment
// or course state.
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	VerifyWebhook(payload []byte, signatureHeader string) (*Event, error)
	CreateRefund(ctx context.Context, transactionID, reason string) (*Refund, error)
}
