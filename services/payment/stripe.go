package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"lms/config"
)

// stripeGateway speaks the Stripe REST API (form-encoded requests, bearer
// secret key). Any Stripe-compatible endpoint works through PaymentApiURL.
type stripeGateway struct {
	client        *resty.Client
	webhookSecret string

	mu       sync.Mutex
	refunded map[string]bool // adapter's own view of refunded transactions
}

// NewStripeGateway builds the production Gateway from explicit configuration.
func NewStripeGateway(cfg *config.Config) Gateway {
	client := resty.New().
		SetBaseURL(cfg.PaymentApiURL).
		SetAuthToken(cfg.PaymentSecretKey).
		SetTimeout(time.Duration(cfg.PaymentTimeoutSec) * time.Second)

	return &stripeGateway{
		client:        client,
		webhookSecret: cfg.PaymentWebhookSecret,
		refunded:      make(map[string]bool),
	}
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	form := map[string]string{
		"amount":   strconv.FormatInt(amount, 10),
		"currency": currency,
	}
	for k, v := range metadata {
		form[fmt.Sprintf("metadata[%s]", k)] = v
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/payment_intents")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	return parseIntent(resp.Body())
}

func (g *stripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		Get("/payment_intents/" + id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	return parseIntent(resp.Body())
}

func (g *stripeGateway) CreateRefund(ctx context.Context, transactionID, reason string) (*Refund, error) {
	// Best-effort local check before delegating
	g.mu.Lock()
	if g.refunded[transactionID] {
		g.mu.Unlock()
		return nil, ErrAlreadyRefunded
	}
	g.mu.Unlock()

	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"payment_intent":   transactionID,
			"reason":           "requested_by_customer",
			"metadata[reason]": reason,
		}).
		Post("/refunds")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var refund Refund
	if err := json.Unmarshal(resp.Body(), &refund); err != nil {
		return nil, fmt.Errorf("%w: malformed refund response: %v", ErrRejected, err)
	}

	g.mu.Lock()
	g.refunded[transactionID] = true
	g.mu.Unlock()

	return &refund, nil
}

func checkStatus(resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code >= 500:
		return fmt.Errorf("%w: provider returned %d", ErrUnavailable, code)
	case code >= 400:
		var apiErr apiError
		if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: %s", ErrRejected, apiErr.Error.Message)
		}
		return fmt.Errorf("%w: provider returned %d", ErrRejected, code)
	}
	return nil
}

type intentJSON struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

func parseIntent(body []byte) (*Intent, error) {
	var raw intentJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed intent response: %v", ErrRejected, err)
	}
	return &Intent{
		ID:           raw.ID,
		ClientSecret: raw.ClientSecret,
		Amount:       raw.Amount,
		Currency:     raw.Currency,
		Status:       normalizeIntentStatus(raw.Status),
		Metadata:     raw.Metadata,
	}, nil
}

// normalizeIntentStatus folds the provider's intent lifecycle into the three
// states the engine cares about.
func normalizeIntentStatus(status string) string {
	switch status {
	case "succeeded":
		return IntentSucceeded
	case "canceled":
		return IntentFailed
	default:
		return IntentRequiresAction
	}
}
