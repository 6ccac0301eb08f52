package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms/config"
)

func testGateway(t *testing.T, handler http.HandlerFunc) Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewStripeGateway(&config.Config{
		PaymentApiURL:        server.URL,
		PaymentSecretKey:     "sk_test",
		PaymentWebhookSecret: testSecret,
		PaymentTimeoutSec:    2,
	})
}

func TestCreateIntent(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment_intents", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "4999", r.Form.Get("amount"))
		assert.Equal(t, "usd", r.Form.Get("currency"))
		assert.Equal(t, "7", r.Form.Get("metadata[course_id]"))

		w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","amount":4999,"currency":"usd","status":"requires_payment_method"}`))
	})

	intent, err := gw.CreateIntent(context.Background(), 4999, "usd", map[string]string{"course_id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, IntentRequiresAction, intent.Status)
}

func TestCreateIntentRejectsNonPositiveAmountLocally(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for a non-positive amount")
	})

	_, err := gw.CreateIntent(context.Background(), 0, "usd", nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = gw.CreateIntent(context.Background(), -100, "usd", nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRetrieveIntent(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment_intents/pi_1", r.URL.Path)
		w.Write([]byte(`{"id":"pi_1","amount":4999,"currency":"usd","status":"succeeded","metadata":{"course_id":"7"}}`))
	})

	intent, err := gw.RetrieveIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, IntentSucceeded, intent.Status)
	assert.Equal(t, int64(4999), intent.Amount)
}

func TestGatewayRejected(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
	})

	_, err := gw.RetrieveIntent(context.Background(), "pi_1")
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "declined")
}

func TestGatewayUnavailable(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := gw.RetrieveIntent(context.Background(), "pi_1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGatewayUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	gw := NewStripeGateway(&config.Config{
		PaymentApiURL:     server.URL,
		PaymentSecretKey:  "sk_test",
		PaymentTimeoutSec: 1,
	})

	_, err := gw.RetrieveIntent(context.Background(), "pi_1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCreateRefund(t *testing.T) {
	calls := 0
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/refunds", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_1", r.Form.Get("payment_intent"))
		assert.Equal(t, "requested_by_customer", r.Form.Get("reason"))

		w.Write([]byte(`{"id":"re_1","amount":4999,"status":"succeeded"}`))
	})

	refund, err := gw.CreateRefund(context.Background(), "pi_1", "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, "re_1", refund.ID)
	assert.Equal(t, int64(4999), refund.Amount)

	// The adapter's own view now reports this transaction refunded and the
	// provider is not called again.
	_, err = gw.CreateRefund(context.Background(), "pi_1", "again")
	assert.ErrorIs(t, err, ErrAlreadyRefunded)
	assert.Equal(t, 1, calls)
}
