package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// webhookTolerance bounds how stale a signed timestamp may be before the
// delivery is rejected as a possible replay.
const webhookTolerance = 5 * time.Minute

// VerifyWebhook checks the Stripe-Signature header (t=<ts>,v1=<hmac>)
// against HMAC-SHA256(secret, "<ts>.<payload>") before any of the payload
// is trusted. The parsed event is returned only on a signature match.
func (g *stripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (*Event, error) {
	return verifySignedEvent(payload, signatureHeader, g.webhookSecret, time.Now())
}

func verifySignedEvent(payload []byte, signatureHeader, secret string, now time.Time) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}

	skew := now.Sub(time.Unix(timestamp, 0))
	if skew > webhookTolerance || skew < -webhookTolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}

	expected := computeSignature(timestamp, payload, secret)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: no matching v1 signature", ErrSignatureInvalid)
	}

	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object intentJSON `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed event payload", ErrSignatureInvalid)
	}

	obj := envelope.Data.Object
	return &Event{
		ID:   envelope.ID,
		Type: envelope.Type,
		Intent: Intent{
			ID:           obj.ID,
			ClientSecret: obj.ClientSecret,
			Amount:       obj.Amount,
			Currency:     obj.Currency,
			Status:       normalizeIntentStatus(obj.Status),
			Metadata:     obj.Metadata,
		},
		Raw: payload,
	}, nil
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", ErrSignatureInvalid)
	}

	var timestamp int64 = -1
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrSignatureInvalid)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func computeSignature(timestamp int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
