package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// MetadataPaymentID is the PaymentIntent metadata key carrying our payment id.
const MetadataPaymentID = "payment_id"

// StripeCardNetwork charges cards with confirmed PaymentIntents.
type StripeCardNetwork struct {
	intents paymentintent.Client
}

// NewStripeCardNetwork creates a Stripe-backed card network. httpClient may be nil.
func NewStripeCardNetwork(secretKey string, httpClient *http.Client) *StripeCardNetwork {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: httpClient,
	})
	return &StripeCardNetwork{
		intents: paymentintent.Client{B: backend, Key: secretKey},
	}
}

// Charge creates and confirms a PaymentIntent for the token. Redirect-based
// authentication is disabled so the outcome is known synchronously.
func (n *StripeCardNetwork) Charge(ctx context.Context, charge CardCharge) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(charge.Amount),
		Currency:      stripe.String(strings.ToLower(charge.Currency)),
		PaymentMethod: stripe.String(charge.Token),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(chargeIdempotencyKey(charge))
	params.AddMetadata(MetadataPaymentID, charge.PaymentID.String())

	pi, err := n.intents.New(params)
	if err != nil {
		return "", classifyStripeError(err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return "", &RejectionError{Code: string(pi.Status), Message: "payment intent not completed"}
	}
	return pi.ID, nil
}

// chargeIdempotencyKey is stable for a (payment, token) pair so a retried
// request cannot charge twice, while a new token starts a new attempt.
func chargeIdempotencyKey(charge CardCharge) string {
	sum := sha256.Sum256([]byte(charge.Token))
	return "charge-" + charge.PaymentID.String() + "-" + hex.EncodeToString(sum[:8])
}

func classifyStripeError(err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return fmt.Errorf("stripe: %w", err)
	}

	switch {
	case serr.Type == stripe.ErrorTypeCard:
		code := string(serr.DeclineCode)
		if code == "" {
			code = string(serr.Code)
		}
		if code == "" {
			code = "card_declined"
		}
		return &RejectionError{Code: code, Message: serr.Msg}
	case serr.Type == stripe.ErrorTypeInvalidRequest && serr.HTTPStatusCode < http.StatusInternalServerError:
		code := string(serr.Code)
		if code == "" {
			code = "invalid_request"
		}
		return &RejectionError{Code: code, Message: serr.Msg}
	}
	return fmt.Errorf("stripe: %w", err)
}

// CardSettlement is a settled card charge reported by the card webhook.
type CardSettlement struct {
	EventID   string
	PaymentID uuid.UUID
	Reference string
	Amount    int64
	Currency  string
}

// ErrIgnoredEvent is returned for webhook events that settle nothing.
var ErrIgnoredEvent = errors.New("webhook event ignored")

// StripeWebhookParser verifies and decodes Stripe webhook deliveries.
type StripeWebhookParser struct {
	secret string
}

// NewStripeWebhookParser creates a parser for the endpoint secret.
func NewStripeWebhookParser(secret string) *StripeWebhookParser {
	return &StripeWebhookParser{secret: secret}
}

// Parse verifies the signature header and extracts a settlement from a
// payment_intent.succeeded event. Other event types return ErrIgnoredEvent.
func (p *StripeWebhookParser) Parse(payload []byte, signature string) (*CardSettlement, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.secret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook: %w", err)
	}
	if event.Type != "payment_intent.succeeded" {
		return nil, ErrIgnoredEvent
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	paymentID, err := uuid.Parse(pi.Metadata[MetadataPaymentID])
	if err != nil {
		return nil, ErrIgnoredEvent
	}

	return &CardSettlement{
		EventID:   event.ID,
		PaymentID: paymentID,
		Reference: pi.ID,
		Amount:    pi.Amount,
		Currency:  strings.ToUpper(string(pi.Currency)),
	}, nil
}
