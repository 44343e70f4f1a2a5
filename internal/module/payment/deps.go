package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/uniedit/payments/internal/module/payment/gateway"
	"github.com/uniedit/payments/internal/module/payment/verifier"
	"github.com/uniedit/payments/internal/shared/events"
)

// CreditApplier grants the entitlement bought by a payment. It is called with
// the charge transaction in ctx and must join it, so the credit and the
// charged flag commit or roll back together.
type CreditApplier interface {
	AddCredits(ctx context.Context, userID uuid.UUID, credits int64, paymentID uuid.UUID) error
}

// EventPublisher publishes domain events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// Archiver stores raw inbound notification bodies.
type Archiver interface {
	Archive(ctx context.Context, key, contentType string, body []byte) error
}

// NotificationReceiver verifies and decodes async wallet notifications.
type NotificationReceiver interface {
	Receive(ctx context.Context, n *verifier.Notification) (*gateway.AsyncSettlement, error)
}

// CardWebhookParser verifies and decodes card gateway webhooks.
type CardWebhookParser interface {
	Parse(payload []byte, signature string) (*gateway.CardSettlement, error)
}
