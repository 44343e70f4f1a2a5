package account

import (
	"context"

	"go.uber.org/zap"

	"github.com/uniedit/payments/internal/shared/events"
	"github.com/uniedit/payments/internal/shared/metrics"
)

// EventHandler records charged payments for auditing. Credits are applied
// inside the charge transaction, not here.
type EventHandler struct {
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewEventHandler creates a new account event handler. m may be nil.
func NewEventHandler(m *metrics.Metrics, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{metrics: m, logger: logger}
}

// Handles returns the list of event types this handler can process.
func (h *EventHandler) Handles() []string {
	return []string{events.PaymentChargedType}
}

// Handle processes the given event.
func (h *EventHandler) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.PaymentChargedEvent:
		h.logger.Info("account credited",
			zap.String("user_id", e.UserID.String()),
			zap.String("payment_id", e.PaymentID.String()),
			zap.String("method", e.Method),
			zap.Int64("amount", e.Amount),
			zap.String("currency", e.Currency),
			zap.Int64("credits", e.Credits),
			zap.String("reference", e.Reference),
		)
		if h.metrics != nil {
			h.metrics.AddCreditsApplied(e.Credits)
		}
		return nil
	default:
		h.logger.Warn("unhandled event type",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}
}

var _ events.Handler = (*EventHandler)(nil)
