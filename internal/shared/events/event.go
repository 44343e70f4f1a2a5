package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event published on the Bus.
type Event interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
}

// BaseEvent carries the fields shared by all events. Embed it in concrete events.
type BaseEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateUUID uuid.UUID `json:"aggregate_id"`
}

func (e BaseEvent) EventID() uuid.UUID { return e.ID }
func (e BaseEvent) EventType() string { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() uuid.UUID { return e.AggregateUUID }

// NewBaseEvent creates a BaseEvent stamped with a fresh id and the current time.
func NewBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggregateUUID: aggregateID,
	}
}

// PaymentChargedType is published once per payment, after the charge and its
// credit application have committed.
const PaymentChargedType = "PaymentCharged"

// PaymentChargedEvent describes a payment that was charged for the first time.
type PaymentChargedEvent struct {
	BaseEvent

	PaymentID uuid.UUID `json:"payment_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	Credits   int64     `json:"credits"`
	Reference string    `json:"reference,omitempty"`
}

// NewPaymentChargedEvent creates a PaymentChargedEvent.
func NewPaymentChargedEvent(paymentID, userID uuid.UUID, amount int64, currency, method string, credits int64, reference string) *PaymentChargedEvent {
	return &PaymentChargedEvent{
		BaseEvent: NewBaseEvent(PaymentChargedType, paymentID),
		PaymentID: paymentID,
		UserID:    userID,
		Amount:    amount,
		Currency:  currency,
		Method:    method,
		Credits:   credits,
		Reference: reference,
	}
}
