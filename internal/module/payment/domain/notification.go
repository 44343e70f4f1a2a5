package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a verified async gateway notification as recorded for
// replay detection and reconciliation.
type Notification struct {
	ID         uuid.UUID
	Gateway    string
	NotifyID   string
	PaymentID  uuid.UUID
	TradeNo    string
	Status     string
	Amount     string
	Currency   string
	Payload    string
	ReceivedAt time.Time
}
