package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/uniedit/payments/internal/module/payment/domain"
)

// PaymentEntity is the GORM entity for Payment.
type PaymentEntity struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount           int64     `gorm:"not null"`
	Currency         string    `gorm:"type:char(3);not null"`
	Method           string    `gorm:"not null;default:''"`
	State            string    `gorm:"not null;default:created"`
	Credits          int64     `gorm:"not null;default:0"`
	Charged          bool      `gorm:"not null;default:false;index"`
	ExternalToken    string
	ExternalPayerID  string
	GatewayReference string `gorm:"index"`
	ChargedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the database table name.
func (PaymentEntity) TableName() string {
	return "payments"
}

// ToDomain converts entity to domain Payment.
func (e *PaymentEntity) ToDomain() *domain.Payment {
	return domain.RestorePayment(
		e.ID,
		e.UserID,
		e.Amount,
		e.Currency,
		domain.Method(e.Method),
		domain.State(e.State),
		e.Credits,
		e.Charged,
		e.ExternalToken,
		e.ExternalPayerID,
		e.GatewayReference,
		e.ChargedAt,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// FromDomainPayment converts domain Payment to entity.
func FromDomainPayment(p *domain.Payment) *PaymentEntity {
	return &PaymentEntity{
		ID:               p.ID(),
		UserID:           p.UserID(),
		Amount:           p.Amount(),
		Currency:         p.Currency(),
		Method:           string(p.Method()),
		State:            string(p.State()),
		Credits:          p.Credits(),
		Charged:          p.IsCharged(),
		ExternalToken:    p.ExternalToken(),
		ExternalPayerID:  p.ExternalPayerID(),
		GatewayReference: p.GatewayReference(),
		ChargedAt:        p.ChargedAt(),
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
	}
}

// NotificationEntity is the GORM entity for a received async gateway notification.
// The (gateway, notify_id) pair is unique so a replayed notification is detected
// by the insert itself.
type NotificationEntity struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Gateway    string    `gorm:"not null;uniqueIndex:idx_gateway_notify"`
	NotifyID   string    `gorm:"not null;uniqueIndex:idx_gateway_notify"`
	PaymentID  uuid.UUID `gorm:"type:uuid;index"`
	TradeNo    string    `gorm:"index"`
	Status     string
	Amount     string
	Currency   string
	Payload    string `gorm:"type:text"`
	ReceivedAt time.Time
}

// TableName returns the database table name.
func (NotificationEntity) TableName() string {
	return "payment_notifications"
}

// ToDomain converts entity to domain Notification.
func (e *NotificationEntity) ToDomain() *domain.Notification {
	return &domain.Notification{
		ID:         e.ID,
		Gateway:    e.Gateway,
		NotifyID:   e.NotifyID,
		PaymentID:  e.PaymentID,
		TradeNo:    e.TradeNo,
		Status:     e.Status,
		Amount:     e.Amount,
		Currency:   e.Currency,
		Payload:    e.Payload,
		ReceivedAt: e.ReceivedAt,
	}
}

// FromDomainNotification converts domain Notification to entity.
func FromDomainNotification(n *domain.Notification) *NotificationEntity {
	id := n.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &NotificationEntity{
		ID:         id,
		Gateway:    n.Gateway,
		NotifyID:   n.NotifyID,
		PaymentID:  n.PaymentID,
		TradeNo:    n.TradeNo,
		Status:     n.Status,
		Amount:     n.Amount,
		Currency:   n.Currency,
		Payload:    n.Payload,
		ReceivedAt: n.ReceivedAt,
	}
}
