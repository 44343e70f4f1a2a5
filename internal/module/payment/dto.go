package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/uniedit/payments/internal/module/payment/domain"
)

// CreatePaymentRequest represents a request to create a payment.
type CreatePaymentRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Currency      string `json:"currency" binding:"required,len=3"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// UpdatePaymentRequest represents a request to advance a payment.
type UpdatePaymentRequest struct {
	PaymentMethod string `json:"payment_method,omitempty"`
	CardToken     string `json:"card_token,omitempty"`
	ExternalToken string `json:"external_token,omitempty"`
	PayerID       string `json:"payer_id,omitempty"`
}

// RedirectReturnQuery holds the redirect wallet return parameters.
type RedirectReturnQuery struct {
	PaymentID string `form:"payment_id" binding:"required"`
	Token     string `form:"token" binding:"required"`
	PayerID   string `form:"payer_id"`
	PayerIDPP string `form:"PayerID"`
}

// Payer returns the payer id from either spelling of the parameter.
func (q *RedirectReturnQuery) Payer() string {
	if q.PayerID != "" {
		return q.PayerID
	}
	return q.PayerIDPP
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID               uuid.UUID  `json:"id"`
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	PaymentMethod    string     `json:"payment_method,omitempty"`
	State            string     `json:"state"`
	Credits          int64      `json:"credits"`
	Charged          bool       `json:"charged"`
	GatewayReference string     `json:"gateway_reference,omitempty"`
	ChargedAt        *time.Time `json:"charged_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToResponse converts a domain payment to its API representation. Wallet
// credentials are never exposed.
func ToResponse(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:               p.ID(),
		Amount:           p.Amount(),
		Currency:         p.Currency(),
		PaymentMethod:    p.Method().String(),
		State:            string(p.State()),
		Credits:          p.Credits(),
		Charged:          p.IsCharged(),
		GatewayReference: p.GatewayReference(),
		ChargedAt:        p.ChargedAt(),
		CreatedAt:        p.CreatedAt(),
	}
}

// AdvanceResponse is the body of a successful PATCH.
type AdvanceResponse struct {
	Status      AdvanceStatus    `json:"status"`
	Payment     *PaymentResponse `json:"payment"`
	RedirectURL string           `json:"redirect_url,omitempty"`
	NextURL     string           `json:"next_url,omitempty"`
	Notice      *Notice          `json:"notice,omitempty"`
}

// PaymentListResponse lists payments.
type PaymentListResponse struct {
	Payments []*PaymentResponse `json:"payments"`
}
