package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniedit/payments/internal/module/payment/domain"
)

// CardCharge is a single synchronous charge against a card network.
type CardCharge struct {
	PaymentID uuid.UUID
	Amount    int64
	Currency  string
	Token     string
}

// CardNetwork charges a one-time card token. A decline is returned as a
// *RejectionError; any other error is a transport failure.
type CardNetwork interface {
	Charge(ctx context.Context, charge CardCharge) (reference string, err error)
}

// CardAdapter charges card payments in one synchronous attempt.
type CardAdapter struct {
	network CardNetwork
	breaker *Breaker
	logger  *zap.Logger
}

// NewCardAdapter creates a card adapter.
func NewCardAdapter(network CardNetwork, breaker *Breaker, logger *zap.Logger) *CardAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardAdapter{network: network, breaker: breaker, logger: logger}
}

// Method returns MethodCard.
func (a *CardAdapter) Method() domain.Method {
	return domain.MethodCard
}

// AttemptCharge charges the card token in in. A timeout is reported as a
// retryable rejection; the remote side may still have charged, which the
// card webhook reconciles.
func (a *CardAdapter) AttemptCharge(ctx context.Context, p *domain.Payment, in ChargeInput) (ChargeResult, error) {
	token := strings.TrimSpace(in.CardToken)
	if token == "" {
		return ChargeResult{}, ErrCardTokenRequired
	}

	ref, err := Call(ctx, a.breaker, "charge", func(ctx context.Context) (string, error) {
		return a.network.Charge(ctx, CardCharge{
			PaymentID: p.ID(),
			Amount:    p.Amount(),
			Currency:  p.Currency(),
			Token:     token,
		})
	})
	if err != nil {
		res := resultFromError(err)
		a.logger.Info("card charge not completed",
			zap.String("payment_id", p.ID().String()),
			zap.String("reason", res.Reason),
			zap.Bool("retryable", res.Retryable),
			zap.Error(err),
		)
		return res, nil
	}

	return Charged(ref), nil
}
