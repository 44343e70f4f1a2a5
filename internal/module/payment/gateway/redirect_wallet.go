package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniedit/payments/internal/module/payment/domain"
)

// CheckoutRequest starts a wallet checkout session.
type CheckoutRequest struct {
	PaymentID uuid.UUID
	Amount    string
	Currency  string
	ReturnURL string
	CancelURL string
}

// Checkout is a started wallet checkout session.
type Checkout struct {
	Token      string
	ApproveURL string
}

// ExecuteRequest completes an approved checkout. PaymentID, Amount and
// Currency are what the executed checkout must carry.
type ExecuteRequest struct {
	PaymentID uuid.UUID
	Token     string
	PayerID   string
	Amount    string
	Currency  string
}

// WalletCheckout is the redirect wallet's two-call protocol.
type WalletCheckout interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	// Execute completes the checkout approved by the payer. A refusal, or a
	// checkout that belongs to another payment, is a *RejectionError.
	Execute(ctx context.Context, req ExecuteRequest) (reference string, err error)
}

// RedirectWalletAdapter drives the two-phase redirect wallet flow. Without
// captured credentials it only starts a checkout; with them it executes.
type RedirectWalletAdapter struct {
	wallet    WalletCheckout
	breaker   *Breaker
	returnURL string
	cancelURL string
	logger    *zap.Logger
}

// NewRedirectWalletAdapter creates a redirect wallet adapter. returnURL and
// cancelURL may contain an {id} placeholder for the payment id.
func NewRedirectWalletAdapter(wallet WalletCheckout, breaker *Breaker, returnURL, cancelURL string, logger *zap.Logger) *RedirectWalletAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectWalletAdapter{
		wallet:    wallet,
		breaker:   breaker,
		returnURL: returnURL,
		cancelURL: cancelURL,
		logger:    logger,
	}
}

// Method returns MethodRedirectWallet.
func (a *RedirectWalletAdapter) Method() domain.Method {
	return domain.MethodRedirectWallet
}

// AttemptCharge returns RedirectRequired until the return callback has stored
// the token and payer id, then executes the approved checkout.
func (a *RedirectWalletAdapter) AttemptCharge(ctx context.Context, p *domain.Payment, _ ChargeInput) (ChargeResult, error) {
	if !p.HasRedirectCredentials() {
		return a.initiate(ctx, p)
	}

	ref, err := Call(ctx, a.breaker, "execute", func(ctx context.Context) (string, error) {
		return a.wallet.Execute(ctx, ExecuteRequest{
			PaymentID: p.ID(),
			Token:     p.ExternalToken(),
			PayerID:   p.ExternalPayerID(),
			Amount:    FormatAmount(p.Amount(), p.Currency()),
			Currency:  p.Currency(),
		})
	})
	if err != nil {
		res := resultFromError(err)
		a.logger.Info("wallet execution not completed",
			zap.String("payment_id", p.ID().String()),
			zap.String("reason", res.Reason),
			zap.Error(err),
		)
		return res, nil
	}
	return Charged(ref), nil
}

func (a *RedirectWalletAdapter) initiate(ctx context.Context, p *domain.Payment) (ChargeResult, error) {
	checkout, err := Call(ctx, a.breaker, "checkout", func(ctx context.Context) (*Checkout, error) {
		return a.wallet.CreateCheckout(ctx, CheckoutRequest{
			PaymentID: p.ID(),
			Amount:    FormatAmount(p.Amount(), p.Currency()),
			Currency:  p.Currency(),
			ReturnURL: withPaymentID(a.returnURL, p.ID()),
			CancelURL: withPaymentID(a.cancelURL, p.ID()),
		})
	})
	if err != nil {
		res := resultFromError(err)
		a.logger.Warn("wallet checkout not started",
			zap.String("payment_id", p.ID().String()),
			zap.String("reason", res.Reason),
			zap.Error(err),
		)
		return res, nil
	}
	return RedirectRequired(checkout.ApproveURL, checkout.Token), nil
}

func withPaymentID(url string, id uuid.UUID) string {
	return strings.ReplaceAll(url, "{id}", id.String())
}
