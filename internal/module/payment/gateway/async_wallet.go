package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniedit/payments/internal/module/payment/domain"
	"github.com/uniedit/payments/internal/module/payment/verifier"
)

// Trade statuses that mean the payer's funds were collected.
var finalizedStatuses = map[string]bool{
	"TRADE_FINISHED": true,
	"TRADE_SUCCESS":  true,
}

// ErrMalformedNotification is returned for a verified notification that does
// not reference a payment.
var ErrMalformedNotification = errors.New("malformed notification")

// PagePayRequest starts an async wallet page payment.
type PagePayRequest struct {
	PaymentID uuid.UUID
	Subject   string
	Amount    string
	Currency  string
}

// PagePayer builds the wallet's hosted payment page URL.
type PagePayer interface {
	PagePayURL(ctx context.Context, req PagePayRequest) (string, error)
}

// AsyncSettlement is a verified async notification mapped onto a payment.
type AsyncSettlement struct {
	PaymentID uuid.UUID
	NotifyID  string
	TradeNo   string
	Status    string
	Finalized bool
	Amount    string
	Currency  string
}

// AsyncWalletAdapter settles payments from signed out-of-band notifications.
// A user-initiated attempt only produces the hosted payment page.
type AsyncWalletAdapter struct {
	payer    PagePayer
	verifier verifier.Verifier
	breaker  *Breaker
	subject  string
	logger   *zap.Logger
}

// NewAsyncWalletAdapter creates an async wallet adapter. payer may be nil
// when only notifications are accepted.
func NewAsyncWalletAdapter(payer PagePayer, v verifier.Verifier, breaker *Breaker, subject string, logger *zap.Logger) *AsyncWalletAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncWalletAdapter{
		payer:    payer,
		verifier: v,
		breaker:  breaker,
		subject:  subject,
		logger:   logger,
	}
}

// Method returns MethodAsyncWallet.
func (a *AsyncWalletAdapter) Method() domain.Method {
	return domain.MethodAsyncWallet
}

// AttemptCharge never charges: the payment settles when the wallet notifies.
func (a *AsyncWalletAdapter) AttemptCharge(ctx context.Context, p *domain.Payment, _ ChargeInput) (ChargeResult, error) {
	if a.payer == nil {
		return Rejected(ReasonUnavailable, true, ErrNotConfigured), nil
	}

	url, err := Call(ctx, a.breaker, "page_pay", func(ctx context.Context) (string, error) {
		return a.payer.PagePayURL(ctx, PagePayRequest{
			PaymentID: p.ID(),
			Subject:   a.subject,
			Amount:    FormatAmount(p.Amount(), p.Currency()),
			Currency:  p.Currency(),
		})
	})
	if err != nil {
		res := resultFromError(err)
		a.logger.Warn("page payment not started",
			zap.String("payment_id", p.ID().String()),
			zap.String("reason", res.Reason),
			zap.Error(err),
		)
		return res, nil
	}
	return RedirectRequired(url, ""), nil
}

// Receive verifies n and maps it onto a settlement. Nothing in n is read
// before verification passes.
func (a *AsyncWalletAdapter) Receive(ctx context.Context, n *verifier.Notification) (*AsyncSettlement, error) {
	if err := a.verify(ctx, n); err != nil {
		return nil, err
	}

	paymentID, err := uuid.Parse(strings.TrimSpace(n.Get("out_trade_no")))
	if err != nil {
		return nil, fmt.Errorf("%w: out_trade_no: %v", ErrMalformedNotification, err)
	}

	amount := n.Get("total_amount")
	if amount == "" {
		amount = n.Get("total_fee")
	}
	status := strings.ToUpper(n.Get("trade_status"))

	return &AsyncSettlement{
		PaymentID: paymentID,
		NotifyID:  n.Get("notify_id"),
		TradeNo:   n.Get("trade_no"),
		Status:    status,
		Finalized: finalizedStatuses[status],
		Amount:    amount,
		Currency:  strings.ToUpper(n.Get("currency")),
	}, nil
}

func (a *AsyncWalletAdapter) verify(ctx context.Context, n *verifier.Notification) (err error) {
	if a.verifier == nil {
		return fmt.Errorf("%w: no verifier configured", verifier.ErrUnverified)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: verifier panicked: %v", verifier.ErrUnverified, r)
		}
	}()
	if err := a.verifier.Verify(ctx, n); err != nil {
		if !errors.Is(err, verifier.ErrUnverified) {
			err = fmt.Errorf("%w: %v", verifier.ErrUnverified, err)
		}
		return err
	}
	return nil
}

// Matches reports whether the settlement's amount and currency agree with p.
// Absent fields are not compared.
func (s *AsyncSettlement) Matches(p *domain.Payment) bool {
	if s.Currency != "" && s.Currency != p.Currency() {
		return false
	}
	if s.Amount == "" {
		return true
	}
	minor, err := ParseAmount(s.Amount, p.Currency())
	return err == nil && minor == p.Amount()
}
