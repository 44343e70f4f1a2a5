package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniedit/payments/internal/module/payment/domain"
	"github.com/uniedit/payments/internal/module/payment/gateway"
	"github.com/uniedit/payments/internal/module/payment/verifier"
	"github.com/uniedit/payments/internal/shared/config"
	"github.com/uniedit/payments/internal/shared/events"
	"github.com/uniedit/payments/internal/shared/metrics"
)

// AdvanceStatus is the result of a PATCH against a payment.
type AdvanceStatus string

const (
	StatusCharged          AdvanceStatus = "charged"
	StatusRedirectRequired AdvanceStatus = "redirect_required"
	StatusAlreadyCharged   AdvanceStatus = "already_charged"
	StatusMethodSelected   AdvanceStatus = "method_selected"
)

// Notification results, used for logs and metrics.
const (
	NotificationCharged        = "charged"
	NotificationDuplicate      = "duplicate"
	NotificationUnverified     = "unverified"
	NotificationMalformed      = "malformed"
	NotificationUnknownPayment = "unknown_payment"
	NotificationMethodMismatch = "method_mismatch"
	NotificationAmountMismatch = "amount_mismatch"
	NotificationNotFinalized   = "not_finalized"
	NotificationError          = "error"
)

// CreateInput holds the attributes of a new payment. The entitlement it
// grants is always payments.default_credits.
type CreateInput struct {
	Amount   int64
	Currency string
	Method   string
}

// AdvanceInput holds the method selection and credentials supplied with a PATCH.
type AdvanceInput struct {
	Method        string
	CardToken     string
	ExternalToken string
	PayerID       string
}

// AdvanceResult is what a successful PATCH reports back.
type AdvanceResult struct {
	Status      AdvanceStatus
	Payment     *domain.Payment
	RedirectURL string
	NextURL     string
	Notice      *Notice
}

// Orchestrator drives payments through method selection, charge attempts and
// the exactly-once charge commit.
type Orchestrator struct {
	repo     Repository
	gateways *gateway.Registry
	async    NotificationReceiver
	cardHook CardWebhookParser
	credits  CreditApplier
	events   EventPublisher
	archive  Archiver
	metrics  *metrics.Metrics
	cfg      config.PaymentsConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrchestrator creates a new Orchestrator. async, cardHook, events and
// archive may be nil.
func NewOrchestrator(
	repo Repository,
	gateways *gateway.Registry,
	async NotificationReceiver,
	cardHook CardWebhookParser,
	credits CreditApplier,
	publisher EventPublisher,
	archive Archiver,
	m *metrics.Metrics,
	cfg config.PaymentsConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultCredits <= 0 {
		cfg.DefaultCredits = 1
	}
	return &Orchestrator{
		repo:     repo,
		gateways: gateways,
		async:    async,
		cardHook: cardHook,
		credits:  credits,
		events:   publisher,
		archive:  archive,
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create creates an uncharged payment owned by userID.
func (o *Orchestrator) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*domain.Payment, error) {
	p, err := domain.NewPayment(userID, in.Amount, in.Currency, o.cfg.DefaultCredits)
	if err != nil {
		return nil, err
	}
	if in.Method != "" {
		m, err := domain.ParseMethod(in.Method)
		if err != nil {
			return nil, err
		}
		if err := p.SetMethod(m); err != nil {
			return nil, err
		}
	}

	if err := o.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	o.logger.Info("payment created",
		zap.String("payment_id", p.ID().String()),
		zap.String("user_id", userID.String()),
		zap.String("method", p.Method().String()),
	)
	return p, nil
}

// Get returns the payment if userID owns it. Payments of other users are
// reported as not found.
func (o *Orchestrator) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Payment, error) {
	p, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(userID) {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

// ListCharged returns userID's charged payments, newest first.
func (o *Orchestrator) ListCharged(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	return o.repo.ListChargedByUser(ctx, userID)
}

// Advance selects or confirms the method, stores supplied credentials and
// makes one charge attempt. Rejections are returned as *GatewayRejectedError
// or *GatewayUnavailableError and leave the stored payment untouched.
func (o *Orchestrator) Advance(ctx context.Context, userID, id uuid.UUID, in AdvanceInput) (*AdvanceResult, error) {
	p, err := o.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.IsCharged() {
		notice := AlreadyChargedNotice(p.Method().Gateway())
		return &AdvanceResult{Status: StatusAlreadyCharged, Payment: p, Notice: &notice}, nil
	}

	if in.Method != "" {
		m, err := domain.ParseMethod(in.Method)
		if err != nil {
			return nil, err
		}
		if err := p.SetMethod(m); err != nil {
			return nil, err
		}
	}
	if !p.HasMethod() {
		return nil, domain.ErrMethodNotSelected
	}
	if in.ExternalToken != "" || in.PayerID != "" {
		if err := p.CaptureRedirectCredentials(in.ExternalToken, in.PayerID); err != nil {
			return nil, err
		}
	}

	// A card method picked without a token is only a selection.
	if p.Method() == domain.MethodCard && strings.TrimSpace(in.CardToken) == "" {
		if err := o.repo.Save(ctx, p); err != nil {
			return o.alreadyCharged(ctx, p, err)
		}
		return &AdvanceResult{Status: StatusMethodSelected, Payment: p}, nil
	}

	gw := p.Method().Gateway()
	adapter, err := o.gateways.Get(p.Method())
	if err != nil {
		o.recordAttempt(gw, "not_configured")
		return nil, &GatewayUnavailableError{Gateway: gw, Reason: gateway.ReasonUnavailable, Err: err}
	}

	res, err := adapter.AttemptCharge(ctx, p, gateway.ChargeInput{CardToken: in.CardToken})
	if err != nil {
		return nil, err
	}
	o.recordAttempt(gw, string(res.Outcome))

	switch res.Outcome {
	case gateway.OutcomeCharged:
		newly, err := o.applyCharge(ctx, p, res.Reference)
		if err != nil {
			return nil, err
		}
		if !newly {
			return o.alreadyCharged(ctx, p, domain.ErrAlreadyCharged)
		}
		o.publishCharged(ctx, p)
		notice := SucceededNotice(gw)
		result := &AdvanceResult{Status: StatusCharged, Payment: p, Notice: &notice}
		if p.Method() == domain.MethodRedirectWallet {
			result.NextURL = o.cfg.BillingAccountURL
		}
		return result, nil

	case gateway.OutcomeRedirectRequired:
		if p.Method() == domain.MethodRedirectWallet {
			if err := p.BeginRedirectCheckout(res.Reference); err != nil {
				return nil, err
			}
		}
		if err := o.repo.Save(ctx, p); err != nil {
			return o.alreadyCharged(ctx, p, err)
		}
		return &AdvanceResult{Status: StatusRedirectRequired, Payment: p, RedirectURL: res.RedirectURL}, nil

	default:
		o.logger.Info("charge rejected",
			zap.String("payment_id", p.ID().String()),
			zap.String("gateway", gw),
			zap.String("reason", res.Reason),
			zap.Bool("retryable", res.Retryable),
		)
		if res.Retryable {
			return nil, &GatewayUnavailableError{Gateway: gw, Reason: res.Reason, Err: res.Cause}
		}
		return nil, &GatewayRejectedError{Gateway: gw, Reason: res.Reason}
	}
}

// alreadyCharged turns a lost race into the already-charged result.
func (o *Orchestrator) alreadyCharged(ctx context.Context, p *domain.Payment, err error) (*AdvanceResult, error) {
	if !errors.Is(err, domain.ErrAlreadyCharged) {
		return nil, err
	}
	current, getErr := o.repo.Get(ctx, p.ID())
	if getErr != nil {
		return nil, getErr
	}
	notice := AlreadyChargedNotice(current.Method().Gateway())
	return &AdvanceResult{Status: StatusAlreadyCharged, Payment: current, Notice: &notice}, nil
}

// CaptureRedirectReturn stores the wallet credentials handed back on the
// return URL and returns the confirmation URL. Only the token of the checkout
// started for the payment is accepted. It never charges.
func (o *Orchestrator) CaptureRedirectReturn(ctx context.Context, id uuid.UUID, token, payerID string) (string, error) {
	p, err := o.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if err := p.CaptureRedirectCredentials(token, payerID); err != nil {
		return "", err
	}
	if err := o.repo.Save(ctx, p); err != nil {
		return "", err
	}

	o.logger.Info("redirect wallet credentials captured",
		zap.String("payment_id", p.ID().String()),
		zap.String("gateway", domain.GatewayPayPal),
	)
	return o.ConfirmURL(p.ID()), nil
}

// CancelRedirect returns where to send a payer who aborted the wallet
// checkout. It does not read or modify any payment.
func (o *Orchestrator) CancelRedirect() (string, Notice) {
	notice := CancelNotice()
	return withQuery(o.cfg.NewPaymentURL, "alert", notice.Key), notice
}

// ConfirmURL returns the confirmation step URL for a payment.
func (o *Orchestrator) ConfirmURL(id uuid.UUID) string {
	return strings.ReplaceAll(o.cfg.ConfirmURL, "{id}", id.String())
}

// HandleAsyncNotification processes one async wallet notification and
// reports how it was resolved. Only storage failures return an error;
// everything else, including failed verification, is acknowledged.
func (o *Orchestrator) HandleAsyncNotification(ctx context.Context, n *verifier.Notification) (string, error) {
	gw := domain.GatewayAlipay
	o.archiveRaw(ctx, gw, "application/x-www-form-urlencoded", n.Body)

	if o.async == nil {
		o.recordNotification(gw, NotificationUnverified)
		o.logger.Warn("async notification received but no receiver is configured")
		return NotificationUnverified, nil
	}

	settlement, err := o.async.Receive(ctx, n)
	if err != nil {
		result := NotificationUnverified
		if errors.Is(err, gateway.ErrMalformedNotification) {
			result = NotificationMalformed
		}
		o.recordNotification(gw, result)
		o.logger.Warn("async notification ignored",
			zap.String("gateway", gw),
			zap.String("outcome", result),
			zap.Error(err),
		)
		return result, nil
	}

	var (
		result  string
		charged *domain.Payment
	)
	err = o.repo.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, charged, err = o.settleAsync(ctx, settlement, string(n.Body))
		return err
	})
	if err != nil {
		o.recordNotification(gw, NotificationError)
		o.logger.Error("async notification processing failed",
			zap.String("payment_id", settlement.PaymentID.String()),
			zap.Error(err),
		)
		return NotificationError, err
	}

	if charged != nil {
		o.publishCharged(ctx, charged)
	}
	o.recordNotification(gw, result)
	o.logger.Info("async notification processed",
		zap.String("payment_id", settlement.PaymentID.String()),
		zap.String("gateway", gw),
		zap.String("status", settlement.Status),
		zap.String("outcome", result),
	)
	return result, nil
}

func (o *Orchestrator) settleAsync(ctx context.Context, s *gateway.AsyncSettlement, payload string) (string, *domain.Payment, error) {
	notifyID := s.NotifyID
	if notifyID == "" {
		notifyID = s.TradeNo + ":" + s.Status
	}
	fresh, err := o.repo.RecordNotification(ctx, &domain.Notification{
		ID:         uuid.New(),
		Gateway:    domain.GatewayAlipay,
		NotifyID:   notifyID,
		PaymentID:  s.PaymentID,
		TradeNo:    s.TradeNo,
		Status:     s.Status,
		Amount:     s.Amount,
		Currency:   s.Currency,
		Payload:    payload,
		ReceivedAt: o.now(),
	})
	if err != nil {
		return "", nil, err
	}
	if !fresh {
		return NotificationDuplicate, nil, nil
	}

	p, err := o.repo.Get(ctx, s.PaymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return NotificationUnknownPayment, nil, nil
		}
		return "", nil, err
	}
	if p.IsCharged() {
		return NotificationDuplicate, nil, nil
	}
	if !p.HasMethod() {
		if err := p.SetMethod(domain.MethodAsyncWallet); err != nil {
			return "", nil, err
		}
	}
	if p.Method() != domain.MethodAsyncWallet {
		o.logger.Warn("async notification for a payment of another method",
			zap.String("payment_id", p.ID().String()),
			zap.String("method", p.Method().String()),
		)
		return NotificationMethodMismatch, nil, nil
	}
	if !s.Finalized {
		return NotificationNotFinalized, nil, nil
	}
	if !s.Matches(p) {
		o.logger.Warn("async notification amount does not match payment, charging anyway",
			zap.String("payment_id", p.ID().String()),
			zap.String("notified_amount", s.Amount),
			zap.String("notified_currency", s.Currency),
			zap.Int64("amount", p.Amount()),
			zap.String("currency", p.Currency()),
		)
	}

	newly, err := o.applyCharge(ctx, p, s.TradeNo)
	if err != nil {
		return "", nil, err
	}
	if !newly {
		return NotificationDuplicate, nil, nil
	}
	return NotificationCharged, p, nil
}

// HandleCardWebhook settles a card payment from a verified gateway webhook.
// Signature failures return ErrVerificationFailed.
func (o *Orchestrator) HandleCardWebhook(ctx context.Context, payload []byte, signature string) error {
	gw := domain.GatewayStripe
	if o.cardHook == nil {
		return fmt.Errorf("%w: card webhook not configured", ErrVerificationFailed)
	}

	s, err := o.cardHook.Parse(payload, signature)
	if err != nil {
		if errors.Is(err, gateway.ErrIgnoredEvent) {
			return nil
		}
		o.recordNotification(gw, NotificationUnverified)
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	var (
		result  string
		charged *domain.Payment
	)
	err = o.repo.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := o.repo.Get(ctx, s.PaymentID)
		if err != nil {
			if errors.Is(err, ErrPaymentNotFound) {
				result = NotificationUnknownPayment
				return nil
			}
			return err
		}
		if !p.HasMethod() {
			if err := p.SetMethod(domain.MethodCard); err != nil {
				return err
			}
		}
		switch {
		case p.IsCharged():
			result = NotificationDuplicate
			return nil
		case p.Method() != domain.MethodCard:
			result = NotificationMethodMismatch
			return nil
		case s.Amount != p.Amount() || s.Currency != p.Currency():
			result = NotificationAmountMismatch
			return nil
		}

		newly, err := o.applyCharge(ctx, p, s.Reference)
		if err != nil {
			return err
		}
		if !newly {
			result = NotificationDuplicate
			return nil
		}
		result, charged = NotificationCharged, p
		return nil
	})
	if err != nil {
		o.recordNotification(gw, NotificationError)
		return err
	}

	if charged != nil {
		o.publishCharged(ctx, charged)
	}
	o.recordNotification(gw, result)
	o.logger.Info("card webhook processed",
		zap.String("payment_id", s.PaymentID.String()),
		zap.String("event_id", s.EventID),
		zap.String("outcome", result),
	)
	return nil
}

// applyCharge persists p, flips charged with a compare-and-set and applies
// the credit, all in one transaction. It reports whether this call performed
// the charge; false means another writer did.
func (o *Orchestrator) applyCharge(ctx context.Context, p *domain.Payment, reference string) (bool, error) {
	if err := p.ReadyToCharge(); err != nil && !errors.Is(err, domain.ErrAlreadyCharged) {
		o.logger.Error("charge refused for a payment that is not ready",
			zap.String("payment_id", p.ID().String()),
			zap.String("method", p.Method().String()),
			zap.Error(err),
		)
		return false, err
	}

	at := o.now()
	var newly bool

	err := o.repo.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := o.repo.Save(ctx, p); err != nil {
			if errors.Is(err, domain.ErrAlreadyCharged) {
				return nil
			}
			return err
		}
		ok, err := o.repo.MarkCharged(ctx, p.ID(), reference, at)
		if err != nil || !ok {
			return err
		}
		if err := o.credits.AddCredits(ctx, p.UserID(), p.Credits(), p.ID()); err != nil {
			return fmt.Errorf("apply credits: %w", err)
		}
		newly = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !newly {
		o.logger.Info("charge already applied",
			zap.String("payment_id", p.ID().String()),
			zap.String("gateway", p.Method().Gateway()),
		)
		return false, nil
	}

	p.MarkCharged(reference, at)
	return true, nil
}

// publishCharged announces a committed charge. Callers invoke it only after
// the outermost transaction has committed.
func (o *Orchestrator) publishCharged(ctx context.Context, p *domain.Payment) {
	o.logger.Info("payment charged",
		zap.String("payment_id", p.ID().String()),
		zap.String("user_id", p.UserID().String()),
		zap.String("gateway", p.Method().Gateway()),
		zap.Int64("credits", p.Credits()),
	)
	if o.events != nil {
		o.events.Publish(ctx, events.NewPaymentChargedEvent(
			p.ID(), p.UserID(), p.Amount(), p.Currency(), p.Method().String(), p.Credits(), p.GatewayReference(),
		))
	}
}

func (o *Orchestrator) archiveRaw(ctx context.Context, gw, contentType string, body []byte) {
	if o.archive == nil || len(body) == 0 {
		return
	}
	key := fmt.Sprintf("%s/%s/%s", gw, o.now().Format("2006/01/02"), uuid.NewString())
	if err := o.archive.Archive(ctx, key, contentType, body); err != nil {
		o.logger.Warn("archive notification failed", zap.String("gateway", gw), zap.Error(err))
	}
}

func (o *Orchestrator) recordAttempt(gw, outcome string) {
	if o.metrics != nil {
		o.metrics.RecordChargeAttempt(gw, outcome)
	}
}

func (o *Orchestrator) recordNotification(gw, result string) {
	if o.metrics != nil {
		o.metrics.RecordNotification(gw, result)
	}
}

func withQuery(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}
