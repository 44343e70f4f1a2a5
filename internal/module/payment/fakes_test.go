package payment

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uniedit/payments/internal/module/payment/domain"
	"github.com/uniedit/payments/internal/module/payment/entity"
	"github.com/uniedit/payments/internal/module/payment/gateway"
	"github.com/uniedit/payments/internal/module/payment/verifier"
	"github.com/uniedit/payments/internal/shared/events"
)

// --- Repository ---

type txKey struct{}

// memoryRepository is a Repository with serialized transactions that roll
// back on error.
type memoryRepository struct {
	txMu          sync.Mutex
	mu            sync.Mutex
	payments      map[uuid.UUID]entity.PaymentEntity
	notifications map[string]bool
	markCalls     int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		payments:      make(map[uuid.UUID]entity.PaymentEntity),
		notifications: make(map[string]bool),
	}
}

func (r *memoryRepository) Create(_ context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID()] = *entity.FromDomainPayment(p)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return ent.ToDomain(), nil
}

func (r *memoryRepository) ListChargedByUser(_ context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Payment
	for _, ent := range r.payments {
		if ent.UserID == userID && ent.Charged {
			out = append(out, ent.ToDomain())
		}
	}
	return out, nil
}

func (r *memoryRepository) Save(_ context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.payments[p.ID()]
	if !ok || ent.Charged {
		return domain.ErrAlreadyCharged
	}
	ent.Method = string(p.Method())
	ent.State = string(p.State())
	ent.ExternalToken = p.ExternalToken()
	ent.ExternalPayerID = p.ExternalPayerID()
	ent.GatewayReference = p.GatewayReference()
	ent.UpdatedAt = p.UpdatedAt()
	r.payments[p.ID()] = ent
	return nil
}

func (r *memoryRepository) MarkCharged(_ context.Context, id uuid.UUID, reference string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markCalls++
	ent, ok := r.payments[id]
	if !ok || ent.Charged {
		return false, nil
	}
	ent.Charged = true
	ent.State = string(domain.StateCharged)
	ent.ChargedAt = &at
	if reference != "" {
		ent.GatewayReference = reference
	}
	r.payments[id] = ent
	return true, nil
}

func (r *memoryRepository) RecordNotification(_ context.Context, n *domain.Notification) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := n.Gateway + "/" + n.NotifyID
	if r.notifications[key] {
		return false, nil
	}
	r.notifications[key] = true
	return true, nil
}

func (r *memoryRepository) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	payments := make(map[uuid.UUID]entity.PaymentEntity, len(r.payments))
	for k, v := range r.payments {
		payments[k] = v
	}
	notifications := make(map[string]bool, len(r.notifications))
	for k, v := range r.notifications {
		notifications[k] = v
	}
	r.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		r.mu.Lock()
		r.payments = payments
		r.notifications = notifications
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memoryRepository) stored(id uuid.UUID) entity.PaymentEntity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payments[id]
}

// --- Credits ---

type fakeCredits struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
	calls    int
	err      error
}

func newFakeCredits() *fakeCredits {
	return &fakeCredits{balances: make(map[uuid.UUID]int64)}
}

func (f *fakeCredits) AddCredits(ctx context.Context, userID uuid.UUID, credits int64, _ uuid.UUID) error {
	if ctx.Value(txKey{}) == nil {
		return errors.New("credits applied outside a transaction")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls++
	f.balances[userID] += credits
	return nil
}

func (f *fakeCredits) balance(userID uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

func (f *fakeCredits) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- Events ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// --- Archive ---

type memoryArchive struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (a *memoryArchive) Archive(_ context.Context, key, _ string, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.items == nil {
		a.items = make(map[string][]byte)
	}
	a.items[key] = body
	return nil
}

// --- Gateways ---

type fakeCardNetwork struct {
	mu    sync.Mutex
	ref   string
	err   error
	calls int
}

func (f *fakeCardNetwork) Charge(_ context.Context, _ gateway.CardCharge) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.ref, f.err
}

type fakeWallet struct {
	token      string
	executeRef string
	executeErr error
	executed   []string
}

func (f *fakeWallet) CreateCheckout(_ context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error) {
	return &gateway.Checkout{
		Token:      f.token,
		ApproveURL: "https://wallet.test/checkoutnow?token=" + f.token,
	}, nil
}

func (f *fakeWallet) Execute(_ context.Context, req gateway.ExecuteRequest) (string, error) {
	f.executed = append(f.executed, req.Token+"/"+req.PayerID)
	return f.executeRef, f.executeErr
}

// chargingAdapter reports every attempt as charged, whatever the payment holds.
type chargingAdapter struct {
	method domain.Method
	calls  int
}

func (a *chargingAdapter) Method() domain.Method { return a.method }

func (a *chargingAdapter) AttemptCharge(_ context.Context, _ *domain.Payment, _ gateway.ChargeInput) (gateway.ChargeResult, error) {
	a.calls++
	return gateway.Charged("CAPTURE-X"), nil
}

type fakePagePayer struct{}

func (fakePagePayer) PagePayURL(_ context.Context, req gateway.PagePayRequest) (string, error) {
	return "https://wallet.test/gateway.do?out_trade_no=" + req.PaymentID.String(), nil
}

type fakeCardHook struct {
	settlement *gateway.CardSettlement
	err        error
}

func (f *fakeCardHook) Parse(_ []byte, _ string) (*gateway.CardSettlement, error) {
	return f.settlement, f.err
}

// --- Notifications ---

const testMD5Key = "partner-md5-key"

func signedNotification(paymentID uuid.UUID, notifyID, status, fee, currency string) *verifier.Notification {
	params := url.Values{}
	params.Set("out_trade_no", paymentID.String())
	params.Set("trade_no", "2026101622001"+notifyID)
	params.Set("trade_status", status)
	params.Set("total_fee", fee)
	params.Set("currency", currency)
	params.Set("notify_id", notifyID)
	params.Set("notify_type", "trade_status_sync")
	params.Set("sign_type", "MD5")
	params.Set("sign", verifier.MD5Sign(params, testMD5Key))
	return &verifier.Notification{Params: params, Body: []byte(params.Encode())}
}
