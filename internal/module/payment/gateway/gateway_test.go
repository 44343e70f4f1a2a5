package gateway

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/payments/internal/module/payment/domain"
	"github.com/uniedit/payments/internal/module/payment/verifier"
	"github.com/uniedit/payments/internal/shared/config"
	"github.com/uniedit/payments/internal/shared/metrics"
)

// --- Mocks ---

type mockCardNetwork struct {
	mock.Mock
}

func (m *mockCardNetwork) Charge(ctx context.Context, charge CardCharge) (string, error) {
	args := m.Called(ctx, charge)
	return args.String(0), args.Error(1)
}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Checkout), args.Error(1)
}

func (m *mockWallet) Execute(ctx context.Context, req ExecuteRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type fakePagePayer struct {
	url string
	err error
	got PagePayRequest
}

func (f *fakePagePayer) PagePayURL(_ context.Context, req PagePayRequest) (string, error) {
	f.got = req
	return f.url, f.err
}

func newPayment(t *testing.T, method domain.Method) *domain.Payment {
	t.Helper()
	p, err := domain.NewPayment(uuid.New(), 1000, "USD", 1)
	require.NoError(t, err)
	if method != domain.MethodNone {
		require.NoError(t, p.SetMethod(method))
	}
	return p
}

// --- Card ---

func TestCardAdapter_AttemptCharge(t *testing.T) {
	tests := []struct {
		name          string
		networkRef    string
		networkErr    error
		wantOutcome   Outcome
		wantReason    string
		wantRetryable bool
	}{
		{name: "success", networkRef: "pi_123", wantOutcome: OutcomeCharged},
		{
			name:        "decline",
			networkErr:  &RejectionError{Code: "insufficient_funds"},
			wantOutcome: OutcomeRejected,
			wantReason:  "insufficient_funds",
		},
		{
			name:          "timeout",
			networkErr:    context.DeadlineExceeded,
			wantOutcome:   OutcomeRejected,
			wantReason:    ReasonTimeout,
			wantRetryable: true,
		},
		{
			name:          "transport failure",
			networkErr:    errors.New("connection reset"),
			wantOutcome:   OutcomeRejected,
			wantReason:    ReasonUnavailable,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPayment(t, domain.MethodCard)
			network := new(mockCardNetwork)
			network.On("Charge", mock.Anything, CardCharge{
				PaymentID: p.ID(),
				Amount:    1000,
				Currency:  "USD",
				Token:     "pm_card_visa",
			}).Return(tt.networkRef, tt.networkErr)

			adapter := NewCardAdapter(network, nil, nil)
			res, err := adapter.AttemptCharge(context.Background(), p, ChargeInput{CardToken: " pm_card_visa "})

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, tt.wantRetryable, res.Retryable)
			if tt.wantOutcome == OutcomeCharged {
				assert.Equal(t, tt.networkRef, res.Reference)
			}
			network.AssertExpectations(t)
		})
	}
}

func TestCardAdapter_RequiresToken(t *testing.T) {
	network := new(mockCardNetwork)
	adapter := NewCardAdapter(network, nil, nil)

	_, err := adapter.AttemptCharge(context.Background(), newPayment(t, domain.MethodCard), ChargeInput{})
	assert.ErrorIs(t, err, ErrCardTokenRequired)
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	network.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

// --- Breaker ---

func TestBreaker_DeclinesDoNotTrip(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	b := NewBreaker(domain.GatewayStripe, config.BreakerConfig{FailureThreshold: 2, Timeout: time.Minute}, m, nil)

	for i := 0; i < 5; i++ {
		_, err := Call(context.Background(), b, "charge", func(context.Context) (string, error) {
			return "", &RejectionError{Code: "card_declined"}
		})
		assert.True(t, IsRejection(err))
	}

	ref, err := Call(context.Background(), b, "charge", func(context.Context) (string, error) {
		return "pi_1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", ref)
}

func TestBreaker_OpensOnTransportFailures(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	b := NewBreaker(domain.GatewayPayPal, config.BreakerConfig{FailureThreshold: 2, Timeout: time.Minute}, m, nil)

	down := func(context.Context) (string, error) { return "", errors.New("connection refused") }
	for i := 0; i < 2; i++ {
		_, err := Call(context.Background(), b, "execute", down)
		require.Error(t, err)
	}

	called := false
	_, err := Call(context.Background(), b, "execute", func(context.Context) (string, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayBreakerOpen.WithLabelValues(domain.GatewayPayPal)))

	res := resultFromError(err)
	assert.Equal(t, ReasonUnavailable, res.Reason)
	assert.True(t, res.Retryable)
}

// --- Redirect wallet ---

func TestRedirectWalletAdapter_InitiatesWithoutCredentials(t *testing.T) {
	p := newPayment(t, domain.MethodRedirectWallet)
	wallet := new(mockWallet)
	wallet.On("CreateCheckout", mock.Anything, CheckoutRequest{
		PaymentID: p.ID(),
		Amount:    "10.00",
		Currency:  "USD",
		ReturnURL: "https://shop.test/payments/redirect_return?payment_id=" + p.ID().String(),
		CancelURL: "https://shop.test/payments/redirect_cancel?payment_id=" + p.ID().String(),
	}).Return(&Checkout{Token: "EC-1", ApproveURL: "https://paypal.test/checkoutnow?token=EC-1"}, nil)

	adapter := NewRedirectWalletAdapter(wallet,
		nil,
		"https://shop.test/payments/redirect_return?payment_id={id}",
		"https://shop.test/payments/redirect_cancel?payment_id={id}",
		nil,
	)
	res, err := adapter.AttemptCharge(context.Background(), p, ChargeInput{})

	require.NoError(t, err)
	assert.Equal(t, OutcomeRedirectRequired, res.Outcome)
	assert.Contains(t, res.RedirectURL, "token=EC-1")
	assert.Equal(t, "EC-1", res.Reference)
	wallet.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestRedirectWalletAdapter_ExecutesWithCredentials(t *testing.T) {
	p := newPayment(t, domain.MethodRedirectWallet)
	require.NoError(t, p.BeginRedirectCheckout("EC-1"))
	require.NoError(t, p.CaptureRedirectCredentials("EC-1", "PAYER-1"))
	execute := ExecuteRequest{
		PaymentID: p.ID(),
		Token:     "EC-1",
		PayerID:   "PAYER-1",
		Amount:    "10.00",
		Currency:  "USD",
	}

	t.Run("approved", func(t *testing.T) {
		wallet := new(mockWallet)
		wallet.On("Execute", mock.Anything, execute).Return("CAPTURE-1", nil)

		res, err := NewRedirectWalletAdapter(wallet, nil, "", "", nil).AttemptCharge(context.Background(), p, ChargeInput{})
		require.NoError(t, err)
		assert.Equal(t, OutcomeCharged, res.Outcome)
		assert.Equal(t, "CAPTURE-1", res.Reference)
		wallet.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
	})

	t.Run("refused", func(t *testing.T) {
		wallet := new(mockWallet)
		wallet.On("Execute", mock.Anything, execute).
			Return("", &RejectionError{Code: "paypal_422", Message: "INSTRUMENT_DECLINED"})

		res, err := NewRedirectWalletAdapter(wallet, nil, "", "", nil).AttemptCharge(context.Background(), p, ChargeInput{})
		require.NoError(t, err)
		assert.Equal(t, OutcomeRejected, res.Outcome)
		assert.Equal(t, "paypal_422", res.Reason)
		assert.False(t, res.Retryable)
	})
}

// --- Async wallet ---

func notification(params map[string]string) *verifier.Notification {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	return &verifier.Notification{Params: v}
}

func TestAsyncWalletAdapter_AttemptChargeReturnsPage(t *testing.T) {
	payer := &fakePagePayer{url: "https://openapi.alipay.test/gateway.do?sign=x"}
	adapter := NewAsyncWalletAdapter(payer, nil, nil, "Credits", nil)
	p := newPayment(t, domain.MethodAsyncWallet)

	res, err := adapter.AttemptCharge(context.Background(), p, ChargeInput{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRedirectRequired, res.Outcome)
	assert.Equal(t, payer.url, res.RedirectURL)
	assert.Equal(t, p.ID(), payer.got.PaymentID)
	assert.Equal(t, "10.00", payer.got.Amount)
}

func TestAsyncWalletAdapter_Receive(t *testing.T) {
	paymentID := uuid.New()
	trusted := verifier.Func(func(context.Context, *verifier.Notification) error { return nil })
	distrusted := verifier.Func(func(context.Context, *verifier.Notification) error {
		return errors.New("bad signature")
	})
	panicky := verifier.Func(func(context.Context, *verifier.Notification) error { panic("boom") })

	base := map[string]string{
		"out_trade_no": paymentID.String(),
		"trade_no":     "2026101622001",
		"trade_status": "TRADE_FINISHED",
		"total_fee":    "10.00",
		"currency":     "cny",
		"notify_id":    "n-1",
	}

	t.Run("verified finalized", func(t *testing.T) {
		s, err := NewAsyncWalletAdapter(nil, trusted, nil, "", nil).Receive(context.Background(), notification(base))
		require.NoError(t, err)
		assert.Equal(t, paymentID, s.PaymentID)
		assert.True(t, s.Finalized)
		assert.Equal(t, "CNY", s.Currency)
		assert.Equal(t, "10.00", s.Amount)
		assert.Equal(t, "n-1", s.NotifyID)
	})

	t.Run("pending status is not finalized", func(t *testing.T) {
		params := map[string]string{"out_trade_no": paymentID.String(), "trade_status": "WAIT_BUYER_PAY"}
		s, err := NewAsyncWalletAdapter(nil, trusted, nil, "", nil).Receive(context.Background(), notification(params))
		require.NoError(t, err)
		assert.False(t, s.Finalized)
	})

	t.Run("verification failure", func(t *testing.T) {
		_, err := NewAsyncWalletAdapter(nil, distrusted, nil, "", nil).Receive(context.Background(), notification(base))
		assert.ErrorIs(t, err, verifier.ErrUnverified)
	})

	t.Run("verifier panic is a failure", func(t *testing.T) {
		_, err := NewAsyncWalletAdapter(nil, panicky, nil, "", nil).Receive(context.Background(), notification(base))
		assert.ErrorIs(t, err, verifier.ErrUnverified)
	})

	t.Run("no verifier", func(t *testing.T) {
		_, err := NewAsyncWalletAdapter(nil, nil, nil, "", nil).Receive(context.Background(), notification(base))
		assert.ErrorIs(t, err, verifier.ErrUnverified)
	})

	t.Run("malformed payment id", func(t *testing.T) {
		params := map[string]string{"out_trade_no": "order-42", "trade_status": "TRADE_SUCCESS"}
		_, err := NewAsyncWalletAdapter(nil, trusted, nil, "", nil).Receive(context.Background(), notification(params))
		assert.ErrorIs(t, err, ErrMalformedNotification)
	})
}

func TestAsyncSettlement_Matches(t *testing.T) {
	p, err := domain.NewPayment(uuid.New(), 1000, "CNY", 1)
	require.NoError(t, err)

	assert.True(t, (&AsyncSettlement{Amount: "10.00", Currency: "CNY"}).Matches(p))
	assert.True(t, (&AsyncSettlement{Amount: "10"}).Matches(p))
	assert.True(t, (&AsyncSettlement{}).Matches(p))
	assert.False(t, (&AsyncSettlement{Amount: "10.00", Currency: "USD"}).Matches(p))
	assert.False(t, (&AsyncSettlement{Amount: "0.01", Currency: "CNY"}).Matches(p))
	assert.False(t, (&AsyncSettlement{Amount: "abc"}).Matches(p))
}

// --- Registry ---

func TestRegistry(t *testing.T) {
	card := NewCardAdapter(new(mockCardNetwork), nil, nil)
	r := NewRegistry(card, nil)

	got, err := r.Get(domain.MethodCard)
	require.NoError(t, err)
	assert.Same(t, card, got)

	_, err = r.Get(domain.MethodRedirectWallet)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
