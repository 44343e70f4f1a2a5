package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/payments/internal/module/payment/gateway"
	"github.com/uniedit/payments/internal/shared/auth"
	"github.com/uniedit/payments/internal/shared/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerEnv struct {
	*testEnv
	router *gin.Engine
	token  string
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	env := newTestEnv(t)

	validator := auth.NewJWTValidator("test-secret", "payments")
	token, err := validator.IssueToken(env.userID, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api/v1")
	NewHandler(env.orch).RegisterRoutes(api)
	NewWebhookHandler(env.orch, nil).RegisterRoutes(api)
	NewHandler(env.orch).RegisterProtectedRoutes(api.Group("", middleware.RequireAuth(validator)))

	return &handlerEnv{testEnv: env, router: r, token: token}
}

func (e *handlerEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *handlerEnv) create(t *testing.T) uuid.UUID {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/payments", map[string]any{"amount": 1200, "currency": "USD"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Notice *Notice `json:"notice"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandler_CreatePayment(t *testing.T) {
	env := newHandlerEnv(t)

	t.Run("created with configured credits", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/payments", map[string]any{"amount": 1, "currency": "USD", "credits": 5000})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp PaymentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.Amount)
		assert.Equal(t, int64(1), resp.Credits)
		assert.False(t, resp.Charged)
		assert.Equal(t, "created", resp.State)
	})

	t.Run("validation error", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/payments", map[string]any{"amount": -1, "currency": "USD"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandler_UpdatePayment_CardCharged(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.create(t)

	w := env.do(http.MethodPatch, "/api/v1/payments/"+id.String(), map[string]any{
		"payment_method": "card",
		"card_token":     "tok_visa",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AdvanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusCharged, resp.Status)
	assert.True(t, resp.Payment.Charged)
	assert.Equal(t, "payments.stripe.payment-succeeded.title", resp.Notice.Key)

	w = env.do(http.MethodGet, "/api/v1/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list PaymentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Payments, 1)
	assert.Equal(t, id, list.Payments[0].ID)
}

func TestHandler_UpdatePayment_Errors(t *testing.T) {
	tests := []struct {
		name       string
		cardErr    error
		body       map[string]any
		wantStatus int
		wantCode   string
		wantNotice string
	}{
		{
			name:       "declined",
			cardErr:    &gateway.RejectionError{Code: "card_declined"},
			body:       map[string]any{"payment_method": "card", "card_token": "tok"},
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "GATEWAY_REJECTED",
			wantNotice: "payments.stripe.payment-failed",
		},
		{
			name:       "unavailable",
			cardErr:    errors.New("connection refused"),
			body:       map[string]any{"payment_method": "card", "card_token": "tok"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "GATEWAY_UNAVAILABLE",
			wantNotice: "payments.stripe.gateway-unavailable",
		},
		{
			name:       "invalid method",
			body:       map[string]any{"payment_method": "cash"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_METHOD",
		},
		{
			name:       "no method",
			body:       map[string]any{},
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_STATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newHandlerEnv(t)
			env.card.err = tt.cardErr
			id := env.create(t)

			w := env.do(http.MethodPatch, "/api/v1/payments/"+id.String(), tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decodeError(t, w)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.wantNotice != "" {
				require.NotNil(t, body.Notice)
				assert.Equal(t, tt.wantNotice, body.Notice.Key)
			}
		})
	}
}

func TestHandler_GetPayment_OtherUser(t *testing.T) {
	env := newHandlerEnv(t)
	p, err := env.orch.Create(t.Context(), uuid.New(), CreateInput{Amount: 100, Currency: "USD"})
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/api/v1/payments/"+p.ID().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/v1/payments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_RedirectFlow(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.create(t)

	w := env.do(http.MethodPatch, "/api/v1/payments/"+id.String(), map[string]any{"payment_method": "paypal"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp AdvanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusRedirectRequired, resp.Status)
	assert.NotEmpty(t, resp.RedirectURL)

	w = env.do(http.MethodGet, "/api/v1/payments/redirect_return?payment_id="+id.String()+"&token=EC-TOKEN&PayerID=PAYER-1", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/payments/"+id.String(), w.Header().Get("Location"))
	assert.False(t, env.repo.stored(id).Charged)

	w = env.do(http.MethodPatch, "/api/v1/payments/"+id.String(), map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusCharged, resp.Status)
	assert.Equal(t, "/account", resp.NextURL)
}

func TestHandler_RedirectReturn_Mismatch(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.create(t)
	w := env.do(http.MethodPatch, "/api/v1/payments/"+id.String(), map[string]any{"payment_method": "paypal"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/v1/payments/redirect_return?payment_id="+id.String()+"&token=EC-OTHER&payer_id=P", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodGet, "/api/v1/payments/redirect_return?payment_id="+id.String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_UpdatePayment_ForeignWalletToken(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.create(t)

	w := env.do(http.MethodPatch, "/api/v1/payments/"+id.String(), map[string]any{
		"payment_method": "paypal",
		"external_token": "ORDER-FROM-ANOTHER-PAYMENT",
		"payer_id":       "PAYER-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", decodeError(t, w).Error.Code)
	assert.False(t, env.repo.stored(id).Charged)
	assert.Empty(t, env.wallet.executed)
	assert.Zero(t, env.credits.balance(env.userID))
}

func TestHandler_RedirectCancel(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.do(http.MethodGet, "/api/v1/payments/redirect_cancel?payment_id="+uuid.NewString(), nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/payments/new?alert=payments.paypal.payment-cancel", w.Header().Get("Location"))
}

func postForm(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_AsyncNotify(t *testing.T) {
	t.Run("charges and acknowledges", func(t *testing.T) {
		env := newHandlerEnv(t)
		id := env.create(t)
		n := signedNotification(id, "n-1", "TRADE_SUCCESS", "12.00", "USD")

		w := postForm(env.router, "/api/v1/payments/async_notify", n.Params.Encode())
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", w.Body.String())
		assert.True(t, env.repo.stored(id).Charged)
		assert.Equal(t, int64(1), env.credits.balance(env.userID))

		w = postForm(env.router, "/api/v1/payments/async_notify", n.Params.Encode())
		assert.Equal(t, "success", w.Body.String())
		assert.Equal(t, int64(1), env.credits.balance(env.userID))
	})

	t.Run("forged notification is acknowledged without charging", func(t *testing.T) {
		env := newHandlerEnv(t)
		id := env.create(t)
		n := signedNotification(id, "n-1", "TRADE_SUCCESS", "12.00", "USD")
		n.Params.Set("sign", strings.Repeat("0", 32))

		w := postForm(env.router, "/api/v1/payments/async_notify", n.Params.Encode())
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", w.Body.String())
		assert.False(t, env.repo.stored(id).Charged)
	})

	t.Run("closed trade is acknowledged without charging", func(t *testing.T) {
		env := newHandlerEnv(t)
		id := env.create(t)
		n := signedNotification(id, "n-1", "TRADE_CLOSED", "12.00", "USD")

		w := postForm(env.router, "/api/v1/payments/async_notify", n.Params.Encode())
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", w.Body.String())
		assert.False(t, env.repo.stored(id).Charged)
		assert.Zero(t, env.credits.callCount())
	})

	t.Run("storage failure answers fail", func(t *testing.T) {
		env := newHandlerEnv(t)
		id := env.create(t)
		env.credits.err = errors.New("database unavailable")
		n := signedNotification(id, "n-1", "TRADE_SUCCESS", "12.00", "USD")

		w := postForm(env.router, "/api/v1/payments/async_notify", n.Params.Encode())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "fail", w.Body.String())
		assert.False(t, env.repo.stored(id).Charged)
	})
}

func TestWebhookHandler_Stripe(t *testing.T) {
	t.Run("invalid signature", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.cardHook.err = errors.New("bad signature")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=00")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_SIGNATURE", decodeError(t, w).Error.Code)
	})

	t.Run("charged", func(t *testing.T) {
		env := newHandlerEnv(t)
		id := env.create(t)
		env.cardHook.settlement = &gateway.CardSettlement{PaymentID: id, Reference: "pi_1", Amount: 1200, Currency: "USD"}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.repo.stored(id).Charged)
	})
}
