package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/payments/internal/shared/auth"
	"github.com/uniedit/payments/internal/shared/logger"
	"github.com/uniedit/payments/internal/shared/metrics"
	"github.com/uniedit/payments/internal/shared/requestctx"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	t.Run("generates new request ID when not provided", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			assert.Equal(t, GetRequestID(c), requestctx.RequestID(c.Request.Context()))
			c.String(http.StatusOK, GetRequestID(c))
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		headerID := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, headerID)
		assert.Equal(t, headerID, w.Body.String())
	})

	t.Run("uses existing request ID from header", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, GetRequestID(c))
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "existing-request-id-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "existing-request-id-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "existing-request-id-123", w.Body.String())
	})
}

func TestRecovery(t *testing.T) {
	buf := &bytes.Buffer{}
	router := gin.New()
	router.Use(Recovery(logger.New(&logger.Config{Output: buf})))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	router := gin.New()
	router.Use(RequestID(), Logging(logger.New(&logger.Config{Output: buf})))
	router.GET("/payments/redirect_return", func(c *gin.Context) {
		c.Status(http.StatusFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/redirect_return?token=EC-1&PayerID=P1", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/payments/redirect_return", entry["path"])
	assert.EqualValues(t, http.StatusFound, entry["status"])
	assert.NotEmpty(t, entry["request_id"])
	assert.NotContains(t, buf.String(), "PayerID")
}

func TestRequireAuth(t *testing.T) {
	validator := auth.NewJWTValidator("secret", "payments")
	userID := uuid.New()
	token, err := validator.IssueToken(userID, time.Minute)
	require.NoError(t, err)

	router := gin.New()
	router.Use(RequireAuth(validator))
	router.GET("/me", func(c *gin.Context) {
		assert.Equal(t, GetUserID(c), requestctx.UserID(c.Request.Context()))
		c.String(http.StatusOK, GetUserID(c).String())
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, userID.String()},
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestMetrics(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())

	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/payments/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/abc", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/payments/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestIdempotency_PassThroughWithoutRedis(t *testing.T) {
	router := gin.New()
	router.Use(Idempotency(nil, IdempotencyConfig{}))

	calls := 0
	router.PATCH("/payments/:id", func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPatch, "/payments/1", nil)
		req.Header.Set(IdempotencyKeyHeader, "same-key")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2, calls)
}

func TestIdempotencyCacheKey(t *testing.T) {
	a := IdempotencyCacheKey("PATCH", "/payments/:id", "user-a", "k1")
	b := IdempotencyCacheKey("PATCH", "/payments/:id", "user-b", "k1")
	c := IdempotencyCacheKey("PATCH", "/payments/:id", "user-a", "k1")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.Contains(t, a, "idempotency:")
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/payments", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/payments", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
