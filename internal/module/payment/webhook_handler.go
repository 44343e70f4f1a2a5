package payment

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uniedit/payments/internal/module/payment/verifier"
	"github.com/uniedit/payments/internal/shared/response"
)

// maxNotificationBytes bounds inbound webhook bodies.
const maxNotificationBytes = 64 << 10

// WebhookHandler handles server-to-server gateway notifications.
type WebhookHandler struct {
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(orchestrator *Orchestrator, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{orchestrator: orchestrator, logger: logger}
}

// RegisterRoutes registers the webhook routes.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/payments/async_notify", h.HandleAsyncNotify)
	r.POST("/webhooks/stripe", h.HandleStripeWebhook)
}

// HandleAsyncNotify handles async wallet notifications. The wallet retries
// anything but a literal "success", so verification failures and ignored
// notifications are acknowledged; only storage failures answer "fail".
//
//	@Summary		Async wallet notification
//	@Tags			Webhook
//	@Accept			x-www-form-urlencoded
//	@Produce		plain
//	@Success		200	{string}	string	"success"
//	@Failure		500	{string}	string	"fail"
//	@Router			/payments/async_notify [post]
func (h *WebhookHandler) HandleAsyncNotify(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBytes))
	if err != nil {
		h.logger.Warn("failed to read async notification", zap.Error(err))
		c.String(http.StatusOK, "success")
		return
	}

	params, err := url.ParseQuery(string(body))
	if err != nil {
		h.logger.Warn("failed to parse async notification", zap.Error(err))
		params = url.Values{}
	}

	if _, err := h.orchestrator.HandleAsyncNotification(c.Request.Context(), &verifier.Notification{
		Params: params,
		Body:   body,
	}); err != nil {
		c.String(http.StatusInternalServerError, "fail")
		return
	}
	c.String(http.StatusOK, "success")
}

// HandleStripeWebhook settles card payments from Stripe events.
//
//	@Summary		Stripe webhook
//	@Tags			Webhook
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string	true	"Webhook signature"
//	@Success		200					{object}	map[string]string
//	@Failure		400					{object}	map[string]interface{}
//	@Router			/webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBytes))
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.Error(err))
		response.BadRequest(c, "failed to read body")
		return
	}

	err = h.orchestrator.HandleCardWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, ErrVerificationFailed) {
			h.logger.Warn("invalid webhook signature", zap.Error(err))
			response.Error(c, http.StatusBadRequest, "INVALID_SIGNATURE", "invalid signature")
			return
		}
		h.logger.Error("failed to process webhook", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
