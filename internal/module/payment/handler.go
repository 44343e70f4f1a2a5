package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/uniedit/payments/internal/module/payment/domain"
	"github.com/uniedit/payments/internal/module/payment/gateway"
	apperrors "github.com/uniedit/payments/internal/shared/errors"
	"github.com/uniedit/payments/internal/shared/middleware"
	"github.com/uniedit/payments/internal/shared/response"
)

// Handler handles HTTP requests for payments.
type Handler struct {
	orchestrator *Orchestrator
}

// NewHandler creates a new payment handler.
func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// RegisterRoutes registers the wallet callback routes. The wallet redirects
// the payer's browser here, so they carry no bearer token.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.GET("/redirect_return", h.RedirectReturn)
		payments.GET("/redirect_cancel", h.RedirectCancel)
	}
}

// RegisterProtectedRoutes registers payment routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("", h.CreatePayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.PATCH("/:id", h.UpdatePayment)
	}
}

// CreatePayment creates a payment for the current user.
//
//	@Summary		Create payment
//	@Description	Create an uncharged payment owned by the current user
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Idempotency-Key	header		string					false	"Idempotency key"
//	@Param			request			body		CreatePaymentRequest	true	"Create payment request"
//	@Success		201				{object}	PaymentResponse
//	@Failure		400				{object}	apperrors.ErrorResponse
//	@Failure		401				{object}	apperrors.ErrorResponse
//	@Router			/payments [post]
func (h *Handler) CreatePayment(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.orchestrator.Create(c.Request.Context(), userID, CreateInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Method:   req.PaymentMethod,
	})
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ToResponse(p))
}

// ListPayments lists the current user's charged payments.
//
//	@Summary		List charged payments
//	@Tags			Payment
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	PaymentListResponse
//	@Failure		401	{object}	apperrors.ErrorResponse
//	@Router			/payments [get]
func (h *Handler) ListPayments(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	payments, err := h.orchestrator.ListCharged(c.Request.Context(), userID)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	resp := PaymentListResponse{Payments: make([]*PaymentResponse, len(payments))}
	for i, p := range payments {
		resp.Payments[i] = ToResponse(p)
	}
	c.JSON(http.StatusOK, resp)
}

// GetPayment returns a payment by ID.
//
//	@Summary		Get payment
//	@Tags			Payment
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Payment ID"
//	@Success		200	{object}	PaymentResponse
//	@Failure		400	{object}	apperrors.ErrorResponse
//	@Failure		404	{object}	apperrors.ErrorResponse
//	@Router			/payments/{id} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	p, err := h.orchestrator.Get(c.Request.Context(), userID, paymentID)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToResponse(p))
}

// UpdatePayment selects the method, supplies credentials and attempts the charge.
//
//	@Summary		Advance payment
//	@Description	Select or confirm the payment method and attempt the charge. Card payments charge synchronously; wallet payments may answer with a redirect.
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Idempotency-Key	header		string					false	"Idempotency key"
//	@Param			id				path		string					true	"Payment ID"
//	@Param			request			body		UpdatePaymentRequest	true	"Update payment request"
//	@Success		200				{object}	AdvanceResponse
//	@Failure		400				{object}	apperrors.ErrorResponse
//	@Failure		402				{object}	apperrors.ErrorResponse
//	@Failure		404				{object}	apperrors.ErrorResponse
//	@Failure		409				{object}	apperrors.ErrorResponse
//	@Failure		503				{object}	apperrors.ErrorResponse
//	@Router			/payments/{id} [patch]
func (h *Handler) UpdatePayment(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.orchestrator.Advance(c.Request.Context(), userID, paymentID, AdvanceInput{
		Method:        req.PaymentMethod,
		CardToken:     req.CardToken,
		ExternalToken: req.ExternalToken,
		PayerID:       req.PayerID,
	})
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, AdvanceResponse{
		Status:      result.Status,
		Payment:     ToResponse(result.Payment),
		RedirectURL: result.RedirectURL,
		NextURL:     result.NextURL,
		Notice:      result.Notice,
	})
}

// RedirectReturn stores the wallet credentials and redirects to the confirmation step.
//
//	@Summary		Redirect wallet return
//	@Description	Stores the wallet token and payer id. Never charges.
//	@Tags			Payment
//	@Param			payment_id	query	string	true	"Payment ID"
//	@Param			token		query	string	true	"Wallet token"
//	@Param			payer_id	query	string	false	"Payer ID"
//	@Param			PayerID		query	string	false	"Payer ID as sent by PayPal"
//	@Success		302
//	@Failure		400	{object}	apperrors.ErrorResponse
//	@Failure		404	{object}	apperrors.ErrorResponse
//	@Router			/payments/redirect_return [get]
func (h *Handler) RedirectReturn(c *gin.Context) {
	var q RedirectReturnQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	paymentID, err := uuid.Parse(q.PaymentID)
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	target, err := h.orchestrator.CaptureRedirectReturn(c.Request.Context(), paymentID, q.Token, q.Payer())
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.Redirect(http.StatusFound, target)
}

// RedirectCancel sends the payer back to a new payment with a cancel notice.
//
//	@Summary		Redirect wallet cancel
//	@Description	Never reads or modifies a payment.
//	@Tags			Payment
//	@Param			payment_id	query	string	false	"Payment ID"
//	@Success		302
//	@Router			/payments/redirect_cancel [get]
func (h *Handler) RedirectCancel(c *gin.Context) {
	target, _ := h.orchestrator.CancelRedirect()
	c.Redirect(http.StatusFound, target)
}

var paymentErrorMappings = []response.ErrorMapping{
	{Err: ErrPaymentNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "payment not found"},
	{Err: domain.ErrInvalidMethod, Status: http.StatusBadRequest, Code: "INVALID_METHOD"},
	{Err: domain.ErrMissingCredentials, Status: http.StatusBadRequest, Code: "MISSING_CREDENTIALS"},
	{Err: domain.ErrInvalidAmount, Status: http.StatusBadRequest, Code: "INVALID_AMOUNT"},
	{Err: domain.ErrInvalidCurrency, Status: http.StatusBadRequest, Code: "INVALID_CURRENCY"},
	{Err: ErrCheckoutMismatch, Status: http.StatusConflict, Code: "INVALID_STATE"},
	{Err: domain.ErrInvalidState, Status: http.StatusConflict, Code: "INVALID_STATE"},
}

func handlePaymentError(c *gin.Context, err error) {
	var rejected *GatewayRejectedError
	if errors.As(err, &rejected) {
		notice := FailedNotice(rejected.Gateway)
		response.AppError(c, apperrors.PaymentRequired("GATEWAY_REJECTED", rejected.Reason), gin.H{"notice": notice})
		return
	}

	var unavailable *GatewayUnavailableError
	if errors.As(err, &unavailable) {
		notice := UnavailableNotice(unavailable.Gateway)
		msg := unavailable.Reason
		if errors.Is(err, gateway.ErrNotConfigured) {
			msg = "payment method not available"
		}
		response.AppError(c, apperrors.Unavailable("GATEWAY_UNAVAILABLE", msg), gin.H{"notice": notice})
		return
	}

	response.HandleErrorWithDefault(c, err, paymentErrorMappings)
}
