package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/uniedit/payments/internal/shared/middleware"
	"github.com/uniedit/payments/internal/shared/response"
)

// Handler handles HTTP requests for accounts.
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new account handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the account routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/account", h.GetAccount)
}

// AccountResponse is the caller's entitlement balance.
type AccountResponse struct {
	UserID        uuid.UUID `json:"user_id"`
	SessionsCount int64     `json:"sessions_count"`
}

// GetAccount returns the current user's entitlement balance.
//
//	@Summary		Get account
//	@Tags			Account
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	AccountResponse
//	@Failure		401	{object}	apperrors.ErrorResponse
//	@Router			/account [get]
func (h *Handler) GetAccount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	acc, err := h.service.GetAccount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load account")
		return
	}

	c.JSON(http.StatusOK, AccountResponse{UserID: acc.UserID, SessionsCount: acc.SessionsCount})
}
