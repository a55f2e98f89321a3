package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/service"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/response"
)

// LedgerHandler exposes the caller's GC-Token ledger.
type LedgerHandler struct {
	service *service.LedgerService
}

// NewLedgerHandler creates a new handler.
func NewLedgerHandler(svc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: svc}
}

// Balance godoc
// @Summary Current token balance
// @Tags Tokens
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /tokens/balance [get]
func (h *LedgerHandler) Balance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"gc_token_balance": balance}, nil)
}

// History godoc
// @Summary Token transaction history
// @Tags Tokens
// @Produce json
// @Param type query string false "Filter by type (earned or spent)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /tokens/history [get]
func (h *LedgerHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.TransactionFilter{UserID: claims.UserID}
	filter.Page, filter.PageSize = pageParams(c)
	if raw := c.Query("type"); raw != "" {
		txType := models.TransactionType(raw)
		if txType != models.TransactionEarned && txType != models.TransactionSpent {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "type must be earned or spent"))
			return
		}
		filter.Type = &txType
	}

	transactions, pagination, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transactions, pagination)
}
