package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globlecampus/campus-api/internal/service"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/response"
)

// ChatHandler serves the AI study assistant.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler creates a new handler.
func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// Ask godoc
// @Summary Ask the study assistant
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body service.ChatRequest true "Prompt"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /chat [post]
func (h *ChatHandler) Ask(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chat payload"))
		return
	}

	res, err := h.service.Ask(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
