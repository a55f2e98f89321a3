package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/service"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/response"
)

// SupportHandler serves the premium help desk and the public contact form.
type SupportHandler struct {
	service *service.SupportService
}

// NewSupportHandler creates a new handler.
func NewSupportHandler(svc *service.SupportService) *SupportHandler {
	return &SupportHandler{service: svc}
}

// CreateQuery godoc
// @Summary File a premium support query
// @Description Requires the premium token balance threshold
// @Tags Support
// @Accept json
// @Produce json
// @Param payload body service.SupportQueryRequest true "Support payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /support/queries [post]
func (h *SupportHandler) CreateQuery(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SupportQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid support payload"))
		return
	}

	user := models.UserInfo{ID: claims.UserID, Email: claims.Email, FirstName: claims.FullName}
	query, err := h.service.CreateQuery(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, query)
}

// MyQueries godoc
// @Summary Own support history
// @Tags Support
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /support/queries [get]
func (h *SupportHandler) MyQueries(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	queries, err := h.service.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queries, nil)
}

// ListAll godoc
// @Summary List support queries (admin)
// @Tags Support
// @Produce json
// @Param status query string false "Filter by status (pending or answered)"
// @Success 200 {object} response.Envelope
// @Router /admin/support/queries [get]
func (h *SupportHandler) ListAll(c *gin.Context) {
	var status *models.SupportStatus
	if raw := c.Query("status"); raw != "" {
		parsed := models.SupportStatus(raw)
		if parsed != models.SupportPending && parsed != models.SupportAnswered {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be pending or answered"))
			return
		}
		status = &parsed
	}

	queries, err := h.service.ListAll(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queries, nil)
}

// Respond godoc
// @Summary Answer a support query (admin)
// @Tags Support
// @Accept json
// @Produce json
// @Param id path string true "Query ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/support/queries/{id}/respond [post]
func (h *SupportHandler) Respond(c *gin.Context) {
	var payload struct {
		Response string `json:"response" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "response is required"))
		return
	}

	query, err := h.service.Respond(c.Request.Context(), c.Param("id"), payload.Response)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, query, nil)
}

// CreateContact godoc
// @Summary Submit the public contact form
// @Tags Support
// @Accept json
// @Produce json
// @Param payload body service.ContactRequest true "Contact payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /contact [post]
func (h *SupportHandler) CreateContact(c *gin.Context) {
	var req service.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact payload"))
		return
	}

	contact, err := h.service.CreateContact(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contact)
}

// ListContacts godoc
// @Summary Contact inbox (admin)
// @Tags Support
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/contact [get]
func (h *SupportHandler) ListContacts(c *gin.Context) {
	contacts, err := h.service.ListContacts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contacts, nil)
}
