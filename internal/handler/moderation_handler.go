package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globlecampus/campus-api/internal/dto"
	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/service"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/response"
)

// ModerationHandler serves the admin content review workflow.
type ModerationHandler struct {
	service    *service.ModerationService
	bulkImport *service.BulkImportService
	dashboards *service.DashboardService
	metrics    *service.MetricsService
}

// NewModerationHandler creates a new handler.
func NewModerationHandler(svc *service.ModerationService, bulkImport *service.BulkImportService, dashboards *service.DashboardService, metrics *service.MetricsService) *ModerationHandler {
	return &ModerationHandler{service: svc, bulkImport: bulkImport, dashboards: dashboards, metrics: metrics}
}

func contentKindParam(c *gin.Context) (models.ContentKind, bool) {
	kind, err := models.ParseContentKind(c.Param("kind"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return "", false
	}
	return kind, true
}

// Pending godoc
// @Summary Pending approval queue (admin)
// @Tags Moderation
// @Produce json
// @Param kind path string true "Content kind (material, blog, video, marketplace)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/content/{kind}/pending [get]
func (h *ModerationHandler) Pending(c *gin.Context) {
	kind, ok := contentKindParam(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	items, pagination, err := h.service.PendingQueue(c.Request.Context(), kind, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Approve godoc
// @Summary Approve a pending submission (admin)
// @Description Transitions to approved and credits the owner per the award policy
// @Tags Moderation
// @Accept json
// @Produce json
// @Param kind path string true "Content kind"
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/content/{kind}/{id}/approve [post]
func (h *ModerationHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	kind, ok := contentKindParam(c)
	if !ok {
		return
	}

	var payload struct {
		Tokens float64 `json:"tokens"`
	}
	_ = c.ShouldBindJSON(&payload)

	item, err := h.service.Approve(c.Request.Context(), kind, c.Param("id"), payload.Tokens, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordModeration(string(kind), "approve")
	h.dashboards.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, item, nil)
}

// Reject godoc
// @Summary Reject a pending submission (admin)
// @Tags Moderation
// @Produce json
// @Param kind path string true "Content kind"
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/content/{kind}/{id}/reject [post]
func (h *ModerationHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	kind, ok := contentKindParam(c)
	if !ok {
		return
	}

	item, err := h.service.Reject(c.Request.Context(), kind, c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordModeration(string(kind), "reject")
	h.dashboards.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, item, nil)
}

// Trash godoc
// @Summary Move content to the recycle bin (admin)
// @Tags Moderation
// @Accept json
// @Produce json
// @Param kind path string true "Content kind"
// @Param id path string true "Content ID"
// @Success 204 {object} response.Envelope
// @Router /admin/content/{kind}/{id} [delete]
func (h *ModerationHandler) Trash(c *gin.Context) {
	kind, ok := contentKindParam(c)
	if !ok {
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&payload)

	if err := h.service.Trash(c.Request.Context(), kind, c.Param("id"), payload.Reason); err != nil {
		response.Error(c, err)
		return
	}
	h.dashboards.Invalidate(c.Request.Context())
	response.NoContent(c)
}

// Restore godoc
// @Summary Restore trashed content (admin)
// @Tags Moderation
// @Produce json
// @Param kind path string true "Content kind"
// @Param id path string true "Content ID"
// @Success 204 {object} response.Envelope
// @Router /admin/content/{kind}/{id}/restore [post]
func (h *ModerationHandler) Restore(c *gin.Context) {
	kind, ok := contentKindParam(c)
	if !ok {
		return
	}

	if err := h.service.Restore(c.Request.Context(), kind, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.dashboards.Invalidate(c.Request.Context())
	response.NoContent(c)
}

// DeletePermanent godoc
// @Summary Permanently delete trashed content (admin)
// @Tags Moderation
// @Produce json
// @Param kind path string true "Content kind"
// @Param id path string true "Content ID"
// @Success 204 {object} response.Envelope
// @Router /admin/content/{kind}/{id}/permanent [delete]
func (h *ModerationHandler) DeletePermanent(c *gin.Context) {
	kind, ok := contentKindParam(c)
	if !ok {
		return
	}

	if err := h.service.PermanentDelete(c.Request.Context(), kind, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecycleBin godoc
// @Summary Recycle bin across all content kinds (admin)
// @Tags Moderation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/recycle-bin [get]
func (h *ModerationHandler) RecycleBin(c *gin.Context) {
	bin, err := h.service.RecycleBin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bin, nil)
}

// BulkImport godoc
// @Summary Bulk import materials (admin)
// @Description Inserts pre-approved materials in batches
// @Tags Moderation
// @Accept json
// @Produce json
// @Param payload body []dto.BulkImportRow true "Material rows"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/materials/bulk-import [post]
func (h *ModerationHandler) BulkImport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var rows []dto.BulkImportRow
	if err := c.ShouldBindJSON(&rows); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}

	result, err := h.bulkImport.Import(c.Request.Context(), claims.UserID, rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboards.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, result, nil)
}
