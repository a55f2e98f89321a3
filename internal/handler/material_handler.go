package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/service"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/response"
)

// MaterialHandler serves the study material catalogue.
type MaterialHandler struct {
	service *service.MaterialService
}

// NewMaterialHandler creates a new handler.
func NewMaterialHandler(svc *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{service: svc}
}

// Upload godoc
// @Summary Upload a study material
// @Description Multipart upload; the material enters the moderation queue
// @Tags Materials
// @Accept mpfd
// @Produce json
// @Param file formData file true "Material file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /materials [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.UploadMaterialRequest{
		Title:          c.PostForm("title"),
		Description:    c.PostForm("description"),
		MaterialType:   c.PostForm("material_type"),
		Course:         c.PostForm("course"),
		Specialization: c.PostForm("specialization"),
		Subject:        c.PostForm("subject"),
		University:     c.PostForm("university"),
		Language:       c.PostForm("language"),
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "material file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	material, err := h.service.Upload(c.Request.Context(), claims.UserID, claims.FullName, req, service.UploadedFile{
		Name:        fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// List godoc
// @Summary Browse approved materials
// @Tags Materials
// @Produce json
// @Param course query string false "Filter by course"
// @Param subject query string false "Filter by subject"
// @Param university query string false "Filter by university"
// @Param search query string false "Search titles and descriptions"
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	filter := models.MaterialFilter{
		Course:     c.Query("course"),
		Subject:    c.Query("subject"),
		University: c.Query("university"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	materials, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, pagination)
}

// OwnList godoc
// @Summary List own materials in any status
// @Tags Materials
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /materials/mine [get]
func (h *MaterialHandler) OwnList(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.MaterialFilter
	filter.Page, filter.PageSize = pageParams(c)

	materials, pagination, err := h.service.OwnList(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, pagination)
}

// Get godoc
// @Summary Material detail
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materials/{id} [get]
func (h *MaterialHandler) Get(c *gin.Context) {
	material, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Download godoc
// @Summary Purchase a download link
// @Description Charges GC-Tokens and returns a signed, time-limited URL
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materials/{id}/download [post]
func (h *MaterialHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.Download(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
