package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/service"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/response"
)

// MarketplaceHandler serves the student marketplace.
type MarketplaceHandler struct {
	service *service.MarketplaceService
}

// NewMarketplaceHandler creates a new handler.
func NewMarketplaceHandler(svc *service.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{service: svc}
}

// Submit godoc
// @Summary Create a marketplace listing
// @Tags Marketplace
// @Accept json
// @Produce json
// @Param payload body service.SubmitListingRequest true "Listing payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /marketplace [post]
func (h *MarketplaceHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload"))
		return
	}

	item, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// List godoc
// @Summary Browse active listings
// @Tags Marketplace
// @Produce json
// @Param category query string false "Filter by category"
// @Param type query string false "Filter by listing type"
// @Param search query string false "Search titles"
// @Success 200 {object} response.Envelope
// @Router /marketplace [get]
func (h *MarketplaceHandler) List(c *gin.Context) {
	filter := models.MarketplaceFilter{
		Category:  c.Query("category"),
		Type:      c.Query("type"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// OwnList godoc
// @Summary List own listings in any status
// @Tags Marketplace
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /marketplace/mine [get]
func (h *MarketplaceHandler) OwnList(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.MarketplaceFilter
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.OwnList(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Listing detail
// @Tags Marketplace
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /marketplace/{id} [get]
func (h *MarketplaceHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
