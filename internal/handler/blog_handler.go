package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/service"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/response"
)

// BlogHandler serves blog submissions and the public article feed.
type BlogHandler struct {
	service *service.BlogService
}

// NewBlogHandler creates a new handler.
func NewBlogHandler(svc *service.BlogService) *BlogHandler {
	return &BlogHandler{service: svc}
}

// Submit godoc
// @Summary Submit a blog post
// @Tags Blogs
// @Accept json
// @Produce json
// @Param payload body service.SubmitBlogRequest true "Blog payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /blogs [post]
func (h *BlogHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid blog payload"))
		return
	}

	blog, err := h.service.Submit(c.Request.Context(), claims.UserID, claims.FullName, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, blog)
}

// List godoc
// @Summary Browse approved blog posts
// @Tags Blogs
// @Produce json
// @Param category query string false "Filter by category"
// @Param tag query string false "Filter by tag"
// @Param search query string false "Search titles and content"
// @Success 200 {object} response.Envelope
// @Router /blogs [get]
func (h *BlogHandler) List(c *gin.Context) {
	filter := models.BlogFilter{
		Category:  c.Query("category"),
		Tag:       c.Query("tag"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	blogs, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blogs, pagination)
}

// OwnList godoc
// @Summary List own blog posts in any status
// @Tags Blogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /blogs/mine [get]
func (h *BlogHandler) OwnList(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.BlogFilter
	filter.Page, filter.PageSize = pageParams(c)

	blogs, pagination, err := h.service.OwnList(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blogs, pagination)
}

// Get godoc
// @Summary Blog post detail
// @Tags Blogs
// @Produce json
// @Param id path string true "Blog ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blogs/{id} [get]
func (h *BlogHandler) Get(c *gin.Context) {
	blog, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blog, nil)
}
