package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globlecampus/campus-api/internal/dto"
	"github.com/globlecampus/campus-api/internal/service"
	"github.com/globlecampus/campus-api/pkg/response"
)

// ReportHandler serves the admin analytics report.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

func reportRange(c *gin.Context) dto.ReportRange {
	raw := c.Query("range")
	if raw == "" {
		return dto.Range30Days
	}
	return dto.ReportRange(raw)
}

// Get godoc
// @Summary Platform analytics report (admin)
// @Tags Reports
// @Produce json
// @Param range query string false "Window: 7d, 30d or 12mo"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/reports [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.service.Build(c.Request.Context(), reportRange(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export the analytics report (admin)
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param range query string false "Window: 7d, 30d or 12mo"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))

	data, contentType, filename, err := h.service.Export(c.Request.Context(), reportRange(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
