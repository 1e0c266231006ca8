package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leavehub/internal/services"
)

// ReportHandler handles read-only reporting requests.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetStatusBreakdown handles the per-status request count report
// @Summary     Request status breakdown
// @Description Get the count of leave requests per status for a year (manager or admin only)
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (default current year)"
// @Success     200 {object} services.StatusBreakdown "Per-status counts"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/status-breakdown [get]
func (h *ReportHandler) GetStatusBreakdown(c *gin.Context) {
	year, err := parseYearQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	breakdown, err := h.reportService.GetStatusBreakdown(year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// GetUtilization handles the per-type utilization report
// @Summary     Leave type utilization
// @Description Get allocated versus used days per leave type for a year (manager or admin only)
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (default current year)"
// @Success     200 {array} services.TypeUtilization "Per-type utilization"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/utilization [get]
func (h *ReportHandler) GetUtilization(c *gin.Context) {
	year, err := parseYearQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utilization, err := h.reportService.GetUtilization(year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "utilization": utilization})
}
