package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/services"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
)

// ReportHandlers contains report export handlers
type ReportHandlers struct {
	reportService *services.ReportService
	logger        *logging.ChanneledLogger
}

// NewReportHandlers creates report handlers with injected dependencies
func NewReportHandlers(reportService *services.ReportService, logger *logging.ChanneledLogger) *ReportHandlers {
	return &ReportHandlers{
		reportService: reportService,
		logger:        logger,
	}
}

// GetAttendanceExport handles GET /api/v1/admin/reports/attendance
// ?from=YYYY-MM-DD&to=YYYY-MM-DD&format=xlsx|csv
func (h *ReportHandlers) GetAttendanceExport(c *gin.Context) {
	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stamp := time.Now().Format("20060102")
	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		data, err := h.reportService.ExportAttendanceCSV(c.Request.Context(), from, to)
		if err != nil {
			h.logger.Report().Error("CSV export failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.csv"`, stamp))
		c.Data(http.StatusOK, "text/csv", data)
	case "xlsx":
		data, err := h.reportService.ExportAttendanceXLSX(c.Request.Context(), from, to)
		if err != nil {
			h.logger.Report().Error("XLSX export failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.xlsx"`, stamp))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or csv"})
	}
}
