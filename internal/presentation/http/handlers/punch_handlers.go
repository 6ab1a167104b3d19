package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/services"
	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
	"github.com/rollcallhq/rollcall-go/internal/domain/capture"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/media"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/presentation/http/middleware"
)

// PunchHandlers contains punch recording and attendance query handlers
type PunchHandlers struct {
	attendanceService *services.AttendanceService
	leaveService      *services.LeaveService
	photoProcessor    *media.PhotoProcessor
	logger            *logging.ChanneledLogger
}

// NewPunchHandlers creates punch handlers with injected dependencies
func NewPunchHandlers(attendanceService *services.AttendanceService, leaveService *services.LeaveService, photoProcessor *media.PhotoProcessor, logger *logging.ChanneledLogger) *PunchHandlers {
	return &PunchHandlers{
		attendanceService: attendanceService,
		leaveService:      leaveService,
		photoProcessor:    photoProcessor,
		logger:            logger,
	}
}

// PostPunch handles POST /api/v1/punch - records a punch directly, without
// the staged capture flow. Used by kiosk clients that bundle location and
// photo into one request.
func (h *PunchHandlers) PostPunch(c *gin.Context) {
	officerID := middleware.OfficerID(c)

	var req struct {
		PunchType string   `json:"punchType"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Photo     string   `json:"photo"` // data URI or base64, optional
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var photoRef string
	if req.Photo != "" {
		ref, err := h.photoProcessor.ProcessPunchPhoto([]byte(req.Photo), officerID)
		if err != nil {
			h.logger.Media().Error("Punch photo processing failed", "officerId", officerID, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not process photo"})
			return
		}
		photoRef = ref
	}

	var loc *capture.Location
	if req.Latitude != nil && req.Longitude != nil {
		loc = &capture.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	result, err := h.attendanceService.Punch(c.Request.Context(), officerID, attendance.PunchType(req.PunchType), loc, photoRef)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetState handles GET /api/v1/punch/state - the officer's current punch state
func (h *PunchHandlers) GetState(c *gin.Context) {
	officerID := middleware.OfficerID(c)

	state, err := h.attendanceService.PunchState(c.Request.Context(), officerID)
	if err != nil {
		h.logger.Punch().Error("Punch state read failed", "officerId", officerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load punch state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":         state,
		"nextPunchType": state.NextPunchType(),
	})
}

// GetHistory handles GET /api/v1/punch/history?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *PunchHandlers) GetHistory(c *gin.Context) {
	officerID := middleware.OfficerID(c)

	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.attendanceService.History(c.Request.Context(), officerID, from, to)
	if err != nil {
		if attendance.IsDataQuality(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load attendance history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetOverview handles GET /api/v1/admin/attendance?date=YYYY-MM-DD - the
// per-officer department overview for one day.
func (h *PunchHandlers) GetOverview(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	onLeave, err := h.leaveService.OnLeaveToday(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leave data"})
		return
	}

	overview, err := h.attendanceService.DepartmentOverview(c.Request.Context(), date, onLeave)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build overview"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "officers": overview})
}

// parseDateRange turns inclusive date query params into a [from, to) window.
// Missing params default to the last 30 days.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 1)

	if fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}
