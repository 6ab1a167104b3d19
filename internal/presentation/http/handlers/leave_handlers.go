package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/services"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/presentation/http/middleware"
)

// LeaveHandlers contains leave request lifecycle handlers
type LeaveHandlers struct {
	leaveService *services.LeaveService
	logger       *logging.ChanneledLogger
}

// NewLeaveHandlers creates leave handlers with injected dependencies
func NewLeaveHandlers(leaveService *services.LeaveService, logger *logging.ChanneledLogger) *LeaveHandlers {
	return &LeaveHandlers{
		leaveService: leaveService,
		logger:       logger,
	}
}

// PostRequest handles POST /api/v1/leave - submits a leave request
func (h *LeaveHandlers) PostRequest(c *gin.Context) {
	officerID := middleware.OfficerID(c)

	var req struct {
		LeaveType string `json:"leaveType"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	request, err := h.leaveService.SubmitRequest(c.Request.Context(), officerID, req.LeaveType, req.StartDate, req.EndDate, req.Reason)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// GetMyRequests handles GET /api/v1/leave - the officer's requests
func (h *LeaveHandlers) GetMyRequests(c *gin.Context) {
	officerID := middleware.OfficerID(c)

	requests, err := h.leaveService.OfficerRequests(c.Request.Context(), officerID)
	if err != nil {
		h.logger.Leave().Error("Leave list failed", "officerId", officerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leave requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetPending handles GET /api/v1/admin/leave/pending - the review queue
func (h *LeaveHandlers) GetPending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	requests, err := h.leaveService.PendingRequests(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pending requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// PostReview handles POST /api/v1/admin/leave/:id/review - approves or rejects
func (h *LeaveHandlers) PostReview(c *gin.Context) {
	reviewerID := middleware.OfficerID(c)
	requestID := c.Param("id")

	var req struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	request, err := h.leaveService.Review(c.Request.Context(), requestID, reviewerID, req.Approve, req.Note)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// GetCalendar handles GET /api/v1/leave/calendar?year=2026&month=8
func (h *LeaveHandlers) GetCalendar(c *gin.Context) {
	now := time.Now()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month"})
		return
	}

	weeks, err := h.leaveService.Calendar(c.Request.Context(), year, time.Month(month))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build calendar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "weeks": weeks})
}
