package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/services"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
)

// ShiftHandlers contains duty shift management handlers
type ShiftHandlers struct {
	shiftService *services.ShiftService
	logger       *logging.ChanneledLogger
}

// NewShiftHandlers creates shift handlers with injected dependencies
func NewShiftHandlers(shiftService *services.ShiftService, logger *logging.ChanneledLogger) *ShiftHandlers {
	return &ShiftHandlers{
		shiftService: shiftService,
		logger:       logger,
	}
}

type shiftBody struct {
	Name     string `json:"name"`
	StartsAt string `json:"startsAt"`
	EndsAt   string `json:"endsAt"`
}

// GetShifts handles GET /api/v1/shifts
func (h *ShiftHandlers) GetShifts(c *gin.Context) {
	shifts, err := h.shiftService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load shifts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shifts": shifts})
}

// PostShift handles POST /api/v1/admin/shifts
func (h *ShiftHandlers) PostShift(c *gin.Context) {
	var req shiftBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sh, err := h.shiftService.Create(c.Request.Context(), req.Name, req.StartsAt, req.EndsAt)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shift": sh})
}

// PutShift handles PUT /api/v1/admin/shifts/:id
func (h *ShiftHandlers) PutShift(c *gin.Context) {
	var req shiftBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sh, err := h.shiftService.Update(c.Request.Context(), c.Param("id"), req.Name, req.StartsAt, req.EndsAt)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shift": sh})
}

// DeleteShift handles DELETE /api/v1/admin/shifts/:id
func (h *ShiftHandlers) DeleteShift(c *gin.Context) {
	if err := h.shiftService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostAssign handles POST /api/v1/admin/shifts/assign
func (h *ShiftHandlers) PostAssign(c *gin.Context) {
	var req struct {
		OfficerID string `json:"officerId"`
		ShiftID   string `json:"shiftId"` // empty clears the assignment
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.shiftService.AssignOfficer(c.Request.Context(), req.OfficerID, req.ShiftID); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
