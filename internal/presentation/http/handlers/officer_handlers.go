package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/services"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/presentation/http/middleware"
)

// OfficerHandlers contains roster management handlers
type OfficerHandlers struct {
	officerService *services.OfficerService
	logger         *logging.ChanneledLogger
}

// NewOfficerHandlers creates officer handlers with injected dependencies
func NewOfficerHandlers(officerService *services.OfficerService, logger *logging.ChanneledLogger) *OfficerHandlers {
	return &OfficerHandlers{
		officerService: officerService,
		logger:         logger,
	}
}

// GetOfficers handles GET /api/v1/admin/officers
func (h *OfficerHandlers) GetOfficers(c *gin.Context) {
	officers, err := h.officerService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load officers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"officers": officers})
}

// PostOfficer handles POST /api/v1/admin/officers - enrolls a new officer
func (h *OfficerHandlers) PostOfficer(c *gin.Context) {
	var req struct {
		BadgeNumber string `json:"badgeNumber"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Rank        string `json:"rank"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		Role        string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	o, err := h.officerService.Create(c.Request.Context(), services.CreateOfficerInput{
		BadgeNumber: req.BadgeNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Rank:        req.Rank,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"officer": o})
}

// PutOfficer handles PUT /api/v1/admin/officers/:id
func (h *OfficerHandlers) PutOfficer(c *gin.Context) {
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Rank      string `json:"rank"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	o, err := h.officerService.UpdateDetails(c.Request.Context(), c.Param("id"), req.FirstName, req.LastName, req.Rank, req.Email)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"officer": o})
}

// PostChangePassword handles POST /api/v1/auth/password - the signed-in
// officer changes their own password.
func (h *OfficerHandlers) PostChangePassword(c *gin.Context) {
	officerID := middleware.OfficerID(c)

	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.officerService.ChangePassword(c.Request.Context(), officerID, req.NewPassword); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
