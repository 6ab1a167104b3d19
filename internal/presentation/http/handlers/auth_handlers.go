// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/services"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/performance"
	"github.com/rollcallhq/rollcall-go/internal/presentation/http/middleware"
	"github.com/rollcallhq/rollcall-go/pkg/config"
)

const authCookieName = "officer_auth"

// AuthHandlers contains all authentication-related HTTP handlers
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostLogin handles POST /api/v1/auth/login - officer badge sign-in
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_login_request", "")
	defer marker.Complete()

	var req struct {
		BadgeNumber string `json:"badgeNumber"`
		Password    string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result := h.authService.Authenticate(c.Request.Context(), req.BadgeNumber, req.Password)
	if !result.Success {
		h.logger.Auth().Debug("Login rejected", "badgeNumber", req.BadgeNumber, "duration", time.Since(start))
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}

	c.SetCookie(
		authCookieName,
		result.Token,
		int(config.TokenTTL.Seconds()),
		"/",
		"",    // domain
		false, // secure (behind TLS terminator in production)
		true,  // httpOnly
	)

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{
		"token":   result.Token,
		"profile": result.Profile,
	})
}

// PostLogout handles POST /api/v1/auth/logout - clears the session cookie
func (h *AuthHandlers) PostLogout(c *gin.Context) {
	c.SetCookie(authCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetProfile handles GET /api/v1/auth/profile - the signed-in officer's profile
func (h *AuthHandlers) GetProfile(c *gin.Context) {
	officerID := middleware.OfficerID(c)

	profile, err := h.authService.GetProfile(c.Request.Context(), officerID)
	if err != nil {
		h.logger.Auth().Error("Profile fetch failed", "officerId", officerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
