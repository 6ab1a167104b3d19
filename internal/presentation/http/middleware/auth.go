package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/services"
	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
)

// Context keys set by the auth middleware.
const (
	CtxOfficerID   = "officerID"
	CtxBadgeNumber = "badgeNumber"
	CtxRole        = "role"
)

const authCookieName = "officer_auth"

// tokenFromRequest reads the session token from the auth cookie or the
// Authorization bearer header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(authCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// RequireAuth validates the session token and stores the officer identity on
// the request context.
func RequireAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		c.Set(CtxOfficerID, claims.OfficerID)
		c.Set(CtxBadgeNumber, claims.BadgeNumber)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin validates the session token and rejects non-admin roles.
func RequireAdmin(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := authService.ValidateTokenWithRoles(token, []string{officer.RoleAdmin})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Set(CtxOfficerID, claims.OfficerID)
		c.Set(CtxBadgeNumber, claims.BadgeNumber)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// OfficerID returns the authenticated officer ID from the request context.
func OfficerID(c *gin.Context) string {
	return c.GetString(CtxOfficerID)
}

// Role returns the authenticated role from the request context.
func Role(c *gin.Context) string {
	return c.GetString(CtxRole)
}
