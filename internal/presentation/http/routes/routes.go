// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/container"
	"github.com/rollcallhq/rollcall-go/internal/presentation/http/handlers"
	"github.com/rollcallhq/rollcall-go/internal/presentation/http/middleware"
	"github.com/rollcallhq/rollcall-go/pkg/config"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Punch photos are served straight from disk.
	r.Static("/media", config.MediaDir)

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	punchHandlers := handlers.NewPunchHandlers(container.AttendanceService, container.LeaveService, container.PhotoProcessor, container.Logger)
	captureHandlers := handlers.NewCaptureHandlers(container.AttendanceService, container.PhotoProcessor, container.Logger)
	leaveHandlers := handlers.NewLeaveHandlers(container.LeaveService, container.Logger)
	shiftHandlers := handlers.NewShiftHandlers(container.ShiftService, container.Logger)
	officerHandlers := handlers.NewOfficerHandlers(container.OfficerService, container.Logger)
	reportHandlers := handlers.NewReportHandlers(container.ReportService, container.Logger)
	streamHandlers := handlers.NewStreamHandlers(container.Broadcaster, container.RosterBroadcaster, container.Logger)

	api := r.Group("/api/v1")
	{
		// Authentication
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.POST("/logout", authHandlers.PostLogout)
			auth.GET("/profile", middleware.RequireAuth(container.AuthService), authHandlers.GetProfile)
			auth.POST("/password", middleware.RequireAuth(container.AuthService), officerHandlers.PostChangePassword)
		}

		// Officer-facing routes
		officer := api.Group("")
		officer.Use(middleware.RequireAuth(container.AuthService))
		{
			officer.POST("/punch", punchHandlers.PostPunch)
			officer.GET("/punch/state", punchHandlers.GetState)
			officer.GET("/punch/history", punchHandlers.GetHistory)

			officer.POST("/capture", captureHandlers.PostBegin)
			officer.GET("/capture/:sessionId", captureHandlers.GetSession)
			officer.POST("/capture/:sessionId/frame", captureHandlers.PostFrame)
			officer.POST("/capture/:sessionId/retake", captureHandlers.PostRetake)
			officer.POST("/capture/:sessionId/confirm", captureHandlers.PostConfirm)
			officer.DELETE("/capture/:sessionId", captureHandlers.DeleteSession)

			officer.POST("/leave", leaveHandlers.PostRequest)
			officer.GET("/leave", leaveHandlers.GetMyRequests)
			officer.GET("/leave/calendar", leaveHandlers.GetCalendar)

			officer.GET("/shifts", shiftHandlers.GetShifts)

			officer.GET("/stream", streamHandlers.GetChanges)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin(container.AuthService))
		{
			admin.GET("/attendance", punchHandlers.GetOverview)

			admin.GET("/leave/pending", leaveHandlers.GetPending)
			admin.POST("/leave/:id/review", leaveHandlers.PostReview)

			admin.POST("/shifts", shiftHandlers.PostShift)
			admin.PUT("/shifts/:id", shiftHandlers.PutShift)
			admin.DELETE("/shifts/:id", shiftHandlers.DeleteShift)
			admin.POST("/shifts/assign", shiftHandlers.PostAssign)

			admin.GET("/officers", officerHandlers.GetOfficers)
			admin.POST("/officers", officerHandlers.PostOfficer)
			admin.PUT("/officers/:id", officerHandlers.PutOfficer)

			admin.GET("/reports/attendance", reportHandlers.GetAttendanceExport)

			admin.GET("/roster/ws", streamHandlers.GetRoster)
		}
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
