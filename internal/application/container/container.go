// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/rollcallhq/rollcall-go/internal/application/services"
	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/email"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/media"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/messaging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/performance"
	attendancerepo "github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/attendance"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/database"
	leaverepo "github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/leave"
	officerrepo "github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/officer"
	shiftrepo "github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/shift"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/punchstate"
	"github.com/rollcallhq/rollcall-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services
	AuthService       *services.AuthService
	AttendanceService *services.AttendanceService
	LeaveService      *services.LeaveService
	ShiftService      *services.ShiftService
	ReportService     *services.ReportService
	OfficerService    *services.OfficerService

	// Infrastructure dependencies
	DB                *database.DB
	Logger            *logging.ChanneledLogger
	PerfTracker       *performance.Tracker
	PunchStateCache   *punchstate.Cache
	PhotoProcessor    *media.PhotoProcessor
	Broadcaster       *messaging.SSEBroadcaster
	RosterBroadcaster *messaging.RosterBroadcaster
}

// NewContainer creates and wires all singleton services
func NewContainer(db *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) (*Container, error) {
	loc := config.Location()

	officerRepo := officerrepo.NewSQLRepository(db, logger)
	eventRepo := attendancerepo.NewSQLEventRepository(db, logger)
	leaveRepo := leaverepo.NewSQLRepository(db, logger)
	shiftRepo := shiftrepo.NewSQLRepository(db, logger)

	snapshotStore, err := punchstate.NewFileStore(config.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create punch state store: %w", err)
	}
	cache := punchstate.NewCache(snapshotStore, eventRepo, loc)

	aggregator, err := attendance.NewAggregator(config.LateCutoff, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregator: %w", err)
	}

	geofence := attendance.Geofence{
		Latitude:  config.StationLatitude,
		Longitude: config.StationLongitude,
		RadiusM:   config.StationRadiusM,
	}

	broadcaster := messaging.NewSSEBroadcaster(logger)
	photoProcessor := media.NewPhotoProcessor(config.MediaDir, config.PhotoMaxWidth)

	// Email is optional; without RESEND_API_KEY decisions are not mailed.
	emailSvc, err := email.NewService()
	if err != nil {
		logger.System().Warn("Email notifications disabled", "reason", err)
		emailSvc = nil
	}

	attendanceSvc := services.NewAttendanceService(
		logger, perfTracker, eventRepo, officerRepo, cache, aggregator, geofence, broadcaster, loc,
	)

	rosterBroadcaster := messaging.NewRosterBroadcaster(
		attendanceSvc.RosterSnapshot, config.RosterBroadcastInterval, logger,
	)

	return &Container{
		AuthService:       services.NewAuthService(logger, perfTracker, officerRepo),
		AttendanceService: attendanceSvc,
		LeaveService:      services.NewLeaveService(logger, perfTracker, leaveRepo, officerRepo, emailSvc, broadcaster),
		ShiftService:      services.NewShiftService(logger, shiftRepo, officerRepo),
		ReportService:     services.NewReportService(logger, perfTracker, eventRepo, leaveRepo, officerRepo, aggregator, loc),
		OfficerService:    services.NewOfficerService(logger, officerRepo),

		DB:                db,
		Logger:            logger,
		PerfTracker:       perfTracker,
		PunchStateCache:   cache,
		PhotoProcessor:    photoProcessor,
		Broadcaster:       broadcaster,
		RosterBroadcaster: rosterBroadcaster,
	}, nil
}
