package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
	"github.com/rollcallhq/rollcall-go/internal/domain/capture"
	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/messaging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/performance"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/punchstate"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/security"
)

// AttendanceService orchestrates punch recording, punch-state reads, and
// attendance aggregation. It implements capture.PunchRecorder so the capture
// flow can submit through it.
type AttendanceService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	events      attendance.EventRepository
	officers    officer.Repository
	cache       *punchstate.Cache
	aggregator  *attendance.Aggregator
	geofence    attendance.Geofence
	broadcaster messaging.Broadcaster
	loc         *time.Location
	now         func() time.Time
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	events attendance.EventRepository,
	officers officer.Repository,
	cache *punchstate.Cache,
	aggregator *attendance.Aggregator,
	geofence attendance.Geofence,
	broadcaster messaging.Broadcaster,
	loc *time.Location,
) *AttendanceService {
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceService{
		logger:      logger,
		perfTracker: perfTracker,
		events:      events,
		officers:    officers,
		cache:       cache,
		aggregator:  aggregator,
		geofence:    geofence,
		broadcaster: broadcaster,
		loc:         loc,
		now:         time.Now,
	}
}

// PunchResult holds the outcome of a recorded punch.
type PunchResult struct {
	Event         *attendance.PunchEvent `json:"event"`
	State         attendance.PunchState  `json:"state"`
	DistanceM     *float64               `json:"distanceM,omitempty"`
	InsideStation *bool                  `json:"insideStation,omitempty"`
	NextPunchType attendance.PunchType   `json:"nextPunchType"`
}

// RecordPunch persists a punch event through the two-phase cache protocol:
// the cache is updated optimistically, the event is written to the source of
// truth, then the cache entry is confirmed or rolled back. Implements
// capture.PunchRecorder.
func (s *AttendanceService) RecordPunch(ctx context.Context, officerID string, punchType attendance.PunchType, loc capture.Location, photoRef string) (*attendance.PunchEvent, error) {
	result, err := s.Punch(ctx, officerID, punchType, &loc, photoRef)
	if err != nil {
		return nil, err
	}
	return result.Event, nil
}

// Punch records a punch with optional location and photo reference, returning
// the full result including geofence annotation and the follow-up action.
func (s *AttendanceService) Punch(ctx context.Context, officerID string, punchType attendance.PunchType, loc *capture.Location, photoRef string) (*PunchResult, error) {
	marker := s.perfTracker.StartOperation("record_punch", officerID)
	defer marker.Complete()

	if punchType != attendance.PunchIn && punchType != attendance.PunchOut {
		marker.SetError(fmt.Errorf("invalid punch type %q", punchType))
		return nil, fmt.Errorf("invalid punch type %q", punchType)
	}

	// Refuse a duplicate of the current direction. The cache is initialized
	// first so a fresh process still catches same-day duplicates.
	state, err := s.cache.Initialize(officerID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if state.NextPunchType() != punchType {
		marker.SetSuccess(false)
		return nil, fmt.Errorf("officer %s cannot punch %s: expected %s", officerID, punchType, state.NextPunchType())
	}

	event := &attendance.PunchEvent{
		ID:        security.GenerateULID(),
		OfficerID: officerID,
		PunchType: punchType,
		Timestamp: s.now().UTC(),
		PhotoRef:  photoRef,
		CreatedAt: s.now().UTC(),
	}
	if loc != nil {
		lat, lng := loc.Latitude, loc.Longitude
		event.Latitude = &lat
		event.Longitude = &lng
	}

	newState, err := s.cache.BeginPunch(officerID, punchType)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if err := s.events.Store(event); err != nil {
		if rbErr := s.cache.Rollback(officerID); rbErr != nil {
			s.logger.Punch().Error("Rollback after failed punch write also failed", "officerId", officerID, "error", rbErr)
		}
		marker.SetError(err)
		s.logger.Punch().Error("Punch write failed", "officerId", officerID, "punchType", punchType, "error", err)
		return nil, fmt.Errorf("failed to record punch: %w", err)
	}

	if err := s.cache.Confirm(officerID); err != nil {
		// The event is durable; the stale snapshot self-heals on next Initialize.
		s.logger.Punch().Warn("Punch confirmed remotely but snapshot save failed", "officerId", officerID, "error", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastChange(messaging.ChangeEvent{
			Table:     messaging.TablePunchEvents,
			Action:    "insert",
			RecordID:  event.ID,
			OfficerID: officerID,
		})
	}

	result := &PunchResult{
		Event:         event,
		State:         newState,
		NextPunchType: newState.NextPunchType(),
	}
	if loc != nil {
		d := s.geofence.DistanceM(loc.Latitude, loc.Longitude)
		inside := s.geofence.Contains(loc.Latitude, loc.Longitude)
		result.DistanceM = &d
		result.InsideStation = &inside
	}

	marker.SetSuccess(true)
	marker.AddMetadata("punchType", string(punchType))
	s.logger.Punch().Info("Punch recorded", "officerId", officerID, "punchType", punchType, "eventId", event.ID)
	return result, nil
}

// PunchState returns the current cached punch state for an officer,
// initializing the cache on first read.
func (s *AttendanceService) PunchState(ctx context.Context, officerID string) (attendance.PunchState, error) {
	return s.cache.Initialize(officerID)
}

// History derives the attendance records for one officer over [from, to).
func (s *AttendanceService) History(ctx context.Context, officerID string, from, to time.Time) ([]attendance.DayAttendanceRecord, error) {
	marker := s.perfTracker.StartOperation("attendance_history", officerID)
	defer marker.Complete()

	events, err := s.events.FindByOfficer(officerID, from, to)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load punch events: %w", err)
	}

	records, err := s.aggregator.Aggregate(events)
	if err != nil {
		marker.SetError(err)
		if attendance.IsDataQuality(err) {
			s.logger.Punch().Warn("Data quality problem in attendance history", "officerId", officerID, "error", err)
		}
		return nil, err
	}

	marker.SetSuccess(true)
	marker.AddMetadata("days", len(records))
	return records, nil
}

// DepartmentDay holds one officer's derived record for a single date. Used by
// the admin daily overview.
type DepartmentDay struct {
	OfficerID   string                          `json:"officerId"`
	BadgeNumber string                          `json:"badgeNumber"`
	Name        string                          `json:"name"`
	Record      *attendance.DayAttendanceRecord `json:"record,omitempty"`
	OnLeave     bool                            `json:"onLeave"`
}

// DepartmentOverview derives every officer's record for one local date.
// Officers with no punches and no leave that day are reported with a nil
// record rather than omitted.
func (s *AttendanceService) DepartmentOverview(ctx context.Context, date string, onLeave map[string]bool) ([]DepartmentDay, error) {
	marker := s.perfTracker.StartOperation("department_overview", "")
	defer marker.Complete()

	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	events, err := s.events.FindAllBetween(day, day.AddDate(0, 0, 1))
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load punch events: %w", err)
	}

	byOfficer := make(map[string][]attendance.PunchEvent)
	for _, ev := range events {
		byOfficer[ev.OfficerID] = append(byOfficer[ev.OfficerID], ev)
	}

	all, err := s.officers.FindAll()
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load officers: %w", err)
	}

	overview := make([]DepartmentDay, 0, len(all))
	for _, o := range all {
		row := DepartmentDay{
			OfficerID:   o.ID,
			BadgeNumber: o.BadgeNumber,
			Name:        o.FullName(),
			OnLeave:     onLeave[o.ID],
		}
		if evs := byOfficer[o.ID]; len(evs) > 0 {
			records, aggErr := s.aggregator.Aggregate(evs)
			if aggErr != nil {
				marker.SetError(aggErr)
				return nil, aggErr
			}
			for i := range records {
				if records[i].Date == date {
					row.Record = &records[i]
					break
				}
			}
		}
		overview = append(overview, row)
	}

	sort.Slice(overview, func(i, j int) bool { return overview[i].BadgeNumber < overview[j].BadgeNumber })

	marker.SetSuccess(true)
	return overview, nil
}

// RosterSnapshot produces the current on-duty roster for the websocket
// broadcaster: every officer whose latest punch today is an IN.
func (s *AttendanceService) RosterSnapshot() (messaging.RosterSnapshot, error) {
	now := s.now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	events, err := s.events.FindAllBetween(dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return messaging.RosterSnapshot{}, fmt.Errorf("failed to load today's punches: %w", err)
	}

	latest := make(map[string]attendance.PunchEvent)
	for _, ev := range events {
		if prev, ok := latest[ev.OfficerID]; !ok || ev.Timestamp.After(prev.Timestamp) {
			latest[ev.OfficerID] = ev
		}
	}

	all, err := s.officers.FindAll()
	if err != nil {
		return messaging.RosterSnapshot{}, fmt.Errorf("failed to load officers: %w", err)
	}

	snapshot := messaging.RosterSnapshot{AsOf: s.now().UTC(), TotalCount: len(all)}
	for _, o := range all {
		if ev, ok := latest[o.ID]; ok && ev.PunchType == attendance.PunchIn {
			snapshot.OnDuty = append(snapshot.OnDuty, messaging.OnDutyOfficer{
				OfficerID:   o.ID,
				BadgeNumber: o.BadgeNumber,
				Name:        o.FullName(),
				Since:       ev.Timestamp,
			})
		}
	}
	sort.Slice(snapshot.OnDuty, func(i, j int) bool {
		return snapshot.OnDuty[i].Since.Before(snapshot.OnDuty[j].Since)
	})

	return snapshot, nil
}
