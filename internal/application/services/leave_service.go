package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/leave"
	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/email"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/email/templates"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/messaging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/performance"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/security"
)

// LeaveService orchestrates the leave request lifecycle: submission,
// review, calendar views, and decision notifications.
type LeaveService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	leaves      leave.Repository
	officers    officer.Repository
	emailSvc    email.Service // nil when email is not configured
	broadcaster messaging.Broadcaster
	now         func() time.Time
}

// NewLeaveService creates a new leave service
func NewLeaveService(
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	leaves leave.Repository,
	officers officer.Repository,
	emailSvc email.Service,
	broadcaster messaging.Broadcaster,
) *LeaveService {
	return &LeaveService{
		logger:      logger,
		perfTracker: perfTracker,
		leaves:      leaves,
		officers:    officers,
		emailSvc:    emailSvc,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// SubmitRequest validates and stores a new leave request in PENDING state.
// A request that overlaps any of the officer's pending or approved requests
// is rejected up front.
func (s *LeaveService) SubmitRequest(ctx context.Context, officerID, leaveType, startDate, endDate, reason string) (*leave.Request, error) {
	marker := s.perfTracker.StartOperation("submit_leave", officerID)
	defer marker.Complete()

	request := &leave.Request{
		ID:        security.GenerateULID(),
		OfficerID: officerID,
		LeaveType: leaveType,
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    reason,
		Status:    leave.StatusPending,
		CreatedAt: s.now().UTC(),
	}

	days, err := request.Days()
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if leaveType == "" {
		marker.SetError(fmt.Errorf("missing leave type"))
		return nil, fmt.Errorf("leave type is required")
	}

	overlapping, err := s.leaves.FindActiveOverlapping(officerID, startDate, endDate)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to check for overlapping requests: %w", err)
	}
	if len(overlapping) > 0 {
		marker.SetSuccess(false)
		return nil, fmt.Errorf("request overlaps existing %s leave %s to %s",
			overlapping[0].Status, overlapping[0].StartDate, overlapping[0].EndDate)
	}

	if err := s.leaves.Store(request); err != nil {
		marker.SetError(err)
		s.logger.Leave().Error("Leave request store failed", "officerId", officerID, "error", err)
		return nil, fmt.Errorf("failed to store leave request: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastChange(messaging.ChangeEvent{
			Table:     messaging.TableLeaveRequests,
			Action:    "insert",
			RecordID:  request.ID,
			OfficerID: officerID,
		})
	}

	marker.SetSuccess(true)
	marker.AddMetadata("days", days)
	s.logger.Leave().Info("Leave request submitted", "officerId", officerID, "requestId", request.ID, "days", days)
	return request, nil
}

// Review approves or rejects a pending request, records the reviewer, emails
// the officer the decision, and broadcasts the change.
func (s *LeaveService) Review(ctx context.Context, requestID, reviewerID string, approve bool, note string) (*leave.Request, error) {
	marker := s.perfTracker.StartOperation("review_leave", reviewerID)
	defer marker.Complete()

	request, err := s.leaves.FindByID(requestID)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load leave request: %w", err)
	}
	if request == nil {
		marker.SetSuccess(false)
		return nil, fmt.Errorf("leave request %s not found", requestID)
	}
	if request.Status != leave.StatusPending {
		marker.SetSuccess(false)
		return nil, fmt.Errorf("leave request %s already reviewed (%s)", requestID, request.Status)
	}

	status := leave.StatusRejected
	if approve {
		status = leave.StatusApproved
	}
	reviewedAt := s.now().UTC()

	if err := s.leaves.UpdateReview(requestID, status, reviewerID, note, reviewedAt); err != nil {
		marker.SetError(err)
		s.logger.Leave().Error("Leave review update failed", "requestId", requestID, "error", err)
		return nil, fmt.Errorf("failed to update leave request: %w", err)
	}

	request.Status = status
	request.ReviewerID = &reviewerID
	request.ReviewerNote = note
	request.ReviewedAt = &reviewedAt

	s.notifyDecision(request)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastChange(messaging.ChangeEvent{
			Table:     messaging.TableLeaveRequests,
			Action:    "update",
			RecordID:  request.ID,
			OfficerID: request.OfficerID,
		})
	}

	marker.SetSuccess(true)
	marker.AddMetadata("decision", string(status))
	s.logger.Leave().Info("Leave request reviewed", "requestId", requestID, "decision", status, "reviewerId", reviewerID)
	return request, nil
}

// notifyDecision emails the officer about the review outcome. Email failures
// are logged, never surfaced: the review itself has already committed.
func (s *LeaveService) notifyDecision(request *leave.Request) {
	if s.emailSvc == nil {
		return
	}

	o, err := s.officers.FindByID(request.OfficerID)
	if err != nil || o == nil || o.Email == "" {
		s.logger.Leave().Warn("Skipping decision email, officer unavailable", "officerId", request.OfficerID, "error", err)
		return
	}

	err = s.emailSvc.SendLeaveDecisionEmail(o.Email, templates.LeaveDecisionProps{
		OfficerName:  o.FullName(),
		LeaveType:    request.LeaveType,
		StartDate:    request.StartDate,
		EndDate:      request.EndDate,
		Decision:     string(request.Status),
		ReviewerNote: request.ReviewerNote,
	})
	if err != nil {
		s.logger.Leave().Error("Leave decision email failed", "requestId", request.ID, "error", err)
	}
}

// OfficerRequests lists an officer's requests, newest first.
func (s *LeaveService) OfficerRequests(ctx context.Context, officerID string) ([]leave.Request, error) {
	return s.leaves.FindByOfficer(officerID)
}

// PendingRequests lists pending requests for the review queue, oldest first.
func (s *LeaveService) PendingRequests(ctx context.Context, limit, offset int) ([]leave.Request, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.leaves.FindByStatus(leave.StatusPending, limit, offset)
}

// Calendar builds the month grid of approved leave for the given month.
func (s *LeaveService) Calendar(ctx context.Context, year int, month time.Month) ([]leave.CalendarWeek, error) {
	marker := s.perfTracker.StartOperation("leave_calendar", "")
	defer marker.Complete()

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	approved, err := s.leaves.FindApprovedBetween(monthStart.Format("2006-01-02"), monthEnd.Format("2006-01-02"))
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load approved leave: %w", err)
	}

	marker.SetSuccess(true)
	return leave.MonthGrid(year, month, approved), nil
}

// OnLeaveToday returns the set of officer IDs with approved leave covering
// the given date. Feeds the department overview.
func (s *LeaveService) OnLeaveToday(ctx context.Context, date string) (map[string]bool, error) {
	approved, err := s.leaves.FindApprovedBetween(date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved leave: %w", err)
	}
	onLeave := make(map[string]bool, len(approved))
	for _, r := range approved {
		onLeave[r.OfficerID] = true
	}
	return onLeave, nil
}
