package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
	"github.com/rollcallhq/rollcall-go/internal/domain/shift"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/security"
)

// ShiftService manages duty shift definitions and officer assignment.
type ShiftService struct {
	logger   *logging.ChanneledLogger
	shifts   shift.Repository
	officers officer.Repository
	now      func() time.Time
}

// NewShiftService creates a new shift service
func NewShiftService(logger *logging.ChanneledLogger, shifts shift.Repository, officers officer.Repository) *ShiftService {
	return &ShiftService{
		logger:   logger,
		shifts:   shifts,
		officers: officers,
		now:      time.Now,
	}
}

// Create validates and stores a new shift.
func (s *ShiftService) Create(ctx context.Context, name, startsAt, endsAt string) (*shift.Shift, error) {
	sh := &shift.Shift{
		ID:        security.GenerateULID(),
		Name:      name,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedAt: s.now().UTC(),
	}
	if err := sh.Validate(); err != nil {
		return nil, err
	}
	if err := s.shifts.Store(sh); err != nil {
		s.logger.System().Error("Shift store failed", "name", name, "error", err)
		return nil, fmt.Errorf("failed to store shift: %w", err)
	}
	s.logger.System().Info("Shift created", "shiftId", sh.ID, "name", name)
	return sh, nil
}

// Update validates and saves changes to an existing shift.
func (s *ShiftService) Update(ctx context.Context, id, name, startsAt, endsAt string) (*shift.Shift, error) {
	existing, err := s.shifts.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("shift %s not found", id)
	}

	existing.Name = name
	existing.StartsAt = startsAt
	existing.EndsAt = endsAt
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	if err := s.shifts.Update(existing); err != nil {
		return nil, fmt.Errorf("failed to update shift: %w", err)
	}
	return existing, nil
}

// Delete removes a shift. Officers assigned to it are detached, not deleted.
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	existing, err := s.shifts.FindByID(id)
	if err != nil {
		return fmt.Errorf("failed to load shift: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("shift %s not found", id)
	}
	if err := s.shifts.Delete(id); err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	s.logger.System().Info("Shift deleted", "shiftId", id)
	return nil
}

// List returns all shifts.
func (s *ShiftService) List(ctx context.Context) ([]shift.Shift, error) {
	return s.shifts.FindAll()
}

// AssignOfficer sets or clears an officer's shift. An empty shiftID clears
// the assignment.
func (s *ShiftService) AssignOfficer(ctx context.Context, officerID, shiftID string) error {
	o, err := s.officers.FindByID(officerID)
	if err != nil {
		return fmt.Errorf("failed to load officer: %w", err)
	}
	if o == nil {
		return fmt.Errorf("officer %s not found", officerID)
	}

	if shiftID == "" {
		o.ShiftID = nil
	} else {
		sh, err := s.shifts.FindByID(shiftID)
		if err != nil {
			return fmt.Errorf("failed to load shift: %w", err)
		}
		if sh == nil {
			return fmt.Errorf("shift %s not found", shiftID)
		}
		o.ShiftID = &shiftID
	}

	o.Changed = s.now().UTC()
	if err := s.officers.Update(o); err != nil {
		return fmt.Errorf("failed to update officer: %w", err)
	}
	s.logger.System().Info("Officer shift assignment changed", "officerId", officerID, "shiftId", shiftID)
	return nil
}
