package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/security"
)

// OfficerService manages the officer roster for administrators.
type OfficerService struct {
	logger   *logging.ChanneledLogger
	officers officer.Repository
	now      func() time.Time
}

// NewOfficerService creates a new officer service
func NewOfficerService(logger *logging.ChanneledLogger, officers officer.Repository) *OfficerService {
	return &OfficerService{
		logger:   logger,
		officers: officers,
		now:      time.Now,
	}
}

// CreateOfficerInput carries the fields for enrolling a new officer.
type CreateOfficerInput struct {
	BadgeNumber string
	FirstName   string
	LastName    string
	Rank        string
	Email       string
	Password    string
	Role        string
}

// Create enrolls a new officer with a hashed password. Badge numbers are
// unique; a duplicate is rejected before hitting the database constraint.
func (s *OfficerService) Create(ctx context.Context, input CreateOfficerInput) (*officer.Officer, error) {
	input.BadgeNumber = strings.TrimSpace(input.BadgeNumber)
	if input.BadgeNumber == "" {
		return nil, fmt.Errorf("badge number is required")
	}
	if input.LastName == "" {
		return nil, fmt.Errorf("last name is required")
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	role := input.Role
	if role == "" {
		role = officer.RoleOfficer
	}
	if role != officer.RoleOfficer && role != officer.RoleAdmin {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	existing, err := s.officers.FindByBadgeNumber(input.BadgeNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check badge number: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("badge number %s is already enrolled", input.BadgeNumber)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	o := &officer.Officer{
		ID:           security.GenerateULID(),
		BadgeNumber:  input.BadgeNumber,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Rank:         input.Rank,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		Changed:      now,
	}
	if err := s.officers.Store(o); err != nil {
		s.logger.System().Error("Officer store failed", "badgeNumber", input.BadgeNumber, "error", err)
		return nil, fmt.Errorf("failed to store officer: %w", err)
	}

	s.logger.System().Info("Officer enrolled", "officerId", o.ID, "badgeNumber", o.BadgeNumber)
	return o, nil
}

// List returns the full roster.
func (s *OfficerService) List(ctx context.Context) ([]*officer.Officer, error) {
	return s.officers.FindAll()
}

// Get returns one officer by ID, or nil when unknown.
func (s *OfficerService) Get(ctx context.Context, id string) (*officer.Officer, error) {
	return s.officers.FindByID(id)
}

// UpdateDetails saves changes to an officer's mutable fields. Badge number
// and password are not changed here.
func (s *OfficerService) UpdateDetails(ctx context.Context, id, firstName, lastName, rank, email string) (*officer.Officer, error) {
	o, err := s.officers.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load officer: %w", err)
	}
	if o == nil {
		return nil, fmt.Errorf("officer %s not found", id)
	}

	o.FirstName = firstName
	o.LastName = lastName
	o.Rank = rank
	o.Email = email
	o.Changed = s.now().UTC()

	if err := s.officers.Update(o); err != nil {
		return nil, fmt.Errorf("failed to update officer: %w", err)
	}
	return o, nil
}

// ChangePassword replaces an officer's password hash.
func (s *OfficerService) ChangePassword(ctx context.Context, id, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	o, err := s.officers.FindByID(id)
	if err != nil {
		return fmt.Errorf("failed to load officer: %w", err)
	}
	if o == nil {
		return fmt.Errorf("officer %s not found", id)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	o.PasswordHash = hash
	o.Changed = s.now().UTC()

	if err := s.officers.Update(o); err != nil {
		return fmt.Errorf("failed to update officer: %w", err)
	}
	s.logger.Auth().Info("Officer password changed", "officerId", id)
	return nil
}
