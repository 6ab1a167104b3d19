package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/performance"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/security"
	"github.com/rollcallhq/rollcall-go/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a bcrypt hash of an unguessable filler value, compared against
// when the badge number is unknown.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService handles authentication workflows and JWT operations
type AuthService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	officerRepo officer.Repository
	retryPolicy RetryPolicy
}

// NewAuthService creates a new authentication service
func NewAuthService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, officerRepo officer.Repository) *AuthService {
	return &AuthService{
		logger:      logger,
		perfTracker: perfTracker,
		officerRepo: officerRepo,
		retryPolicy: DefaultRetryPolicy(),
	}
}

// SetRetryPolicy overrides the profile fetch retry policy. Tests use this
// to avoid real backoff delays.
func (a *AuthService) SetRetryPolicy(p RetryPolicy) {
	a.retryPolicy = p
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string           `json:"token,omitempty"`
	Profile *officer.Profile `json:"profile,omitempty"`
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
}

// Authenticate validates badge number and password credentials and
// generates a signed session token on success.
func (a *AuthService) Authenticate(ctx context.Context, badgeNumber, password string) *AuthResult {
	marker := a.perfTracker.StartOperation("authenticate", "")
	defer marker.Complete()

	badgeNumber = strings.TrimSpace(badgeNumber)
	if badgeNumber == "" || password == "" {
		marker.SetError(fmt.Errorf("missing credentials"))
		return &AuthResult{Success: false, Error: "Badge number and password are required"}
	}

	found, err := a.officerRepo.FindByBadgeNumber(badgeNumber)
	if err != nil {
		marker.SetError(err)
		a.logger.Auth().Error("Officer lookup failed during sign-in", "badgeNumber", badgeNumber, "error", err)
		return &AuthResult{Success: false, Error: "Authentication unavailable"}
	}
	if found == nil {
		// Burn a comparison so missing and wrong-password paths take similar time.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		marker.SetSuccess(false)
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		marker.SetSuccess(false)
		a.logger.Auth().Warn("Failed sign-in attempt", "badgeNumber", badgeNumber)
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	token, err := security.GenerateAuthToken(found, config.JWTSecret, config.TokenTTL)
	if err != nil {
		marker.SetError(err)
		a.logger.Auth().Error("Token generation failed", "officerId", found.ID, "error", err)
		return &AuthResult{Success: false, Error: "Authentication unavailable"}
	}

	marker.SetSuccess(true)
	marker.AddMetadata("officerId", found.ID)
	a.logger.Auth().Info("Officer signed in", "officerId", found.ID, "badgeNumber", found.BadgeNumber)

	return &AuthResult{
		Token:   token,
		Profile: profileOf(found),
		Success: true,
	}
}

// ValidateToken parses and validates a session token.
func (a *AuthService) ValidateToken(tokenString string) (*security.AuthClaims, error) {
	claims, err := security.AuthClaimsFromToken(tokenString, config.JWTSecret)
	if err != nil {
		return nil, err
	}
	if time.Now().After(claims.ExpiresAt) {
		return nil, fmt.Errorf("token expired")
	}
	return claims, nil
}

// ValidateTokenWithRoles validates a token and checks role membership.
func (a *AuthService) ValidateTokenWithRoles(tokenString string, allowedRoles []string) (*security.AuthClaims, error) {
	claims, err := a.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, claims.Role) {
		return nil, fmt.Errorf("role %q not permitted", claims.Role)
	}
	return claims, nil
}

// GetProfile fetches the profile for a signed-in officer. Reads go through
// the retry policy so transient database blips during shift change do not
// bounce an officer back to the sign-in screen.
func (a *AuthService) GetProfile(ctx context.Context, officerID string) (*officer.Profile, error) {
	marker := a.perfTracker.StartOperation("get_profile", officerID)
	defer marker.Complete()

	var found *officer.Officer
	err := a.retryPolicy.Do(ctx, func() error {
		var fetchErr error
		found, fetchErr = a.officerRepo.FindByID(officerID)
		return fetchErr
	})
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load profile for officer %s: %w", officerID, err)
	}
	if found == nil {
		marker.SetSuccess(false)
		return nil, fmt.Errorf("officer %s not found", officerID)
	}

	marker.SetSuccess(true)
	return profileOf(found), nil
}

func profileOf(o *officer.Officer) *officer.Profile {
	return &officer.Profile{
		OfficerID:   o.ID,
		BadgeNumber: o.BadgeNumber,
		FirstName:   o.FirstName,
		LastName:    o.LastName,
		Rank:        o.Rank,
		Email:       o.Email,
		Role:        o.Role,
	}
}
