// Package shift defines duty shifts and their persistence interface.
package shift

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Shift represents a named duty period. Start and end are local wall-clock
// times in "HH:MM" form; an end earlier than the start wraps past midnight.
type Shift struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartsAt  string    `json:"startsAt"`
	EndsAt    string    `json:"endsAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the wall-clock fields.
func (s *Shift) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("shift name is required")
	}
	if err := validateClock(s.StartsAt); err != nil {
		return fmt.Errorf("invalid start time: %w", err)
	}
	if err := validateClock(s.EndsAt); err != nil {
		return fmt.Errorf("invalid end time: %w", err)
	}
	return nil
}

func validateClock(v string) error {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("%q is not HH:MM", v)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("%q has an invalid hour", v)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Errorf("%q has an invalid minute", v)
	}
	return nil
}

// Repository defines the operations for persisting shifts.
type Repository interface {
	FindByID(id string) (*Shift, error)
	FindAll() ([]Shift, error)
	Store(shift *Shift) error
	Update(shift *Shift) error
	Delete(id string) error
}
