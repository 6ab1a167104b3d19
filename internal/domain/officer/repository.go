// Package officer defines the officer entity and its persistence interface.
// The repository abstracts the data persistence details, ensuring the core
// application is clean and decoupled from the database.
package officer

import "time"

// Role values carried in auth tokens.
const (
	RoleOfficer = "officer"
	RoleAdmin   = "admin"
)

// Officer represents a sworn member of the department.
type Officer struct {
	ID           string    `json:"id"`
	BadgeNumber  string    `json:"badgeNumber"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Rank         string    `json:"rank"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	Role         string    `json:"role"`
	ShiftID      *string   `json:"shiftId,omitempty"` // Optional foreign key to shifts
	CreatedAt    time.Time `json:"createdAt"`
	Changed      time.Time `json:"changed"`
}

// FullName returns the officer's display name.
func (o *Officer) FullName() string {
	if o.FirstName == "" {
		return o.LastName
	}
	return o.FirstName + " " + o.LastName
}

// Profile represents a view of Officer data for frontend consumption.
// This is a derived entity, not persisted directly.
type Profile struct {
	OfficerID   string `json:"officerId"`
	BadgeNumber string `json:"badgeNumber"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Rank        string `json:"rank"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// Repository defines the operations for persisting Officer entities.
type Repository interface {
	FindByID(id string) (*Officer, error)
	FindByBadgeNumber(badgeNumber string) (*Officer, error)
	FindAll() ([]*Officer, error)
	Store(officer *Officer) error
	Update(officer *Officer) error
}
