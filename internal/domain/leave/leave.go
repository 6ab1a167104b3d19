// Package leave defines leave requests, their review lifecycle, and the
// calendar bucketing used for leave visualization.
package leave

import (
	"fmt"
	"time"
)

// Status is the review state of a leave request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Known leave types. The set is advisory; unknown types are stored as-is.
const (
	TypeAnnual   = "ANNUAL"
	TypeSick     = "SICK"
	TypePersonal = "PERSONAL"
	TypeTraining = "TRAINING"
)

// Request represents a leave request. Start and end dates are inclusive local
// calendar dates in "2006-01-02" form.
type Request struct {
	ID           string     `json:"id"`
	OfficerID    string     `json:"officerId"`
	LeaveType    string     `json:"leaveType"`
	StartDate    string     `json:"startDate"`
	EndDate      string     `json:"endDate"`
	Reason       string     `json:"reason"`
	Status       Status     `json:"status"`
	ReviewerID   *string    `json:"reviewerId,omitempty"`
	ReviewerNote string     `json:"reviewerNote,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Days returns the number of calendar days the request covers.
func (r *Request) Days() (int, error) {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start date %q: %w", r.StartDate, err)
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return 0, fmt.Errorf("invalid end date %q: %w", r.EndDate, err)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("end date %s precedes start date %s", r.EndDate, r.StartDate)
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// Overlaps reports whether two date ranges share at least one day.
func (r *Request) Overlaps(startDate, endDate string) bool {
	return r.StartDate <= endDate && startDate <= r.EndDate
}

// Repository defines the operations for persisting leave requests.
type Repository interface {
	FindByID(id string) (*Request, error)
	FindByOfficer(officerID string) ([]Request, error)
	FindByStatus(status Status, limit, offset int) ([]Request, error)
	FindActiveOverlapping(officerID, startDate, endDate string) ([]Request, error)
	FindApprovedBetween(startDate, endDate string) ([]Request, error)
	Store(request *Request) error
	UpdateReview(id string, status Status, reviewerID, note string, reviewedAt time.Time) error
}
