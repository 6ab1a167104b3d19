// Package leave provides the concrete SQL-based implementation of the leave
// request repository.
package leave

import (
	"database/sql"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/leave"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/database"
	"github.com/rollcallhq/rollcall-go/pkg/config"
)

const leaveColumns = `id, officer_id, leave_type, start_date, end_date, reason,
	       status, reviewer_id, reviewer_note, reviewed_at, created_at`

// SQLRepository is the SQL-based implementation of leave.Repository.
type SQLRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLRepository creates a new instance of the repository.
func NewSQLRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLRepository {
	return &SQLRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID retrieves a leave request by its unique identifier.
func (r *SQLRepository) FindByID(id string) (*leave.Request, error) {
	const query = `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE id = ?`

	row := r.db.QueryRow(query, id)
	req, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load leave request", "error", err.Error(), "id", id)
		return nil, err
	}
	return req, nil
}

// FindByOfficer retrieves an officer's leave requests, newest first.
func (r *SQLRepository) FindByOfficer(officerID string) ([]leave.Request, error) {
	const query = `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE officer_id = ?
		ORDER BY created_at DESC`

	start := time.Now()
	rows, err := r.db.Query(query, officerID)
	if err != nil {
		r.logger.Database().Error("Failed to load leave requests", "error", err.Error(), "officerId", officerID)
		return nil, err
	}
	defer rows.Close()

	requests, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "leave.FindByOfficer")
	}
	return requests, nil
}

// FindByStatus retrieves requests in a review state with pagination, oldest
// first so the review queue is worked in submission order.
func (r *SQLRepository) FindByStatus(status leave.Status, limit, offset int) ([]leave.Request, error) {
	const query = `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE status = ?
		ORDER BY created_at
		LIMIT ? OFFSET ?`

	start := time.Now()
	rows, err := r.db.Query(query, string(status), limit, offset)
	if err != nil {
		r.logger.Database().Error("Failed to load leave requests by status", "error", err.Error(), "status", status)
		return nil, err
	}
	defer rows.Close()

	requests, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "leave.FindByStatus")
	}
	return requests, nil
}

// FindActiveOverlapping retrieves an officer's pending or approved requests
// whose date range intersects [startDate, endDate].
func (r *SQLRepository) FindActiveOverlapping(officerID, startDate, endDate string) ([]leave.Request, error) {
	const query = `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE officer_id = ?
		  AND status IN ('PENDING', 'APPROVED')
		  AND start_date <= ? AND ? <= end_date`

	rows, err := r.db.Query(query, officerID, endDate, startDate)
	if err != nil {
		r.logger.Database().Error("Failed to load overlapping leave requests", "error", err.Error(), "officerId", officerID)
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

// FindApprovedBetween retrieves approved requests intersecting [startDate, endDate].
func (r *SQLRepository) FindApprovedBetween(startDate, endDate string) ([]leave.Request, error) {
	const query = `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE status = 'APPROVED'
		  AND start_date <= ? AND ? <= end_date`

	rows, err := r.db.Query(query, endDate, startDate)
	if err != nil {
		r.logger.Database().Error("Failed to load approved leave requests", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

// Store saves a new leave request.
func (r *SQLRepository) Store(req *leave.Request) error {
	const query = `
		INSERT INTO leave_requests (id, officer_id, leave_type, start_date, end_date, reason,
		                            status, reviewer_id, reviewer_note, reviewed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing leave request insert", "id", req.ID, "officerId", req.OfficerID)

	var reviewedAt any
	if req.ReviewedAt != nil {
		reviewedAt = req.ReviewedAt.UTC().Format(time.RFC3339)
	}

	_, err := r.db.Exec(
		query,
		req.ID,
		req.OfficerID,
		req.LeaveType,
		req.StartDate,
		req.EndDate,
		req.Reason,
		string(req.Status),
		req.ReviewerID,
		req.ReviewerNote,
		reviewedAt,
		req.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Database().Error("Leave request insert failed", "error", err.Error(), "id", req.ID)
		return err
	}

	r.logger.Database().Info("Leave request insert completed", "id", req.ID, "officerId", req.OfficerID, "duration", time.Since(start))
	return nil
}

// UpdateReview records the reviewer's decision on a request.
func (r *SQLRepository) UpdateReview(id string, status leave.Status, reviewerID, note string, reviewedAt time.Time) error {
	const query = `
		UPDATE leave_requests
		SET status = ?, reviewer_id = ?, reviewer_note = ?, reviewed_at = ?
		WHERE id = ?`

	start := time.Now()
	_, err := r.db.Exec(query, string(status), reviewerID, note, reviewedAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		r.logger.Database().Error("Leave review update failed", "error", err.Error(), "id", id)
		return err
	}

	r.logger.Database().Info("Leave review update completed", "id", id, "status", status, "duration", time.Since(start))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequests(rows *sql.Rows) ([]leave.Request, error) {
	var requests []leave.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (*leave.Request, error) {
	var req leave.Request
	var status string
	var reviewerID, reviewedAtStr sql.NullString
	var createdAtStr string

	err := row.Scan(
		&req.ID,
		&req.OfficerID,
		&req.LeaveType,
		&req.StartDate,
		&req.EndDate,
		&req.Reason,
		&status,
		&reviewerID,
		&req.ReviewerNote,
		&reviewedAtStr,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	req.Status = leave.Status(status)
	if reviewerID.Valid {
		req.ReviewerID = &reviewerID.String
	}
	if reviewedAtStr.Valid {
		t, err := parseTimestamp(reviewedAtStr.String)
		if err != nil {
			return nil, err
		}
		req.ReviewedAt = &t
	}

	req.CreatedAt, err = parseTimestamp(createdAtStr)
	if err != nil {
		return nil, err
	}

	return &req, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
