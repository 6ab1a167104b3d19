// Package officer provides the concrete SQL-based implementation of the
// officer domain repository.
package officer

import (
	"database/sql"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/database"
	"github.com/rollcallhq/rollcall-go/pkg/config"
)

const officerColumns = `id, badge_number, first_name, last_name, rank, email,
	       password_hash, role, shift_id, created_at, changed`

// SQLRepository is the SQL-based implementation of officer.Repository.
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

// FindByID retrieves an Officer by their unique identifier.
func (r *SQLRepository) FindByID(id string) (*officer.Officer, error) {
	const query = `
		SELECT ` + officerColumns + `
		FROM officers
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading officer by ID", "id", id)

	row := r.db.QueryRow(query, id)
	o, err := r.scanOfficer(row)
	if err != nil {
		r.logger.Database().Error("Failed to load officer by ID", "error", err.Error(), "id", id)
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "officer.FindByID")
	}
	return o, nil
}

// FindByBadgeNumber retrieves an Officer by their badge number, the
// human-facing identifier used in place of an email for sign-in.
func (r *SQLRepository) FindByBadgeNumber(badgeNumber string) (*officer.Officer, error) {
	const query = `
		SELECT ` + officerColumns + `
		FROM officers
		WHERE badge_number = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading officer by badge number", "badgeNumber", badgeNumber)

	row := r.db.QueryRow(query, badgeNumber)
	o, err := r.scanOfficer(row)
	if err != nil {
		r.logger.Database().Error("Failed to load officer by badge number", "error", err.Error(), "badgeNumber", badgeNumber)
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "officer.FindByBadgeNumber")
	}
	return o, nil
}

// FindAll retrieves every officer, ordered by badge number.
func (r *SQLRepository) FindAll() ([]*officer.Officer, error) {
	const query = `
		SELECT ` + officerColumns + `
		FROM officers
		ORDER BY badge_number`

	start := time.Now()
	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to load officers", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var officers []*officer.Officer
	for rows.Next() {
		o, err := r.scanOfficerRows(rows)
		if err != nil {
			return nil, err
		}
		officers = append(officers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "officer.FindAll")
	}
	return officers, nil
}

// Store saves a new Officer to the database.
func (r *SQLRepository) Store(o *officer.Officer) error {
	const query = `
		INSERT INTO officers (id, badge_number, first_name, last_name, rank, email,
		                      password_hash, role, shift_id, created_at, changed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing officer insert", "id", o.ID, "badgeNumber", o.BadgeNumber)

	_, err := r.db.Exec(
		query,
		o.ID,
		o.BadgeNumber,
		o.FirstName,
		o.LastName,
		o.Rank,
		o.Email,
		o.PasswordHash,
		o.Role,
		o.ShiftID,
		o.CreatedAt.UTC().Format(time.RFC3339),
		o.Changed.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Database().Error("Officer insert failed", "error", err.Error(), "id", o.ID, "badgeNumber", o.BadgeNumber)
		return err
	}

	r.logger.Database().Info("Officer insert completed", "id", o.ID, "badgeNumber", o.BadgeNumber, "duration", time.Since(start))
	return nil
}

// Update modifies an existing Officer in the database.
func (r *SQLRepository) Update(o *officer.Officer) error {
	const query = `
		UPDATE officers
		SET badge_number = ?, first_name = ?, last_name = ?, rank = ?, email = ?,
		    password_hash = ?, role = ?, shift_id = ?, changed = ?
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing officer update", "id", o.ID)

	_, err := r.db.Exec(
		query,
		o.BadgeNumber,
		o.FirstName,
		o.LastName,
		o.Rank,
		o.Email,
		o.PasswordHash,
		o.Role,
		o.ShiftID,
		o.Changed.UTC().Format(time.RFC3339),
		o.ID,
	)
	if err != nil {
		r.logger.Database().Error("Officer update failed", "error", err.Error(), "id", o.ID)
		return err
	}

	r.logger.Database().Info("Officer update completed", "id", o.ID, "duration", time.Since(start))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOfficer is a helper to scan a sql.Row into an Officer struct.
func (r *SQLRepository) scanOfficer(row *sql.Row) (*officer.Officer, error) {
	o, err := r.scanOfficerRows(row)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	return o, err
}

func (r *SQLRepository) scanOfficerRows(row rowScanner) (*officer.Officer, error) {
	var o officer.Officer
	var shiftID sql.NullString
	var createdAtStr, changedStr string

	err := row.Scan(
		&o.ID,
		&o.BadgeNumber,
		&o.FirstName,
		&o.LastName,
		&o.Rank,
		&o.Email,
		&o.PasswordHash,
		&o.Role,
		&shiftID,
		&createdAtStr,
		&changedStr,
	)
	if err != nil {
		return nil, err
	}

	if shiftID.Valid {
		o.ShiftID = &shiftID.String
	}

	o.CreatedAt, err = parseTimestamp(createdAtStr)
	if err != nil {
		return nil, err
	}
	o.Changed, err = parseTimestamp(changedStr)
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// parseTimestamp accepts RFC3339 with a space-separated fallback for rows
// written by other tools.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
