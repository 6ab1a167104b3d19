// Package shift provides the concrete SQL-based implementation of the shift
// repository.
package shift

import (
	"database/sql"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/shift"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/database"
)

// SQLRepository is the SQL-based implementation of shift.Repository.
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

// FindByID retrieves a shift by its unique identifier.
func (r *SQLRepository) FindByID(id string) (*shift.Shift, error) {
	const query = `
		SELECT id, name, starts_at, ends_at, created_at
		FROM shifts
		WHERE id = ?`

	row := r.db.QueryRow(query, id)
	s, err := scanShift(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load shift", "error", err.Error(), "id", id)
		return nil, err
	}
	return s, nil
}

// FindAll retrieves every shift, ordered by start time.
func (r *SQLRepository) FindAll() ([]shift.Shift, error) {
	const query = `
		SELECT id, name, starts_at, ends_at, created_at
		FROM shifts
		ORDER BY starts_at`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to load shifts", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, *s)
	}
	return shifts, rows.Err()
}

// Store saves a new shift.
func (r *SQLRepository) Store(s *shift.Shift) error {
	const query = `
		INSERT INTO shifts (id, name, starts_at, ends_at, created_at)
		VALUES (?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := r.db.Exec(query, s.ID, s.Name, s.StartsAt, s.EndsAt, s.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		r.logger.Database().Error("Shift insert failed", "error", err.Error(), "id", s.ID)
		return err
	}

	r.logger.Database().Info("Shift insert completed", "id", s.ID, "name", s.Name, "duration", time.Since(start))
	return nil
}

// Update modifies an existing shift.
func (r *SQLRepository) Update(s *shift.Shift) error {
	const query = `
		UPDATE shifts
		SET name = ?, starts_at = ?, ends_at = ?
		WHERE id = ?`

	_, err := r.db.Exec(query, s.Name, s.StartsAt, s.EndsAt, s.ID)
	if err != nil {
		r.logger.Database().Error("Shift update failed", "error", err.Error(), "id", s.ID)
		return err
	}
	return nil
}

// Delete removes a shift and clears any officer assignments to it.
func (r *SQLRepository) Delete(id string) error {
	if _, err := r.db.Exec(`UPDATE officers SET shift_id = NULL WHERE shift_id = ?`, id); err != nil {
		r.logger.Database().Error("Shift unassign failed", "error", err.Error(), "id", id)
		return err
	}
	if _, err := r.db.Exec(`DELETE FROM shifts WHERE id = ?`, id); err != nil {
		r.logger.Database().Error("Shift delete failed", "error", err.Error(), "id", id)
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*shift.Shift, error) {
	var s shift.Shift
	var createdAtStr string

	if err := row.Scan(&s.ID, &s.Name, &s.StartsAt, &s.EndsAt, &createdAtStr); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04:05", createdAtStr)
		if err != nil {
			return nil, err
		}
	}
	s.CreatedAt = t

	return &s, nil
}
