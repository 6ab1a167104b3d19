// Package attendance provides the concrete SQL-based implementation of the
// punch event repository.
package attendance

import (
	"database/sql"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/database"
	"github.com/rollcallhq/rollcall-go/pkg/config"
)

const punchColumns = `id, officer_id, punch_type, timestamp, latitude, longitude, photo_ref, created_at`

// SQLEventRepository is the SQL-based implementation of attendance.EventRepository.
// Punch events are append-only: there is no update or delete path.
type SQLEventRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLEventRepository {
	return &SQLEventRepository{
		db:     db,
		logger: logger,
	}
}

// Store saves a new punch event.
func (r *SQLEventRepository) Store(event *attendance.PunchEvent) error {
	const query = `
		INSERT INTO punch_events (id, officer_id, punch_type, timestamp, latitude, longitude, photo_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing punch event insert", "id", event.ID, "officerId", event.OfficerID, "punchType", event.PunchType)

	_, err := r.db.Exec(
		query,
		event.ID,
		event.OfficerID,
		string(event.PunchType),
		event.Timestamp.UTC().Format(time.RFC3339),
		event.Latitude,
		event.Longitude,
		event.PhotoRef,
		event.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Database().Error("Punch event insert failed", "error", err.Error(), "id", event.ID, "officerId", event.OfficerID)
		return err
	}

	r.logger.Database().Info("Punch event insert completed", "id", event.ID, "officerId", event.OfficerID, "duration", time.Since(start))
	return nil
}

// FindByOfficer retrieves an officer's events in [from, to), ascending.
func (r *SQLEventRepository) FindByOfficer(officerID string, from, to time.Time) ([]attendance.PunchEvent, error) {
	const query = `
		SELECT ` + punchColumns + `
		FROM punch_events
		WHERE officer_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp`

	start := time.Now()
	rows, err := r.db.Query(query, officerID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		r.logger.Database().Error("Failed to load punch events", "error", err.Error(), "officerId", officerID)
		return nil, err
	}
	defer rows.Close()

	events, err := r.scanEvents(rows)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "punch.FindByOfficer")
	}
	return events, nil
}

// FindAllBetween retrieves every officer's events in [from, to), ascending.
func (r *SQLEventRepository) FindAllBetween(from, to time.Time) ([]attendance.PunchEvent, error) {
	const query = `
		SELECT ` + punchColumns + `
		FROM punch_events
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY officer_id, timestamp`

	start := time.Now()
	rows, err := r.db.Query(query, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		r.logger.Database().Error("Failed to load punch events", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	events, err := r.scanEvents(rows)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "punch.FindAllBetween")
	}
	return events, nil
}

// LatestForOfficerBetween retrieves the most recent event in [from, to) for
// one officer, or nil if there is none. This is the source-of-truth read that
// backs the punch-state cache.
func (r *SQLEventRepository) LatestForOfficerBetween(officerID string, from, to time.Time) (*attendance.PunchEvent, error) {
	const query = `
		SELECT ` + punchColumns + `
		FROM punch_events
		WHERE officer_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT 1`

	start := time.Now()
	r.logger.Database().Debug("Loading latest punch event", "officerId", officerID)

	row := r.db.QueryRow(query, officerID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	event, err := r.scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load latest punch event", "error", err.Error(), "officerId", officerID)
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "punch.LatestForOfficerBetween")
	}
	return event, nil
}

func (r *SQLEventRepository) scanEvents(rows *sql.Rows) ([]attendance.PunchEvent, error) {
	var events []attendance.PunchEvent
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (r *SQLEventRepository) scanEvent(row *sql.Row) (*attendance.PunchEvent, error) {
	return scanEventRow(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventRow(row rowScanner) (*attendance.PunchEvent, error) {
	var event attendance.PunchEvent
	var punchType string
	var latitude, longitude sql.NullFloat64
	var timestampStr, createdAtStr string

	err := row.Scan(
		&event.ID,
		&event.OfficerID,
		&punchType,
		&timestampStr,
		&latitude,
		&longitude,
		&event.PhotoRef,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	event.PunchType = attendance.PunchType(punchType)
	if latitude.Valid {
		event.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		event.Longitude = &longitude.Float64
	}

	event.Timestamp, err = parseTimestamp(timestampStr)
	if err != nil {
		return nil, err
	}
	event.CreatedAt, err = parseTimestamp(createdAtStr)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
