// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/pkg/config"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
}

// NewConnection establishes a new database connection for the specified driver.
func NewConnection(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// NewConnectionWithLogger establishes a new database connection for the specified driver with logging.
func NewConnectionWithLogger(driverName, dataSourceName string, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", driverName)

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)

	if err = db.Ping(); err != nil {
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	logger.Database().Info("Database connection established", "driverName", driverName, "duration", time.Since(start))

	return &DB{db}, nil
}

// DataSourceName builds the connection string for the configured driver.
// sqlite3 uses a file path; libsql appends the Turso auth token.
func DataSourceName() (driver, dsn string, err error) {
	switch config.DBDriver {
	case "sqlite3":
		return "sqlite3", config.DBPath, nil
	case "libsql":
		if config.TursoDatabaseURL == "" {
			return "", "", fmt.Errorf("TURSO_DATABASE_URL is required for the libsql driver")
		}
		return "libsql", fmt.Sprintf("%s?authToken=%s", config.TursoDatabaseURL, config.TursoAuthToken), nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", config.DBDriver)
	}
}

// TestConnection verifies the connection with a trivial query.
func (db *DB) TestConnection() error {
	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("connection test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected query result: %d", result)
	}
	return nil
}
