// Package config provides centralized default values for Rollcall
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%g (default: %g)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database
	DBDriver                 string
	DBPath                   string
	TursoDatabaseURL         string
	TursoAuthToken           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Auth
	JWTSecret       string
	TokenTTL        time.Duration
	ProfileAttempts int
	ProfileBackoff  time.Duration

	// Attendance rules
	LateCutoff   string // local "HH:MM"; a punch-in after this is late
	TimezoneName string

	// Station geofence (display only)
	StationLatitude  float64
	StationLongitude float64
	StationRadiusM   float64

	// Capture flow
	LocationTimeout time.Duration

	// Local punch-state store
	StateDir string

	// Media storage
	MediaDir      string
	PhotoMaxWidth int

	// SSE Configuration
	MaxStreamsPerOfficer        int
	SSEHeartbeatIntervalSeconds int

	// Admin live dashboard
	RosterBroadcastInterval time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "rollcall.db")
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)

	// Auth
	JWTSecret = getEnvString("JWT_SECRET", "")
	TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	ProfileAttempts = getEnvInt("PROFILE_FETCH_ATTEMPTS", 3)
	ProfileBackoff = getEnvDuration("PROFILE_FETCH_BACKOFF", 500*time.Millisecond)

	// Attendance rules
	LateCutoff = getEnvString("LATE_CUTOFF", "09:15")
	TimezoneName = getEnvString("TIMEZONE", "Local")

	// Station geofence
	StationLatitude = getEnvFloat("STATION_LATITUDE", 0)
	StationLongitude = getEnvFloat("STATION_LONGITUDE", 0)
	StationRadiusM = getEnvFloat("STATION_RADIUS_M", 250)

	// Capture flow
	LocationTimeout = getEnvDuration("LOCATION_TIMEOUT", 10*time.Second)

	// Local punch-state store
	StateDir = getEnvString("STATE_DIR", "state")

	// Media storage
	MediaDir = getEnvString("MEDIA_DIR", "media")
	PhotoMaxWidth = getEnvInt("PHOTO_MAX_WIDTH", 1024)

	// SSE Configuration
	MaxStreamsPerOfficer = getEnvInt("MAX_STREAMS_PER_OFFICER", 3)
	SSEHeartbeatIntervalSeconds = getEnvInt("SSE_HEARTBEAT_INTERVAL_SECONDS", 30)

	// Admin live dashboard
	RosterBroadcastInterval = getEnvDuration("ROSTER_BROADCAST_INTERVAL", 20*time.Second)
}

// Location resolves the configured timezone, falling back to local time.
func Location() *time.Location {
	if TimezoneName == "" || TimezoneName == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(TimezoneName)
	if err != nil {
		log.Printf("Config: invalid TIMEZONE %q, using local time", TimezoneName)
		return time.Local
	}
	return loc
}
