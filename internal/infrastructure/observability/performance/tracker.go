// Package performance provides performance tracking for Rollcall operations
// with per-officer context and aggregate metrics.
package performance

import (
	"fmt"
	"sync"
	"time"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers map[string]*Marker // Active and completed markers by unique ID
	mu      sync.RWMutex       // Protects concurrent access
	started time.Time          // When tracking started
	config  *TrackerConfig     // Tracker configuration
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers            int           `json:"maxMarkers"`            // Maximum number of markers to retain
	SlowOperationWarnOver time.Duration `json:"slowOperationWarnOver"` // Duration beyond which an operation is considered slow
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:            10000,
		SlowOperationWarnOver: 500 * time.Millisecond,
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}

	return &Tracker{
		markers: make(map[string]*Marker),
		started: time.Now(),
		config:  config,
	}
}

// StartOperation creates and tracks a new performance marker for an operation
func (t *Tracker) StartOperation(operation, officerID string) *Marker {
	marker := &Marker{
		Operation: operation,
		OfficerID: officerID,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true, // Assume success until proven otherwise
	}

	markerID := fmt.Sprintf("%s_%s_%d", officerID, operation, time.Now().UnixNano())

	t.mu.Lock()
	t.markers[markerID] = marker
	if len(t.markers) > t.config.MaxMarkers {
		t.evictOldestLocked()
	}
	t.mu.Unlock()

	return marker
}

// GetMetrics returns completed markers, most recent first capped at limit.
func (t *Tracker) GetMetrics(limit int) []Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var metrics []Marker
	for _, marker := range t.markers {
		if marker.Completed {
			metrics = append(metrics, *marker)
		}
	}
	if limit > 0 && len(metrics) > limit {
		metrics = metrics[:limit]
	}
	return metrics
}

// Uptime returns how long the tracker has been running.
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}

// IsSlow reports whether a completed marker exceeded the slow-operation threshold.
func (t *Tracker) IsSlow(marker *Marker) bool {
	return marker != nil && marker.Completed && marker.Duration > t.config.SlowOperationWarnOver
}

// evictOldestLocked removes the oldest completed marker. Caller holds the lock.
func (t *Tracker) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, marker := range t.markers {
		if !marker.Completed {
			continue
		}
		if oldestID == "" || marker.StartTime.Before(oldest) {
			oldestID = id
			oldest = marker.StartTime
		}
	}
	if oldestID != "" {
		delete(t.markers, oldestID)
	}
}
