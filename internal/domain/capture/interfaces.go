// Package capture orchestrates the punch capture flow: location fix, photo
// capture, explicit confirmation, and submission.
package capture

import (
	"context"

	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
)

// Location is a device position fix.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AccuracyM float64 `json:"accuracyM,omitempty"`
}

// LocationProvider acquires the device position. Implementations must honor
// context cancellation and deadlines; the flow bounds the wait.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (Location, error)
}

// Track is a single media track of an acquired stream. Stop releases the
// underlying device resource and must be safe to call more than once.
type Track interface {
	Stop()
}

// MediaStream is a live camera stream from which still frames are captured.
type MediaStream interface {
	Tracks() []Track
	CaptureFrame() ([]byte, error)
}

// Camera acquires a live media stream.
type Camera interface {
	Acquire(ctx context.Context) (MediaStream, error)
}

// PhotoStore uploads a captured frame and returns its storage reference.
type PhotoStore interface {
	Upload(ctx context.Context, officerID string, frame []byte) (string, error)
}

// PunchRecorder persists the punch event assembled by the flow.
type PunchRecorder interface {
	RecordPunch(ctx context.Context, officerID string, punchType attendance.PunchType, loc Location, photoRef string) (*attendance.PunchEvent, error)
}

// Deps bundles the flow's collaborators.
type Deps struct {
	Location LocationProvider
	Camera   Camera
	Photos   PhotoStore
	Recorder PunchRecorder
}
