package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
)

// State is the capture flow's current phase.
type State string

const (
	StateIdle        State = "IDLE"
	StateLocating    State = "LOCATING"
	StateCameraReady State = "CAMERA_READY"
	StateConfirming  State = "CONFIRMING"
	StateSubmitting  State = "SUBMITTING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

var (
	// ErrBadTransition is returned when a flow method is called out of order.
	ErrBadTransition = errors.New("capture: invalid state transition")
	// ErrCancelled is recorded when the user cancels a flow in progress.
	ErrCancelled = errors.New("capture: flow cancelled")
)

// Result carries the outcome of a completed flow.
type Result struct {
	Event    *attendance.PunchEvent `json:"event"`
	Location Location               `json:"location"`
	PhotoRef string                 `json:"photoRef"`
}

// Flow is one punch capture attempt for one officer. It is scoped to a single
// user-initiated action; a new Flow is created for every punch.
//
// Every terminal transition (DONE, FAILED) and Cancel stops all media tracks.
type Flow struct {
	mu sync.Mutex

	officerID string
	punchType attendance.PunchType
	deps      Deps

	locationTimeout time.Duration

	state    State
	gen      int // bumped on cancel so stale location fixes are discarded
	location Location
	stream   MediaStream
	frame    []byte
	err      error
}

// NewFlow creates an idle capture flow.
func NewFlow(officerID string, punchType attendance.PunchType, locationTimeout time.Duration, deps Deps) *Flow {
	return &Flow{
		officerID:       officerID,
		punchType:       punchType,
		locationTimeout: locationTimeout,
		deps:            deps,
		state:           StateIdle,
	}
}

// State returns the flow's current phase.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the failure cause after a FAILED transition.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Begin drives IDLE → LOCATING → CAMERA_READY: a bounded-wait location fix
// followed by camera acquisition. Location failure fails the whole flow.
// A fix that arrives after cancellation is discarded.
func (f *Flow) Begin(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return fmt.Errorf("%w: Begin from %s", ErrBadTransition, f.state)
	}
	f.state = StateLocating
	gen := f.gen
	f.mu.Unlock()

	locCtx, cancel := context.WithTimeout(ctx, f.locationTimeout)
	defer cancel()
	loc, err := f.deps.Location.CurrentLocation(locCtx)

	f.mu.Lock()
	if f.gen != gen || f.state != StateLocating {
		// Cancelled while the fix was in flight; the browser geolocation API
		// cannot be aborted, so the late result is simply ignored.
		f.mu.Unlock()
		return ErrCancelled
	}
	if err != nil {
		f.failLocked(fmt.Errorf("location acquisition failed: %w", err))
		f.mu.Unlock()
		return err
	}
	f.location = loc
	f.mu.Unlock()

	stream, err := f.deps.Camera.Acquire(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.state != StateLocating {
		if stream != nil {
			stopTracks(stream)
		}
		return ErrCancelled
	}
	if err != nil {
		// The location already acquired is discarded with the flow.
		f.failLocked(fmt.Errorf("camera acquisition failed: %w", err))
		return err
	}
	f.stream = stream
	f.state = StateCameraReady
	return nil
}

// Capture takes a still frame from the live stream and moves to CONFIRMING,
// presenting location + photo for explicit confirmation.
func (f *Flow) Capture() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateCameraReady {
		return fmt.Errorf("%w: Capture from %s", ErrBadTransition, f.state)
	}
	frame, err := f.stream.CaptureFrame()
	if err != nil {
		f.failLocked(fmt.Errorf("frame capture failed: %w", err))
		return err
	}
	f.frame = frame
	f.state = StateConfirming
	return nil
}

// Retake discards the captured frame and returns to CAMERA_READY.
func (f *Flow) Retake() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateConfirming {
		return fmt.Errorf("%w: Retake from %s", ErrBadTransition, f.state)
	}
	f.frame = nil
	f.state = StateCameraReady
	return nil
}

// Confirm uploads the photo, persists the punch event, and releases the
// camera. A persist failure after a successful upload still releases the
// camera; the stored photo is left for backend cleanup.
func (f *Flow) Confirm(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	if f.state != StateConfirming {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: Confirm from %s", ErrBadTransition, f.state)
	}
	f.state = StateSubmitting
	frame := f.frame
	loc := f.location
	f.mu.Unlock()

	photoRef, err := f.deps.Photos.Upload(ctx, f.officerID, frame)
	if err != nil {
		f.mu.Lock()
		f.failLocked(fmt.Errorf("photo upload failed: %w", err))
		f.mu.Unlock()
		return nil, err
	}

	event, err := f.deps.Recorder.RecordPunch(ctx, f.officerID, f.punchType, loc, photoRef)
	if err != nil {
		f.mu.Lock()
		f.failLocked(fmt.Errorf("punch persist failed: %w", err))
		f.mu.Unlock()
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseLocked()
	f.state = StateDone
	return &Result{Event: event, Location: loc, PhotoRef: photoRef}, nil
}

// Cancel aborts a non-terminal flow, synchronously stopping any media tracks
// and returning the flow to IDLE. An in-flight location request cannot be
// aborted; its eventual result is ignored.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateDone, StateFailed, StateIdle:
		return
	}
	f.gen++
	f.releaseLocked()
	f.frame = nil
	f.err = ErrCancelled
	f.state = StateIdle
}

// failLocked records the failure cause, stops all tracks, and moves to
// FAILED. Caller holds the lock.
func (f *Flow) failLocked(err error) {
	f.releaseLocked()
	f.err = err
	f.state = StateFailed
}

// releaseLocked stops all media tracks. Caller holds the lock.
func (f *Flow) releaseLocked() {
	if f.stream != nil {
		stopTracks(f.stream)
		f.stream = nil
	}
}

func stopTracks(stream MediaStream) {
	for _, track := range stream.Tracks() {
		track.Stop()
	}
}
