package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
)

type fakeTrack struct {
	mu    sync.Mutex
	stops int
}

func (t *fakeTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stops++
}

func (t *fakeTrack) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops > 0
}

type fakeStream struct {
	tracks   []*fakeTrack
	frame    []byte
	frameErr error
}

func (s *fakeStream) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

func (s *fakeStream) CaptureFrame() ([]byte, error) {
	return s.frame, s.frameErr
}

type fakeCamera struct {
	stream *fakeStream
	err    error
}

func (c *fakeCamera) Acquire(ctx context.Context) (MediaStream, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.stream, nil
}

type fakeLocation struct {
	loc Location
	err error
	fn  func() // runs before returning, used to race cancel against the fix
}

func (l *fakeLocation) CurrentLocation(ctx context.Context) (Location, error) {
	if l.fn != nil {
		l.fn()
	}
	return l.loc, l.err
}

type fakePhotos struct {
	ref string
	err error
}

func (p *fakePhotos) Upload(ctx context.Context, officerID string, frame []byte) (string, error) {
	return p.ref, p.err
}

type fakeRecorder struct {
	event *attendance.PunchEvent
	err   error
	calls int
}

func (r *fakeRecorder) RecordPunch(ctx context.Context, officerID string, punchType attendance.PunchType, loc Location, photoRef string) (*attendance.PunchEvent, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.event, nil
}

func workingDeps() (Deps, *fakeStream, *fakeRecorder) {
	stream := &fakeStream{
		tracks: []*fakeTrack{{}, {}},
		frame:  []byte("frame-bytes"),
	}
	recorder := &fakeRecorder{event: &attendance.PunchEvent{ID: "evt-1"}}
	deps := Deps{
		Location: &fakeLocation{loc: Location{Latitude: 40.0, Longitude: -75.0}},
		Camera:   &fakeCamera{stream: stream},
		Photos:   &fakePhotos{ref: "/media/punches/2026-03-02/p.webp"},
		Recorder: recorder,
	}
	return deps, stream, recorder
}

func TestFlowHappyPath(t *testing.T) {
	deps, stream, recorder := workingDeps()
	flow := NewFlow("off-1", attendance.PunchIn, time.Second, deps)

	if flow.State() != StateIdle {
		t.Fatalf("new flow should be IDLE, got %s", flow.State())
	}
	if err := flow.Begin(context.Background()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if flow.State() != StateCameraReady {
		t.Fatalf("expected CAMERA_READY after Begin, got %s", flow.State())
	}
	if err := flow.Capture(); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if flow.State() != StateConfirming {
		t.Fatalf("expected CONFIRMING after Capture, got %s", flow.State())
	}

	result, err := flow.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if flow.State() != StateDone {
		t.Fatalf("expected DONE after Confirm, got %s", flow.State())
	}
	if result.Event.ID != "evt-1" || result.PhotoRef == "" {
		t.Fatalf("result missing event or photo ref: %+v", result)
	}
	if recorder.calls != 1 {
		t.Fatalf("expected exactly one persist, got %d", recorder.calls)
	}
	for i, track := range stream.tracks {
		if !track.stopped() {
			t.Fatalf("track %d not released after DONE", i)
		}
	}
}

func TestFlowCameraDenialFailsAndReleasesNothing(t *testing.T) {
	deps, _, _ := workingDeps()
	deps.Camera = &fakeCamera{err: errors.New("permission denied")}
	flow := NewFlow("off-1", attendance.PunchIn, time.Second, deps)

	if err := flow.Begin(context.Background()); err == nil {
		t.Fatalf("expected camera denial to surface")
	}
	if flow.State() != StateFailed {
		t.Fatalf("expected FAILED after camera denial, got %s", flow.State())
	}
	if flow.Err() == nil {
		t.Fatalf("failure cause should be recorded")
	}
}

func TestFlowLocationFailureFailsFlow(t *testing.T) {
	deps, _, recorder := workingDeps()
	deps.Location = &fakeLocation{err: errors.New("gps timeout")}
	flow := NewFlow("off-1", attendance.PunchIn, time.Second, deps)

	if err := flow.Begin(context.Background()); err == nil {
		t.Fatalf("expected location failure to surface")
	}
	if flow.State() != StateFailed {
		t.Fatalf("expected FAILED, got %s", flow.State())
	}
	if recorder.calls != 0 {
		t.Fatalf("nothing should be persisted on a failed flow")
	}
}

func TestFlowFrameCaptureFailureStopsTracks(t *testing.T) {
	deps, stream, _ := workingDeps()
	stream.frameErr = errors.New("device wedged")
	flow := NewFlow("off-1", attendance.PunchIn, time.Second, deps)

	if err := flow.Begin(context.Background()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := flow.Capture(); err == nil {
		t.Fatalf("expected frame capture failure")
	}
	if flow.State() != StateFailed {
		t.Fatalf("expected FAILED, got %s", flow.State())
	}
	for i, track := range stream.tracks {
		if !track.stopped() {
			t.Fatalf("track %d leaked after capture failure", i)
		}
	}
}

func TestFlowPersistFailureStopsTracks(t *testing.T) {
	deps, stream, recorder := workingDeps()
	recorder.err = errors.New("backend unavailable")
	flow := NewFlow("off-1", attendance.PunchOut, time.Second, deps)

	if err := flow.Begin(context.Background()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := flow.Capture(); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if _, err := flow.Confirm(context.Background()); err == nil {
		t.Fatalf("expected persist failure to surface")
	}
	if flow.State() != StateFailed {
		t.Fatalf("expected FAILED, got %s", flow.State())
	}
	for i, track := range stream.tracks {
		if !track.stopped() {
			t.Fatalf("track %d leaked after persist failure", i)
		}
	}
}

func TestFlowRetakeReturnsToCameraReady(t *testing.T) {
	deps, _, _ := workingDeps()
	flow := NewFlow("off-1", attendance.PunchIn, time.Second, deps)

	if err := flow.Begin(context.Background()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := flow.Capture(); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if err := flow.Retake(); err != nil {
		t.Fatalf("Retake failed: %v", err)
	}
	if flow.State() != StateCameraReady {
		t.Fatalf("expected CAMERA_READY after Retake, got %s", flow.State())
	}

	// A second capture and confirm still completes.
	if err := flow.Capture(); err != nil {
		t.Fatalf("second Capture failed: %v", err)
	}
	if _, err := flow.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm after Retake failed: %v", err)
	}
}

func TestFlowCancelStopsTracksAndReturnsToIdle(t *testing.T) {
	deps, stream, recorder := workingDeps()
	flow := NewFlow("off-1", attendance.PunchIn, time.Second, deps)

	if err := flow.Begin(context.Background()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	flow.Cancel()
	if flow.State() != StateIdle {
		t.Fatalf("expected IDLE after Cancel, got %s", flow.State())
	}
	for i, track := range stream.tracks {
		if !track.stopped() {
			t.Fatalf("track %d leaked after Cancel", i)
		}
	}
	if recorder.calls != 0 {
		t.Fatalf("cancelled flow must not persist anything")
	}
}

func TestFlowStaleLocationFixDiscardedAfterCancel(t *testing.T) {
	deps, _, recorder := workingDeps()
	var flow *Flow
	deps.Location = &fakeLocation{
		loc: Location{Latitude: 1, Longitude: 2},
		fn: func() {
			// The user cancels while the fix is still in flight.
			flow.Cancel()
		},
	}
	flow = NewFlow("off-1", attendance.PunchIn, time.Second, deps)

	err := flow.Begin(context.Background())
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled for a fix arriving after cancel, got %v", err)
	}
	if flow.State() != StateIdle {
		t.Fatalf("cancelled flow should rest at IDLE, got %s", flow.State())
	}
	if recorder.calls != 0 {
		t.Fatalf("stale fix must not lead to a persist")
	}
}

func TestFlowRejectsOutOfOrderCalls(t *testing.T) {
	deps, _, _ := workingDeps()
	flow := NewFlow("off-1", attendance.PunchIn, time.Second, deps)

	if err := flow.Capture(); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("Capture from IDLE should be a bad transition, got %v", err)
	}
	if _, err := flow.Confirm(context.Background()); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("Confirm from IDLE should be a bad transition, got %v", err)
	}
	if err := flow.Retake(); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("Retake from IDLE should be a bad transition, got %v", err)
	}

	if err := flow.Begin(context.Background()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := flow.Begin(context.Background()); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("double Begin should be a bad transition, got %v", err)
	}
}
