package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/services"
	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
	"github.com/rollcallhq/rollcall-go/internal/domain/capture"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/media"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/security"
	"github.com/rollcallhq/rollcall-go/internal/presentation/http/middleware"
	"github.com/rollcallhq/rollcall-go/pkg/config"
)

// CaptureHandlers drives the staged punch capture flow over HTTP. Each flow
// is one capture session: the client supplies its location fix and camera
// frames, and the server walks the state machine.
type CaptureHandlers struct {
	attendanceService *services.AttendanceService
	photoProcessor    *media.PhotoProcessor
	logger            *logging.ChanneledLogger

	mu       sync.Mutex
	sessions map[string]*captureSession // keyed by session ID
	byOwner  map[string]int             // active session count per officer
}

type captureSession struct {
	officerID string
	flow      *capture.Flow
	camera    *remoteCamera
}

// NewCaptureHandlers creates capture handlers with injected dependencies
func NewCaptureHandlers(attendanceService *services.AttendanceService, photoProcessor *media.PhotoProcessor, logger *logging.ChanneledLogger) *CaptureHandlers {
	return &CaptureHandlers{
		attendanceService: attendanceService,
		photoProcessor:    photoProcessor,
		logger:            logger,
		sessions:          make(map[string]*captureSession),
		byOwner:           make(map[string]int),
	}
}

// PostBegin handles POST /api/v1/capture - starts a capture flow with the
// client's location fix and moves it to CAMERA_READY.
func (h *CaptureHandlers) PostBegin(c *gin.Context) {
	officerID := middleware.OfficerID(c)

	var req struct {
		PunchType string  `json:"punchType"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		AccuracyM float64 `json:"accuracyM"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	punchType := attendance.PunchType(req.PunchType)
	if punchType != attendance.PunchIn && punchType != attendance.PunchOut {
		c.JSON(http.StatusBadRequest, gin.H{"error": "punchType must be IN or OUT"})
		return
	}

	h.mu.Lock()
	if h.byOwner[officerID] >= config.MaxStreamsPerOfficer {
		h.mu.Unlock()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many open capture sessions"})
		return
	}
	h.byOwner[officerID]++
	h.mu.Unlock()

	camera := &remoteCamera{}
	deps := capture.Deps{
		Location: fixedLocation{capture.Location{Latitude: req.Latitude, Longitude: req.Longitude, AccuracyM: req.AccuracyM}},
		Camera:   camera,
		Photos:   &processorPhotoStore{processor: h.photoProcessor},
		Recorder: h.attendanceService,
	}

	flow := capture.NewFlow(officerID, punchType, config.LocationTimeout, deps)
	if err := flow.Begin(c.Request.Context()); err != nil {
		h.mu.Lock()
		h.byOwner[officerID]--
		h.mu.Unlock()
		h.logger.Punch().Warn("Capture begin failed", "officerId", officerID, "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": flow.State()})
		return
	}

	sessionID := security.GenerateULID()
	h.mu.Lock()
	h.sessions[sessionID] = &captureSession{officerID: officerID, flow: flow, camera: camera}
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "state": flow.State()})
}

// PostFrame handles POST /api/v1/capture/:sessionId/frame - stores the
// client's frame and advances to CONFIRMING.
func (h *CaptureHandlers) PostFrame(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		Frame string `json:"frame"` // data URI or raw base64 image
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Frame == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A frame is required"})
		return
	}

	session.camera.SetFrame([]byte(req.Frame))
	if err := session.flow.Capture(); err != nil {
		h.finishIfTerminal(c.Param("sessionId"), session)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": session.flow.State()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": session.flow.State()})
}

// PostRetake handles POST /api/v1/capture/:sessionId/retake
func (h *CaptureHandlers) PostRetake(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.flow.Retake(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": session.flow.State()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.flow.State()})
}

// PostConfirm handles POST /api/v1/capture/:sessionId/confirm - submits the
// punch and closes the session.
func (h *CaptureHandlers) PostConfirm(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	result, err := session.flow.Confirm(c.Request.Context())
	h.finishIfTerminal(c.Param("sessionId"), session)
	if err != nil {
		h.logger.Punch().Error("Capture confirm failed", "officerId", session.officerID, "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": session.flow.State()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": session.flow.State(), "result": result})
}

// DeleteSession handles DELETE /api/v1/capture/:sessionId - cancels the flow.
func (h *CaptureHandlers) DeleteSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session.flow.Cancel()
	h.remove(c.Param("sessionId"), session)
	c.JSON(http.StatusOK, gin.H{"state": session.flow.State()})
}

// GetSession handles GET /api/v1/capture/:sessionId - reports the flow state.
func (h *CaptureHandlers) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	resp := gin.H{"state": session.flow.State()}
	if err := session.flow.Err(); err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// session resolves the session ID and checks ownership.
func (h *CaptureHandlers) session(c *gin.Context) (*captureSession, bool) {
	h.mu.Lock()
	session, ok := h.sessions[c.Param("sessionId")]
	h.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown capture session"})
		return nil, false
	}
	if session.officerID != middleware.OfficerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your capture session"})
		return nil, false
	}
	return session, true
}

// finishIfTerminal removes the session once the flow reaches DONE or FAILED.
func (h *CaptureHandlers) finishIfTerminal(sessionID string, session *captureSession) {
	switch session.flow.State() {
	case capture.StateDone, capture.StateFailed:
		h.remove(sessionID, session)
	}
}

func (h *CaptureHandlers) remove(sessionID string, session *captureSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[sessionID]; !ok {
		return
	}
	delete(h.sessions, sessionID)
	if h.byOwner[session.officerID] > 0 {
		h.byOwner[session.officerID]--
	}
}

// fixedLocation satisfies a location request with the fix the client already
// acquired on-device.
type fixedLocation struct {
	loc capture.Location
}

func (f fixedLocation) CurrentLocation(ctx context.Context) (capture.Location, error) {
	return f.loc, nil
}

// remoteCamera models the client's camera. The stream is "acquired" when the
// session opens; frames arrive over HTTP and Stop marks the remote device
// released.
type remoteCamera struct {
	mu       sync.Mutex
	frame    []byte
	released bool
}

func (r *remoteCamera) Acquire(ctx context.Context) (capture.MediaStream, error) {
	return r, nil
}

func (r *remoteCamera) Tracks() []capture.Track {
	return []capture.Track{r}
}

func (r *remoteCamera) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
	r.frame = nil
}

func (r *remoteCamera) SetFrame(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = frame
}

func (r *remoteCamera) CaptureFrame() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil, fmt.Errorf("camera stream already released")
	}
	if len(r.frame) == 0 {
		return nil, fmt.Errorf("no frame received from client")
	}
	return r.frame, nil
}

// processorPhotoStore adapts the photo processor to the flow's upload port.
type processorPhotoStore struct {
	processor *media.PhotoProcessor
}

func (s *processorPhotoStore) Upload(ctx context.Context, officerID string, frame []byte) (string, error) {
	return s.processor.ProcessPunchPhoto(frame, officerID)
}
