package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/messaging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/presentation/http/middleware"
	"github.com/rollcallhq/rollcall-go/pkg/config"
)

// StreamHandlers contains the SSE change feed and roster websocket handlers
type StreamHandlers struct {
	broadcaster       *messaging.SSEBroadcaster
	rosterBroadcaster *messaging.RosterBroadcaster
	logger            *logging.ChanneledLogger
}

// NewStreamHandlers creates stream handlers with injected dependencies
func NewStreamHandlers(broadcaster *messaging.SSEBroadcaster, rosterBroadcaster *messaging.RosterBroadcaster, logger *logging.ChanneledLogger) *StreamHandlers {
	return &StreamHandlers{
		broadcaster:       broadcaster,
		rosterBroadcaster: rosterBroadcaster,
		logger:            logger,
	}
}

// GetChanges handles GET /api/v1/stream?table=punch_events - an SSE feed of
// change events for one watched table. Non-admin officers only receive their
// own changes.
func (h *StreamHandlers) GetChanges(c *gin.Context) {
	table := c.DefaultQuery("table", messaging.TablePunchEvents)
	if table != messaging.TablePunchEvents && table != messaging.TableLeaveRequests {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown table"})
		return
	}

	officerFilter := ""
	if middleware.Role(c) != officer.RoleAdmin {
		officerFilter = middleware.OfficerID(c)
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := h.broadcaster.AddClient(table, officerFilter)
	defer h.broadcaster.RemoveClient(ch, table, officerFilter)

	h.logger.SSE().Info("SSE connection established",
		"table", table,
		"officerFilter", officerFilter,
		"clients", h.broadcaster.ClientCount(table))

	// Initial confirmation so clients know the stream is live.
	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"table\":%q,\"timestamp\":%q}\n\n", table, time.Now().Format(time.RFC3339))
	c.Writer.Flush()

	heartbeat := time.NewTicker(time.Duration(config.SSEHeartbeatIntervalSeconds) * time.Second)
	defer heartbeat.Stop()

	clientCtx := c.Request.Context()
	for {
		select {
		case <-clientCtx.Done():
			h.logger.SSE().Debug("SSE client disconnected", "table", table)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprint(c.Writer, msg)
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()
		}
	}
}

var rosterUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// CORS already gates browser origins; the upgrade itself is
		// authenticated by the admin middleware.
		return true
	},
}

// GetRoster handles GET /api/v1/admin/roster/ws - upgrades to a websocket
// that receives periodic duty-roster snapshots.
func (h *StreamHandlers) GetRoster(c *gin.Context) {
	conn, err := rosterUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.SSE().Error("Roster websocket upgrade failed", "error", err)
		return
	}

	client := &messaging.RosterClient{
		Conn: conn,
		Send: make(chan []byte, 8),
	}
	h.rosterBroadcaster.Register(client)

	// Write pump. The broadcaster closes Send on unregister.
	go func() {
		defer conn.Close()
		for msg := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.rosterBroadcaster.Unregister(client)
				return
			}
		}
	}()

	// Read pump: incoming messages are discarded, reads detect disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.rosterBroadcaster.Unregister(client)
				return
			}
		}
	}()
}
