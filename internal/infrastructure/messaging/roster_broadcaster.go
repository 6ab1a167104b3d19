package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
)

// RosterClient represents a single connected admin dashboard client.
type RosterClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// OnDutyOfficer is one row of the live duty roster.
type OnDutyOfficer struct {
	OfficerID   string    `json:"officerId"`
	BadgeNumber string    `json:"badgeNumber"`
	Name        string    `json:"name"`
	Since       time.Time `json:"since"`
}

// RosterSnapshot is the payload sent to dashboard clients on each tick.
type RosterSnapshot struct {
	OnDuty     []OnDutyOfficer `json:"onDuty"`
	TotalCount int             `json:"totalCount"`
	AsOf       time.Time       `json:"asOf"`
}

// SnapshotFunc produces the current duty roster.
type SnapshotFunc func() (RosterSnapshot, error)

// RosterBroadcaster manages connected admin dashboard clients and pushes
// duty-roster snapshots on a fixed interval.
type RosterBroadcaster struct {
	clients    map[*RosterClient]bool
	register   chan *RosterClient
	unregister chan *RosterClient
	snapshot   SnapshotFunc
	interval   time.Duration
	logger     *logging.ChanneledLogger
	mu         sync.RWMutex
}

// NewRosterBroadcaster creates a new broadcaster instance.
func NewRosterBroadcaster(snapshot SnapshotFunc, interval time.Duration, logger *logging.ChanneledLogger) *RosterBroadcaster {
	return &RosterBroadcaster{
		clients:    make(map[*RosterClient]bool),
		register:   make(chan *RosterClient),
		unregister: make(chan *RosterClient),
		snapshot:   snapshot,
		interval:   interval,
		logger:     logger,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *RosterBroadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			b.logger.SSE().Debug("Roster client registered")

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mu.Unlock()
			b.logger.SSE().Debug("Roster client unregistered")

		case <-ticker.C:
			b.broadcastSnapshot()
		}
	}
}

// Register queues a client for registration.
func (b *RosterBroadcaster) Register(client *RosterClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *RosterBroadcaster) Unregister(client *RosterClient) {
	b.unregister <- client
}

// broadcastSnapshot gathers and sends the duty roster to all clients.
func (b *RosterBroadcaster) broadcastSnapshot() {
	b.mu.RLock()
	count := len(b.clients)
	b.mu.RUnlock()
	if count == 0 {
		return
	}

	snap, err := b.snapshot()
	if err != nil {
		b.logger.SSE().Error("Failed to build roster snapshot", "error", err.Error())
		return
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		b.logger.SSE().Error("Failed to marshal roster snapshot", "error", err.Error())
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client.Send <- payload:
		default:
			b.logger.SSE().Warn("Roster client send buffer full, snapshot dropped")
		}
	}
}

func (b *RosterBroadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for client := range b.clients {
		close(client.Send)
		delete(b.clients, client)
	}
}
