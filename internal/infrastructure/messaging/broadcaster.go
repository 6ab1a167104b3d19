// Package messaging provides the concrete implementation of the SSE change
// broadcaster.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
)

// subscriber is one connected SSE client watching a table, optionally
// filtered to a single officer's rows.
type subscriber struct {
	ch            chan string
	officerFilter string // empty matches every row
}

// SSEBroadcaster manages table-scoped SSE subscriptions. It is created once
// by the container and injected; there is no package-level instance.
type SSEBroadcaster struct {
	tables map[string][]subscriber
	mu     sync.Mutex
	logger *logging.ChanneledLogger
}

// NewSSEBroadcaster creates an SSEBroadcaster instance.
func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	return &SSEBroadcaster{
		tables: make(map[string][]subscriber),
		logger: logger,
	}
}

// AddClient registers a new SSE client for a table, optionally filtered by
// officer id.
func (b *SSEBroadcaster) AddClient(table, officerFilter string) chan string {
	ch := make(chan string, 10)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tables[table] = append(b.tables[table], subscriber{ch: ch, officerFilter: officerFilter})

	b.logger.SSE().Debug("SSE client registered", "table", table, "officerFilter", officerFilter)
	return ch
}

// RemoveClient removes an SSE client from a table subscription.
func (b *SSEBroadcaster) RemoveClient(ch chan string, table, officerFilter string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.tables[table]
	newSubs := make([]subscriber, 0, len(subs))
	for _, sub := range subs {
		if sub.ch != ch {
			newSubs = append(newSubs, sub)
		}
	}
	if len(newSubs) == 0 {
		delete(b.tables, table)
	} else {
		b.tables[table] = newSubs
	}

	b.logger.SSE().Debug("SSE client unregistered", "table", table, "officerFilter", officerFilter)
}

// ClientCount returns the subscriber count for a table.
func (b *SSEBroadcaster) ClientCount(table string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tables[table])
}

// BroadcastChange sends a change event to every matching subscriber of the
// event's table. Sends never block; a full channel drops the message with a
// warning, and the client's next heartbeat-triggered refetch catches up.
func (b *SSEBroadcaster) BroadcastChange(event ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.SSE().Error("Panic recovered in BroadcastChange", "error", r, "table", event.Table)
		}
	}()

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.SSE().Error("Failed to marshal change event", "error", err.Error(), "table", event.Table)
		return
	}
	message := fmt.Sprintf("event: change\ndata: %s\n\n", payload)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.tables[event.Table] {
		if sub.officerFilter != "" && sub.officerFilter != event.OfficerID {
			continue
		}
		select {
		case sub.ch <- message:
		default:
			b.logger.SSE().Warn("SSE channel full, message dropped", "table", event.Table, "officerFilter", sub.officerFilter)
		}
	}
}
