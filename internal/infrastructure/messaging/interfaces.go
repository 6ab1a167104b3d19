// Package messaging defines interfaces for real-time change notification.
package messaging

// Watched table names.
const (
	TablePunchEvents   = "punch_events"
	TableLeaveRequests = "leave_requests"
)

// ChangeEvent describes a committed write to a watched table. Clients use it
// as a refetch trigger, not as a data payload.
type ChangeEvent struct {
	Table     string `json:"table"`
	Action    string `json:"action"` // "insert" or "update"
	RecordID  string `json:"recordId"`
	OfficerID string `json:"officerId,omitempty"`
}

// Broadcaster defines the interface for managing SSE client connections and
// broadcasting change events.
type Broadcaster interface {
	AddClient(table, officerFilter string) chan string
	RemoveClient(ch chan string, table, officerFilter string)
	BroadcastChange(event ChangeEvent)
	ClientCount(table string) int
}
