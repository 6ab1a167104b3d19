package punchstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
)

// Observer receives the new state after every mutation.
type Observer func(officerID string, state attendance.PunchState)

// Cache is the read-through punch-state cache. It trusts a persisted snapshot
// only while its date matches the current date and it carries no unconfirmed
// optimistic write; on any doubt it refetches from the punch event repository.
//
// Writes are two-phase: BeginPunch applies an optimistic, unconfirmed state;
// Confirm makes it durable once the remote write succeeds, and Rollback
// restores the prior confirmed state when it fails.
//
// The cache is created per container and injected; it holds no package-level
// state. Every mutation synchronously notifies observers in registration
// order, outside the cache's lock.
type Cache struct {
	mu        sync.Mutex
	store     Store
	events    attendance.EventRepository
	loc       *time.Location
	now       func() time.Time
	entries   map[string]*entry
	observers []registration
	nextObsID int
}

type entry struct {
	state       attendance.PunchState
	date        string
	unconfirmed bool
	prior       *attendance.PunchState // confirmed state to restore on rollback
}

type registration struct {
	id int
	fn Observer
}

// NewCache builds a cache over the given snapshot store and source of truth.
func NewCache(store Store, events attendance.EventRepository, loc *time.Location) *Cache {
	if loc == nil {
		loc = time.Local
	}
	return &Cache{
		store:   store,
		events:  events,
		loc:     loc,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// SetClock overrides the cache's time source. Intended for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Initialize loads an officer's punch state: the persisted snapshot if it is
// dated today and confirmed, otherwise the most recent same-day event from
// the source of truth. The resolved state is persisted and returned.
func (c *Cache) Initialize(officerID string) (attendance.PunchState, error) {
	c.mu.Lock()
	today := c.today()
	c.mu.Unlock()

	snap, err := c.store.Load(officerID)
	if err != nil {
		return attendance.PunchState{}, err
	}
	if snap != nil && snap.Date == today && !snap.Unconfirmed {
		c.mu.Lock()
		c.entries[officerID] = &entry{state: snap.State, date: today}
		c.mu.Unlock()
		c.notify(officerID, snap.State)
		return snap.State, nil
	}

	// Stale snapshot, unconfirmed leftover, or nothing cached: refetch.
	dayStart, dayEnd := c.dayBounds(today)
	latest, err := c.events.LatestForOfficerBetween(officerID, dayStart, dayEnd)
	if err != nil {
		return attendance.PunchState{}, fmt.Errorf("failed to refetch punch state: %w", err)
	}
	state := attendance.StateFromEvent(latest)

	if err := c.store.Save(officerID, Snapshot{Date: today, State: state}); err != nil {
		return attendance.PunchState{}, err
	}

	c.mu.Lock()
	c.entries[officerID] = &entry{state: state, date: today}
	c.mu.Unlock()
	c.notify(officerID, state)

	return state, nil
}

// BeginPunch applies the optimistic state for a punch that is about to be
// persisted remotely. The prior confirmed state is retained for rollback.
func (c *Cache) BeginPunch(officerID string, punchType attendance.PunchType) (attendance.PunchState, error) {
	c.mu.Lock()

	today := c.today()
	ts := c.now()
	state := attendance.PunchState{
		IsPunchedIn:   punchType == attendance.PunchIn,
		LastPunchTime: &ts,
		LastPunchType: punchType,
	}

	var prior *attendance.PunchState
	if e, ok := c.entries[officerID]; ok && e.date == today && !e.unconfirmed {
		s := e.state
		prior = &s
	}

	if err := c.store.Save(officerID, Snapshot{Date: today, State: state, Unconfirmed: true}); err != nil {
		c.mu.Unlock()
		return attendance.PunchState{}, err
	}

	c.entries[officerID] = &entry{state: state, date: today, unconfirmed: true, prior: prior}
	c.mu.Unlock()
	c.notify(officerID, state)
	return state, nil
}

// Confirm marks the optimistic state as durable after the remote write
// succeeded.
func (c *Cache) Confirm(officerID string) error {
	c.mu.Lock()

	e, ok := c.entries[officerID]
	if !ok || !e.unconfirmed {
		c.mu.Unlock()
		return nil
	}

	if err := c.store.Save(officerID, Snapshot{Date: e.date, State: e.state}); err != nil {
		c.mu.Unlock()
		return err
	}

	e.unconfirmed = false
	e.prior = nil
	state := e.state
	c.mu.Unlock()
	c.notify(officerID, state)
	return nil
}

// Rollback restores the prior confirmed state after the remote write failed,
// closing the optimistic consistency window. With no prior state the cache
// falls back to "not punched in"; the next Initialize corrects it from the
// source of truth either way.
func (c *Cache) Rollback(officerID string) error {
	c.mu.Lock()

	e, ok := c.entries[officerID]
	if !ok || !e.unconfirmed {
		c.mu.Unlock()
		return nil
	}

	state := attendance.PunchState{}
	if e.prior != nil {
		state = *e.prior
	}

	if err := c.store.Save(officerID, Snapshot{Date: e.date, State: state}); err != nil {
		c.mu.Unlock()
		return err
	}

	c.entries[officerID] = &entry{state: state, date: e.date}
	c.mu.Unlock()
	c.notify(officerID, state)
	return nil
}

// RecordPunch is the single-phase convenience for callers whose remote write
// has already succeeded: BeginPunch immediately confirmed.
func (c *Cache) RecordPunch(officerID string, punchType attendance.PunchType) (attendance.PunchState, error) {
	state, err := c.BeginPunch(officerID, punchType)
	if err != nil {
		return attendance.PunchState{}, err
	}
	if err := c.Confirm(officerID); err != nil {
		return attendance.PunchState{}, err
	}
	return state, nil
}

// State returns the in-memory state for an officer, if initialized.
func (c *Cache) State(officerID string) (attendance.PunchState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[officerID]
	if !ok {
		return attendance.PunchState{}, false
	}
	return e.state, true
}

// NextPunchType is a pure function of the current cached state: OUT while
// punched in, otherwise IN. An uninitialized officer reads as not punched in.
func (c *Cache) NextPunchType(officerID string) attendance.PunchType {
	state, _ := c.State(officerID)
	return state.NextPunchType()
}

// Subscribe registers an observer and returns its unregister handle.
// Observers are notified synchronously, in registration order, on every
// mutation for any officer. Notification happens outside the cache's lock,
// so an observer may read back from the cache.
func (c *Cache) Subscribe(fn Observer) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObsID
	c.nextObsID++
	c.observers = append(c.observers, registration{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, reg := range c.observers {
			if reg.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// notify snapshots the observer list under the lock and invokes it after
// release, in registration order.
func (c *Cache) notify(officerID string, state attendance.PunchState) {
	c.mu.Lock()
	obs := make([]registration, len(c.observers))
	copy(obs, c.observers)
	c.mu.Unlock()

	for _, reg := range obs {
		reg.fn(officerID, state)
	}
}

func (c *Cache) today() string {
	return c.now().In(c.loc).Format("2006-01-02")
}

func (c *Cache) dayBounds(date string) (time.Time, time.Time) {
	day, err := time.ParseInLocation("2006-01-02", date, c.loc)
	if err != nil {
		day = c.now().In(c.loc).Truncate(24 * time.Hour)
	}
	return day, day.AddDate(0, 0, 1)
}
