package punchstate

import (
	"os"
	"testing"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
)

type memStore struct {
	snaps map[string]Snapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]Snapshot)}
}

func (m *memStore) Load(officerID string) (*Snapshot, error) {
	snap, ok := m.snaps[officerID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *memStore) Save(officerID string, snap Snapshot) error {
	m.snaps[officerID] = snap
	return nil
}

func (m *memStore) Delete(officerID string) error {
	delete(m.snaps, officerID)
	return nil
}

type fakeEventRepo struct {
	latest   *attendance.PunchEvent
	storeErr error
	fetches  int
	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeEventRepo) Store(event *attendance.PunchEvent) error { return f.storeErr }

func (f *fakeEventRepo) FindByOfficer(officerID string, from, to time.Time) ([]attendance.PunchEvent, error) {
	return nil, nil
}

func (f *fakeEventRepo) FindAllBetween(from, to time.Time) ([]attendance.PunchEvent, error) {
	return nil, nil
}

func (f *fakeEventRepo) LatestForOfficerBetween(officerID string, from, to time.Time) (*attendance.PunchEvent, error) {
	f.fetches++
	f.lastFrom, f.lastTo = from, to
	return f.latest, nil
}

func testClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestInitializeFreshOfficer(t *testing.T) {
	store := newMemStore()
	repo := &fakeEventRepo{}
	cache := NewCache(store, repo, time.UTC)
	cache.SetClock(testClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))

	state, err := cache.Initialize("off-1")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if state.IsPunchedIn {
		t.Fatalf("fresh officer should not be punched in")
	}
	if state.NextPunchType() != attendance.PunchIn {
		t.Fatalf("fresh officer's next punch should be IN")
	}
	if repo.fetches != 1 {
		t.Fatalf("expected one source-of-truth fetch, got %d", repo.fetches)
	}
	if snap := store.snaps["off-1"]; snap.Date != "2026-03-02" {
		t.Fatalf("resolved state should be persisted with today's date, got %q", snap.Date)
	}
}

func TestInitializeTrustsTodaysConfirmedSnapshot(t *testing.T) {
	store := newMemStore()
	ts := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	store.snaps["off-1"] = Snapshot{
		Date:  "2026-03-02",
		State: attendance.PunchState{IsPunchedIn: true, LastPunchTime: &ts, LastPunchType: attendance.PunchIn},
	}
	repo := &fakeEventRepo{}
	cache := NewCache(store, repo, time.UTC)
	cache.SetClock(testClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))

	state, err := cache.Initialize("off-1")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !state.IsPunchedIn {
		t.Fatalf("expected snapshot state to be trusted")
	}
	if repo.fetches != 0 {
		t.Fatalf("a fresh same-day snapshot should not hit the source of truth")
	}
}

func TestInitializeRefetchesAfterDateRollover(t *testing.T) {
	store := newMemStore()
	ts := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	store.snaps["off-1"] = Snapshot{
		Date:  "2026-03-01", // yesterday
		State: attendance.PunchState{IsPunchedIn: true, LastPunchTime: &ts, LastPunchType: attendance.PunchIn},
	}
	repo := &fakeEventRepo{} // no punches today
	cache := NewCache(store, repo, time.UTC)
	cache.SetClock(testClock(time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)))

	state, err := cache.Initialize("off-1")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if state.IsPunchedIn {
		t.Fatalf("yesterday's snapshot must not leak into today")
	}
	if repo.fetches != 1 {
		t.Fatalf("expected a refetch after date rollover, got %d fetches", repo.fetches)
	}
	wantFrom := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !repo.lastFrom.Equal(wantFrom) || !repo.lastTo.Equal(wantFrom.AddDate(0, 0, 1)) {
		t.Fatalf("refetch should cover today's bounds, got [%v, %v)", repo.lastFrom, repo.lastTo)
	}
}

func TestInitializeDistrustsUnconfirmedSnapshot(t *testing.T) {
	store := newMemStore()
	store.snaps["off-1"] = Snapshot{
		Date:        "2026-03-02",
		State:       attendance.PunchState{IsPunchedIn: true},
		Unconfirmed: true, // crashed mid-punch
	}
	ts := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{latest: &attendance.PunchEvent{ID: "e1", OfficerID: "off-1", PunchType: attendance.PunchOut, Timestamp: ts}}
	cache := NewCache(store, repo, time.UTC)
	cache.SetClock(testClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))

	state, err := cache.Initialize("off-1")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if state.IsPunchedIn {
		t.Fatalf("unconfirmed snapshot must be replaced by the source of truth")
	}
	if repo.fetches != 1 {
		t.Fatalf("expected a refetch for an unconfirmed snapshot")
	}
}

func TestRecordPunchRoundTrip(t *testing.T) {
	store := newMemStore()
	repo := &fakeEventRepo{}
	cache := NewCache(store, repo, time.UTC)
	cache.SetClock(testClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)))

	if _, err := cache.Initialize("off-1"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	state, err := cache.RecordPunch("off-1", attendance.PunchIn)
	if err != nil {
		t.Fatalf("RecordPunch failed: %v", err)
	}
	if !state.IsPunchedIn || state.NextPunchType() != attendance.PunchOut {
		t.Fatalf("after IN the officer should be punched in, next OUT: %+v", state)
	}
	if store.snaps["off-1"].Unconfirmed {
		t.Fatalf("confirmed punch left an unconfirmed snapshot")
	}

	state, err = cache.RecordPunch("off-1", attendance.PunchOut)
	if err != nil {
		t.Fatalf("RecordPunch OUT failed: %v", err)
	}
	if state.IsPunchedIn || state.NextPunchType() != attendance.PunchIn {
		t.Fatalf("after OUT the officer should be punched out, next IN: %+v", state)
	}
}

func TestBeginPunchRollbackRestoresPriorState(t *testing.T) {
	store := newMemStore()
	repo := &fakeEventRepo{}
	cache := NewCache(store, repo, time.UTC)
	cache.SetClock(testClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)))

	if _, err := cache.Initialize("off-1"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := cache.RecordPunch("off-1", attendance.PunchIn); err != nil {
		t.Fatalf("RecordPunch failed: %v", err)
	}

	// Optimistic OUT whose remote write will fail.
	state, err := cache.BeginPunch("off-1", attendance.PunchOut)
	if err != nil {
		t.Fatalf("BeginPunch failed: %v", err)
	}
	if state.IsPunchedIn {
		t.Fatalf("optimistic state should reflect the OUT immediately")
	}
	if !store.snaps["off-1"].Unconfirmed {
		t.Fatalf("optimistic snapshot should be marked unconfirmed")
	}

	if err := cache.Rollback("off-1"); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	restored, ok := cache.State("off-1")
	if !ok || !restored.IsPunchedIn {
		t.Fatalf("rollback should restore the prior punched-in state, got %+v", restored)
	}
	if store.snaps["off-1"].Unconfirmed {
		t.Fatalf("rollback left an unconfirmed snapshot")
	}
}

func TestObserversNotifiedInRegistrationOrder(t *testing.T) {
	store := newMemStore()
	repo := &fakeEventRepo{}
	cache := NewCache(store, repo, time.UTC)
	cache.SetClock(testClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)))

	var order []string
	unsubA := cache.Subscribe(func(officerID string, state attendance.PunchState) {
		order = append(order, "a")
	})
	cache.Subscribe(func(officerID string, state attendance.PunchState) {
		order = append(order, "b")
	})

	if _, err := cache.RecordPunch("off-1", attendance.PunchIn); err != nil {
		t.Fatalf("RecordPunch failed: %v", err)
	}
	// BeginPunch and Confirm each notify once.
	if len(order) != 4 || order[0] != "a" || order[1] != "b" || order[2] != "a" || order[3] != "b" {
		t.Fatalf("expected registration-order notification a,b,a,b, got %v", order)
	}

	order = nil
	unsubA()
	if _, err := cache.RecordPunch("off-1", attendance.PunchOut); err != nil {
		t.Fatalf("RecordPunch failed: %v", err)
	}
	for _, name := range order {
		if name == "a" {
			t.Fatalf("unsubscribed observer still notified: %v", order)
		}
	}
	if len(order) == 0 {
		t.Fatalf("remaining observer should still be notified")
	}
}

func TestObserverMayReadBackFromCache(t *testing.T) {
	store := newMemStore()
	repo := &fakeEventRepo{}
	cache := NewCache(store, repo, time.UTC)
	cache.SetClock(testClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)))

	var seen []attendance.PunchType
	cache.Subscribe(func(officerID string, state attendance.PunchState) {
		seen = append(seen, cache.NextPunchType(officerID))
	})

	if _, err := cache.RecordPunch("off-1", attendance.PunchIn); err != nil {
		t.Fatalf("RecordPunch failed: %v", err)
	}
	// BeginPunch and Confirm each notify; both read back OUT after the IN.
	if len(seen) != 2 || seen[0] != attendance.PunchOut || seen[1] != attendance.PunchOut {
		t.Fatalf("observer read-back should see the new state, got %v", seen)
	}
}

func TestNextPunchTypeUninitializedOfficer(t *testing.T) {
	cache := NewCache(newMemStore(), &fakeEventRepo{}, time.UTC)
	if got := cache.NextPunchType("unknown"); got != attendance.PunchIn {
		t.Fatalf("uninitialized officer should read as not punched in, got %s", got)
	}
}

func TestFileStoreCorruptSnapshotTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := store.Save("off-1", Snapshot{Date: "2026-03-02"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	snap, err := store.Load("off-1")
	if err != nil || snap == nil || snap.Date != "2026-03-02" {
		t.Fatalf("round trip failed: %v %v", snap, err)
	}

	// Corrupt the file on disk.
	if err := os.WriteFile(store.path("off-1"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("corrupting snapshot failed: %v", err)
	}
	snap, err = store.Load("off-1")
	if err != nil {
		t.Fatalf("corrupt snapshot should not error: %v", err)
	}
	if snap != nil {
		t.Fatalf("corrupt snapshot should read as absent, got %+v", snap)
	}

	if _, err := store.Load("never-seen"); err != nil {
		t.Fatalf("missing snapshot should not error: %v", err)
	}
	if err := store.Delete("off-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}
