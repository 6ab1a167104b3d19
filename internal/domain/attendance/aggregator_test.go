package attendance

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func mustAggregator(t *testing.T) *Aggregator {
	t.Helper()
	agg, err := NewAggregator("09:15", time.UTC)
	if err != nil {
		t.Fatalf("NewAggregator failed: %v", err)
	}
	return agg
}

func punch(id string, pt PunchType, ts time.Time) PunchEvent {
	return PunchEvent{ID: id, OfficerID: "off-1", PunchType: pt, Timestamp: ts, CreatedAt: ts}
}

func TestAggregateHoursWorked(t *testing.T) {
	agg := mustAggregator(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	events := []PunchEvent{
		punch("a", PunchIn, day.Add(8*time.Hour)),
		punch("b", PunchOut, day.Add(16*time.Hour+30*time.Minute)),
	}

	records, err := agg.Aggregate(events)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Date != "2026-03-02" {
		t.Fatalf("expected date 2026-03-02, got %s", rec.Date)
	}
	if rec.HoursWorked == nil || *rec.HoursWorked != 8.5 {
		t.Fatalf("expected 8.5 hours, got %v", rec.HoursWorked)
	}
	if rec.Status != StatusPresent {
		t.Fatalf("expected PRESENT, got %s", rec.Status)
	}
}

func TestAggregatePicksEarliestPunches(t *testing.T) {
	agg := mustAggregator(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	// Duplicate INs and OUTs: the earliest of each wins.
	events := []PunchEvent{
		punch("in2", PunchIn, day.Add(9*time.Hour)),
		punch("in1", PunchIn, day.Add(8*time.Hour)),
		punch("out2", PunchOut, day.Add(17*time.Hour)),
		punch("out1", PunchOut, day.Add(16*time.Hour)),
	}

	records, err := agg.Aggregate(events)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if records[0].PunchIn.ID != "in1" {
		t.Fatalf("expected earliest IN in1, got %s", records[0].PunchIn.ID)
	}
	if records[0].PunchOut.ID != "out1" {
		t.Fatalf("expected earliest OUT out1, got %s", records[0].PunchOut.ID)
	}
}

func TestAggregateLateCutoff(t *testing.T) {
	agg := mustAggregator(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Time
		want DayStatus
	}{
		{"well before cutoff", day.Add(8 * time.Hour), StatusPresent},
		{"exactly at cutoff", day.Add(9*time.Hour + 15*time.Minute), StatusPresent},
		{"one second after cutoff", day.Add(9*time.Hour + 15*time.Minute + time.Second), StatusLate},
		{"well after cutoff", day.Add(11 * time.Hour), StatusLate},
	}

	for _, tc := range cases {
		records, err := agg.Aggregate([]PunchEvent{punch("in", PunchIn, tc.in)})
		if err != nil {
			t.Fatalf("%s: Aggregate failed: %v", tc.name, err)
		}
		if records[0].Status != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, records[0].Status)
		}
	}
}

func TestAggregateOutOnlyDayIsAbsent(t *testing.T) {
	agg := mustAggregator(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	records, err := agg.Aggregate([]PunchEvent{punch("out", PunchOut, day.Add(16*time.Hour))})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	rec := records[0]
	if rec.Status != StatusAbsent {
		t.Fatalf("expected ABSENT for OUT-only day, got %s", rec.Status)
	}
	if rec.HoursWorked != nil {
		t.Fatalf("expected nil hours for OUT-only day, got %v", *rec.HoursWorked)
	}
	if rec.PunchOut == nil {
		t.Fatalf("expected the OUT event to be retained on the record")
	}
}

func TestAggregateNegativeHoursIsDataQualityError(t *testing.T) {
	agg := mustAggregator(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	events := []PunchEvent{
		punch("in", PunchIn, day.Add(16*time.Hour)),
		punch("out", PunchOut, day.Add(8*time.Hour)),
	}

	_, err := agg.Aggregate(events)
	if err == nil {
		t.Fatalf("expected error for negative hours")
	}
	if !IsDataQuality(err) {
		t.Fatalf("expected a data quality error, got %v", err)
	}
	if !errors.Is(err, ErrNegativeHours) {
		t.Fatalf("expected ErrNegativeHours in chain, got %v", err)
	}

	var dq *DataQualityError
	if !errors.As(err, &dq) {
		t.Fatalf("expected *DataQualityError, got %T", err)
	}
	if dq.Date != "2026-03-02" {
		t.Fatalf("expected date on error, got %s", dq.Date)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	agg := mustAggregator(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	events := []PunchEvent{
		punch("a", PunchIn, day.Add(8*time.Hour)),
		punch("b", PunchOut, day.Add(16*time.Hour)),
		punch("c", PunchIn, day.AddDate(0, 0, 1).Add(9*time.Hour+30*time.Minute)),
		punch("d", PunchOut, day.AddDate(0, 0, 1).Add(17*time.Hour)),
		punch("e", PunchIn, day.AddDate(0, 0, 3).Add(8*time.Hour)),
	}

	baseline, err := agg.Aggregate(events)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]PunchEvent, len(events))
		copy(shuffled, events)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := agg.Aggregate(shuffled)
		if err != nil {
			t.Fatalf("trial %d: Aggregate failed: %v", trial, err)
		}
		if len(got) != len(baseline) {
			t.Fatalf("trial %d: expected %d records, got %d", trial, len(baseline), len(got))
		}
		for i := range got {
			if got[i].Date != baseline[i].Date || got[i].Status != baseline[i].Status {
				t.Fatalf("trial %d: record %d differs: %+v vs %+v", trial, i, got[i], baseline[i])
			}
			if got[i].PunchIn != nil && got[i].PunchIn.ID != baseline[i].PunchIn.ID {
				t.Fatalf("trial %d: record %d picked a different IN", trial, i)
			}
		}
	}
}

func TestDayIteratorIsLazyAndRestartable(t *testing.T) {
	agg := mustAggregator(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	events := []PunchEvent{
		punch("a", PunchIn, day.Add(8*time.Hour)),
		punch("b", PunchIn, day.AddDate(0, 0, 1).Add(8*time.Hour)),
	}

	it := agg.Days(events)
	if it.Len() != 2 {
		t.Fatalf("expected 2 dates, got %d", it.Len())
	}

	first, err := it.Next()
	if err != nil || first == nil {
		t.Fatalf("first Next failed: %v %v", first, err)
	}
	if first.Date != "2026-03-02" {
		t.Fatalf("expected ascending dates, got %s first", first.Date)
	}

	it.Reset()
	again, err := it.Next()
	if err != nil || again == nil || again.Date != first.Date {
		t.Fatalf("Reset did not restart the sequence: %v %v", again, err)
	}

	// Drain and check termination.
	if _, err := it.Next(); err != nil {
		t.Fatalf("second Next failed: %v", err)
	}
	rec, err := it.Next()
	if err != nil || rec != nil {
		t.Fatalf("exhausted iterator should return (nil, nil), got %v %v", rec, err)
	}
}

func TestDayIteratorSkipAdvancesPastBadDay(t *testing.T) {
	agg := mustAggregator(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	events := []PunchEvent{
		punch("in", PunchIn, day.Add(16*time.Hour)),
		punch("out", PunchOut, day.Add(8*time.Hour)), // negative hours
		punch("ok", PunchIn, day.AddDate(0, 0, 1).Add(8*time.Hour)),
	}

	it := agg.Days(events)
	if _, err := it.Next(); err == nil {
		t.Fatalf("expected data quality error for first day")
	}
	// Without Skip, Next reports the same day again.
	if _, err := it.Next(); err == nil {
		t.Fatalf("expected the error to repeat until Skip")
	}
	it.Skip()
	rec, err := it.Next()
	if err != nil || rec == nil {
		t.Fatalf("expected the next day after Skip, got %v %v", rec, err)
	}
	if rec.Date != "2026-03-03" {
		t.Fatalf("expected 2026-03-03 after Skip, got %s", rec.Date)
	}
}

func TestStateFromEvent(t *testing.T) {
	if s := StateFromEvent(nil); s.IsPunchedIn || s.LastPunchTime != nil {
		t.Fatalf("nil event should derive the zero state, got %+v", s)
	}

	ts := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	in := punch("a", PunchIn, ts)
	s := StateFromEvent(&in)
	if !s.IsPunchedIn || s.LastPunchType != PunchIn {
		t.Fatalf("IN event should derive punched-in state, got %+v", s)
	}
	if s.NextPunchType() != PunchOut {
		t.Fatalf("expected next punch OUT while punched in")
	}

	out := punch("b", PunchOut, ts)
	s = StateFromEvent(&out)
	if s.IsPunchedIn || s.NextPunchType() != PunchIn {
		t.Fatalf("OUT event should derive punched-out state, got %+v", s)
	}
}
