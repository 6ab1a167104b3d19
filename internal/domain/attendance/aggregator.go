package attendance

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Aggregator derives per-day attendance records from an unordered list of
// punch events for a single officer. Grouping is order-independent: the same
// event set produces the same records regardless of input order.
type Aggregator struct {
	cutoffSeconds int // seconds after local midnight; a punch-in after this is late
	loc           *time.Location
}

// NewAggregator builds an aggregator with the given late cutoff ("HH:MM",
// local time) and location used to derive calendar dates from timestamps.
func NewAggregator(lateCutoff string, loc *time.Location) (*Aggregator, error) {
	if loc == nil {
		loc = time.Local
	}
	parts := strings.SplitN(lateCutoff, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid late cutoff %q, expected HH:MM", lateCutoff)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid late cutoff hour in %q", lateCutoff)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid late cutoff minute in %q", lateCutoff)
	}
	return &Aggregator{
		cutoffSeconds: hour*3600 + minute*60,
		loc:           loc,
	}, nil
}

// Days returns a lazy, finite, restartable sequence of day records, ascending
// by date. Days with zero events are omitted; callers needing full coverage
// fill gaps themselves.
func (a *Aggregator) Days(events []PunchEvent) *DayIterator {
	buckets := make(map[string][]PunchEvent)
	for _, ev := range events {
		date := ev.Timestamp.In(a.loc).Format(dateLayout)
		buckets[date] = append(buckets[date], ev)
	}

	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	return &DayIterator{agg: a, buckets: buckets, dates: dates}
}

// Aggregate materializes the full day sequence. It stops at the first
// data-quality error.
func (a *Aggregator) Aggregate(events []PunchEvent) ([]DayAttendanceRecord, error) {
	it := a.Days(events)
	var records []DayAttendanceRecord
	for {
		rec, err := it.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return records, nil
		}
		records = append(records, *rec)
	}
}

// deriveDay computes the record for one date bucket.
func (a *Aggregator) deriveDay(date string, events []PunchEvent) (*DayAttendanceRecord, error) {
	var punchIn, punchOut *PunchEvent
	for i := range events {
		ev := &events[i]
		switch ev.PunchType {
		case PunchIn:
			if punchIn == nil || ev.Timestamp.Before(punchIn.Timestamp) {
				punchIn = ev
			}
		case PunchOut:
			if punchOut == nil || ev.Timestamp.Before(punchOut.Timestamp) {
				punchOut = ev
			}
		}
	}

	rec := &DayAttendanceRecord{Date: date, PunchIn: punchIn, PunchOut: punchOut}

	if punchIn != nil && punchOut != nil {
		hours := punchOut.Timestamp.Sub(punchIn.Timestamp).Hours()
		if hours < 0 {
			return nil, &DataQualityError{
				OfficerID: punchIn.OfficerID,
				Date:      date,
				Err:       fmt.Errorf("%w: out %s precedes in %s", ErrNegativeHours,
					punchOut.Timestamp.Format(time.RFC3339), punchIn.Timestamp.Format(time.RFC3339)),
			}
		}
		rec.HoursWorked = &hours
	}

	switch {
	case punchIn == nil:
		// An OUT with no matching IN is classified absent. Odd, but it is
		// the behavior the source data is reviewed against.
		rec.Status = StatusAbsent
	case a.isLate(punchIn.Timestamp):
		rec.Status = StatusLate
	default:
		rec.Status = StatusPresent
	}

	return rec, nil
}

// isLate reports whether a punch-in's local time-of-day falls after the cutoff.
func (a *Aggregator) isLate(ts time.Time) bool {
	local := ts.In(a.loc)
	seconds := local.Hour()*3600 + local.Minute()*60 + local.Second()
	return seconds > a.cutoffSeconds
}

// DayIterator walks date buckets in ascending order, deriving each record on
// demand. Reset rewinds to the first date; the underlying buckets are not
// recomputed.
type DayIterator struct {
	agg     *Aggregator
	buckets map[string][]PunchEvent
	dates   []string
	pos     int
}

// Next returns the next day record, or (nil, nil) when the sequence is
// exhausted. A data-quality error does not advance the iterator.
func (it *DayIterator) Next() (*DayAttendanceRecord, error) {
	if it.pos >= len(it.dates) {
		return nil, nil
	}
	date := it.dates[it.pos]
	rec, err := it.agg.deriveDay(date, it.buckets[date])
	if err != nil {
		return nil, err
	}
	it.pos++
	return rec, nil
}

// Skip advances past the current date without deriving it. Callers use it to
// move on after Next reports a data-quality error.
func (it *DayIterator) Skip() {
	if it.pos < len(it.dates) {
		it.pos++
	}
}

// Reset restarts the sequence from the first date.
func (it *DayIterator) Reset() {
	it.pos = 0
}

// Len returns the number of dates in the sequence.
func (it *DayIterator) Len() int {
	return len(it.dates)
}
