package leave

import (
	"time"
)

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date    string    `json:"date"` // "2006-01-02"
	InMonth bool      `json:"inMonth"`
	Weekday string    `json:"weekday"`
	Entries []DayLeaf `json:"entries"`
}

// DayLeaf is one approved leave falling on a calendar day.
type DayLeaf struct {
	RequestID string `json:"requestId"`
	OfficerID string `json:"officerId"`
	LeaveType string `json:"leaveType"`
}

// CalendarWeek is a Sunday-to-Saturday row of the grid.
type CalendarWeek struct {
	Days [7]CalendarDay `json:"days"`
}

// MonthGrid buckets approved leave requests into a full-week calendar grid
// for one month. Leading and trailing days from adjacent months are included
// so every week row is complete.
func MonthGrid(year int, month time.Month, approved []Request) []CalendarWeek {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	// Rewind to the Sunday on or before the 1st.
	gridStart := first.AddDate(0, 0, -int(first.Weekday()))
	// Advance to the Saturday on or after the last day.
	gridEnd := last.AddDate(0, 0, 6-int(last.Weekday()))

	byDate := bucketByDate(approved, gridStart, gridEnd)

	var weeks []CalendarWeek
	for day := gridStart; !day.After(gridEnd); {
		var week CalendarWeek
		for i := 0; i < 7; i++ {
			date := day.Format("2006-01-02")
			week.Days[i] = CalendarDay{
				Date:    date,
				InMonth: day.Month() == month,
				Weekday: day.Weekday().String(),
				Entries: byDate[date],
			}
			day = day.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// bucketByDate expands each request's inclusive date range into per-day
// entries, clipped to the grid window.
func bucketByDate(requests []Request, gridStart, gridEnd time.Time) map[string][]DayLeaf {
	byDate := make(map[string][]DayLeaf)
	for _, req := range requests {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			continue
		}
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil || end.Before(start) {
			continue
		}
		if start.Before(gridStart) {
			start = gridStart
		}
		if end.After(gridEnd) {
			end = gridEnd
		}
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			date := day.Format("2006-01-02")
			byDate[date] = append(byDate[date], DayLeaf{
				RequestID: req.ID,
				OfficerID: req.OfficerID,
				LeaveType: req.LeaveType,
			})
		}
	}
	return byDate
}
