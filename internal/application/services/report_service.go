package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/attendance"
	"github.com/rollcallhq/rollcall-go/internal/domain/leave"
	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/performance"
	"github.com/xuri/excelize/v2"
)

// ReportService exports attendance and leave data for a date range.
type ReportService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	events      attendance.EventRepository
	leaves      leave.Repository
	officers    officer.Repository
	aggregator  *attendance.Aggregator
	loc         *time.Location
}

// NewReportService creates a new report service
func NewReportService(
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	events attendance.EventRepository,
	leaves leave.Repository,
	officers officer.Repository,
	aggregator *attendance.Aggregator,
	loc *time.Location,
) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		logger:      logger,
		perfTracker: perfTracker,
		events:      events,
		leaves:      leaves,
		officers:    officers,
		aggregator:  aggregator,
		loc:         loc,
	}
}

// reportRow is one officer-day line of the attendance report.
type reportRow struct {
	BadgeNumber string
	Name        string
	Date        string
	PunchIn     string
	PunchOut    string
	Hours       *float64
	Status      string
}

// buildRows derives the report rows for [from, to). Days with data quality
// problems are skipped with a warning rather than failing the whole export.
func (s *ReportService) buildRows(from, to time.Time) ([]reportRow, error) {
	all, err := s.officers.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load officers: %w", err)
	}

	events, err := s.events.FindAllBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load punch events: %w", err)
	}

	byOfficer := make(map[string][]attendance.PunchEvent)
	for _, ev := range events {
		byOfficer[ev.OfficerID] = append(byOfficer[ev.OfficerID], ev)
	}

	var rows []reportRow
	for _, o := range all {
		evs := byOfficer[o.ID]
		if len(evs) == 0 {
			continue
		}
		it := s.aggregator.Days(evs)
		for {
			record, err := it.Next()
			if err != nil {
				if attendance.IsDataQuality(err) {
					s.logger.Report().Warn("Skipping day with data quality problem", "officerId", o.ID, "error", err)
					it.Skip()
					continue
				}
				return nil, err
			}
			if record == nil {
				break
			}
			row := reportRow{
				BadgeNumber: o.BadgeNumber,
				Name:        o.FullName(),
				Date:        record.Date,
				Status:      string(record.Status),
				Hours:       record.HoursWorked,
			}
			if record.PunchIn != nil {
				row.PunchIn = record.PunchIn.Timestamp.In(s.loc).Format("15:04:05")
			}
			if record.PunchOut != nil {
				row.PunchOut = record.PunchOut.Timestamp.In(s.loc).Format("15:04:05")
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// ExportAttendanceXLSX builds an attendance workbook for [from, to): one
// sheet of officer-day rows plus a leave summary sheet for the same window.
func (s *ReportService) ExportAttendanceXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	marker := s.perfTracker.StartOperation("export_xlsx", "")
	defer marker.Complete()

	rows, err := s.buildRows(from, to)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Attendance"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{"Badge", "Officer", "Date", "Punch In", "Punch Out", "Hours", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "G1", headerStyle)
	f.SetColWidth(sheet, "A", "B", 18)
	f.SetColWidth(sheet, "C", "G", 12)

	for i, row := range rows {
		r := i + 2
		f.SetCellValue(sheet, "A"+strconv.Itoa(r), row.BadgeNumber)
		f.SetCellValue(sheet, "B"+strconv.Itoa(r), row.Name)
		f.SetCellValue(sheet, "C"+strconv.Itoa(r), row.Date)
		f.SetCellValue(sheet, "D"+strconv.Itoa(r), row.PunchIn)
		f.SetCellValue(sheet, "E"+strconv.Itoa(r), row.PunchOut)
		if row.Hours != nil {
			f.SetCellValue(sheet, "F"+strconv.Itoa(r), *row.Hours)
		}
		f.SetCellValue(sheet, "G"+strconv.Itoa(r), row.Status)
	}

	if err := s.addLeaveSheet(f, headerStyle, from, to); err != nil {
		marker.SetError(err)
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	marker.SetSuccess(true)
	marker.AddMetadata("rows", len(rows))
	s.logger.Report().Info("Attendance XLSX exported", "rows", len(rows))
	return buf.Bytes(), nil
}

// addLeaveSheet appends the approved-leave summary sheet.
func (s *ReportService) addLeaveSheet(f *excelize.File, headerStyle int, from, to time.Time) error {
	const sheet = "Approved Leave"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to add leave sheet: %w", err)
	}

	approved, err := s.leaves.FindApprovedBetween(
		from.In(s.loc).Format("2006-01-02"),
		to.In(s.loc).AddDate(0, 0, -1).Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to load approved leave: %w", err)
	}

	headers := []string{"Officer ID", "Type", "Start", "End", "Days"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "E1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "E", 12)

	for i, req := range approved {
		r := i + 2
		days, _ := req.Days()
		f.SetCellValue(sheet, "A"+strconv.Itoa(r), req.OfficerID)
		f.SetCellValue(sheet, "B"+strconv.Itoa(r), req.LeaveType)
		f.SetCellValue(sheet, "C"+strconv.Itoa(r), req.StartDate)
		f.SetCellValue(sheet, "D"+strconv.Itoa(r), req.EndDate)
		f.SetCellValue(sheet, "E"+strconv.Itoa(r), days)
	}
	return nil
}

// ExportAttendanceCSV builds the attendance report as CSV for [from, to).
func (s *ReportService) ExportAttendanceCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	marker := s.perfTracker.StartOperation("export_csv", "")
	defer marker.Complete()

	rows, err := s.buildRows(from, to)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"badge", "officer", "date", "punch_in", "punch_out", "hours", "status"}); err != nil {
		marker.SetError(err)
		return nil, err
	}
	for _, row := range rows {
		hours := ""
		if row.Hours != nil {
			hours = strconv.FormatFloat(*row.Hours, 'f', 2, 64)
		}
		record := []string{row.BadgeNumber, row.Name, row.Date, row.PunchIn, row.PunchOut, hours, row.Status}
		if err := w.Write(record); err != nil {
			marker.SetError(err)
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	marker.AddMetadata("rows", len(rows))
	return buf.Bytes(), nil
}
