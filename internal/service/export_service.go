package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/internal/model"
)

// ── Export errors ──

var ErrExportGenerateFail = errors.New("failed to generate export file")

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService duty session exports.
//
// Files are returned as bytes; the handler sets the download headers.
type ExportService interface {
	// ExportDutySessions .xlsx of sessions, all of them when status is empty.
	ExportDutySessions(ctx context.Context, status string) (*bytes.Buffer, string, error)
	// DutyCalendar iCalendar feed of one staff member's sessions. Open sessions end "now".
	DutyCalendar(ctx context.Context, staffID string) ([]byte, error)
}

type exportService struct {
	duty     DutyService
	location *time.Location
	logger   *zap.Logger
	clock    func() time.Time
}

// NewExportService creates an ExportService. Times are rendered in loc (UTC when nil).
func NewExportService(duty DutyService, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{duty: duty, location: loc, logger: logger, clock: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportDutySessions
// ═══════════════════════════════════════════════════════════
//
// One sheet "Duty Sessions": a title row, a header row, then one row per session newest first.

var dutyExportHeaders = []string{
	"Session ID", "Staff", "Email", "Login Time", "Logout Time",
	"Status", "Decided By", "Decided At", "Notes", "Ended By", "Ended At", "End Notes",
}

func (s *exportService) ExportDutySessions(ctx context.Context, status string) (*bytes.Buffer, string, error) {
	var (
		sessions []model.DutySession
		err      error
	)
	if status == "" {
		sessions, err = s.duty.ListAll(ctx)
	} else {
		sessions, err = s.duty.ListByStatus(ctx, model.DutyStatus(status))
	}
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Duty Sessions"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{38, 22, 28, 20, 20, 12, 18, 20, 30, 18, 20, 30}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2D5016"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	title := "Duty Sessions"
	if status != "" {
		title += " (" + status + ")"
	}
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s, exported %s", title, s.clock().In(s.location).Format(exportTimeLayout)))
	f.MergeCell(sheetName, "A1", cell(colName(len(dutyExportHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	for i, h := range dutyExportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(dutyExportHeaders)-1), 2), headerStyle)

	row := 3
	for _, ds := range sessions {
		values := []interface{}{
			ds.ID,
			ds.StaffName,
			ds.StaffEmail,
			s.formatTime(&ds.LoginTime),
			s.formatTime(ds.LogoutTime),
			string(ds.DutyStatus),
			derefString(ds.ApprovedBy),
			s.formatTime(ds.ApprovedTime),
			ds.Notes,
			derefString(ds.EndedBy),
			s.formatTime(ds.EndedTime),
			ds.EndNotes,
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("duty_sessions_%s.xlsx", s.clock().In(s.location).Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// DutyCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) DutyCalendar(ctx context.Context, staffID string) ([]byte, error) {
	sessions, err := s.duty.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//DA AgriManage//Duty Sessions//EN")
	cal.SetXWRCalName("Duty Sessions")

	for _, ds := range sessions {
		end := now
		if ds.LogoutTime != nil {
			end = *ds.LogoutTime
		}

		evt := cal.AddEvent(ds.ID + "@agrimanage")
		evt.SetDtStampTime(now)
		evt.SetStartAt(ds.LoginTime)
		evt.SetEndAt(end)
		evt.SetSummary(fmt.Sprintf("Duty (%s)", ds.DutyStatus))
		evt.SetStatus(calendarStatus(ds.DutyStatus))

		desc := "Staff: " + ds.StaffName
		if ds.ApprovedBy != nil {
			desc += "\nDecided by: " + *ds.ApprovedBy
		}
		if ds.Notes != "" {
			desc += "\nNotes: " + ds.Notes
		}
		if ds.EndNotes != "" {
			desc += "\nEnd notes: " + ds.EndNotes
		}
		evt.SetDescription(desc)
	}

	return []byte(cal.Serialize()), nil
}

func calendarStatus(status model.DutyStatus) ics.ObjectStatus {
	switch status {
	case model.DutyPending:
		return ics.ObjectStatusTentative
	case model.DutyRejected:
		return ics.ObjectStatusCancelled
	default:
		return ics.ObjectStatusConfirmed
	}
}

// ── Helpers ──

func (s *exportService) formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(s.location).Format(exportTimeLayout)
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
