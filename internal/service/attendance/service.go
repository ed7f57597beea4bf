package attendance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/punchimport"
	calendarResolver "github.com/cmlabs-hris/payroll-engine/internal/service/calendar"
)

type AttendanceServiceImpl struct {
	attendanceRepo  attendance.AttendanceRepository
	employeeRepo    employee.EmployeeRepository
	calendarService calendar.CalendarService
	classifier      schedule.ScheduleClassifier
	policy          Policy
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	calendarService calendar.CalendarService,
	classifier schedule.ScheduleClassifier,
	policy Policy,
) attendance.AttendanceService {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &AttendanceServiceImpl{
		attendanceRepo:  attendanceRepo,
		employeeRepo:    employeeRepo,
		calendarService: calendarService,
		classifier:      classifier,
		policy:          policy,
	}
}

// RecordPunches implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordPunches(ctx context.Context, req attendance.RecordPunchesRequest) (attendance.RecordPunchesResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordPunchesResponse{}, err
	}

	emp, err := s.employeeRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return attendance.RecordPunchesResponse{}, err
	}

	incoming := req.ToPunches()
	earliest, latest := incoming[0].Timestamp, incoming[0].Timestamp
	for _, p := range incoming[1:] {
		if p.Timestamp.Before(earliest) {
			earliest = p.Timestamp
		}
		if p.Timestamp.After(latest) {
			latest = p.Timestamp
		}
	}

	window := s.policy.DuplicateWindow
	existing, err := s.attendanceRepo.ListPunches(ctx, req.UserID, earliest.Add(-window), latest.Add(window+time.Second))
	if err != nil {
		return attendance.RecordPunchesResponse{}, fmt.Errorf("failed to list existing punches: %w", err)
	}

	accepted, duplicates := FilterDuplicates(existing, incoming, window)
	resp := attendance.RecordPunchesResponse{
		Accepted:   len(accepted),
		Duplicates: duplicates,
		Records:    []attendance.RecordResponse{},
	}
	if len(accepted) == 0 {
		return resp, nil
	}

	if _, err := s.attendanceRepo.CreatePunches(ctx, accepted); err != nil {
		return attendance.RecordPunchesResponse{}, fmt.Errorf("failed to create punches: %w", err)
	}

	touched := make(map[string]time.Time)
	for _, p := range accepted {
		day := s.localDate(p.Timestamp)
		touched[day.Format("2006-01-02")] = day
	}

	for _, day := range sortedDays(touched) {
		records, err := s.recomputeRange(ctx, emp, day, day)
		if err != nil {
			return attendance.RecordPunchesResponse{}, err
		}
		for _, r := range records {
			resp.Records = append(resp.Records, r.ToResponse())
		}
	}

	slog.Info("Punches recorded",
		"user_id", req.UserID,
		"accepted", resp.Accepted,
		"duplicates", resp.Duplicates)

	return resp, nil
}

// ImportPunches implements attendance.AttendanceService. A user whose punches fail is
// reported and the remaining users are still recorded.
func (s *AttendanceServiceImpl) ImportPunches(ctx context.Context, filename string, file io.Reader) (attendance.ImportPunchesResponse, error) {
	rows, err := punchimport.ReadRows(file, filename)
	if err != nil {
		return attendance.ImportPunchesResponse{}, fmt.Errorf("%w: %v", attendance.ErrInvalidImportFile, err)
	}

	sheet, err := punchimport.Parse(rows, s.policy.Location)
	if err != nil {
		return attendance.ImportPunchesResponse{}, fmt.Errorf("%w: %v", attendance.ErrInvalidImportFile, err)
	}

	resp := attendance.ImportPunchesResponse{
		Rows:       sheet.Rows,
		Users:      len(sheet.Batches),
		RowErrors:  make([]attendance.ImportRowError, 0, len(sheet.Errors)),
		UserErrors: []attendance.ImportUserError{},
	}
	for _, e := range sheet.Errors {
		resp.RowErrors = append(resp.RowErrors, attendance.ImportRowError{Line: e.Line, Message: e.Message})
	}

	for _, batch := range sheet.Batches {
		if err := ctx.Err(); err != nil {
			return resp, err
		}

		recorded, err := s.RecordPunches(ctx, batch)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return resp, err
			}
			slog.Warn("Punch import failed for user", "user_id", batch.UserID, "error", err)
			resp.UserErrors = append(resp.UserErrors, attendance.ImportUserError{UserID: batch.UserID, Error: err.Error()})
			continue
		}
		resp.Accepted += recorded.Accepted
		resp.Duplicates += recorded.Duplicates
	}

	slog.Info("Punch file imported",
		"filename", filename,
		"rows", resp.Rows,
		"users", resp.Users,
		"accepted", resp.Accepted,
		"duplicates", resp.Duplicates,
		"row_errors", len(resp.RowErrors),
		"user_errors", len(resp.UserErrors))

	return resp, nil
}

// Recompute implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Recompute(ctx context.Context, req attendance.RecomputeRequest) (attendance.RecomputeResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecomputeResponse{}, err
	}

	emp, err := s.employeeRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return attendance.RecomputeResponse{}, err
	}

	records, err := s.recomputeRange(ctx, emp, s.calendarDate(req.From), s.calendarDate(req.To))
	if err != nil {
		return attendance.RecomputeResponse{}, err
	}

	resp := attendance.RecomputeResponse{UserID: req.UserID, Records: make([]attendance.RecordResponse, 0, len(records))}
	for _, r := range records {
		resp.Records = append(resp.Records, r.ToResponse())
	}
	return resp, nil
}

// RecomputeRange implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecomputeRange(ctx context.Context, emp employee.Employee, from, to time.Time) ([]attendance.Record, error) {
	return s.recomputeRange(ctx, emp, s.calendarDate(from), s.calendarDate(to))
}

func (s *AttendanceServiceImpl) recomputeRange(ctx context.Context, emp employee.Employee, from, to time.Time) ([]attendance.Record, error) {
	punches, err := s.attendanceRepo.ListPunches(ctx, emp.UserID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list punches: %w", err)
	}

	byDay := make(map[string][]attendance.Punch)
	for _, p := range punches {
		key := p.Timestamp.In(s.policy.Location).Format("2006-01-02")
		byDay[key] = append(byDay[key], p)
	}

	sched := s.classifier.ScheduleFor(emp.EmployeeType)
	snapshots := make(map[string]calendar.MonthSnapshot)

	var records []attendance.Record
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snapshot, err := s.snapshotFor(ctx, snapshots, day)
		if err != nil {
			return nil, err
		}

		facts := DayFacts{
			Date:         day,
			IsWorkingDay: calendarResolver.IsWorkingDay(day, snapshot.Holidays, snapshot.Override),
		}
		if h := snapshot.HolidayOn(day); h != nil {
			holidayType := h.Type
			facts.HolidayType = &holidayType
		}

		dayPunches := byDay[day.Format("2006-01-02")]
		if len(dayPunches) == 0 && !facts.IsWorkingDay {
			continue
		}

		record := Reduce(dayPunches, sched, s.policy, facts)
		record.UserID = emp.UserID

		saved, err := s.attendanceRepo.UpsertRecord(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert attendance record for %s: %w", day.Format("2006-01-02"), err)
		}
		records = append(records, saved)
	}

	return records, nil
}

func (s *AttendanceServiceImpl) snapshotFor(ctx context.Context, cache map[string]calendar.MonthSnapshot, day time.Time) (calendar.MonthSnapshot, error) {
	key := calendar.OverrideKey(day.Year(), int(day.Month()))
	if snapshot, ok := cache[key]; ok {
		return snapshot, nil
	}
	snapshot, err := s.calendarService.Snapshot(ctx, day.Year(), int(day.Month()))
	if err != nil {
		return calendar.MonthSnapshot{}, fmt.Errorf("failed to load calendar: %w", err)
	}
	cache[key] = snapshot
	return snapshot, nil
}

// localDate is midnight of the civil date t falls on in the policy location
func (s *AttendanceServiceImpl) localDate(t time.Time) time.Time {
	return s.calendarDate(t.In(s.policy.Location))
}

// calendarDate keeps the year, month and day of t and moves it to the policy location
func (s *AttendanceServiceImpl) calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.policy.Location)
}

func sortedDays(days map[string]time.Time) []time.Time {
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
