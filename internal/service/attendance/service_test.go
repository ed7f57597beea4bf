package attendance

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	scheduleService "github.com/cmlabs-hris/payroll-engine/internal/service/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeAttendanceRepo struct {
	punches []attendance.Punch
	records map[string]attendance.Record
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: map[string]attendance.Record{}}
}

func recordKey(userID string, date time.Time) string {
	return userID + "/" + date.Format("2006-01-02")
}

func (r *fakeAttendanceRepo) CreatePunches(ctx context.Context, punches []attendance.Punch) ([]attendance.Punch, error) {
	r.punches = append(r.punches, punches...)
	return punches, nil
}

func (r *fakeAttendanceRepo) ListPunches(ctx context.Context, userID string, from, to time.Time) ([]attendance.Punch, error) {
	var out []attendance.Punch
	for _, p := range r.punches {
		if p.UserID == userID && !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *fakeAttendanceRepo) UpsertRecord(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	key := recordKey(record.UserID, record.Date)
	if prev, ok := r.records[key]; ok {
		record.Status = prev.Status
	}
	r.records[key] = record
	return record, nil
}

func (r *fakeAttendanceRepo) ListRecords(ctx context.Context, userID string, from, to time.Time) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, rec := range r.records {
		if rec.UserID == userID && !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (r *fakeEmployeeRepo) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	for _, e := range r.employees {
		if e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range userIDs {
		if e, err := r.GetByUserID(ctx, id); err == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return r.employees, nil
}

type fakeCalendarService struct {
	holidays []calendar.Holiday
}

func (s *fakeCalendarService) GetWorkingDays(ctx context.Context, year, month int) (calendar.WorkingDaysResponse, error) {
	return calendar.WorkingDaysResponse{}, nil
}

func (s *fakeCalendarService) SaveOverride(ctx context.Context, req calendar.SaveOverrideRequest) (calendar.OverrideResponse, error) {
	return calendar.OverrideResponse{}, nil
}

func (s *fakeCalendarService) Snapshot(ctx context.Context, year, month int) (calendar.MonthSnapshot, error) {
	return calendar.MonthSnapshot{Year: year, Month: month, Holidays: s.holidays}, nil
}

func (s *fakeCalendarService) AnnualWorkingDays(ctx context.Context, year int) (int, error) {
	return 261, nil
}

func newTestAttendanceService(repo *fakeAttendanceRepo, holidays ...calendar.Holiday) attendance.AttendanceService {
	employees := &fakeEmployeeRepo{employees: []employee.Employee{
		{UserID: "user-1", FullName: "Maria Santos", EmployeeType: schedule.EmployeeTypeTeaching, EmploymentStatus: employee.EmploymentStatusActive},
	}}
	return NewAttendanceService(repo, employees, &fakeCalendarService{holidays: holidays}, scheduleService.NewClassifier(), testPolicy)
}

func TestAttendanceService_RecordPunches(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAttendanceRepo()
	svc := newTestAttendanceService(repo)

	resp, err := svc.RecordPunches(ctx, attendance.RecordPunchesRequest{
		UserID: "user-1",
		Punches: []attendance.PunchInput{
			{Timestamp: "2025-06-02T07:45:00+08:00", Type: attendance.PunchTypeIn},
			{Timestamp: "2025-06-02T07:46:00+08:00", Type: attendance.PunchTypeIn},
			{Timestamp: "2025-06-02T11:30:00+08:00", Type: attendance.PunchTypeOut},
			{Timestamp: "2025-06-02T04:30:00Z", Type: attendance.PunchTypeIn, Source: attendance.PunchSourceImport},
			{Timestamp: "2025-06-02T16:30:00+08:00", Type: attendance.PunchTypeOut},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, resp.Accepted)
	assert.Equal(t, 1, resp.Duplicates)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "2025-06-02", resp.Records[0].Date)
	assert.Equal(t, 15, resp.Records[0].LateMinutes)
	require.NotNil(t, resp.Records[0].AfternoonTimeIn)
	assert.Equal(t, "12:30", *resp.Records[0].AfternoonTimeIn)

	// Replaying the same import is a no-op
	again, err := svc.RecordPunches(ctx, attendance.RecordPunchesRequest{
		UserID:  "user-1",
		Punches: []attendance.PunchInput{{Timestamp: "2025-06-02T07:45:00+08:00", Type: attendance.PunchTypeIn}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Accepted)
	assert.Len(t, repo.punches, 4)
}

func TestAttendanceService_RecordPunches_Validation(t *testing.T) {
	svc := newTestAttendanceService(newFakeAttendanceRepo())

	_, err := svc.RecordPunches(context.Background(), attendance.RecordPunchesRequest{
		UserID:  "user-1",
		Punches: []attendance.PunchInput{{Timestamp: "yesterday", Type: "BREAK"}},
	})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "punches[0].timestamp")
	assert.Contains(t, verrs.ToMap(), "punches[0].type")
}

func TestAttendanceService_RecordPunches_UnknownUser(t *testing.T) {
	svc := newTestAttendanceService(newFakeAttendanceRepo())

	_, err := svc.RecordPunches(context.Background(), attendance.RecordPunchesRequest{
		UserID:  "ghost",
		Punches: []attendance.PunchInput{{Timestamp: "2025-06-02T07:45:00+08:00", Type: attendance.PunchTypeIn}},
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestAttendanceService_Recompute_PreservesStatusAndMarksAbsences(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAttendanceRepo()
	independenceDay := calendar.Holiday{Name: "Independence Day", Type: calendar.HolidayTypeRegular, IsRecurring: true, Month: 6, Day: 12}
	svc := newTestAttendanceService(repo, independenceDay)

	_, err := svc.RecordPunches(ctx, attendance.RecordPunchesRequest{
		UserID: "user-1",
		Punches: []attendance.PunchInput{
			{Timestamp: "2025-06-09T07:30:00+08:00", Type: attendance.PunchTypeIn},
			{Timestamp: "2025-06-09T16:30:00+08:00", Type: attendance.PunchTypeOut},
		},
	})
	require.NoError(t, err)

	key := recordKey("user-1", time.Date(2025, 6, 9, 0, 0, 0, 0, testPolicy.Location))
	approved := repo.records[key]
	approved.Status = attendance.StatusApproved
	repo.records[key] = approved

	// Monday 9 June to Sunday 15 June 2025
	resp, err := svc.Recompute(ctx, attendance.RecomputeRequest{UserID: "user-1", DateFrom: "2025-06-09", DateTo: "2025-06-15"})
	require.NoError(t, err)

	// Five weekdays, one of them a holiday without punches, and no weekend rows
	require.Len(t, resp.Records, 4)
	assert.Equal(t, attendance.StatusApproved, resp.Records[0].Status)
	assert.True(t, resp.Records[0].NeedsReview)
	for _, r := range resp.Records[1:] {
		assert.True(t, r.IsAbsent, r.Date)
		assert.NotEqual(t, "2025-06-12", r.Date)
	}
}

func TestAttendanceService_Recompute_InvalidRange(t *testing.T) {
	svc := newTestAttendanceService(newFakeAttendanceRepo())

	_, err := svc.Recompute(context.Background(), attendance.RecomputeRequest{UserID: "user-1", DateFrom: "2025-06-15", DateTo: "2025-06-09"})

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func punchWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, ref, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestAttendanceService_ImportPunches(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc := newTestAttendanceService(repo)

	file := punchWorkbook(t, [][]interface{}{
		{"User ID", "Timestamp", "Type"},
		{"user-1", "2025-06-02 07:45", "IN"},
		{"user-1", "2025-06-02 11:30", "OUT"},
		{"ghost", "2025-06-02 08:00", "IN"},
		{"user-1", "2025-06-02 12:30", "IN"},
		{"user-1", "2025-06-02 16:30", "OUT"},
		{"user-1", "not a time", "OUT"},
	})

	resp, err := svc.ImportPunches(context.Background(), "june.xlsx", file)
	require.NoError(t, err)

	assert.Equal(t, 6, resp.Rows)
	assert.Equal(t, 2, resp.Users)
	assert.Equal(t, 4, resp.Accepted)
	require.Len(t, resp.RowErrors, 1)
	assert.Equal(t, 7, resp.RowErrors[0].Line)
	require.Len(t, resp.UserErrors, 1)
	assert.Equal(t, "ghost", resp.UserErrors[0].UserID)

	assert.Len(t, repo.punches, 4)
	for _, p := range repo.punches {
		assert.Equal(t, attendance.PunchSourceImport, p.Source)
	}
	rec, ok := repo.records[recordKey("user-1", time.Date(2025, 6, 2, 0, 0, 0, 0, testPolicy.Location))]
	require.True(t, ok)
	assert.Equal(t, 15, rec.LateMinutes)
}

func TestAttendanceService_ImportPunches_BadFile(t *testing.T) {
	svc := newTestAttendanceService(newFakeAttendanceRepo())

	_, err := svc.ImportPunches(context.Background(), "punches.xlsx", bytes.NewBufferString("not a workbook"))
	assert.ErrorIs(t, err, attendance.ErrInvalidImportFile)

	file := punchWorkbook(t, [][]interface{}{{"name", "when"}})
	_, err = svc.ImportPunches(context.Background(), "punches.xlsx", file)
	assert.ErrorIs(t, err, attendance.ErrInvalidImportFile)
}
