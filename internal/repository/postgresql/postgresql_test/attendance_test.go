package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/fixtures"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manila = time.FixedZone("PHT", 8*3600)

func TestAttendanceRepository_Punches(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)

	in := time.Date(2025, 6, 2, 7, 55, 0, 0, manila)
	out := time.Date(2025, 6, 2, 12, 1, 0, 0, manila)
	created, err := repo.CreatePunches(ctx, []attendance.Punch{
		{UserID: "user-1", Timestamp: out, Type: attendance.PunchTypeOut},
		{UserID: "user-1", Timestamp: in, Type: attendance.PunchTypeIn, Source: attendance.PunchSourceImport},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEmpty(t, created[0].ID)
	assert.Equal(t, attendance.PunchSourceManual, created[0].Source)
	assert.False(t, created[0].CreatedAt.IsZero())

	from := time.Date(2025, 6, 2, 0, 0, 0, 0, manila)
	listed, err := repo.ListPunches(ctx, "user-1", from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, listed[0].Timestamp.Equal(in), "punches are ordered by timestamp")
	assert.Equal(t, attendance.PunchSourceImport, listed[0].Source)

	// upper bound is exclusive
	listed, err = repo.ListPunches(ctx, "user-1", from, out)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestAttendanceRepository_UpsertRecord_KeepsStatus(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)

	date := time.Date(2025, 6, 2, 0, 0, 0, 0, manila)
	morningIn := time.Date(2025, 6, 2, 8, 10, 0, 0, manila)
	record := attendance.Record{
		UserID:        "user-1",
		Date:          date,
		MorningTimeIn: &morningIn,
		HoursWorked:   3.83,
		LateMinutes:   10,
		IsLate:        true,
		IsWorkingDay:  true,
		TotalSessions: 1,
		Status:        attendance.StatusPending,
	}

	first, err := repo.UpsertRecord(ctx, record)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, attendance.StatusPending, first.Status)

	_, err = db.Exec(ctx, `UPDATE attendance_records SET status = 'APPROVED' WHERE id = $1`, first.ID)
	require.NoError(t, err)

	record.LateMinutes = 0
	record.IsLate = false
	record.Status = attendance.StatusPending
	second, err := repo.UpsertRecord(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, attendance.StatusApproved, second.Status)

	records, err := repo.ListRecords(ctx, "user-1", date, date)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].LateMinutes)
	assert.InDelta(t, 3.83, records[0].HoursWorked, 0.001)
	require.NotNil(t, records[0].MorningTimeIn)
	assert.True(t, records[0].MorningTimeIn.Equal(morningIn))
	assert.Nil(t, records[0].AfternoonTimeOut)
}

func TestCalendarRepository_Overrides(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewCalendarRepository(db)

	_, err := repo.GetOverride(ctx, 2025, 6)
	assert.ErrorIs(t, err, calendar.ErrOverrideNotFound)

	_, err = repo.UpsertOverride(ctx, calendar.Override{Year: 2025, Month: 6, NoWorkDays: []int{9}})
	require.NoError(t, err)
	_, err = repo.UpsertOverride(ctx, calendar.Override{Year: 2025, Month: 6, NoWorkDays: []int{9, 10}, WorkingWeekendDays: []int{14}})
	require.NoError(t, err)

	got, err := repo.GetOverride(ctx, 2025, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10}, got.NoWorkDays)
	assert.Equal(t, []int{14}, got.WorkingWeekendDays)

	_, err = db.Exec(ctx, `
		INSERT INTO holidays (name, type, date, is_recurring, month, day) VALUES
			('Independence Day', 'REGULAR', NULL, TRUE, 6, 12),
			('Ninoy Aquino Day', 'SPECIAL', '2025-08-21', FALSE, NULL, NULL)
	`)
	require.NoError(t, err)

	holidays, err := repo.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	for _, h := range holidays {
		if h.IsRecurring {
			assert.True(t, h.Matches(2030, time.June, 12))
		} else {
			assert.True(t, h.Matches(2025, time.August, 21))
		}
	}
}

func TestEmployeeRepository_Lookups(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(db)

	_, err := db.Exec(ctx, `
		WITH g AS (
			INSERT INTO salary_grades (name, monthly_salary) VALUES ('SG-11', 26100) RETURNING id
		)
		INSERT INTO employees (user_id, full_name, employee_type, grade_id, employment_status)
		SELECT 'user-1', 'Maria Santos', 'teaching', g.id, 'active' FROM g
		UNION ALL SELECT 'user-2', 'Jose Reyes', 'non_teaching', NULL, 'active'
		UNION ALL SELECT 'user-3', 'Ana Cruz', 'non_teaching', NULL, 'resigned'
	`)
	require.NoError(t, err)

	maria, err := repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, maria.MonthlySalary)
	assert.True(t, decimal.NewFromInt(26100).Equal(*maria.MonthlySalary))
	require.NotNil(t, maria.GradeName)
	assert.Equal(t, "SG-11", *maria.GradeName)

	jose, err := repo.GetByUserID(ctx, "user-2")
	require.NoError(t, err)
	assert.Nil(t, jose.GradeID)
	assert.Nil(t, jose.MonthlySalary)

	_, err = repo.GetByUserID(ctx, "user-9")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	selected, err := repo.ListByUserIDs(ctx, []string{"user-3", "user-9"})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, employee.EmploymentStatusResigned, selected[0].EmploymentStatus)
}

func TestStatutoryRepository_SeedDefaults(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewStatutoryRepository(db)

	seeded, err := repo.SeedDefaults(ctx, fixtures.GetDefaultContributionSchemes(), fixtures.GetDefaultTaxBrackets())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = repo.SeedDefaults(ctx, fixtures.GetDefaultContributionSchemes(), fixtures.GetDefaultTaxBrackets())
	require.NoError(t, err)
	assert.False(t, seeded, "second seed must be a no-op")

	schemes, err := repo.ListActiveSchemes(ctx)
	require.NoError(t, err)
	assert.Len(t, schemes, len(fixtures.GetDefaultContributionSchemes()))

	brackets, err := repo.ListTaxBrackets(ctx)
	require.NoError(t, err)
	require.Len(t, brackets, len(fixtures.GetDefaultTaxBrackets()))
	assert.Nil(t, brackets[len(brackets)-1].Max, "top bracket is unbounded")
}
