package payroll

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/statutory"
	"github.com/cmlabs-hris/payroll-engine/internal/fixtures"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	scheduleService "github.com/cmlabs-hris/payroll-engine/internal/service/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== FAKES ==========

type fakePayrollRepo struct {
	mu        sync.Mutex
	schedules []payroll.Schedule
	rules     []payroll.Rule
	results   map[string]payroll.Result
	nextID    int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{results: map[string]payroll.Result{}}
}

func resultKey(userID string, start, end time.Time) string {
	return fmt.Sprintf("%s/%s/%s", userID, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func (r *fakePayrollRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *fakePayrollRepo) CreateSchedule(ctx context.Context, s payroll.Schedule) (payroll.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.id("schedule")
	s.IsActive = false
	r.schedules = append(r.schedules, s)
	return s, nil
}

func (r *fakePayrollRepo) GetActiveSchedule(ctx context.Context) (payroll.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.IsActive {
			return s, nil
		}
	}
	return payroll.Schedule{}, payroll.ErrNoActiveSchedule
}

func (r *fakePayrollRepo) SetActiveSchedule(ctx context.Context, id string) (payroll.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := -1
	for i := range r.schedules {
		if r.schedules[i].ID == id {
			found = i
		}
	}
	if found < 0 {
		return payroll.Schedule{}, payroll.ErrScheduleNotFound
	}
	for i := range r.schedules {
		r.schedules[i].IsActive = i == found
	}
	return r.schedules[found], nil
}

func (r *fakePayrollRepo) CreateRule(ctx context.Context, rule payroll.Rule) (payroll.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule.ID = r.id("rule")
	r.rules = append(r.rules, rule)
	return rule, nil
}

func (r *fakePayrollRepo) ListRules(ctx context.Context, activeOnly bool) ([]payroll.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.Rule
	for _, rule := range r.rules {
		if !activeOnly || rule.IsActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *fakePayrollRepo) UpdateRuleCategory(ctx context.Context, id string, category payroll.RuleCategory) error {
	return nil
}

func (r *fakePayrollRepo) GetSettings(ctx context.Context) (payroll.Settings, error) {
	return payroll.Settings{}, payroll.ErrSettingsNotFound
}

func (r *fakePayrollRepo) ResultExists(ctx context.Context, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.PayPeriodStart.Equal(start) && res.PayPeriodEnd.Equal(end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePayrollRepo) GetResult(ctx context.Context, userID string, start, end time.Time) (payroll.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[resultKey(userID, start, end)]
	if !ok {
		return payroll.Result{}, payroll.ErrResultNotFound
	}
	return res, nil
}

func (r *fakePayrollRepo) UpsertResult(ctx context.Context, result payroll.Result, resetStatus bool) (payroll.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := resultKey(result.UserID, result.PayPeriodStart, result.PayPeriodEnd)
	if prev, ok := r.results[key]; ok {
		if prev.IsPaid {
			return payroll.Result{}, payroll.ErrResultLocked
		}
		result.ID = prev.ID
		if !resetStatus {
			result.Status, result.IsApproved, result.IsPaid = prev.Status, prev.IsApproved, prev.IsPaid
		}
	} else {
		result.ID = r.id("result")
	}
	r.results[key] = result
	return result, nil
}

func (r *fakePayrollRepo) ListResults(ctx context.Context, start, end time.Time) ([]payroll.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.Result
	for _, res := range r.results {
		if res.PayPeriodStart.Equal(start) && res.PayPeriodEnd.Equal(end) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakePayrollRepo) mark(userID string, period payroll.Period, mutate func(*payroll.Result)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := resultKey(userID, period.Start, period.End)
	res := r.results[key]
	mutate(&res)
	r.results[key] = res
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

type fakeStatutoryRepo struct{}

func (fakeStatutoryRepo) ListActiveSchemes(ctx context.Context) ([]statutory.ContributionScheme, error) {
	return fixtures.GetDefaultContributionSchemes(), nil
}

func (fakeStatutoryRepo) ListTaxBrackets(ctx context.Context) ([]statutory.TaxBracket, error) {
	return fixtures.GetDefaultTaxBrackets(), nil
}

func (fakeStatutoryRepo) SeedDefaults(ctx context.Context, schemes []statutory.ContributionScheme, brackets []statutory.TaxBracket) (bool, error) {
	return false, nil
}

// fakeAttendanceService hands out canned records per user
type fakeAttendanceService struct {
	records map[string][]attendance.Record
}

var _ attendance.AttendanceService = (*fakeAttendanceService)(nil)

func (s *fakeAttendanceService) RecordPunches(ctx context.Context, req attendance.RecordPunchesRequest) (attendance.RecordPunchesResponse, error) {
	return attendance.RecordPunchesResponse{}, nil
}

func (s *fakeAttendanceService) ImportPunches(ctx context.Context, filename string, file io.Reader) (attendance.ImportPunchesResponse, error) {
	return attendance.ImportPunchesResponse{}, nil
}

func (s *fakeAttendanceService) Recompute(ctx context.Context, req attendance.RecomputeRequest) (attendance.RecomputeResponse, error) {
	return attendance.RecomputeResponse{}, nil
}

func (s *fakeAttendanceService) RecomputeRange(ctx context.Context, emp employee.Employee, from, to time.Time) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.records[emp.UserID], nil
}

type fakeCalendarService struct{}

func (fakeCalendarService) GetWorkingDays(ctx context.Context, year, month int) (calendar.WorkingDaysResponse, error) {
	return calendar.WorkingDaysResponse{}, nil
}

func (fakeCalendarService) SaveOverride(ctx context.Context, req calendar.SaveOverrideRequest) (calendar.OverrideResponse, error) {
	return calendar.OverrideResponse{}, nil
}

func (fakeCalendarService) Snapshot(ctx context.Context, year, month int) (calendar.MonthSnapshot, error) {
	return calendar.MonthSnapshot{Year: year, Month: month}, nil
}

func (fakeCalendarService) AnnualWorkingDays(ctx context.Context, year int) (int, error) {
	return 261, nil
}

// ========== SETUP ==========

var june20 = time.Date(2025, 6, 20, 0, 30, 0, 0, time.UTC)

type testEnv struct {
	repo    *fakePayrollRepo
	service payroll.PayrollService
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	noGrade := gradedEmployee("user-2", "20000")
	noGrade.GradeID = nil
	inactive := gradedEmployee("user-3", "20000")
	inactive.EmploymentStatus = employee.EmploymentStatusResigned

	employees := &fakeEmployeeRepo{employees: []employee.Employee{
		gradedEmployee("user-1", "26100"),
		noGrade,
		inactive,
		gradedEmployee("user-4", "30000"),
	}}
	absentOnly := []attendance.Record{
		record(2, func(r *attendance.Record) { r.UserID = "user-4"; r.HoursWorked = 0; r.TotalSessions = 0; r.IsAbsent = true }),
	}
	attendanceService := &fakeAttendanceService{records: map[string][]attendance.Record{
		"user-1": firstHalfJune(),
		"user-2": firstHalfJune(),
		"user-4": absentOnly,
	}}

	repo := newFakePayrollRepo()
	repo.rules = testRules()

	svc := NewPayrollService(repo, employees, fakeStatutoryRepo{}, attendanceService, fakeCalendarService{}, scheduleService.NewClassifier(), Options{
		Workers:     2,
		UserTimeout: time.Second,
		Location:    time.UTC,
		Now:         func() time.Time { return june20 },
	})
	return testEnv{repo: repo, service: svc}
}

func firstHalfRequest() payroll.GenerateRequest {
	return payroll.GenerateRequest{PeriodStart: "2025-06-01", PeriodEnd: "2025-06-15", Scope: payroll.ScopeAll}
}

// ========== TESTS ==========

func TestPayrollService_GenerateAll_CollectsPerUserOutcomes(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.service.Generate(context.Background(), firstHalfRequest())
	require.NoError(t, err)

	assert.True(t, resp.Generated)
	assert.Equal(t, "2025-06-01", resp.PeriodStart)
	assert.Equal(t, "2025-06-15", resp.PeriodEnd)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "user-1", resp.Results[0].UserID)
	assertMoney(t, "10191.75", resp.Results[0].NetPay)

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "user-2", resp.Errors[0].UserID)
	assert.Equal(t, employee.ErrEmployeeHasNoGrade.Error(), resp.Errors[0].Error)

	require.Len(t, resp.Skipped, 2)
	assert.Equal(t, payroll.SkippedResult{UserID: "user-3", Reason: "employee is resigned"}, resp.Skipped[0])
	assert.Equal(t, payroll.SkippedResult{UserID: "user-4", Reason: "no attendance data"}, resp.Skipped[1])
}

func TestPayrollService_Generate_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)
	second, err := env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)

	require.Len(t, first.Results, 1)
	require.Len(t, second.Results, 1)
	assert.Equal(t, first.Results[0].NetPay.String(), second.Results[0].NetPay.String())
	assert.Equal(t, first.Results[0].ID, second.Results[0].ID)
	assert.Len(t, env.repo.results, 1)
}

func TestPayrollService_Generate_PreservesApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := payroll.NewPeriod(day(2025, 6, 1), day(2025, 6, 15))

	_, err := env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)
	env.repo.mark("user-1", period, func(r *payroll.Result) {
		r.Status = payroll.ResultStatusApproved
		r.IsApproved = true
	})

	resp, err := env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, payroll.ResultStatusApproved, resp.Results[0].Status)
	assert.True(t, resp.Results[0].IsApproved)

	req := firstHalfRequest()
	req.ResetStatus = true
	resp, err = env.service.Generate(ctx, req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, payroll.ResultStatusDraft, resp.Results[0].Status)
	assert.False(t, resp.Results[0].IsApproved)
}

func TestPayrollService_Generate_PaidResultIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	period := payroll.NewPeriod(day(2025, 6, 1), day(2025, 6, 15))

	_, err := env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)
	env.repo.mark("user-1", period, func(r *payroll.Result) {
		r.Status = payroll.ResultStatusPaid
		r.IsPaid = true
	})

	resp, err := env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)

	assert.False(t, resp.Generated)
	assert.Empty(t, resp.Results)
	assert.Contains(t, resp.Skipped, payroll.SkippedResult{UserID: "user-1", Reason: "paid"})
}

func TestPayrollService_Generate_SelectedUsers(t *testing.T) {
	env := newTestEnv(t)

	req := firstHalfRequest()
	req.UserIDs = []string{"user-1", "user-3"}
	resp, err := env.service.Generate(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "user-1", resp.Results[0].UserID)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "user-3", resp.Skipped[0].UserID)
	assert.Empty(t, resp.Errors)
}

func TestPayrollService_GenerateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := firstHalfRequest()
	req.Scope = payroll.ScopeUser
	req.UserIDs = []string{"user-1"}
	resp, err := env.service.Generate(ctx, req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Generated)

	req.UserIDs = []string{"user-4"}
	_, err = env.service.Generate(ctx, req)
	assert.ErrorIs(t, err, payroll.ErrNoAttendanceData)

	req.UserIDs = []string{"user-2"}
	_, err = env.service.Generate(ctx, req)
	assert.ErrorIs(t, err, employee.ErrEmployeeHasNoGrade)

	req.UserIDs = []string{"user-3"}
	_, err = env.service.Generate(ctx, req)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotPayable)
}

func TestPayrollService_GenerateCurrentMonth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.service.Generate(context.Background(), payroll.GenerateRequest{Scope: payroll.ScopeCurrentMonth})
	require.NoError(t, err)

	assert.Equal(t, "2025-06-01", resp.PeriodStart)
	assert.Equal(t, "2025-06-30", resp.PeriodEnd)
	assert.True(t, resp.Generated)
}

func TestPayrollService_Generate_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Generate(context.Background(), payroll.GenerateRequest{Scope: payroll.ScopeAll, PeriodStart: "2025-06-15"})

	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Contains(t, validationErrs.ToMap(), "period_end")
	assert.Empty(t, env.repo.results)
}

func TestPayrollService_Generate_CancelledBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := env.service.Generate(ctx, firstHalfRequest())

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, resp.Generated)
	assert.Empty(t, env.repo.results)
}

func TestPayrollService_ShouldGenerateToday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.service.ShouldGenerateToday(ctx)
	require.NoError(t, err)
	assert.False(t, resp.ShouldGenerate)
	assert.Equal(t, "no active payroll schedule", resp.Reason)

	_, err = env.service.CreateSchedule(ctx, payroll.CreateScheduleRequest{
		Name:           "Semi-monthly",
		CutoffType:     payroll.CutoffTypeBiMonthly,
		ProcessingDays: []int{20, 5},
		Activate:       true,
	})
	require.NoError(t, err)

	resp, err = env.service.ShouldGenerateToday(ctx)
	require.NoError(t, err)
	assert.True(t, resp.ShouldGenerate)
	assert.Equal(t, payroll.CutoffTypeBiMonthly, resp.CutoffType)
	require.NotNil(t, resp.Period)
	assert.Equal(t, "2025-06-01", resp.Period.Start)
	assert.Equal(t, "2025-06-15", resp.Period.End)

	_, err = env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)

	resp, err = env.service.ShouldGenerateToday(ctx)
	require.NoError(t, err)
	assert.False(t, resp.ShouldGenerate)
	assert.Equal(t, "already generated", resp.Reason)
}

func TestPayrollService_SetActiveSchedule_KeepsOneActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.service.CreateSchedule(ctx, payroll.CreateScheduleRequest{
		Name: "Monthly", CutoffType: payroll.CutoffTypeMonthly, PayrollReleaseDay: intPtr(5), Activate: true,
	})
	require.NoError(t, err)
	second, err := env.service.CreateSchedule(ctx, payroll.CreateScheduleRequest{
		Name: "Weekly", CutoffType: payroll.CutoffTypeWeekly,
	})
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.False(t, second.IsActive)

	activated, err := env.service.SetActiveSchedule(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	active, err := env.service.GetActiveSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	activeCount := 0
	for _, s := range env.repo.schedules {
		if s.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	_, err = env.service.SetActiveSchedule(ctx, "missing")
	assert.ErrorIs(t, err, payroll.ErrScheduleNotFound)
}

func TestPayrollService_CreateRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateRule(ctx, payroll.CreateRuleRequest{
		Name:            "PhilHealth arrears",
		Type:            payroll.RuleTypeDeduction,
		Category:        payroll.RuleCategoryContribution,
		Amount:          dec("150"),
		AssignedUserIDs: []string{"user-1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Equal(t, payroll.ComputationBasisGross, created.ComputationBasis)

	_, err = env.service.CreateRule(ctx, payroll.CreateRuleRequest{Name: "Broken", Type: payroll.RuleTypeBonus, Amount: dec("5")})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	rules, err := env.service.ListRules(ctx, true)
	require.NoError(t, err)
	assert.Len(t, rules, len(testRules())+1)
}

func TestPayrollService_ContributionRuleReducesTaxable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before, err := env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)

	_, err = env.service.CreateRule(ctx, payroll.CreateRuleRequest{
		Name:            "PhilHealth arrears",
		Type:            payroll.RuleTypeDeduction,
		Category:        payroll.RuleCategoryContribution,
		Amount:          dec("150"),
		AssignedUserIDs: []string{"user-1"},
	})
	require.NoError(t, err)

	after, err := env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)

	require.Len(t, after.Results, 1)
	assert.True(t, after.Results[0].TaxableIncome.Equal(before.Results[0].TaxableIncome.Sub(dec("150"))))
	assert.True(t, after.Results[0].NetPay.Equal(before.Results[0].NetPay.Sub(dec("150"))))
	// the earlier run keeps its own frozen rule snapshot
	assert.Len(t, before.Results[0].AppliedRules, 3)
	assert.Len(t, after.Results[0].AppliedRules, 4)
}

func TestPayrollService_ListResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.Generate(ctx, firstHalfRequest())
	require.NoError(t, err)

	results, err := env.service.ListResults(ctx, payroll.ListResultsRequest{PeriodStart: "2025-06-01", PeriodEnd: "2025-06-15"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "user-1", results[0].UserID)

	_, err = env.service.ListResults(ctx, payroll.ListResultsRequest{PeriodStart: "june"})
	var validationErrs validator.ValidationErrors
	assert.ErrorAs(t, err, &validationErrs)
}
