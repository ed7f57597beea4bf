package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/statutory"
	"github.com/cmlabs-hris/payroll-engine/internal/fixtures"
	"golang.org/x/sync/errgroup"
)

// Options tune batch generation
type Options struct {
	Workers     int
	UserTimeout time.Duration
	Location    *time.Location
	Now         func() time.Time
}

type PayrollServiceImpl struct {
	payrollRepo       payroll.PayrollRepository
	employeeRepo      employee.EmployeeRepository
	statutoryRepo     statutory.StatutoryRepository
	attendanceService attendance.AttendanceService
	calendarService   calendar.CalendarService
	classifier        schedule.ScheduleClassifier
	opts              Options
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	statutoryRepo statutory.StatutoryRepository,
	attendanceService attendance.AttendanceService,
	calendarService calendar.CalendarService,
	classifier schedule.ScheduleClassifier,
	opts Options,
) payroll.PayrollService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.UserTimeout <= 0 {
		opts.UserTimeout = 30 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PayrollServiceImpl{
		payrollRepo:       payrollRepo,
		employeeRepo:      employeeRepo,
		statutoryRepo:     statutoryRepo,
		attendanceService: attendanceService,
		calendarService:   calendarService,
		classifier:        classifier,
		opts:              opts,
	}
}

// shared is the read-only configuration every user of one run is computed against
type shared struct {
	period            payroll.Period
	rules             []payroll.Rule
	settings          payroll.Settings
	schemes           []statutory.ContributionScheme
	brackets          []statutory.TaxBracket
	annualWorkingDays int
	resetStatus       bool
}

// ========== GENERATION ==========

// Generate implements payroll.PayrollService.
func (s *PayrollServiceImpl) Generate(ctx context.Context, req payroll.GenerateRequest) (payroll.GenerateResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.GenerateResponse{}, err
	}
	if req.Scope == payroll.ScopeCurrentMonth {
		req.Period = CurrentMonth(s.today())
	}

	employees, skipped, err := s.eligibleEmployees(ctx, req)
	if err != nil {
		return payroll.GenerateResponse{}, err
	}

	cfg, err := s.loadShared(ctx, req.Period)
	if err != nil {
		return payroll.GenerateResponse{}, err
	}
	cfg.resetStatus = req.ResetStatus

	resp := payroll.GenerateResponse{
		PeriodStart: req.Period.Start.Format("2006-01-02"),
		PeriodEnd:   req.Period.End.Format("2006-01-02"),
		Results:     []payroll.ResultResponse{},
		Skipped:     skipped,
		Errors:      []payroll.GenerateError{},
	}

	if req.Scope == payroll.ScopeUser {
		result, err := s.generateOne(ctx, employees[0], cfg)
		if errors.Is(err, payroll.ErrResultLocked) {
			resp.Skipped = append(resp.Skipped, payroll.SkippedResult{UserID: employees[0].UserID, Reason: "paid"})
			return resp, nil
		}
		if err != nil {
			return payroll.GenerateResponse{}, err
		}
		resp.Generated = true
		resp.Results = append(resp.Results, result.ToResponse())
		return resp, nil
	}

	batchErr := s.generateBatch(ctx, employees, cfg, &resp)

	sort.Slice(resp.Results, func(i, j int) bool { return resp.Results[i].UserID < resp.Results[j].UserID })
	sort.Slice(resp.Skipped, func(i, j int) bool { return resp.Skipped[i].UserID < resp.Skipped[j].UserID })
	sort.Slice(resp.Errors, func(i, j int) bool { return resp.Errors[i].UserID < resp.Errors[j].UserID })
	resp.Generated = len(resp.Results) > 0

	slog.Info("Payroll generated",
		"period", req.Period.String(),
		"scope", req.Scope,
		"results", len(resp.Results),
		"skipped", len(resp.Skipped),
		"errors", len(resp.Errors))

	if batchErr != nil {
		return resp, fmt.Errorf("payroll generation aborted: %w", batchErr)
	}
	return resp, nil
}

// generateBatch computes every employee on a bounded pool. One user's failure is recorded
// and never stops the others; cancelling ctx stops users that have not started yet.
func (s *PayrollServiceImpl) generateBatch(ctx context.Context, employees []employee.Employee, cfg shared, resp *payroll.GenerateResponse) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, emp := range employees {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			userCtx, cancel := context.WithTimeout(gctx, s.opts.UserTimeout)
			defer cancel()

			result, err := s.generateOne(userCtx, emp, cfg)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				resp.Results = append(resp.Results, result.ToResponse())
			case errors.Is(err, payroll.ErrResultLocked):
				resp.Skipped = append(resp.Skipped, payroll.SkippedResult{UserID: emp.UserID, Reason: "paid"})
			case errors.Is(err, payroll.ErrNoAttendanceData):
				resp.Skipped = append(resp.Skipped, payroll.SkippedResult{UserID: emp.UserID, Reason: "no attendance data"})
			default:
				slog.Error("Failed to generate payroll", "user_id", emp.UserID, "error", err)
				resp.Errors = append(resp.Errors, payroll.GenerateError{UserID: emp.UserID, Error: err.Error()})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *PayrollServiceImpl) generateOne(ctx context.Context, emp employee.Employee, cfg shared) (payroll.Result, error) {
	records, err := s.attendanceService.RecomputeRange(ctx, emp, cfg.period.Start, cfg.period.End)
	if err != nil {
		return payroll.Result{}, fmt.Errorf("failed to recompute attendance: %w", err)
	}
	if !hasAttendance(records) {
		return payroll.Result{}, payroll.ErrNoAttendanceData
	}

	result, err := Compute(Input{
		Employee:          emp,
		Period:            cfg.period,
		Schedule:          s.classifier.ScheduleFor(emp.EmployeeType),
		Records:           records,
		Rules:             cfg.rules,
		Settings:          cfg.settings,
		Schemes:           cfg.schemes,
		Brackets:          cfg.brackets,
		AnnualWorkingDays: cfg.annualWorkingDays,
	})
	if err != nil {
		return payroll.Result{}, err
	}

	return s.payrollRepo.UpsertResult(ctx, result, cfg.resetStatus)
}

// hasAttendance reports whether any counted record shows the user actually clocked in
func hasAttendance(records []attendance.Record) bool {
	for _, r := range records {
		if r.Counts() && (r.TotalSessions > 0 || r.HoursWorked > 0) {
			return true
		}
	}
	return false
}

func (s *PayrollServiceImpl) eligibleEmployees(ctx context.Context, req payroll.GenerateRequest) ([]employee.Employee, []payroll.SkippedResult, error) {
	skipped := []payroll.SkippedResult{}

	if req.Scope == payroll.ScopeUser {
		emp, err := s.employeeRepo.GetByUserID(ctx, req.UserIDs[0])
		if err != nil {
			return nil, nil, err
		}
		if !emp.IsPayable() {
			return nil, nil, employee.ErrEmployeeNotPayable
		}
		return []employee.Employee{emp}, skipped, nil
	}

	var (
		candidates []employee.Employee
		err        error
	)
	if len(req.UserIDs) > 0 {
		candidates, err = s.employeeRepo.ListByUserIDs(ctx, req.UserIDs)
	} else {
		candidates, err = s.employeeRepo.ListActive(ctx)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list employees: %w", err)
	}

	employees := make([]employee.Employee, 0, len(candidates))
	for _, emp := range candidates {
		if !emp.IsPayable() {
			skipped = append(skipped, payroll.SkippedResult{UserID: emp.UserID, Reason: "employee is " + string(emp.EmploymentStatus)})
			continue
		}
		employees = append(employees, emp)
	}
	if len(employees) == 0 {
		return nil, nil, payroll.ErrNoEligibleEmployees
	}
	return employees, skipped, nil
}

func (s *PayrollServiceImpl) loadShared(ctx context.Context, period payroll.Period) (shared, error) {
	cfg := shared{period: period}

	rules, err := s.payrollRepo.ListRules(ctx, true)
	if err != nil {
		return shared{}, fmt.Errorf("failed to list payroll rules: %w", err)
	}
	cfg.rules = rules

	settings, err := s.payrollRepo.GetSettings(ctx)
	if errors.Is(err, payroll.ErrSettingsNotFound) {
		settings = fixtures.GetDefaultPayrollSettings()
	} else if err != nil {
		return shared{}, fmt.Errorf("failed to get payroll settings: %w", err)
	}
	cfg.settings = settings

	if cfg.schemes, err = s.statutoryRepo.ListActiveSchemes(ctx); err != nil {
		return shared{}, fmt.Errorf("failed to list contribution schemes: %w", err)
	}
	if cfg.brackets, err = s.statutoryRepo.ListTaxBrackets(ctx); err != nil {
		return shared{}, fmt.Errorf("failed to list tax brackets: %w", err)
	}

	if cfg.annualWorkingDays, err = s.calendarService.AnnualWorkingDays(ctx, period.Start.Year()); err != nil {
		return shared{}, fmt.Errorf("failed to count annual working days: %w", err)
	}
	return cfg, nil
}

// ShouldGenerateToday implements payroll.PayrollService.
func (s *PayrollServiceImpl) ShouldGenerateToday(ctx context.Context) (payroll.ShouldGenerateResponse, error) {
	active, err := s.payrollRepo.GetActiveSchedule(ctx)
	if errors.Is(err, payroll.ErrNoActiveSchedule) {
		return payroll.ShouldGenerateResponse{Reason: Decide(nil, s.today()).Reason}, nil
	}
	if err != nil {
		return payroll.ShouldGenerateResponse{}, fmt.Errorf("failed to get active payroll schedule: %w", err)
	}

	decision := Decide(&active, s.today())
	resp := payroll.ShouldGenerateResponse{
		ShouldGenerate: decision.ShouldGenerate,
		Reason:         decision.Reason,
		CutoffType:     active.CutoffType,
	}
	if decision.Period != nil {
		resp.Period = decision.Period.ToResponse()
	}
	if !decision.ShouldGenerate {
		return resp, nil
	}

	exists, err := s.payrollRepo.ResultExists(ctx, decision.Period.Start, decision.Period.End)
	if err != nil {
		return payroll.ShouldGenerateResponse{}, fmt.Errorf("failed to check existing payroll: %w", err)
	}
	if exists {
		resp.ShouldGenerate = false
		resp.Reason = "already generated"
	}
	return resp, nil
}

// ListResults implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListResults(ctx context.Context, req payroll.ListResultsRequest) ([]payroll.ResultResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	results, err := s.payrollRepo.ListResults(ctx, req.Period.Start, req.Period.End)
	if err != nil {
		return nil, err
	}

	resp := make([]payroll.ResultResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, r.ToResponse())
	}
	return resp, nil
}

// ========== SCHEDULES ==========

// CreateSchedule implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateSchedule(ctx context.Context, req payroll.CreateScheduleRequest) (payroll.ScheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ScheduleResponse{}, err
	}

	created, err := s.payrollRepo.CreateSchedule(ctx, payroll.Schedule{
		Name:              req.Name,
		CutoffType:        req.CutoffType,
		Days:              req.Days,
		CutoffDays:        req.CutoffDays,
		ProcessingDays:    req.ProcessingDays,
		PayrollReleaseDay: req.PayrollReleaseDay,
	})
	if err != nil {
		return payroll.ScheduleResponse{}, err
	}

	if req.Activate {
		created, err = s.payrollRepo.SetActiveSchedule(ctx, created.ID)
		if err != nil {
			return payroll.ScheduleResponse{}, err
		}
	}

	return created.ToResponse(), nil
}

// SetActiveSchedule implements payroll.PayrollService.
func (s *PayrollServiceImpl) SetActiveSchedule(ctx context.Context, id string) (payroll.ScheduleResponse, error) {
	activated, err := s.payrollRepo.SetActiveSchedule(ctx, id)
	if err != nil {
		return payroll.ScheduleResponse{}, err
	}

	slog.Info("Payroll schedule activated", "schedule_id", activated.ID, "cutoff_type", activated.CutoffType)
	return activated.ToResponse(), nil
}

// GetActiveSchedule implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetActiveSchedule(ctx context.Context) (payroll.ScheduleResponse, error) {
	active, err := s.payrollRepo.GetActiveSchedule(ctx)
	if err != nil {
		return payroll.ScheduleResponse{}, err
	}
	return active.ToResponse(), nil
}

// ========== RULES ==========

// CreateRule implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateRule(ctx context.Context, req payroll.CreateRuleRequest) (payroll.RuleResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RuleResponse{}, err
	}

	rule := payroll.Rule{
		Name:             req.Name,
		Type:             req.Type,
		Category:         req.Category,
		Amount:           req.Amount,
		IsPercentage:     req.IsPercentage,
		ComputationBasis: req.ComputationBasis,
		ApplyToAll:       req.ApplyToAll,
		AssignedUserIDs:  req.AssignedUserIDs,
		IsActive:         true,
		MinAmount:        req.MinAmount,
		MaxAmount:        req.MaxAmount,
	}
	if rule.ApplyToAll {
		rule.AssignedUserIDs = nil
	}

	created, err := s.payrollRepo.CreateRule(ctx, rule)
	if err != nil {
		return payroll.RuleResponse{}, err
	}
	return created.ToResponse(), nil
}

// ListRules implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListRules(ctx context.Context, activeOnly bool) ([]payroll.RuleResponse, error) {
	rules, err := s.payrollRepo.ListRules(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]payroll.RuleResponse, 0, len(rules))
	for _, r := range rules {
		resp = append(resp, r.ToResponse())
	}
	return resp, nil
}

func (s *PayrollServiceImpl) today() time.Time {
	return s.opts.Now().In(s.opts.Location)
}
