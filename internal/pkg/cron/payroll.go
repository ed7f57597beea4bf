package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

// PayrollJobs contains payroll-related cron jobs
type PayrollJobs struct {
	payrollService payroll.PayrollService
}

// NewPayrollJobs creates payroll cron jobs
func NewPayrollJobs(payrollService payroll.PayrollService) *PayrollJobs {
	return &PayrollJobs{payrollService: payrollService}
}

// RegisterJobs registers the daily auto-generation check
func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, spec string, timeout time.Duration) error {
	return scheduler.AddJob(Job{
		Name:    "auto_generate_payroll",
		Spec:    spec,
		Timeout: timeout,
		Fn:      j.AutoGenerate,
	})
}

// AutoGenerate asks the active schedule whether today is a generation day and, if so,
// generates the period for every active employee.
func (j *PayrollJobs) AutoGenerate(ctx context.Context) error {
	decision, err := j.payrollService.ShouldGenerateToday(ctx)
	if err != nil {
		return fmt.Errorf("failed to check payroll schedule: %w", err)
	}
	if !decision.ShouldGenerate || decision.Period == nil {
		slog.Info("Cron: Payroll generation not due", "reason", decision.Reason)
		return nil
	}

	slog.Info("Cron: Generating payroll",
		"reason", decision.Reason,
		"period_start", decision.Period.Start,
		"period_end", decision.Period.End)

	resp, err := j.payrollService.Generate(ctx, payroll.GenerateRequest{
		Scope:       payroll.ScopeAll,
		PeriodStart: decision.Period.Start,
		PeriodEnd:   decision.Period.End,
	})
	if err != nil {
		return fmt.Errorf("failed to generate payroll: %w", err)
	}

	slog.Info("Cron: Payroll generated",
		"results", len(resp.Results),
		"skipped", len(resp.Skipped),
		"errors", len(resp.Errors))
	return nil
}
