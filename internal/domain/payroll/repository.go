package payroll

import (
	"context"
	"time"
)

type PayrollRepository interface {
	// Schedules
	CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	GetActiveSchedule(ctx context.Context) (Schedule, error)
	// SetActiveSchedule activates id and deactivates every other schedule in one transaction
	SetActiveSchedule(ctx context.Context, id string) (Schedule, error)

	// Rules
	CreateRule(ctx context.Context, rule Rule) (Rule, error)
	ListRules(ctx context.Context, activeOnly bool) ([]Rule, error)
	UpdateRuleCategory(ctx context.Context, id string, category RuleCategory) error

	// Settings
	GetSettings(ctx context.Context) (Settings, error)

	// Results
	ResultExists(ctx context.Context, start, end time.Time) (bool, error)
	GetResult(ctx context.Context, userID string, start, end time.Time) (Result, error)
	// UpsertResult writes on the (user_id, pay_period_start, pay_period_end) key. Approval
	// fields survive unless resetStatus is set; paid rows are left untouched and reported
	// as ErrResultLocked.
	UpsertResult(ctx context.Context, result Result, resetStatus bool) (Result, error)
	ListResults(ctx context.Context, start, end time.Time) ([]Result, error)
}
