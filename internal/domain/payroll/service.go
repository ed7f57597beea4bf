package payroll

import "context"

type PayrollService interface {
	// Generation
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	ShouldGenerateToday(ctx context.Context) (ShouldGenerateResponse, error)
	ListResults(ctx context.Context, req ListResultsRequest) ([]ResultResponse, error)

	// Schedules
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (ScheduleResponse, error)
	SetActiveSchedule(ctx context.Context, id string) (ScheduleResponse, error)
	GetActiveSchedule(ctx context.Context) (ScheduleResponse, error)

	// Rules
	CreateRule(ctx context.Context, req CreateRuleRequest) (RuleResponse, error)
	ListRules(ctx context.Context, activeOnly bool) ([]RuleResponse, error)
}
