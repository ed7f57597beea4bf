package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// ========== SCHEDULES ==========

const scheduleColumns = `id, name, cutoff_type, days, cutoff_days, processing_days, payroll_release_day, is_active, created_at, updated_at`

func scanSchedule(row pgx.Row) (payroll.Schedule, error) {
	var s payroll.Schedule
	err := row.Scan(&s.ID, &s.Name, &s.CutoffType, &s.Days, &s.CutoffDays, &s.ProcessingDays, &s.PayrollReleaseDay, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *payrollRepository) CreateSchedule(ctx context.Context, schedule payroll.Schedule) (payroll.Schedule, error) {
	q := GetQuerier(ctx, r.db)

	// new schedules start inactive, SetActiveSchedule is the only way in
	query := `
		INSERT INTO payroll_schedules (id, name, cutoff_type, days, cutoff_days, processing_days, payroll_release_day, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING ` + scheduleColumns

	created, err := scanSchedule(q.QueryRow(ctx, query,
		newID(), schedule.Name, schedule.CutoffType,
		nonNilInts(schedule.Days), nonNilInts(schedule.CutoffDays), nonNilInts(schedule.ProcessingDays), schedule.PayrollReleaseDay,
	))
	if err != nil {
		return payroll.Schedule{}, fmt.Errorf("failed to create payroll schedule: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) GetActiveSchedule(ctx context.Context) (payroll.Schedule, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanSchedule(q.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM payroll_schedules WHERE is_active`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Schedule{}, payroll.ErrNoActiveSchedule
		}
		return payroll.Schedule{}, fmt.Errorf("failed to get active payroll schedule: %w", err)
	}

	return s, nil
}

// SetActiveSchedule deactivates the current schedule and activates id in one transaction.
// The partial unique index on is_active rejects any concurrent second activation.
func (r *payrollRepository) SetActiveSchedule(ctx context.Context, id string) (payroll.Schedule, error) {
	if !validator.IsValidUUID(id) {
		return payroll.Schedule{}, payroll.ErrScheduleNotFound
	}

	var activated payroll.Schedule

	err := WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payroll_schedules WHERE id = $1 FOR UPDATE)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to lock payroll schedule: %w", err)
		}
		if !exists {
			return payroll.ErrScheduleNotFound
		}

		if _, err := tx.Exec(ctx, `UPDATE payroll_schedules SET is_active = FALSE, updated_at = NOW() WHERE is_active AND id <> $1`, id); err != nil {
			return fmt.Errorf("failed to deactivate payroll schedules: %w", err)
		}

		var err error
		activated, err = scanSchedule(tx.QueryRow(ctx, `
			UPDATE payroll_schedules SET is_active = TRUE, updated_at = NOW()
			WHERE id = $1
			RETURNING `+scheduleColumns, id))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_payroll_schedules_single_active" {
				return fmt.Errorf("another schedule was activated concurrently: %w", err)
			}
			return fmt.Errorf("failed to activate payroll schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.Schedule{}, err
	}

	return activated, nil
}

// ========== RULES ==========

const ruleColumns = `
	id, name, type, category, amount, is_percentage, computation_basis, apply_to_all, assigned_user_ids,
	is_active, min_amount, max_amount, created_at, updated_at
`

func scanRule(row pgx.Row) (payroll.Rule, error) {
	var rule payroll.Rule
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Type, &rule.Category, &rule.Amount, &rule.IsPercentage, &rule.ComputationBasis,
		&rule.ApplyToAll, &rule.AssignedUserIDs, &rule.IsActive, &rule.MinAmount, &rule.MaxAmount, &rule.CreatedAt, &rule.UpdatedAt,
	)
	return rule, err
}

func (r *payrollRepository) CreateRule(ctx context.Context, rule payroll.Rule) (payroll.Rule, error) {
	q := GetQuerier(ctx, r.db)

	assigned := rule.AssignedUserIDs
	if assigned == nil {
		assigned = []string{}
	}

	query := `
		INSERT INTO payroll_rules (
			id, name, type, category, amount, is_percentage, computation_basis, apply_to_all, assigned_user_ids,
			is_active, min_amount, max_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + ruleColumns

	created, err := scanRule(q.QueryRow(ctx, query,
		newID(), rule.Name, rule.Type, rule.Category, rule.Amount, rule.IsPercentage, rule.ComputationBasis, rule.ApplyToAll, assigned,
		rule.IsActive, rule.MinAmount, rule.MaxAmount,
	))
	if err != nil {
		return payroll.Rule{}, fmt.Errorf("failed to create payroll rule: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) ListRules(ctx context.Context, activeOnly bool) ([]payroll.Rule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + ruleColumns + ` FROM payroll_rules WHERE ($1 = FALSE OR is_active) ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll rules: %w", err)
	}
	defer rows.Close()

	var rules []payroll.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll rules: %w", err)
	}

	return rules, nil
}

func (r *payrollRepository) UpdateRuleCategory(ctx context.Context, id string, category payroll.RuleCategory) error {
	if !validator.IsValidUUID(id) {
		return payroll.ErrRuleNotFound
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE payroll_rules SET category = $1, updated_at = NOW() WHERE id = $2`, category, id)
	if err != nil {
		return fmt.Errorf("failed to update payroll rule category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRuleNotFound
	}

	return nil
}

// ========== SETTINGS ==========

func (r *payrollRepository) GetSettings(ctx context.Context) (payroll.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT late_deduction_enabled, undertime_deduction_enabled, overtime_enabled,
			overtime_multiplier, regular_holiday_multiplier, special_holiday_multiplier,
			exemption_caps, updated_at
		FROM payroll_settings
		WHERE id = 1
	`

	var (
		s    payroll.Settings
		caps []byte
	)
	err := q.QueryRow(ctx, query).Scan(
		&s.LateDeductionEnabled, &s.UndertimeDeductionEnabled, &s.OvertimeEnabled,
		&s.OvertimeMultiplier, &s.RegularHolidayMultiplier, &s.SpecialHolidayMultiplier,
		&caps, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Settings{}, payroll.ErrSettingsNotFound
		}
		return payroll.Settings{}, fmt.Errorf("failed to get payroll settings: %w", err)
	}

	s.ExemptionCaps = map[payroll.RuleCategory]decimal.Decimal{}
	if err := json.Unmarshal(caps, &s.ExemptionCaps); err != nil {
		return payroll.Settings{}, fmt.Errorf("failed to decode exemption caps: %w", err)
	}

	return s, nil
}

// ========== RESULTS ==========

const resultColumns = `
	id, user_id, pay_period_start, pay_period_end,
	daily_rate, hourly_rate, days_worked, hours_worked, overtime_hours, late_hours, undertime_hours, holiday_hours,
	basic_pay, overtime_pay, holiday_pay, earnings, gross_pay, tardiness_deduction,
	contributions, contribution_total, taxable_income, withholding_tax, rule_deductions, total_deductions, net_pay,
	applied_rules, status, is_approved, is_paid, created_at, updated_at
`

func scanResult(row pgx.Row) (payroll.Result, error) {
	var (
		res                 payroll.Result
		contributions, rule []byte
	)
	err := row.Scan(
		&res.ID, &res.UserID, &res.PayPeriodStart, &res.PayPeriodEnd,
		&res.DailyRate, &res.HourlyRate, &res.DaysWorked, &res.HoursWorked, &res.OvertimeHours, &res.LateHours, &res.UndertimeHours, &res.HolidayHours,
		&res.BasicPay, &res.OvertimePay, &res.HolidayPay, &res.Earnings, &res.GrossPay, &res.TardinessDeduction,
		&contributions, &res.ContributionTotal, &res.TaxableIncome, &res.WithholdingTax, &res.RuleDeductions, &res.TotalDeductions, &res.NetPay,
		&rule, &res.Status, &res.IsApproved, &res.IsPaid, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return payroll.Result{}, err
	}

	if err := json.Unmarshal(contributions, &res.Contributions); err != nil {
		return payroll.Result{}, fmt.Errorf("failed to decode contributions: %w", err)
	}
	if err := json.Unmarshal(rule, &res.AppliedRules); err != nil {
		return payroll.Result{}, fmt.Errorf("failed to decode applied rules: %w", err)
	}
	return res, nil
}

func (r *payrollRepository) ResultExists(ctx context.Context, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payroll_results WHERE pay_period_start = $1 AND pay_period_end = $2)`, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payroll results: %w", err)
	}

	return exists, nil
}

func (r *payrollRepository) GetResult(ctx context.Context, userID string, start, end time.Time) (payroll.Result, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + resultColumns + ` FROM payroll_results WHERE user_id = $1 AND pay_period_start = $2 AND pay_period_end = $3`

	res, err := scanResult(q.QueryRow(ctx, query, userID, start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Result{}, payroll.ErrResultNotFound
		}
		return payroll.Result{}, fmt.Errorf("failed to get payroll result: %w", err)
	}

	return res, nil
}

// UpsertResult writes the figures in a single statement keyed on (user_id, pay_period_start,
// pay_period_end), so concurrent writers of one key serialize on the row.
func (r *payrollRepository) UpsertResult(ctx context.Context, result payroll.Result, resetStatus bool) (payroll.Result, error) {
	q := GetQuerier(ctx, r.db)

	contributions, err := json.Marshal(result.Contributions)
	if err != nil {
		return payroll.Result{}, fmt.Errorf("failed to encode contributions: %w", err)
	}
	applied, err := json.Marshal(result.AppliedRules)
	if err != nil {
		return payroll.Result{}, fmt.Errorf("failed to encode applied rules: %w", err)
	}
	if result.Contributions == nil {
		contributions = []byte("[]")
	}
	if result.AppliedRules == nil {
		applied = []byte("[]")
	}

	query := `
		INSERT INTO payroll_results (
			id, user_id, pay_period_start, pay_period_end,
			daily_rate, hourly_rate, days_worked, hours_worked, overtime_hours, late_hours, undertime_hours, holiday_hours,
			basic_pay, overtime_pay, holiday_pay, earnings, gross_pay, tardiness_deduction,
			contributions, contribution_total, taxable_income, withholding_tax, rule_deductions, total_deductions, net_pay,
			applied_rules, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, 'draft'
		)
		ON CONFLICT (user_id, pay_period_start, pay_period_end) DO UPDATE SET
			daily_rate = EXCLUDED.daily_rate,
			hourly_rate = EXCLUDED.hourly_rate,
			days_worked = EXCLUDED.days_worked,
			hours_worked = EXCLUDED.hours_worked,
			overtime_hours = EXCLUDED.overtime_hours,
			late_hours = EXCLUDED.late_hours,
			undertime_hours = EXCLUDED.undertime_hours,
			holiday_hours = EXCLUDED.holiday_hours,
			basic_pay = EXCLUDED.basic_pay,
			overtime_pay = EXCLUDED.overtime_pay,
			holiday_pay = EXCLUDED.holiday_pay,
			earnings = EXCLUDED.earnings,
			gross_pay = EXCLUDED.gross_pay,
			tardiness_deduction = EXCLUDED.tardiness_deduction,
			contributions = EXCLUDED.contributions,
			contribution_total = EXCLUDED.contribution_total,
			taxable_income = EXCLUDED.taxable_income,
			withholding_tax = EXCLUDED.withholding_tax,
			rule_deductions = EXCLUDED.rule_deductions,
			total_deductions = EXCLUDED.total_deductions,
			net_pay = EXCLUDED.net_pay,
			applied_rules = EXCLUDED.applied_rules,
			status = CASE WHEN $27 THEN 'draft' ELSE payroll_results.status END,
			is_approved = CASE WHEN $27 THEN FALSE ELSE payroll_results.is_approved END,
			updated_at = NOW()
		WHERE payroll_results.is_paid = FALSE
		RETURNING ` + resultColumns

	saved, err := scanResult(q.QueryRow(ctx, query,
		newID(), result.UserID, result.PayPeriodStart, result.PayPeriodEnd,
		result.DailyRate, result.HourlyRate, result.DaysWorked, result.HoursWorked, result.OvertimeHours,
		result.LateHours, result.UndertimeHours, result.HolidayHours,
		result.BasicPay, result.OvertimePay, result.HolidayPay, result.Earnings, result.GrossPay, result.TardinessDeduction,
		contributions, result.ContributionTotal, result.TaxableIncome, result.WithholdingTax,
		result.RuleDeductions, result.TotalDeductions, result.NetPay,
		applied, resetStatus,
	))
	if err != nil {
		// the WHERE clause suppresses the update of a paid row, leaving nothing to return
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Result{}, payroll.ErrResultLocked
		}
		return payroll.Result{}, fmt.Errorf("failed to upsert payroll result: %w", err)
	}

	return saved, nil
}

func (r *payrollRepository) ListResults(ctx context.Context, start, end time.Time) ([]payroll.Result, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + resultColumns + ` FROM payroll_results WHERE pay_period_start = $1 AND pay_period_end = $2 ORDER BY user_id`

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll results: %w", err)
	}
	defer rows.Close()

	var results []payroll.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll results: %w", err)
	}

	return results, nil
}
