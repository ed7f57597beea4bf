package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type calendarRepository struct {
	db *database.DB
}

func NewCalendarRepository(db *database.DB) calendar.CalendarRepository {
	return &calendarRepository{db: db}
}

// overrideBlob is the JSON stored under the "<year>_<month>" key
type overrideBlob struct {
	NoWorkDays         []int `json:"noWorkDays"`
	WorkingWeekendDays []int `json:"workingWeekendDays"`
}

// ========== HOLIDAYS ==========

func (r *calendarRepository) ListHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, type, date, is_recurring, COALESCE(month, 0), COALESCE(day, 0), created_at, updated_at
		FROM holidays
		ORDER BY is_recurring DESC, date NULLS FIRST, month, day
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		if err := rows.Scan(&h.ID, &h.Name, &h.Type, &h.Date, &h.IsRecurring, &h.Month, &h.Day, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}

	return holidays, nil
}

// ========== OVERRIDES ==========

func (r *calendarRepository) GetOverride(ctx context.Context, year, month int) (calendar.Override, error) {
	q := GetQuerier(ctx, r.db)

	var (
		data []byte
		o    = calendar.Override{Year: year, Month: month}
	)
	err := q.QueryRow(ctx, `SELECT data, updated_at FROM work_calendar_overrides WHERE key = $1`, calendar.OverrideKey(year, month)).
		Scan(&data, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return calendar.Override{}, calendar.ErrOverrideNotFound
		}
		return calendar.Override{}, fmt.Errorf("failed to get calendar override: %w", err)
	}

	var blob overrideBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return calendar.Override{}, fmt.Errorf("failed to decode calendar override %s: %w", o.Key(), err)
	}
	o.NoWorkDays = blob.NoWorkDays
	o.WorkingWeekendDays = blob.WorkingWeekendDays

	return o, nil
}

func (r *calendarRepository) UpsertOverride(ctx context.Context, override calendar.Override) (calendar.Override, error) {
	q := GetQuerier(ctx, r.db)

	blob := overrideBlob{NoWorkDays: override.NoWorkDays, WorkingWeekendDays: override.WorkingWeekendDays}
	if blob.NoWorkDays == nil {
		blob.NoWorkDays = []int{}
	}
	if blob.WorkingWeekendDays == nil {
		blob.WorkingWeekendDays = []int{}
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return calendar.Override{}, fmt.Errorf("failed to encode calendar override: %w", err)
	}

	query := `
		INSERT INTO work_calendar_overrides (key, data)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()
		RETURNING updated_at
	`

	if err := q.QueryRow(ctx, query, override.Key(), data).Scan(&override.UpdatedAt); err != nil {
		return calendar.Override{}, fmt.Errorf("failed to upsert calendar override: %w", err)
	}

	return override, nil
}
