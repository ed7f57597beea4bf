package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// ========== PUNCHES ==========

func (r *attendanceRepository) CreatePunches(ctx context.Context, punches []attendance.Punch) ([]attendance.Punch, error) {
	if len(punches) == 0 {
		return []attendance.Punch{}, nil
	}
	q := GetQuerier(ctx, r.db)
	punches = append([]attendance.Punch(nil), punches...)

	var (
		ids     = make([]string, len(punches))
		userIDs = make([]string, len(punches))
		times   = make([]time.Time, len(punches))
		types   = make([]string, len(punches))
		sources = make([]string, len(punches))
	)
	for i, p := range punches {
		if p.ID == "" {
			p.ID = newID()
		}
		if p.Source == "" {
			p.Source = attendance.PunchSourceManual
		}
		punches[i] = p
		ids[i], userIDs[i], times[i], types[i], sources[i] = p.ID, p.UserID, p.Timestamp, string(p.Type), string(p.Source)
	}

	query := `
		INSERT INTO punches (id, user_id, punched_at, type, source)
		SELECT * FROM unnest($1::uuid[], $2::text[], $3::timestamptz[], $4::text[], $5::text[])
		RETURNING id, created_at
	`

	rows, err := q.Query(ctx, query, ids, userIDs, times, types, sources)
	if err != nil {
		return nil, fmt.Errorf("failed to create punches: %w", err)
	}
	defer rows.Close()

	createdAt := make(map[string]time.Time, len(punches))
	for rows.Next() {
		var (
			id string
			at time.Time
		)
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		createdAt[id] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to create punches: %w", err)
	}

	for i := range punches {
		punches[i].CreatedAt = createdAt[punches[i].ID]
	}
	return punches, nil
}

func (r *attendanceRepository) ListPunches(ctx context.Context, userID string, from, to time.Time) ([]attendance.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, punched_at, type, source, created_at
		FROM punches
		WHERE user_id = $1 AND punched_at >= $2 AND punched_at < $3
		ORDER BY punched_at, id
	`

	rows, err := q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches: %w", err)
	}
	defer rows.Close()

	var punches []attendance.Punch
	for rows.Next() {
		var p attendance.Punch
		if err := rows.Scan(&p.ID, &p.UserID, &p.Timestamp, &p.Type, &p.Source, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		punches = append(punches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punches: %w", err)
	}

	return punches, nil
}

// ========== RECORDS ==========

const recordColumns = `
	id, user_id, date, morning_time_in, morning_time_out, afternoon_time_in, afternoon_time_out,
	hours_worked, late_minutes, undertime_minutes, overtime_minutes, absent_session_minutes,
	is_late, is_absent, is_half_day, is_early_out, needs_review, is_working_day,
	holiday_type, total_sessions, status, created_at, updated_at
`

func (r *attendanceRepository) UpsertRecord(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	// status is only written on insert; the approval workflow owns it afterwards
	query := `
		INSERT INTO attendance_records (
			user_id, date, morning_time_in, morning_time_out, afternoon_time_in, afternoon_time_out,
			hours_worked, late_minutes, undertime_minutes, overtime_minutes, absent_session_minutes,
			is_late, is_absent, is_half_day, is_early_out, needs_review, is_working_day,
			holiday_type, total_sessions, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (user_id, date) DO UPDATE SET
			morning_time_in = EXCLUDED.morning_time_in,
			morning_time_out = EXCLUDED.morning_time_out,
			afternoon_time_in = EXCLUDED.afternoon_time_in,
			afternoon_time_out = EXCLUDED.afternoon_time_out,
			hours_worked = EXCLUDED.hours_worked,
			late_minutes = EXCLUDED.late_minutes,
			undertime_minutes = EXCLUDED.undertime_minutes,
			overtime_minutes = EXCLUDED.overtime_minutes,
			absent_session_minutes = EXCLUDED.absent_session_minutes,
			is_late = EXCLUDED.is_late,
			is_absent = EXCLUDED.is_absent,
			is_half_day = EXCLUDED.is_half_day,
			is_early_out = EXCLUDED.is_early_out,
			needs_review = EXCLUDED.needs_review,
			is_working_day = EXCLUDED.is_working_day,
			holiday_type = EXCLUDED.holiday_type,
			total_sessions = EXCLUDED.total_sessions,
			updated_at = NOW()
		RETURNING id, status, created_at, updated_at
	`

	status := record.Status
	if status == "" {
		status = attendance.StatusPending
	}

	err := q.QueryRow(ctx, query,
		record.UserID, record.Date, record.MorningTimeIn, record.MorningTimeOut, record.AfternoonTimeIn, record.AfternoonTimeOut,
		record.HoursWorked, record.LateMinutes, record.UndertimeMinutes, record.OvertimeMinutes, record.AbsentSessionMinutes,
		record.IsLate, record.IsAbsent, record.IsHalfDay, record.IsEarlyOut, record.NeedsReview, record.IsWorkingDay,
		record.HolidayType, record.TotalSessions, status,
	).Scan(&record.ID, &record.Status, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to upsert attendance record: %w", err)
	}

	return record, nil
}

func (r *attendanceRepository) ListRecords(ctx context.Context, userID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Date, &rec.MorningTimeIn, &rec.MorningTimeOut, &rec.AfternoonTimeIn, &rec.AfternoonTimeOut,
			&rec.HoursWorked, &rec.LateMinutes, &rec.UndertimeMinutes, &rec.OvertimeMinutes, &rec.AbsentSessionMinutes,
			&rec.IsLate, &rec.IsAbsent, &rec.IsHalfDay, &rec.IsEarlyOut, &rec.NeedsReview, &rec.IsWorkingDay,
			&rec.HolidayType, &rec.TotalSessions, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}

	return records, nil
}
