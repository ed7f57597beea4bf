package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// CreatePunches inserts punches and returns them with generated IDs
	CreatePunches(ctx context.Context, punches []Punch) ([]Punch, error)

	// ListPunches returns punches with from <= timestamp < to, ordered by timestamp
	ListPunches(ctx context.Context, userID string, from, to time.Time) ([]Punch, error)

	// UpsertRecord writes derived facts keyed on (user_id, date). Status is never overwritten.
	UpsertRecord(ctx context.Context, record Record) (Record, error)

	// ListRecords returns records with from <= date <= to, ordered by date
	ListRecords(ctx context.Context, userID string, from, to time.Time) ([]Record, error)
}
