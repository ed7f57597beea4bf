package attendance

import (
	"context"
	"io"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
)

type AttendanceService interface {
	// RecordPunches stores new punches, dropping duplicates, and recomputes the touched days
	RecordPunches(ctx context.Context, req RecordPunchesRequest) (RecordPunchesResponse, error)

	// ImportPunches reads a punch spreadsheet and records each user's punches
	ImportPunches(ctx context.Context, filename string, file io.Reader) (ImportPunchesResponse, error)

	// Recompute rebuilds the records of a user for every day in the range
	Recompute(ctx context.Context, req RecomputeRequest) (RecomputeResponse, error)

	// RecomputeRange rebuilds the records of an employee for every calendar date in [from, to].
	// Non-working days without punches produce no record.
	RecomputeRange(ctx context.Context, emp employee.Employee, from, to time.Time) ([]Record, error)
}
