package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
)

// PunchType enum
type PunchType string

const (
	PunchTypeIn  PunchType = "IN"
	PunchTypeOut PunchType = "OUT"
)

// PunchSource enum
type PunchSource string

const (
	PunchSourceImport PunchSource = "import"
	PunchSourceManual PunchSource = "manual"
)

// Punch - a raw clock event. Never updated, only superseded by re-import.
type Punch struct {
	ID        string
	UserID    string
	Timestamp time.Time
	Type      PunchType
	Source    PunchSource
	CreatedAt time.Time
}

// Status enum, owned by the approval workflow
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Record - derived attendance facts for one user and civil date
type Record struct {
	ID                   string
	UserID               string
	Date                 time.Time
	MorningTimeIn        *time.Time
	MorningTimeOut       *time.Time
	AfternoonTimeIn      *time.Time
	AfternoonTimeOut     *time.Time
	HoursWorked          float64
	LateMinutes          int
	UndertimeMinutes     int
	OvertimeMinutes      int
	AbsentSessionMinutes int
	IsLate               bool
	IsAbsent             bool
	IsHalfDay            bool
	IsEarlyOut           bool
	NeedsReview          bool
	IsWorkingDay         bool
	HolidayType          *calendar.HolidayType
	TotalSessions        int
	Status               Status
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Counts reports whether the record contributes to payroll sums
func (r Record) Counts() bool {
	return r.Status != StatusRejected
}
