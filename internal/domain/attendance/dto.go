package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// MaxRecomputeDays bounds a single recompute call
const MaxRecomputeDays = 93

type PunchInput struct {
	Timestamp string      `json:"timestamp"`
	Type      PunchType   `json:"type"`
	Source    PunchSource `json:"source,omitempty"`
}

type RecordPunchesRequest struct {
	UserID  string       `json:"user_id"`
	Punches []PunchInput `json:"punches"`

	parsed []time.Time
}

func (r *RecordPunchesRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id is required"})
	}
	if len(r.Punches) == 0 {
		errs = append(errs, validator.ValidationError{Field: "punches", Message: "at least one punch is required"})
	}

	r.parsed = make([]time.Time, len(r.Punches))
	for i, p := range r.Punches {
		field := fmt.Sprintf("punches[%d]", i)
		ts, ok := validator.IsValidDateTime(p.Timestamp)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: field + ".timestamp", Message: "must be RFC3339"})
		}
		r.parsed[i] = ts
		if p.Type != PunchTypeIn && p.Type != PunchTypeOut {
			errs = append(errs, validator.ValidationError{Field: field + ".type", Message: ErrInvalidPunchType.Error()})
		}
		if p.Source != "" && p.Source != PunchSourceImport && p.Source != PunchSourceManual {
			errs = append(errs, validator.ValidationError{Field: field + ".source", Message: "source must be import or manual"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToPunches converts the validated request into domain punches
func (r *RecordPunchesRequest) ToPunches() []Punch {
	punches := make([]Punch, 0, len(r.Punches))
	for i, p := range r.Punches {
		source := p.Source
		if source == "" {
			source = PunchSourceManual
		}
		punches = append(punches, Punch{
			UserID:    r.UserID,
			Timestamp: r.parsed[i],
			Type:      p.Type,
			Source:    source,
		})
	}
	return punches
}

type RecordPunchesResponse struct {
	Accepted   int              `json:"accepted"`
	Duplicates int              `json:"duplicates"`
	Records    []RecordResponse `json:"records"`
}

type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ImportUserError struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

type ImportPunchesResponse struct {
	Rows       int               `json:"rows"`
	Users      int               `json:"users"`
	Accepted   int               `json:"accepted"`
	Duplicates int               `json:"duplicates"`
	RowErrors  []ImportRowError  `json:"row_errors"`
	UserErrors []ImportUserError `json:"user_errors"`
}

type RecomputeRequest struct {
	UserID   string `json:"user_id"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`

	From time.Time `json:"-"`
	To   time.Time `json:"-"`
}

func (r *RecomputeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id is required"})
	}

	from, okFrom := validator.IsValidDate(r.DateFrom)
	if !okFrom {
		errs = append(errs, validator.ValidationError{Field: "date_from", Message: "must be YYYY-MM-DD"})
	}
	to, okTo := validator.IsValidDate(r.DateTo)
	if !okTo {
		errs = append(errs, validator.ValidationError{Field: "date_to", Message: "must be YYYY-MM-DD"})
	}
	if okFrom && okTo {
		if to.Before(from) {
			errs = append(errs, validator.ValidationError{Field: "date_to", Message: ErrInvalidDateRange.Error()})
		} else if int(to.Sub(from).Hours()/24)+1 > MaxRecomputeDays {
			errs = append(errs, validator.ValidationError{Field: "date_to", Message: ErrDateRangeTooLarge.Error()})
		}
		r.From, r.To = from, to
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecomputeResponse struct {
	UserID  string           `json:"user_id"`
	Records []RecordResponse `json:"records"`
}

type RecordResponse struct {
	Date                 string  `json:"date"`
	MorningTimeIn        *string `json:"morning_time_in"`
	MorningTimeOut       *string `json:"morning_time_out"`
	AfternoonTimeIn      *string `json:"afternoon_time_in"`
	AfternoonTimeOut     *string `json:"afternoon_time_out"`
	HoursWorked          float64 `json:"hours_worked"`
	LateMinutes          int     `json:"late_minutes"`
	UndertimeMinutes     int     `json:"undertime_minutes"`
	OvertimeMinutes      int     `json:"overtime_minutes"`
	AbsentSessionMinutes int     `json:"absent_session_minutes"`
	IsLate               bool    `json:"is_late"`
	IsAbsent             bool    `json:"is_absent"`
	IsHalfDay            bool    `json:"is_half_day"`
	IsEarlyOut           bool    `json:"is_early_out"`
	NeedsReview          bool    `json:"needs_review"`
	HolidayType          *string `json:"holiday_type"`
	TotalSessions        int     `json:"total_sessions"`
	Status               Status  `json:"status"`
}

// ToResponse renders clock times in the location of the record date
func (r Record) ToResponse() RecordResponse {
	resp := RecordResponse{
		Date:                 r.Date.Format("2006-01-02"),
		MorningTimeIn:        formatClock(r.MorningTimeIn, r.Date.Location()),
		MorningTimeOut:       formatClock(r.MorningTimeOut, r.Date.Location()),
		AfternoonTimeIn:      formatClock(r.AfternoonTimeIn, r.Date.Location()),
		AfternoonTimeOut:     formatClock(r.AfternoonTimeOut, r.Date.Location()),
		HoursWorked:          r.HoursWorked,
		LateMinutes:          r.LateMinutes,
		UndertimeMinutes:     r.UndertimeMinutes,
		OvertimeMinutes:      r.OvertimeMinutes,
		AbsentSessionMinutes: r.AbsentSessionMinutes,
		IsLate:               r.IsLate,
		IsAbsent:             r.IsAbsent,
		IsHalfDay:            r.IsHalfDay,
		IsEarlyOut:           r.IsEarlyOut,
		NeedsReview:          r.NeedsReview,
		TotalSessions:        r.TotalSessions,
		Status:               r.Status,
	}
	if r.HolidayType != nil {
		h := string(*r.HolidayType)
		resp.HolidayType = &h
	}
	return resp
}

func formatClock(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format("15:04")
	return &s
}
