package schedule

import "fmt"

// EmployeeType enum
type EmployeeType string

const (
	EmployeeTypeTeaching    EmployeeType = "teaching"
	EmployeeTypeNonTeaching EmployeeType = "non_teaching"
)

var EmployeeTypeValues = []string{
	string(EmployeeTypeTeaching),
	string(EmployeeTypeNonTeaching),
}

// SessionSchedule - expected morning and afternoon sessions, minutes from midnight
type SessionSchedule struct {
	MorningStart   int
	MorningEnd     int
	AfternoonStart int
	AfternoonEnd   int
}

func (s SessionSchedule) MorningMinutes() int {
	return s.MorningEnd - s.MorningStart
}

func (s SessionSchedule) AfternoonMinutes() int {
	return s.AfternoonEnd - s.AfternoonStart
}

// ScheduledMinutes is the paid time of a full day, the lunch gap excluded
func (s SessionSchedule) ScheduledMinutes() int {
	return s.MorningMinutes() + s.AfternoonMinutes()
}

// Validate checks that both sessions are ordered and do not overlap
func (s SessionSchedule) Validate() error {
	if s.MorningStart < 0 || s.AfternoonEnd > 24*60 {
		return ErrInvalidSchedule
	}
	if !(s.MorningStart < s.MorningEnd && s.MorningEnd <= s.AfternoonStart && s.AfternoonStart < s.AfternoonEnd) {
		return ErrInvalidSchedule
	}
	return nil
}

// Clock renders the schedule as HH:MM strings
func (s SessionSchedule) Clock() ClockSchedule {
	return ClockSchedule{
		MorningStart:   FormatClock(s.MorningStart),
		MorningEnd:     FormatClock(s.MorningEnd),
		AfternoonStart: FormatClock(s.AfternoonStart),
		AfternoonEnd:   FormatClock(s.AfternoonEnd),
	}
}

type ClockSchedule struct {
	MorningStart   string `json:"morning_start"`
	MorningEnd     string `json:"morning_end"`
	AfternoonStart string `json:"afternoon_start"`
	AfternoonEnd   string `json:"afternoon_end"`
}

// FormatClock renders minutes from midnight as HH:MM
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
