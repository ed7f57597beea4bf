package schedule

import "errors"

var (
	ErrInvalidSchedule = errors.New("invalid session schedule")
	ErrInvalidProfile  = errors.New("invalid schedule profile, use HH:MM-HH:MM,HH:MM-HH:MM")
)
