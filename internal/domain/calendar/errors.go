package calendar

import "errors"

var (
	ErrInvalidYear         = errors.New("invalid calendar year")
	ErrInvalidMonth        = errors.New("invalid calendar month")
	ErrOverrideNotFound    = errors.New("work calendar override not found")
	ErrOverlappingOverride = errors.New("a day cannot be both a no-work day and a working weekend day")
)
