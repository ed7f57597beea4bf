package schedule

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// Built-in profiles
var (
	TeachingSchedule = schedule.SessionSchedule{
		MorningStart:   7*60 + 30,
		MorningEnd:     11*60 + 30,
		AfternoonStart: 12*60 + 30,
		AfternoonEnd:   16*60 + 30,
	}
	NonTeachingSchedule = schedule.SessionSchedule{
		MorningStart:   8 * 60,
		MorningEnd:     12 * 60,
		AfternoonStart: 13 * 60,
		AfternoonEnd:   17 * 60,
	}
	DefaultSchedule = NonTeachingSchedule
)

type Classifier struct {
	profiles map[schedule.EmployeeType]schedule.SessionSchedule
	fallback schedule.SessionSchedule
}

func NewClassifier() *Classifier {
	return &Classifier{
		profiles: map[schedule.EmployeeType]schedule.SessionSchedule{
			schedule.EmployeeTypeTeaching:    TeachingSchedule,
			schedule.EmployeeTypeNonTeaching: NonTeachingSchedule,
		},
		fallback: DefaultSchedule,
	}
}

// WithProfile replaces the schedule of one employee type. An empty type replaces the fallback.
func (c *Classifier) WithProfile(employeeType schedule.EmployeeType, s schedule.SessionSchedule) (*Classifier, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if employeeType == "" {
		c.fallback = s
		return c, nil
	}
	c.profiles[employeeType] = s
	return c, nil
}

// ScheduleFor returns the expected sessions of an employee type, falling back to the
// default profile for unknown or empty types.
func (c *Classifier) ScheduleFor(employeeType schedule.EmployeeType) schedule.SessionSchedule {
	if s, ok := c.profiles[employeeType]; ok {
		return s
	}
	return c.fallback
}

// ParseProfile reads "07:30-11:30,12:30-16:30".
func ParseProfile(value string) (schedule.SessionSchedule, error) {
	sessions := strings.Split(strings.ReplaceAll(value, " ", ""), ",")
	if len(sessions) != 2 {
		return schedule.SessionSchedule{}, schedule.ErrInvalidProfile
	}

	var bounds [4]int
	for i, session := range sessions {
		parts := strings.Split(session, "-")
		if len(parts) != 2 {
			return schedule.SessionSchedule{}, schedule.ErrInvalidProfile
		}
		for j, part := range parts {
			minutes, ok := validator.IsValidClock(part)
			if !ok {
				return schedule.SessionSchedule{}, fmt.Errorf("%w: %q", schedule.ErrInvalidProfile, part)
			}
			bounds[i*2+j] = minutes
		}
	}

	s := schedule.SessionSchedule{
		MorningStart:   bounds[0],
		MorningEnd:     bounds[1],
		AfternoonStart: bounds[2],
		AfternoonEnd:   bounds[3],
	}
	if err := s.Validate(); err != nil {
		return schedule.SessionSchedule{}, err
	}
	return s, nil
}
