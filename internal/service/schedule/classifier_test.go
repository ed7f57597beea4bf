package schedule

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_ScheduleFor(t *testing.T) {
	c := NewClassifier()

	teaching := c.ScheduleFor(schedule.EmployeeTypeTeaching)
	assert.Equal(t, 450, teaching.MorningStart)
	assert.Equal(t, schedule.ClockSchedule{
		MorningStart:   "07:30",
		MorningEnd:     "11:30",
		AfternoonStart: "12:30",
		AfternoonEnd:   "16:30",
	}, teaching.Clock())

	nonTeaching := c.ScheduleFor(schedule.EmployeeTypeNonTeaching)
	assert.Equal(t, 480, nonTeaching.MorningStart)
	assert.Equal(t, "17:00", nonTeaching.Clock().AfternoonEnd)
	assert.Equal(t, 480, nonTeaching.ScheduledMinutes())
}

func TestClassifier_UnknownTypeFallsBack(t *testing.T) {
	c := NewClassifier()

	assert.Equal(t, DefaultSchedule, c.ScheduleFor(""))
	assert.Equal(t, DefaultSchedule, c.ScheduleFor("librarian"))
}

func TestClassifier_WithProfile(t *testing.T) {
	custom, err := ParseProfile("09:00-12:00, 13:00-18:00")
	require.NoError(t, err)

	c, err := NewClassifier().WithProfile("", custom)
	require.NoError(t, err)

	assert.Equal(t, custom, c.ScheduleFor("unknown"))
	assert.Equal(t, TeachingSchedule, c.ScheduleFor(schedule.EmployeeTypeTeaching))
}

func TestParseProfile_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"07:30-11:30",
		"07:30-11:30,12:30",
		"11:30-07:30,12:30-16:30",
		"07:30-12:30,12:00-16:30",
		"07:30-11:30,12:30-25:00",
	}
	for _, value := range invalid {
		_, err := ParseProfile(value)
		assert.Error(t, err, "profile %q", value)
	}
}
