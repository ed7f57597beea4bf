package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

// Policy holds the institution-wide reduction settings
type Policy struct {
	Location          *time.Location
	SplitMinute       int
	EarlyOutThreshold int
	HalfDayEnabled    bool
	HalfDayMinHours   float64
	DuplicateWindow   time.Duration
}

func DefaultPolicy() Policy {
	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		loc = time.FixedZone("PHT", 8*60*60)
	}
	return Policy{
		Location:          loc,
		SplitMinute:       12 * 60,
		EarlyOutThreshold: 15,
		HalfDayEnabled:    true,
		HalfDayMinHours:   3,
		DuplicateWindow:   2 * time.Minute,
	}
}

// DayFacts is the calendar context of the day being reduced
type DayFacts struct {
	Date         time.Time
	IsWorkingDay bool
	HolidayType  *calendar.HolidayType
}

type event struct {
	at     time.Time
	minute int
	typ    attendance.PunchType
}

type session struct {
	in, out *event
	orphan  bool
}

func (s session) present() bool { return s.in != nil }

func (s session) duration() time.Duration {
	if s.in == nil || s.out == nil {
		return 0
	}
	return s.out.at.Sub(s.in.at)
}

// Reduce collapses the punches of one user and civil day into an attendance record.
// Punches may arrive in any order. All minute math runs on local wall clock time.
func Reduce(punches []attendance.Punch, sched schedule.SessionSchedule, policy Policy, day DayFacts) attendance.Record {
	loc := policy.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date.Date()

	record := attendance.Record{
		Date:         time.Date(y, m, d, 0, 0, 0, 0, loc),
		IsWorkingDay: day.IsWorkingDay,
		HolidayType:  day.HolidayType,
		Status:       attendance.StatusPending,
	}

	if len(punches) == 0 {
		record.IsAbsent = day.IsWorkingDay
		return record
	}

	events := make([]event, 0, len(punches))
	for _, p := range punches {
		local := p.Timestamp.In(loc)
		events = append(events, event{at: local, minute: local.Hour()*60 + local.Minute(), typ: p.Type})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })

	var morningEvents, afternoonEvents []event
	for _, e := range events {
		if e.minute < policy.SplitMinute {
			morningEvents = append(morningEvents, e)
		} else {
			afternoonEvents = append(afternoonEvents, e)
		}
	}
	morningEvents, afternoonEvents = rebalanceLunch(morningEvents, afternoonEvents, sched)

	morning := pickSession(morningEvents)
	afternoon := pickSession(afternoonEvents)

	record.MorningTimeIn = eventTime(morning.in)
	record.MorningTimeOut = eventTime(morning.out)
	record.AfternoonTimeIn = eventTime(afternoon.in)
	record.AfternoonTimeOut = eventTime(afternoon.out)
	record.NeedsReview = morning.orphan || afternoon.orphan

	worked := morning.duration() + afternoon.duration()
	record.HoursWorked = decimal.NewFromFloat(worked.Hours()).Round(2).InexactFloat64()

	if morning.present() {
		record.TotalSessions++
	}
	if afternoon.present() {
		record.TotalSessions++
	}

	// Rest days and holidays carry hours only
	if !day.IsWorkingDay {
		return record
	}

	late, undertime, absent := 0, 0, 0

	switch {
	case morning.present():
		late += max(0, morning.in.minute-sched.MorningStart)
		undertime += sessionUndertime(morning, sched.MorningEnd, sched.MorningMinutes())
	case afternoon.present():
		block := sched.AfternoonStart - sched.MorningStart
		late += block
		undertime += sched.MorningMinutes()
		absent += block + sched.MorningMinutes()
	}

	switch {
	case afternoon.present():
		if morning.present() {
			late += max(0, afternoon.in.minute-sched.AfternoonStart)
		}
		undertime += sessionUndertime(afternoon, sched.AfternoonEnd, sched.AfternoonMinutes())
		if afternoon.out != nil {
			record.OvertimeMinutes = max(0, afternoon.out.minute-sched.AfternoonEnd)
		}
	case morning.present():
		undertime += sched.AfternoonMinutes()
		absent += sched.AfternoonMinutes()
	}

	record.LateMinutes = late
	record.UndertimeMinutes = undertime
	record.AbsentSessionMinutes = absent
	record.IsLate = late > 0
	record.IsEarlyOut = isEarlyOut(morning, sched.MorningEnd, policy.EarlyOutThreshold) ||
		isEarlyOut(afternoon, sched.AfternoonEnd, policy.EarlyOutThreshold)

	oneSessionOnly := morning.present() != afternoon.present()
	record.IsHalfDay = oneSessionOnly && policy.HalfDayEnabled && worked.Hours() >= policy.HalfDayMinHours

	return record
}

// rebalanceLunch moves punches that belong to the other session across the split point:
// a lunch clock-out taken after the split but before the afternoon starts, and an early
// return from lunch clocked before the split.
func rebalanceLunch(morning, afternoon []event, sched schedule.SessionSchedule) ([]event, []event) {
	if len(afternoon) > 0 && afternoon[0].typ == attendance.PunchTypeOut &&
		afternoon[0].minute < sched.AfternoonStart && awaitingOut(morning) {
		morning = append(morning, afternoon[0])
		afternoon = afternoon[1:]
	}

	n := len(morning)
	if n >= 3 && morning[n-1].typ == attendance.PunchTypeIn && morning[n-2].typ == attendance.PunchTypeOut &&
		!hasType(afternoon, attendance.PunchTypeIn) {
		afternoon = append([]event{morning[n-1]}, afternoon...)
		morning = morning[:n-1]
	}

	return morning, afternoon
}

// awaitingOut reports a session that was clocked into but not out of
func awaitingOut(events []event) bool {
	seenIn := false
	for _, e := range events {
		if e.typ == attendance.PunchTypeIn {
			seenIn = true
		} else if seenIn {
			return false
		}
	}
	return seenIn
}

// pickSession takes the earliest IN and the latest OUT after it. OUTs with no preceding IN are orphans.
func pickSession(events []event) session {
	var s session
	for i := range events {
		if events[i].typ == attendance.PunchTypeIn && s.in == nil {
			s.in = &events[i]
		}
	}
	for i := range events {
		if events[i].typ != attendance.PunchTypeOut {
			continue
		}
		if s.in == nil || events[i].at.Before(s.in.at) {
			s.orphan = true
			continue
		}
		s.out = &events[i]
	}
	return s
}

func sessionUndertime(s session, scheduledEnd, fullDuration int) int {
	if s.out == nil {
		return fullDuration
	}
	return max(0, scheduledEnd-s.out.minute)
}

func isEarlyOut(s session, scheduledEnd, threshold int) bool {
	if s.in == nil || s.out == nil {
		return false
	}
	return scheduledEnd-s.out.minute > threshold
}

func hasType(events []event, typ attendance.PunchType) bool {
	for _, e := range events {
		if e.typ == typ {
			return true
		}
	}
	return false
}

func eventTime(e *event) *time.Time {
	if e == nil {
		return nil
	}
	t := e.at
	return &t
}
