package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalendarRepo struct {
	holidays  []calendar.Holiday
	overrides map[string]calendar.Override
}

func newFakeCalendarRepo(holidays ...calendar.Holiday) *fakeCalendarRepo {
	return &fakeCalendarRepo{holidays: holidays, overrides: map[string]calendar.Override{}}
}

func (r *fakeCalendarRepo) ListHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	return r.holidays, nil
}

func (r *fakeCalendarRepo) GetOverride(ctx context.Context, year, month int) (calendar.Override, error) {
	o, ok := r.overrides[calendar.OverrideKey(year, month)]
	if !ok {
		return calendar.Override{}, calendar.ErrOverrideNotFound
	}
	return o, nil
}

func (r *fakeCalendarRepo) UpsertOverride(ctx context.Context, o calendar.Override) (calendar.Override, error) {
	o.UpdatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r.overrides[o.Key()] = o
	return o, nil
}

func TestCalendarService_GetWorkingDays_NoOverride(t *testing.T) {
	svc := NewCalendarService(newFakeCalendarRepo())

	resp, err := svc.GetWorkingDays(context.Background(), 2025, 6)
	require.NoError(t, err)
	assert.Equal(t, 30, resp.TotalDays)
	assert.Equal(t, 21, resp.WorkingDaysCount)
}

func TestCalendarService_SaveOverride_ThenResolve(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCalendarRepo()
	svc := NewCalendarService(repo)

	saved, err := svc.SaveOverride(ctx, calendar.SaveOverrideRequest{
		Year:               2025,
		Month:              6,
		NoWorkDays:         []int{3, 2, 3},
		WorkingWeekendDays: []int{7},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, saved.NoWorkDays)
	assert.Contains(t, repo.overrides, "2025_6")

	resp, err := svc.GetWorkingDays(ctx, 2025, 6)
	require.NoError(t, err)
	assert.Equal(t, 20, resp.WorkingDaysCount)
}

func TestCalendarService_SaveOverride_Rejections(t *testing.T) {
	svc := NewCalendarService(newFakeCalendarRepo())

	tests := []struct {
		name string
		req  calendar.SaveOverrideRequest
	}{
		{"invalid month", calendar.SaveOverrideRequest{Year: 2025, Month: 13}},
		{"day outside month", calendar.SaveOverrideRequest{Year: 2025, Month: 6, NoWorkDays: []int{31}}},
		{"weekday as working weekend", calendar.SaveOverrideRequest{Year: 2025, Month: 6, WorkingWeekendDays: []int{4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveOverride(context.Background(), tt.req)
			var verrs validator.ValidationErrors
			assert.ErrorAs(t, err, &verrs)
		})
	}
}

func TestCalendarService_SaveOverride_OverlapRejected(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc := NewCalendarService(repo)

	_, err := svc.SaveOverride(context.Background(), calendar.SaveOverrideRequest{
		Year:               2025,
		Month:              6,
		NoWorkDays:         []int{7},
		WorkingWeekendDays: []int{7},
	})
	assert.ErrorIs(t, err, calendar.ErrOverlappingOverride)
	assert.Empty(t, repo.overrides)
}

func TestCalendarService_SnapshotHolidayOn(t *testing.T) {
	svc := NewCalendarService(newFakeCalendarRepo(
		calendar.Holiday{Name: "Ninoy Aquino Day", Type: calendar.HolidayTypeSpecial, IsRecurring: true, Month: 8, Day: 21},
	))

	snapshot, err := svc.Snapshot(context.Background(), 2025, 8)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Override.NoWorkDays)

	h := snapshot.HolidayOn(time.Date(2025, 8, 21, 9, 0, 0, 0, time.UTC))
	require.NotNil(t, h)
	assert.Equal(t, calendar.HolidayTypeSpecial, h.Type)
	assert.Nil(t, snapshot.HolidayOn(time.Date(2025, 8, 22, 9, 0, 0, 0, time.UTC)))
}
