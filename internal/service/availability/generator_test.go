package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-api/internal/model"
)

func newTestGenerator(slots *fakeSlotRepo, appts *fakeAppointmentRepo, categories *fakeCategoryReader) *Generator {
	if categories == nil {
		categories = &fakeCategoryReader{}
	}
	g := NewGenerator(slots, appts, categories, time.UTC)
	g.now = fixedNow
	return g
}

func offeredTimes(day *DayAvailability) []string {
	out := make([]string, 0, len(day.Available))
	for _, o := range day.Available {
		out = append(out, o.Time)
	}
	return out
}

func TestListAvailableFullDay(t *testing.T) {
	practitionerID := uuid.New()
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, newSchedule("09:00", "17:00", nil)),
	}}
	g := newTestGenerator(slots, &fakeAppointmentRepo{}, nil)

	day, err := g.ListAvailable(context.Background(), practitionerID, monday, nil)
	require.NoError(t, err)

	// Eight hours at half-hour steps.
	assert.Len(t, day.Available, 16)
	assert.Equal(t, "09:00", day.Available[0].Time)
	assert.Equal(t, "16:30", day.Available[15].Time)
	assert.Empty(t, day.Booked)
}

func TestListAvailableSkipsBookedTimes(t *testing.T) {
	practitionerID := uuid.New()
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, newSchedule("09:00", "17:00", nil)),
	}}
	booked := &model.Appointment{
		Date:           monday,
		Hour:           "10:00",
		DurationMins:   60,
		Status:         model.AppointmentStatusPending,
		PractitionerID: practitionerID,
	}
	booked.ID = uuid.New()
	appts := &fakeAppointmentRepo{fakeAppointmentReader{appointments: []*model.Appointment{booked}}}
	g := newTestGenerator(slots, appts, nil)

	day, err := g.ListAvailable(context.Background(), practitionerID, monday, nil)
	require.NoError(t, err)

	times := offeredTimes(day)
	assert.NotContains(t, times, "10:00")
	assert.NotContains(t, times, "10:30")
	assert.Contains(t, times, "09:30")
	assert.Contains(t, times, "11:00")
	assert.Equal(t, []string{"10:00"}, day.Booked)
}

func TestListAvailableOvertimeNeverOffered(t *testing.T) {
	practitionerID := uuid.New()
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, newSchedule("09:00", "18:00", strPtr("17:00"))),
	}}
	g := newTestGenerator(slots, &fakeAppointmentRepo{}, nil)

	day, err := g.ListAvailable(context.Background(), practitionerID, monday, nil)
	require.NoError(t, err)

	times := offeredTimes(day)
	assert.Contains(t, times, "16:30")
	assert.NotContains(t, times, "17:00")
	assert.NotContains(t, times, "17:30")
}

func TestListAvailableCategoryWindowRestricts(t *testing.T) {
	practitionerID := uuid.New()
	categoryID := uuid.New()
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, newSchedule("09:00", "17:00", nil)),
	}}
	categories := &fakeCategoryReader{windows: map[uuid.UUID][]*model.CategoryWindow{
		categoryID: {
			{ID: uuid.New(), CategoryID: categoryID, Weekday: time.Monday, StartTime: "10:00", EndTime: "12:00"},
		},
	}}
	g := newTestGenerator(slots, &fakeAppointmentRepo{}, categories)

	day, err := g.ListAvailable(context.Background(), practitionerID, monday, &categoryID)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "10:30", "11:00", "11:30"}, offeredTimes(day))
}

func TestListAvailableCategoryBlocksWholeDay(t *testing.T) {
	practitionerID := uuid.New()
	categoryID := uuid.New()
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, newSchedule("09:00", "17:00", nil)),
	}}
	// Windows exist, but only for Tuesday: Monday is fully blocked.
	categories := &fakeCategoryReader{windows: map[uuid.UUID][]*model.CategoryWindow{
		categoryID: {
			{ID: uuid.New(), CategoryID: categoryID, Weekday: time.Tuesday, StartTime: "09:00", EndTime: "17:00"},
		},
	}}
	g := newTestGenerator(slots, &fakeAppointmentRepo{}, categories)

	day, err := g.ListAvailable(context.Background(), practitionerID, monday, &categoryID)
	require.NoError(t, err)
	assert.Empty(t, day.Available)
}

func TestListAvailableCategoryWithoutWindowsIsUnrestricted(t *testing.T) {
	practitionerID := uuid.New()
	categoryID := uuid.New()
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, newSchedule("09:00", "17:00", nil)),
	}}
	g := newTestGenerator(slots, &fakeAppointmentRepo{}, &fakeCategoryReader{})

	day, err := g.ListAvailable(context.Background(), practitionerID, monday, &categoryID)
	require.NoError(t, err)
	assert.Len(t, day.Available, 16)
}

func TestListAvailableSkipsPastTimesToday(t *testing.T) {
	practitionerID := uuid.New()
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Saturday, 30, newSchedule("09:00", "17:00", nil)),
	}}
	g := newTestGenerator(slots, &fakeAppointmentRepo{}, nil)

	// The fixed clock reads 2025-03-01 12:00, a Saturday. Only afternoon
	// starts remain offerable.
	day, err := g.ListAvailable(context.Background(), practitionerID, "2025-03-01", nil)
	require.NoError(t, err)

	times := offeredTimes(day)
	require.NotEmpty(t, times)
	assert.Equal(t, "12:30", times[0])
	assert.NotContains(t, times, "12:00")
}

func TestListAvailableUsesPractitionerDefaultStep(t *testing.T) {
	practitionerID := uuid.New()
	// Slot with no explicit duration falls back to the 30 minute default.
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 0, newSchedule("09:00", "10:30", nil)),
	}}
	g := newTestGenerator(slots, &fakeAppointmentRepo{}, nil)

	day, err := g.ListAvailable(context.Background(), practitionerID, monday, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, offeredTimes(day))
}
