package availability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-api/internal/model"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

func TestResolvePicksCoveringSchedule(t *testing.T) {
	practitionerID := uuid.New()
	morning := newSchedule("08:00", "12:00", nil)
	afternoon := newSchedule("13:00", "18:00", nil)
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, morning, afternoon),
	}}
	r := NewResolver(slots, time.UTC)

	res, err := r.Resolve(context.Background(), practitionerID, monday, "14:00")
	require.NoError(t, err)
	assert.Equal(t, afternoon.ID, res.Schedule.ID)

	res, err = r.Resolve(context.Background(), practitionerID, monday, "08:00")
	require.NoError(t, err)
	assert.Equal(t, morning.ID, res.Schedule.ID)
}

func TestResolveCloseHourIsExclusive(t *testing.T) {
	practitionerID := uuid.New()
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, newSchedule("08:00", "12:00", nil)),
	}}
	r := NewResolver(slots, time.UTC)

	_, err := r.Resolve(context.Background(), practitionerID, monday, "12:00")
	assert.ErrorIs(t, err, ErrNoAvailability)
}

func TestResolveNoAvailability(t *testing.T) {
	practitionerID := uuid.New()
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Tuesday, 30, newSchedule("08:00", "12:00", nil)),
	}}
	r := NewResolver(slots, time.UTC)

	// Monday has no slots at all.
	_, err := r.Resolve(context.Background(), practitionerID, monday, "09:00")
	assert.ErrorIs(t, err, ErrNoAvailability)
}

func TestResolveRejectsMalformedInput(t *testing.T) {
	r := NewResolver(&fakeSlotRepo{}, time.UTC)

	_, err := r.Resolve(context.Background(), uuid.New(), "bad-date", "09:00")
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err))

	_, err = r.Resolve(context.Background(), uuid.New(), monday, "9am")
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err))
}

func TestResolveDeterministicTieBreak(t *testing.T) {
	practitionerID := uuid.New()

	// Two schedules covering the same hour with identical opening hours.
	// The winner must be the lowest schedule id regardless of list order.
	a := newSchedule("09:00", "17:00", nil)
	b := newSchedule("09:00", "18:00", nil)
	want := a
	if bytes.Compare(b.ID[:], a.ID[:]) < 0 {
		want = b
	}

	forward := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, a, b),
	}}
	reversed := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, b, a),
	}}

	for _, slots := range []*fakeSlotRepo{forward, reversed} {
		r := NewResolver(slots, time.UTC)
		res, err := r.Resolve(context.Background(), practitionerID, monday, "10:00")
		require.NoError(t, err)
		assert.Equal(t, want.ID, res.Schedule.ID)
	}
}

func TestResolveEarlierOpeningWins(t *testing.T) {
	practitionerID := uuid.New()
	early := newSchedule("08:00", "17:00", nil)
	late := newSchedule("10:00", "17:00", nil)
	slots := &fakeSlotRepo{slots: []*model.AppointmentSlot{
		newSlot(practitionerID, time.Monday, 30, late, early),
	}}
	r := NewResolver(slots, time.UTC)

	res, err := r.Resolve(context.Background(), practitionerID, monday, "11:00")
	require.NoError(t, err)
	assert.Equal(t, early.ID, res.Schedule.ID)
}
