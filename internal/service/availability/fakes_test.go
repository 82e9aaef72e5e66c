package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
)

type fakeSlotRepo struct {
	slots []*model.AppointmentSlot
}

func (f *fakeSlotRepo) Create(ctx context.Context, slot *model.AppointmentSlot) error { return nil }
func (f *fakeSlotRepo) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentSlot, error) {
	for _, s := range f.slots {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}
func (f *fakeSlotRepo) Update(ctx context.Context, slot *model.AppointmentSlot) error { return nil }
func (f *fakeSlotRepo) SoftDelete(ctx context.Context, id uuid.UUID) error            { return nil }
func (f *fakeSlotRepo) Restore(ctx context.Context, id uuid.UUID) error               { return nil }

func (f *fakeSlotRepo) ListForPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.AppointmentSlot, error) {
	return f.slots, nil
}

func (f *fakeSlotRepo) ListForWeekday(ctx context.Context, practitionerID uuid.UUID, weekday time.Weekday, includeUnavailable bool) ([]*model.AppointmentSlot, error) {
	var out []*model.AppointmentSlot
	for _, s := range f.slots {
		if s.PractitionerID != practitionerID || s.Weekday != weekday {
			continue
		}
		if s.Unavailable && !includeUnavailable {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSlotRepo) AttachSchedules(ctx context.Context, slotID uuid.UUID, scheduleIDs []uuid.UUID) error {
	return nil
}
func (f *fakeSlotRepo) ReplaceSchedules(ctx context.Context, slotID uuid.UUID, scheduleIDs []uuid.UUID) error {
	return nil
}

type fakeAppointmentReader struct {
	appointments []*model.Appointment
}

func (f *fakeAppointmentReader) ListForPractitionerDate(ctx context.Context, practitionerID uuid.UUID, date string, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.appointments {
		if a.PractitionerID != practitionerID || a.Date != date {
			continue
		}
		if a.Status == model.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// fakeAppointmentRepo extends the reader with the write surface the
// generator's constructor asks for; only the reader half is exercised.
type fakeAppointmentRepo struct {
	fakeAppointmentReader
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	f.appointments = append(f.appointments, appointment)
	return nil
}
func (f *fakeAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return f.appointments, nil
}
func (f *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	return nil
}
func (f *fakeAppointmentRepo) Cancel(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeAppointmentRepo) Reprogram(ctx context.Context, id uuid.UUID, date, hour string, slotID, scheduleID uuid.UUID) error {
	return nil
}
func (f *fakeAppointmentRepo) ListInReminderWindow(ctx context.Context, date, fromHour, toHour string) ([]*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointmentRepo) SetReminderState(ctx context.Context, id uuid.UUID, field model.ReminderField, state model.ReminderState) error {
	return nil
}
func (f *fakeAppointmentRepo) ClaimReminder(ctx context.Context, id uuid.UUID, field model.ReminderField) (bool, error) {
	return false, nil
}
func (f *fakeAppointmentRepo) MarkAbsent(ctx context.Context, date string) (int64, error) {
	return 0, nil
}

type fakeCategoryReader struct {
	windows map[uuid.UUID][]*model.CategoryWindow
}

func (f *fakeCategoryReader) ListWindows(ctx context.Context, categoryID uuid.UUID) ([]*model.CategoryWindow, error) {
	return f.windows[categoryID], nil
}

func strPtr(s string) *string { return &s }

func newSchedule(opening, close string, overtime *string) *model.SlotSchedule {
	s := &model.SlotSchedule{
		OpeningHour:       opening,
		CloseHour:         close,
		OvertimeStartHour: overtime,
	}
	s.ID = uuid.New()
	return s
}

func newSlot(practitionerID uuid.UUID, weekday time.Weekday, durationMins int, schedules ...*model.SlotSchedule) *model.AppointmentSlot {
	slot := &model.AppointmentSlot{
		PractitionerID: practitionerID,
		Weekday:        weekday,
		DurationMins:   durationMins,
		Schedules:      schedules,
	}
	slot.ID = uuid.New()
	return slot
}
