package slot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-api/internal/model"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

type memPractitionerRepo struct {
	practitioners map[uuid.UUID]*model.Practitioner
}

func (m *memPractitionerRepo) Create(ctx context.Context, p *model.Practitioner) error {
	p.ID = uuid.New()
	m.practitioners[p.ID] = p
	return nil
}

func (m *memPractitionerRepo) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	p, ok := m.practitioners[id]
	if !ok {
		return nil, apperrors.NotFound("practitioner", nil)
	}
	return p, nil
}

func (m *memPractitionerRepo) List(ctx context.Context) ([]*model.Practitioner, error) {
	var out []*model.Practitioner
	for _, p := range m.practitioners {
		out = append(out, p)
	}
	return out, nil
}

type memScheduleRepo struct {
	schedules map[uuid.UUID]*model.SlotSchedule
}

func (m *memScheduleRepo) Create(ctx context.Context, s *model.SlotSchedule) error {
	s.ID = uuid.New()
	m.schedules[s.ID] = s
	return nil
}

func (m *memScheduleRepo) Get(ctx context.Context, id uuid.UUID) (*model.SlotSchedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, apperrors.NotFound("schedule", nil)
	}
	return s, nil
}

func (m *memScheduleRepo) Update(ctx context.Context, s *model.SlotSchedule) error {
	m.schedules[s.ID] = s
	return nil
}

func (m *memScheduleRepo) FindByTriple(ctx context.Context, triple model.ScheduleTriple) (*model.SlotSchedule, error) {
	for _, s := range m.schedules {
		if s.Triple() == triple {
			return s, nil
		}
	}
	return nil, apperrors.NotFound("schedule", nil)
}

func (m *memScheduleRepo) ListForSlot(ctx context.Context, slotID uuid.UUID) ([]*model.SlotSchedule, error) {
	return nil, nil
}

type memSlotRepo struct {
	slots     map[uuid.UUID]*model.AppointmentSlot
	deleted   map[uuid.UUID]bool
	links     map[uuid.UUID][]uuid.UUID
	schedules *memScheduleRepo
}

func newMemSlotRepo(schedules *memScheduleRepo) *memSlotRepo {
	return &memSlotRepo{
		slots:     make(map[uuid.UUID]*model.AppointmentSlot),
		deleted:   make(map[uuid.UUID]bool),
		links:     make(map[uuid.UUID][]uuid.UUID),
		schedules: schedules,
	}
}

func (m *memSlotRepo) Create(ctx context.Context, slot *model.AppointmentSlot) error {
	slot.ID = uuid.New()
	m.slots[slot.ID] = slot
	return nil
}

func (m *memSlotRepo) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentSlot, error) {
	slot, ok := m.slots[id]
	if !ok || m.deleted[id] {
		return nil, apperrors.NotFound("slot", nil)
	}
	return m.withSchedules(slot), nil
}

func (m *memSlotRepo) withSchedules(slot *model.AppointmentSlot) *model.AppointmentSlot {
	copied := *slot
	copied.Schedules = nil
	for _, id := range m.links[slot.ID] {
		copied.Schedules = append(copied.Schedules, m.schedules.schedules[id])
	}
	return &copied
}

func (m *memSlotRepo) Update(ctx context.Context, slot *model.AppointmentSlot) error {
	m.slots[slot.ID] = slot
	return nil
}

func (m *memSlotRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	m.deleted[id] = true
	return nil
}

func (m *memSlotRepo) Restore(ctx context.Context, id uuid.UUID) error {
	delete(m.deleted, id)
	return nil
}

func (m *memSlotRepo) ListForPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.AppointmentSlot, error) {
	var out []*model.AppointmentSlot
	for id, slot := range m.slots {
		if slot.PractitionerID == practitionerID && !m.deleted[id] {
			out = append(out, m.withSchedules(slot))
		}
	}
	return out, nil
}

func (m *memSlotRepo) ListForWeekday(ctx context.Context, practitionerID uuid.UUID, weekday time.Weekday, includeUnavailable bool) ([]*model.AppointmentSlot, error) {
	var out []*model.AppointmentSlot
	for id, slot := range m.slots {
		if slot.PractitionerID != practitionerID || slot.Weekday != weekday || m.deleted[id] {
			continue
		}
		if slot.Unavailable && !includeUnavailable {
			continue
		}
		out = append(out, m.withSchedules(slot))
	}
	return out, nil
}

func (m *memSlotRepo) AttachSchedules(ctx context.Context, slotID uuid.UUID, scheduleIDs []uuid.UUID) error {
	m.links[slotID] = append(m.links[slotID], scheduleIDs...)
	return nil
}

func (m *memSlotRepo) ReplaceSchedules(ctx context.Context, slotID uuid.UUID, scheduleIDs []uuid.UUID) error {
	m.links[slotID] = scheduleIDs
	return nil
}

type fixture struct {
	svc            *Service
	slots          *memSlotRepo
	schedules      *memScheduleRepo
	practitioners  *memPractitionerRepo
	practitionerID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	schedules := &memScheduleRepo{schedules: make(map[uuid.UUID]*model.SlotSchedule)}
	slots := newMemSlotRepo(schedules)
	practitioners := &memPractitionerRepo{practitioners: make(map[uuid.UUID]*model.Practitioner)}

	p := &model.Practitioner{Name: "Dr. Silva", Email: "silva@clinic.test", DefaultDurationMins: 45}
	require.NoError(t, practitioners.Create(context.Background(), p))

	return &fixture{
		svc:            NewService(slots, schedules, practitioners),
		slots:          slots,
		schedules:      schedules,
		practitioners:  practitioners,
		practitionerID: p.ID,
	}
}

func ranges(rs ...model.ScheduleRange) []model.ScheduleRange { return rs }

func TestCreateSlot(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
	})
	require.NoError(t, err)

	assert.Equal(t, time.Monday, slot.Weekday)
	assert.Equal(t, 45, slot.DurationMins, "falls back to practitioner default")
	require.Len(t, slot.Schedules, 1)
	assert.Equal(t, "09:00", slot.Schedules[0].OpeningHour)
	assert.Equal(t, "17:00", slot.Schedules[0].CloseHour)
}

func TestCreateSlotUnknownPractitioner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: uuid.New(),
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
	})
	assert.Equal(t, apperrors.ErrNotFound, apperrors.Code(err))
}

func TestCreateSlotSharesScheduleRows(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
	})
	require.NoError(t, err)

	second, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Tuesday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
	})
	require.NoError(t, err)

	// Same exact triple resolves to the same shared schedule row.
	assert.Equal(t, first.Schedules[0].ID, second.Schedules[0].ID)
	assert.Len(t, f.schedules.schedules, 1)
}

func TestCreateSlotMergesIntoExistingWeekday(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "08:00", CloseHour: "12:00"}),
	})
	require.NoError(t, err)

	merged, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "13:00", CloseHour: "18:00"}),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, merged.ID, "second create merges into the existing slot")
	assert.Len(t, merged.Schedules, 2)
}

func TestCreateSlotRejectsFullDuplicate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "08:00", CloseHour: "12:00"}),
	})
	require.NoError(t, err)

	_, err = f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "08:00", CloseHour: "12:00"}),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.Code(err))
}

func TestCreateSlotWithoutMergeKeepsSlotsSeparate(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "08:00", CloseHour: "12:00"}),
	})
	require.NoError(t, err)

	second, err := f.svc.CreateSlotWithoutMerge(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "08:00", CloseHour: "12:00"}),
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Schedules[0].ID, second.Schedules[0].ID, "still shares the schedule row")
}

func TestCreateSlotValidatesRanges(t *testing.T) {
	f := newFixture(t)

	cases := []model.ScheduleRange{
		{OpeningHour: "17:00", CloseHour: "09:00"},
		{OpeningHour: "09:00", CloseHour: "09:00"},
		{OpeningHour: "bad", CloseHour: "17:00"},
		{OpeningHour: "09:00", CloseHour: "17:00", OvertimeStartHour: strPtr("08:00")},
		{OpeningHour: "09:00", CloseHour: "17:00", OvertimeStartHour: strPtr("17:00")},
		{OpeningHour: "09:00", CloseHour: "17:00", OvertimeStartHour: strPtr("09:00")},
	}
	for _, r := range cases {
		_, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
			PractitionerID: f.practitionerID,
			Weekday:        time.Monday,
			Schedules:      ranges(r),
		})
		require.Error(t, err, "range %+v", r)
		assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err), "range %+v", r)
	}
}

func TestCreateSlotWithoutMergeValidatesRequest(t *testing.T) {
	f := newFixture(t)

	cases := []*model.CreateSlotRequest{
		{
			PractitionerID: f.practitionerID,
			Weekday:        7,
			Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
		},
		{
			PractitionerID: f.practitionerID,
			Weekday:        time.Monday,
			DurationMins:   2,
			Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
		},
		{
			PractitionerID: f.practitionerID,
			Weekday:        time.Monday,
		},
		{
			PractitionerID: f.practitionerID,
			Weekday:        time.Monday,
			Schedules:      ranges(model.ScheduleRange{OpeningHour: "17:00", CloseHour: "09:00"}),
		},
	}
	for _, req := range cases {
		_, err := f.svc.CreateSlotWithoutMerge(context.Background(), req)
		require.Error(t, err, "request %+v", req)
		assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err), "request %+v", req)
	}
}

func TestUpdateSlotPatchesFields(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
	})
	require.NoError(t, err)

	unavailable := true
	duration := 60
	updated, err := f.svc.UpdateSlot(context.Background(), slot.ID, &model.UpdateSlotRequest{
		Unavailable:  &unavailable,
		DurationMins: &duration,
	})
	require.NoError(t, err)
	assert.True(t, updated.Unavailable)
	assert.Equal(t, 60, updated.DurationMins)
	assert.Len(t, updated.Schedules, 1, "schedules untouched when not in the patch")
}

func TestUpdateSlotReplacesSchedules(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
	})
	require.NoError(t, err)

	newRanges := ranges(
		model.ScheduleRange{OpeningHour: "08:00", CloseHour: "12:00"},
		model.ScheduleRange{OpeningHour: "13:00", CloseHour: "18:00"},
	)
	updated, err := f.svc.UpdateSlot(context.Background(), slot.ID, &model.UpdateSlotRequest{Schedules: &newRanges})
	require.NoError(t, err)
	require.Len(t, updated.Schedules, 2)
	assert.Equal(t, "08:00", updated.Schedules[0].OpeningHour)

	empty := ranges()
	cleared, err := f.svc.UpdateSlot(context.Background(), slot.ID, &model.UpdateSlotRequest{Schedules: &empty})
	require.NoError(t, err)
	assert.Empty(t, cleared.Schedules)
}

func TestUpdateSlotPatchByIDRededups(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules: ranges(
			model.ScheduleRange{OpeningHour: "08:00", CloseHour: "12:00"},
			model.ScheduleRange{OpeningHour: "13:00", CloseHour: "18:00"},
		),
	})
	require.NoError(t, err)
	require.Len(t, slot.Schedules, 2)

	// Patch the afternoon schedule to the morning triple; it must collapse
	// onto the existing shared row instead of duplicating it.
	patched := ranges(model.ScheduleRange{
		ID:          &slot.Schedules[1].ID,
		OpeningHour: "08:00",
		CloseHour:   "12:00",
	})
	updated, err := f.svc.UpdateSlot(context.Background(), slot.ID, &model.UpdateSlotRequest{Schedules: &patched})
	require.NoError(t, err)
	require.Len(t, updated.Schedules, 1)
	assert.Equal(t, slot.Schedules[0].ID, updated.Schedules[0].ID)
}

func TestUpdateSlotUnknownScheduleID(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
	})
	require.NoError(t, err)

	bogus := uuid.New()
	bad := ranges(model.ScheduleRange{ID: &bogus, OpeningHour: "09:00", CloseHour: "17:00"})
	_, err = f.svc.UpdateSlot(context.Background(), slot.ID, &model.UpdateSlotRequest{Schedules: &bad})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err))
}

func TestDeleteAndRestoreSlot(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		PractitionerID: f.practitionerID,
		Weekday:        time.Monday,
		Schedules:      ranges(model.ScheduleRange{OpeningHour: "09:00", CloseHour: "17:00"}),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSlot(context.Background(), slot.ID))
	_, err = f.svc.GetSlot(context.Background(), slot.ID)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.Code(err))

	require.NoError(t, f.svc.RestoreSlot(context.Background(), slot.ID))
	restored, err := f.svc.GetSlot(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, restored.ID)
}

func TestListSlotsUnknownPractitioner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListSlots(context.Background(), uuid.New())
	assert.Equal(t, apperrors.ErrNotFound, apperrors.Code(err))
}

func strPtr(s string) *string { return &s }
