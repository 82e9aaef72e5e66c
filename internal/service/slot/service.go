package slot

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
	"github.com/jwalitptl/scheduling-api/pkg/timeutil"
)

// Service owns recurring weekly availability: slots and their deduplicated
// schedule ranges.
type Service struct {
	slots         repository.SlotRepository
	schedules     repository.ScheduleRepository
	practitioners repository.PractitionerRepository
}

func NewService(slots repository.SlotRepository, schedules repository.ScheduleRepository, practitioners repository.PractitionerRepository) *Service {
	return &Service{
		slots:         slots,
		schedules:     schedules,
		practitioners: practitioners,
	}
}

// CreateSlot validates the requested schedule ranges, reuses existing
// schedule rows matching each exact triple, and merges into an existing slot
// for the same (practitioner, weekday) when one exists. A request whose
// ranges all duplicate the slot's existing ranges is rejected.
func (s *Service) CreateSlot(ctx context.Context, req *model.CreateSlotRequest) (*model.AppointmentSlot, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	practitioner, err := s.practitioners.Get(ctx, req.PractitionerID)
	if err != nil {
		return nil, err
	}

	scheduleIDs, err := s.resolveRanges(ctx, req.Schedules)
	if err != nil {
		return nil, err
	}

	existing, err := s.slots.ListForWeekday(ctx, req.PractitionerID, req.Weekday, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing slots: %w", err)
	}

	if len(existing) > 0 {
		target := existing[0]
		attached := make(map[uuid.UUID]bool, len(target.Schedules))
		for _, schedule := range target.Schedules {
			attached[schedule.ID] = true
		}

		var fresh []uuid.UUID
		for _, id := range scheduleIDs {
			if !attached[id] {
				fresh = append(fresh, id)
			}
		}
		if len(fresh) == 0 {
			return nil, apperrors.Conflict("all requested schedule ranges already exist for this weekday", nil)
		}

		if err := s.slots.AttachSchedules(ctx, target.ID, fresh); err != nil {
			return nil, err
		}
		return s.slots.Get(ctx, target.ID)
	}

	return s.createSlot(ctx, req, practitioner, scheduleIDs)
}

// CreateSlotWithoutMerge always creates a fresh slot row, even when one
// already exists for the weekday. Used by callers that want parallel slots.
func (s *Service) CreateSlotWithoutMerge(ctx context.Context, req *model.CreateSlotRequest) (*model.AppointmentSlot, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	practitioner, err := s.practitioners.Get(ctx, req.PractitionerID)
	if err != nil {
		return nil, err
	}

	scheduleIDs, err := s.resolveRanges(ctx, req.Schedules)
	if err != nil {
		return nil, err
	}

	return s.createSlot(ctx, req, practitioner, scheduleIDs)
}

func (s *Service) createSlot(ctx context.Context, req *model.CreateSlotRequest, practitioner *model.Practitioner, scheduleIDs []uuid.UUID) (*model.AppointmentSlot, error) {
	duration := req.DurationMins
	if duration <= 0 {
		duration = practitioner.EffectiveDefaultDuration()
	}

	slot := &model.AppointmentSlot{
		PractitionerID: req.PractitionerID,
		Weekday:        req.Weekday,
		DurationMins:   duration,
		Location:       req.Location,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	if err := s.slots.AttachSchedules(ctx, slot.ID, scheduleIDs); err != nil {
		return nil, err
	}
	return s.slots.Get(ctx, slot.ID)
}

// UpdateSlot applies a patch. A schedules entry replaces the slot's schedule
// set wholesale: entries with an id patch that schedule (then re-dedup by
// triple), entries without are found-or-created by raw hours. An empty list
// clears the set.
func (s *Service) UpdateSlot(ctx context.Context, id uuid.UUID, patch *model.UpdateSlotRequest) (*model.AppointmentSlot, error) {
	slot, err := s.slots.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Unavailable != nil {
		slot.Unavailable = *patch.Unavailable
	}
	if patch.DurationMins != nil {
		if *patch.DurationMins <= 0 {
			return nil, apperrors.BadRequest("duration must be positive", nil)
		}
		slot.DurationMins = *patch.DurationMins
	}
	if patch.Location != nil {
		slot.Location = patch.Location
	}
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}

	if patch.Schedules != nil {
		scheduleIDs, err := s.resolveUpdateRanges(ctx, *patch.Schedules)
		if err != nil {
			return nil, err
		}
		if err := s.slots.ReplaceSchedules(ctx, id, scheduleIDs); err != nil {
			return nil, err
		}
	}

	return s.slots.Get(ctx, id)
}

func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	return s.slots.SoftDelete(ctx, id)
}

func (s *Service) RestoreSlot(ctx context.Context, id uuid.UUID) error {
	return s.slots.Restore(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, practitionerID uuid.UUID) ([]*model.AppointmentSlot, error) {
	if _, err := s.practitioners.Get(ctx, practitionerID); err != nil {
		return nil, err
	}
	return s.slots.ListForPractitioner(ctx, practitionerID)
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*model.AppointmentSlot, error) {
	return s.slots.Get(ctx, id)
}

// resolveRanges validates every range and maps it to a shared schedule row,
// creating rows only for triples never seen before. The result is deduped
// within the request.
func (s *Service) resolveRanges(ctx context.Context, ranges []model.ScheduleRange) ([]uuid.UUID, error) {
	if len(ranges) == 0 {
		return nil, apperrors.BadRequest("at least one schedule range is required", nil)
	}

	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, r := range ranges {
		if err := validateRange(r); err != nil {
			return nil, err
		}
		schedule, err := s.findOrCreateSchedule(ctx, r)
		if err != nil {
			return nil, err
		}
		if !seen[schedule.ID] {
			seen[schedule.ID] = true
			ids = append(ids, schedule.ID)
		}
	}
	return ids, nil
}

// resolveUpdateRanges handles the update path, where entries may name an
// existing schedule id. An empty list is allowed and clears the slot.
func (s *Service) resolveUpdateRanges(ctx context.Context, ranges []model.ScheduleRange) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, r := range ranges {
		if err := validateRange(r); err != nil {
			return nil, err
		}

		var schedule *model.SlotSchedule
		var err error
		if r.ID != nil {
			schedule, err = s.patchSchedule(ctx, *r.ID, r)
		} else {
			schedule, err = s.findOrCreateSchedule(ctx, r)
		}
		if err != nil {
			return nil, err
		}

		if !seen[schedule.ID] {
			seen[schedule.ID] = true
			ids = append(ids, schedule.ID)
		}
	}
	return ids, nil
}

// patchSchedule updates the named schedule's hours, unless another shared
// row already carries the requested triple, in which case that row wins.
func (s *Service) patchSchedule(ctx context.Context, id uuid.UUID, r model.ScheduleRange) (*model.SlotSchedule, error) {
	schedule, err := s.schedules.Get(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.BadRequest(fmt.Sprintf("unknown schedule id %s", id), err)
		}
		return nil, err
	}

	triple := tripleOf(r)
	if schedule.Triple() == triple {
		return schedule, nil
	}

	if existing, err := s.schedules.FindByTriple(ctx, triple); err == nil {
		return existing, nil
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	schedule.OpeningHour = r.OpeningHour
	schedule.CloseHour = r.CloseHour
	schedule.OvertimeStartHour = r.OvertimeStartHour
	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *Service) findOrCreateSchedule(ctx context.Context, r model.ScheduleRange) (*model.SlotSchedule, error) {
	triple := tripleOf(r)

	existing, err := s.schedules.FindByTriple(ctx, triple)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	schedule := &model.SlotSchedule{
		OpeningHour:       r.OpeningHour,
		CloseHour:         r.CloseHour,
		OvertimeStartHour: r.OvertimeStartHour,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func tripleOf(r model.ScheduleRange) model.ScheduleTriple {
	triple := model.ScheduleTriple{OpeningHour: r.OpeningHour, CloseHour: r.CloseHour}
	if r.OvertimeStartHour != nil {
		triple.OvertimeStartHour = *r.OvertimeStartHour
	}
	return triple
}

// validateRange enforces opening < close and, when present,
// opening < overtime < close.
func validateRange(r model.ScheduleRange) error {
	openMin, err := timeutil.ParseHour(r.OpeningHour)
	if err != nil {
		return apperrors.BadRequest(err.Error(), err)
	}
	closeMin, err := timeutil.ParseHour(r.CloseHour)
	if err != nil {
		return apperrors.BadRequest(err.Error(), err)
	}
	if openMin >= closeMin {
		return apperrors.BadRequest(
			fmt.Sprintf("opening hour %s must be before close hour %s", r.OpeningHour, r.CloseHour), nil)
	}

	if r.OvertimeStartHour != nil {
		overtimeMin, err := timeutil.ParseHour(*r.OvertimeStartHour)
		if err != nil {
			return apperrors.BadRequest(err.Error(), err)
		}
		if overtimeMin <= openMin || overtimeMin >= closeMin {
			return apperrors.BadRequest(
				fmt.Sprintf("overtime start %s must be strictly between %s and %s",
					*r.OvertimeStartHour, r.OpeningHour, r.CloseHour), nil)
		}
	}
	return nil
}
