package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
	"github.com/jwalitptl/scheduling-api/pkg/timeutil"
)

// OverlapValidator enforces the core booking invariants: the candidate
// interval must be in the future, must fit entirely inside one of the
// practitioner's schedule windows for that weekday, and must not intersect
// any existing non-cancelled appointment.
//
// The overtime boundary is deliberately not enforced here. Overtime only
// restricts automatically offered times (see Generator); a caller that names
// an hour inside the overtime sub-range explicitly may book it.
type OverlapValidator struct {
	slots repository.SlotRepository
	loc   *time.Location
	now   func() time.Time
}

func NewOverlapValidator(slots repository.SlotRepository, loc *time.Location) *OverlapValidator {
	return &OverlapValidator{
		slots: slots,
		loc:   loc,
		now:   time.Now,
	}
}

// ValidateInput is one candidate booking interval. DurationMins must already
// be resolved (explicit override, else slot duration, else practitioner
// default). ExcludeAppointmentID removes one appointment from the overlap
// scan so a booking being moved does not collide with itself.
type ValidateInput struct {
	PractitionerID       uuid.UUID
	Date                 string
	Hour                 string
	DurationMins         int
	ExcludeAppointmentID *uuid.UUID
}

// Validate checks in against the practitioner's configured hours and the
// appointments visible through appts. The reader is a parameter so the
// booking transaction can supply its tx-bound view.
func (v *OverlapValidator) Validate(ctx context.Context, appts repository.AppointmentReader, in ValidateInput) error {
	day, err := timeutil.ParseDate(in.Date, v.loc)
	if err != nil {
		return apperrors.BadRequest(err.Error(), err)
	}
	startMin, err := timeutil.ParseHour(in.Hour)
	if err != nil {
		return apperrors.BadRequest(err.Error(), err)
	}
	if in.DurationMins <= 0 {
		return apperrors.BadRequest("appointment duration must be positive", nil)
	}

	if !timeutil.At(day, startMin).After(v.now().In(v.loc)) {
		return apperrors.BadRequest("appointment time must be in the future", nil)
	}

	endMin := startMin + in.DurationMins

	slots, err := v.slots.ListForWeekday(ctx, in.PractitionerID, day.Weekday(), false)
	if err != nil {
		return fmt.Errorf("failed to load practitioner slots: %w", err)
	}

	if !fitsAnyWindow(slots, startMin, endMin) {
		return apperrors.Conflict(
			fmt.Sprintf("%s-%s does not fall within the practitioner's working hours", in.Hour, timeutil.MinutesToHour(endMin)), nil)
	}

	existing, err := appts.ListForPractitionerDate(ctx, in.PractitionerID, in.Date, in.ExcludeAppointmentID)
	if err != nil {
		return fmt.Errorf("failed to load existing appointments: %w", err)
	}

	if other := findOverlap(existing, startMin, endMin); other != nil {
		return apperrors.Conflict(
			fmt.Sprintf("overlaps an existing appointment at %s", other.Hour), nil)
	}

	return nil
}

// fitsAnyWindow reports whether [startMin, endMin) lies entirely within at
// least one schedule window of the given slots.
func fitsAnyWindow(slots []*model.AppointmentSlot, startMin, endMin int) bool {
	for _, slot := range slots {
		for _, schedule := range slot.Schedules {
			openMin, closeMin, err := scheduleBounds(schedule)
			if err != nil {
				continue
			}
			if startMin >= openMin && endMin <= closeMin {
				return true
			}
		}
	}
	return false
}

// findOverlap returns the first appointment whose half-open interval
// intersects [startMin, endMin). Touching endpoints do not count.
func findOverlap(existing []*model.Appointment, startMin, endMin int) *model.Appointment {
	for _, other := range existing {
		otherStart, err := timeutil.ParseHour(other.Hour)
		if err != nil {
			continue
		}
		otherEnd := otherStart + other.EffectiveDuration()
		if startMin < otherEnd && endMin > otherStart {
			return other
		}
	}
	return nil
}

// scheduleBounds parses a schedule's opening and close hours to minutes.
func scheduleBounds(schedule *model.SlotSchedule) (openMin, closeMin int, err error) {
	openMin, err = timeutil.ParseHour(schedule.OpeningHour)
	if err != nil {
		return 0, 0, err
	}
	closeMin, err = timeutil.ParseHour(schedule.CloseHour)
	if err != nil {
		return 0, 0, err
	}
	return openMin, closeMin, nil
}
