package availability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
	"github.com/jwalitptl/scheduling-api/pkg/timeutil"
)

// ErrNoAvailability means no slot/schedule covers the requested date+hour.
// Callers surface it as a rejected booking, not an internal failure.
var ErrNoAvailability = errors.New("no availability for this date and time")

// Resolution is the outcome of auto-resolving a raw date+hour.
type Resolution struct {
	Slot     *model.AppointmentSlot
	Schedule *model.SlotSchedule
}

// Resolver maps (practitioner, date, hour) to a concrete slot and schedule
// when the caller did not supply explicit ids.
//
// When several schedules cover the same hour the winner is deterministic:
// earliest opening hour first, then lowest schedule id, then lowest slot id.
type Resolver struct {
	slots repository.SlotRepository
	loc   *time.Location
}

func NewResolver(slots repository.SlotRepository, loc *time.Location) *Resolver {
	return &Resolver{slots: slots, loc: loc}
}

func (r *Resolver) Resolve(ctx context.Context, practitionerID uuid.UUID, date, hour string) (*Resolution, error) {
	day, err := timeutil.ParseDate(date, r.loc)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	hourMin, err := timeutil.ParseHour(hour)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	slots, err := r.slots.ListForWeekday(ctx, practitionerID, day.Weekday(), false)
	if err != nil {
		return nil, fmt.Errorf("failed to load practitioner slots: %w", err)
	}

	var best *Resolution
	var bestOpen int
	for _, slot := range slots {
		for _, schedule := range slot.Schedules {
			openMin, closeMin, err := scheduleBounds(schedule)
			if err != nil {
				continue
			}
			if hourMin < openMin || hourMin >= closeMin {
				continue
			}
			candidate := &Resolution{Slot: slot, Schedule: schedule}
			if best == nil || lessResolution(openMin, candidate, bestOpen, best) {
				best = candidate
				bestOpen = openMin
			}
		}
	}

	if best == nil {
		return nil, ErrNoAvailability
	}
	return best, nil
}

func lessResolution(aOpen int, a *Resolution, bOpen int, b *Resolution) bool {
	if aOpen != bOpen {
		return aOpen < bOpen
	}
	if c := bytes.Compare(a.Schedule.ID[:], b.Schedule.ID[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(a.Slot.ID[:], b.Slot.ID[:]) < 0
}
