package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
	"github.com/jwalitptl/scheduling-api/pkg/timeutil"
)

// CategoryReader resolves a category's availability windows. The production
// implementation caches reads (see CachedCategoryReader); tests use fakes.
type CategoryReader interface {
	ListWindows(ctx context.Context, categoryID uuid.UUID) ([]*model.CategoryWindow, error)
}

// Offer is one bookable start time and the slot/schedule it resolves to.
type Offer struct {
	Time       string    `json:"time"`
	SlotID     uuid.UUID `json:"slot_id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
}

// DayAvailability is the generator's result: offerable start times plus the
// already-booked hours for that date.
type DayAvailability struct {
	Available []Offer  `json:"available"`
	Booked    []string `json:"booked"`
}

// Generator enumerates offerable start times for one practitioner day.
// Unlike the OverlapValidator it does honor the overtime boundary: offered
// times never reach into a schedule's overtime sub-range.
type Generator struct {
	slots      repository.SlotRepository
	appts      repository.AppointmentRepository
	categories CategoryReader
	loc        *time.Location
	now        func() time.Time
}

func NewGenerator(slots repository.SlotRepository, appts repository.AppointmentRepository, categories CategoryReader, loc *time.Location) *Generator {
	return &Generator{
		slots:      slots,
		appts:      appts,
		categories: categories,
		loc:        loc,
		now:        time.Now,
	}
}

type window struct {
	start int
	end   int
}

func (g *Generator) ListAvailable(ctx context.Context, practitionerID uuid.UUID, date string, categoryID *uuid.UUID) (*DayAvailability, error) {
	day, err := timeutil.ParseDate(date, g.loc)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	// Category windows restrict the whole day when configured. A category
	// with windows but none on this weekday blocks the day entirely; a
	// category with no windows at all is unrestricted.
	var categoryWindows []window
	if categoryID != nil {
		configured, err := g.categories.ListWindows(ctx, *categoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to load category windows: %w", err)
		}
		if len(configured) > 0 {
			categoryWindows = windowsForWeekday(configured, day.Weekday())
			if len(categoryWindows) == 0 {
				return &DayAvailability{Available: []Offer{}, Booked: []string{}}, nil
			}
		}
	}

	existing, err := g.appts.ListForPractitionerDate(ctx, practitionerID, date, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing appointments: %w", err)
	}

	booked := make([]string, 0, len(existing))
	for _, appointment := range existing {
		booked = append(booked, appointment.Hour)
	}

	slots, err := g.slots.ListForWeekday(ctx, practitionerID, day.Weekday(), false)
	if err != nil {
		return nil, fmt.Errorf("failed to load practitioner slots: %w", err)
	}

	now := g.now().In(g.loc)
	available := make([]Offer, 0)

	for _, slot := range slots {
		step := slot.DurationMins
		if step <= 0 {
			step = model.DefaultAppointmentDuration
		}

		for _, schedule := range slot.Schedules {
			openMin, closeMin, err := scheduleBounds(schedule)
			if err != nil {
				continue
			}

			// Overtime caps what gets offered, even though the schedule
			// technically extends to the close hour.
			effectiveClose := closeMin
			if schedule.OvertimeStartHour != nil {
				if overtimeMin, err := timeutil.ParseHour(*schedule.OvertimeStartHour); err == nil && overtimeMin < effectiveClose {
					effectiveClose = overtimeMin
				}
			}

			for _, win := range intersect(window{openMin, effectiveClose}, categoryWindows) {
				for t := win.start; t+step <= win.end; t += step {
					if !timeutil.At(day, t).After(now) {
						continue
					}
					if findOverlap(existing, t, t+step) != nil {
						continue
					}
					available = append(available, Offer{
						Time:       timeutil.MinutesToHour(t),
						SlotID:     slot.ID,
						ScheduleID: schedule.ID,
					})
				}
			}
		}
	}

	sort.Slice(available, func(i, j int) bool {
		if available[i].Time != available[j].Time {
			return available[i].Time < available[j].Time
		}
		return available[i].SlotID.String() < available[j].SlotID.String()
	})

	return &DayAvailability{Available: available, Booked: booked}, nil
}

func windowsForWeekday(configured []*model.CategoryWindow, weekday time.Weekday) []window {
	var out []window
	for _, w := range configured {
		if w.Weekday != weekday {
			continue
		}
		start, err := timeutil.ParseHour(w.StartTime)
		if err != nil {
			continue
		}
		end, err := timeutil.ParseHour(w.EndTime)
		if err != nil {
			continue
		}
		if start < end {
			out = append(out, window{start, end})
		}
	}
	return out
}

// intersect clips base against each restriction window, or returns base
// unchanged when unrestricted. Empty intersections are dropped.
func intersect(base window, restrictions []window) []window {
	if len(restrictions) == 0 {
		if base.start < base.end {
			return []window{base}
		}
		return nil
	}

	var out []window
	for _, r := range restrictions {
		lo := base.start
		if r.start > lo {
			lo = r.start
		}
		hi := base.end
		if r.end < hi {
			hi = r.end
		}
		if lo < hi {
			out = append(out, window{lo, hi})
		}
	}
	return out
}
