package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentSlot is a practitioner's recurring availability on one weekday.
// Its schedules are shared rows, deduplicated by the exact
// (opening, close, overtime) triple.
type AppointmentSlot struct {
	Base
	PractitionerID uuid.UUID       `db:"practitioner_id" json:"practitioner_id"`
	Weekday        time.Weekday    `db:"weekday" json:"weekday"`
	Unavailable    bool            `db:"unavailable" json:"unavailable"`
	DurationMins   int             `db:"duration_mins" json:"duration_mins"`
	Location       *string         `db:"location" json:"location,omitempty"`
	Schedules      []*SlotSchedule `db:"-" json:"schedules,omitempty"`
}

// SlotSchedule is a contiguous opening-closing range attached to a slot,
// with an optional overtime sub-boundary.
type SlotSchedule struct {
	Base
	OpeningHour       string  `db:"opening_hour" json:"opening_hour"`
	CloseHour         string  `db:"close_hour" json:"close_hour"`
	OvertimeStartHour *string `db:"overtime_start_hour" json:"overtime_start_hour,omitempty"`
}

// Triple returns the dedup key for schedule sharing.
func (s *SlotSchedule) Triple() ScheduleTriple {
	t := ScheduleTriple{OpeningHour: s.OpeningHour, CloseHour: s.CloseHour}
	if s.OvertimeStartHour != nil {
		t.OvertimeStartHour = *s.OvertimeStartHour
	}
	return t
}

// ScheduleTriple is the comparable identity of a schedule range.
type ScheduleTriple struct {
	OpeningHour       string
	CloseHour         string
	OvertimeStartHour string
}

// ScheduleRange is the request shape for one schedule, resolvable either by
// id or by raw hours.
type ScheduleRange struct {
	ID                *uuid.UUID `json:"id,omitempty"`
	OpeningHour       string     `json:"opening_hour" validate:"required"`
	CloseHour         string     `json:"close_hour" validate:"required"`
	OvertimeStartHour *string    `json:"overtime_start_hour,omitempty"`
}

type CreateSlotRequest struct {
	PractitionerID uuid.UUID       `json:"practitioner_id" validate:"required"`
	Weekday        time.Weekday    `json:"weekday" validate:"min=0,max=6"`
	DurationMins   int             `json:"duration_mins" validate:"omitempty,min=5"`
	Location       *string         `json:"location,omitempty"`
	Schedules      []ScheduleRange `json:"schedules" validate:"required,min=1,dive"`
}

type UpdateSlotRequest struct {
	Unavailable  *bool            `json:"unavailable,omitempty"`
	DurationMins *int             `json:"duration_mins,omitempty"`
	Location     *string          `json:"location,omitempty"`
	Schedules    *[]ScheduleRange `json:"schedules,omitempty"`
}
