package model

import (
	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending     AppointmentStatus = "PENDING"
	AppointmentStatusApproved    AppointmentStatus = "APPROVED"
	AppointmentStatusCompleted   AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled   AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow      AppointmentStatus = "NO_SHOW"
	AppointmentStatusAbsent      AppointmentStatus = "ABSENT"
	AppointmentStatusRescheduled AppointmentStatus = "RESCHEDULED"
	AppointmentStatusUnderReview AppointmentStatus = "UNDER_REVIEW"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow, AppointmentStatusAbsent,
		AppointmentStatusRescheduled, AppointmentStatusUnderReview:
		return true
	}
	return false
}

// ReminderState tracks one notification channel/window pair on an
// appointment. The zero value (unset) means no attempt has been made yet.
type ReminderState string

const (
	ReminderStateQueued ReminderState = "QUEUED"
	ReminderStateSent   ReminderState = "SENT"
	ReminderStateFailed ReminderState = "FAILED"
)

// ReminderField names one of the four per-channel reminder columns.
type ReminderField string

const (
	ReminderEmail3h    ReminderField = "email_reminder_3h"
	ReminderEmail24h   ReminderField = "email_reminder_24h"
	ReminderMessage3h  ReminderField = "message_reminder_3h"
	ReminderMessage24h ReminderField = "message_reminder_24h"
)

type Appointment struct {
	Base
	Date               string            `db:"date" json:"date"`
	Hour               string            `db:"hour" json:"hour"`
	Status             AppointmentStatus `db:"status" json:"status"`
	CustomDurationMins *int              `db:"custom_duration_mins" json:"custom_duration_mins,omitempty"`
	PractitionerID     uuid.UUID         `db:"practitioner_id" json:"practitioner_id"`
	PatientID          uuid.UUID         `db:"patient_id" json:"patient_id"`
	SlotID             uuid.UUID         `db:"slot_id" json:"slot_id"`
	ScheduleID         uuid.UUID         `db:"schedule_id" json:"schedule_id"`
	CategoryID         *uuid.UUID        `db:"category_id" json:"category_id,omitempty"`
	DurationMins       int               `db:"duration_mins" json:"duration_mins"`
	Reprogrammed       bool              `db:"reprogrammed" json:"reprogrammed"`
	EmailReminder3h    *ReminderState    `db:"email_reminder_3h" json:"email_reminder_3h,omitempty"`
	EmailReminder24h   *ReminderState    `db:"email_reminder_24h" json:"email_reminder_24h,omitempty"`
	MessageReminder3h  *ReminderState    `db:"message_reminder_3h" json:"message_reminder_3h,omitempty"`
	MessageReminder24h *ReminderState    `db:"message_reminder_24h" json:"message_reminder_24h,omitempty"`

	Patient      *Patient         `db:"-" json:"patient,omitempty"`
	Practitioner *Practitioner    `db:"-" json:"practitioner,omitempty"`
	Slot         *AppointmentSlot `db:"-" json:"slot,omitempty"`
	Schedule     *SlotSchedule    `db:"-" json:"schedule,omitempty"`
}

// EffectiveDuration resolves the interval length in minutes: explicit
// override first, then the stored duration.
func (a *Appointment) EffectiveDuration() int {
	if a.CustomDurationMins != nil && *a.CustomDurationMins > 0 {
		return *a.CustomDurationMins
	}
	if a.DurationMins > 0 {
		return a.DurationMins
	}
	return DefaultAppointmentDuration
}

// ReminderStateFor returns the current state of the named channel column.
func (a *Appointment) ReminderStateFor(field ReminderField) *ReminderState {
	switch field {
	case ReminderEmail3h:
		return a.EmailReminder3h
	case ReminderEmail24h:
		return a.EmailReminder24h
	case ReminderMessage3h:
		return a.MessageReminder3h
	case ReminderMessage24h:
		return a.MessageReminder24h
	}
	return nil
}

type CreateAppointmentRequest struct {
	PractitionerID     uuid.UUID          `json:"practitioner_id" validate:"required"`
	Patient            PatientRef         `json:"patient"`
	Date               string             `json:"date" validate:"required"`
	Hour               string             `json:"hour" validate:"required"`
	SlotID             *uuid.UUID         `json:"slot_id,omitempty"`
	ScheduleID         *uuid.UUID         `json:"schedule_id,omitempty"`
	CategoryID         *uuid.UUID         `json:"category_id,omitempty"`
	CustomDurationMins *int               `json:"custom_duration_mins,omitempty" validate:"omitempty,min=5"`
	Status             *AppointmentStatus `json:"status,omitempty"`
}

type ReprogramAppointmentRequest struct {
	Date       string    `json:"date" validate:"required"`
	Hour       string    `json:"hour" validate:"required"`
	SlotID     uuid.UUID `json:"slot_id" validate:"required"`
	ScheduleID uuid.UUID `json:"schedule_id" validate:"required"`
}

type AppointmentFilters struct {
	PractitionerID *uuid.UUID
	PatientID      *uuid.UUID
	Status         *AppointmentStatus
	DateFrom       string
	DateTo         string
}
