package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
)

// All repository interfaces in one file
type (
	PractitionerRepository interface {
		Create(ctx context.Context, practitioner *model.Practitioner) error
		Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error)
		List(ctx context.Context) ([]*model.Practitioner, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		FindByDocument(ctx context.Context, document string) (*model.Patient, error)
	}

	// SlotRepository owns recurring weekly availability rows. Loaded slots
	// carry their schedules ordered by opening hour, then schedule id, so
	// resolution over them is deterministic.
	SlotRepository interface {
		Create(ctx context.Context, slot *model.AppointmentSlot) error
		Get(ctx context.Context, id uuid.UUID) (*model.AppointmentSlot, error)
		Update(ctx context.Context, slot *model.AppointmentSlot) error
		SoftDelete(ctx context.Context, id uuid.UUID) error
		Restore(ctx context.Context, id uuid.UUID) error
		ListForPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.AppointmentSlot, error)
		ListForWeekday(ctx context.Context, practitionerID uuid.UUID, weekday time.Weekday, includeUnavailable bool) ([]*model.AppointmentSlot, error)
		AttachSchedules(ctx context.Context, slotID uuid.UUID, scheduleIDs []uuid.UUID) error
		ReplaceSchedules(ctx context.Context, slotID uuid.UUID, scheduleIDs []uuid.UUID) error
	}

	ScheduleRepository interface {
		Create(ctx context.Context, schedule *model.SlotSchedule) error
		Get(ctx context.Context, id uuid.UUID) (*model.SlotSchedule, error)
		Update(ctx context.Context, schedule *model.SlotSchedule) error
		FindByTriple(ctx context.Context, triple model.ScheduleTriple) (*model.SlotSchedule, error)
		ListForSlot(ctx context.Context, slotID uuid.UUID) ([]*model.SlotSchedule, error)
	}

	// AppointmentReader is the read surface the overlap check needs. The
	// booking transaction substitutes a tx-bound implementation so the
	// overlap scan and the insert see the same snapshot.
	AppointmentReader interface {
		ListForPractitionerDate(ctx context.Context, practitionerID uuid.UUID, date string, excludeID *uuid.UUID) ([]*model.Appointment, error)
	}

	AppointmentRepository interface {
		AppointmentReader
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		Cancel(ctx context.Context, id uuid.UUID) error
		Reprogram(ctx context.Context, id uuid.UUID, date, hour string, slotID, scheduleID uuid.UUID) error
		ListInReminderWindow(ctx context.Context, date, fromHour, toHour string) ([]*model.Appointment, error)
		SetReminderState(ctx context.Context, id uuid.UUID, field model.ReminderField, state model.ReminderState) error
		ClaimReminder(ctx context.Context, id uuid.UUID, field model.ReminderField) (bool, error)
		MarkAbsent(ctx context.Context, date string) (int64, error)
	}

	CategoryRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.AppointmentCategory, error)
		ListWindows(ctx context.Context, categoryID uuid.UUID) ([]*model.CategoryWindow, error)
	}

	// BookingTx bundles the repositories that must share one transaction
	// during the booking flow.
	BookingTx interface {
		Patients() PatientRepository
		Appointments() AppointmentRepository
	}

	// TxRunner executes fn inside a single database transaction; any error
	// rolls every write back.
	TxRunner interface {
		InTx(ctx context.Context, fn func(tx BookingTx) error) error
	}
)
