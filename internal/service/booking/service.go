package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	"github.com/jwalitptl/scheduling-api/internal/service/availability"
	"github.com/jwalitptl/scheduling-api/internal/service/notification"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
	"github.com/jwalitptl/scheduling-api/pkg/timeutil"
)

// Service orchestrates the booking flow: patient resolution, slot/schedule
// resolution, overlap validation and the appointment insert run as one
// database transaction, so a failure anywhere leaves nothing behind.
type Service struct {
	store         repository.TxRunner
	practitioners repository.PractitionerRepository
	patients      repository.PatientRepository
	slots         repository.SlotRepository
	schedules     repository.ScheduleRepository
	appts         repository.AppointmentRepository
	resolver      *availability.Resolver
	validator     *availability.OverlapValidator
	notifier      notification.Service
	loc           *time.Location
	logger        zerolog.Logger
}

func NewService(
	store repository.TxRunner,
	practitioners repository.PractitionerRepository,
	patients repository.PatientRepository,
	slots repository.SlotRepository,
	schedules repository.ScheduleRepository,
	appts repository.AppointmentRepository,
	resolver *availability.Resolver,
	validator *availability.OverlapValidator,
	notifier notification.Service,
	loc *time.Location,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:         store,
		practitioners: practitioners,
		patients:      patients,
		slots:         slots,
		schedules:     schedules,
		appts:         appts,
		resolver:      resolver,
		validator:     validator,
		notifier:      notifier,
		loc:           loc,
		logger:        logger,
	}
}

func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}
	if !req.Patient.Valid() {
		return nil, apperrors.BadRequest("exactly one of patient_id or new_patient must be provided", nil)
	}

	practitioner, err := s.practitioners.Get(ctx, req.PractitionerID)
	if err != nil {
		return nil, err
	}

	day, err := timeutil.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	slot, schedule, err := s.resolveSlotSchedule(ctx, req)
	if err != nil {
		return nil, err
	}

	if slot.Weekday != day.Weekday() {
		return nil, apperrors.Conflict(
			fmt.Sprintf("slot is for %s but %s is a %s", slot.Weekday, req.Date, day.Weekday()), nil)
	}

	status := model.AppointmentStatusPending
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid status %q", *req.Status), nil)
		}
		status = *req.Status
	}

	duration := effectiveDuration(req.CustomDurationMins, slot, practitioner)

	appointment := &model.Appointment{
		Date:               req.Date,
		Hour:               req.Hour,
		Status:             status,
		CustomDurationMins: req.CustomDurationMins,
		PractitionerID:     practitioner.ID,
		SlotID:             slot.ID,
		ScheduleID:         schedule.ID,
		CategoryID:         req.CategoryID,
		DurationMins:       duration,
	}

	var patient *model.Patient
	err = s.store.InTx(ctx, func(tx repository.BookingTx) error {
		patient, err = s.resolvePatient(ctx, tx.Patients(), req.Patient)
		if err != nil {
			return err
		}
		appointment.PatientID = patient.ID

		if err := s.validator.Validate(ctx, tx.Appointments(), availability.ValidateInput{
			PractitionerID: practitioner.ID,
			Date:           req.Date,
			Hour:           req.Hour,
			DurationMins:   duration,
		}); err != nil {
			return err
		}

		return tx.Appointments().Create(ctx, appointment)
	})
	if err != nil {
		return nil, err
	}

	appointment.Patient = patient
	appointment.Practitioner = practitioner
	appointment.Slot = slot
	appointment.Schedule = schedule

	// Confirmation side effects are best-effort: a transport failure is
	// logged and must never undo the booking.
	s.sendConfirmation(ctx, appointment, patient)

	return appointment, nil
}

func (s *Service) ReprogramAppointment(ctx context.Context, id uuid.UUID, req *model.ReprogramAppointmentRequest) (*model.Appointment, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	appointment, err := s.appts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	day, err := timeutil.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	slot, err := s.slots.Get(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.PractitionerID != appointment.PractitionerID {
		return nil, apperrors.Conflict("slot belongs to a different practitioner", nil)
	}
	if slot.Weekday != day.Weekday() {
		return nil, apperrors.Conflict(
			fmt.Sprintf("slot is for %s but %s is a %s", slot.Weekday, req.Date, day.Weekday()), nil)
	}

	schedule, err := s.scheduleOfSlot(ctx, slot, req.ScheduleID)
	if err != nil {
		return nil, err
	}

	practitioner, err := s.practitioners.Get(ctx, appointment.PractitionerID)
	if err != nil {
		return nil, err
	}
	duration := effectiveDuration(appointment.CustomDurationMins, slot, practitioner)

	err = s.store.InTx(ctx, func(tx repository.BookingTx) error {
		if err := s.validator.Validate(ctx, tx.Appointments(), availability.ValidateInput{
			PractitionerID:       appointment.PractitionerID,
			Date:                 req.Date,
			Hour:                 req.Hour,
			DurationMins:         duration,
			ExcludeAppointmentID: &id,
		}); err != nil {
			return err
		}

		return tx.Appointments().Reprogram(ctx, id, req.Date, req.Hour, slot.ID, schedule.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.GetAppointment(ctx, id)
}

func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	appointment, err := s.appts.Get(ctx, id)
	if err != nil {
		return err
	}

	switch appointment.Status {
	case model.AppointmentStatusCancelled:
		return apperrors.Conflict("appointment is already cancelled", nil)
	case model.AppointmentStatusCompleted:
		return apperrors.Conflict("cannot cancel a completed appointment", nil)
	}

	return s.appts.Cancel(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	if !status.Valid() {
		return apperrors.BadRequest(fmt.Sprintf("invalid status %q", status), nil)
	}

	// Cancellation also soft-deletes the row, so it goes through the
	// cancel flow rather than a bare status write.
	if status == model.AppointmentStatusCancelled {
		return s.CancelAppointment(ctx, id)
	}

	appointment, err := s.appts.Get(ctx, id)
	if err != nil {
		return err
	}
	switch appointment.Status {
	case model.AppointmentStatusCancelled, model.AppointmentStatusCompleted:
		return apperrors.Conflict(fmt.Sprintf("cannot change status of a %s appointment", appointment.Status), nil)
	}

	return s.appts.UpdateStatus(ctx, id, status)
}

// GetAppointment returns the appointment with patient, practitioner, slot
// and schedule resolved.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if appointment.Patient, err = s.patients.Get(ctx, appointment.PatientID); err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	if appointment.Practitioner, err = s.practitioners.Get(ctx, appointment.PractitionerID); err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	if appointment.Slot, err = s.slots.Get(ctx, appointment.SlotID); err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	if appointment.Schedule, err = s.schedules.Get(ctx, appointment.ScheduleID); err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	return appointment, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.appts.List(ctx, filters)
}

// resolveSlotSchedule loads the explicitly named slot and schedule, or runs
// auto-resolution when neither id was supplied.
func (s *Service) resolveSlotSchedule(ctx context.Context, req *model.CreateAppointmentRequest) (*model.AppointmentSlot, *model.SlotSchedule, error) {
	if (req.SlotID == nil) != (req.ScheduleID == nil) {
		return nil, nil, apperrors.BadRequest("slot_id and schedule_id must be supplied together", nil)
	}

	if req.SlotID == nil {
		resolution, err := s.resolver.Resolve(ctx, req.PractitionerID, req.Date, req.Hour)
		if err != nil {
			if errors.Is(err, availability.ErrNoAvailability) {
				return nil, nil, apperrors.BadRequest("no availability for this date and time", err)
			}
			return nil, nil, err
		}
		return resolution.Slot, resolution.Schedule, nil
	}

	slot, err := s.slots.Get(ctx, *req.SlotID)
	if err != nil {
		return nil, nil, err
	}
	if slot.PractitionerID != req.PractitionerID {
		return nil, nil, apperrors.Conflict("slot belongs to a different practitioner", nil)
	}

	schedule, err := s.scheduleOfSlot(ctx, slot, *req.ScheduleID)
	if err != nil {
		return nil, nil, err
	}
	return slot, schedule, nil
}

// scheduleOfSlot confirms the schedule is attached to the slot.
func (s *Service) scheduleOfSlot(ctx context.Context, slot *model.AppointmentSlot, scheduleID uuid.UUID) (*model.SlotSchedule, error) {
	for _, schedule := range slot.Schedules {
		if schedule.ID == scheduleID {
			return schedule, nil
		}
	}

	if _, err := s.schedules.Get(ctx, scheduleID); apperrors.IsNotFound(err) {
		return nil, err
	}
	return nil, apperrors.Conflict("schedule does not belong to the slot", nil)
}

// resolvePatient implements the tagged union: an existing id is loaded, an
// inline patient is deduplicated by document before being created.
func (s *Service) resolvePatient(ctx context.Context, patients repository.PatientRepository, ref model.PatientRef) (*model.Patient, error) {
	if ref.PatientID != nil {
		id, err := uuid.Parse(*ref.PatientID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid patient id", err)
		}
		return patients.Get(ctx, id)
	}

	existing, err := patients.FindByDocument(ctx, ref.NewPatient.Document)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	patient := &model.Patient{
		Name:     ref.NewPatient.Name,
		Document: ref.NewPatient.Document,
		Email:    ref.NewPatient.Email,
		Phone:    ref.NewPatient.Phone,
	}
	if err := patients.Create(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) sendConfirmation(ctx context.Context, appointment *model.Appointment, patient *model.Patient) {
	if patient.Email != "" {
		job := &model.NotificationJob{
			Channel:        model.NotificationChannelEmail,
			Kind:           model.NotificationKindConfirmation,
			AppointmentID:  appointment.ID,
			Recipient:      patient.Email,
			PatientName:    patient.Name,
			Date:           appointment.Date,
			Hour:           appointment.Hour,
			IdempotencyKey: fmt.Sprintf("confirm-email-%s", appointment.ID),
		}
		if err := s.notifier.Enqueue(ctx, job); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", appointment.ID.String()).Msg("failed to send confirmation email")
		}
	}

	if patient.Phone != "" {
		job := &model.NotificationJob{
			Channel:        model.NotificationChannelMessage,
			Kind:           model.NotificationKindConfirmation,
			AppointmentID:  appointment.ID,
			Recipient:      patient.Phone,
			Date:           appointment.Date,
			Hour:           appointment.Hour,
			Body:           fmt.Sprintf("Your appointment is booked for %s at %s.", appointment.Date, appointment.Hour),
			IdempotencyKey: fmt.Sprintf("confirm-message-%s", appointment.ID),
		}
		if err := s.notifier.Enqueue(ctx, job); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", appointment.ID.String()).Msg("failed to enqueue confirmation message")
		}
	}
}

func effectiveDuration(override *int, slot *model.AppointmentSlot, practitioner *model.Practitioner) int {
	if override != nil && *override > 0 {
		return *override
	}
	if slot.DurationMins > 0 {
		return slot.DurationMins
	}
	return practitioner.EffectiveDefaultDuration()
}
