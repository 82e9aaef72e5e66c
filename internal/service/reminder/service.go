package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	"github.com/jwalitptl/scheduling-api/internal/service/notification"
	"github.com/jwalitptl/scheduling-api/pkg/retry"
	"github.com/jwalitptl/scheduling-api/pkg/timeutil"
)

// Window offsets for the two reminder sweeps.
const (
	Offset24h = 24 * time.Hour
	Offset3h  = 3 * time.Hour
)

// Service implements the periodic reminder sweeps and the end-of-day
// absence sweep. Every database call goes through the bounded retry
// wrapper; transient failures back off, everything else surfaces
// immediately.
type Service struct {
	appts     repository.AppointmentRepository
	patients  repository.PatientRepository
	notifier  notification.Service
	loc       *time.Location
	window    time.Duration
	policy    retry.Policy
	transient retry.Classifier
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(
	appts repository.AppointmentRepository,
	patients repository.PatientRepository,
	notifier notification.Service,
	loc *time.Location,
	window time.Duration,
	policy retry.Policy,
	transient retry.Classifier,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appts:     appts,
		patients:  patients,
		notifier:  notifier,
		loc:       loc,
		window:    window,
		policy:    policy,
		transient: transient,
		logger:    logger,
		now:       time.Now,
	}
}

// SweepResult reports what one sweep did.
type SweepResult struct {
	Scanned int
	Sent    int
	Failed  int
}

func (s *Service) Sweep24h(ctx context.Context) (*SweepResult, error) {
	return s.sweep(ctx, Offset24h, model.ReminderEmail24h, model.ReminderMessage24h)
}

func (s *Service) Sweep3h(ctx context.Context) (*SweepResult, error) {
	return s.sweep(ctx, Offset3h, model.ReminderEmail3h, model.ReminderMessage3h)
}

// sweep targets the window [now+offset, now+offset+window) in the
// configured timezone and dispatches both channels for every PENDING or
// APPROVED appointment whose hour falls inside it.
func (s *Service) sweep(ctx context.Context, offset time.Duration, emailField, messageField model.ReminderField) (*SweepResult, error) {
	from := s.now().In(s.loc).Add(offset)
	to := from.Add(s.window)

	date := timeutil.FormatDate(from)
	fromHour := timeutil.FormatHour(from)
	toHour := timeutil.FormatHour(to)
	if to.Day() != from.Day() {
		// Window crosses midnight; clamp to the end of the target date.
		toHour = "24:00"
	}

	var appointments []*model.Appointment
	err := retry.Do(ctx, s.policy, s.transient, func(ctx context.Context) error {
		var err error
		appointments, err = s.appts.ListInReminderWindow(ctx, date, fromHour, toHour)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder window %s %s-%s: %w", date, fromHour, toHour, err)
	}

	result := &SweepResult{Scanned: len(appointments)}
	for _, appointment := range appointments {
		patient, err := s.loadPatient(ctx, appointment)
		if err != nil {
			s.logger.Error().Err(err).Str("appointment_id", appointment.ID.String()).Msg("skipping reminder, patient unavailable")
			result.Failed++
			continue
		}

		s.dispatchEmail(ctx, appointment, patient, emailField, result)
		s.dispatchMessage(ctx, appointment, patient, messageField, result)
	}
	return result, nil
}

// dispatchEmail is deliberately check-then-set rather than atomic: a
// duplicate reminder email under racing sweeps is a minor annoyance, not a
// correctness bug.
func (s *Service) dispatchEmail(ctx context.Context, appointment *model.Appointment, patient *model.Patient, field model.ReminderField, result *SweepResult) {
	if patient.Email == "" {
		return
	}
	if state := appointment.ReminderStateFor(field); state != nil && (*state == model.ReminderStateSent || *state == model.ReminderStateQueued) {
		return
	}

	if err := s.setState(ctx, appointment, field, model.ReminderStateQueued); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appointment.ID.String()).Msg("failed to queue email reminder")
		result.Failed++
		return
	}

	job := &model.NotificationJob{
		Channel:        model.NotificationChannelEmail,
		Kind:           model.NotificationKindReminder,
		AppointmentID:  appointment.ID,
		Recipient:      patient.Email,
		PatientName:    patient.Name,
		Date:           appointment.Date,
		Hour:           appointment.Hour,
		IdempotencyKey: fmt.Sprintf("%s-%s", field, appointment.ID),
	}

	s.finishDispatch(ctx, appointment, field, s.notifier.Enqueue(ctx, job), result)
}

// dispatchMessage must be exactly-once-attempted per window: the QUEUED
// transition is a single conditional update, and only the claimant that won
// it proceeds.
func (s *Service) dispatchMessage(ctx context.Context, appointment *model.Appointment, patient *model.Patient, field model.ReminderField, result *SweepResult) {
	if patient.Phone == "" {
		return
	}

	var claimed bool
	err := retry.Do(ctx, s.policy, s.transient, func(ctx context.Context) error {
		var err error
		claimed, err = s.appts.ClaimReminder(ctx, appointment.ID, field)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appointment.ID.String()).Msg("failed to claim message reminder")
		result.Failed++
		return
	}
	if !claimed {
		return
	}

	job := &model.NotificationJob{
		Channel:        model.NotificationChannelMessage,
		Kind:           model.NotificationKindReminder,
		AppointmentID:  appointment.ID,
		Recipient:      patient.Phone,
		Date:           appointment.Date,
		Hour:           appointment.Hour,
		Body:           fmt.Sprintf("Reminder: your appointment is on %s at %s.", appointment.Date, appointment.Hour),
		IdempotencyKey: fmt.Sprintf("%s-%s", field, appointment.ID),
	}

	s.finishDispatch(ctx, appointment, field, s.notifier.Enqueue(ctx, job), result)
}

// finishDispatch records the terminal state for one channel attempt. FAILED
// is the retry memory: the next sweep may claim it again.
func (s *Service) finishDispatch(ctx context.Context, appointment *model.Appointment, field model.ReminderField, sendErr error, result *SweepResult) {
	state := model.ReminderStateSent
	if sendErr != nil {
		state = model.ReminderStateFailed
		s.logger.Error().Err(sendErr).
			Str("appointment_id", appointment.ID.String()).
			Str("field", string(field)).
			Msg("reminder dispatch failed")
		result.Failed++
	} else {
		result.Sent++
	}

	if err := s.setState(ctx, appointment, field, state); err != nil {
		s.logger.Error().Err(err).
			Str("appointment_id", appointment.ID.String()).
			Str("field", string(field)).
			Msg("failed to record reminder state")
	}
}

func (s *Service) setState(ctx context.Context, appointment *model.Appointment, field model.ReminderField, state model.ReminderState) error {
	return retry.Do(ctx, s.policy, s.transient, func(ctx context.Context) error {
		return s.appts.SetReminderState(ctx, appointment.ID, field, state)
	})
}

func (s *Service) loadPatient(ctx context.Context, appointment *model.Appointment) (*model.Patient, error) {
	var patient *model.Patient
	err := retry.Do(ctx, s.policy, s.transient, func(ctx context.Context) error {
		var err error
		patient, err = s.patients.Get(ctx, appointment.PatientID)
		return err
	})
	return patient, err
}

// SweepAbsences transitions every still-PENDING appointment dated yesterday
// (in the configured timezone) to ABSENT.
func (s *Service) SweepAbsences(ctx context.Context) (int64, error) {
	yesterday := timeutil.FormatDate(s.now().In(s.loc).AddDate(0, 0, -1))

	var marked int64
	err := retry.Do(ctx, s.policy, s.transient, func(ctx context.Context) error {
		var err error
		marked, err = s.appts.MarkAbsent(ctx, yesterday)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to run absence sweep for %s: %w", yesterday, err)
	}

	if marked > 0 {
		s.logger.Info().Int64("marked", marked).Str("date", yesterday).Msg("absence sweep complete")
	}
	return marked, nil
}
