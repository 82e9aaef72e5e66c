package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-api/internal/email"
	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/pkg/messaging"
)

const messageTopic = "notifications.message"

// Service is the narrow notification transport the scheduling core talks
// to: fire-and-forget, at-least-once. Email goes straight to SMTP; message
// jobs are published to the broker for the downstream sender to consume.
type Service interface {
	Enqueue(ctx context.Context, job *model.NotificationJob) error
}

type service struct {
	broker   messaging.Broker
	emailSvc email.Service
	logger   zerolog.Logger
}

func NewService(broker messaging.Broker, emailSvc email.Service, logger zerolog.Logger) Service {
	return &service{
		broker:   broker,
		emailSvc: emailSvc,
		logger:   logger,
	}
}

func (s *service) Enqueue(ctx context.Context, job *model.NotificationJob) error {
	switch job.Channel {
	case model.NotificationChannelEmail:
		if err := s.sendEmail(ctx, job); err != nil {
			return fmt.Errorf("failed to send email notification: %w", err)
		}
		return nil
	case model.NotificationChannelMessage:
		if err := s.broker.Publish(ctx, messageTopic, job); err != nil {
			return fmt.Errorf("failed to enqueue message notification: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported notification channel: %s", job.Channel)
	}
}

// sendEmail renders the known job kinds with their dedicated templates and
// falls back to the job's own subject and body for anything else.
func (s *service) sendEmail(ctx context.Context, job *model.NotificationJob) error {
	switch job.Kind {
	case model.NotificationKindConfirmation:
		return s.emailSvc.SendAppointmentConfirmation(ctx, job.Recipient, job.PatientName, job.Date, job.Hour)
	case model.NotificationKindReminder:
		return s.emailSvc.SendAppointmentReminder(ctx, job.Recipient, job.PatientName, job.Date, job.Hour)
	default:
		return s.emailSvc.SendCustom(ctx, job.Recipient, job.Subject, job.Body)
	}
}
