package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/scheduling-api/internal/config"
)

type Service interface {
	SendAppointmentConfirmation(ctx context.Context, to, patientName, date, hour string) error
	SendAppointmentReminder(ctx context.Context, to, patientName, date, hour string) error
	SendCustom(ctx context.Context, to, subject, content string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.EmailConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendAppointmentConfirmation(ctx context.Context, to, patientName, date, hour string) error {
	subject := "Your appointment is confirmed"
	body := fmt.Sprintf("Hello %s,\n\nYour appointment has been booked for %s at %s.\n\nSee you then!", patientName, date, hour)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendAppointmentReminder(ctx context.Context, to, patientName, date, hour string) error {
	subject := "Appointment reminder"
	body := fmt.Sprintf("Hello %s,\n\nThis is a reminder for your appointment on %s at %s.", patientName, date, hour)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send(ctx, to, subject, content)
}

func (s *smtpService) send(_ context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
