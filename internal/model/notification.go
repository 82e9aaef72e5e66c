package model

import "github.com/google/uuid"

type NotificationChannel string

const (
	NotificationChannelEmail   NotificationChannel = "email"
	NotificationChannelMessage NotificationChannel = "message"
)

const (
	NotificationKindConfirmation = "appointment_confirmation"
	NotificationKindReminder     = "appointment_reminder"
)

// NotificationJob is the payload handed to the notification transport. The
// appointment facts travel with the job so each channel can render its own
// copy; the idempotency key lets at-least-once consumers drop duplicates.
type NotificationJob struct {
	Channel        NotificationChannel    `json:"channel"`
	Kind           string                 `json:"kind"`
	AppointmentID  uuid.UUID              `json:"appointment_id"`
	Recipient      string                 `json:"recipient"`
	PatientName    string                 `json:"patient_name,omitempty"`
	Date           string                 `json:"date,omitempty"`
	Hour           string                 `json:"hour,omitempty"`
	Subject        string                 `json:"subject,omitempty"`
	Body           string                 `json:"body,omitempty"`
	IdempotencyKey string                 `json:"idempotency_key"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}
