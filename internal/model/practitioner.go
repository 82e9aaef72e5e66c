package model

// DefaultAppointmentDuration applies when neither the appointment, its slot,
// nor the practitioner carries an explicit duration.
const DefaultAppointmentDuration = 30

type Practitioner struct {
	Base
	Name                string `db:"name" json:"name"`
	Email               string `db:"email" json:"email"`
	Phone               string `db:"phone" json:"phone,omitempty"`
	DefaultDurationMins int    `db:"default_duration_mins" json:"default_duration_mins"`
}

// EffectiveDefaultDuration returns the practitioner's configured default
// duration, falling back to the system default.
func (p *Practitioner) EffectiveDefaultDuration() int {
	if p.DefaultDurationMins > 0 {
		return p.DefaultDurationMins
	}
	return DefaultAppointmentDuration
}
