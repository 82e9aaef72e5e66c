package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentCategory optionally restricts when appointments of that kind
// may be offered.
type AppointmentCategory struct {
	Base
	Name    string            `db:"name" json:"name"`
	Windows []*CategoryWindow `db:"-" json:"windows,omitempty"`
}

// CategoryWindow is one (weekday, start, end) availability window for a
// category. A category with no windows at all is unrestricted.
type CategoryWindow struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	CategoryID uuid.UUID    `db:"category_id" json:"category_id"`
	Weekday    time.Weekday `db:"weekday" json:"weekday"`
	StartTime  string       `db:"start_time" json:"start_time"`
	EndTime    string       `db:"end_time" json:"end_time"`
}
