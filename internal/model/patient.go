package model

// Patient is the minimal patient record the booking flow needs. The
// document number is the unique identifier used for dedup on inline creates.
type Patient struct {
	Base
	Name     string `db:"name" json:"name"`
	Document string `db:"document" json:"document"`
	Email    string `db:"email" json:"email,omitempty"`
	Phone    string `db:"phone" json:"phone,omitempty"`
}

// NewPatientData is the inline variant of PatientRef.
type NewPatientData struct {
	Name     string `json:"name" validate:"required"`
	Document string `json:"document" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
}

// PatientRef is a tagged union: exactly one of PatientID or NewPatient must
// be set. Both or neither is rejected at the boundary.
type PatientRef struct {
	PatientID  *string         `json:"patient_id,omitempty"`
	NewPatient *NewPatientData `json:"new_patient,omitempty"`
}

// Valid reports whether exactly one variant is present.
func (r PatientRef) Valid() bool {
	return (r.PatientID != nil) != (r.NewPatient != nil)
}
