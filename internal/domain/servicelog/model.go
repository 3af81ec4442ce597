package servicelog

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentType is the builtin classification of one patient appointment.
type AppointmentType string

const (
	AppointmentNew      AppointmentType = "new"
	AppointmentFollowup AppointmentType = "followup"
	AppointmentDNA      AppointmentType = "dna"
)

// Valid reports whether t is a supported appointment type.
func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentNew, AppointmentFollowup, AppointmentDNA:
		return true
	}
	return false
}

// ServiceLog is one submitted batch of patient appointments for a client and
// activity on a service date.
type ServiceLog struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ClientID     uuid.UUID       `db:"client_id" json:"clientId"`
	ActivityID   uuid.UUID       `db:"activity_id" json:"activityId"`
	ServiceDate  time.Time       `db:"service_date" json:"serviceDate"`
	PatientCount int             `db:"patient_count" json:"patientCount"`
	CreatedBy    string          `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	Entries      []*PatientEntry `json:"entries"`
}

// PatientEntry is one appointment record within a service log. CustomFields
// is the transient form-level map used while composing and when returning a
// decoded log; it is never persisted verbatim — the codec converts it to
// FieldValue records at submission time.
type PatientEntry struct {
	ID              uuid.UUID                 `db:"id" json:"id"`
	ServiceLogID    uuid.UUID                 `db:"service_log_id" json:"serviceLogId"`
	AppointmentType AppointmentType           `db:"appointment_type" json:"appointmentType"`
	OutcomeID       uuid.UUID                 `db:"outcome_id" json:"outcomeId"`
	CustomFields    map[uuid.UUID]interface{} `json:"customFields,omitempty"`
}

// SubmitInput is the submission payload for a complete service log.
type SubmitInput struct {
	ClientID     uuid.UUID    `json:"clientId"`
	ActivityID   uuid.UUID    `json:"activityId"`
	ServiceDate  string       `json:"serviceDate"` // YYYY-MM-DD
	PatientCount int          `json:"patientCount"`
	Entries      []EntryInput `json:"entries"`
}

// EntryInput is one patient entry of a submission. CustomFields is keyed by
// field id with the raw form value (choice id string, text, number, or bool).
type EntryInput struct {
	AppointmentType AppointmentType        `json:"appointmentType"`
	OutcomeID       uuid.UUID              `json:"outcomeId"`
	CustomFields    map[string]interface{} `json:"customFields,omitempty"`
}

// ServiceDateLayout is the wire format of service dates.
const ServiceDateLayout = "2006-01-02"
