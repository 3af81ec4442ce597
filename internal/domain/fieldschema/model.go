package fieldschema

import (
	"time"

	"github.com/google/uuid"
)

// FieldType is the closed set of custom field types. The type fixes which
// slot of a field value is meaningful, so every codec and renderer boundary
// switches over it exhaustively.
type FieldType string

const (
	TypeDropdown FieldType = "dropdown"
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeCheckbox FieldType = "checkbox"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeDropdown, TypeText, TypeNumber, TypeCheckbox:
		return true
	}
	return false
}

// ZeroRaw returns the form-level zero value for the type: the value a field
// holds when it has been rendered but not answered.
func (t FieldType) ZeroRaw() interface{} {
	switch t {
	case TypeDropdown:
		return ""
	case TypeText:
		return ""
	case TypeNumber:
		return float64(0)
	case TypeCheckbox:
		return false
	}
	return nil
}

// FieldDefinition is an administrator-defined data-capture point. A nil
// ClientID means the field is global and applies to every client.
type FieldDefinition struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Label        string     `db:"label" json:"label"`
	Type         FieldType  `db:"field_type" json:"type"`
	DisplayOrder int        `db:"display_order" json:"order"`
	Required     bool       `db:"required" json:"required"`
	Active       bool       `db:"active" json:"active"`
	ClientID     *uuid.UUID `db:"client_id" json:"clientId,omitempty"`
	Choices      []Choice   `json:"choices,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Choice is one predefined option of a dropdown field, ordered within its field.
type Choice struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FieldID      uuid.UUID `db:"field_id" json:"fieldId"`
	Text         string    `db:"choice_text" json:"text"`
	DisplayOrder int       `db:"display_order" json:"order"`
}

// HasChoice reports whether the definition contains the given choice id.
func (f *FieldDefinition) HasChoice(choiceID uuid.UUID) bool {
	for _, c := range f.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

// CreateFieldInput is the admin-facing payload for defining a field.
type CreateFieldInput struct {
	Label        string     `json:"label"`
	Type         FieldType  `json:"type"`
	DisplayOrder int        `json:"order"`
	Required     bool       `json:"required"`
	ClientID     *uuid.UUID `json:"clientId,omitempty"`
	Choices      []string   `json:"choices,omitempty"` // ordered choice texts, dropdown only
}

// UpdateFieldInput is the admin-facing patch payload. Nil fields are left
// unchanged. Type may be echoed back by clients but a field's type is fixed
// at creation; any attempt to change it is rejected (see Service.UpdateField).
type UpdateFieldInput struct {
	Label        *string    `json:"label,omitempty"`
	Type         *FieldType `json:"type,omitempty"`
	DisplayOrder *int       `json:"order,omitempty"`
	Required     *bool      `json:"required,omitempty"`
	Active       *bool      `json:"active,omitempty"`
}
