package servicelog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/domain/fieldschema"
)

// ValidationResult aggregates every violation found in a submission so the
// form can surface all of them in one pass. Form holds submission-level
// problems; Entries maps entry index to field id (or builtin field name) to
// message.
type ValidationResult struct {
	Valid   bool                      `json:"valid"`
	Form    []string                  `json:"form,omitempty"`
	Entries map[int]map[string]string `json:"entries,omitempty"`
}

func (r *ValidationResult) addForm(msg string) {
	r.Valid = false
	r.Form = append(r.Form, msg)
}

func (r *ValidationResult) addEntry(idx int, key, msg string) {
	r.Valid = false
	if r.Entries == nil {
		r.Entries = make(map[int]map[string]string)
	}
	if r.Entries[idx] == nil {
		r.Entries[idx] = make(map[string]string)
	}
	r.Entries[idx][key] = msg
}

// Validate checks a submission against the builtin invariants and the
// resolved field set. It never fails fast: every violation is collected.
// Running it twice on unchanged input yields identical results.
func Validate(input SubmitInput, fieldSet []*fieldschema.FieldDefinition) ValidationResult {
	result := ValidationResult{Valid: true}

	if input.ClientID == uuid.Nil {
		result.addForm("client is required")
	}
	if input.ActivityID == uuid.Nil {
		result.addForm("activity is required")
	}
	if _, err := parseServiceDate(input.ServiceDate); err != nil {
		result.addForm("service date must be formatted YYYY-MM-DD")
	}
	if input.PatientCount < 1 {
		result.addForm("patient count must be at least 1")
	}
	if input.PatientCount >= 1 && len(input.Entries) != input.PatientCount {
		result.addForm(fmt.Sprintf("entry count %d does not match declared patient count %d", len(input.Entries), input.PatientCount))
	}

	for i, entry := range input.Entries {
		if !entry.AppointmentType.Valid() {
			result.addEntry(i, "appointmentType", fmt.Sprintf("unsupported appointment type %q", entry.AppointmentType))
		}
		if entry.OutcomeID == uuid.Nil {
			result.addEntry(i, "outcomeId", "outcome is required")
		}
		for _, field := range fieldSet {
			if msg := fieldViolation(field, entry.CustomFields[field.ID.String()]); msg != "" {
				result.addEntry(i, field.ID.String(), msg)
			}
		}
	}

	return result
}

// fieldViolation returns a message when the raw answer violates the field,
// or "" when it passes. Emptiness only matters on required fields; a
// dropdown selection must belong to the field's choice set either way.
func fieldViolation(field *fieldschema.FieldDefinition, raw interface{}) string {
	switch field.Type {
	case fieldschema.TypeDropdown:
		choice := coerceChoice(raw)
		if choice == uuid.Nil {
			if field.Required {
				return fmt.Sprintf("%s requires a selection", field.Label)
			}
			return ""
		}
		if !field.HasChoice(choice) {
			return fmt.Sprintf("%s: selected choice is not one of the field's options", field.Label)
		}
	case fieldschema.TypeText:
		if field.Required && strings.TrimSpace(coerceText(raw)) == "" {
			return fmt.Sprintf("%s is required", field.Label)
		}
	case fieldschema.TypeNumber:
		if field.Required && !numberPresent(raw) {
			return fmt.Sprintf("%s requires a number", field.Label)
		}
	case fieldschema.TypeCheckbox:
		// A checkbox is never empty: unticked is a legitimate answer.
	}
	return ""
}

func numberPresent(raw interface{}) bool {
	switch v := raw.(type) {
	case float64, float32, int, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil
	}
	return false
}

func parseServiceDate(s string) (time.Time, error) {
	return time.Parse(ServiceDateLayout, s)
}
