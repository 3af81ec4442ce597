package servicelog

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/domain/fieldschema"
)

// Value is the persisted form of one custom field answer: a tagged union
// whose meaningful slot is selected by Kind. Exactly one slot carries data;
// reading any other slot is a bug the codec guards against.
type Value struct {
	Kind     fieldschema.FieldType
	Choice   uuid.UUID // dropdown: uuid.Nil is the explicit "no selection" marker
	Text     string
	Number   float64
	Checkbox bool
}

// FieldValue is one custom field answer recorded against a patient entry.
// It has no existence independent of its entry and is removed with it.
type FieldValue struct {
	ID             uuid.UUID
	PatientEntryID uuid.UUID
	FieldID        uuid.UUID
	Value          Value
}

// SchemaMismatchError reports a persisted value whose slot does not match
// the field's currently declared type. The value is unreadable as-is;
// coercing it silently would corrupt the record, so callers treat the field
// as unset instead.
type SchemaMismatchError struct {
	FieldID  uuid.UUID
	Declared fieldschema.FieldType
	Stored   fieldschema.FieldType
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("field %s: stored value is %q but field is declared %q", e.FieldID, e.Stored, e.Declared)
}

// Encode converts a submitted raw value into the persisted Value for the
// field's declared type. Encoding never fails: each type documents its
// coercion of missing or malformed input.
//
//   - dropdown: raw is a choice id; empty, missing, or unparseable input
//     becomes the explicit no-selection marker (uuid.Nil), preserved across
//     save and reload so "cleared" stays distinguishable from "never shown".
//   - text: coerced to string; empty string is a legitimate explicit value.
//   - number: coerced to float64; non-numeric input encodes as 0.
//   - checkbox: coerced to bool; missing input encodes as false.
func Encode(field *fieldschema.FieldDefinition, raw interface{}) Value {
	switch field.Type {
	case fieldschema.TypeDropdown:
		return Value{Kind: fieldschema.TypeDropdown, Choice: coerceChoice(raw)}
	case fieldschema.TypeText:
		return Value{Kind: fieldschema.TypeText, Text: coerceText(raw)}
	case fieldschema.TypeNumber:
		return Value{Kind: fieldschema.TypeNumber, Number: coerceNumber(raw)}
	case fieldschema.TypeCheckbox:
		return Value{Kind: fieldschema.TypeCheckbox, Checkbox: coerceCheckbox(raw)}
	}
	// Unreachable for definitions that passed creation validation.
	return Value{Kind: field.Type}
}

// DecodeOne converts a persisted value back to its form-level raw value,
// verifying the stored slot against the field's declared type.
func DecodeOne(field *fieldschema.FieldDefinition, fv FieldValue) (interface{}, error) {
	if fv.Value.Kind != field.Type {
		return nil, &SchemaMismatchError{FieldID: field.ID, Declared: field.Type, Stored: fv.Value.Kind}
	}
	switch field.Type {
	case fieldschema.TypeDropdown:
		if fv.Value.Choice == uuid.Nil {
			return "", nil
		}
		return fv.Value.Choice.String(), nil
	case fieldschema.TypeText:
		return fv.Value.Text, nil
	case fieldschema.TypeNumber:
		return fv.Value.Number, nil
	case fieldschema.TypeCheckbox:
		return fv.Value.Checkbox, nil
	}
	return nil, &SchemaMismatchError{FieldID: field.ID, Declared: field.Type, Stored: fv.Value.Kind}
}

// Decode maps persisted values back to a form-level raw-value map keyed by
// field id. Values whose field is unknown or whose slot mismatches are
// collected as errors and left out of the map; decoding never coerces.
func Decode(values []FieldValue, fields map[uuid.UUID]*fieldschema.FieldDefinition) (map[uuid.UUID]interface{}, []error) {
	raw := make(map[uuid.UUID]interface{}, len(values))
	var errs []error
	for _, fv := range values {
		field, ok := fields[fv.FieldID]
		if !ok {
			errs = append(errs, fmt.Errorf("value %s references unknown field %s", fv.ID, fv.FieldID))
			continue
		}
		v, err := DecodeOne(field, fv)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		raw[fv.FieldID] = v
	}
	return raw, errs
}

func coerceChoice(raw interface{}) uuid.UUID {
	switch v := raw.(type) {
	case nil:
		return uuid.Nil
	case uuid.UUID:
		return v
	case string:
		if v == "" {
			return uuid.Nil
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil
		}
		return id
	}
	return uuid.Nil
}

func coerceText(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func coerceNumber(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func coerceCheckbox(raw interface{}) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false
		}
		return b
	}
	return false
}
