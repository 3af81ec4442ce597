package servicelog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/domain/fieldschema"
)

// FieldResolver supplies the custom field definitions a submission is
// validated and encoded against. Resolve yields the active set for a client;
// ListAll includes inactive and removed-from-view definitions so historical
// logs still decode.
type FieldResolver interface {
	Resolve(ctx context.Context, clientID *uuid.UUID) ([]*fieldschema.FieldDefinition, error)
	ListAll(ctx context.Context) ([]*fieldschema.FieldDefinition, error)
}

// Service submits, reads, and removes service logs.
type Service struct {
	repo   Repository
	fields FieldResolver
	logger zerolog.Logger
}

func NewService(repo Repository, fields FieldResolver, logger zerolog.Logger) *Service {
	return &Service{repo: repo, fields: fields, logger: logger}
}

// Submit validates the input against the client's resolved field set,
// encodes every custom field answer, and persists the log, its entries, and
// their values in a single transaction. A *ValidationFailure carries the
// aggregated violations; a *PersistenceFailure means the transaction rolled
// back and nothing was stored.
func (s *Service) Submit(ctx context.Context, input SubmitInput, createdBy string) (*ServiceLog, error) {
	fieldSet, err := s.fields.Resolve(ctx, &input.ClientID)
	if err != nil {
		// Without definitions the submission can be neither validated nor
		// encoded, so this is fatal here even though form rendering would
		// degrade to the builtin fields.
		return nil, fmt.Errorf("resolve custom fields: %w", err)
	}

	if result := Validate(input, fieldSet); !result.Valid {
		return nil, &ValidationFailure{Result: result}
	}

	serviceDate, err := parseServiceDate(input.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("parse service date: %w", err)
	}

	log := &ServiceLog{
		ID:           uuid.New(),
		ClientID:     input.ClientID,
		ActivityID:   input.ActivityID,
		ServiceDate:  serviceDate,
		PatientCount: input.PatientCount,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now().UTC(),
	}

	type entryValues struct {
		entry  *PatientEntry
		values []FieldValue
	}
	encoded := make([]entryValues, 0, len(input.Entries))
	for _, in := range input.Entries {
		entry := &PatientEntry{
			ID:              uuid.New(),
			ServiceLogID:    log.ID,
			AppointmentType: in.AppointmentType,
			OutcomeID:       in.OutcomeID,
			CustomFields:    make(map[uuid.UUID]interface{}, len(fieldSet)),
		}
		values := make([]FieldValue, 0, len(fieldSet))
		// Every resolved field gets exactly one value row. Absent answers
		// encode as the type's zero raw value; submitted keys outside the
		// resolved set are dropped.
		for _, field := range fieldSet {
			raw, ok := in.CustomFields[field.ID.String()]
			if !ok {
				raw = field.Type.ZeroRaw()
			}
			v := Encode(field, raw)
			values = append(values, FieldValue{
				ID:             uuid.New(),
				PatientEntryID: entry.ID,
				FieldID:        field.ID,
				Value:          v,
			})
			decoded, _ := DecodeOne(field, FieldValue{Value: v})
			entry.CustomFields[field.ID] = decoded
		}
		log.Entries = append(log.Entries, entry)
		encoded = append(encoded, entryValues{entry: entry, values: values})
	}

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, log); err != nil {
			return err
		}
		for _, ev := range encoded {
			if err := s.repo.CreateEntry(ctx, ev.entry); err != nil {
				return err
			}
			if err := s.repo.CreateValues(ctx, ev.values); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &PersistenceFailure{Err: err}
	}
	return log, nil
}

// Get returns a stored log with each entry's custom field values decoded.
// Values whose stored slot no longer matches the field's declared type are
// logged and omitted rather than coerced.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ServiceLog, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	values, err := s.repo.ListValues(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return log, nil
	}

	// Decoding uses the full definition catalog, not the active set, so
	// values of since-deactivated fields remain readable.
	defs, err := s.fields.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load field definitions: %w", err)
	}
	byID := make(map[uuid.UUID]*fieldschema.FieldDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	perEntry := make(map[uuid.UUID][]FieldValue)
	for _, fv := range values {
		perEntry[fv.PatientEntryID] = append(perEntry[fv.PatientEntryID], fv)
	}

	for _, entry := range log.Entries {
		raw, errs := Decode(perEntry[entry.ID], byID)
		for _, decodeErr := range errs {
			var mismatch *SchemaMismatchError
			if errors.As(decodeErr, &mismatch) {
				s.logger.Warn().
					Str("serviceLogId", id.String()).
					Str("entryId", entry.ID.String()).
					Str("fieldId", mismatch.FieldID.String()).
					Str("declared", string(mismatch.Declared)).
					Str("stored", string(mismatch.Stored)).
					Msg("stored value does not match declared field type, omitting")
				continue
			}
			s.logger.Warn().Err(decodeErr).
				Str("serviceLogId", id.String()).
				Msg("undecodable field value, omitting")
		}
		entry.CustomFields = raw
	}
	return log, nil
}

// List returns one page of stored logs, optionally restricted to one
// client, plus the total match count.
func (s *Service) List(ctx context.Context, clientID *uuid.UUID, limit, offset int) ([]*ServiceLog, int, error) {
	return s.repo.List(ctx, clientID, limit, offset)
}

// Delete removes a log together with its entries and values.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
