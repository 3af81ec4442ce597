package fieldschema

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides access to field definitions and their choices.
type Repository interface {
	// ListActive returns active field definitions applicable to the given
	// client: global fields plus fields scoped to clientID, choices included,
	// ordered by display order then creation time. A nil clientID returns
	// global fields only.
	ListActive(ctx context.Context, clientID *uuid.UUID) ([]*FieldDefinition, error)

	// ListAll returns every field definition, active or not.
	ListAll(ctx context.Context) ([]*FieldDefinition, error)

	GetByID(ctx context.Context, id uuid.UUID) (*FieldDefinition, error)
	Create(ctx context.Context, def *FieldDefinition) error
	Update(ctx context.Context, def *FieldDefinition) error

	// Delete removes a definition and its choices. Only safe when no values
	// reference the field; callers check HasValues first.
	Delete(ctx context.Context, id uuid.UUID) error

	// ReplaceChoices swaps the full ordered choice set of a dropdown field.
	ReplaceChoices(ctx context.Context, fieldID uuid.UUID, choices []Choice) error
	ListChoices(ctx context.Context, fieldID uuid.UUID) ([]Choice, error)

	// HasValues reports whether any persisted field value references the field.
	HasValues(ctx context.Context, fieldID uuid.UUID) (bool, error)
}
