package fieldschema

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service provides field definition management and resolution.
type Service struct {
	repo Repository
}

// NewService creates a new field schema service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve computes the applicable, ordered field set for the given client
// context: active global fields plus active fields scoped to clientID,
// ordered by display order with creation order breaking ties. A nil clientID
// yields global fields only; an unknown clientID degrades to the same
// global-only set rather than failing.
func (s *Service) Resolve(ctx context.Context, clientID *uuid.UUID) ([]*FieldDefinition, error) {
	fields, err := s.repo.ListActive(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("resolve fields: %w", err)
	}
	return fields, nil
}

// ListAll returns every definition, including inactive ones, for the admin
// management screen.
func (s *Service) ListAll(ctx context.Context) ([]*FieldDefinition, error) {
	return s.repo.ListAll(ctx)
}

// GetField returns one definition with its choices.
func (s *Service) GetField(ctx context.Context, id uuid.UUID) (*FieldDefinition, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateField defines a new custom field. Dropdown fields must arrive with
// at least one choice; non-dropdown fields must not carry any.
func (s *Service) CreateField(ctx context.Context, input CreateFieldInput) (*FieldDefinition, error) {
	label := strings.TrimSpace(input.Label)
	if label == "" {
		return nil, fmt.Errorf("label is required")
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("unsupported field type: %q", input.Type)
	}
	if input.Type == TypeDropdown && len(input.Choices) == 0 {
		return nil, fmt.Errorf("dropdown field requires at least one choice")
	}
	if input.Type != TypeDropdown && len(input.Choices) > 0 {
		return nil, fmt.Errorf("choices are only allowed on dropdown fields")
	}

	def := &FieldDefinition{
		ID:           uuid.New(),
		Label:        label,
		Type:         input.Type,
		DisplayOrder: input.DisplayOrder,
		Required:     input.Required,
		Active:       true,
		ClientID:     input.ClientID,
	}
	for i, text := range input.Choices {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("choice %d: text is required", i+1)
		}
		def.Choices = append(def.Choices, Choice{
			ID:           uuid.New(),
			FieldID:      def.ID,
			Text:         text,
			DisplayOrder: i + 1,
		})
	}

	if err := s.repo.Create(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// UpdateField patches a definition. A field's type is fixed at creation:
// update requests that try to change it are rejected outright, which also
// guarantees the type never drifts once values exist against the field.
func (s *Service) UpdateField(ctx context.Context, id uuid.UUID, input UpdateFieldInput) (*FieldDefinition, error) {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Type != nil && *input.Type != def.Type {
		return nil, fmt.Errorf("field type is fixed at creation: cannot change %q to %q", def.Type, *input.Type)
	}
	if input.Label != nil {
		label := strings.TrimSpace(*input.Label)
		if label == "" {
			return nil, fmt.Errorf("label is required")
		}
		def.Label = label
	}
	if input.DisplayOrder != nil {
		def.DisplayOrder = *input.DisplayOrder
	}
	if input.Required != nil {
		def.Required = *input.Required
	}
	if input.Active != nil {
		if *input.Active && def.Type == TypeDropdown && len(def.Choices) == 0 {
			return nil, fmt.Errorf("cannot activate a dropdown field without choices")
		}
		def.Active = *input.Active
	}

	if err := s.repo.Update(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// DeactivateField retires a field from resolution while retaining it (and
// any recorded values) for history.
func (s *Service) DeactivateField(ctx context.Context, id uuid.UUID) error {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !def.Active {
		return nil
	}
	def.Active = false
	return s.repo.Update(ctx, def)
}

// DeleteField removes a field outright when nothing references it. Once a
// value has been recorded against the field it is deactivated instead, so
// historical entries keep decoding.
func (s *Service) DeleteField(ctx context.Context, id uuid.UUID) error {
	used, err := s.repo.HasValues(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return s.DeactivateField(ctx, id)
	}
	return s.repo.Delete(ctx, id)
}

// ReplaceChoices swaps the full ordered choice set of a dropdown field. The
// new set must be non-empty while the field is active, and existing choice
// ids may be carried over so recorded values keep resolving.
func (s *Service) ReplaceChoices(ctx context.Context, fieldID uuid.UUID, texts []ChoiceInput) ([]Choice, error) {
	def, err := s.repo.GetByID(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if def.Type != TypeDropdown {
		return nil, fmt.Errorf("field %q is not a dropdown", def.Label)
	}
	if def.Active && len(texts) == 0 {
		return nil, fmt.Errorf("active dropdown field requires at least one choice")
	}

	choices := make([]Choice, 0, len(texts))
	for i, in := range texts {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return nil, fmt.Errorf("choice %d: text is required", i+1)
		}
		id := uuid.New()
		if in.ID != nil {
			id = *in.ID
		}
		choices = append(choices, Choice{
			ID:           id,
			FieldID:      fieldID,
			Text:         text,
			DisplayOrder: i + 1,
		})
	}

	if err := s.repo.ReplaceChoices(ctx, fieldID, choices); err != nil {
		return nil, err
	}
	return choices, nil
}

// ChoiceInput is one entry of a choice replacement request. The id is kept
// when present so existing recorded values still reference a live choice.
type ChoiceInput struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Text string     `json:"text"`
}
