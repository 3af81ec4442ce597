package taxonomy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service manages the reference vocabularies.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListActive returns the active entries of one vocabulary, for populating
// form selectors.
func (s *Service) ListActive(ctx context.Context, kind Kind) ([]*Term, error) {
	return s.repo.List(ctx, kind, false)
}

// ListAll returns every entry including deactivated ones.
func (s *Service) ListAll(ctx context.Context, kind Kind) ([]*Term, error) {
	return s.repo.List(ctx, kind, true)
}

func (s *Service) Get(ctx context.Context, kind Kind, id uuid.UUID) (*Term, error) {
	return s.repo.GetByID(ctx, kind, id)
}

// Create adds a vocabulary entry, active by default.
func (s *Service) Create(ctx context.Context, kind Kind, input CreateTermInput) (*Term, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	now := time.Now().UTC()
	term := &Term{
		ID:        uuid.New(),
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, kind, term); err != nil {
		return nil, err
	}
	return term, nil
}

// Update renames or toggles an entry. Entries referenced by stored logs are
// deactivated, never removed, so there is no delete path.
func (s *Service) Update(ctx context.Context, kind Kind, id uuid.UUID, input UpdateTermInput) (*Term, error) {
	term, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("name is required")
		}
		term.Name = name
	}
	if input.Active != nil {
		term.Active = *input.Active
	}
	term.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, kind, term); err != nil {
		return nil, err
	}
	return term, nil
}
