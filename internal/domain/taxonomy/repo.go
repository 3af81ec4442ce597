package taxonomy

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores the three reference vocabularies. All methods take the
// Kind explicitly; implementations map it to the backing table.
type Repository interface {
	List(ctx context.Context, kind Kind, includeInactive bool) ([]*Term, error)
	GetByID(ctx context.Context, kind Kind, id uuid.UUID) (*Term, error)
	Create(ctx context.Context, kind Kind, term *Term) error
	Update(ctx context.Context, kind Kind, term *Term) error
}
