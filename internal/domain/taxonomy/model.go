package taxonomy

import (
	"time"

	"github.com/google/uuid"
)

// Kind selects one of the reference vocabularies a service log draws from.
type Kind string

const (
	KindClient   Kind = "client"
	KindActivity Kind = "activity"
	KindOutcome  Kind = "outcome"
)

// Valid reports whether k is a supported vocabulary.
func (k Kind) Valid() bool {
	switch k {
	case KindClient, KindActivity, KindOutcome:
		return true
	}
	return false
}

// Term is one entry of a vocabulary: a client site, a service activity, or
// an appointment outcome. Terms are deactivated rather than deleted so
// historical logs keep resolving.
type Term struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CreateTermInput is the payload for adding a vocabulary entry.
type CreateTermInput struct {
	Name string `json:"name"`
}

// UpdateTermInput carries optional changes; nil means keep the current
// value.
type UpdateTermInput struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}
