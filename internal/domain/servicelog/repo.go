package servicelog

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores service logs, their patient entries, and the encoded
// custom field values recorded against each entry.
type Repository interface {
	// InTx runs fn with a transaction bound to the context; every repository
	// call made inside fn joins that transaction. An error from fn rolls the
	// whole transaction back.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, log *ServiceLog) error
	CreateEntry(ctx context.Context, entry *PatientEntry) error
	CreateValues(ctx context.Context, values []FieldValue) error

	GetByID(ctx context.Context, id uuid.UUID) (*ServiceLog, error)
	// List returns one page of logs plus the total match count.
	List(ctx context.Context, clientID *uuid.UUID, limit, offset int) ([]*ServiceLog, int, error)
	// ListValues returns every custom field value recorded against the
	// log's entries.
	ListValues(ctx context.Context, serviceLogID uuid.UUID) ([]FieldValue, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
