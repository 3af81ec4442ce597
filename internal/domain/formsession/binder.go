package formsession

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/domain/fieldschema"
)

// Resolver resolves the active custom field set for a client.
type Resolver interface {
	Resolve(ctx context.Context, clientID *uuid.UUID) ([]*fieldschema.FieldDefinition, error)
}

// Binder holds the field set one patient entry form is currently bound to,
// together with the raw values entered so far. Rebinding to a different
// client carries values forward for fields present in both sets, discards
// values whose field left the set, and initializes newly visible fields to
// their type's zero value.
//
// Bind calls may overlap when the user switches clients quickly; only the
// most recently requested bind is applied, stale resolver responses are
// dropped.
type Binder struct {
	resolver Resolver
	logger   zerolog.Logger

	mu     sync.Mutex
	seq    uint64 // most recently issued bind request
	fields []*fieldschema.FieldDefinition
	values map[uuid.UUID]interface{}
}

func NewBinder(resolver Resolver, logger zerolog.Logger) *Binder {
	return &Binder{
		resolver: resolver,
		logger:   logger,
		values:   make(map[uuid.UUID]interface{}),
	}
}

// Bind resolves the field set for clientID and applies it. A resolver
// failure binds an empty set so the builtin portion of the form stays
// usable; the returned *ResolutionFailure reports the degradation but the
// binder remains valid.
func (b *Binder) Bind(ctx context.Context, clientID *uuid.UUID) error {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	fields, err := b.resolver.Resolve(ctx, clientID)
	if err != nil {
		b.logger.Warn().Err(err).Msg("field resolution failed, binding without custom fields")
		fields = nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq {
		// A newer bind was requested while this one resolved. Its response
		// must not apply, whether the newer one has finished yet or not.
		return nil
	}

	carried := make(map[uuid.UUID]interface{}, len(fields))
	for _, f := range fields {
		if v, ok := b.values[f.ID]; ok {
			carried[f.ID] = v
		} else {
			carried[f.ID] = f.Type.ZeroRaw()
		}
	}
	b.fields = fields
	b.values = carried

	if err != nil {
		return &ResolutionFailure{Err: err}
	}
	return nil
}

// Fields returns the currently bound field set in display order.
func (b *Binder) Fields() []*fieldschema.FieldDefinition {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*fieldschema.FieldDefinition, len(b.fields))
	copy(out, b.fields)
	return out
}

// Values returns a copy of the current raw value map.
func (b *Binder) Values() map[uuid.UUID]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[uuid.UUID]interface{}, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// SetValue records a raw value for a bound field. Values for fields outside
// the bound set are ignored; they would be dropped at submission anyway.
func (b *Binder) SetValue(fieldID uuid.UUID, raw interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.values[fieldID]; !ok {
		return
	}
	b.values[fieldID] = raw
}
