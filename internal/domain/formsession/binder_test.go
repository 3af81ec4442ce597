package formsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/domain/fieldschema"
)

// mockResolver serves a field set per client id, with nil keying the
// global-only set.
type mockResolver struct {
	byClient map[uuid.UUID][]*fieldschema.FieldDefinition
	global   []*fieldschema.FieldDefinition
	failure  error
	calls    int
}

func (m *mockResolver) Resolve(_ context.Context, clientID *uuid.UUID) ([]*fieldschema.FieldDefinition, error) {
	m.calls++
	if m.failure != nil {
		return nil, m.failure
	}
	out := append([]*fieldschema.FieldDefinition{}, m.global...)
	if clientID != nil {
		out = append(out, m.byClient[*clientID]...)
	}
	return out, nil
}

func textField(label string) *fieldschema.FieldDefinition {
	return &fieldschema.FieldDefinition{ID: uuid.New(), Label: label, Type: fieldschema.TypeText, Active: true}
}

func TestBinderInitializesZeroValues(t *testing.T) {
	notes := textField("Notes")
	count := &fieldschema.FieldDefinition{ID: uuid.New(), Label: "Count", Type: fieldschema.TypeNumber, Active: true}
	b := NewBinder(&mockResolver{global: []*fieldschema.FieldDefinition{notes, count}}, zerolog.Nop())

	if err := b.Bind(context.Background(), nil); err != nil {
		t.Fatalf("bind: %v", err)
	}
	values := b.Values()
	if values[notes.ID] != "" {
		t.Errorf("text zero = %v, want empty string", values[notes.ID])
	}
	if values[count.ID] != float64(0) {
		t.Errorf("number zero = %v, want 0", values[count.ID])
	}
}

func TestBinderRebindCarriesSharedFieldsForward(t *testing.T) {
	shared := textField("Notes")
	oldOnly := textField("Ward")
	newOnly := textField("Referrer")
	clientA, clientB := uuid.New(), uuid.New()

	resolver := &mockResolver{
		global: []*fieldschema.FieldDefinition{shared},
		byClient: map[uuid.UUID][]*fieldschema.FieldDefinition{
			clientA: {oldOnly},
			clientB: {newOnly},
		},
	}
	b := NewBinder(resolver, zerolog.Nop())

	if err := b.Bind(context.Background(), &clientA); err != nil {
		t.Fatalf("bind: %v", err)
	}
	b.SetValue(shared.ID, "carried")
	b.SetValue(oldOnly.ID, "discarded")

	if err := b.Bind(context.Background(), &clientB); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	values := b.Values()
	if values[shared.ID] != "carried" {
		t.Errorf("shared field = %v, want carried value", values[shared.ID])
	}
	if _, ok := values[oldOnly.ID]; ok {
		t.Error("value survived for a field that left the set")
	}
	if values[newOnly.ID] != "" {
		t.Errorf("new field = %v, want zero value", values[newOnly.ID])
	}
}

func TestBinderIgnoresValuesOutsideBoundSet(t *testing.T) {
	notes := textField("Notes")
	b := NewBinder(&mockResolver{global: []*fieldschema.FieldDefinition{notes}}, zerolog.Nop())
	if err := b.Bind(context.Background(), nil); err != nil {
		t.Fatalf("bind: %v", err)
	}

	b.SetValue(uuid.New(), "stray")
	if values := b.Values(); len(values) != 1 {
		t.Errorf("values = %v, want only the bound field", values)
	}
}

func TestBinderResolverFailureDegradesToEmptySet(t *testing.T) {
	b := NewBinder(&mockResolver{failure: fmt.Errorf("store unreachable")}, zerolog.Nop())

	err := b.Bind(context.Background(), nil)
	var rf *ResolutionFailure
	if !errors.As(err, &rf) {
		t.Fatalf("err = %v, want *ResolutionFailure", err)
	}
	if fields := b.Fields(); len(fields) != 0 {
		t.Errorf("fields = %v, want empty set", fields)
	}
}

// slowResolver blocks the first call until released so a later bind can
// overtake it.
type slowResolver struct {
	first   []*fieldschema.FieldDefinition
	second  []*fieldschema.FieldDefinition
	calls   atomic.Int32
	started chan struct{} // closed when the first call arrives
	release chan struct{}
}

func (s *slowResolver) Resolve(_ context.Context, _ *uuid.UUID) ([]*fieldschema.FieldDefinition, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-s.release
		return s.first, nil
	}
	return s.second, nil
}

func TestBinderStaleResponseDiscarded(t *testing.T) {
	stale := textField("Stale")
	current := textField("Current")
	resolver := &slowResolver{
		first:   []*fieldschema.FieldDefinition{stale},
		second:  []*fieldschema.FieldDefinition{current},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	b := NewBinder(resolver, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		b.Bind(context.Background(), nil) // blocks in the resolver
		close(done)
	}()
	<-resolver.started

	// Second bind is issued after the first and completes immediately.
	if err := b.Bind(context.Background(), nil); err != nil {
		t.Fatalf("bind: %v", err)
	}

	close(resolver.release)
	<-done

	fields := b.Fields()
	if len(fields) != 1 || fields[0].ID != current.ID {
		t.Errorf("bound set = %v, want only the later response", fields)
	}
}

// gatedResolver holds every call until its gate is released, so tests can
// deliver responses in any order.
type gatedResolver struct {
	mu      sync.Mutex
	n       int
	results map[int][]*fieldschema.FieldDefinition
	started map[int]chan struct{}
	gates   map[int]chan struct{}
}

func (g *gatedResolver) Resolve(_ context.Context, _ *uuid.UUID) ([]*fieldschema.FieldDefinition, error) {
	g.mu.Lock()
	g.n++
	n := g.n
	g.mu.Unlock()
	close(g.started[n])
	<-g.gates[n]
	return g.results[n], nil
}

func openGate() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func TestBinderSupersededResponseNeverApplies(t *testing.T) {
	shared := textField("Notes")
	priority := textField("Priority")
	withPriority := []*fieldschema.FieldDefinition{shared, priority}
	withoutPriority := []*fieldschema.FieldDefinition{shared}

	// Call 1 is the initial bind and returns at once. The user then switches
	// away (call 2) and straight back (call 3); call 2's response arrives
	// while call 3 is still resolving.
	resolver := &gatedResolver{
		results: map[int][]*fieldschema.FieldDefinition{1: withPriority, 2: withoutPriority, 3: withPriority},
		started: map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{}), 3: make(chan struct{})},
		gates:   map[int]chan struct{}{1: openGate(), 2: make(chan struct{}), 3: make(chan struct{})},
	}
	b := NewBinder(resolver, zerolog.Nop())

	clientA, clientB := uuid.New(), uuid.New()
	if err := b.Bind(context.Background(), &clientA); err != nil {
		t.Fatalf("bind: %v", err)
	}
	b.SetValue(priority.ID, "urgent")

	bindDone := func(id *uuid.UUID) chan struct{} {
		done := make(chan struct{})
		go func() {
			b.Bind(context.Background(), id)
			close(done)
		}()
		return done
	}

	doneB := bindDone(&clientB)
	<-resolver.started[2]
	doneA := bindDone(&clientA)
	<-resolver.started[3]

	// The switch-to-B response is already superseded when it arrives.
	close(resolver.gates[2])
	<-doneB
	if v := b.Values()[priority.ID]; v != "urgent" {
		t.Fatalf("value after superseded response = %v, want the entered value kept", v)
	}

	close(resolver.gates[3])
	<-doneA
	if v := b.Values()[priority.ID]; v != "urgent" {
		t.Errorf("value after rebind = %v, want it carried forward", v)
	}
	if fields := b.Fields(); len(fields) != 2 {
		t.Errorf("bound set = %v, want both fields", fields)
	}
}
