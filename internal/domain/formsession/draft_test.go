package formsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/domain/fieldschema"
	"github.com/markknapp83-del/Service-Log-App-sub002/internal/platform/draftstore"
)

func newTestReconciler(store draftstore.Store, resolver Resolver) *Reconciler {
	return NewReconciler(store, resolver, time.Second, time.Hour, zerolog.Nop())
}

func saveNow(t *testing.T, rec *Reconciler, userID string, snap Snapshot) {
	t.Helper()
	rec.QueueSave(userID, snap)
	rec.Flush(context.Background())
}

func sampleSnapshot(fieldID uuid.UUID) Snapshot {
	return Snapshot{
		ClientID:     uuid.New(),
		ActivityID:   uuid.New(),
		ServiceDate:  "2026-08-14",
		PatientCount: 1,
		Entries: []SnapshotEntry{{
			AppointmentType: "new",
			OutcomeID:       uuid.New(),
			CustomFields:    map[string]interface{}{fieldID.String(): "half-typed note"},
		}},
	}
}

func TestReconcilerSaveRestoreRoundTrip(t *testing.T) {
	notes := textField("Notes")
	store := draftstore.NewMemory()
	rec := newTestReconciler(store, &mockResolver{global: []*fieldschema.FieldDefinition{notes}})

	snap := sampleSnapshot(notes.ID)
	saveNow(t, rec, "user-1", snap)

	restored, err := rec.Restore(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored == nil {
		t.Fatal("draft missing after save")
	}
	if restored.ClientID != snap.ClientID || restored.PatientCount != 1 {
		t.Errorf("restored = %+v", restored)
	}
	if got := restored.Entries[0].CustomFields[notes.ID.String()]; got != "half-typed note" {
		t.Errorf("custom field = %v", got)
	}
}

func TestReconcilerQueuedSnapshotRestoresBeforeFlush(t *testing.T) {
	notes := textField("Notes")
	store := draftstore.NewMemory()
	rec := newTestReconciler(store, &mockResolver{global: []*fieldschema.FieldDefinition{notes}})

	// Queued but not yet flushed: the store has nothing.
	rec.QueueSave("user-1", sampleSnapshot(notes.ID))
	if _, err := store.Get(context.Background(), "user-1"); !errors.Is(err, draftstore.ErrNotFound) {
		t.Fatal("queue wrote to the store before the flush")
	}

	restored, err := rec.Restore(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored == nil {
		t.Fatal("queued draft not restored")
	}
	if got := restored.Entries[0].CustomFields[notes.ID.String()]; got != "half-typed note" {
		t.Errorf("custom field = %v", got)
	}
}

func TestReconcilerFlushPersistsLatestQueued(t *testing.T) {
	notes := textField("Notes")
	store := draftstore.NewMemory()
	rec := newTestReconciler(store, &mockResolver{global: []*fieldschema.FieldDefinition{notes}})

	first := sampleSnapshot(notes.ID)
	second := sampleSnapshot(notes.ID)
	second.PatientCount = 4
	rec.QueueSave("user-1", first)
	rec.QueueSave("user-1", second)
	rec.Flush(context.Background())

	payload, err := store.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("flush wrote nothing: %v", err)
	}
	var stored Snapshot
	if err := json.Unmarshal(payload, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stored.PatientCount != 4 || stored.ClientID != second.ClientID {
		t.Errorf("stored = %+v, want the later queued snapshot", stored)
	}

	// Nothing left to write.
	if err := store.Delete(context.Background(), "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rec.Flush(context.Background())
	if _, err := store.Get(context.Background(), "user-1"); !errors.Is(err, draftstore.ErrNotFound) {
		t.Error("second flush rewrote an already flushed snapshot")
	}
}

func TestReconcilerMissingDraftIsNil(t *testing.T) {
	rec := newTestReconciler(draftstore.NewMemory(), &mockResolver{})

	snap, err := rec.Restore(context.Background(), "user-1")
	if err != nil || snap != nil {
		t.Fatalf("restore = (%v, %v), want (nil, nil)", snap, err)
	}
}

func TestReconcilerCorruptDraftDeletedAndSkipped(t *testing.T) {
	store := draftstore.NewMemory()
	rec := newTestReconciler(store, &mockResolver{})

	// A write interrupted mid-payload leaves truncated JSON behind.
	full, _ := json.Marshal(sampleSnapshot(uuid.New()))
	store.Put(context.Background(), "user-1", full[:len(full)/2], time.Hour)

	snap, err := rec.Restore(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("restore returned error for corrupt draft: %v", err)
	}
	if snap != nil {
		t.Fatalf("corrupt draft restored: %+v", snap)
	}
	if _, err := store.Get(context.Background(), "user-1"); !errors.Is(err, draftstore.ErrNotFound) {
		t.Error("corrupt draft was not deleted")
	}
}

func TestReconcilerDropsValuesForRemovedFields(t *testing.T) {
	kept := textField("Notes")
	removed := uuid.New()
	store := draftstore.NewMemory()
	rec := newTestReconciler(store, &mockResolver{global: []*fieldschema.FieldDefinition{kept}})

	snap := sampleSnapshot(kept.ID)
	snap.Entries[0].CustomFields[removed.String()] = "orphaned"
	saveNow(t, rec, "user-1", snap)

	restored, err := rec.Restore(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	fields := restored.Entries[0].CustomFields
	if _, ok := fields[removed.String()]; ok {
		t.Error("value kept for a field no longer in the form")
	}
	if _, ok := fields[kept.ID.String()]; !ok {
		t.Error("value lost for a field still in the form")
	}
}

func TestReconcilerRestoresUnreconciledWhenResolutionFails(t *testing.T) {
	fieldID := uuid.New()
	store := draftstore.NewMemory()
	rec := newTestReconciler(store, &mockResolver{failure: fmt.Errorf("store unreachable")})

	saveNow(t, rec, "user-1", sampleSnapshot(fieldID))
	restored, err := rec.Restore(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored == nil {
		t.Fatal("draft discarded because resolution failed")
	}
	if _, ok := restored.Entries[0].CustomFields[fieldID.String()]; !ok {
		t.Error("values dropped without a resolved set to reconcile against")
	}
}

func TestReconcilerDiscardClearsQueuedAndStored(t *testing.T) {
	notes := textField("Notes")
	store := draftstore.NewMemory()
	rec := newTestReconciler(store, &mockResolver{global: []*fieldschema.FieldDefinition{notes}})

	saveNow(t, rec, "user-1", sampleSnapshot(notes.ID))
	rec.QueueSave("user-1", sampleSnapshot(notes.ID))

	if err := rec.Discard(context.Background(), "user-1"); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if snap, _ := rec.Restore(context.Background(), "user-1"); snap != nil {
		t.Error("draft survived discard")
	}
	// The discarded queue entry must not resurface on the next flush.
	rec.Flush(context.Background())
	if _, err := store.Get(context.Background(), "user-1"); !errors.Is(err, draftstore.ErrNotFound) {
		t.Error("discarded draft reappeared after flush")
	}
	// Discarding again is a no-op.
	if err := rec.Discard(context.Background(), "user-1"); err != nil {
		t.Errorf("second discard: %v", err)
	}
}

func TestReconcilerDraftsAreScopedPerUser(t *testing.T) {
	notes := textField("Notes")
	store := draftstore.NewMemory()
	rec := newTestReconciler(store, &mockResolver{global: []*fieldschema.FieldDefinition{notes}})

	saveNow(t, rec, "user-1", sampleSnapshot(notes.ID))
	if snap, _ := rec.Restore(context.Background(), "user-2"); snap != nil {
		t.Error("one user's draft visible to another")
	}
}

func TestReconcilerReconcileDoesNotMutateQueuedSnapshot(t *testing.T) {
	kept := textField("Notes")
	removed := uuid.New()
	store := draftstore.NewMemory()
	rec := newTestReconciler(store, &mockResolver{global: []*fieldschema.FieldDefinition{kept}})

	snap := sampleSnapshot(kept.ID)
	snap.Entries[0].CustomFields[removed.String()] = "orphaned"
	rec.QueueSave("user-1", snap)

	restored, err := rec.Restore(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, ok := restored.Entries[0].CustomFields[removed.String()]; ok {
		t.Error("queued restore not reconciled")
	}

	// The flush must still write the snapshot exactly as the user saved it.
	rec.Flush(context.Background())
	payload, err := store.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var stored Snapshot
	if err := json.Unmarshal(payload, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := stored.Entries[0].CustomFields[removed.String()]; !ok {
		t.Error("reconciling a restore mutated the queued snapshot")
	}
}
