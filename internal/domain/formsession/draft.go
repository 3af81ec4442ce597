package formsession

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/platform/draftstore"
)

// Snapshot is the serialized state of an in-progress service log form.
type Snapshot struct {
	ClientID     uuid.UUID       `json:"clientId"`
	ActivityID   uuid.UUID       `json:"activityId"`
	ServiceDate  string          `json:"serviceDate"`
	PatientCount int             `json:"patientCount"`
	Entries      []SnapshotEntry `json:"entries"`
}

// SnapshotEntry is one patient entry's draft state. CustomFields is keyed by
// field id with the raw form value.
type SnapshotEntry struct {
	AppointmentType string                 `json:"appointmentType"`
	OutcomeID       uuid.UUID              `json:"outcomeId"`
	CustomFields    map[string]interface{} `json:"customFields,omitempty"`
}

// Reconciler snapshots in-progress forms to the draft store and restores
// them, reconciling restored values against the currently resolved field
// set. One draft is kept per user.
//
// Incoming snapshots are queued, not written inline: Run flushes the latest
// queued snapshot per user once per interval, so a slow store never blocks
// editing and rapid saves collapse into one write.
type Reconciler struct {
	store    draftstore.Store
	resolver Resolver
	interval time.Duration
	ttl      time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[string]Snapshot
}

func NewReconciler(store draftstore.Store, resolver Resolver, interval, ttl time.Duration, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		resolver: resolver,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
		pending:  make(map[string]Snapshot),
	}
}

// QueueSave records the user's latest snapshot for the next flush,
// replacing any queued one.
func (r *Reconciler) QueueSave(userID string, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[userID] = snap
}

// Run flushes queued snapshots once per interval until ctx is canceled,
// then flushes one final time. Ticks that fire while a flush is still
// running are skipped rather than overlapped.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var inFlight atomic.Bool
	flush := func(ctx context.Context) {
		if !inFlight.CompareAndSwap(false, true) {
			return
		}
		defer inFlight.Store(false)
		r.Flush(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(flushCtx)
			cancel()
			return
		case <-ticker.C:
			flush(ctx)
		}
	}
}

// Flush writes every queued snapshot. A failed write re-queues the snapshot
// for the next flush unless the user saved again in the meantime.
func (r *Reconciler) Flush(ctx context.Context) {
	r.mu.Lock()
	batch := r.pending
	r.pending = make(map[string]Snapshot)
	r.mu.Unlock()

	for userID, snap := range batch {
		if err := r.save(ctx, userID, snap); err != nil {
			r.mu.Lock()
			if _, saved := r.pending[userID]; !saved {
				r.pending[userID] = snap
			}
			r.mu.Unlock()
		}
	}
}

// save writes one draft. Failures are logged; drafts are best effort and a
// failed write never interrupts editing.
func (r *Reconciler) save(ctx context.Context, userID string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, userID, payload, r.ttl); err != nil {
		r.logger.Warn().Err(err).Str("userId", userID).Msg("draft write failed")
		return err
	}
	return nil
}

// Restore loads the user's draft, if any, and drops custom field values
// that no longer belong to the resolved set for the draft's client. A
// queued snapshot not yet flushed to the store is the freshest state and
// wins over the stored one. A missing draft returns (nil, nil). A corrupt
// draft is deleted and likewise returns (nil, nil): an unreadable snapshot
// must never block a new session.
func (r *Reconciler) Restore(ctx context.Context, userID string) (*Snapshot, error) {
	r.mu.Lock()
	queued, ok := r.pending[userID]
	r.mu.Unlock()
	if ok {
		snap := copySnapshot(queued)
		r.reconcile(ctx, userID, &snap)
		return &snap, nil
	}

	payload, err := r.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, draftstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		corrupt := &SnapshotCorrupt{Err: err}
		r.logger.Warn().Err(corrupt).Str("userId", userID).Msg("discarding draft")
		if delErr := r.store.Delete(ctx, userID); delErr != nil {
			r.logger.Warn().Err(delErr).Str("userId", userID).Msg("corrupt draft not deleted")
		}
		return nil, nil
	}

	r.reconcile(ctx, userID, &snap)
	return &snap, nil
}

// reconcile intersects each entry's field ids against the currently
// resolved set. When resolution itself fails the snapshot is returned as
// stored; keeping possibly stale values beats losing the user's work.
func (r *Reconciler) reconcile(ctx context.Context, userID string, snap *Snapshot) {
	clientID := snap.ClientID
	fields, err := r.resolver.Resolve(ctx, &clientID)
	if err != nil {
		r.logger.Warn().Err(err).Str("userId", userID).Msg("draft restored unreconciled, field resolution failed")
		return
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.ID.String()] = true
	}

	dropped := 0
	for _, entry := range snap.Entries {
		for id := range entry.CustomFields {
			if !known[id] {
				delete(entry.CustomFields, id)
				dropped++
			}
		}
	}
	if dropped > 0 {
		r.logger.Info().Str("userId", userID).Int("dropped", dropped).
			Msg("draft values dropped for fields no longer in the form")
	}
}

// Discard removes the user's draft, queued or stored. Removing an absent
// draft is not an error.
func (r *Reconciler) Discard(ctx context.Context, userID string) error {
	r.mu.Lock()
	delete(r.pending, userID)
	r.mu.Unlock()
	if err := r.store.Delete(ctx, userID); err != nil && !errors.Is(err, draftstore.ErrNotFound) {
		return err
	}
	return nil
}

// copySnapshot deep-copies entries and their value maps so reconciliation
// never mutates a queued snapshot.
func copySnapshot(snap Snapshot) Snapshot {
	out := snap
	out.Entries = make([]SnapshotEntry, len(snap.Entries))
	for i, entry := range snap.Entries {
		copied := entry
		if entry.CustomFields != nil {
			copied.CustomFields = make(map[string]interface{}, len(entry.CustomFields))
			for k, v := range entry.CustomFields {
				copied.CustomFields[k] = v
			}
		}
		out.Entries[i] = copied
	}
	return out
}
