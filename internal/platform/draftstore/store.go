// Package draftstore provides the recoverable store that backs form draft
// snapshots. Drafts are transient, per-user, and expendable: losing one must
// never cost more than some re-typing, so implementations favor availability
// over durability.
package draftstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no snapshot exists for the given key.
var ErrNotFound = errors.New("draftstore: not found")

// Store persists opaque snapshot payloads keyed per user.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
