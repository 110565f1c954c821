// Package store defines the persistent key-value contract shared by both
// execution contexts. Values are opaque bytes; codecs live with the callers.
// Watch delivers change notifications so caches never need a read-through on
// the hot path.
package store

import "context"

// Recognized keys. The monitoring value is written only by the control
// surface; the two ring buffers are written only by the coordinator context.
const (
	KeyEvents     = "events"
	KeyDomains    = "domains"
	KeyMonitoring = "monitoring"
)

// Change announces that a key was written. Value is nil when the key was
// removed.
type Change struct {
	Key   string
	Value []byte
}

// Store is the persistence contract. Implementations do not provide atomic
// read-modify-write; callers must serialize their own mutation discipline.
type Store interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes a value and notifies watchers.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes keys and notifies watchers for each.
	Remove(ctx context.Context, keys ...string) error
	// Watch returns a channel of change notifications. The channel closes
	// when ctx is cancelled. Slow consumers may miss intermediate values but
	// always eventually observe the latest write.
	Watch(ctx context.Context) (<-chan Change, error)
}
