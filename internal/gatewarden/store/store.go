package store

import (
	"context"

	"github.com/ashvale/gatewarden/internal/gatewarden/types"
)

// WhitelistStore is the registry persistence boundary. Each operation is
// atomic with respect to the others; implementations must never expose a
// partially-applied mutation to concurrent readers.
type WhitelistStore interface {
	// Exists reports whether userID has an entry.
	Exists(ctx context.Context, userID int64) (bool, error)

	// Get returns the entry for userID. The bool reports presence.
	Get(ctx context.Context, userID int64) (types.WhitelistEntry, bool, error)

	// Put inserts or overwrites the entry keyed by its UserID.
	// Last write wins; there is no merge.
	Put(ctx context.Context, entry types.WhitelistEntry) error

	// Remove deletes the entry for userID and returns it. A false result
	// means there was nothing to remove, not an error.
	Remove(ctx context.Context, userID int64) (types.WhitelistEntry, bool, error)

	// ListAll returns every entry in the store's own materialized order.
	// Callers must treat the sequence as unordered.
	ListAll(ctx context.Context) ([]types.WhitelistEntry, error)
}
