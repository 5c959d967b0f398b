package subscriber

import (
	"context"
	"time"

	"github.com/xraph/patron/id"
)

// Store is the subscriber-ledger persistence interface.
//
// Put upserts the record with Active=true. Deactivate flips Active only and
// is a no-op for a missing record (absent and lapsed records are
// indistinguishable to callers, by design).
type Store interface {
	Put(ctx context.Context, r *Record) error
	Get(ctx context.Context, contractID id.ContractID, address string) (*Record, error)
	Deactivate(ctx context.Context, contractID id.ContractID, address string) error
	List(ctx context.Context, contractID id.ContractID, opts ListOpts) ([]*Record, error)
}

// CacheStore caches subscription-status snapshots for the read path.
// Billing decisions never consult the cache; only IsSubscribed does.
type CacheStore interface {
	GetCachedStatus(ctx context.Context, contractID id.ContractID, address string) (*Status, error)
	SetCachedStatus(ctx context.Context, contractID id.ContractID, address string, status *Status, ttl time.Duration) error
	InvalidateStatus(ctx context.Context, contractID id.ContractID, address string) error
}

type ListOpts struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
