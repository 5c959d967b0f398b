package tier

import (
	"context"

	"github.com/xraph/patron/id"
)

// Store is the tier persistence interface. Create assigns the next
// sequential tier ID for the contract atomically and returns it.
type Store interface {
	Create(ctx context.Context, t *Tier) (int64, error)
	Get(ctx context.Context, contractID id.ContractID, tierID int64) (*Tier, error)
	Count(ctx context.Context, contractID id.ContractID) (int64, error)
	List(ctx context.Context, contractID id.ContractID, opts ListOpts) ([]*Tier, error)
}

type ListOpts struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
