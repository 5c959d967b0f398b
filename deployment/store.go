package deployment

import (
	"context"

	"github.com/xraph/patron/id"
)

// Store is the deployment-registry persistence interface: instances indexed
// by ID, by creator, and by badge-token key.
type Store interface {
	Create(ctx context.Context, inst *Instance) error
	Get(ctx context.Context, contractID id.ContractID) (*Instance, error)
	GetByBadge(ctx context.Context, badgeKey string) (*Instance, error)
	ListByCreator(ctx context.Context, creator string, opts ListOpts) ([]*Instance, error)
}

type ListOpts struct {
	Limit  int
	Offset int
}
