package tier

import (
	"github.com/xraph/patron/id"
	"github.com/xraph/patron/types"
)

// Tier is a named, fixed-price subscription offering on a contract.
//
// Tier identifiers are sequential integers assigned by the store from an
// append-only per-contract counter starting at zero. A tier is immutable
// once created except for the Active flag; there is no public mutator for
// Active yet, so every created tier stays active.
type Tier struct {
	types.Entity
	ContractID id.ContractID     `json:"contract_id"`
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Price      types.Money       `json:"price"`
	Active     bool              `json:"active"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
