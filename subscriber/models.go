package subscriber

import (
	"time"

	"github.com/xraph/patron/id"
	"github.com/xraph/patron/types"
)

// Record is the authoritative membership state for one address on one
// contract. At most one record exists per (contract, address) pair.
//
// A record is created or overwritten by subscribe, flipped inactive by
// unsubscribe or a lapsed settlement, and never physically deleted:
// deactivation keeps TierID and ExpiresAt as a historical trace. The engine
// treats a missing record and a lapsed one identically (both read as not
// subscribed); the store preserves the distinction should scope ever extend.
type Record struct {
	types.Entity
	ContractID id.ContractID `json:"contract_id"`
	Address    string        `json:"address"`
	TierID     int64         `json:"tier_id"`
	Active     bool          `json:"active"`
	ExpiresAt  time.Time     `json:"expires_at"`
}

// IsCurrentlyActive reports whether the record is billable at the given
// instant: the active flag is set and the expiry is strictly in the future.
func (r *Record) IsCurrentlyActive(now time.Time) bool {
	return r != nil && r.Active && r.ExpiresAt.After(now)
}

// Status is a cacheable snapshot of a subscription check, mirroring what
// IsSubscribed reports without a store round trip.
type Status struct {
	Subscribed bool      `json:"subscribed"`
	TierID     int64     `json:"tier_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	Reason     string    `json:"reason,omitempty"`
}
