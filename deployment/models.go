package deployment

import (
	"github.com/xraph/patron/id"
	"github.com/xraph/patron/types"
)

// Instance is the persisted record of one deployed subscription contract.
//
// Every instance is bound at creation to its creator (who becomes the
// owner), a recipient account for creator-net payouts, the factory's
// protocol account as fee collector, and the payment-source asset its tier
// prices settle in. The instance ID doubles as the badge-token identifier
// when the contract was deployed with a creator badge.
type Instance struct {
	types.Entity
	ID            id.ContractID     `json:"id"`
	Creator       string            `json:"creator"`
	Owner         string            `json:"owner"`
	Name          string            `json:"name"`
	Recipient     string            `json:"recipient"`
	FeeCollector  string            `json:"fee_collector"`
	PaymentSource string            `json:"payment_source"`
	BadgeID       id.BadgeID        `json:"badge_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// BadgeKey returns the token identifier under which the instance is indexed
// on the badge collection: the instance ID reinterpreted as a token key.
func (i *Instance) BadgeKey() string {
	return i.ID.String()
}
