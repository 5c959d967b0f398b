package billing

import (
	"time"

	"github.com/xraph/patron/id"
	"github.com/xraph/patron/types"
)

// Payment is the journal record of one successful charge: the atomic
// two-leg pull that moved CreatorNet to the contract recipient and
// ProtocolFee to the protocol account. CreatorNet + ProtocolFee always
// equals the tier price at charge time.
type Payment struct {
	types.Entity
	ID          id.PaymentID  `json:"id"`
	ContractID  id.ContractID `json:"contract_id"`
	Subscriber  string        `json:"subscriber"`
	TierID      int64         `json:"tier_id"`
	CreatorNet  types.Money   `json:"creator_net"`
	ProtocolFee types.Money   `json:"protocol_fee"`
	SettledAt   time.Time     `json:"settled_at"`
}

// LapseReason states why a subscriber was deactivated during settlement.
type LapseReason string

const (
	// LapseExpired: the subscription period had already ended; no charge
	// was attempted.
	LapseExpired LapseReason = "expired"
	// LapsePaymentFailed: the renewal charge was attempted and rejected.
	LapsePaymentFailed LapseReason = "payment_failed"
)

// SettlementSummary is the persisted outcome of one settlement batch run.
// Per-element failures are recovered locally and show up only as counts
// here; the run itself cannot fail partway through.
type SettlementSummary struct {
	types.Entity
	ID         id.SettlementID `json:"id"`
	ContractID id.ContractID   `json:"contract_id"`
	RanAt      time.Time       `json:"ran_at"`
	Total      int             `json:"total"`
	Renewed    int             `json:"renewed"`
	Lapsed     int             `json:"lapsed"`
	Failed     int             `json:"failed"`
}
