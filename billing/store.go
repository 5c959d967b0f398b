package billing

import (
	"context"
	"time"

	"github.com/xraph/patron/id"
)

// Store persists the payment journal and settlement history.
// RecordPayments takes a batch: the engine buffers payment records and
// flushes them in groups from a background worker.
type Store interface {
	RecordPayments(ctx context.Context, payments []*Payment) error
	ListPayments(ctx context.Context, contractID id.ContractID, opts ListOpts) ([]*Payment, error)
	PurgePayments(ctx context.Context, before time.Time) (int64, error)

	RecordSettlement(ctx context.Context, run *SettlementSummary) error
	ListSettlements(ctx context.Context, contractID id.ContractID, opts ListOpts) ([]*SettlementSummary, error)
}

type ListOpts struct {
	Subscriber string
	Start      time.Time
	End        time.Time
	Limit      int
	Offset     int
}
