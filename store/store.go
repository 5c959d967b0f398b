package store

import (
	"context"
	"time"

	"github.com/xraph/patron/billing"
	"github.com/xraph/patron/deployment"
	"github.com/xraph/patron/id"
	"github.com/xraph/patron/subscriber"
	"github.com/xraph/patron/tier"
)

// Store is the unified storage interface for all Patron entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Contract methods
	CreateContract(ctx context.Context, inst *deployment.Instance) error
	GetContract(ctx context.Context, contractID id.ContractID) (*deployment.Instance, error)
	GetContractByBadge(ctx context.Context, badgeKey string) (*deployment.Instance, error)
	ListContractsByCreator(ctx context.Context, creator string, opts deployment.ListOpts) ([]*deployment.Instance, error)

	// Tier methods
	CreateTier(ctx context.Context, t *tier.Tier) (int64, error)
	GetTier(ctx context.Context, contractID id.ContractID, tierID int64) (*tier.Tier, error)
	CountTiers(ctx context.Context, contractID id.ContractID) (int64, error)
	ListTiers(ctx context.Context, contractID id.ContractID, opts tier.ListOpts) ([]*tier.Tier, error)

	// Subscriber methods
	PutSubscriber(ctx context.Context, r *subscriber.Record) error
	GetSubscriber(ctx context.Context, contractID id.ContractID, address string) (*subscriber.Record, error)
	DeactivateSubscriber(ctx context.Context, contractID id.ContractID, address string) error
	ListSubscribers(ctx context.Context, contractID id.ContractID, opts subscriber.ListOpts) ([]*subscriber.Record, error)

	// Status cache methods
	GetCachedStatus(ctx context.Context, contractID id.ContractID, address string) (*subscriber.Status, error)
	SetCachedStatus(ctx context.Context, contractID id.ContractID, address string, status *subscriber.Status, ttl time.Duration) error
	InvalidateStatus(ctx context.Context, contractID id.ContractID, address string) error

	// Billing journal methods
	RecordPayments(ctx context.Context, payments []*billing.Payment) error
	ListPayments(ctx context.Context, contractID id.ContractID, opts billing.ListOpts) ([]*billing.Payment, error)
	PurgePayments(ctx context.Context, before time.Time) (int64, error)
	RecordSettlement(ctx context.Context, run *billing.SettlementSummary) error
	ListSettlements(ctx context.Context, contractID id.ContractID, opts billing.ListOpts) ([]*billing.SettlementSummary, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
