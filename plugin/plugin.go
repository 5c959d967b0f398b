// Package plugin provides an extensible plugin system for Patron.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Contract lifecycle hooks
// ──────────────────────────────────────────────────

// OnContractCreated is called when a new contract instance is created.
type OnContractCreated interface {
	Plugin
	OnContractCreated(ctx context.Context, inst interface{}) error
}

// ──────────────────────────────────────────────────
// Tier lifecycle hooks
// ──────────────────────────────────────────────────

// OnTierCreated is called when a new tier is created.
type OnTierCreated interface {
	Plugin
	OnTierCreated(ctx context.Context, t interface{}) error
}

// OnTierUpdated is called when a tier is updated. Tiers are immutable
// once created, so this hook is reserved for a future update path and
// is currently never emitted.
type OnTierUpdated interface {
	Plugin
	OnTierUpdated(ctx context.Context, oldTier, newTier interface{}) error
}

// OnTierDeactivated is reserved alongside OnTierUpdated and is
// currently never emitted.
type OnTierDeactivated interface {
	Plugin
	OnTierDeactivated(ctx context.Context, contractID string, tierID int64) error
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscribed is called when a subscriber joins a tier.
type OnSubscribed interface {
	Plugin
	OnSubscribed(ctx context.Context, record interface{}) error
}

// OnUnsubscribed is called when a subscriber voluntarily leaves.
type OnUnsubscribed interface {
	Plugin
	OnUnsubscribed(ctx context.Context, contractID, address string) error
}

// OnSubscriberLapsed is called when settlement deactivates a subscriber.
type OnSubscriberLapsed interface {
	Plugin
	OnSubscriberLapsed(ctx context.Context, contractID, address, reason string) error
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnPaymentSent is called after a charge settles and its fee split is
// journaled.
type OnPaymentSent interface {
	Plugin
	OnPaymentSent(ctx context.Context, payment interface{}) error
}

// OnChargeFailed is called when a pull payment could not be completed.
type OnChargeFailed interface {
	Plugin
	OnChargeFailed(ctx context.Context, contractID, address string, err error) error
}

// OnSettlementCompleted is called when a batch settlement run finishes.
type OnSettlementCompleted interface {
	Plugin
	OnSettlementCompleted(ctx context.Context, summary interface{}) error
}

// OnPaymentsFlushed is called when journaled payments are flushed to
// the store.
type OnPaymentsFlushed interface {
	Plugin
	OnPaymentsFlushed(ctx context.Context, count int, elapsed time.Duration) error
}
