package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Patron store (SQLite).
var Migrations = migrate.NewGroup("patron")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_patron_contracts",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS patron_contracts (
    id             TEXT PRIMARY KEY,
    creator        TEXT NOT NULL DEFAULT '',
    owner          TEXT NOT NULL DEFAULT '',
    name           TEXT NOT NULL DEFAULT '',
    recipient      TEXT NOT NULL DEFAULT '',
    fee_collector  TEXT NOT NULL DEFAULT '',
    payment_source TEXT NOT NULL DEFAULT '',
    badge_id       TEXT NOT NULL DEFAULT '',
    badge_key      TEXT NOT NULL DEFAULT '',
    metadata       TEXT NOT NULL DEFAULT '{}',
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_patron_contracts_creator ON patron_contracts (creator);
CREATE UNIQUE INDEX IF NOT EXISTS idx_patron_contracts_badge ON patron_contracts (badge_key) WHERE badge_key != '';
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS patron_contracts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_patron_tiers",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS patron_tiers (
    contract_id  TEXT NOT NULL,
    tier_id      INTEGER NOT NULL,
    name         TEXT NOT NULL DEFAULT '',
    price_amount INTEGER NOT NULL DEFAULT 0,
    price_asset  TEXT NOT NULL DEFAULT '',
    active       INTEGER NOT NULL DEFAULT 1,
    metadata     TEXT NOT NULL DEFAULT '{}',
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (contract_id, tier_id)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS patron_tiers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_patron_subscribers",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS patron_subscribers (
    contract_id TEXT NOT NULL,
    address     TEXT NOT NULL,
    tier_id     INTEGER NOT NULL DEFAULT 0,
    active      INTEGER NOT NULL DEFAULT 0,
    expires_at  TEXT NOT NULL DEFAULT (datetime('now')),
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (contract_id, address)
);

CREATE INDEX IF NOT EXISTS idx_patron_subs_active ON patron_subscribers (contract_id, active);
CREATE INDEX IF NOT EXISTS idx_patron_subs_expiry ON patron_subscribers (contract_id, expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS patron_subscribers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_patron_status_cache",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS patron_status_cache (
    cache_key        TEXT PRIMARY KEY,
    contract_id      TEXT NOT NULL DEFAULT '',
    address          TEXT NOT NULL DEFAULT '',
    subscribed       INTEGER NOT NULL DEFAULT 0,
    tier_id          INTEGER NOT NULL DEFAULT 0,
    sub_expires_at   TEXT NOT NULL DEFAULT (datetime('now')),
    reason           TEXT NOT NULL DEFAULT '',
    cache_expires_at TEXT NOT NULL,
    created_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_patron_cache_contract ON patron_status_cache (contract_id);
CREATE INDEX IF NOT EXISTS idx_patron_cache_expires ON patron_status_cache (cache_expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS patron_status_cache`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_patron_payments",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS patron_payments (
    id                  TEXT PRIMARY KEY,
    contract_id         TEXT NOT NULL DEFAULT '',
    subscriber          TEXT NOT NULL DEFAULT '',
    tier_id             INTEGER NOT NULL DEFAULT 0,
    creator_net_amount  INTEGER NOT NULL DEFAULT 0,
    creator_net_asset   TEXT NOT NULL DEFAULT '',
    protocol_fee_amount INTEGER NOT NULL DEFAULT 0,
    protocol_fee_asset  TEXT NOT NULL DEFAULT '',
    settled_at          TEXT NOT NULL DEFAULT (datetime('now')),
    created_at          TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at          TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_patron_payments_contract ON patron_payments (contract_id, settled_at);
CREATE INDEX IF NOT EXISTS idx_patron_payments_subscriber ON patron_payments (contract_id, subscriber, settled_at);
CREATE INDEX IF NOT EXISTS idx_patron_payments_settled ON patron_payments (settled_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS patron_payments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_patron_settlements",
			Version: "20250101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS patron_settlements (
    id          TEXT PRIMARY KEY,
    contract_id TEXT NOT NULL DEFAULT '',
    ran_at      TEXT NOT NULL DEFAULT (datetime('now')),
    total       INTEGER NOT NULL DEFAULT 0,
    renewed     INTEGER NOT NULL DEFAULT 0,
    lapsed      INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_patron_settlements_contract ON patron_settlements (contract_id, ran_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS patron_settlements`)
				return err
			},
		},
	)
}
