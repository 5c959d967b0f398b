package extension

import (
	"time"

	patron "github.com/xraph/patron"
	"github.com/xraph/patron/membership"
	"github.com/xraph/patron/payment"
	"github.com/xraph/patron/plugin"
	"github.com/xraph/patron/store"
)

// Option configures the Patron Forge extension.
type Option func(*Extension)

// WithStore sets the store for the billing engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPaymentLedger sets the payment ledger used to move funds.
func WithPaymentLedger(l payment.Ledger) Option {
	return func(e *Extension) {
		e.ledger = l
	}
}

// WithMembershipIssuer sets the issuer used to mint membership tokens
// and creator badges.
func WithMembershipIssuer(i membership.Issuer) Option {
	return func(e *Extension) {
		e.issuer = i
	}
}

// WithPatronOption passes a patron.Option through to the underlying engine.
func WithPatronOption(opt patron.Option) Option {
	return func(e *Extension) {
		e.patronOpts = append(e.patronOpts, opt)
	}
}

// WithPlugin registers a patron plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.patronOpts = append(e.patronOpts, patron.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithJournalBatchSize sets the number of payments to buffer before flushing.
func WithJournalBatchSize(size int) Option {
	return func(e *Extension) { e.config.JournalBatchSize = size }
}

// WithJournalFlushInterval sets how frequently the payment journal is flushed.
func WithJournalFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.JournalFlushInterval = d }
}

// WithStatusCacheTTL sets the subscription status cache duration.
func WithStatusCacheTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.StatusCacheTTL = d }
}

// WithProtocolAccount sets the account credited with the protocol fee share.
func WithProtocolAccount(account string) Option {
	return func(e *Extension) { e.config.ProtocolAccount = account }
}
