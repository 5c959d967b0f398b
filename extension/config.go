package extension

import "time"

// Config holds the Patron extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.patron" or "patron" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// JournalBatchSize is the number of settled payments to buffer before
	// flushing to the store (default: 100).
	JournalBatchSize int `json:"journal_batch_size" mapstructure:"journal_batch_size" yaml:"journal_batch_size"`

	// JournalFlushInterval is how frequently the payment journal is flushed
	// even if the batch size has not been reached (default: 5s).
	JournalFlushInterval time.Duration `json:"journal_flush_interval" mapstructure:"journal_flush_interval" yaml:"journal_flush_interval"`

	// StatusCacheTTL controls how long subscription status checks are
	// cached before re-evaluating against the store (default: 30s).
	StatusCacheTTL time.Duration `json:"status_cache_ttl" mapstructure:"status_cache_ttl" yaml:"status_cache_ttl"`

	// ProtocolAccount is the account credited with the protocol's fee share
	// on every charge (default: "protocol").
	ProtocolAccount string `json:"protocol_account" mapstructure:"protocol_account" yaml:"protocol_account"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		JournalBatchSize:     100,
		JournalFlushInterval: 5 * time.Second,
		StatusCacheTTL:       30 * time.Second,
	}
}
