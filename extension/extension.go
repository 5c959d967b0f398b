// Package extension provides the Forge extension adapter for Patron.
//
// It implements the forge.Extension interface to integrate Patron
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.patron" or "patron" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	patron "github.com/xraph/patron"
	"github.com/xraph/patron/membership"
	"github.com/xraph/patron/payment"
	"github.com/xraph/patron/store"
	"github.com/xraph/patron/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "patron"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Subscription lifecycle and recurring billing engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Patron as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *patron.Engine
	store      store.Store
	ledger     payment.Ledger
	issuer     membership.Issuer
	patronOpts []patron.Option
}

// New creates a new Patron Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Patron instance.
// This is nil until Register is called.
func (e *Extension) Engine() *patron.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the billing engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Fall back to in-memory implementations when no backends were
	// provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}
	if e.ledger == nil {
		e.ledger = payment.NewMemoryLedger()
	}
	if e.issuer == nil {
		e.issuer = membership.NewMemoryIssuer()
	}

	// Build engine options from resolved config.
	opts := e.buildPatronOpts()

	eng := patron.New(e.store, e.ledger, e.issuer, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*patron.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("patron: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("patron: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildPatronOpts constructs patron.Option values from the resolved config.
func (e *Extension) buildPatronOpts() []patron.Option {
	opts := make([]patron.Option, 0, len(e.patronOpts)+3)

	// Apply config-derived options.
	if e.config.JournalBatchSize > 0 || e.config.JournalFlushInterval > 0 {
		batchSize := e.config.JournalBatchSize
		flushInterval := e.config.JournalFlushInterval
		defaults := DefaultConfig()
		if batchSize == 0 {
			batchSize = defaults.JournalBatchSize
		}
		if flushInterval == 0 {
			flushInterval = defaults.JournalFlushInterval
		}
		opts = append(opts, patron.WithJournalConfig(batchSize, flushInterval))
	}

	if e.config.StatusCacheTTL > 0 {
		opts = append(opts, patron.WithStatusCacheTTL(e.config.StatusCacheTTL))
	}

	if e.config.ProtocolAccount != "" {
		opts = append(opts, patron.WithProtocolAccount(e.config.ProtocolAccount))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.patronOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("patron: configuration is required but not found in config files; " +
				"ensure 'extensions.patron' or 'patron' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("patron: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("journal_batch_size", e.config.JournalBatchSize),
		forge.F("journal_flush_interval", e.config.JournalFlushInterval),
		forge.F("status_cache_ttl", e.config.StatusCacheTTL),
		forge.F("protocol_account", e.config.ProtocolAccount),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.patron" first (namespaced pattern).
	if cm.IsSet("extensions.patron") {
		if err := cm.Bind("extensions.patron", &cfg); err == nil {
			e.Logger().Debug("patron: loaded config from file",
				forge.F("key", "extensions.patron"),
			)
			return cfg, true
		}
		e.Logger().Warn("patron: failed to bind extensions.patron config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "patron" key.
	if cm.IsSet("patron") {
		if err := cm.Bind("patron", &cfg); err == nil {
			e.Logger().Debug("patron: loaded config from file",
				forge.F("key", "patron"),
			)
			return cfg, true
		}
		e.Logger().Warn("patron: failed to bind patron config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.JournalBatchSize == 0 {
		cfg.JournalBatchSize = defaults.JournalBatchSize
	}
	if cfg.JournalFlushInterval == 0 {
		cfg.JournalFlushInterval = defaults.JournalFlushInterval
	}
	if cfg.StatusCacheTTL == 0 {
		cfg.StatusCacheTTL = defaults.StatusCacheTTL
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.ProtocolAccount == "" && programmaticConfig.ProtocolAccount != "" {
		yamlConfig.ProtocolAccount = programmaticConfig.ProtocolAccount
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.JournalBatchSize == 0 && programmaticConfig.JournalBatchSize != 0 {
		yamlConfig.JournalBatchSize = programmaticConfig.JournalBatchSize
	}
	if yamlConfig.JournalFlushInterval == 0 && programmaticConfig.JournalFlushInterval != 0 {
		yamlConfig.JournalFlushInterval = programmaticConfig.JournalFlushInterval
	}
	if yamlConfig.StatusCacheTTL == 0 && programmaticConfig.StatusCacheTTL != 0 {
		yamlConfig.StatusCacheTTL = programmaticConfig.StatusCacheTTL
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
