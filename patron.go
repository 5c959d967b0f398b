package patron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/patron/billing"
	"github.com/xraph/patron/membership"
	"github.com/xraph/patron/payment"
	"github.com/xraph/patron/plugin"
	"github.com/xraph/patron/store"
)

// BillingPeriod is the fixed subscription period granted by every
// successful subscribe charge.
const BillingPeriod = 30 * 24 * time.Hour

// Engine is the main subscription billing engine. It deploys contract
// instances, manages their tiers and subscribers, and settles recurring
// charges against an external payment ledger.
type Engine struct {
	store       store.Store
	ledger      payment.Ledger
	issuer      membership.Issuer
	badgeIssuer membership.Issuer
	plugins     *plugin.Registry
	logger      *slog.Logger
	clock       func() time.Time

	// In-flight charge markers, keyed contractID/address. A held marker
	// rejects rather than blocks: the second caller fails exactly like a
	// duplicate subscribe would.
	inflightMu sync.Mutex
	inflight   map[string]struct{}

	// Background payment journal
	journal  chan *billing.Payment
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Payments whose journal write failed, held for retry on the next
	// flush. Guarded by retryMu.
	retryMu    sync.Mutex
	retryQueue []*billing.Payment

	// Configuration
	journalBatchSize     int
	journalFlushInterval time.Duration
	statusCacheTTL       time.Duration
	protocolAccount      string
}

// New creates a new Engine instance.
func New(s store.Store, ledger payment.Ledger, issuer membership.Issuer, opts ...Option) *Engine {
	e := &Engine{
		store:                s,
		ledger:               ledger,
		issuer:               issuer,
		plugins:              plugin.NewRegistry(),
		logger:               slog.Default(),
		clock:                time.Now,
		inflight:             make(map[string]struct{}),
		journal:              make(chan *billing.Payment, 10000),
		stopChan:             make(chan struct{}),
		journalBatchSize:     100,
		journalFlushInterval: 5 * time.Second,
		statusCacheTTL:       30 * time.Second,
		protocolAccount:      "protocol",
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.badgeIssuer == nil {
		e.badgeIssuer = issuer
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithJournalConfig configures payment journaling parameters.
func WithJournalConfig(batchSize int, flushInterval time.Duration) Option {
	return func(e *Engine) {
		e.journalBatchSize = batchSize
		e.journalFlushInterval = flushInterval
	}
}

// WithStatusCacheTTL sets the subscription status cache TTL.
func WithStatusCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.statusCacheTTL = ttl
	}
}

// WithProtocolAccount sets the account that collects protocol fees.
func WithProtocolAccount(account string) Option {
	return func(e *Engine) {
		e.protocolAccount = account
	}
}

// WithBadgeIssuer sets a separate issuer for creator badges. Defaults to
// the membership issuer.
func WithBadgeIssuer(issuer membership.Issuer) Option {
	return func(e *Engine) {
		e.badgeIssuer = issuer
	}
}

// WithClock overrides the time source. Used by tests to control expiry.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// Start begins background workers.
func (e *Engine) Start(ctx context.Context) error {
	// Migrate database
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize plugins
	e.plugins.EmitInit(ctx, e)

	// Start journal flush worker
	e.wg.Add(1)
	go e.journalFlushWorker(ctx)

	e.logger.Info("patron started",
		"batch_size", e.journalBatchSize,
		"flush_interval", e.journalFlushInterval,
		"cache_ttl", e.statusCacheTTL,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Store returns the underlying store. Exposed for plugins and extensions.
func (e *Engine) Store() store.Store {
	return e.store
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}

// ──────────────────────────────────────────────────
// In-flight charge markers
// ──────────────────────────────────────────────────

func (e *Engine) beginCharge(key string) bool {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()

	if _, held := e.inflight[key]; held {
		return false
	}
	e.inflight[key] = struct{}{}
	return true
}

func (e *Engine) endCharge(key string) {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	delete(e.inflight, key)
}

// ──────────────────────────────────────────────────
// Payment journal
// ──────────────────────────────────────────────────

// journalPayment enqueues a settled payment for batch persistence. When
// the buffer is full it falls back to a synchronous write so a settled
// charge is never dropped.
func (e *Engine) journalPayment(ctx context.Context, p *billing.Payment) error {
	select {
	case e.journal <- p:
		return nil
	default:
	}

	if err := e.store.RecordPayments(ctx, []*billing.Payment{p}); err != nil {
		e.logger.Error("journal full and sync write failed",
			"payment", p.ID,
			"error", err,
		)
		e.parkPayments(p)
		return ErrJournalFull
	}
	return nil
}

// parkPayments holds payments whose write failed so the flush worker can
// retry them. The final drain on Stop gets a last attempt at them.
func (e *Engine) parkPayments(payments ...*billing.Payment) {
	e.retryMu.Lock()
	defer e.retryMu.Unlock()
	e.retryQueue = append(e.retryQueue, payments...)
}

func (e *Engine) takeParkedPayments() []*billing.Payment {
	e.retryMu.Lock()
	defer e.retryMu.Unlock()
	parked := e.retryQueue
	e.retryQueue = nil
	return parked
}

// journalFlushWorker flushes journaled payments to the store.
func (e *Engine) journalFlushWorker(ctx context.Context) {
	defer e.wg.Done()

	batch := make([]*billing.Payment, 0, e.journalBatchSize)
	ticker := time.NewTicker(e.journalFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			// Drain the buffer, then final flush
			for {
				select {
				case p := <-e.journal:
					batch = append(batch, p)
					continue
				default:
				}
				break
			}
			e.retryMu.Lock()
			parked := len(e.retryQueue)
			e.retryMu.Unlock()
			if len(batch) > 0 || parked > 0 {
				e.flushJournalBatch(ctx, batch)
			}
			return

		case p := <-e.journal:
			batch = append(batch, p)
			if len(batch) >= e.journalBatchSize {
				e.flushJournalBatch(ctx, batch)
				batch = make([]*billing.Payment, 0, e.journalBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				e.flushJournalBatch(ctx, batch)
				batch = make([]*billing.Payment, 0, e.journalBatchSize)
			}
		}
	}
}

func (e *Engine) flushJournalBatch(ctx context.Context, batch []*billing.Payment) {
	start := time.Now()

	// Earlier failures ride along with this batch.
	if parked := e.takeParkedPayments(); len(parked) > 0 {
		batch = append(parked, batch...)
	}

	if err := e.store.RecordPayments(ctx, batch); err != nil {
		e.logger.Error("failed to flush payment batch",
			"error", err,
			"batch_size", len(batch),
		)
		e.parkPayments(batch...)
		return
	}

	elapsed := time.Since(start)
	e.plugins.EmitPaymentsFlushed(ctx, len(batch), elapsed)

	e.logger.Debug("flushed payment batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}
