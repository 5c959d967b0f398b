package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onContractCreated     []OnContractCreated
	onTierCreated         []OnTierCreated
	onTierUpdated         []OnTierUpdated
	onTierDeactivated     []OnTierDeactivated
	onSubscribed          []OnSubscribed
	onUnsubscribed        []OnUnsubscribed
	onSubscriberLapsed    []OnSubscriberLapsed
	onPaymentSent         []OnPaymentSent
	onChargeFailed        []OnChargeFailed
	onSettlementCompleted []OnSettlementCompleted
	onPaymentsFlushed     []OnPaymentsFlushed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnContractCreated); ok {
		r.onContractCreated = append(r.onContractCreated, v)
	}
	if v, ok := p.(OnTierCreated); ok {
		r.onTierCreated = append(r.onTierCreated, v)
	}
	if v, ok := p.(OnTierUpdated); ok {
		r.onTierUpdated = append(r.onTierUpdated, v)
	}
	if v, ok := p.(OnTierDeactivated); ok {
		r.onTierDeactivated = append(r.onTierDeactivated, v)
	}
	if v, ok := p.(OnSubscribed); ok {
		r.onSubscribed = append(r.onSubscribed, v)
	}
	if v, ok := p.(OnUnsubscribed); ok {
		r.onUnsubscribed = append(r.onUnsubscribed, v)
	}
	if v, ok := p.(OnSubscriberLapsed); ok {
		r.onSubscriberLapsed = append(r.onSubscriberLapsed, v)
	}
	if v, ok := p.(OnPaymentSent); ok {
		r.onPaymentSent = append(r.onPaymentSent, v)
	}
	if v, ok := p.(OnChargeFailed); ok {
		r.onChargeFailed = append(r.onChargeFailed, v)
	}
	if v, ok := p.(OnSettlementCompleted); ok {
		r.onSettlementCompleted = append(r.onSettlementCompleted, v)
	}
	if v, ok := p.(OnPaymentsFlushed); ok {
		r.onPaymentsFlushed = append(r.onPaymentsFlushed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnContractCreated)(nil)).Elem(), "OnContractCreated")
	checkInterface(reflect.TypeOf((*OnTierCreated)(nil)).Elem(), "OnTierCreated")
	checkInterface(reflect.TypeOf((*OnSubscribed)(nil)).Elem(), "OnSubscribed")
	checkInterface(reflect.TypeOf((*OnUnsubscribed)(nil)).Elem(), "OnUnsubscribed")
	checkInterface(reflect.TypeOf((*OnSubscriberLapsed)(nil)).Elem(), "OnSubscriberLapsed")
	checkInterface(reflect.TypeOf((*OnPaymentSent)(nil)).Elem(), "OnPaymentSent")
	checkInterface(reflect.TypeOf((*OnChargeFailed)(nil)).Elem(), "OnChargeFailed")
	checkInterface(reflect.TypeOf((*OnSettlementCompleted)(nil)).Elem(), "OnSettlementCompleted")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitContractCreated emits a contract created event.
func (r *Registry) EmitContractCreated(ctx context.Context, inst interface{}) {
	r.mu.RLock()
	plugins := r.onContractCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnContractCreated(ctx, inst)
		}); err != nil {
			r.logger.Warn("plugin OnContractCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTierCreated emits a tier created event.
func (r *Registry) EmitTierCreated(ctx context.Context, t interface{}) {
	r.mu.RLock()
	plugins := r.onTierCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTierCreated(ctx, t)
		}); err != nil {
			r.logger.Warn("plugin OnTierCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscribed emits a subscribed event.
func (r *Registry) EmitSubscribed(ctx context.Context, record interface{}) {
	r.mu.RLock()
	plugins := r.onSubscribed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscribed(ctx, record)
		}); err != nil {
			r.logger.Warn("plugin OnSubscribed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUnsubscribed emits an unsubscribed event.
func (r *Registry) EmitUnsubscribed(ctx context.Context, contractID, address string) {
	r.mu.RLock()
	plugins := r.onUnsubscribed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUnsubscribed(ctx, contractID, address)
		}); err != nil {
			r.logger.Warn("plugin OnUnsubscribed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscriberLapsed emits a subscriber lapsed event.
func (r *Registry) EmitSubscriberLapsed(ctx context.Context, contractID, address, reason string) {
	r.mu.RLock()
	plugins := r.onSubscriberLapsed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriberLapsed(ctx, contractID, address, reason)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriberLapsed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentSent emits a payment sent event.
func (r *Registry) EmitPaymentSent(ctx context.Context, payment interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentSent
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentSent(ctx, payment)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentSent failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitChargeFailed emits a charge failed event.
func (r *Registry) EmitChargeFailed(ctx context.Context, contractID, address string, chargeErr error) {
	r.mu.RLock()
	plugins := r.onChargeFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnChargeFailed(ctx, contractID, address, chargeErr)
		}); err != nil {
			r.logger.Warn("plugin OnChargeFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSettlementCompleted emits a settlement completed event.
func (r *Registry) EmitSettlementCompleted(ctx context.Context, summary interface{}) {
	r.mu.RLock()
	plugins := r.onSettlementCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSettlementCompleted(ctx, summary)
		}); err != nil {
			r.logger.Warn("plugin OnSettlementCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentsFlushed emits a payments flushed event.
func (r *Registry) EmitPaymentsFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onPaymentsFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentsFlushed(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentsFlushed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
