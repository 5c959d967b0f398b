// Package observability provides a metrics extension for Patron that records
// lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/patron/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnContractCreated     = (*MetricsExtension)(nil)
	_ plugin.OnTierCreated         = (*MetricsExtension)(nil)
	_ plugin.OnSubscribed          = (*MetricsExtension)(nil)
	_ plugin.OnUnsubscribed        = (*MetricsExtension)(nil)
	_ plugin.OnSubscriberLapsed    = (*MetricsExtension)(nil)
	_ plugin.OnPaymentSent         = (*MetricsExtension)(nil)
	_ plugin.OnChargeFailed        = (*MetricsExtension)(nil)
	_ plugin.OnSettlementCompleted = (*MetricsExtension)(nil)
	_ plugin.OnPaymentsFlushed     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Patron plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Contract metrics
	ContractCreated Counter
	TierCreated     Counter

	// Subscription metrics
	Subscribed       Counter
	Unsubscribed     Counter
	SubscriberLapsed Counter

	// Billing metrics
	PaymentSent      Counter
	PaymentAmount    Histogram
	ChargeFailed     Counter
	SettlementRuns   Counter
	SettlementSize   Histogram
	JournalBatchSize Histogram
	JournalLatency   Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Contract metrics
		ContractCreated: factory.Counter("patron.contract.created"),
		TierCreated:     factory.Counter("patron.tier.created"),

		// Subscription metrics
		Subscribed:       factory.Counter("patron.subscriber.subscribed"),
		Unsubscribed:     factory.Counter("patron.subscriber.unsubscribed"),
		SubscriberLapsed: factory.Counter("patron.subscriber.lapsed"),

		// Billing metrics
		PaymentSent:      factory.Counter("patron.payment.sent"),
		PaymentAmount:    factory.Histogram("patron.payment.amount"),
		ChargeFailed:     factory.Counter("patron.payment.charge.failed"),
		SettlementRuns:   factory.Counter("patron.settlement.runs"),
		SettlementSize:   factory.Histogram("patron.settlement.size"),
		JournalBatchSize: factory.Histogram("patron.journal.batch.size"),
		JournalLatency:   factory.Histogram("patron.journal.flush.latency_ms"),

		// Error metrics
		StoreErrors:  factory.Counter("patron.store.errors"),
		PluginErrors: factory.Counter("patron.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Contract lifecycle hooks
// ──────────────────────────────────────────────────

// OnContractCreated implements plugin.OnContractCreated.
func (m *MetricsExtension) OnContractCreated(_ context.Context, _ interface{}) error {
	m.ContractCreated.Inc()
	return nil
}

// OnTierCreated implements plugin.OnTierCreated.
func (m *MetricsExtension) OnTierCreated(_ context.Context, _ interface{}) error {
	m.TierCreated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscribed implements plugin.OnSubscribed.
func (m *MetricsExtension) OnSubscribed(_ context.Context, _ interface{}) error {
	m.Subscribed.Inc()
	return nil
}

// OnUnsubscribed implements plugin.OnUnsubscribed.
func (m *MetricsExtension) OnUnsubscribed(_ context.Context, _, _ string) error {
	m.Unsubscribed.Inc()
	return nil
}

// OnSubscriberLapsed implements plugin.OnSubscriberLapsed.
func (m *MetricsExtension) OnSubscriberLapsed(_ context.Context, _, _, _ string) error {
	m.SubscriberLapsed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnPaymentSent implements plugin.OnPaymentSent.
func (m *MetricsExtension) OnPaymentSent(_ context.Context, _ interface{}) error {
	m.PaymentSent.Inc()
	// Would need to inspect the payment to observe its amount
	return nil
}

// OnChargeFailed implements plugin.OnChargeFailed.
func (m *MetricsExtension) OnChargeFailed(_ context.Context, _, _ string, _ error) error {
	m.ChargeFailed.Inc()
	return nil
}

// OnSettlementCompleted implements plugin.OnSettlementCompleted.
func (m *MetricsExtension) OnSettlementCompleted(_ context.Context, _ interface{}) error {
	m.SettlementRuns.Inc()
	// Would need to inspect the summary to observe its batch size
	return nil
}

// OnPaymentsFlushed implements plugin.OnPaymentsFlushed.
func (m *MetricsExtension) OnPaymentsFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalBatchSize.Observe(float64(count))
	m.JournalLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
