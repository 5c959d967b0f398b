// Package audithook bridges Patron lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/patron/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnContractCreated     = (*Extension)(nil)
	_ plugin.OnTierCreated         = (*Extension)(nil)
	_ plugin.OnSubscribed          = (*Extension)(nil)
	_ plugin.OnUnsubscribed        = (*Extension)(nil)
	_ plugin.OnSubscriberLapsed    = (*Extension)(nil)
	_ plugin.OnPaymentSent         = (*Extension)(nil)
	_ plugin.OnChargeFailed        = (*Extension)(nil)
	_ plugin.OnSettlementCompleted = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Patron lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Contract lifecycle hooks
// ──────────────────────────────────────────────────

// OnContractCreated implements plugin.OnContractCreated.
func (e *Extension) OnContractCreated(ctx context.Context, _ interface{}) error {
	// Would extract contract details from the interface
	return e.record(ctx, ActionContractCreated, SeverityInfo, OutcomeSuccess,
		ResourceContract, "", CategoryBilling, nil,
		"event", "contract_created",
	)
}

// OnTierCreated implements plugin.OnTierCreated.
func (e *Extension) OnTierCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionTierCreated, SeverityInfo, OutcomeSuccess,
		ResourceTier, "", CategoryBilling, nil,
		"event", "tier_created",
	)
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscribed implements plugin.OnSubscribed.
func (e *Extension) OnSubscribed(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSubscribed, SeverityInfo, OutcomeSuccess,
		ResourceSubscriber, "", CategorySubscription, nil,
		"event", "subscribed",
	)
}

// OnUnsubscribed implements plugin.OnUnsubscribed.
func (e *Extension) OnUnsubscribed(ctx context.Context, contractID, address string) error {
	return e.record(ctx, ActionUnsubscribed, SeverityInfo, OutcomeSuccess,
		ResourceSubscriber, address, CategorySubscription, nil,
		"contract_id", contractID,
		"address", address,
	)
}

// OnSubscriberLapsed implements plugin.OnSubscriberLapsed.
func (e *Extension) OnSubscriberLapsed(ctx context.Context, contractID, address, reason string) error {
	return e.record(ctx, ActionSubscriberLapsed, SeverityWarning, OutcomeSuccess,
		ResourceSubscriber, address, CategorySubscription, nil,
		"contract_id", contractID,
		"address", address,
		"lapse_reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnPaymentSent implements plugin.OnPaymentSent.
func (e *Extension) OnPaymentSent(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionPaymentSent, SeverityInfo, OutcomeSuccess,
		ResourcePayment, "", CategoryPayment, nil,
		"event", "payment_sent",
	)
}

// OnChargeFailed implements plugin.OnChargeFailed.
func (e *Extension) OnChargeFailed(ctx context.Context, contractID, address string, err error) error {
	return e.record(ctx, ActionChargeFailed, SeverityCritical, OutcomeFailure,
		ResourcePayment, address, CategoryPayment, err,
		"contract_id", contractID,
		"address", address,
	)
}

// OnSettlementCompleted implements plugin.OnSettlementCompleted.
func (e *Extension) OnSettlementCompleted(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSettlementCompleted, SeverityInfo, OutcomeSuccess,
		ResourceSettlement, "", CategoryBilling, nil,
		"event", "settlement_completed",
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
