package patron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/patron/billing"
	"github.com/xraph/patron/deployment"
	"github.com/xraph/patron/id"
	"github.com/xraph/patron/payment"
	"github.com/xraph/patron/subscriber"
	"github.com/xraph/patron/tier"
	"github.com/xraph/patron/types"
)

// Contract is a handle to one deployed contract instance. Handles are
// cheap and stateless: all state lives in the store, so any number of
// handles to the same instance may coexist.
type Contract struct {
	engine *Engine
	id     id.ContractID
}

// ID returns the contract instance ID.
func (c *Contract) ID() id.ContractID {
	return c.id
}

// Instance loads the deployment record for this contract.
func (c *Contract) Instance(ctx context.Context) (*deployment.Instance, error) {
	return c.engine.store.GetContract(ctx, c.id)
}

// ──────────────────────────────────────────────────
// Tier Management
// ──────────────────────────────────────────────────

// CreateTier adds a pricing tier to the contract. Only the contract owner
// may add tiers; tiers are immutable once created and receive sequential
// IDs starting at zero.
func (c *Contract) CreateTier(ctx context.Context, actor, name string, price types.Money) (*tier.Tier, error) {
	inst, err := c.engine.store.GetContract(ctx, c.id)
	if err != nil {
		return nil, err
	}
	if actor != inst.Owner {
		return nil, ErrOnlyOwner
	}
	if name == "" {
		return nil, ErrEmptyTierName
	}
	if !price.IsPositive() || price.Currency != inst.PaymentSource {
		return nil, ErrInvalidTierPrice
	}

	t := &tier.Tier{
		Entity:     types.NewEntity(),
		ContractID: c.id,
		Name:       name,
		Price:      price,
		Active:     true,
	}
	if _, err := c.engine.store.CreateTier(ctx, t); err != nil {
		return nil, err
	}

	c.engine.plugins.EmitTierCreated(ctx, t)
	return t, nil
}

// GetTier retrieves a tier by its sequential ID.
func (c *Contract) GetTier(ctx context.Context, tierID int64) (*tier.Tier, error) {
	return c.engine.store.GetTier(ctx, c.id, tierID)
}

// TierCount returns the number of tiers on the contract.
func (c *Contract) TierCount(ctx context.Context) (int64, error) {
	return c.engine.store.CountTiers(ctx, c.id)
}

// ListTiers lists tiers on the contract.
func (c *Contract) ListTiers(ctx context.Context, opts tier.ListOpts) ([]*tier.Tier, error) {
	return c.engine.store.ListTiers(ctx, c.id, opts)
}

// ──────────────────────────────────────────────────
// Subscription Lifecycle
// ──────────────────────────────────────────────────

// Subscribe charges the address for one period of the given tier and
// records the membership. The charge, the membership token, and the
// record are committed in that order; a failed charge leaves no trace.
func (c *Contract) Subscribe(ctx context.Context, address string, tierID int64) (*subscriber.Record, error) {
	inst, err := c.engine.store.GetContract(ctx, c.id)
	if err != nil {
		return nil, err
	}
	t, err := c.engine.store.GetTier(ctx, c.id, tierID)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, ErrTierNotActive
	}

	key := c.id.String() + "/" + address
	if !c.engine.beginCharge(key) {
		return nil, ErrAlreadySubscribed
	}
	defer c.engine.endCharge(key)

	now := c.engine.clock()
	if _, err := c.charge(ctx, inst, t, address, now); err != nil {
		return nil, err
	}

	// The membership token is a receipt, not the authority on
	// subscription state. Issuance failure after a settled charge is
	// logged and the subscription still proceeds.
	if err := c.engine.issuer.Issue(ctx, address, c.id.String(), true, nil); err != nil {
		c.engine.logger.Warn("membership token issuance failed",
			"contract", c.id,
			"subscriber", address,
			"error", err,
		)
	}

	record := &subscriber.Record{
		Entity:     types.NewEntity(),
		ContractID: c.id,
		Address:    address,
		TierID:     tierID,
		Active:     true,
		ExpiresAt:  now.Add(BillingPeriod),
	}
	if err := c.engine.store.PutSubscriber(ctx, record); err != nil {
		return nil, err
	}

	_ = c.engine.store.InvalidateStatus(ctx, c.id, address) //nolint:errcheck // best-effort cache invalidation
	c.engine.plugins.EmitSubscribed(ctx, record)
	return record, nil
}

// Unsubscribe deactivates the address's membership. The subscriber must
// first revoke the pull-authorization granted to the contract; leaving a
// nonzero allowance behind blocks the unsubscribe.
func (c *Contract) Unsubscribe(ctx context.Context, address string) error {
	record, err := c.engine.store.GetSubscriber(ctx, c.id, address)
	if err != nil {
		return err
	}
	if !record.Active {
		return ErrNotSubscribed
	}

	allowance, err := c.engine.ledger.Allowance(ctx, address, c.id.String())
	if err != nil {
		return err
	}
	if allowance.IsPositive() {
		return ErrAllowanceNotZero
	}

	if err := c.engine.store.DeactivateSubscriber(ctx, c.id, address); err != nil {
		return err
	}

	_ = c.engine.store.InvalidateStatus(ctx, c.id, address) //nolint:errcheck // best-effort cache invalidation
	c.engine.plugins.EmitUnsubscribed(ctx, c.id.String(), address)
	return nil
}

// IsSubscribed reports the current membership status of an address. The
// answer is cached; billing paths always read the store directly.
func (c *Contract) IsSubscribed(ctx context.Context, address string) (*subscriber.Status, error) {
	if cached, err := c.engine.store.GetCachedStatus(ctx, c.id, address); err == nil {
		return cached, nil
	}

	now := c.engine.clock()
	status := &subscriber.Status{}

	record, err := c.engine.store.GetSubscriber(ctx, c.id, address)
	switch {
	case errors.Is(err, ErrNotSubscribed):
		status.Reason = "not subscribed"
	case err != nil:
		return nil, err
	case !record.Active:
		status.TierID = record.TierID
		status.ExpiresAt = record.ExpiresAt
		status.Reason = "lapsed"
	case !record.ExpiresAt.After(now):
		status.TierID = record.TierID
		status.ExpiresAt = record.ExpiresAt
		status.Reason = "expired"
	default:
		status.Subscribed = true
		status.TierID = record.TierID
		status.ExpiresAt = record.ExpiresAt
	}

	_ = c.engine.store.SetCachedStatus(ctx, c.id, address, status, c.engine.statusCacheTTL) //nolint:errcheck // best-effort cache set
	return status, nil
}

// ListSubscribers lists membership records on the contract.
func (c *Contract) ListSubscribers(ctx context.Context, opts subscriber.ListOpts) ([]*subscriber.Record, error) {
	return c.engine.store.ListSubscribers(ctx, c.id, opts)
}

// ──────────────────────────────────────────────────
// Settlement
// ──────────────────────────────────────────────────

// SettleBatch processes a batch of subscriber addresses: expired
// memberships lapse without a charge, the rest get a renewal charge
// attempt, and a failed charge lapses the membership. Per-element
// failures are isolated; the run itself always completes and its summary
// is persisted.
//
// A successful renewal charge does not extend the recorded expiry. This
// mirrors the settlement behavior the engine is bound to.
func (c *Contract) SettleBatch(ctx context.Context, addresses []string) (*billing.SettlementSummary, error) {
	inst, err := c.engine.store.GetContract(ctx, c.id)
	if err != nil {
		return nil, err
	}

	now := c.engine.clock()
	summary := &billing.SettlementSummary{
		Entity:     types.NewEntity(),
		ID:         id.NewSettlementID(),
		ContractID: c.id,
		RanAt:      now,
		Total:      len(addresses),
	}

	for _, address := range addresses {
		switch c.settleOne(ctx, inst, address, now) {
		case settleRenewed:
			summary.Renewed++
		case settleLapsed:
			summary.Lapsed++
		case settleFailed:
			summary.Failed++
		}
	}

	if err := c.engine.store.RecordSettlement(ctx, summary); err != nil {
		return nil, err
	}

	c.engine.plugins.EmitSettlementCompleted(ctx, summary)
	c.engine.logger.Info("settlement completed",
		"contract", c.id,
		"total", summary.Total,
		"renewed", summary.Renewed,
		"lapsed", summary.Lapsed,
		"failed", summary.Failed,
	)
	return summary, nil
}

// ListSettlements lists past settlement runs for the contract.
func (c *Contract) ListSettlements(ctx context.Context, opts billing.ListOpts) ([]*billing.SettlementSummary, error) {
	return c.engine.store.ListSettlements(ctx, c.id, opts)
}

// ListPayments lists journaled payments for the contract.
func (c *Contract) ListPayments(ctx context.Context, opts billing.ListOpts) ([]*billing.Payment, error) {
	return c.engine.store.ListPayments(ctx, c.id, opts)
}

type settleOutcome int

const (
	settleRenewed settleOutcome = iota
	settleLapsed
	settleFailed
)

// settleOne processes a single subscriber. The in-flight marker is held
// across the charge and deactivation so a concurrent subscribe cannot
// interleave.
func (c *Contract) settleOne(ctx context.Context, inst *deployment.Instance, address string, now time.Time) settleOutcome {
	key := c.id.String() + "/" + address
	if !c.engine.beginCharge(key) {
		return settleFailed
	}
	defer c.engine.endCharge(key)

	record, err := c.engine.store.GetSubscriber(ctx, c.id, address)
	if err != nil && !errors.Is(err, ErrNotSubscribed) {
		c.engine.logger.Error("settlement record lookup failed",
			"contract", c.id,
			"subscriber", address,
			"error", err,
		)
		return settleFailed
	}

	// A missing record reads the same as a lapsed one.
	if record == nil || !record.ExpiresAt.After(now) {
		c.lapse(ctx, address, billing.LapseExpired)
		return settleLapsed
	}

	t, err := c.engine.store.GetTier(ctx, c.id, record.TierID)
	if err != nil {
		c.engine.plugins.EmitChargeFailed(ctx, c.id.String(), address, err)
		c.lapse(ctx, address, billing.LapsePaymentFailed)
		return settleFailed
	}

	// The tier's active flag is deliberately not re-checked here: a
	// deactivated tier keeps billing its existing subscribers.
	if _, err := c.charge(ctx, inst, t, address, now); err != nil {
		c.lapse(ctx, address, billing.LapsePaymentFailed)
		return settleFailed
	}

	return settleRenewed
}

func (c *Contract) lapse(ctx context.Context, address string, reason billing.LapseReason) {
	if err := c.engine.store.DeactivateSubscriber(ctx, c.id, address); err != nil {
		c.engine.logger.Error("failed to lapse subscriber",
			"contract", c.id,
			"subscriber", address,
			"error", err,
		)
		return
	}
	_ = c.engine.store.InvalidateStatus(ctx, c.id, address) //nolint:errcheck // best-effort cache invalidation
	c.engine.plugins.EmitSubscriberLapsed(ctx, c.id.String(), address, string(reason))
}

// charge executes the atomic two-leg pull for one tier price: creator net
// to the recipient, protocol fee to the fee collector. The guard rejects
// any address whose record is active and unexpired, which makes a
// duplicate subscribe and a concurrent re-charge fail identically.
func (c *Contract) charge(ctx context.Context, inst *deployment.Instance, t *tier.Tier, address string, now time.Time) (*billing.Payment, error) {
	record, err := c.engine.store.GetSubscriber(ctx, c.id, address)
	if err != nil && !errors.Is(err, ErrNotSubscribed) {
		return nil, err
	}
	if record.IsCurrentlyActive(now) {
		return nil, ErrAlreadySubscribed
	}

	creatorNet, protocolFee := SplitFee(t.Price)
	legs := []payment.TransferLeg{
		{From: address, To: inst.Recipient, Amount: creatorNet},
		{From: address, To: inst.FeeCollector, Amount: protocolFee},
	}

	if err := c.engine.ledger.BatchTransfer(ctx, c.id.String(), legs); err != nil {
		c.engine.plugins.EmitChargeFailed(ctx, c.id.String(), address, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	p := &billing.Payment{
		Entity:      types.NewEntity(),
		ID:          id.NewPaymentID(),
		ContractID:  c.id,
		Subscriber:  address,
		TierID:      t.ID,
		CreatorNet:  creatorNet,
		ProtocolFee: protocolFee,
		SettledAt:   now,
	}
	if err := c.engine.journalPayment(ctx, p); err != nil {
		c.engine.logger.Error("payment journaling failed",
			"payment", p.ID,
			"error", err,
		)
	}

	c.engine.plugins.EmitPaymentSent(ctx, p)
	return p, nil
}
