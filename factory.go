package patron

import (
	"context"

	"github.com/xraph/patron/deployment"
	"github.com/xraph/patron/id"
	"github.com/xraph/patron/types"
)

// CreateContract deploys a new contract instance. The creator becomes the
// owner, creator-net payouts go to recipient, and tier prices must settle
// in the paymentSource asset. Protocol fees flow to the engine's protocol
// account.
func (e *Engine) CreateContract(ctx context.Context, creator, name, recipient, paymentSource string) (*Contract, error) {
	return e.createContract(ctx, creator, name, recipient, paymentSource, false)
}

// CreateContractWithBadge deploys a new contract instance and mints a
// creator badge keyed by the instance ID.
func (e *Engine) CreateContractWithBadge(ctx context.Context, creator, name, recipient, paymentSource string) (*Contract, error) {
	return e.createContract(ctx, creator, name, recipient, paymentSource, true)
}

func (e *Engine) createContract(ctx context.Context, creator, name, recipient, paymentSource string, badge bool) (*Contract, error) {
	if creator == "" || recipient == "" || paymentSource == "" {
		return nil, ErrInvalidInput
	}

	inst := &deployment.Instance{
		Entity:        types.NewEntity(),
		ID:            id.NewContractID(),
		Creator:       creator,
		Owner:         creator,
		Name:          name,
		Recipient:     recipient,
		FeeCollector:  e.protocolAccount,
		PaymentSource: paymentSource,
	}
	if badge {
		inst.BadgeID = id.NewBadgeID()
	}

	if err := e.store.CreateContract(ctx, inst); err != nil {
		return nil, err
	}

	if badge {
		// The badge is a receipt of deployment, indexed by the instance
		// ID. Like membership tokens, a failed mint does not unwind the
		// deployment.
		if err := e.badgeIssuer.Issue(ctx, creator, inst.BadgeKey(), true, nil); err != nil {
			e.logger.Warn("creator badge issuance failed",
				"contract", inst.ID,
				"creator", creator,
				"error", err,
			)
		}
	}

	e.plugins.EmitContractCreated(ctx, inst)
	e.logger.Info("contract created",
		"contract", inst.ID,
		"creator", creator,
		"payment_source", paymentSource,
		"badge", badge,
	)

	return &Contract{engine: e, id: inst.ID}, nil
}

// Contract returns a handle to an existing contract instance.
func (e *Engine) Contract(ctx context.Context, contractID id.ContractID) (*Contract, error) {
	if _, err := e.store.GetContract(ctx, contractID); err != nil {
		return nil, err
	}
	return &Contract{engine: e, id: contractID}, nil
}

// ContractByBadge resolves a contract handle from a creator badge key.
func (e *Engine) ContractByBadge(ctx context.Context, badgeKey string) (*Contract, error) {
	inst, err := e.store.GetContractByBadge(ctx, badgeKey)
	if err != nil {
		return nil, err
	}
	return &Contract{engine: e, id: inst.ID}, nil
}

// ContractsByCreator lists the contract instances deployed by a creator.
func (e *Engine) ContractsByCreator(ctx context.Context, creator string, opts deployment.ListOpts) ([]*deployment.Instance, error) {
	return e.store.ListContractsByCreator(ctx, creator, opts)
}
