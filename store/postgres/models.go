package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/patron/billing"
	"github.com/xraph/patron/deployment"
	"github.com/xraph/patron/id"
	"github.com/xraph/patron/subscriber"
	"github.com/xraph/patron/tier"
	"github.com/xraph/patron/types"
)

// ==================== Contract models ====================

type contractModel struct {
	grove.BaseModel `grove:"table:patron_contracts"`

	ID            string            `grove:"id,pk"`
	Creator       string            `grove:"creator"`
	Owner         string            `grove:"owner"`
	Name          string            `grove:"name"`
	Recipient     string            `grove:"recipient"`
	FeeCollector  string            `grove:"fee_collector"`
	PaymentSource string            `grove:"payment_source"`
	BadgeID       string            `grove:"badge_id"`
	BadgeKey      string            `grove:"badge_key"`
	Metadata      map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt     time.Time         `grove:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"`
}

func toContractModel(inst *deployment.Instance) *contractModel {
	m := &contractModel{
		ID:            inst.ID.String(),
		Creator:       inst.Creator,
		Owner:         inst.Owner,
		Name:          inst.Name,
		Recipient:     inst.Recipient,
		FeeCollector:  inst.FeeCollector,
		PaymentSource: inst.PaymentSource,
		Metadata:      inst.Metadata,
		CreatedAt:     inst.CreatedAt,
		UpdatedAt:     inst.UpdatedAt,
	}
	if !inst.BadgeID.IsNil() {
		m.BadgeID = inst.BadgeID.String()
		m.BadgeKey = inst.BadgeKey()
	}
	return m
}

func fromContractModel(m *contractModel) (*deployment.Instance, error) {
	contractID, err := id.ParseContractID(m.ID)
	if err != nil {
		return nil, err
	}

	inst := &deployment.Instance{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            contractID,
		Creator:       m.Creator,
		Owner:         m.Owner,
		Name:          m.Name,
		Recipient:     m.Recipient,
		FeeCollector:  m.FeeCollector,
		PaymentSource: m.PaymentSource,
		Metadata:      m.Metadata,
	}
	if m.BadgeID != "" {
		badgeID, err := id.ParseBadgeID(m.BadgeID)
		if err != nil {
			return nil, err
		}
		inst.BadgeID = badgeID
	}
	return inst, nil
}

// ==================== Tier models ====================

type tierModel struct {
	grove.BaseModel `grove:"table:patron_tiers"`

	ContractID  string            `grove:"contract_id,pk"`
	TierID      int64             `grove:"tier_id,pk"`
	Name        string            `grove:"name"`
	PriceAmount int64             `grove:"price_amount"`
	PriceAsset  string            `grove:"price_asset"`
	Active      bool              `grove:"active"`
	Metadata    map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt   time.Time         `grove:"created_at"`
	UpdatedAt   time.Time         `grove:"updated_at"`
}

func fromTierModel(m *tierModel) (*tier.Tier, error) {
	contractID, err := id.ParseContractID(m.ContractID)
	if err != nil {
		return nil, err
	}

	return &tier.Tier{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ContractID: contractID,
		ID:         m.TierID,
		Name:       m.Name,
		Price:      types.Money{Amount: m.PriceAmount, Currency: m.PriceAsset},
		Active:     m.Active,
		Metadata:   m.Metadata,
	}, nil
}

// ==================== Subscriber models ====================

type subscriberModel struct {
	grove.BaseModel `grove:"table:patron_subscribers"`

	ContractID string    `grove:"contract_id,pk"`
	Address    string    `grove:"address,pk"`
	TierID     int64     `grove:"tier_id"`
	Active     bool      `grove:"active"`
	ExpiresAt  time.Time `grove:"expires_at"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toSubscriberModel(r *subscriber.Record) *subscriberModel {
	return &subscriberModel{
		ContractID: r.ContractID.String(),
		Address:    r.Address,
		TierID:     r.TierID,
		Active:     r.Active,
		ExpiresAt:  r.ExpiresAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func fromSubscriberModel(m *subscriberModel) (*subscriber.Record, error) {
	contractID, err := id.ParseContractID(m.ContractID)
	if err != nil {
		return nil, err
	}

	return &subscriber.Record{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ContractID: contractID,
		Address:    m.Address,
		TierID:     m.TierID,
		Active:     m.Active,
		ExpiresAt:  m.ExpiresAt,
	}, nil
}

// ==================== Status Cache models ====================

type statusCacheModel struct {
	grove.BaseModel `grove:"table:patron_status_cache"`

	CacheKey       string    `grove:"cache_key,pk"`
	ContractID     string    `grove:"contract_id"`
	Address        string    `grove:"address"`
	Subscribed     bool      `grove:"subscribed"`
	TierID         int64     `grove:"tier_id"`
	SubExpiresAt   time.Time `grove:"sub_expires_at"`
	Reason         string    `grove:"reason"`
	CacheExpiresAt time.Time `grove:"cache_expires_at"`
	CreatedAt      time.Time `grove:"created_at"`
}

func toStatusCacheModel(contractID id.ContractID, address string, status *subscriber.Status, expiresAt time.Time) *statusCacheModel {
	return &statusCacheModel{
		CacheKey:       contractID.String() + ":" + address,
		ContractID:     contractID.String(),
		Address:        address,
		Subscribed:     status.Subscribed,
		TierID:         status.TierID,
		SubExpiresAt:   status.ExpiresAt,
		Reason:         status.Reason,
		CacheExpiresAt: expiresAt,
		CreatedAt:      time.Now().UTC(),
	}
}

func fromStatusCacheModel(m *statusCacheModel) *subscriber.Status {
	return &subscriber.Status{
		Subscribed: m.Subscribed,
		TierID:     m.TierID,
		ExpiresAt:  m.SubExpiresAt,
		Reason:     m.Reason,
	}
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:patron_payments"`

	ID                string    `grove:"id,pk"`
	ContractID        string    `grove:"contract_id"`
	Subscriber        string    `grove:"subscriber"`
	TierID            int64     `grove:"tier_id"`
	CreatorNetAmount  int64     `grove:"creator_net_amount"`
	CreatorNetAsset   string    `grove:"creator_net_asset"`
	ProtocolFeeAmount int64     `grove:"protocol_fee_amount"`
	ProtocolFeeAsset  string    `grove:"protocol_fee_asset"`
	SettledAt         time.Time `grove:"settled_at"`
	CreatedAt         time.Time `grove:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"`
}

func toPaymentModel(p *billing.Payment) *paymentModel {
	return &paymentModel{
		ID:                p.ID.String(),
		ContractID:        p.ContractID.String(),
		Subscriber:        p.Subscriber,
		TierID:            p.TierID,
		CreatorNetAmount:  p.CreatorNet.Amount,
		CreatorNetAsset:   p.CreatorNet.Currency,
		ProtocolFeeAmount: p.ProtocolFee.Amount,
		ProtocolFeeAsset:  p.ProtocolFee.Currency,
		SettledAt:         p.SettledAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*billing.Payment, error) {
	paymentID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	contractID, err := id.ParseContractID(m.ContractID)
	if err != nil {
		return nil, err
	}

	return &billing.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          paymentID,
		ContractID:  contractID,
		Subscriber:  m.Subscriber,
		TierID:      m.TierID,
		CreatorNet:  types.Money{Amount: m.CreatorNetAmount, Currency: m.CreatorNetAsset},
		ProtocolFee: types.Money{Amount: m.ProtocolFeeAmount, Currency: m.ProtocolFeeAsset},
		SettledAt:   m.SettledAt,
	}, nil
}

// ==================== Settlement models ====================

type settlementModel struct {
	grove.BaseModel `grove:"table:patron_settlements"`

	ID         string    `grove:"id,pk"`
	ContractID string    `grove:"contract_id"`
	RanAt      time.Time `grove:"ran_at"`
	Total      int       `grove:"total"`
	Renewed    int       `grove:"renewed"`
	Lapsed     int       `grove:"lapsed"`
	Failed     int       `grove:"failed"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toSettlementModel(run *billing.SettlementSummary) *settlementModel {
	return &settlementModel{
		ID:         run.ID.String(),
		ContractID: run.ContractID.String(),
		RanAt:      run.RanAt,
		Total:      run.Total,
		Renewed:    run.Renewed,
		Lapsed:     run.Lapsed,
		Failed:     run.Failed,
		CreatedAt:  run.CreatedAt,
		UpdatedAt:  run.UpdatedAt,
	}
}

func fromSettlementModel(m *settlementModel) (*billing.SettlementSummary, error) {
	runID, err := id.ParseSettlementID(m.ID)
	if err != nil {
		return nil, err
	}
	contractID, err := id.ParseContractID(m.ContractID)
	if err != nil {
		return nil, err
	}

	return &billing.SettlementSummary{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         runID,
		ContractID: contractID,
		RanAt:      m.RanAt,
		Total:      m.Total,
		Renewed:    m.Renewed,
		Lapsed:     m.Lapsed,
		Failed:     m.Failed,
	}, nil
}
