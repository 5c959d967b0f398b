package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	patron "github.com/xraph/patron"
	"github.com/xraph/patron/billing"
	"github.com/xraph/patron/deployment"
	"github.com/xraph/patron/id"
	patronstore "github.com/xraph/patron/store"
	"github.com/xraph/patron/subscriber"
	"github.com/xraph/patron/tier"
)

// compile-time interface check
var _ patronstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all patron collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("patron/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Contract Store ====================

func (s *Store) CreateContract(ctx context.Context, inst *deployment.Instance) error {
	m := toContractModel(inst)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("patron/mongo: create contract: %w", err)
	}
	return nil
}

func (s *Store) GetContract(ctx context.Context, contractID id.ContractID) (*deployment.Instance, error) {
	var m contractModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": contractID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, patron.ErrContractNotFound
		}
		return nil, fmt.Errorf("patron/mongo: get contract: %w", err)
	}
	return fromContractModel(&m)
}

func (s *Store) GetContractByBadge(ctx context.Context, badgeKey string) (*deployment.Instance, error) {
	var m contractModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"badge_key": badgeKey}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, patron.ErrBadgeNotFound
		}
		return nil, fmt.Errorf("patron/mongo: get contract by badge: %w", err)
	}
	return fromContractModel(&m)
}

func (s *Store) ListContractsByCreator(ctx context.Context, creator string, opts deployment.ListOpts) ([]*deployment.Instance, error) {
	var models []contractModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"creator": creator}).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("patron/mongo: list contracts: %w", err)
	}

	result := make([]*deployment.Instance, len(models))
	for i := range models {
		inst, err := fromContractModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inst
	}
	return result, nil
}

// ==================== Tier Store ====================

// CreateTier reads the current tier count and inserts with that as the next
// sequential ID. Concurrent creates on one contract can race to the same
// slot; the composite _id catches the loser, which retries with a fresh
// count.
func (s *Store) CreateTier(ctx context.Context, t *tier.Tier) (int64, error) {
	const maxAttempts = 3

	for attempt := 0; attempt < maxAttempts; attempt++ {
		count, err := s.CountTiers(ctx, t.ContractID)
		if err != nil {
			return 0, err
		}

		m := &tierModel{
			ID:          docKey(t.ContractID.String(), fmt.Sprintf("%d", count)),
			ContractID:  t.ContractID.String(),
			TierID:      count,
			Name:        t.Name,
			PriceAmount: t.Price.Amount,
			PriceAsset:  t.Price.Currency,
			Active:      t.Active,
			Metadata:    t.Metadata,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		}

		_, err = s.mdb.NewInsert(m).Exec(ctx)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return 0, fmt.Errorf("patron/mongo: create tier: %w", err)
		}
		t.ID = count
		return count, nil
	}
	return 0, fmt.Errorf("patron/mongo: create tier: gave up after %d contended attempts", maxAttempts)
}

func (s *Store) GetTier(ctx context.Context, contractID id.ContractID, tierID int64) (*tier.Tier, error) {
	var m tierModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"contract_id": contractID.String(), "tier_id": tierID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, patron.ErrTierNotFound
		}
		return nil, fmt.Errorf("patron/mongo: get tier: %w", err)
	}
	return fromTierModel(&m)
}

func (s *Store) CountTiers(ctx context.Context, contractID id.ContractID) (int64, error) {
	count, err := s.mdb.Collection(colTiers).CountDocuments(ctx, bson.M{"contract_id": contractID.String()})
	if err != nil {
		return 0, fmt.Errorf("patron/mongo: count tiers: %w", err)
	}
	return count, nil
}

func (s *Store) ListTiers(ctx context.Context, contractID id.ContractID, opts tier.ListOpts) ([]*tier.Tier, error) {
	var models []tierModel

	filter := bson.M{"contract_id": contractID.String()}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "tier_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("patron/mongo: list tiers: %w", err)
	}

	result := make([]*tier.Tier, len(models))
	for i := range models {
		t, err := fromTierModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Subscriber Store ====================

func (s *Store) PutSubscriber(ctx context.Context, r *subscriber.Record) error {
	m := toSubscriberModel(r)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":         m.ID,
			"contract_id": m.ContractID,
			"address":     m.Address,
			"tier_id":     m.TierID,
			"active":      m.Active,
			"expires_at":  m.ExpiresAt,
			"created_at":  m.CreatedAt,
			"updated_at":  m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("patron/mongo: put subscriber: %w", err)
	}
	return nil
}

func (s *Store) GetSubscriber(ctx context.Context, contractID id.ContractID, address string) (*subscriber.Record, error) {
	var m subscriberModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": docKey(contractID.String(), address)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, patron.ErrNotSubscribed
		}
		return nil, fmt.Errorf("patron/mongo: get subscriber: %w", err)
	}
	return fromSubscriberModel(&m)
}

// DeactivateSubscriber flips the active flag. A missing document is not an
// error: a missing record already reads as lapsed.
func (s *Store) DeactivateSubscriber(ctx context.Context, contractID id.ContractID, address string) error {
	_, err := s.mdb.NewUpdate((*subscriberModel)(nil)).
		Filter(bson.M{"_id": docKey(contractID.String(), address)}).
		Set("active", false).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("patron/mongo: deactivate subscriber: %w", err)
	}
	return nil
}

func (s *Store) ListSubscribers(ctx context.Context, contractID id.ContractID, opts subscriber.ListOpts) ([]*subscriber.Record, error) {
	var models []subscriberModel

	filter := bson.M{"contract_id": contractID.String()}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "address", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("patron/mongo: list subscribers: %w", err)
	}

	result := make([]*subscriber.Record, len(models))
	for i := range models {
		r, err := fromSubscriberModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Status Cache Store ====================

func (s *Store) GetCachedStatus(ctx context.Context, contractID id.ContractID, address string) (*subscriber.Status, error) {
	var m statusCacheModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"_id":              docKey(contractID.String(), address),
			"cache_expires_at": bson.M{"$gt": time.Now().UTC()},
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, patron.ErrCacheMiss
		}
		return nil, fmt.Errorf("patron/mongo: get cached status: %w", err)
	}
	return fromStatusCacheModel(&m), nil
}

func (s *Store) SetCachedStatus(ctx context.Context, contractID id.ContractID, address string, status *subscriber.Status, ttl time.Duration) error {
	expiresAt := time.Now().UTC().Add(ttl)
	m := toStatusCacheModel(contractID, address, status, expiresAt)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.CacheKey}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":              m.CacheKey,
			"contract_id":      m.ContractID,
			"address":          m.Address,
			"subscribed":       m.Subscribed,
			"tier_id":          m.TierID,
			"sub_expires_at":   m.SubExpiresAt,
			"reason":           m.Reason,
			"cache_expires_at": m.CacheExpiresAt,
			"created_at":       m.CreatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("patron/mongo: set cached status: %w", err)
	}
	return nil
}

func (s *Store) InvalidateStatus(ctx context.Context, contractID id.ContractID, address string) error {
	_, err := s.mdb.NewDelete((*statusCacheModel)(nil)).
		Filter(bson.M{"_id": docKey(contractID.String(), address)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("patron/mongo: invalidate status: %w", err)
	}
	return nil
}

// ==================== Billing Store ====================

func (s *Store) RecordPayments(ctx context.Context, payments []*billing.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	for _, p := range payments {
		m := toPaymentModel(p)
		_, err := s.mdb.NewInsert(m).Exec(ctx)
		if err != nil {
			// Skip duplicates for idempotency
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("patron/mongo: record payment: %w", err)
		}
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, contractID id.ContractID, opts billing.ListOpts) ([]*billing.Payment, error) {
	var models []paymentModel

	filter := bson.M{"contract_id": contractID.String()}
	if opts.Subscriber != "" {
		filter["subscriber"] = opts.Subscriber
	}
	if !opts.Start.IsZero() || !opts.End.IsZero() {
		settled := bson.M{}
		if !opts.Start.IsZero() {
			settled["$gte"] = opts.Start
		}
		if !opts.End.IsZero() {
			settled["$lte"] = opts.End
		}
		filter["settled_at"] = settled
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "settled_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("patron/mongo: list payments: %w", err)
	}

	result := make([]*billing.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) PurgePayments(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*paymentModel)(nil)).
		Filter(bson.M{"settled_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("patron/mongo: purge payments: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) RecordSettlement(ctx context.Context, run *billing.SettlementSummary) error {
	m := toSettlementModel(run)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("patron/mongo: record settlement: %w", err)
	}
	return nil
}

func (s *Store) ListSettlements(ctx context.Context, contractID id.ContractID, opts billing.ListOpts) ([]*billing.SettlementSummary, error) {
	var models []settlementModel

	filter := bson.M{"contract_id": contractID.String()}
	if !opts.Start.IsZero() || !opts.End.IsZero() {
		ran := bson.M{}
		if !opts.Start.IsZero() {
			ran["$gte"] = opts.Start
		}
		if !opts.End.IsZero() {
			ran["$lte"] = opts.End
		}
		filter["ran_at"] = ran
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "ran_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("patron/mongo: list settlements: %w", err)
	}

	result := make([]*billing.SettlementSummary, len(models))
	for i := range models {
		run, err := fromSettlementModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = run
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all patron collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colContracts: {
			{
				Keys:    bson.D{{Key: "badge_key", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
			{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colTiers: {
			{
				Keys:    bson.D{{Key: "contract_id", Value: 1}, {Key: "tier_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colSubscribers: {
			{Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "active", Value: 1}}},
			{Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "expires_at", Value: 1}}},
		},
		colStatusCache: {
			{Keys: bson.D{{Key: "cache_expires_at", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "settled_at", Value: -1}}},
			{Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "subscriber", Value: 1}, {Key: "settled_at", Value: -1}}},
			{Keys: bson.D{{Key: "settled_at", Value: -1}}},
		},
		colSettlements: {
			{Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "ran_at", Value: -1}}},
		},
	}
}
