package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

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

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("patron/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("patron/sqlite: migration failed: %w", err)
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
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetContract(ctx context.Context, contractID id.ContractID) (*deployment.Instance, error) {
	m := new(contractModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", contractID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, patron.ErrContractNotFound
		}
		return nil, err
	}
	return fromContractModel(m)
}

func (s *Store) GetContractByBadge(ctx context.Context, badgeKey string) (*deployment.Instance, error) {
	m := new(contractModel)
	err := s.sdb.NewSelect(m).
		Where("badge_key = ?", badgeKey).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, patron.ErrBadgeNotFound
		}
		return nil, err
	}
	return fromContractModel(m)
}

func (s *Store) ListContractsByCreator(ctx context.Context, creator string, opts deployment.ListOpts) ([]*deployment.Instance, error) {
	var models []contractModel
	q := s.sdb.NewSelect(&models).Where("creator = ?", creator)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

// CreateTier assigns the next sequential tier ID inside the insert itself;
// a concurrent create for the same slot fails on the primary key.
func (s *Store) CreateTier(ctx context.Context, t *tier.Tier) (int64, error) {
	metadata, _ := json.Marshal(t.Metadata) //nolint:errcheck // best-effort
	if t.Metadata == nil {
		metadata = []byte("{}")
	}

	var tierID int64
	err := s.sdb.NewRaw(`
		INSERT INTO patron_tiers (contract_id, tier_id, name, price_amount, price_asset, active, metadata, created_at, updated_at)
		VALUES (?, (SELECT COUNT(*) FROM patron_tiers WHERE contract_id = ?), ?, ?, ?, ?, ?, ?, ?)
		RETURNING tier_id
	`, t.ContractID.String(), t.ContractID.String(), t.Name, t.Price.Amount, t.Price.Currency, t.Active, metadata, t.CreatedAt, t.UpdatedAt).Scan(ctx, &tierID)
	if err != nil {
		return 0, err
	}
	t.ID = tierID
	return tierID, nil
}

func (s *Store) GetTier(ctx context.Context, contractID id.ContractID, tierID int64) (*tier.Tier, error) {
	m := new(tierModel)
	err := s.sdb.NewSelect(m).
		Where("contract_id = ?", contractID.String()).
		Where("tier_id = ?", tierID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, patron.ErrTierNotFound
		}
		return nil, err
	}
	return fromTierModel(m)
}

func (s *Store) CountTiers(ctx context.Context, contractID id.ContractID) (int64, error) {
	var count int64
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM patron_tiers WHERE contract_id = ?
	`, contractID.String()).Scan(ctx, &count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ListTiers(ctx context.Context, contractID id.ContractID, opts tier.ListOpts) ([]*tier.Tier, error) {
	var models []tierModel
	q := s.sdb.NewSelect(&models).Where("contract_id = ?", contractID.String())

	if opts.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("tier_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.sdb.NewInsert(m).
		OnConflict("(contract_id, address) DO UPDATE").
		Set("tier_id = EXCLUDED.tier_id").
		Set("active = EXCLUDED.active").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetSubscriber(ctx context.Context, contractID id.ContractID, address string) (*subscriber.Record, error) {
	m := new(subscriberModel)
	err := s.sdb.NewSelect(m).
		Where("contract_id = ?", contractID.String()).
		Where("address = ?", address).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, patron.ErrNotSubscribed
		}
		return nil, err
	}
	return fromSubscriberModel(m)
}

// DeactivateSubscriber flips the active flag. Zero rows affected is not an
// error: a missing record already reads as lapsed.
func (s *Store) DeactivateSubscriber(ctx context.Context, contractID id.ContractID, address string) error {
	_, err := s.sdb.NewUpdate((*subscriberModel)(nil)).
		Set("active = ?", false).
		Set("updated_at = ?", now()).
		Where("contract_id = ?", contractID.String()).
		Where("address = ?", address).
		Exec(ctx)
	return err
}

func (s *Store) ListSubscribers(ctx context.Context, contractID id.ContractID, opts subscriber.ListOpts) ([]*subscriber.Record, error) {
	var models []subscriberModel
	q := s.sdb.NewSelect(&models).Where("contract_id = ?", contractID.String())

	if opts.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("address ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	m := new(statusCacheModel)
	cacheKey := contractID.String() + ":" + address
	err := s.sdb.NewSelect(m).
		Where("cache_key = ?", cacheKey).
		Where("cache_expires_at > ?", time.Now().UTC()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, patron.ErrCacheMiss
		}
		return nil, err
	}
	return fromStatusCacheModel(m), nil
}

func (s *Store) SetCachedStatus(ctx context.Context, contractID id.ContractID, address string, status *subscriber.Status, ttl time.Duration) error {
	expiresAt := time.Now().UTC().Add(ttl)
	m := toStatusCacheModel(contractID, address, status, expiresAt)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(cache_key) DO UPDATE").
		Set("subscribed = EXCLUDED.subscribed").
		Set("tier_id = EXCLUDED.tier_id").
		Set("sub_expires_at = EXCLUDED.sub_expires_at").
		Set("reason = EXCLUDED.reason").
		Set("cache_expires_at = EXCLUDED.cache_expires_at").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	return err
}

func (s *Store) InvalidateStatus(ctx context.Context, contractID id.ContractID, address string) error {
	cacheKey := contractID.String() + ":" + address
	_, err := s.sdb.NewDelete((*statusCacheModel)(nil)).
		Where("cache_key = ?", cacheKey).
		Exec(ctx)
	return err
}

// ==================== Billing Store ====================

func (s *Store) RecordPayments(ctx context.Context, payments []*billing.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	models := make([]paymentModel, len(payments))
	for i, p := range payments {
		models[i] = *toPaymentModel(p)
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) ListPayments(ctx context.Context, contractID id.ContractID, opts billing.ListOpts) ([]*billing.Payment, error) {
	var models []paymentModel
	q := s.sdb.NewSelect(&models).Where("contract_id = ?", contractID.String())

	if opts.Subscriber != "" {
		q = q.Where("subscriber = ?", opts.Subscriber)
	}
	if !opts.Start.IsZero() {
		q = q.Where("settled_at >= ?", opts.Start)
	}
	if !opts.End.IsZero() {
		q = q.Where("settled_at <= ?", opts.End)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("settled_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.sdb.NewDelete((*paymentModel)(nil)).
		Where("settled_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

func (s *Store) RecordSettlement(ctx context.Context, run *billing.SettlementSummary) error {
	m := toSettlementModel(run)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListSettlements(ctx context.Context, contractID id.ContractID, opts billing.ListOpts) ([]*billing.SettlementSummary, error) {
	var models []settlementModel
	q := s.sdb.NewSelect(&models).Where("contract_id = ?", contractID.String())

	if !opts.Start.IsZero() {
		q = q.Where("ran_at >= ?", opts.Start)
	}
	if !opts.End.IsZero() {
		q = q.Where("ran_at <= ?", opts.End)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("ran_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
