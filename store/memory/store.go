package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/patron"
	"github.com/xraph/patron/billing"
	"github.com/xraph/patron/deployment"
	"github.com/xraph/patron/id"
	"github.com/xraph/patron/subscriber"
	"github.com/xraph/patron/tier"
)

type Store struct {
	mu sync.RWMutex

	// Contract storage
	contracts map[string]*deployment.Instance
	byBadge   map[string]string

	// Tier storage, keyed by contract then sequential tier ID
	tiers map[string][]*tier.Tier

	// Subscriber storage, keyed by contract then address
	subscribers map[string]map[string]*subscriber.Record

	// Status cache
	statusCache map[string]*subscriber.Status
	cacheExpiry map[string]time.Time

	// Payment journal and settlement history
	payments    []*billing.Payment
	settlements []*billing.SettlementSummary
}

func New() *Store {
	return &Store{
		contracts:   make(map[string]*deployment.Instance),
		byBadge:     make(map[string]string),
		tiers:       make(map[string][]*tier.Tier),
		subscribers: make(map[string]map[string]*subscriber.Record),
		statusCache: make(map[string]*subscriber.Status),
		cacheExpiry: make(map[string]time.Time),
		payments:    make([]*billing.Payment, 0),
		settlements: make([]*billing.SettlementSummary, 0),
	}
}

// Contract storage implementation
func (s *Store) CreateContract(_ context.Context, inst *deployment.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := inst.ID.String()
	if _, exists := s.contracts[key]; exists {
		return patron.ErrAlreadyExists
	}
	s.contracts[key] = inst
	if !inst.BadgeID.IsNil() {
		s.byBadge[inst.BadgeKey()] = key
	}
	return nil
}

func (s *Store) GetContract(_ context.Context, contractID id.ContractID) (*deployment.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inst, ok := s.contracts[contractID.String()]; ok {
		return inst, nil
	}
	return nil, patron.ErrContractNotFound
}

func (s *Store) GetContractByBadge(_ context.Context, badgeKey string) (*deployment.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if key, ok := s.byBadge[badgeKey]; ok {
		if inst, ok := s.contracts[key]; ok {
			return inst, nil
		}
	}
	return nil, patron.ErrBadgeNotFound
}

func (s *Store) ListContractsByCreator(_ context.Context, creator string, opts deployment.ListOpts) ([]*deployment.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*deployment.Instance, 0)
	for _, inst := range s.contracts {
		if inst.Creator == creator {
			result = append(result, inst)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Tier storage implementation. Tier IDs are assigned sequentially per
// contract under the write lock, so concurrent creates never collide.
func (s *Store) CreateTier(_ context.Context, t *tier.Tier) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := t.ContractID.String()
	t.ID = int64(len(s.tiers[key]))
	s.tiers[key] = append(s.tiers[key], t)
	return t.ID, nil
}

func (s *Store) GetTier(_ context.Context, contractID id.ContractID, tierID int64) (*tier.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.tiers[contractID.String()]
	if tierID < 0 || tierID >= int64(len(list)) {
		return nil, patron.ErrTierNotFound
	}
	return list[tierID], nil
}

func (s *Store) CountTiers(_ context.Context, contractID id.ContractID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.tiers[contractID.String()])), nil
}

func (s *Store) ListTiers(_ context.Context, contractID id.ContractID, opts tier.ListOpts) ([]*tier.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*tier.Tier, 0)
	for _, t := range s.tiers[contractID.String()] {
		if opts.ActiveOnly && !t.Active {
			continue
		}
		result = append(result, t)
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Subscriber storage implementation
func (s *Store) PutSubscriber(_ context.Context, r *subscriber.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.ContractID.String()
	if s.subscribers[key] == nil {
		s.subscribers[key] = make(map[string]*subscriber.Record)
	}
	s.subscribers[key][r.Address] = r
	return nil
}

func (s *Store) GetSubscriber(_ context.Context, contractID id.ContractID, address string) (*subscriber.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.subscribers[contractID.String()][address]; ok {
		return r, nil
	}
	return nil, patron.ErrNotSubscribed
}

func (s *Store) DeactivateSubscriber(_ context.Context, contractID id.ContractID, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.subscribers[contractID.String()][address]; ok {
		r.Active = false
		r.Touch()
	}
	// A missing record is already equivalent to a lapsed one.
	return nil
}

func (s *Store) ListSubscribers(_ context.Context, contractID id.ContractID, opts subscriber.ListOpts) ([]*subscriber.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscriber.Record, 0)
	for _, r := range s.subscribers[contractID.String()] {
		if opts.ActiveOnly && !r.Active {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Status cache implementation
func (s *Store) GetCachedStatus(_ context.Context, contractID id.ContractID, address string) (*subscriber.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := cacheKey(contractID, address)
	if expiry, ok := s.cacheExpiry[key]; ok {
		if time.Now().Before(expiry) {
			if st, ok := s.statusCache[key]; ok {
				return st, nil
			}
		}
	}
	return nil, patron.ErrCacheMiss
}

func (s *Store) SetCachedStatus(_ context.Context, contractID id.ContractID, address string, status *subscriber.Status, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(contractID, address)
	s.statusCache[key] = status
	s.cacheExpiry[key] = time.Now().Add(ttl)
	return nil
}

func (s *Store) InvalidateStatus(_ context.Context, contractID id.ContractID, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(contractID, address)
	delete(s.statusCache, key)
	delete(s.cacheExpiry, key)
	return nil
}

// Billing journal implementation
func (s *Store) RecordPayments(_ context.Context, payments []*billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments = append(s.payments, payments...)
	return nil
}

func (s *Store) ListPayments(_ context.Context, contractID id.ContractID, opts billing.ListOpts) ([]*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*billing.Payment, 0)
	for _, p := range s.payments {
		if p.ContractID != contractID {
			continue
		}
		if opts.Subscriber != "" && p.Subscriber != opts.Subscriber {
			continue
		}
		if (opts.Start.IsZero() || p.SettledAt.After(opts.Start)) &&
			(opts.End.IsZero() || p.SettledAt.Before(opts.End)) {
			result = append(result, p)
		}
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) PurgePayments(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	kept := make([]*billing.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if p.SettledAt.Before(before) {
			count++
		} else {
			kept = append(kept, p)
		}
	}
	s.payments = kept
	return count, nil
}

func (s *Store) RecordSettlement(_ context.Context, run *billing.SettlementSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settlements = append(s.settlements, run)
	return nil
}

func (s *Store) ListSettlements(_ context.Context, contractID id.ContractID, opts billing.ListOpts) ([]*billing.SettlementSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*billing.SettlementSummary, 0)
	for _, run := range s.settlements {
		if run.ContractID != contractID {
			continue
		}
		if (opts.Start.IsZero() || run.RanAt.After(opts.Start)) &&
			(opts.End.IsZero() || run.RanAt.Before(opts.End)) {
			result = append(result, run)
		}
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// Helper functions
func cacheKey(contractID id.ContractID, address string) string {
	return contractID.String() + ":" + address
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
