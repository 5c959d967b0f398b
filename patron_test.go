package patron_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	patron "github.com/xraph/patron"
	"github.com/xraph/patron/billing"
	"github.com/xraph/patron/deployment"
	"github.com/xraph/patron/membership"
	"github.com/xraph/patron/payment"
	"github.com/xraph/patron/store"
	"github.com/xraph/patron/store/memory"
	"github.com/xraph/patron/subscriber"
	"github.com/xraph/patron/tier"
	"github.com/xraph/patron/types"
)

// testClock is a controllable time source for expiry-sensitive tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	engine *patron.Engine
	store  *memory.Store
	ledger *payment.MemoryLedger
	issuer *membership.MemoryIssuer
	clock  *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:  memory.New(),
		ledger: payment.NewMemoryLedger(),
		issuer: membership.NewMemoryIssuer(),
		clock:  newTestClock(),
	}
	env.engine = patron.New(env.store, env.ledger, env.issuer,
		patron.WithClock(env.clock.Now),
		patron.WithJournalConfig(1, time.Millisecond),
		patron.WithStatusCacheTTL(time.Nanosecond),
	)

	if err := env.engine.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	return env
}

// fund credits an account and authorizes the contract to pull from it.
func (env *testEnv) fund(c *patron.Contract, address string, amount int64) {
	env.ledger.Credit(address, types.USD(amount))
	env.ledger.Approve(address, c.ID().String(), types.USD(amount))
}

func TestCreateContract(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	t.Run("rejects empty fields", func(t *testing.T) {
		cases := []struct {
			name                       string
			creator, recipient, paySrc string
		}{
			{"empty creator", "", "payout", "usd"},
			{"empty recipient", "alice", "", "usd"},
			{"empty payment source", "alice", "payout", ""},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := env.engine.CreateContract(ctx, tc.creator, "zine", tc.recipient, tc.paySrc)
				if !errors.Is(err, patron.ErrInvalidInput) {
					t.Fatalf("got %v, want ErrInvalidInput", err)
				}
			})
		}
	})

	t.Run("creator becomes owner", func(t *testing.T) {
		c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
		if err != nil {
			t.Fatal(err)
		}
		inst, err := c.Instance(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if inst.Owner != "alice" || inst.Creator != "alice" {
			t.Fatalf("owner=%q creator=%q, want alice for both", inst.Owner, inst.Creator)
		}
		if inst.Recipient != "alice-payout" {
			t.Fatalf("recipient=%q", inst.Recipient)
		}
	})

	t.Run("lists by creator", func(t *testing.T) {
		if _, err := env.engine.CreateContract(ctx, "carol", "blog", "carol-payout", "usd"); err != nil {
			t.Fatal(err)
		}
		if _, err := env.engine.CreateContract(ctx, "carol", "podcast", "carol-payout", "usd"); err != nil {
			t.Fatal(err)
		}
		list, err := env.engine.ContractsByCreator(ctx, "carol", deployment.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Fatalf("got %d contracts, want 2", len(list))
		}
	})
}

func TestCreateContractWithBadge(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContractWithBadge(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}

	inst, err := c.Instance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if inst.BadgeID.IsNil() {
		t.Fatal("badge ID not minted")
	}

	// The badge token is issued to the creator under the instance key.
	if got := env.issuer.Count("alice", inst.BadgeKey()); got != 1 {
		t.Fatalf("badge units issued = %d, want 1", got)
	}

	// Badge key resolves back to the same contract.
	resolved, err := env.engine.ContractByBadge(ctx, inst.BadgeKey())
	if err != nil {
		t.Fatal(err)
	}
	if resolved.ID() != c.ID() {
		t.Fatalf("resolved %s, want %s", resolved.ID(), c.ID())
	}

	// Unknown badge keys miss.
	if _, err := env.engine.ContractByBadge(ctx, "scon_nonexistent"); !errors.Is(err, patron.ErrBadgeNotFound) {
		t.Fatalf("got %v, want ErrBadgeNotFound", err)
	}
}

func TestCreateTier(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("only owner", func(t *testing.T) {
		if _, err := c.CreateTier(ctx, "mallory", "gold", types.USD(500)); !errors.Is(err, patron.ErrOnlyOwner) {
			t.Fatalf("got %v, want ErrOnlyOwner", err)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		if _, err := c.CreateTier(ctx, "alice", "", types.USD(500)); !errors.Is(err, patron.ErrEmptyTierName) {
			t.Fatalf("got %v, want ErrEmptyTierName", err)
		}
	})

	t.Run("rejects bad price", func(t *testing.T) {
		if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(0)); !errors.Is(err, patron.ErrInvalidTierPrice) {
			t.Fatalf("zero price: got %v, want ErrInvalidTierPrice", err)
		}
		if _, err := c.CreateTier(ctx, "alice", "gold", types.EUR(500)); !errors.Is(err, patron.ErrInvalidTierPrice) {
			t.Fatalf("wrong asset: got %v, want ErrInvalidTierPrice", err)
		}
	})

	t.Run("sequential IDs from zero", func(t *testing.T) {
		names := []string{"bronze", "silver", "gold"}
		for i, name := range names {
			created, err := c.CreateTier(ctx, "alice", name, types.USD(int64(100*(i+1))))
			if err != nil {
				t.Fatal(err)
			}
			if created.ID != int64(i) {
				t.Fatalf("tier %q got ID %d, want %d", name, created.ID, i)
			}
		}

		count, err := c.TierCount(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if count != 3 {
			t.Fatalf("tier count = %d, want 3", count)
		}

		got, err := c.GetTier(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if got.Name != "silver" || !got.Active {
			t.Fatalf("tier 1 = %+v", got)
		}

		if _, err := c.GetTier(ctx, 99); !errors.Is(err, patron.ErrTierNotFound) {
			t.Fatalf("got %v, want ErrTierNotFound", err)
		}
	})
}

func TestSubscribe(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(1000)); err != nil {
		t.Fatal(err)
	}

	t.Run("happy path splits the fee", func(t *testing.T) {
		env.fund(c, "bob", 1000)

		record, err := c.Subscribe(ctx, "bob", 0)
		if err != nil {
			t.Fatal(err)
		}
		if !record.Active {
			t.Fatal("record not active")
		}
		wantExpiry := env.clock.Now().Add(patron.BillingPeriod)
		if !record.ExpiresAt.Equal(wantExpiry) {
			t.Fatalf("expires at %v, want %v", record.ExpiresAt, wantExpiry)
		}

		// 2% protocol fee, remainder to the creator's payout account.
		if got := env.ledger.Balance("alice-payout", "usd").Amount; got != 980 {
			t.Fatalf("creator net = %d, want 980", got)
		}
		if got := env.ledger.Balance("protocol", "usd").Amount; got != 20 {
			t.Fatalf("protocol fee = %d, want 20", got)
		}
		if got := env.ledger.Balance("bob", "usd").Amount; got != 0 {
			t.Fatalf("subscriber balance = %d, want 0", got)
		}

		// One membership token, keyed by the contract ID.
		if got := env.issuer.Count("bob", c.ID().String()); got != 1 {
			t.Fatalf("membership tokens = %d, want 1", got)
		}

		status, err := c.IsSubscribed(ctx, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if !status.Subscribed {
			t.Fatalf("status = %+v, want subscribed", status)
		}
	})

	t.Run("duplicate subscribe rejected", func(t *testing.T) {
		env.fund(c, "bob", 1000)
		if _, err := c.Subscribe(ctx, "bob", 0); !errors.Is(err, patron.ErrAlreadySubscribed) {
			t.Fatalf("got %v, want ErrAlreadySubscribed", err)
		}
		// The rejected attempt must not move funds.
		if got := env.ledger.Balance("bob", "usd").Amount; got != 1000 {
			t.Fatalf("balance after rejection = %d, want 1000", got)
		}
	})

	t.Run("unknown tier", func(t *testing.T) {
		if _, err := c.Subscribe(ctx, "carol", 42); !errors.Is(err, patron.ErrTierNotFound) {
			t.Fatalf("got %v, want ErrTierNotFound", err)
		}
	})

	t.Run("failed charge leaves no trace", func(t *testing.T) {
		// carol has funds but never granted an allowance.
		env.ledger.Credit("carol", types.USD(5000))

		_, err := c.Subscribe(ctx, "carol", 0)
		if !errors.Is(err, patron.ErrPaymentFailed) {
			t.Fatalf("got %v, want ErrPaymentFailed", err)
		}

		if got := env.ledger.Balance("carol", "usd").Amount; got != 5000 {
			t.Fatalf("balance = %d, want untouched 5000", got)
		}
		if got := env.issuer.Count("carol", c.ID().String()); got != 0 {
			t.Fatalf("membership tokens = %d, want 0", got)
		}
		status, err := c.IsSubscribed(ctx, "carol")
		if err != nil {
			t.Fatal(err)
		}
		if status.Subscribed {
			t.Fatal("failed charge still produced a membership")
		}
	})
}

func TestUnsubscribe(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(1000)); err != nil {
		t.Fatal(err)
	}

	env.fund(c, "bob", 3000)
	if _, err := c.Subscribe(ctx, "bob", 0); err != nil {
		t.Fatal(err)
	}

	t.Run("blocked while allowance outstanding", func(t *testing.T) {
		if err := c.Unsubscribe(ctx, "bob"); !errors.Is(err, patron.ErrAllowanceNotZero) {
			t.Fatalf("got %v, want ErrAllowanceNotZero", err)
		}
	})

	t.Run("succeeds after revoking allowance", func(t *testing.T) {
		env.ledger.Approve("bob", c.ID().String(), types.USD(0))
		if err := c.Unsubscribe(ctx, "bob"); err != nil {
			t.Fatal(err)
		}

		status, err := c.IsSubscribed(ctx, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if status.Subscribed || status.Reason != "lapsed" {
			t.Fatalf("status = %+v, want lapsed", status)
		}
	})

	t.Run("repeat unsubscribe rejected", func(t *testing.T) {
		if err := c.Unsubscribe(ctx, "bob"); !errors.Is(err, patron.ErrNotSubscribed) {
			t.Fatalf("got %v, want ErrNotSubscribed", err)
		}
	})

	t.Run("never subscribed rejected", func(t *testing.T) {
		if err := c.Unsubscribe(ctx, "stranger"); !errors.Is(err, patron.ErrNotSubscribed) {
			t.Fatalf("got %v, want ErrNotSubscribed", err)
		}
	})
}

func TestIsSubscribedExpiry(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(1000)); err != nil {
		t.Fatal(err)
	}

	env.fund(c, "bob", 1000)
	if _, err := c.Subscribe(ctx, "bob", 0); err != nil {
		t.Fatal(err)
	}

	status, err := c.IsSubscribed(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if !status.Subscribed {
		t.Fatalf("status = %+v, want subscribed", status)
	}

	// The period elapses; the record is still active but reads expired.
	env.clock.Advance(patron.BillingPeriod + time.Hour)

	status, err = c.IsSubscribed(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if status.Subscribed || status.Reason != "expired" {
		t.Fatalf("status = %+v, want expired", status)
	}
}

func TestSettleBatch(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(1000)); err != nil {
		t.Fatal(err)
	}

	// dave: subscribed, unsubscribed, then re-authorized. Inactive but
	// unexpired, so settlement renews the charge.
	env.fund(c, "dave", 2000)
	if _, err := c.Subscribe(ctx, "dave", 0); err != nil {
		t.Fatal(err)
	}
	env.ledger.Approve("dave", c.ID().String(), types.USD(0))
	if err := c.Unsubscribe(ctx, "dave"); err != nil {
		t.Fatal(err)
	}
	env.ledger.Approve("dave", c.ID().String(), types.USD(1000))

	// erin: same shape as dave but without funds. The renewal charge fails.
	env.fund(c, "erin", 1000)
	if _, err := c.Subscribe(ctx, "erin", 0); err != nil {
		t.Fatal(err)
	}
	env.ledger.Approve("erin", c.ID().String(), types.USD(0))
	if err := c.Unsubscribe(ctx, "erin"); err != nil {
		t.Fatal(err)
	}
	env.ledger.Approve("erin", c.ID().String(), types.USD(1000))

	// frank: never subscribed. Reads as expired and lapses without a charge.

	summary, err := c.SettleBatch(ctx, []string{"dave", "erin", "frank"})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Total != 3 {
		t.Fatalf("total = %d, want 3", summary.Total)
	}
	if summary.Renewed != 1 {
		t.Fatalf("renewed = %d, want 1", summary.Renewed)
	}
	if summary.Lapsed != 1 {
		t.Fatalf("lapsed = %d, want 1", summary.Lapsed)
	}
	if summary.Failed != 1 {
		t.Fatalf("failed = %d, want 1", summary.Failed)
	}

	// dave paid a second period.
	if got := env.ledger.Balance("dave", "usd").Amount; got != 0 {
		t.Fatalf("dave balance = %d, want 0", got)
	}
	// erin's failed charge moved nothing further.
	if got := env.ledger.Balance("erin", "usd").Amount; got != 0 {
		t.Fatalf("erin balance = %d, want 0", got)
	}

	// The run is persisted and listable.
	runs, err := c.ListSettlements(ctx, billing.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != summary.ID {
		t.Fatalf("settlement runs = %+v", runs)
	}
}

func TestSettleBatchActiveSubscriber(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(1000)); err != nil {
		t.Fatal(err)
	}

	env.fund(c, "bob", 2000)
	if _, err := c.Subscribe(ctx, "bob", 0); err != nil {
		t.Fatal(err)
	}

	// An active, unexpired subscriber hits the double-charge guard, so
	// the renewal counts as a failure and the record lapses. Candidate
	// selection is the caller's job; settling someone mid-period costs
	// them the rest of it but never charges them twice.
	summary, err := c.SettleBatch(ctx, []string{"bob"})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 1 || summary.Failed != 1 || summary.Renewed != 0 || summary.Lapsed != 0 {
		t.Fatalf("summary = %+v, want one failure", summary)
	}

	// No second charge moved.
	if got := env.ledger.Balance("bob", "usd").Amount; got != 1000 {
		t.Fatalf("bob balance = %d, want 1000", got)
	}

	record, err := env.store.GetSubscriber(ctx, c.ID(), "bob")
	if err != nil {
		t.Fatal(err)
	}
	if record.Active {
		t.Fatal("record still active after failed renewal")
	}
	if !record.ExpiresAt.After(env.clock.Now()) {
		t.Fatal("expiry rewritten on lapse")
	}
}

func TestSettleBatchExpiredLapse(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(1000)); err != nil {
		t.Fatal(err)
	}

	env.fund(c, "bob", 2000)
	if _, err := c.Subscribe(ctx, "bob", 0); err != nil {
		t.Fatal(err)
	}

	env.clock.Advance(patron.BillingPeriod + time.Hour)

	summary, err := c.SettleBatch(ctx, []string{"bob"})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Lapsed != 1 || summary.Renewed != 0 {
		t.Fatalf("summary = %+v, want one lapse", summary)
	}

	// An expired lapse is free: no charge was attempted.
	if got := env.ledger.Balance("bob", "usd").Amount; got != 1000 {
		t.Fatalf("bob balance = %d, want 1000", got)
	}

	record, err := env.store.GetSubscriber(ctx, c.ID(), "bob")
	if err != nil {
		t.Fatal(err)
	}
	if record.Active {
		t.Fatal("lapsed record still active")
	}
}

func TestPaymentJournal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(1000)); err != nil {
		t.Fatal(err)
	}

	env.fund(c, "bob", 1000)
	if _, err := c.Subscribe(ctx, "bob", 0); err != nil {
		t.Fatal(err)
	}

	// Stop drains the journal and flushes the final batch.
	if err := env.engine.Stop(); err != nil {
		t.Fatal(err)
	}

	payments, err := env.store.ListPayments(ctx, c.ID(), billing.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Fatalf("journaled payments = %d, want 1", len(payments))
	}

	p := payments[0]
	if p.Subscriber != "bob" || p.TierID != 0 {
		t.Fatalf("payment = %+v", p)
	}
	if p.CreatorNet.Amount != 980 || p.ProtocolFee.Amount != 20 {
		t.Fatalf("split = %d/%d, want 980/20", p.CreatorNet.Amount, p.ProtocolFee.Amount)
	}
	// The split conserves the tier price exactly.
	if p.CreatorNet.Amount+p.ProtocolFee.Amount != 1000 {
		t.Fatal("fee split does not conserve the price")
	}
}

// flakyPaymentStore fails a fixed number of RecordPayments calls before
// recovering, signalling once the last failure has been served.
type flakyPaymentStore struct {
	store.Store
	mu       sync.Mutex
	failures int
	failed   chan struct{}
}

func (s *flakyPaymentStore) RecordPayments(ctx context.Context, payments []*billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		if s.failures == 0 {
			close(s.failed)
		}
		return errors.New("store unavailable")
	}
	return s.Store.RecordPayments(ctx, payments)
}

func TestPaymentJournalRetriesFailedWrites(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	mem := memory.New()
	flaky := &flakyPaymentStore{Store: mem, failures: 1, failed: make(chan struct{})}
	ledger := payment.NewMemoryLedger()
	issuer := membership.NewMemoryIssuer()

	// A long flush interval keeps the ticker out of the picture: the
	// only retry opportunity is the final drain on Stop.
	e := patron.New(flaky, ledger, issuer,
		patron.WithClock(clock.Now),
		patron.WithJournalConfig(1, time.Hour),
		patron.WithStatusCacheTTL(time.Nanosecond),
	)
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}

	c, err := e.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(1000)); err != nil {
		t.Fatal(err)
	}

	ledger.Credit("bob", types.USD(1000))
	ledger.Approve("bob", c.ID().String(), types.USD(1000))
	if _, err := c.Subscribe(ctx, "bob", 0); err != nil {
		t.Fatal(err)
	}

	// Wait for the flush worker to hit the outage and park the payment.
	select {
	case <-flaky.failed:
	case <-time.After(5 * time.Second):
		t.Fatal("payment flush never attempted")
	}

	// The store has recovered; the final drain retries the parked record.
	if err := e.Stop(); err != nil {
		t.Fatal(err)
	}

	payments, err := mem.ListPayments(ctx, c.ID(), billing.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Fatalf("journaled payments = %d, want 1 after retry", len(payments))
	}
	if payments[0].Subscriber != "bob" {
		t.Fatalf("payment = %+v", payments[0])
	}
}

func TestListSubscribers(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateTier(ctx, "alice", "gold", types.USD(100)); err != nil {
		t.Fatal(err)
	}

	for _, addr := range []string{"bob", "carol", "dave"} {
		env.fund(c, addr, 100)
		if _, err := c.Subscribe(ctx, addr, 0); err != nil {
			t.Fatal(err)
		}
	}
	env.ledger.Approve("carol", c.ID().String(), types.USD(0))
	if err := c.Unsubscribe(ctx, "carol"); err != nil {
		t.Fatal(err)
	}

	all, err := c.ListSubscribers(ctx, subscriber.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("all subscribers = %d, want 3", len(all))
	}

	active, err := c.ListSubscribers(ctx, subscriber.ListOpts{ActiveOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Fatalf("active subscribers = %d, want 2", len(active))
	}
}

func TestListTiersActiveOnly(t *testing.T) {
	env := newTestEnv(t)
	defer env.engine.Stop()
	ctx := context.Background()

	c, err := env.engine.CreateContract(ctx, "alice", "zine", "alice-payout", "usd")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"bronze", "silver"} {
		if _, err := c.CreateTier(ctx, "alice", name, types.USD(100)); err != nil {
			t.Fatal(err)
		}
	}

	tiers, err := c.ListTiers(ctx, tier.ListOpts{ActiveOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(tiers) != 2 {
		t.Fatalf("tiers = %d, want 2", len(tiers))
	}
	if tiers[0].ID != 0 || tiers[1].ID != 1 {
		t.Fatalf("tier order = %d,%d, want 0,1", tiers[0].ID, tiers[1].ID)
	}
}
