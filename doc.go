// Package patron provides a subscription lifecycle and recurring billing
// engine for Go applications.
//
// Patron is designed as a library, not a service. Import it directly into
// your Go application and wire it to your own payment ledger. It provides:
//
//   - Contract instances deployed from a factory, each with its own
//     tiers, subscribers, and payment-source asset
//   - Immutable pricing tiers with sequential per-contract IDs
//   - Pre-authorized pull payments with atomic two-leg fee splitting
//   - Batch settlement with per-element failure isolation
//   - Membership tokens and creator badges via a pluggable issuer
//   - Cached subscription status checks for hot read paths
//
// # Quick Start
//
// Create an engine with your preferred store and ledger:
//
//	import (
//	    "github.com/xraph/grove"
//	    "github.com/xraph/grove/drivers/pgdriver"
//	    "github.com/xraph/patron"
//	    "github.com/xraph/patron/store/postgres"
//	)
//
//	// Initialize store
//	pg := pgdriver.New()
//	if err := pg.Open(ctx, databaseURL); err != nil {
//	    log.Fatal(err)
//	}
//	db, err := grove.Open(pg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := postgres.New(db)
//
//	// Create engine
//	e := patron.New(store, ledger, issuer)
//
//	// Start the engine (begins background workers)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// Contracts are deployed through the engine's factory. Each contract binds
// a creator, a payout recipient, and a payment-source asset:
//
//	c, err := e.CreateContract(ctx, "alice", "newsletter", "alice-payout", "usd")
//
// Tiers price the subscription. They are immutable once created and get
// sequential IDs starting at zero:
//
//	gold, err := c.CreateTier(ctx, "alice", "gold", patron.USD(500))
//
// Subscribing charges the address for one period up front. The subscriber
// must first grant the contract a pull-authorization on the payment
// ledger; the charge then splits atomically into creator net and protocol
// fee:
//
//	record, err := c.Subscribe(ctx, "bob", gold.ID)
//
// Settlement renews or lapses subscribers in batches. One bad element
// never aborts the run:
//
//	summary, err := c.SettleBatch(ctx, addresses)
//
// Status checks are cached and safe on hot paths:
//
//	status, err := c.IsSubscribed(ctx, "bob")
//
// # Fees
//
// Every settled charge splits the tier price into a creator net amount and
// a protocol fee of two percent, rounded down. The two legs always sum
// back to the price exactly, and both move in one atomic transfer or not
// at all. All monetary calculations use integer arithmetic to avoid
// floating-point precision issues.
//
// # TypeID
//
// Entities use TypeID for globally unique, type-safe identifiers:
//
//	scon_01h2xcejqtf2nbrexx3vqjhp41  // Contract instance ID
//	pay_01h2xcejqtf2nbrexx3vqjhp41   // Payment ID
//	run_01h455vb4pex5vsknk084sn02q   // Settlement run ID
//
// Tiers are the exception: they carry sequential int64 IDs scoped to their
// contract, starting at zero.
package patron
