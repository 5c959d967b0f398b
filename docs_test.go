package patron_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/patron"
	"github.com/xraph/patron/membership"
	"github.com/xraph/patron/payment"
	"github.com/xraph/patron/store/memory"
	"github.com/xraph/patron/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// External collaborators (in-memory stand-ins for demo)
		ledger := payment.NewMemoryLedger()
		issuer := membership.NewMemoryIssuer()

		// Initialize the engine
		e := patron.New(store, ledger, issuer,
			patron.WithLogger(slog.Default()),
			patron.WithJournalConfig(100, 5*time.Second),
			patron.WithStatusCacheTTL(30*time.Second),
			patron.WithProtocolAccount("treasury"),
		)

		// Start the engine
		ctx := context.Background()
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop()

		// Deploy a contract
		c, err := e.CreateContract(ctx, "alice", "newsletter", "alice-payout", "usd")
		if err != nil {
			t.Fatal(err)
		}

		// Add a pricing tier
		gold, err := c.CreateTier(ctx, "alice", "gold", patron.USD(500))
		if err != nil {
			t.Fatal(err)
		}

		// Fund a subscriber and grant the contract a pull-authorization
		ledger.Credit("bob", types.USD(1000))
		ledger.Approve("bob", c.ID().String(), types.USD(1000))

		// Subscribe (charges one period up front)
		record, err := c.Subscribe(ctx, "bob", gold.ID)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Subscribed until %s\n", record.ExpiresAt)

		// Check subscription status (cached)
		status, err := c.IsSubscribed(ctx, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if !status.Subscribed {
			t.Fatalf("expected bob to be subscribed, got reason %q", status.Reason)
		}
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.USD(4900)            // $49.00
		_ = types.Token("credits", 50) // 50 units of a custom asset
		_ = types.Zero("usd")          // $0.00

		// Arithmetic
		m1 := types.USD(100)
		m2 := types.USD(200)
		_ = m1.Add(m2)     // $3.00
		_ = m1.Multiply(3) // $3.00
		_ = m1.Divide(2)   // $0.50

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "$1.00"
		_ = m1.FormatMajor() // "1.00"
	})
}
