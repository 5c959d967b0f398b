package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/patron/types"
)

func TestMemoryLedgerBatchTransferAtomic(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	// Funds comfortably cover both legs so only the allowance binds.
	l.Credit("alice", types.Token("credits", 200))
	l.Approve("alice", "contract", types.Token("credits", 100))

	// Second leg exceeds the remaining allowance: neither leg may commit.
	err := l.BatchTransfer(ctx, "contract", []TransferLeg{
		{From: "alice", To: "creator", Amount: types.Token("credits", 98)},
		{From: "alice", To: "protocol", Amount: types.Token("credits", 50)},
	})
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	if got := l.Balance("alice", "credits").Amount; got != 200 {
		t.Errorf("alice balance mutated on failed transfer: %d", got)
	}
	if got := l.Balance("creator", "credits").Amount; got != 0 {
		t.Errorf("creator balance mutated on failed transfer: %d", got)
	}

	// Both legs covered: both commit, allowance drawn down to zero.
	err = l.BatchTransfer(ctx, "contract", []TransferLeg{
		{From: "alice", To: "creator", Amount: types.Token("credits", 98)},
		{From: "alice", To: "protocol", Amount: types.Token("credits", 2)},
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := l.Balance("creator", "credits").Amount; got != 98 {
		t.Errorf("creator balance: got %d, want 98", got)
	}
	if got := l.Balance("protocol", "credits").Amount; got != 2 {
		t.Errorf("protocol balance: got %d, want 2", got)
	}

	remaining, err := l.Allowance(ctx, "alice", "contract")
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if !remaining.IsZero() {
		t.Errorf("allowance: got %v, want zero", remaining)
	}
}

func TestMemoryLedgerInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	l.Credit("bob", types.Token("credits", 10))
	l.Approve("bob", "contract", types.Token("credits", 100))

	err := l.BatchTransfer(ctx, "contract", []TransferLeg{
		{From: "bob", To: "creator", Amount: types.Token("credits", 98)},
		{From: "bob", To: "protocol", Amount: types.Token("credits", 2)},
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := l.Balance("bob", "credits").Amount; got != 10 {
		t.Errorf("bob balance mutated on failed transfer: %d", got)
	}
}

func TestMemoryLedgerApproveZeroRevokes(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	l.Approve("carol", "contract", types.Token("credits", 50))
	l.Approve("carol", "contract", types.Token("credits", 0))

	allowance, err := l.Allowance(ctx, "carol", "contract")
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if !allowance.IsZero() {
		t.Errorf("allowance after revoke: got %v, want zero", allowance)
	}
}

func TestMemoryLedgerCombinedLegsFromOneAccount(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	// 100 in funds but the two legs together need 101.
	l.Credit("dave", types.Token("credits", 100))
	l.Approve("dave", "contract", types.Token("credits", 200))

	err := l.BatchTransfer(ctx, "contract", []TransferLeg{
		{From: "dave", To: "creator", Amount: types.Token("credits", 99)},
		{From: "dave", To: "protocol", Amount: types.Token("credits", 2)},
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds for combined draw, got %v", err)
	}
}
