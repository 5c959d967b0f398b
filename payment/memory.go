package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/patron/types"
)

// MemoryLedger is an in-process Ledger for tests, examples and single-node
// deployments. Balances and allowances are keyed by (account, asset); all
// operations run under one mutex so multi-leg transfers are trivially
// atomic.
type MemoryLedger struct {
	mu         sync.Mutex
	balances   map[string]map[string]int64 // account -> asset -> amount
	allowances map[string]map[string]int64 // holder/spender -> asset -> amount
}

// NewMemoryLedger creates an empty in-memory token ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances:   make(map[string]map[string]int64),
		allowances: make(map[string]map[string]int64),
	}
}

func allowanceKey(holder, spender string) string {
	return holder + "\x00" + spender
}

// Credit adds funds to an account. Test/setup helper.
func (l *MemoryLedger) Credit(account string, amount types.Money) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(l.balances, account, amount.Currency, amount.Amount)
}

// Balance reports an account's balance in the given asset.
func (l *MemoryLedger) Balance(account, asset string) types.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	return types.Token(asset, l.balances[account][asset])
}

// Approve sets (not adds) the pull-authorization holder grants to spender.
// Approving zero revokes the authorization.
func (l *MemoryLedger) Approve(holder, spender string, amount types.Money) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := allowanceKey(holder, spender)
	if l.allowances[key] == nil {
		l.allowances[key] = make(map[string]int64)
	}
	l.allowances[key][amount.Currency] = amount.Amount
}

// Allowance implements Ledger. It reports the total outstanding
// authorization across assets as a single amount; holders with grants in
// exactly one asset (the common case) get that asset back.
func (l *MemoryLedger) Allowance(_ context.Context, holder, spender string) (types.Money, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	grants := l.allowances[allowanceKey(holder, spender)]

	var total int64
	asset := ""
	for a, amt := range grants {
		if amt > 0 {
			total += amt
			asset = a
		}
	}
	return types.Token(asset, total), nil
}

// BatchTransfer implements Ledger. It validates every leg before touching
// any balance, then applies all legs under the same lock — both legs of a
// charge succeed or both fail together.
func (l *MemoryLedger) BatchTransfer(_ context.Context, spender string, legs []TransferLeg) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Validation pass: every leg must be fully covered before any is applied.
	// Track cumulative draw per (account, asset) so two legs pulling from the
	// same account are checked against the combined amount.
	needBalance := make(map[string]map[string]int64)
	needAllowance := make(map[string]map[string]int64)
	for _, leg := range legs {
		if leg.Amount.IsNegative() {
			return fmt.Errorf("%w: negative amount", ErrRejected)
		}
		add(needBalance, leg.From, leg.Amount.Currency, leg.Amount.Amount)
		if leg.From != spender {
			add(needAllowance, allowanceKey(leg.From, spender), leg.Amount.Currency, leg.Amount.Amount)
		}
	}
	for account, byAsset := range needBalance {
		for asset, amount := range byAsset {
			if l.balances[account][asset] < amount {
				return fmt.Errorf("%w: %s needs %d %s", ErrInsufficientFunds, account, amount, asset)
			}
		}
	}
	for key, byAsset := range needAllowance {
		for asset, amount := range byAsset {
			if l.allowances[key][asset] < amount {
				return fmt.Errorf("%w: %s", ErrInsufficientAllowance, asset)
			}
		}
	}

	// Commit pass.
	for _, leg := range legs {
		l.add(l.balances, leg.From, leg.Amount.Currency, -leg.Amount.Amount)
		l.add(l.balances, leg.To, leg.Amount.Currency, leg.Amount.Amount)
		if leg.From != spender {
			add(l.allowances, allowanceKey(leg.From, spender), leg.Amount.Currency, -leg.Amount.Amount)
		}
	}
	return nil
}

func (l *MemoryLedger) add(m map[string]map[string]int64, key, asset string, delta int64) {
	add(m, key, asset, delta)
}

func add(m map[string]map[string]int64, key, asset string, delta int64) {
	if m[key] == nil {
		m[key] = make(map[string]int64)
	}
	m[key][asset] += delta
}
