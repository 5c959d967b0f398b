// Package payment defines the token-ledger capability Patron charges
// through. The ledger is an external collaborator: it owns balances and
// pull-authorizations and performs the actual value transfer. Patron only
// needs two operations from it — an allowance query and an atomic
// multi-leg transfer — so it is modeled as a small injected interface
// rather than a full token-contract surface.
package payment

import (
	"context"
	"errors"

	"github.com/xraph/patron/types"
)

// Ledger errors. The engine folds every one of these into its uniform
// payment-failed condition; they exist so ledger implementations and their
// tests can be precise about root causes.
var (
	ErrInsufficientFunds     = errors.New("payment: insufficient funds")
	ErrInsufficientAllowance = errors.New("payment: insufficient allowance")
	ErrUnknownAsset          = errors.New("payment: unknown asset")
	ErrRejected              = errors.New("payment: transfer rejected")
)

// TransferLeg is one leg of an atomic multi-leg transfer: move Amount from
// From to To on behalf of the spender. Force and Data pass through to the
// underlying ledger untouched.
type TransferLeg struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount types.Money `json:"amount"`
	Force  bool        `json:"force"`
	Data   []byte      `json:"data,omitempty"`
}

// Ledger is the external token ledger Patron settles against.
//
// BatchTransfer commits every leg or none: a rejection of any single leg
// must leave all balances and allowances untouched. Each leg draws down the
// allowance its From account granted to spender.
type Ledger interface {
	// Allowance reports the pull-authorization holder currently grants to
	// spender, in the ledger's native asset resolution.
	Allowance(ctx context.Context, holder, spender string) (types.Money, error)

	// BatchTransfer executes all legs atomically on behalf of spender.
	BatchTransfer(ctx context.Context, spender string, legs []TransferLeg) error
}
