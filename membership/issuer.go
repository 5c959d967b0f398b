// Package membership defines the membership-token issuer Patron mints
// through. The issuer is an external collaborator: it produces
// non-transferable, non-divisible receipt tokens that represent an active
// subscription (or, for the deployment registry, a creator badge). Patron
// only ever issues — it never transfers or burns what it issued, and an
// issued token is never the authority on subscription state.
package membership

import "context"

// Issuer mints a single non-divisible, non-transferable unit of the token
// identified by tokenKey to the given account. Force and Data pass through
// to the underlying collection untouched.
type Issuer interface {
	Issue(ctx context.Context, to, tokenKey string, force bool, data []byte) error
}

// IssuerFunc adapts a plain function to the Issuer interface.
type IssuerFunc func(ctx context.Context, to, tokenKey string, force bool, data []byte) error

// Issue implements Issuer.
func (f IssuerFunc) Issue(ctx context.Context, to, tokenKey string, force bool, data []byte) error {
	return f(ctx, to, tokenKey, force, data)
}
