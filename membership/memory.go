package membership

import (
	"context"
	"sync"
)

// MemoryIssuer is an in-process Issuer for tests and examples. It counts
// units issued per (account, token) so tests can assert "exactly one unit"
// properties.
type MemoryIssuer struct {
	mu     sync.Mutex
	issued map[string]map[string]int // account -> tokenKey -> units
}

// NewMemoryIssuer creates an empty in-memory issuer.
func NewMemoryIssuer() *MemoryIssuer {
	return &MemoryIssuer{issued: make(map[string]map[string]int)}
}

// Issue implements Issuer.
func (m *MemoryIssuer) Issue(_ context.Context, to, tokenKey string, _ bool, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.issued[to] == nil {
		m.issued[to] = make(map[string]int)
	}
	m.issued[to][tokenKey]++
	return nil
}

// Count reports how many units of tokenKey have been issued to the account.
func (m *MemoryIssuer) Count(to, tokenKey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issued[to][tokenKey]
}
