package testutil

import "sync"

// MemoryAddressBar is an in-memory address bar that records every write.
// It satisfies scalar.AddressBar.
type MemoryAddressBar struct {
	mu      sync.Mutex
	query   string
	history []string
}

// NewMemoryAddressBar returns a bar holding the initial query.
func NewMemoryAddressBar(query string) *MemoryAddressBar {
	return &MemoryAddressBar{query: query}
}

// Query returns the current query string.
func (b *MemoryAddressBar) Query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Replace overwrites the query and records the write.
func (b *MemoryAddressBar) Replace(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = query
	b.history = append(b.history, query)
}

// Writes returns every query written through Replace, oldest first.
func (b *MemoryAddressBar) Writes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.history...)
}
