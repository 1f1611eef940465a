package goal

import "github.com/google/uuid"

// Allocator produces opaque public identifiers. Each token is a freshly
// generated 128-bit random value; the allocator does not guarantee
// uniqueness — the store's unique index does, at commit time.
type Allocator struct {
	generate func() string
}

// NewAllocator returns an allocator backed by random UUIDs.
func NewAllocator() *Allocator {
	return &Allocator{generate: uuid.NewString}
}

// Next returns a new candidate public identifier.
func (a *Allocator) Next() string {
	if a == nil || a.generate == nil {
		return uuid.NewString()
	}
	return a.generate()
}
