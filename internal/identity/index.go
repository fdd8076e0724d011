package identity

import (
	"sync"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Lookup answers membership questions without mutating anything.
type Lookup interface {
	Contains(key model.IdentityKey) bool
}

// Claimer is a Lookup that lets concurrent callers reserve a key before
// doing expensive work for it. Claim returns false when the key is already
// known or reserved by someone else. Release hands back a reservation whose
// work never ran.
type Claimer interface {
	Lookup
	Claim(key model.IdentityKey) bool
	Release(key model.IdentityKey)
}

// Index tracks accepted keys for one run on top of a read-only exclusion
// snapshot. It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	exclude model.KeySet
	seen    model.KeySet
}

// NewIndex returns an empty index that rejects every key in exclude.
// The exclude set is never written.
func NewIndex(exclude model.KeySet) *Index {
	return &Index{
		exclude: exclude,
		seen:    make(model.KeySet),
	}
}

// Contains reports whether key is excluded or already accepted.
func (x *Index) Contains(key model.IdentityKey) bool {
	if x.exclude.Has(key) {
		return true
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.seen.Has(key)
}

// Add accepts key unless it is excluded or already present. The first
// caller to add a key wins.
func (x *Index) Add(key model.IdentityKey) bool {
	if x.exclude.Has(key) {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.seen.Has(key) {
		return false
	}
	x.seen.Add(key)
	return true
}

// Len returns the number of accepted keys.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.seen)
}
