package application

import (
	"sort"
	"sync"
)

// ProductLocks serializes postings that touch the same products within one process
type ProductLocks struct {
	mu    sync.Mutex
	locks map[string]*productLock
}

type productLock struct {
	mu   sync.Mutex
	refs int
}

// NewProductLocks creates an empty lock table
func NewProductLocks() *ProductLocks {
	return &ProductLocks{locks: make(map[string]*productLock)}
}

// Lock acquires the lock of every product in sorted order and returns the release func.
// Unused entries are dropped on release.
func (l *ProductLocks) Lock(productIDs []string) func() {
	ids := uniqueSorted(productIDs)

	held := make([]*productLock, 0, len(ids))
	for _, id := range ids {
		pl := l.acquire(id)
		pl.mu.Lock()
		held = append(held, pl)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				l.release(ids[i])
			}
		})
	}
}

func (l *ProductLocks) acquire(id string) *productLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	pl, ok := l.locks[id]
	if !ok {
		pl = &productLock{}
		l.locks[id] = pl
	}
	pl.refs++
	return pl
}

func (l *ProductLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pl, ok := l.locks[id]
	if !ok {
		return
	}
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *ProductLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
