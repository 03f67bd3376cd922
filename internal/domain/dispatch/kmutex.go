package dispatch

import "sync"

// keyedMutex hands out one mutex per key so operations on one PR serialize
// while different PRs stay fully parallel. Entries are reference counted
// and dropped when the last holder unlocks, so the map never grows with
// dead keys.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*kentry
}

type kentry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: map[string]*kentry{}}
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &kentry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	e := k.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
