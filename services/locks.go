package services

import "sync"

// propertyLocks serializes booking creation per property so the overlap
// check and the insert behave as one atomic unit. Creations for different
// properties proceed in parallel.
type propertyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPropertyLocks() *propertyLocks {
	return &propertyLocks{locks: make(map[string]*sync.Mutex)}
}

func (pl *propertyLocks) forProperty(propertyID string) *sync.Mutex {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	lock, ok := pl.locks[propertyID]
	if !ok {
		lock = &sync.Mutex{}
		pl.locks[propertyID] = lock
	}
	return lock
}
