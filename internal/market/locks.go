package market

import (
	"sync"

	id "namemart/pkg/domain"
)

// keyedMutex serializes operations per name. The Sale record is the unit of
// mutual exclusion: operations on different names never contend, two
// operations on the same name run one after the other. Mutexes are kept for
// the life of the process; the per-name footprint is one mutex.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[id.NameKey]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[id.NameKey]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex) Lock(key id.NameKey) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
