package session

import "sync"

// keyedMutex hands out one mutex per session ID so mutations of the same
// session serialize while different sessions proceed in parallel.
// Mutexes are never evicted; the per-session footprint is one mutex.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*sync.Mutex)}
}

func (k *keyedMutex) get(id int64) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	return m
}

// Lock locks the mutex for id and returns the unlock function.
func (k *keyedMutex) Lock(id int64) func() {
	m := k.get(id)
	m.Lock()
	return m.Unlock
}
