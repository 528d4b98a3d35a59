package mutexes

import "sync"

// KeyedMutex serializes mutations per entity id: at most one critical
// section runs for a given key at a time, while different keys never block
// each other. Locks are created lazily and kept for the process lifetime;
// the key space is the tutor population, which is bounded and long-lived.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Acquire blocks until the lock for key is held and returns its release
// function. The release is safe to call more than once, so callers can
// defer it and still release early on some paths.
func (k *KeyedMutex) Acquire(key string) (release func()) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()

	var once sync.Once
	return func() {
		once.Do(lock.Unlock)
	}
}
