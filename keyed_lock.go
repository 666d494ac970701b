package paperledger

import "sync"

// userLocks hands out one mutex per user id, so that all mutations of a
// user's wallet, holdings and order log are serialized while trades of
// different users never contend.
//
// Locks are never removed: the population of users is small and a mutex is
// cheap, which keeps acquisition race free without reference counting.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the exclusive lock of the given user and returns the
// corresponding unlock function.
func (l *userLocks) lock(userID string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
