package vault

import "sync"

// userLocks serializes key rotation against uploads and downloads for the
// same user. Rotation takes the exclusive side; uploads, downloads and
// deletes take the shared side, so they run in parallel with each other
// but never overlap a rotation. Acquisition is try-only: callers are
// rejected instead of queueing behind a long rotation.
//
// Locks are kept per user and never evicted; the map is bounded by the
// number of users seen by this process.
type userLocks struct {
	mu sync.Mutex
	m  map[string]*sync.RWMutex
}

func newUserLocks() *userLocks {
	return &userLocks{m: make(map[string]*sync.RWMutex)}
}

func (l *userLocks) get(userID string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	rw, ok := l.m[userID]
	if !ok {
		rw = &sync.RWMutex{}
		l.m[userID] = rw
	}
	return rw
}

// tryShared acquires the shared side for userID. Returns false while a
// rotation holds or is waiting for the exclusive side.
func (l *userLocks) tryShared(userID string) bool {
	return l.get(userID).TryRLock()
}

func (l *userLocks) releaseShared(userID string) {
	l.get(userID).RUnlock()
}

// tryExclusive acquires the exclusive side for userID. Returns false if
// any other operation for the user is in flight.
func (l *userLocks) tryExclusive(userID string) bool {
	return l.get(userID).TryLock()
}

func (l *userLocks) releaseExclusive(userID string) {
	l.get(userID).Unlock()
}
