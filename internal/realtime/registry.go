package realtime

import "sync"

// Registry maps a user id to the id of their active realtime connection.
// Entries live only in memory: a process restart drops them all, and
// reconnecting clients simply re-register. There is no TTL; entries leave
// only through Unregister.
type Registry struct {
	mu     sync.RWMutex
	byUser map[int64]string
	byConn map[string]int64
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[int64]string),
		byConn: make(map[string]int64),
	}
}

// Register records connID as userID's active connection, replacing any
// previous one.
func (r *Registry) Register(userID int64, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byUser[userID]; ok {
		delete(r.byConn, old)
	}
	r.byUser[userID] = connID
	r.byConn[connID] = userID
}

// Unregister removes the entry owning connID, if any. Reverse lookup by
// connection id, so a stale disconnect for a replaced connection is a no-op.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	if r.byUser[uid] == connID {
		delete(r.byUser, uid)
	}
}

// Lookup returns the active connection id for userID.
func (r *Registry) Lookup(userID int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	return id, ok
}
