package server

import (
	"net"
	"sync"
	"time"
)

// Room is a named broadcast group. Membership is keyed by client id; a
// later join with the same id replaces the earlier socket (last join wins),
// and the replaced socket is dropped from the map without being closed.
type Room struct {
	ID string

	mu           sync.RWMutex
	members      map[string]net.Conn
	lastActivity time.Time
}

func newRoom(id string, now time.Time) *Room {
	return &Room{
		ID:           id,
		members:      make(map[string]net.Conn),
		lastActivity: now,
	}
}

func (r *Room) add(clientID string, conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[clientID] = conn
}

// remove reports whether clientID was a member.
func (r *Room) remove(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[clientID]; !ok {
		return false
	}
	delete(r.members, clientID)
	return true
}

// conns returns a snapshot of the member sockets.
func (r *Room) conns() []net.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]net.Conn, 0, len(r.members))
	for _, conn := range r.members {
		conns = append(conns, conn)
	}
	return conns
}

func (r *Room) touch(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = now
}

func (r *Room) idleFor(now time.Time) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return now.Sub(r.lastActivity)
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
