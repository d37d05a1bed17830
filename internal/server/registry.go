package server

import (
	"net"
	"sync"
	"time"

	"github.com/mkarpov/roomcast/internal/protocol"
)

// Registry tracks every live room. It is the only state shared between
// connection goroutines and the evictor; all mutation goes through its
// methods.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	events *Events
}

func NewRegistry(events *Events) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		events: events,
	}
}

// Join adds clientID to roomID, creating the room on first join. Creation
// is a check-then-insert under the registry lock, so concurrent first-joins
// for one id observe a single Room and the room-created event fires exactly
// once per room lifetime. The member is inserted while the lock is still
// held: a join cannot land in a room the evictor has already unlinked, so
// every joined socket is closed by whichever sweep destroys its room.
//
// Joining does not refresh the room's activity timestamp; only text traffic
// does. A freshly created room that sees no text within the idle window is
// still evicted.
func (g *Registry) Join(roomID, clientID string, conn net.Conn) {
	g.mu.Lock()
	room, ok := g.rooms[roomID]
	if !ok {
		room = newRoom(roomID, time.Now())
		g.rooms[roomID] = room
	}
	room.add(clientID, conn)
	g.mu.Unlock()

	if !ok {
		g.events.roomCreated(roomID)
	}
}

// Broadcast sends msg to every member of its room. Broadcasting to an
// unknown room is a no-op. Delivery is best effort: a write failure on one
// member must not block or fail delivery to the others, so per-member
// errors are swallowed.
func (g *Registry) Broadcast(msg protocol.Message) {
	g.mu.RLock()
	room, ok := g.rooms[msg.Room]
	g.mu.RUnlock()
	if !ok {
		return
	}

	room.touch(time.Now())

	data, err := protocol.Encode(msg)
	if err != nil {
		return
	}
	for _, conn := range room.conns() {
		conn.Write(data)
	}
}

// RemoveClient drops clientID from every room; a client id is not scoped to
// a single room. Fires client-disconnected once iff at least one room held
// the client.
func (g *Registry) RemoveClient(clientID string) {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.RUnlock()

	removed := 0
	for _, room := range rooms {
		if room.remove(clientID) {
			removed++
		}
	}
	if removed > 0 {
		g.events.clientDisconnected(clientID)
	}
}

// EvictIdle destroys every room whose last activity is at least threshold
// before now, closing all member sockets. Close errors are ignored.
func (g *Registry) EvictIdle(now time.Time, threshold time.Duration) {
	g.mu.Lock()
	var victims []*Room
	for id, room := range g.rooms {
		if room.idleFor(now) >= threshold {
			victims = append(victims, room)
			delete(g.rooms, id)
		}
	}
	g.mu.Unlock()

	for _, room := range victims {
		g.destroy(room)
	}
}

// Clear destroys every room unconditionally. Used at shutdown.
func (g *Registry) Clear() {
	g.mu.Lock()
	victims := make([]*Room, 0, len(g.rooms))
	for id, room := range g.rooms {
		victims = append(victims, room)
		delete(g.rooms, id)
	}
	g.mu.Unlock()

	for _, room := range victims {
		g.destroy(room)
	}
}

// destroy closes the members of an already-unlinked room.
func (g *Registry) destroy(room *Room) {
	for _, conn := range room.conns() {
		conn.Close()
	}
	g.events.roomDestroyed(room.ID)
}

// Room returns the live room for id, or nil.
func (g *Registry) Room(id string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[id]
}

func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
