package ws

import (
	"sync"
)

// Registry tracks which live connections have joined which rooms and
// routes room broadcasts only to those connections. Membership here is
// ephemeral: it does not survive a reconnect and must be re-established
// by the client. Authorization happens before Join is called; the
// registry itself trusts its callers.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Client            // connection ID -> client
	rooms map[string]map[string]*Client // room ID -> connection ID -> client
	joins map[string]map[string]bool    // connection ID -> joined room IDs
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Client),
		rooms: make(map[string]map[string]*Client),
		joins: make(map[string]map[string]bool),
	}
}

func (r *Registry) Add(cl *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[cl.ID] = cl
	r.joins[cl.ID] = make(map[string]bool)
}

// Join idempotently registers the connection for each room and reports
// which of them were newly joined.
func (r *Registry) Join(connID string, roomIDs []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cl, ok := r.conns[connID]
	if !ok {
		return nil
	}

	var joined []string
	for _, roomID := range roomIDs {
		if r.joins[connID][roomID] {
			continue // already joined, no-op
		}
		r.joins[connID][roomID] = true

		room, ok := r.rooms[roomID]
		if !ok {
			room = make(map[string]*Client)
			r.rooms[roomID] = room
		}
		room[connID] = cl
		joined = append(joined, roomID)
	}
	return joined
}

// LeaveAll removes the connection from every room it joined and returns
// those room IDs. Called on disconnect.
func (r *Registry) LeaveAll(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for roomID := range r.joins[connID] {
		if room, ok := r.rooms[roomID]; ok {
			delete(room, connID)
			if len(room) == 0 {
				delete(r.rooms, roomID)
			}
		}
		left = append(left, roomID)
	}

	delete(r.joins, connID)
	delete(r.conns, connID)
	return left
}

// IsMember reports whether the connection has joined the room in the
// current session.
func (r *Registry) IsMember(connID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.joins[connID][roomID]
}

// Rooms returns the rooms the connection is currently joined to.
func (r *Registry) Rooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.joins[connID]))
	for roomID := range r.joins[connID] {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// Get returns the client for a connection ID.
func (r *Registry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cl, ok := r.conns[connID]
	return cl, ok
}

// Broadcast delivers an event to every connection joined to the room,
// except any connection listed in exclude. Delivery per connection is
// best-effort: slow consumers drop.
func (r *Registry) Broadcast(roomID string, evt *ServerEvent, exclude ...string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}

	for connID, cl := range room {
		if contains(exclude, connID) {
			continue
		}
		cl.Send(evt)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
