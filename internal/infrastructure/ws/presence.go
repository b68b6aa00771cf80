package ws

import (
	"sort"
	"sync"

	"github.com/xenitV1/owl-chat/internal/infrastructure/metrics"
)

// PresenceTracker answers "who is online in room R". Presence is keyed
// by distinct user per room and reference-counted by connection, so a
// user with several tabs open does not flicker offline when one closes.
type PresenceTracker struct {
	mu    sync.RWMutex
	rooms map[string]map[string]int // room ID -> user ID -> connection count
	names map[string]string         // user ID -> display name
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		rooms: make(map[string]map[string]int),
		names: make(map[string]string),
	}
}

// Join counts a connection for the user in the room and reports whether
// this was the user's first connection there (a user-online transition).
func (p *PresenceTracker) Join(roomID, userID, username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.rooms[roomID]
	if !ok {
		room = make(map[string]int)
		p.rooms[roomID] = room
	}

	room[userID]++
	p.names[userID] = username

	first := room[userID] == 1
	if first {
		metrics.OnlineUsers.WithLabelValues(roomID).Inc()
	}
	return first
}

// Leave drops one connection reference and reports whether the user is
// now fully offline in the room (a user-offline transition).
func (p *PresenceTracker) Leave(roomID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.rooms[roomID]
	if !ok {
		return false
	}

	count, ok := room[userID]
	if !ok {
		return false
	}

	if count > 1 {
		room[userID] = count - 1
		return false
	}

	delete(room, userID)
	if len(room) == 0 {
		delete(p.rooms, roomID)
	}
	metrics.OnlineUsers.WithLabelValues(roomID).Dec()
	return true
}

// OnlineUsers returns a sorted snapshot of user IDs online in the room.
func (p *PresenceTracker) OnlineUsers(roomID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	room := p.rooms[roomID]
	users := make([]string, 0, len(room))
	for userID := range room {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// Username returns the last display name seen for a user.
func (p *PresenceTracker) Username(userID string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.names[userID]
}
