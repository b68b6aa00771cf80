package ws

import (
	"sync"
	"time"

	"github.com/xenitV1/owl-chat/internal/infrastructure/metrics"
)

type typingKey struct {
	roomID string
	userID string
}

// TypingTracker holds self-expiring "is typing" state per (room, user).
// The timer is the sole source of truth for expiry: a lost typing-stop
// (or an abrupt disconnect) can never leave a stale indicator beyond the
// configured timeout. Timers are cancelled and replaced atomically on
// refresh so evicted pairs never leak a timer.
type TypingTracker struct {
	mu      sync.Mutex
	timeout time.Duration
	timers  map[typingKey]*time.Timer

	// expired is invoked outside the lock when a timer fires.
	expired func(roomID, userID, username string)
}

func NewTypingTracker(timeout time.Duration, expired func(roomID, userID, username string)) *TypingTracker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &TypingTracker{
		timeout: timeout,
		timers:  make(map[typingKey]*time.Timer),
		expired: expired,
	}
}

// Start transitions the (room, user) pair to typing and reports whether
// the pair was previously idle. Repeated starts refresh the timer.
func (t *TypingTracker) Start(roomID, userID, username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{roomID: roomID, userID: userID}

	fresh := true
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		fresh = false
	} else {
		metrics.TypingIndicators.Inc()
	}

	t.timers[key] = time.AfterFunc(t.timeout, func() {
		if t.remove(key) {
			t.expired(roomID, userID, username)
		}
	})

	return fresh
}

// Stop cancels the pair's timer and reports whether it was typing.
func (t *TypingTracker) Stop(roomID, userID string) bool {
	return t.remove(typingKey{roomID: roomID, userID: userID})
}

// StopAll clears the user's typing state in every given room, returning
// the rooms where an indicator was actually active. Used on disconnect.
func (t *TypingTracker) StopAll(userID string, roomIDs []string) []string {
	var stopped []string
	for _, roomID := range roomIDs {
		if t.Stop(roomID, userID) {
			stopped = append(stopped, roomID)
		}
	}
	return stopped
}

func (t *TypingTracker) remove(key typingKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.timers[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.timers, key)
	metrics.TypingIndicators.Dec()
	return true
}
