package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxReconnectAttempts = 5
	initialReconnectWait = time.Second
	maxReconnectWait     = 5 * time.Second

	// A touch above the server's 3s typing expiry so the server's own
	// user-stop-typing normally wins.
	typingFallback = 3500 * time.Millisecond

	blockedNoticeTTL = 5 * time.Second
)

// Session is a managed websocket connection to the chat server. It
// tracks which rooms the caller joined and re-issues the join after
// every reconnect, so the server-side registry heals without the caller
// doing anything. Presence and typing state arriving from the server
// are mirrored locally and readable at any time.
type Session struct {
	baseURL  string
	username string
	dialer   websocket.Dialer

	mu        sync.RWMutex
	conn      *websocket.Conn
	writeMu   sync.Mutex
	connected bool
	closed    bool

	joinedRooms  map[string]bool
	memberCookie string

	onlineUsers  map[string]map[string]bool
	typing       map[string]map[string]string
	typingTimers map[string]*time.Timer
	blocked      map[string]string

	eventHandler func(WSEvent)
	errorHandler func(error)
}

// NewSession prepares a session against baseURL (http, https, ws or wss
// scheme). Nothing is dialed until Connect.
func NewSession(baseURL, username string) (*Session, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	wsURL := baseURL
	if after, ok := strings.CutPrefix(baseURL, "https://"); ok {
		wsURL = "wss://" + after
	} else if after0, ok0 := strings.CutPrefix(baseURL, "http://"); ok0 {
		wsURL = "ws://" + after0
	}

	return &Session{
		baseURL:  wsURL,
		username: username,
		dialer: websocket.Dialer{
			HandshakeTimeout: 20 * time.Second,
		},
		joinedRooms:  make(map[string]bool),
		onlineUsers:  make(map[string]map[string]bool),
		typing:       make(map[string]map[string]string),
		typingTimers: make(map[string]*time.Timer),
		blocked:      make(map[string]string),
	}, nil
}

func (s *Session) SetEventHandler(handler func(WSEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventHandler = handler
}

func (s *Session) SetErrorHandler(handler func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorHandler = handler
}

// Connect dials the server. The member token cookie returned on the
// upgrade is kept and replayed on reconnects, so the server sees the
// same user identity across connections.
func (s *Session) Connect(ctx context.Context) error {
	path := fmt.Sprintf("%s/api/chat/ws?username=%s", s.baseURL, url.QueryEscape(s.username))

	var header http.Header
	s.mu.RLock()
	if s.memberCookie != "" {
		header = http.Header{"Cookie": []string{s.memberCookie}}
	}
	s.mu.RUnlock()

	conn, resp, err := s.dialer.DialContext(ctx, path, header)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	if resp != nil {
		for _, c := range resp.Cookies() {
			if c.Name == "member_id" {
				s.memberCookie = c.Name + "=" + c.Value
			}
		}
	}
	s.mu.Unlock()

	return nil
}

func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Close terminates the session permanently; Listen returns and no
// reconnect is attempted.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.connected = false

	for _, t := range s.typingTimers {
		t.Stop()
	}

	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Listen reads frames until the session is closed or the context ends.
// A dropped connection triggers reconnect attempts with backoff; after a
// successful reconnect every tracked room is re-joined before reading
// resumes.
func (s *Session) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.mu.RLock()
		conn := s.conn
		closed := s.closed
		s.mu.RUnlock()

		if closed {
			return nil
		}
		if conn == nil {
			return fmt.Errorf("session is not connected")
		}

		var evt WSEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close: %v", err)
			}

			s.mu.Lock()
			s.connected = false
			closed = s.closed
			s.mu.Unlock()

			if closed || ctx.Err() != nil {
				return nil
			}

			if err := s.reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		s.handleEvent(evt)

		s.mu.RLock()
		handler := s.eventHandler
		s.mu.RUnlock()
		if handler != nil {
			handler(evt)
		}
	}
}

func (s *Session) reconnect(ctx context.Context) error {
	wait := initialReconnectWait

	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		log.Printf("[WS] reconnect attempt %d/%d in %s", attempt, maxReconnectAttempts, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err := s.Connect(ctx); err != nil {
			s.reportError(err)
			wait *= 2
			if wait > maxReconnectWait {
				wait = maxReconnectWait
			}
			continue
		}

		// The server-side registry died with the old connection; the
		// tracked room set is the source of truth for what to rejoin.
		s.mu.RLock()
		rooms := make([]string, 0, len(s.joinedRooms))
		for roomID := range s.joinedRooms {
			rooms = append(rooms, roomID)
		}
		s.mu.RUnlock()

		if len(rooms) > 0 {
			if err := s.emit(JoinRooms, map[string]any{"roomIds": rooms}); err != nil {
				s.reportError(err)
			}
		}

		log.Printf("[WS] reconnected, rejoined %d room(s)", len(rooms))
		return nil
	}

	return fmt.Errorf("gave up reconnecting after %d attempts", maxReconnectAttempts)
}

// JoinRooms subscribes the session to the rooms' broadcasts. The ids are
// tracked for reconnect self-healing whether or not the server accepts
// them; an unauthorized room only ever costs an error frame.
func (s *Session) JoinRooms(roomIDs ...string) error {
	if len(roomIDs) == 0 {
		return fmt.Errorf("at least one room id is required")
	}

	s.mu.Lock()
	for _, roomID := range roomIDs {
		s.joinedRooms[roomID] = true
	}
	s.mu.Unlock()

	return s.emit(JoinRooms, map[string]any{"roomIds": roomIDs})
}

func (s *Session) SendMessage(roomID, content string) error {
	return s.emit(SendMessage, map[string]any{"roomId": roomID, "content": content})
}

func (s *Session) SendAttachment(roomID, content, messageType, attachmentURL string) error {
	return s.emit(SendMessage, map[string]any{
		"roomId":        roomID,
		"content":       content,
		"messageType":   messageType,
		"attachmentUrl": attachmentURL,
	})
}

func (s *Session) DeleteMessage(roomID, messageID string) error {
	return s.emit(DeleteMessage, map[string]any{"roomId": roomID, "messageId": messageID})
}

func (s *Session) StartTyping(roomID string) error {
	return s.emit(TypingStart, map[string]any{"roomId": roomID})
}

func (s *Session) StopTyping(roomID string) error {
	return s.emit(TypingStop, map[string]any{"roomId": roomID})
}

func (s *Session) RequestOnlineUsers(roomID string) error {
	return s.emit(GetOnlineUsers, map[string]any{"roomId": roomID})
}

// OnlineUsers returns the last known online user ids for a room, sorted.
func (s *Session) OnlineUsers(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.onlineUsers[roomID]))
	for id := range s.onlineUsers[roomID] {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

// TypingUsers returns the usernames currently typing in a room, sorted.
func (s *Session) TypingUsers(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.typing[roomID]))
	for _, name := range s.typing[roomID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BlockedNotice returns the reason of the most recent message-blocked
// frame for a room, or empty once the notice expired.
func (s *Session) BlockedNotice(roomID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocked[roomID]
}

// emit sends a frame when connected; while disconnected the frame is
// dropped with a warning rather than queued, matching the at-most-once
// nature of the wire.
func (s *Session) emit(event string, data any) error {
	s.mu.RLock()
	connected := s.connected
	conn := s.conn
	s.mu.RUnlock()

	if !connected || conn == nil {
		log.Printf("[WS] not connected, dropping %s", event)
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(clientFrame{Event: event, Data: data})
}

func (s *Session) handleEvent(evt WSEvent) {
	switch evt.Event {
	case UserOnline:
		var p PresencePayload
		if json.Unmarshal(evt.Data, &p) == nil {
			s.mu.Lock()
			if s.onlineUsers[evt.RoomID] == nil {
				s.onlineUsers[evt.RoomID] = make(map[string]bool)
			}
			s.onlineUsers[evt.RoomID][p.UserID] = true
			s.mu.Unlock()
		}

	case UserOffline:
		var p PresencePayload
		if json.Unmarshal(evt.Data, &p) == nil {
			s.mu.Lock()
			delete(s.onlineUsers[evt.RoomID], p.UserID)
			s.clearTypingLocked(evt.RoomID, p.UserID)
			s.mu.Unlock()
		}

	case OnlineUsersList:
		var p OnlineUsersPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			users := make(map[string]bool, len(p.UserIDs))
			for _, id := range p.UserIDs {
				users[id] = true
			}
			s.mu.Lock()
			s.onlineUsers[evt.RoomID] = users
			s.mu.Unlock()
		}

	case UserTyping:
		var p TypingPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			s.mu.Lock()
			s.setTypingLocked(evt.RoomID, p.UserID, p.Username)
			s.mu.Unlock()
		}

	case UserStopTyping:
		var p TypingPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			s.mu.Lock()
			s.clearTypingLocked(evt.RoomID, p.UserID)
			s.mu.Unlock()
		}

	case NewMessage:
		var p MessagePayload
		if json.Unmarshal(evt.Data, &p) == nil {
			// A delivered message implies the sender stopped typing even
			// if the stop frame got lost.
			s.mu.Lock()
			s.clearTypingLocked(evt.RoomID, p.User.ID)
			s.mu.Unlock()
		}

	case MessageBlocked:
		var p MessageBlockedPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			roomID := evt.RoomID
			s.mu.Lock()
			s.blocked[roomID] = p.Reason
			s.mu.Unlock()

			time.AfterFunc(blockedNoticeTTL, func() {
				s.mu.Lock()
				delete(s.blocked, roomID)
				s.mu.Unlock()
			})
		}

	case ErrorEvent:
		var p ErrorPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			s.reportError(fmt.Errorf("server error %s: %s", p.Code, p.Message))
		}
	}
}

// setTypingLocked records a typer and arms a local fallback timer in
// case the server's stop frame never arrives. Callers hold s.mu.
func (s *Session) setTypingLocked(roomID, userID, username string) {
	if s.typing[roomID] == nil {
		s.typing[roomID] = make(map[string]string)
	}
	s.typing[roomID][userID] = username

	key := roomID + "|" + userID
	if t, ok := s.typingTimers[key]; ok {
		t.Stop()
	}
	s.typingTimers[key] = time.AfterFunc(typingFallback, func() {
		s.mu.Lock()
		s.clearTypingLocked(roomID, userID)
		s.mu.Unlock()
	})
}

func (s *Session) clearTypingLocked(roomID, userID string) {
	delete(s.typing[roomID], userID)

	key := roomID + "|" + userID
	if t, ok := s.typingTimers[key]; ok {
		t.Stop()
		delete(s.typingTimers, key)
	}
}

func (s *Session) reportError(err error) {
	s.mu.RLock()
	handler := s.errorHandler
	s.mu.RUnlock()

	if handler != nil {
		handler(err)
	} else {
		log.Printf("[WS] %v", err)
	}
}
