package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xenitV1/owl-chat/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debugw(msg string, keysAndValues ...any) {}
func (nopLogger) Infow(msg string, keysAndValues ...any)  {}
func (nopLogger) Warnw(msg string, keysAndValues ...any)  {}
func (nopLogger) Errorw(msg string, keysAndValues ...any) {}
func (nopLogger) Fatalw(msg string, keysAndValues ...any) {}
func (nopLogger) Sync() error                             { return nil }

// fakeService grants membership from a fixed table and stores messages
// in a map. Content containing "blocked" is rejected the way the
// profanity filter would. createStarted/createGate/createErr let tests
// hold a persistence call in flight and force its outcome.
type fakeService struct {
	mu       sync.Mutex
	members  map[string]map[string]bool
	messages map[string]*domain.Message
	seq      int

	createStarted chan struct{}
	createGate    chan struct{}
	createErr     error
}

func newFakeService() *fakeService {
	return &fakeService{
		members:  make(map[string]map[string]bool),
		messages: make(map[string]*domain.Message),
	}
}

func (s *fakeService) allow(roomID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[roomID] == nil {
		s.members[roomID] = make(map[string]bool)
	}
	s.members[roomID][userID] = true
}

func (s *fakeService) AuthorizeJoin(ctx context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.members[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if !room[userID] {
		return domain.ErrNotRoomMember
	}
	return nil
}

func (s *fakeService) CreateMessage(ctx context.Context, roomID, userID, content, messageType, attachmentURL string) (*domain.Message, error) {
	if s.createStarted != nil {
		select {
		case s.createStarted <- struct{}{}:
		default:
		}
	}
	if s.createGate != nil {
		<-s.createGate
	}
	if s.createErr != nil {
		return nil, s.createErr
	}

	if content == "blocked" {
		return nil, &domain.MessageBlockedError{Reason: "Message contains prohibited content"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg := &domain.Message{
		ID:         fmt.Sprintf("msg-%d", s.seq),
		ChatRoomID: roomID,
		User:       &domain.User{ID: userID},
		Content:    content,
		CreatedAt:  time.Now(),
	}
	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *fakeService) DeleteMessage(ctx context.Context, roomID, messageID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return domain.ErrMessageNotFound
	}
	if msg.User.ID != userID {
		return domain.ErrForbidden
	}
	delete(s.messages, messageID)
	return nil
}

func (s *fakeService) History(ctx context.Context, roomID string) ([]domain.Message, error) {
	return nil, nil
}

func startCore(t *testing.T, svc MessageService, opts Options) *Core {
	t.Helper()

	registry := NewRegistry()
	core := NewCore(registry, NewPresenceTracker(), NewLocalPublisher(registry), svc, nil, nopLogger{}, opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go core.Run(ctx)

	return core
}

func connect(core *Core, userID, username string) *Client {
	cl := NewClient(nil, userID, username, 32)
	core.Register() <- cl
	return cl
}

func join(core *Core, cl *Client, roomIDs ...string) {
	core.Inbound() <- inbound{client: cl, event: JoinRoomsPayload{RoomIDs: roomIDs}}
}

func recv(t *testing.T, cl *Client) *ServerEvent {
	t.Helper()
	select {
	case evt := <-cl.send:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func recvEvent(t *testing.T, cl *Client, event string) *ServerEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-cl.send:
			if evt.Event == event {
				return evt
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", event)
			return nil
		}
	}
}

func expectSilence(t *testing.T, cl *Client) {
	t.Helper()
	select {
	case evt := <-cl.send:
		t.Fatalf("unexpected event %q for room %q", evt.Event, evt.RoomID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCore_MessageReachesAllRoomMembers(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-1", "user-b")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1")

	b := connect(core, "user-b", "bob")
	join(core, b, "room-1")

	// a hears b come online; both buffers are then clean.
	recvEvent(t, a, UserOnline)

	core.Inbound() <- inbound{client: a, event: SendMessagePayload{RoomID: "room-1", Content: "hello"}}

	for _, cl := range []*Client{a, b} {
		evt := recvEvent(t, cl, NewMessage)
		if evt.RoomID != "room-1" {
			t.Errorf("expected roomId room-1, got %q", evt.RoomID)
		}
		msg, ok := evt.Data.(*domain.Message)
		if !ok {
			t.Fatalf("expected message payload, got %T", evt.Data)
		}
		if msg.Content != "hello" || msg.ChatRoomID != "room-1" {
			t.Errorf("unexpected message %+v", msg)
		}
	}
}

func TestCore_NoCrossRoomLeakage(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-2", "user-c")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1")

	c := connect(core, "user-c", "carol")
	join(core, c, "room-2")

	core.Inbound() <- inbound{client: a, event: SendMessagePayload{RoomID: "room-1", Content: "hi"}}

	recvEvent(t, a, NewMessage)
	expectSilence(t, c)
}

func TestCore_DeleteBroadcastsToRoom(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-1", "user-b")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1")
	b := connect(core, "user-b", "bob")
	join(core, b, "room-1")
	recvEvent(t, a, UserOnline)

	core.Inbound() <- inbound{client: a, event: SendMessagePayload{RoomID: "room-1", Content: "oops"}}
	msg := recvEvent(t, a, NewMessage).Data.(*domain.Message)
	recvEvent(t, b, NewMessage)

	core.Inbound() <- inbound{client: a, event: DeleteMessagePayload{RoomID: "room-1", MessageID: msg.ID}}

	for _, cl := range []*Client{a, b} {
		evt := recvEvent(t, cl, MessageDeleted)
		p, ok := evt.Data.(MessageDeletedPayload)
		if !ok {
			t.Fatalf("expected MessageDeletedPayload, got %T", evt.Data)
		}
		if p.MessageID != msg.ID {
			t.Errorf("expected message id %q, got %q", msg.ID, p.MessageID)
		}
	}
}

func TestCore_DeleteForeignMessageForbidden(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-1", "user-b")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1")
	b := connect(core, "user-b", "bob")
	join(core, b, "room-1")
	recvEvent(t, a, UserOnline)

	core.Inbound() <- inbound{client: a, event: SendMessagePayload{RoomID: "room-1", Content: "mine"}}
	msg := recvEvent(t, a, NewMessage).Data.(*domain.Message)
	recvEvent(t, b, NewMessage)

	core.Inbound() <- inbound{client: b, event: DeleteMessagePayload{RoomID: "room-1", MessageID: msg.ID}}

	evt := recvEvent(t, b, ErrorEvent)
	if p := evt.Data.(ErrorPayload); p.Code != "FORBIDDEN" {
		t.Errorf("expected FORBIDDEN, got %q", p.Code)
	}
	expectSilence(t, a)
}

func TestCore_BlockedMessageOnlyToSender(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-1", "user-b")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1")
	b := connect(core, "user-b", "bob")
	join(core, b, "room-1")
	recvEvent(t, a, UserOnline)

	core.Inbound() <- inbound{client: a, event: SendMessagePayload{RoomID: "room-1", Content: "blocked"}}

	evt := recvEvent(t, a, MessageBlocked)
	if p := evt.Data.(MessageBlockedPayload); p.Reason == "" {
		t.Error("expected a block reason")
	}
	expectSilence(t, b)
}

func TestCore_SendWithoutJoinRejected(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	a := connect(core, "user-a", "alice")
	core.Inbound() <- inbound{client: a, event: SendMessagePayload{RoomID: "room-1", Content: "hi"}}

	evt := recvEvent(t, a, ErrorEvent)
	if p := evt.Data.(ErrorPayload); p.Code != "NOT_A_MEMBER" {
		t.Errorf("expected NOT_A_MEMBER, got %q", p.Code)
	}
}

func TestCore_UnauthorizedJoinRejected(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	b := connect(core, "user-b", "bob")
	join(core, b, "room-1")

	evt := recvEvent(t, b, ErrorEvent)
	if p := evt.Data.(ErrorPayload); p.Code != "NOT_A_MEMBER" {
		t.Errorf("expected NOT_A_MEMBER, got %q", p.Code)
	}
}

func TestCore_TypingLifecycle(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-1", "user-b")

	core := startCore(t, svc, Options{TypingTimeout: 50 * time.Millisecond})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1")
	b := connect(core, "user-b", "bob")
	join(core, b, "room-1")
	recvEvent(t, a, UserOnline)

	core.Inbound() <- inbound{client: a, event: TypingStartPayload{RoomID: "room-1"}}

	evt := recvEvent(t, b, UserTyping)
	if p := evt.Data.(TypingPayload); p.Username != "alice" {
		t.Errorf("expected alice typing, got %+v", p)
	}
	expectSilence(t, a)

	// No typing-stop arrives; the expiry timer must emit it.
	evt = recvEvent(t, b, UserStopTyping)
	if p := evt.Data.(TypingPayload); p.UserID != "user-a" {
		t.Errorf("expected stop for user-a, got %+v", p)
	}
}

func TestCore_DisconnectBroadcastsOffline(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-1", "user-b")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1")
	b := connect(core, "user-b", "bob")
	join(core, b, "room-1")
	recvEvent(t, a, UserOnline)

	core.Unregister() <- a

	evt := recvEvent(t, b, UserOffline)
	if p := evt.Data.(PresencePayload); p.UserID != "user-a" {
		t.Errorf("expected user-a offline, got %+v", p)
	}

	// The send channel is closed as part of teardown.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-a.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("send channel was not closed on disconnect")
		}
	}
}

func TestCore_DisconnectDuringInflightSend(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.createStarted = make(chan struct{}, 1)
	svc.createGate = make(chan struct{})
	svc.createErr = errors.New("store unavailable")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1")

	core.Inbound() <- inbound{client: a, event: SendMessagePayload{RoomID: "room-1", Content: "hi"}}

	select {
	case <-svc.createStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("persistence call never started")
	}

	// The client drops while its message is still being persisted.
	core.Unregister() <- a

	deadline := time.After(2 * time.Second)
	for open := true; open; {
		select {
		case _, ok := <-a.send:
			open = ok
		case <-deadline:
			t.Fatal("send channel was not closed on disconnect")
		}
	}

	// The late failure lands on a torn-down client; its error event must
	// be discarded rather than crash the loop.
	close(svc.createGate)
	time.Sleep(50 * time.Millisecond)
}

func TestClient_SendAfterCloseDiscarded(t *testing.T) {
	cl := NewClient(nil, "user-a", "alice", 4)

	cl.Send(NewErrorEvent("room-1", "X", "before close"))
	cl.closeSend()
	cl.closeSend() // idempotent

	cl.Send(NewErrorEvent("room-1", "X", "after close"))

	evt, ok := <-cl.send
	if !ok || evt.RoomID != "room-1" {
		t.Fatalf("expected the pre-close event, got %v (open=%v)", evt, ok)
	}
	if _, ok := <-cl.send; ok {
		t.Error("expected the channel closed with nothing else buffered")
	}
}

func TestCore_OnlineUsersSnapshot(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-1", "user-b")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1")
	b := connect(core, "user-b", "bob")
	join(core, b, "room-1")
	recvEvent(t, a, UserOnline)

	core.Inbound() <- inbound{client: a, event: GetOnlineUsersPayload{RoomID: "room-1"}}

	evt := recvEvent(t, a, OnlineUsersList)
	p := evt.Data.(OnlineUsersPayload)
	if len(p.UserIDs) != 2 {
		t.Fatalf("expected 2 online users, got %v", p.UserIDs)
	}
	if p.UserIDs[0] != "user-a" || p.UserIDs[1] != "user-b" {
		t.Errorf("expected sorted ids, got %v", p.UserIDs)
	}
}

func TestCore_MultiConnectionPresence(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-1", "user-b")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute})

	b := connect(core, "user-b", "bob")
	join(core, b, "room-1")

	// Two tabs of the same user.
	a1 := connect(core, "user-a", "alice")
	join(core, a1, "room-1")
	recvEvent(t, b, UserOnline)

	a2 := connect(core, "user-a", "alice")
	join(core, a2, "room-1")
	expectSilence(t, b)

	core.Unregister() <- a1
	expectSilence(t, b)

	core.Unregister() <- a2
	evt := recvEvent(t, b, UserOffline)
	if p := evt.Data.(PresencePayload); p.UserID != "user-a" {
		t.Errorf("expected user-a offline, got %+v", p)
	}
}

func TestCore_MaxJoinedRoomsEnforced(t *testing.T) {
	svc := newFakeService()
	svc.allow("room-1", "user-a")
	svc.allow("room-2", "user-a")
	svc.allow("room-3", "user-a")

	core := startCore(t, svc, Options{TypingTimeout: time.Minute, MaxJoinedRooms: 2})

	a := connect(core, "user-a", "alice")
	join(core, a, "room-1", "room-2", "room-3")

	evt := recvEvent(t, a, ErrorEvent)
	p := evt.Data.(ErrorPayload)
	if p.Code != "TOO_MANY_ROOMS" {
		t.Errorf("expected TOO_MANY_ROOMS, got %q", p.Code)
	}
	if evt.RoomID != "room-3" {
		t.Errorf("expected the third room to be rejected, got %q", evt.RoomID)
	}
}
