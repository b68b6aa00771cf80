package ws

import (
	"reflect"
	"sort"
	"testing"
)

func newTestClient(userID, username string) *Client {
	return NewClient(nil, userID, username, 16)
}

func drain(cl *Client) []*ServerEvent {
	var events []*ServerEvent
	for {
		select {
		case evt := <-cl.send:
			events = append(events, evt)
		default:
			return events
		}
	}
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	cl := newTestClient("user-1", "alice")
	r.Add(cl)

	joined := r.Join(cl.ID, []string{"room-1", "room-2"})
	if len(joined) != 2 {
		t.Fatalf("expected 2 newly joined rooms, got %v", joined)
	}

	joined = r.Join(cl.ID, []string{"room-1", "room-3"})
	if !reflect.DeepEqual(joined, []string{"room-3"}) {
		t.Fatalf("expected only room-3 to be new, got %v", joined)
	}

	rooms := r.Rooms(cl.ID)
	sort.Strings(rooms)
	if !reflect.DeepEqual(rooms, []string{"room-1", "room-2", "room-3"}) {
		t.Errorf("unexpected room set %v", rooms)
	}
}

func TestRegistry_JoinUnknownConnection(t *testing.T) {
	r := NewRegistry()
	if joined := r.Join("nope", []string{"room-1"}); joined != nil {
		t.Errorf("expected nil for unregistered connection, got %v", joined)
	}
}

func TestRegistry_BroadcastScopedToRoom(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("user-a", "alice")
	b := newTestClient("user-b", "bob")
	c := newTestClient("user-c", "carol")
	r.Add(a)
	r.Add(b)
	r.Add(c)

	r.Join(a.ID, []string{"room-1"})
	r.Join(b.ID, []string{"room-1"})
	r.Join(c.ID, []string{"room-2"})

	r.Broadcast("room-1", NewUserOnlineEvent("room-1", "user-a", "alice"))

	if got := len(drain(a)); got != 1 {
		t.Errorf("expected 1 event for a, got %d", got)
	}
	if got := len(drain(b)); got != 1 {
		t.Errorf("expected 1 event for b, got %d", got)
	}
	if got := len(drain(c)); got != 0 {
		t.Errorf("room-2 member received a room-1 event, got %d", got)
	}
}

func TestRegistry_BroadcastExcludes(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("user-a", "alice")
	b := newTestClient("user-b", "bob")
	r.Add(a)
	r.Add(b)
	r.Join(a.ID, []string{"room-1"})
	r.Join(b.ID, []string{"room-1"})

	r.Broadcast("room-1", NewUserTypingEvent("room-1", "user-a", "alice"), a.ID)

	if got := len(drain(a)); got != 0 {
		t.Errorf("excluded connection received %d events", got)
	}
	if got := len(drain(b)); got != 1 {
		t.Errorf("expected 1 event for b, got %d", got)
	}
}

func TestRegistry_LeaveAll(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("user-a", "alice")
	b := newTestClient("user-b", "bob")
	r.Add(a)
	r.Add(b)
	r.Join(a.ID, []string{"room-1", "room-2"})
	r.Join(b.ID, []string{"room-1"})

	left := r.LeaveAll(a.ID)
	sort.Strings(left)
	if !reflect.DeepEqual(left, []string{"room-1", "room-2"}) {
		t.Fatalf("unexpected left rooms %v", left)
	}

	if r.IsMember(a.ID, "room-1") {
		t.Error("connection still member after LeaveAll")
	}
	if _, ok := r.Get(a.ID); ok {
		t.Error("connection still registered after LeaveAll")
	}

	r.Broadcast("room-1", NewUserOfflineEvent("room-1", "user-a"))
	if got := len(drain(b)); got != 1 {
		t.Errorf("remaining member should still receive broadcasts, got %d", got)
	}
}

func TestClient_SendDropsWhenFull(t *testing.T) {
	cl := NewClient(nil, "user-1", "alice", 2)

	for i := 0; i < 5; i++ {
		cl.Send(NewUserOnlineEvent("room-1", "user-1", "alice"))
	}

	if got := len(drain(cl)); got != 2 {
		t.Errorf("expected buffer to hold 2 events, got %d", got)
	}
}
