package ws

import (
	"errors"
	"testing"
)

func TestDecodeInbound_JoinRooms(t *testing.T) {
	raw := []byte(`{"event":"join-rooms","data":{"roomIds":["room-1","room-2"]}}`)

	event, err := DecodeInbound(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, ok := event.(JoinRoomsPayload)
	if !ok {
		t.Fatalf("expected JoinRoomsPayload, got %T", event)
	}
	if len(p.RoomIDs) != 2 {
		t.Errorf("expected 2 room ids, got %v", p.RoomIDs)
	}
}

func TestDecodeInbound_SendMessage(t *testing.T) {
	raw := []byte(`{"event":"send-message","data":{"roomId":"room-1","content":"hello"}}`)

	event, err := DecodeInbound(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, ok := event.(SendMessagePayload)
	if !ok {
		t.Fatalf("expected SendMessagePayload, got %T", event)
	}
	if p.RoomID != "room-1" || p.Content != "hello" {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestDecodeInbound_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"join without rooms", `{"event":"join-rooms","data":{"roomIds":[]}}`},
		{"join with empty id", `{"event":"join-rooms","data":{"roomIds":[""]}}`},
		{"send without content", `{"event":"send-message","data":{"roomId":"room-1"}}`},
		{"send without room", `{"event":"send-message","data":{"content":"hi"}}`},
		{"delete without message id", `{"event":"delete-message","data":{"roomId":"room-1"}}`},
		{"typing without room", `{"event":"typing-start","data":{}}`},
		{"typing stop without room", `{"event":"typing-stop","data":{}}`},
		{"online users without room", `{"event":"get-online-users","data":{}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeInbound([]byte(tc.raw)); err == nil {
				t.Error("expected a decode error")
			}
		})
	}
}

func TestDecodeInbound_UnknownEvent(t *testing.T) {
	raw := []byte(`{"event":"self-destruct","data":{}}`)

	_, err := DecodeInbound(raw)
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}
