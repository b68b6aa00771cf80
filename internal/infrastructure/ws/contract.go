package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xenitV1/owl-chat/internal/domain"
)

var ErrUnknownEvent = errors.New("unknown event")

// ServerEvent is the outgoing wire envelope. Data is a typed payload
// struct, never a client-supplied shape.
type ServerEvent struct {
	Event  string `json:"event"`
	RoomID string `json:"roomId,omitempty"`
	Data   any    `json:"data"`
}

// clientEnvelope is the incoming wire envelope. The payload stays raw
// until the event name selects a concrete type to decode into.
type clientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Inbound is the decoded, validated form of a client event.
type Inbound interface {
	inbound()
}

type JoinRoomsPayload struct {
	RoomIDs []string `json:"roomIds"`
}

type SendMessagePayload struct {
	RoomID        string `json:"roomId"`
	Content       string `json:"content"`
	MessageType   string `json:"messageType,omitempty"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
}

type TypingStartPayload struct {
	RoomID string `json:"roomId"`
}

type TypingStopPayload struct {
	RoomID string `json:"roomId"`
}

type GetOnlineUsersPayload struct {
	RoomID string `json:"roomId"`
}

func (JoinRoomsPayload) inbound()      {}
func (SendMessagePayload) inbound()    {}
func (DeleteMessagePayload) inbound()  {}
func (TypingStartPayload) inbound()    {}
func (TypingStopPayload) inbound()     {}
func (GetOnlineUsersPayload) inbound() {}

// DecodeInbound parses a raw client frame into its tagged variant,
// rejecting unknown events and malformed payloads at the boundary.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env clientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Event {
	case JoinRooms:
		var p JoinRoomsPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Event, err)
		}
		if len(p.RoomIDs) == 0 {
			return nil, fmt.Errorf("%s: at least one room id is required", env.Event)
		}
		for _, id := range p.RoomIDs {
			if id == "" {
				return nil, fmt.Errorf("%s: empty room id", env.Event)
			}
		}
		return p, nil

	case SendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Event, err)
		}
		if p.RoomID == "" || p.Content == "" {
			return nil, fmt.Errorf("%s: roomId and content are required", env.Event)
		}
		return p, nil

	case DeleteMessage:
		var p DeleteMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Event, err)
		}
		if p.MessageID == "" || p.RoomID == "" {
			return nil, fmt.Errorf("%s: messageId and roomId are required", env.Event)
		}
		return p, nil

	case TypingStart:
		var p TypingStartPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Event, err)
		}
		if p.RoomID == "" {
			return nil, fmt.Errorf("%s: roomId is required", env.Event)
		}
		return p, nil

	case TypingStop:
		var p TypingStopPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Event, err)
		}
		if p.RoomID == "" {
			return nil, fmt.Errorf("%s: roomId is required", env.Event)
		}
		return p, nil

	case GetOnlineUsers:
		var p GetOnlineUsersPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Event, err)
		}
		if p.RoomID == "" {
			return nil, fmt.Errorf("%s: roomId is required", env.Event)
		}
		return p, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}

// Outgoing payload structs
type PresencePayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

type TypingPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	RoomID   string `json:"roomId"`
}

type OnlineUsersPayload struct {
	RoomID  string   `json:"roomId"`
	UserIDs []string `json:"userIds"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type MessageBlockedPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func NewMessageEvent(msg *domain.Message) *ServerEvent {
	return &ServerEvent{
		Event:  NewMessage,
		RoomID: msg.ChatRoomID,
		Data:   msg,
	}
}

func NewMessageDeletedEvent(roomID, messageID string) *ServerEvent {
	return &ServerEvent{
		Event:  MessageDeleted,
		RoomID: roomID,
		Data:   MessageDeletedPayload{MessageID: messageID},
	}
}

func NewMessageBlockedEvent(roomID, reason string) *ServerEvent {
	return &ServerEvent{
		Event:  MessageBlocked,
		RoomID: roomID,
		Data:   MessageBlockedPayload{Reason: reason},
	}
}

func NewUserOnlineEvent(roomID, userID, username string) *ServerEvent {
	return &ServerEvent{
		Event:  UserOnline,
		RoomID: roomID,
		Data:   PresencePayload{UserID: userID, Username: username},
	}
}

func NewUserOfflineEvent(roomID, userID string) *ServerEvent {
	return &ServerEvent{
		Event:  UserOffline,
		RoomID: roomID,
		Data:   PresencePayload{UserID: userID},
	}
}

func NewUserTypingEvent(roomID, userID, username string) *ServerEvent {
	return &ServerEvent{
		Event:  UserTyping,
		RoomID: roomID,
		Data:   TypingPayload{UserID: userID, Username: username, RoomID: roomID},
	}
}

func NewUserStopTypingEvent(roomID, userID, username string) *ServerEvent {
	return &ServerEvent{
		Event:  UserStopTyping,
		RoomID: roomID,
		Data:   TypingPayload{UserID: userID, Username: username, RoomID: roomID},
	}
}

func NewOnlineUsersListEvent(roomID string, userIDs []string) *ServerEvent {
	return &ServerEvent{
		Event:  OnlineUsersList,
		RoomID: roomID,
		Data:   OnlineUsersPayload{RoomID: roomID, UserIDs: userIDs},
	}
}

func NewErrorEvent(roomID, code, message string) *ServerEvent {
	return &ServerEvent{
		Event:  ErrorEvent,
		RoomID: roomID,
		Data:   ErrorPayload{Code: code, Message: message},
	}
}
