package sdk

import "encoding/json"

// Client -> server events.
const (
	JoinRooms      = "join-rooms"
	SendMessage    = "send-message"
	DeleteMessage  = "delete-message"
	TypingStart    = "typing-start"
	TypingStop     = "typing-stop"
	GetOnlineUsers = "get-online-users"
)

// Server -> client events.
const (
	NewMessage      = "new-message"
	MessageDeleted  = "message-deleted"
	MessageBlocked  = "message-blocked"
	UserOnline      = "user-online"
	UserOffline     = "user-offline"
	UserTyping      = "user-typing"
	UserStopTyping  = "user-stop-typing"
	OnlineUsersList = "online-users-list"
	ErrorEvent      = "error"
)

// WSEvent is a server frame. Data stays raw so callers can decode only
// the events they care about.
type WSEvent struct {
	Event  string          `json:"event"`
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

type clientFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type MessagePayload struct {
	ID            string `json:"id"`
	ChatRoomID    string `json:"chatRoomId"`
	Content       string `json:"content"`
	MessageType   string `json:"messageType"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
	CreatedAt     string `json:"createdAt"`
	User          struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type MessageBlockedPayload struct {
	Reason string `json:"reason"`
}

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

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
