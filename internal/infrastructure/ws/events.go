package ws

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
