package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	// OriginID identifies the publishing instance so consumers can skip
	// events they already delivered locally.
	OriginID string `json:"originId"`
	RoomID   string `json:"roomId"`
	Data     []byte `json:"data"`
}

// Routing keys - using consistent event/command patterns
const (
	EventChatBroadcast = "chat.broadcast"
)
