package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xenitV1/owl-chat/internal/infrastructure/validate"
)

const maxMessageLength = 4096

var validMessageType = validate.OneOf(
	string(MessageTypeText),
	string(MessageTypeImage),
	string(MessageTypeFile),
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Message is a persisted chat message. The real-time layer relays it
// verbatim in new-message broadcasts and never mutates it.
type Message struct {
	ID            string      `json:"id"`
	ChatRoomID    string      `json:"chatRoomId"`
	User          *User       `json:"user"`
	Content       string      `json:"content"`
	MessageType   MessageType `json:"messageType"`
	AttachmentURL string      `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

func NewMessage(sender *Member, roomID, content string, messageType MessageType, attachmentURL string) (*Message, error) {
	if sender == nil || sender.User == nil || roomID == "" {
		return nil, ErrInvalidInput
	}

	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxMessageLength {
		return nil, ErrInvalidInput
	}

	if messageType == "" {
		messageType = MessageTypeText
	}
	if validMessageType(string(messageType)) != nil {
		return nil, ErrInvalidInput
	}

	return &Message{
		ID:            uuid.NewString(),
		ChatRoomID:    roomID,
		User:          sender.User,
		Content:       content,
		MessageType:   messageType,
		AttachmentURL: attachmentURL,
		CreatedAt:     time.Now(),
	}, nil
}

type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	GetByID(ctx context.Context, roomID, messageID string) (*Message, error)
	GetByRoomID(ctx context.Context, roomID string) ([]Message, error)
	Delete(ctx context.Context, message *Message) error
}
