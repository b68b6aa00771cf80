package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ChatEventType string

const (
	EventMemberOnline     ChatEventType = "member_online"
	EventMemberOffline    ChatEventType = "member_offline"
	EventMessageDeleted   ChatEventType = "message_deleted"
	EventMessageBlocked   ChatEventType = "message_blocked"
	EventRoomFullReject   ChatEventType = "room_full_rejected"
	EventJoinUnauthorized ChatEventType = "join_unauthorized"
)

// ChatAuditLog records presence transitions and moderation-relevant events
// for later review. Best-effort: failures to record never affect delivery.
type ChatAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomID    string         `bson:"room_id" json:"roomId"`
	EventType ChatEventType  `bson:"event_type" json:"eventType"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type ChatAuditRepository interface {
	Log(ctx context.Context, log *ChatAuditLog) error
	GetByRoomID(ctx context.Context, roomID string, limit int) ([]ChatAuditLog, error)
	GetByEventType(ctx context.Context, eventType ChatEventType, from, to time.Time) ([]ChatAuditLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

func NewMemberOnlineLog(roomID, userID, username string) *ChatAuditLog {
	return newAuditLog(roomID, EventMemberOnline, map[string]any{
		"user_id":  userID,
		"username": username,
	})
}

func NewMemberOfflineLog(roomID, userID string) *ChatAuditLog {
	return newAuditLog(roomID, EventMemberOffline, map[string]any{
		"user_id": userID,
	})
}

func NewMessageDeletedLog(roomID, messageID, deletedBy string) *ChatAuditLog {
	return newAuditLog(roomID, EventMessageDeleted, map[string]any{
		"message_id": messageID,
		"deleted_by": deletedBy,
	})
}

func NewMessageBlockedLog(roomID, userID, reason string) *ChatAuditLog {
	return newAuditLog(roomID, EventMessageBlocked, map[string]any{
		"user_id": userID,
		"reason":  reason,
	})
}

func NewJoinUnauthorizedLog(roomID, userID string) *ChatAuditLog {
	return newAuditLog(roomID, EventJoinUnauthorized, map[string]any{
		"user_id": userID,
	})
}

func newAuditLog(roomID string, eventType ChatEventType, metadata map[string]any) *ChatAuditLog {
	return &ChatAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: eventType,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
