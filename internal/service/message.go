package service

import (
	"context"

	"github.com/xenitV1/owl-chat/internal/domain"
	"github.com/xenitV1/owl-chat/internal/infrastructure/profanity"
)

// MessageService owns everything the real-time layer treats as external:
// durable membership checks, message persistence and deletion, and
// content filtering. The websocket core calls it and relays results; it
// never re-derives these decisions.
type MessageService struct {
	rooms    domain.RoomRepository
	messages domain.MessageRepository
	filter   *profanity.Filter
}

func NewMessageService(
	rooms domain.RoomRepository,
	messages domain.MessageRepository,
	filter *profanity.Filter,
) *MessageService {
	return &MessageService{
		rooms:    rooms,
		messages: messages,
		filter:   filter,
	}
}

// AuthorizeJoin checks durable membership for a user wanting to receive
// a room's broadcasts.
func (s *MessageService) AuthorizeJoin(ctx context.Context, roomID, userID string) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.FindMemberByUserID(userID) == nil {
		return domain.ErrNotRoomMember
	}
	return nil
}

// CreateMessage validates, filters and persists a message. A filtered
// message is rejected with MessageBlockedError and never stored.
func (s *MessageService) CreateMessage(ctx context.Context, roomID, userID, content, messageType, attachmentURL string) (*domain.Message, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	sender := room.FindMemberByUserID(userID)
	if sender == nil {
		return nil, domain.ErrNotRoomMember
	}

	if s.filter != nil && s.filter.ContainsProfanity(content) {
		return nil, &domain.MessageBlockedError{Reason: "Message contains prohibited content"}
	}

	message, err := domain.NewMessage(sender, roomID, content, domain.MessageType(messageType), attachmentURL)
	if err != nil {
		return nil, err
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

// DeleteMessage removes a message after checking the requester's role:
// own messages always, others' only for moderators and owners.
func (s *MessageService) DeleteMessage(ctx context.Context, roomID, messageID, userID string) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}

	requester := room.FindMemberByUserID(userID)
	if requester == nil {
		return domain.ErrNotRoomMember
	}

	message, err := s.messages.GetByID(ctx, roomID, messageID)
	if err != nil {
		return err
	}

	if message.User == nil || !requester.CanDelete(message.User.ID) {
		return domain.ErrForbidden
	}

	return s.messages.Delete(ctx, message)
}

// History returns the room's persisted messages for replay on join.
func (s *MessageService) History(ctx context.Context, roomID string) ([]domain.Message, error) {
	return s.messages.GetByRoomID(ctx, roomID)
}
