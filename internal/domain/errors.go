package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomFull          = errors.New("room is full")
	ErrNotRoomMember     = errors.New("not a member of the room")
	ErrAlreadyInRoom     = errors.New("already in room")
	ErrMemberNotFound    = errors.New("member not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrForbidden         = errors.New("operation not permitted")
)

// MessageBlockedError is returned by the message service when the content
// filter rejects a send. The reason is surfaced to the sender only.
type MessageBlockedError struct {
	Reason string
}

func (e *MessageBlockedError) Error() string {
	return fmt.Sprintf("message blocked: %s", e.Reason)
}

func IsMessageBlocked(err error) (*MessageBlockedError, bool) {
	var blocked *MessageBlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}
