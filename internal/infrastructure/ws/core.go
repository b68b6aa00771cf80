package ws

import (
	"context"
	"errors"
	"time"

	"github.com/xenitV1/owl-chat/internal/domain"
	"github.com/xenitV1/owl-chat/internal/infrastructure/logging"
	"github.com/xenitV1/owl-chat/internal/infrastructure/metrics"
)

// MessageService is the external collaborator owning durable state:
// room membership lookups, message persistence and deletion, content
// filtering. The real-time core trusts its decisions and never
// re-derives them.
type MessageService interface {
	AuthorizeJoin(ctx context.Context, roomID, userID string) error
	CreateMessage(ctx context.Context, roomID, userID, content, messageType, attachmentURL string) (*domain.Message, error)
	DeleteMessage(ctx context.Context, roomID, messageID, userID string) error
	History(ctx context.Context, roomID string) ([]domain.Message, error)
}

type Options struct {
	TypingTimeout  time.Duration
	HistoryReplay  bool
	SendBuffer     int
	MaxJoinedRooms int
}

type inbound struct {
	client *Client
	event  Inbound
}

type broadcast struct {
	roomID  string
	event   *ServerEvent
	exclude []string
}

// Core is the single event loop processing all socket events. Presence
// and typing transitions complete within the tick that received them;
// only message persistence and deletion suspend, re-entering the loop
// through the broadcast channel once the external call finishes.
type Core struct {
	registry  *Registry
	presence  *PresenceTracker
	typing    *TypingTracker
	publisher Publisher
	service   MessageService
	audit     domain.ChatAuditRepository
	logger    logging.Logger
	opts      Options

	register   chan *Client
	unregister chan *Client
	in         chan inbound
	out        chan broadcast
	done       chan struct{}
}

func NewCore(
	registry *Registry,
	presence *PresenceTracker,
	publisher Publisher,
	service MessageService,
	audit domain.ChatAuditRepository,
	logger logging.Logger,
	opts Options,
) *Core {
	c := &Core{
		registry:   registry,
		presence:   presence,
		publisher:  publisher,
		service:    service,
		audit:      audit,
		logger:     logger,
		opts:       opts,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		in:         make(chan inbound, 256),
		out:        make(chan broadcast, 256),
		done:       make(chan struct{}),
	}

	// Timer expiry is the backstop for lost typing-stop events. The
	// callback re-enters the loop so broadcasts stay single-threaded.
	c.typing = NewTypingTracker(opts.TypingTimeout, func(roomID, userID, username string) {
		c.enqueue(roomID, NewUserStopTypingEvent(roomID, userID, username))
	})

	return c
}

func (c *Core) Register() chan<- *Client   { return c.register }
func (c *Core) Unregister() chan<- *Client { return c.unregister }
func (c *Core) Inbound() chan<- inbound    { return c.in }

// Typing exposes the tracker for tests.
func (c *Core) Typing() *TypingTracker { return c.typing }

// Broadcast hands an externally produced event to the loop for fan-out.
// REST handlers use it so socket and HTTP writes share one ordered path.
func (c *Core) Broadcast(roomID string, evt *ServerEvent) {
	c.enqueue(roomID, evt)
}

func (c *Core) Run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return

		case cl := <-c.register:
			c.registry.Add(cl)
			metrics.WsConnections.Inc()

		case cl := <-c.unregister:
			c.handleDisconnect(cl)

		case in := <-c.in:
			c.dispatch(in.client, in.event)

		case out := <-c.out:
			c.publisher.Publish(out.roomID, out.event, out.exclude...)
		}
	}
}

func (c *Core) dispatch(cl *Client, event Inbound) {
	switch p := event.(type) {
	case JoinRoomsPayload:
		c.handleJoinRooms(cl, p)
	case SendMessagePayload:
		c.handleSendMessage(cl, p)
	case DeleteMessagePayload:
		c.handleDeleteMessage(cl, p)
	case TypingStartPayload:
		c.handleTypingStart(cl, p)
	case TypingStopPayload:
		c.handleTypingStop(cl, p)
	case GetOnlineUsersPayload:
		cl.Send(NewOnlineUsersListEvent(p.RoomID, c.presence.OnlineUsers(p.RoomID)))
	}
}

func (c *Core) handleJoinRooms(cl *Client, p JoinRoomsPayload) {
	budget := -1
	if c.opts.MaxJoinedRooms > 0 {
		budget = c.opts.MaxJoinedRooms - len(c.registry.Rooms(cl.ID))
	}

	authorized := make([]string, 0, len(p.RoomIDs))
	for _, roomID := range p.RoomIDs {
		if budget == 0 {
			cl.Send(NewErrorEvent(roomID, "TOO_MANY_ROOMS", "Joined room limit reached"))
			continue
		}
		if err := c.service.AuthorizeJoin(context.Background(), roomID, cl.UserID); err != nil {
			cl.Send(NewErrorEvent(roomID, joinErrorCode(err), "Cannot join room"))
			c.logAudit(domain.NewJoinUnauthorizedLog(roomID, cl.UserID))
			continue
		}
		authorized = append(authorized, roomID)
		if budget > 0 {
			budget--
		}
	}

	for _, roomID := range c.registry.Join(cl.ID, authorized) {
		if c.opts.HistoryReplay {
			c.replayHistory(cl, roomID)
		}

		if c.presence.Join(roomID, cl.UserID, cl.Username) {
			c.publisher.Publish(roomID, NewUserOnlineEvent(roomID, cl.UserID, cl.Username), cl.ID)
			c.logAudit(domain.NewMemberOnlineLog(roomID, cl.UserID, cl.Username))
		}
	}
}

func (c *Core) handleDisconnect(cl *Client) {
	left := c.registry.LeaveAll(cl.ID)
	metrics.WsConnections.Dec()

	// Typing state is cleared eagerly on disconnect rather than waiting
	// out the expiry timer.
	for _, roomID := range c.typing.StopAll(cl.UserID, left) {
		c.publisher.Publish(roomID, NewUserStopTypingEvent(roomID, cl.UserID, cl.Username), cl.ID)
	}

	for _, roomID := range left {
		if c.presence.Leave(roomID, cl.UserID) {
			c.publisher.Publish(roomID, NewUserOfflineEvent(roomID, cl.UserID), cl.ID)
			c.logAudit(domain.NewMemberOfflineLog(roomID, cl.UserID))
		}
	}

	cl.closeSend()
}

func (c *Core) handleSendMessage(cl *Client, p SendMessagePayload) {
	if !c.registry.IsMember(cl.ID, p.RoomID) {
		cl.Send(NewErrorEvent(p.RoomID, "NOT_A_MEMBER", "Join the room before sending messages"))
		return
	}

	// Persistence is the only suspending step; the broadcast re-enters
	// the loop on success so no frame is ever delivered for a message
	// that failed to persist.
	go func() {
		msg, err := c.service.CreateMessage(context.Background(), p.RoomID, cl.UserID, p.Content, p.MessageType, p.AttachmentURL)
		if err != nil {
			if blocked, ok := domain.IsMessageBlocked(err); ok {
				metrics.MessagesBlockedTotal.Inc()
				cl.Send(NewMessageBlockedEvent(p.RoomID, blocked.Reason))
				c.logAudit(domain.NewMessageBlockedLog(p.RoomID, cl.UserID, blocked.Reason))
				return
			}
			c.logger.Errorw("message persistence failed", "room", p.RoomID, "error", err)
			cl.Send(NewErrorEvent(p.RoomID, "PERSISTENCE_FAILED", "Message could not be saved"))
			return
		}

		metrics.MessagesTotal.Inc()
		c.enqueue(p.RoomID, NewMessageEvent(msg))
	}()
}

func (c *Core) handleDeleteMessage(cl *Client, p DeleteMessagePayload) {
	if !c.registry.IsMember(cl.ID, p.RoomID) {
		cl.Send(NewErrorEvent(p.RoomID, "NOT_A_MEMBER", "Join the room before deleting messages"))
		return
	}

	go func() {
		if err := c.service.DeleteMessage(context.Background(), p.RoomID, p.MessageID, cl.UserID); err != nil {
			switch {
			case errors.Is(err, domain.ErrMessageNotFound):
				cl.Send(NewErrorEvent(p.RoomID, "MESSAGE_NOT_FOUND", "Message not found"))
			case errors.Is(err, domain.ErrForbidden):
				cl.Send(NewErrorEvent(p.RoomID, "FORBIDDEN", "You may not delete this message"))
			default:
				c.logger.Errorw("message deletion failed", "room", p.RoomID, "message", p.MessageID, "error", err)
				cl.Send(NewErrorEvent(p.RoomID, "PERSISTENCE_FAILED", "Message could not be deleted"))
			}
			return
		}

		c.enqueue(p.RoomID, NewMessageDeletedEvent(p.RoomID, p.MessageID))
		c.logAudit(domain.NewMessageDeletedLog(p.RoomID, p.MessageID, cl.UserID))
	}()
}

func (c *Core) handleTypingStart(cl *Client, p TypingStartPayload) {
	if !c.registry.IsMember(cl.ID, p.RoomID) {
		return
	}

	// Re-emitting on refresh is fine: receivers reset their own local
	// timeout per user-typing frame.
	c.typing.Start(p.RoomID, cl.UserID, cl.Username)
	c.publisher.Publish(p.RoomID, NewUserTypingEvent(p.RoomID, cl.UserID, cl.Username), cl.ID)
}

func (c *Core) handleTypingStop(cl *Client, p TypingStopPayload) {
	if c.typing.Stop(p.RoomID, cl.UserID) {
		c.publisher.Publish(p.RoomID, NewUserStopTypingEvent(p.RoomID, cl.UserID, cl.Username), cl.ID)
	}
}

func (c *Core) replayHistory(cl *Client, roomID string) {
	go func() {
		messages, err := c.service.History(context.Background(), roomID)
		if err != nil {
			c.logger.Warnw("history replay failed", "room", roomID, "error", err)
			return
		}
		for i := range messages {
			cl.Send(NewMessageEvent(&messages[i]))
		}
	}()
}

// enqueue hands a broadcast back to the loop; used from goroutines and
// timer callbacks so fan-out stays ordered relative to loop processing.
func (c *Core) enqueue(roomID string, evt *ServerEvent, exclude ...string) {
	select {
	case c.out <- broadcast{roomID: roomID, event: evt, exclude: exclude}:
	case <-c.done:
	}
}

func (c *Core) logAudit(entry *domain.ChatAuditLog) {
	if c.audit == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.audit.Log(ctx, entry); err != nil {
			c.logger.Warnw("audit log write failed", "room", entry.RoomID, "event", entry.EventType, "error", err)
		}
	}()
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, domain.ErrNotRoomMember):
		return "NOT_A_MEMBER"
	case errors.Is(err, domain.ErrRoomFull):
		return "ROOM_FULL"
	default:
		return "JOIN_FAILED"
	}
}
