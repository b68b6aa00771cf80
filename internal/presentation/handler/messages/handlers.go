package messages

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xenitV1/owl-chat/internal/domain"
	"github.com/xenitV1/owl-chat/internal/infrastructure/json"
	"github.com/xenitV1/owl-chat/internal/infrastructure/logging"
	"github.com/xenitV1/owl-chat/internal/infrastructure/metrics"
	"github.com/xenitV1/owl-chat/internal/infrastructure/ws"
	"github.com/xenitV1/owl-chat/internal/presentation/utils"
	"github.com/xenitV1/owl-chat/internal/service"
)

type Handler struct {
	messageService *service.MessageService
	core           *ws.Core
	logger         logging.Logger
}

func NewHandler(
	messageService *service.MessageService,
	core *ws.Core,
	logger logging.Logger,
) Handler {
	return Handler{
		messageService: messageService,
		core:           core,
		logger:         logger,
	}
}

// CreateNewMessageHandler persists a message sent over plain HTTP and
// relays it to connected sockets through the same broadcast path the
// websocket layer uses.
func (h *Handler) CreateNewMessageHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	var req createMessageRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	memberToken := utils.GetMemberToken(r)
	if memberToken == "" {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Missing or invalid authentication")
		return
	}
	userID := utils.UserIDFromToken(memberToken)

	message, err := h.messageService.CreateMessage(r.Context(), roomID, userID, req.Content, req.MessageType, req.AttachmentURL)
	if err != nil {
		if blocked, ok := domain.IsMessageBlocked(err); ok {
			metrics.MessagesBlockedTotal.Inc()
			json.WriteError(w, http.StatusUnprocessableEntity, err, blocked.Reason)
			return
		}
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		case errors.Is(err, domain.ErrNotRoomMember):
			json.WriteError(w, http.StatusUnauthorized, err, "You are not a member")
		case errors.Is(err, domain.ErrInvalidInput):
			json.WriteValidationError(w, err)
		default:
			h.logger.Errorw("failed to create message", "room", roomID, "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	metrics.MessagesTotal.Inc()
	h.core.Broadcast(roomID, ws.NewMessageEvent(message))

	json.Write(w, http.StatusCreated, createMessageResponse{
		ID:         message.ID,
		ChatRoomID: message.ChatRoomID,
		User: userResponse{
			ID:   message.User.ID,
			Name: message.User.Name,
		},
		Content:       message.Content,
		MessageType:   string(message.MessageType),
		AttachmentURL: message.AttachmentURL,
		CreatedAt:     message.CreatedAt,
	})
}

// DeleteMessageHandler removes a message and relays message-deleted to
// connected sockets so clients drop it from their views.
func (h *Handler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	messageID := chi.URLParam(r, "messageId")
	if messageID == "" {
		json.WriteValidationError(w, errors.New("message ID is missing"))
		return
	}

	memberToken := utils.GetMemberToken(r)
	if memberToken == "" {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Missing or invalid authentication")
		return
	}
	userID := utils.UserIDFromToken(memberToken)

	if err := h.messageService.DeleteMessage(r.Context(), roomID, messageID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		case errors.Is(err, domain.ErrMessageNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Message not found")
		case errors.Is(err, domain.ErrNotRoomMember):
			json.WriteError(w, http.StatusUnauthorized, err, "You are not a member")
		case errors.Is(err, domain.ErrForbidden):
			json.WriteError(w, http.StatusForbidden, err, "You may not delete this message")
		default:
			h.logger.Errorw("failed to delete message", "room", roomID, "message", messageID, "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	h.core.Broadcast(roomID, ws.NewMessageDeletedEvent(roomID, messageID))

	w.WriteHeader(http.StatusNoContent)
}
