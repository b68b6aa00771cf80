package rooms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xenitV1/owl-chat/internal/domain"
	"github.com/xenitV1/owl-chat/internal/infrastructure/json"
	"github.com/xenitV1/owl-chat/internal/infrastructure/logging"
	"github.com/xenitV1/owl-chat/internal/presentation/utils"
)

type Handler struct {
	roomRepository    domain.RoomRepository
	messageRepository domain.MessageRepository
	logger            logging.Logger
}

func NewHandler(
	roomRepository domain.RoomRepository,
	messageRepository domain.MessageRepository,
	logger logging.Logger,
) Handler {
	return Handler{
		roomRepository:    roomRepository,
		messageRepository: messageRepository,
		logger:            logger,
	}
}

func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	memberToken := utils.SetupMemberToken(w, r)

	user, err := domain.NewUser(req.Username)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}
	user.ID = utils.UserIDFromToken(memberToken)

	owner := domain.NewMember(memberToken, user, domain.RoleOwner)

	room, err := domain.NewRoom(req.Name, owner, req.Capacity)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.roomRepository.Create(r.Context(), room); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomAlreadyExists):
			json.WriteError(w, http.StatusConflict, err, "Room already exists")
		default:
			h.logger.Errorw("failed to create room", "room", room.ID, "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusCreated, createRoomResponse{
		RoomID:    room.ID,
		Name:      room.Name,
		JoinCode:  room.JoinCode,
		Capacity:  room.Capacity,
		CreatedAt: room.CreatedAt,
		Owner: userResponse{
			ID:   user.ID,
			Name: user.Name,
		},
	})
}

func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	var req joinRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	memberToken := utils.SetupMemberToken(w, r)

	room, err := h.roomRepository.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			h.logger.Errorw("failed to load room", "room", roomID, "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	if room.JoinCode != req.JoinCode {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Invalid join code")
		return
	}

	member := room.FindMemberByID(memberToken)
	if member == nil {
		user, err := domain.NewUser(req.Username)
		if err != nil {
			json.WriteValidationError(w, err)
			return
		}
		user.ID = utils.UserIDFromToken(memberToken)

		member = domain.NewMember(memberToken, user, domain.RoleMember)

		if err := room.AddMember(member); err != nil {
			switch {
			case errors.Is(err, domain.ErrRoomFull):
				json.WriteError(w, http.StatusConflict, err, "Room is full")
			case errors.Is(err, domain.ErrAlreadyInRoom):
				json.WriteError(w, http.StatusConflict, err, "You are already in this room")
			default:
				json.WriteInternalError(w, err)
			}
			return
		}

		if err := h.roomRepository.Update(r.Context(), room); err != nil {
			h.logger.Errorw("failed to persist room after join", "room", roomID, "error", err)
			json.WriteInternalError(w, err)
			return
		}
	}

	json.Write(w, http.StatusOK, joinRoomResponse{
		RoomID: room.ID,
		Member: userResponse{
			ID:   member.User.ID,
			Name: member.User.Name,
		},
	})
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	memberToken := utils.GetMemberToken(r)
	if memberToken == "" {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Missing or invalid authentication")
		return
	}

	room, err := h.roomRepository.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			h.logger.Errorw("failed to load room", "room", roomID, "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	if room.FindMemberByID(memberToken) == nil {
		json.WriteError(w, http.StatusUnauthorized, errors.New("unauthorized"), "You are not a member")
		return
	}

	messages, err := h.messageRepository.GetByRoomID(r.Context(), roomID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	mappedMessages := make([]messageResponse, len(messages))
	for i, message := range messages {
		mappedMessages[i] = messageResponse{
			ID: message.ID,
			User: userResponse{
				ID:   message.User.ID,
				Name: message.User.Name,
			},
			Content:       message.Content,
			MessageType:   string(message.MessageType),
			AttachmentURL: message.AttachmentURL,
			CreatedAt:     message.CreatedAt,
		}
	}

	members := room.MemberList()
	mappedMembers := make([]userResponse, len(members))
	for i, member := range members {
		mappedMembers[i] = userResponse{
			ID:   member.User.ID,
			Name: member.User.Name,
		}
	}

	var ownerResponse userResponse
	if owner := room.OwnerMember(); owner != nil {
		ownerResponse = userResponse{
			ID:   owner.User.ID,
			Name: owner.User.Name,
		}
	}

	json.Write(w, http.StatusOK, roomResponse{
		ID:        room.ID,
		Name:      room.Name,
		JoinCode:  room.JoinCode,
		Owner:     ownerResponse,
		Capacity:  room.Capacity,
		CreatedAt: room.CreatedAt,
		Members:   mappedMembers,
		Messages:  mappedMessages,
	})
}
