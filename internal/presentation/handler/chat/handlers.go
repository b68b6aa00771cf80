package chat

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xenitV1/owl-chat/internal/domain"
	"github.com/xenitV1/owl-chat/internal/infrastructure/json"
	"github.com/xenitV1/owl-chat/internal/infrastructure/logging"
	"github.com/xenitV1/owl-chat/internal/infrastructure/ws"
	"github.com/xenitV1/owl-chat/internal/presentation/utils"
)

type Handler struct {
	core       *ws.Core
	logger     logging.Logger
	sendBuffer int
	upgrader   websocket.Upgrader
}

func NewHandler(core *ws.Core, logger logging.Logger, sendBuffer int) Handler {
	return Handler{
		core:       core,
		logger:     logger,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ConnectHandler upgrades the request to a websocket and registers the
// connection with the event loop. One connection may later join any
// number of rooms over join-rooms frames; nothing is joined here.
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		json.WriteValidationError(w, errors.New("username query parameter is required"))
		return
	}

	user, err := domain.NewUser(username)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	memberToken := utils.GetMemberToken(r)
	if memberToken == "" {
		memberToken = uuid.NewString()
	}
	user.ID = utils.UserIDFromToken(memberToken)

	// Cookies must ride on the upgrade response itself; anything written
	// to w after the 101 is lost.
	responseHeader := http.Header{}
	responseHeader.Add("Set-Cookie", utils.MemberCookie(memberToken).String())

	conn, err := h.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		h.logger.Warnw("ws upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := ws.NewClient(conn, user.ID, user.Name, h.sendBuffer)
	h.core.Register() <- client

	go client.WritePump(h.core)
	go client.ReadPump(h.core)

	h.logger.Infow("ws connected", "connection", client.ID, "user", user.ID, "username", user.Name)
}
