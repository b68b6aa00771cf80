package rooms

import "time"

type createRoomRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Capacity int    `json:"capacity"`
}

type createRoomResponse struct {
	RoomID    string       `json:"roomId"`
	Name      string       `json:"name"`
	JoinCode  string       `json:"joinCode"`
	Capacity  int          `json:"capacity"`
	CreatedAt time.Time    `json:"createdAt"`
	Owner     userResponse `json:"owner"`
}

type joinRoomRequest struct {
	JoinCode string `json:"joinCode"`
	Username string `json:"username"`
}

type joinRoomResponse struct {
	RoomID string       `json:"roomId"`
	Member userResponse `json:"member"`
}

type userResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type messageResponse struct {
	ID            string       `json:"id"`
	User          userResponse `json:"user"`
	Content       string       `json:"content"`
	MessageType   string       `json:"messageType"`
	AttachmentURL string       `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type roomResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	JoinCode  string            `json:"joinCode"`
	Owner     userResponse      `json:"owner"`
	Capacity  int               `json:"capacity"`
	CreatedAt time.Time         `json:"createdAt"`
	Members   []userResponse    `json:"members"`
	Messages  []messageResponse `json:"messages"`
}
