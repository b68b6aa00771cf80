package messages

import "time"

type createMessageRequest struct {
	Content       string `json:"content"`
	MessageType   string `json:"messageType"`
	AttachmentURL string `json:"attachmentUrl"`
}

type createMessageResponse struct {
	ID            string       `json:"id"`
	ChatRoomID    string       `json:"chatRoomId"`
	User          userResponse `json:"user"`
	Content       string       `json:"content"`
	MessageType   string       `json:"messageType"`
	AttachmentURL string       `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type userResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
