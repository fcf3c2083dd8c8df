package entity

import "time"

type SenderType string

const (
	SenderUser       SenderType = "user"
	SenderDepartment SenderType = "department"
)

type MessageType string

const (
	TypeMessage       MessageType = "message"
	TypeCloseRequest  MessageType = "close_request"
	TypeCloseResponse MessageType = "close_response"
)

// ChatMessage is one entry in a complaint's embedded chat log.
// Messages are created once at send time and never mutated.
type ChatMessage struct {
	Id          string      `bson:"id" json:"id"`
	Message     string      `bson:"message" json:"message"`
	SenderType  SenderType  `bson:"senderType" json:"userType"`
	SenderId    string      `bson:"senderId" json:"senderId"`
	SenderName  string      `bson:"senderName" json:"senderName"`
	Timestamp   time.Time   `bson:"timestamp" json:"timestamp"`
	MessageType MessageType `bson:"messageType" json:"type"`
	Accepted    *bool       `bson:"accepted,omitempty" json:"accepted,omitempty"`
}

// ChatHistory is the replay view of a complaint's conversation:
// the ordered message log plus the current closure negotiation, if any.
type ChatHistory struct {
	Messages     []ChatMessage `json:"messages"`
	CloseRequest *CloseRequest `json:"closeRequest,omitempty"`
}
