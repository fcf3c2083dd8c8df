package websocket

import (
	"time"

	"grievchat/internal/entity"
)

// OutEvent is the server-to-client wire frame, mirroring Envelope.
type OutEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type NewMessagePayload struct {
	Id              string             `json:"id"`
	ComplaintNumber string             `json:"complaintNumber"`
	Message         string             `json:"message"`
	UserType        entity.SenderType  `json:"userType"`
	SenderId        string             `json:"senderId"`
	SenderName      string             `json:"senderName"`
	Timestamp       time.Time          `json:"timestamp"`
	Type            entity.MessageType `json:"type"`
}

type CloseRequestPayload struct {
	Id              string    `json:"id"`
	ComplaintNumber string    `json:"complaintNumber"`
	Type            string    `json:"type"`
	Reason          string    `json:"reason"`
	DepartmentName  string    `json:"departmentName"`
	Timestamp       time.Time `json:"timestamp"`
	Status          string    `json:"status"`
}

type CloseResponsePayload struct {
	Id              string    `json:"id"`
	ComplaintNumber string    `json:"complaintNumber"`
	Type            string    `json:"type"`
	Accepted        bool      `json:"accepted"`
	Response        string    `json:"response"`
	Timestamp       time.Time `json:"timestamp"`
}

type ComplaintClosedPayload struct {
	ComplaintNumber string    `json:"complaintNumber"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
}

type PresencePayload struct {
	UserType entity.SenderType `json:"userType"`
	UserId   string            `json:"userId"`
	Message  string            `json:"message"`
}

type TypingPayload struct {
	UserType entity.SenderType `json:"userType"`
	IsTyping bool              `json:"isTyping"`
	UserId   string            `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
