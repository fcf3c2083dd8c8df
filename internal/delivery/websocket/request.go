package websocket

import "encoding/json"

// Envelope is the wire frame for every client event: a name and a payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinRoomRequest struct {
	ComplaintNumber string `json:"complaintNumber"`
	UserType        string `json:"userType"`
	UserId          string `json:"userId"`
	DepartmentName  string `json:"departmentName,omitempty"`
}

type SendMessageRequest struct {
	ComplaintNumber string `json:"complaintNumber"`
	Message         string `json:"message"`
	UserType        string `json:"userType"`
	UserId          string `json:"userId"`
	DepartmentName  string `json:"departmentName,omitempty"`
}

type RequestCloseRequest struct {
	ComplaintNumber string `json:"complaintNumber"`
	Reason          string `json:"reason"`
	DepartmentName  string `json:"departmentName"`
}

type RespondCloseRequest struct {
	ComplaintNumber string `json:"complaintNumber"`
	Accepted        bool   `json:"accepted"`
	Response        string `json:"response"`
}

type TypingRequest struct {
	ComplaintNumber string `json:"complaintNumber"`
	UserType        string `json:"userType"`
	IsTyping        bool   `json:"isTyping"`
}
