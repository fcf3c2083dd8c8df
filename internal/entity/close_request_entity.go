package entity

import "time"

type CloseResponse string

const (
	ResponsePending  CloseResponse = "pending"
	ResponseAccepted CloseResponse = "accepted"
	ResponseRejected CloseResponse = "rejected"
)

// CloseRequest is a complaint's current closure negotiation. At most one
// negotiation is live at a time; resolved ones are archived on the complaint.
type CloseRequest struct {
	Requested           bool          `bson:"requested" json:"requested"`
	RequestedBy         string        `bson:"requestedBy" json:"requestedBy"`
	RequestedAt         time.Time     `bson:"requestedAt" json:"requestedAt"`
	Reason              string        `bson:"reason" json:"reason"`
	UserResponse        CloseResponse `bson:"userResponse" json:"userResponse"`
	UserResponseAt      *time.Time    `bson:"userResponseAt,omitempty" json:"userResponseAt,omitempty"`
	UserResponseMessage string        `bson:"userResponseMessage,omitempty" json:"userResponseMessage,omitempty"`
}

// Pending reports whether the negotiation is awaiting the user's response.
func (c *CloseRequest) Pending() bool {
	return c != nil && c.Requested && c.UserResponse == ResponsePending
}
