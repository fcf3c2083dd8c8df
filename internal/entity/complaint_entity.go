package entity

import "time"

type ComplaintStatus string

const (
	StatusOpen       ComplaintStatus = "open"
	StatusInProgress ComplaintStatus = "in_progress"
	StatusResolved   ComplaintStatus = "resolved"
	StatusClosed     ComplaintStatus = "closed"
	StatusRejected   ComplaintStatus = "rejected"
)

type Complaint struct {
	Id                   string          `bson:"_id" json:"id"`
	ComplaintNumber      string          `bson:"complaintNumber" json:"complaintNumber"`
	UserId               string          `bson:"userId" json:"userId"`
	Department           string          `bson:"department" json:"department"`
	Title                string          `bson:"title" json:"title"`
	Description          string          `bson:"description" json:"description"`
	Status               ComplaintStatus `bson:"status" json:"status"`
	ChatMessages         []ChatMessage   `bson:"chatMessages" json:"chatMessages"`
	CloseRequest         *CloseRequest   `bson:"closeRequest,omitempty" json:"closeRequest,omitempty"`
	CloseRequestHistory  []CloseRequest  `bson:"closeRequestHistory,omitempty" json:"closeRequestHistory,omitempty"`
	ActualResolutionDate *time.Time      `bson:"actualResolutionDate,omitempty" json:"actualResolutionDate,omitempty"`
	CreatedAt            time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Closed reports whether the complaint has reached its terminal status.
func (c Complaint) Closed() bool {
	return c.Status == StatusClosed
}
