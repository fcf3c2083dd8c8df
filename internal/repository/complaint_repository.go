package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grievchat/internal/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrComplaintNotFound    = errors.New("complaint not found")
	ErrComplaintClosed      = errors.New("complaint is already closed")
	ErrCloseRequestPending  = errors.New("a close request is already pending")
	ErrCloseRequestResolved = errors.New("close request has already been resolved")
	ErrNoCloseRequest       = errors.New("no close request found for this complaint")
)

// ComplaintRepository is the durable store for a complaint's chat log and
// closure negotiation. The complaint document is the single owner of both;
// all writes go through guarded single-document updates so concurrent
// writers to the same complaint are serialized by the database.
type ComplaintRepository interface {
	Get(ctx context.Context, complaintNumber string) (entity.Complaint, error)
	AppendChatMessage(ctx context.Context, complaintNumber string, msg entity.ChatMessage) (entity.ChatMessage, error)
	GetChatHistory(ctx context.Context, complaintNumber string) (entity.ChatHistory, error)
	OpenCloseRequest(ctx context.Context, complaintNumber, requestedBy, reason string) (entity.CloseRequest, error)
	ResolveCloseRequest(ctx context.Context, complaintNumber string, accepted bool, responseMessage, respondingUserId string) (entity.CloseRequest, error)
}

type complaintRepository struct {
	db mongo.Database
}

func NewComplaintRepository(db mongo.Database) ComplaintRepository {
	return &complaintRepository{
		db: db,
	}
}

// Get returns a complaint by its complaint number.
func (r *complaintRepository) Get(ctx context.Context, complaintNumber string) (entity.Complaint, error) {
	collection := r.db.Collection("complaints")
	filter := bson.M{"complaintNumber": complaintNumber}

	var complaint entity.Complaint
	err := collection.FindOne(ctx, filter).Decode(&complaint)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Complaint{}, ErrComplaintNotFound
		}
		return entity.Complaint{}, fmt.Errorf("mongodb find complaint: %w", err)
	}

	return complaint, nil
}

// AppendChatMessage appends a message to the complaint's chat log.
// The message id and timestamp are assigned here; timestamps are
// non-decreasing within a complaint because the append order is the
// document update order.
func (r *complaintRepository) AppendChatMessage(ctx context.Context, complaintNumber string, msg entity.ChatMessage) (entity.ChatMessage, error) {
	collection := r.db.Collection("complaints")

	msg.Id = uuid.New().String()
	msg.Timestamp = time.Now()

	filter := bson.M{"complaintNumber": complaintNumber}
	// Department writes are scoped to the owning department; a complaint
	// another department owns looks like a missing one.
	if msg.SenderType == entity.SenderDepartment {
		filter["department"] = msg.SenderId
	}
	update := bson.M{
		"$push": bson.M{"chatMessages": msg},
		"$set":  bson.M{"updatedAt": msg.Timestamp},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return entity.ChatMessage{}, fmt.Errorf("mongodb append chat message: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.ChatMessage{}, ErrComplaintNotFound
	}

	return msg, nil
}

// GetChatHistory returns the ordered chat log and the current close request.
// A complaint with no messages yet yields an empty slice, not an error.
func (r *complaintRepository) GetChatHistory(ctx context.Context, complaintNumber string) (entity.ChatHistory, error) {
	collection := r.db.Collection("complaints")
	filter := bson.M{"complaintNumber": complaintNumber}

	opts := options.FindOne().SetProjection(bson.M{
		"chatMessages": 1,
		"closeRequest": 1,
	})

	var complaint entity.Complaint
	err := collection.FindOne(ctx, filter, opts).Decode(&complaint)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.ChatHistory{}, ErrComplaintNotFound
		}
		return entity.ChatHistory{}, fmt.Errorf("mongodb find chat history: %w", err)
	}

	messages := complaint.ChatMessages
	if messages == nil {
		messages = []entity.ChatMessage{}
	}

	return entity.ChatHistory{
		Messages:     messages,
		CloseRequest: complaint.CloseRequest,
	}, nil
}

// OpenCloseRequest starts a closure negotiation. It fails when the complaint
// is already closed or a request is still pending; a previously resolved
// request is archived, never overwritten silently. The close_request chat
// message is appended in the same document update as the request itself.
func (r *complaintRepository) OpenCloseRequest(ctx context.Context, complaintNumber, requestedBy, reason string) (entity.CloseRequest, error) {
	collection := r.db.Collection("complaints")

	complaint, err := r.Get(ctx, complaintNumber)
	if err != nil {
		return entity.CloseRequest{}, err
	}
	if complaint.Department != requestedBy {
		// Only the owning department may negotiate closure.
		return entity.CloseRequest{}, ErrComplaintNotFound
	}
	if complaint.Closed() {
		return entity.CloseRequest{}, ErrComplaintClosed
	}
	if complaint.CloseRequest.Pending() {
		return entity.CloseRequest{}, ErrCloseRequestPending
	}

	if reason == "" {
		reason = "Complaint resolved, requesting closure"
	}

	now := time.Now()
	request := entity.CloseRequest{
		Requested:    true,
		RequestedBy:  requestedBy,
		RequestedAt:  now,
		Reason:       reason,
		UserResponse: entity.ResponsePending,
	}

	msg := entity.ChatMessage{
		Id:          uuid.New().String(),
		Message:     fmt.Sprintf("Department has requested to close this complaint. Reason: %s", reason),
		SenderType:  entity.SenderDepartment,
		SenderId:    requestedBy,
		SenderName:  fmt.Sprintf("%s Department", requestedBy),
		Timestamp:   now,
		MessageType: entity.TypeCloseRequest,
	}

	set := bson.M{
		"closeRequest": request,
		"updatedAt":    now,
	}
	push := bson.M{
		"chatMessages": msg,
	}
	// Archive the resolved negotiation before installing the new one.
	if complaint.CloseRequest != nil && complaint.CloseRequest.Requested {
		push["closeRequestHistory"] = *complaint.CloseRequest
	}

	// The filter re-checks the guards so a concurrent request loses the
	// race instead of overwriting a pending negotiation.
	filter := bson.M{
		"complaintNumber":           complaintNumber,
		"department":                requestedBy,
		"status":                    bson.M{"$ne": entity.StatusClosed},
		"closeRequest.userResponse": bson.M{"$ne": entity.ResponsePending},
	}
	update := bson.M{
		"$set":  set,
		"$push": push,
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return entity.CloseRequest{}, fmt.Errorf("mongodb open close request: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.CloseRequest{}, ErrCloseRequestPending
	}

	return request, nil
}

// ResolveCloseRequest records the user's answer to a pending close request.
// Accepting transitions the complaint to its terminal closed status and sets
// the resolution date; rejecting leaves the status untouched. Either way the
// close_response chat message lands in the same document update.
func (r *complaintRepository) ResolveCloseRequest(ctx context.Context, complaintNumber string, accepted bool, responseMessage, respondingUserId string) (entity.CloseRequest, error) {
	collection := r.db.Collection("complaints")

	complaint, err := r.Get(ctx, complaintNumber)
	if err != nil {
		return entity.CloseRequest{}, err
	}
	if complaint.CloseRequest == nil || !complaint.CloseRequest.Requested {
		return entity.CloseRequest{}, ErrNoCloseRequest
	}
	if !complaint.CloseRequest.Pending() {
		return entity.CloseRequest{}, ErrCloseRequestResolved
	}

	now := time.Now()
	request := *complaint.CloseRequest
	request.UserResponseAt = &now
	request.UserResponseMessage = responseMessage
	if accepted {
		request.UserResponse = entity.ResponseAccepted
	} else {
		request.UserResponse = entity.ResponseRejected
	}

	body := fmt.Sprintf("User has rejected the closure request. %s", responseMessage)
	if accepted {
		body = fmt.Sprintf("User has accepted the closure request. %s", responseMessage)
	}

	msg := entity.ChatMessage{
		Id:          uuid.New().String(),
		Message:     body,
		SenderType:  entity.SenderUser,
		SenderId:    respondingUserId,
		SenderName:  "User",
		Timestamp:   now,
		MessageType: entity.TypeCloseResponse,
		Accepted:    &accepted,
	}

	set := bson.M{
		"closeRequest.userResponse":        request.UserResponse,
		"closeRequest.userResponseAt":      now,
		"closeRequest.userResponseMessage": responseMessage,
		"updatedAt":                        now,
	}
	if accepted {
		set["status"] = entity.StatusClosed
		set["actualResolutionDate"] = now
	}

	// Guard on the pending state: a second response, or a response racing
	// a fresh request, matches nothing and is rejected.
	filter := bson.M{
		"complaintNumber":           complaintNumber,
		"closeRequest.userResponse": entity.ResponsePending,
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"chatMessages": msg},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return entity.CloseRequest{}, fmt.Errorf("mongodb resolve close request: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.CloseRequest{}, ErrCloseRequestResolved
	}

	return request, nil
}
