package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grievchat/internal/entity"
	"grievchat/internal/repository"

	"github.com/google/uuid"
)

// fakeComplaintRepo is an in-memory stand-in for the Mongo-backed store,
// implementing the same guard semantics so usecase behavior can be tested
// without a database.
type fakeComplaintRepo struct {
	mu         sync.Mutex
	complaints map[string]*entity.Complaint

	failAppend  error
	failGet     error
	failHistory error
}

func newFakeComplaintRepo(numbers ...string) *fakeComplaintRepo {
	repo := &fakeComplaintRepo{
		complaints: make(map[string]*entity.Complaint),
	}
	for _, number := range numbers {
		repo.complaints[number] = &entity.Complaint{
			Id:              uuid.New().String(),
			ComplaintNumber: number,
			Department:      "Water",
			Status:          entity.StatusInProgress,
		}
	}
	return repo
}

func (r *fakeComplaintRepo) Get(ctx context.Context, complaintNumber string) (entity.Complaint, error) {
	if r.failGet != nil {
		return entity.Complaint{}, r.failGet
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	complaint, ok := r.complaints[complaintNumber]
	if !ok {
		return entity.Complaint{}, repository.ErrComplaintNotFound
	}
	return *complaint, nil
}

func (r *fakeComplaintRepo) AppendChatMessage(ctx context.Context, complaintNumber string, msg entity.ChatMessage) (entity.ChatMessage, error) {
	if r.failAppend != nil {
		return entity.ChatMessage{}, r.failAppend
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	complaint, ok := r.complaints[complaintNumber]
	if !ok {
		return entity.ChatMessage{}, repository.ErrComplaintNotFound
	}
	if msg.SenderType == entity.SenderDepartment && complaint.Department != msg.SenderId {
		return entity.ChatMessage{}, repository.ErrComplaintNotFound
	}

	msg.Id = uuid.New().String()
	msg.Timestamp = time.Now()
	complaint.ChatMessages = append(complaint.ChatMessages, msg)
	return msg, nil
}

func (r *fakeComplaintRepo) GetChatHistory(ctx context.Context, complaintNumber string) (entity.ChatHistory, error) {
	if r.failHistory != nil {
		return entity.ChatHistory{}, r.failHistory
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	complaint, ok := r.complaints[complaintNumber]
	if !ok {
		return entity.ChatHistory{}, repository.ErrComplaintNotFound
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

func (r *fakeComplaintRepo) OpenCloseRequest(ctx context.Context, complaintNumber, requestedBy, reason string) (entity.CloseRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	complaint, ok := r.complaints[complaintNumber]
	if !ok {
		return entity.CloseRequest{}, repository.ErrComplaintNotFound
	}
	if complaint.Department != requestedBy {
		return entity.CloseRequest{}, repository.ErrComplaintNotFound
	}
	if complaint.Closed() {
		return entity.CloseRequest{}, repository.ErrComplaintClosed
	}
	if complaint.CloseRequest.Pending() {
		return entity.CloseRequest{}, repository.ErrCloseRequestPending
	}

	if reason == "" {
		reason = "Complaint resolved, requesting closure"
	}

	if complaint.CloseRequest != nil && complaint.CloseRequest.Requested {
		complaint.CloseRequestHistory = append(complaint.CloseRequestHistory, *complaint.CloseRequest)
	}

	now := time.Now()
	request := entity.CloseRequest{
		Requested:    true,
		RequestedBy:  requestedBy,
		RequestedAt:  now,
		Reason:       reason,
		UserResponse: entity.ResponsePending,
	}
	complaint.CloseRequest = &request

	complaint.ChatMessages = append(complaint.ChatMessages, entity.ChatMessage{
		Id:          uuid.New().String(),
		Message:     fmt.Sprintf("Department has requested to close this complaint. Reason: %s", reason),
		SenderType:  entity.SenderDepartment,
		SenderId:    requestedBy,
		SenderName:  fmt.Sprintf("%s Department", requestedBy),
		Timestamp:   now,
		MessageType: entity.TypeCloseRequest,
	})

	return request, nil
}

func (r *fakeComplaintRepo) ResolveCloseRequest(ctx context.Context, complaintNumber string, accepted bool, responseMessage, respondingUserId string) (entity.CloseRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	complaint, ok := r.complaints[complaintNumber]
	if !ok {
		return entity.CloseRequest{}, repository.ErrComplaintNotFound
	}
	if complaint.CloseRequest == nil || !complaint.CloseRequest.Requested {
		return entity.CloseRequest{}, repository.ErrNoCloseRequest
	}
	if !complaint.CloseRequest.Pending() {
		return entity.CloseRequest{}, repository.ErrCloseRequestResolved
	}

	now := time.Now()
	complaint.CloseRequest.UserResponseAt = &now
	complaint.CloseRequest.UserResponseMessage = responseMessage
	if accepted {
		complaint.CloseRequest.UserResponse = entity.ResponseAccepted
		complaint.Status = entity.StatusClosed
		complaint.ActualResolutionDate = &now
	} else {
		complaint.CloseRequest.UserResponse = entity.ResponseRejected
	}

	body := fmt.Sprintf("User has rejected the closure request. %s", responseMessage)
	if accepted {
		body = fmt.Sprintf("User has accepted the closure request. %s", responseMessage)
	}
	complaint.ChatMessages = append(complaint.ChatMessages, entity.ChatMessage{
		Id:          uuid.New().String(),
		Message:     body,
		SenderType:  entity.SenderUser,
		SenderId:    respondingUserId,
		SenderName:  "User",
		Timestamp:   now,
		MessageType: entity.TypeCloseResponse,
		Accepted:    &accepted,
	})

	return *complaint.CloseRequest, nil
}
