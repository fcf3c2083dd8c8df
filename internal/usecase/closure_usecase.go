package usecase

import (
	"context"
	"errors"
	"strings"

	"grievchat/internal/entity"
	"grievchat/internal/repository"
)

var (
	ErrMissingDepartment = errors.New("department name is required")
	ErrMissingUser       = errors.New("responding user id is required")
)

// NegotiationState is the closure negotiation's position in its lifecycle:
//
//	NoRequest -> Pending -> Accepted | Rejected
//
// Accepted and Rejected are terminal for that cycle; a fresh negotiation may
// start afterwards, archiving the resolved record.
type NegotiationState string

const (
	StateNoRequest NegotiationState = "no_request"
	StatePending   NegotiationState = "pending"
	StateAccepted  NegotiationState = "accepted"
	StateRejected  NegotiationState = "rejected"
)

// StateOf maps a stored close request to its negotiation state.
func StateOf(req *entity.CloseRequest) NegotiationState {
	if req == nil || !req.Requested {
		return StateNoRequest
	}
	switch req.UserResponse {
	case entity.ResponseAccepted:
		return StateAccepted
	case entity.ResponseRejected:
		return StateRejected
	default:
		return StatePending
	}
}

// ClosureUsecase drives the two-phase close consensus: a department opens a
// request, the user accepts or rejects it. Only an accepted response may move
// the complaint to its terminal closed status. Requesting while a request is
// pending is a conflict, never a silent overwrite.
type ClosureUsecase interface {
	RequestClose(ctx context.Context, complaintNumber, departmentName, reason string) (entity.CloseRequest, error)
	Respond(ctx context.Context, complaintNumber string, accepted bool, responseMessage, respondingUserId string) (entity.CloseRequest, error)
	State(ctx context.Context, complaintNumber string) (NegotiationState, error)
}

type closureUsecase struct {
	complaintRepo repository.ComplaintRepository
}

func NewClosureUsecase(complaintRepo repository.ComplaintRepository) ClosureUsecase {
	return &closureUsecase{
		complaintRepo: complaintRepo,
	}
}

// RequestClose opens a negotiation. The store rejects it when the complaint
// is closed or another request is still pending.
func (c *closureUsecase) RequestClose(ctx context.Context, complaintNumber, departmentName, reason string) (entity.CloseRequest, error) {
	departmentName = strings.TrimSpace(departmentName)
	if departmentName == "" {
		return entity.CloseRequest{}, ErrMissingDepartment
	}

	return c.complaintRepo.OpenCloseRequest(ctx, complaintNumber, departmentName, strings.TrimSpace(reason))
}

// Respond resolves the pending negotiation. Exactly one response is accepted
// per cycle; the store rejects late or duplicate responses.
func (c *closureUsecase) Respond(ctx context.Context, complaintNumber string, accepted bool, responseMessage, respondingUserId string) (entity.CloseRequest, error) {
	if respondingUserId == "" {
		return entity.CloseRequest{}, ErrMissingUser
	}

	return c.complaintRepo.ResolveCloseRequest(ctx, complaintNumber, accepted, strings.TrimSpace(responseMessage), respondingUserId)
}

// State reports the current negotiation state for a complaint.
func (c *closureUsecase) State(ctx context.Context, complaintNumber string) (NegotiationState, error) {
	complaint, err := c.complaintRepo.Get(ctx, complaintNumber)
	if err != nil {
		return StateNoRequest, err
	}
	return StateOf(complaint.CloseRequest), nil
}
