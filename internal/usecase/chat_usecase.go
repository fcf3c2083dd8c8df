package usecase

import (
	"context"
	"errors"
	"strings"

	"grievchat/internal/entity"
	"grievchat/internal/repository"
)

var (
	ErrEmptyMessage  = errors.New("message is required")
	ErrInvalidSender = errors.New("invalid sender type")
)

// ChatUsecase is the single write/read path for chat messages. Both the
// realtime gateway and the REST endpoints go through it, so validation and
// persistence never diverge between the two.
type ChatUsecase interface {
	SendMessage(ctx context.Context, complaintNumber string, senderType entity.SenderType, senderId, senderName, body string) (entity.ChatMessage, error)
	History(ctx context.Context, complaintNumber string) (entity.ChatHistory, error)
}

type chatUsecase struct {
	complaintRepo repository.ComplaintRepository
}

func NewChatUsecase(complaintRepo repository.ComplaintRepository) ChatUsecase {
	return &chatUsecase{
		complaintRepo: complaintRepo,
	}
}

// SendMessage validates and persists a chat message. The returned message
// carries the server-assigned id and timestamp used for fan-out.
func (c *chatUsecase) SendMessage(ctx context.Context, complaintNumber string, senderType entity.SenderType, senderId, senderName, body string) (entity.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return entity.ChatMessage{}, ErrEmptyMessage
	}

	if senderType != entity.SenderUser && senderType != entity.SenderDepartment {
		return entity.ChatMessage{}, ErrInvalidSender
	}

	msg := entity.ChatMessage{
		Message:     body,
		SenderType:  senderType,
		SenderId:    senderId,
		SenderName:  senderName,
		MessageType: entity.TypeMessage,
	}

	return c.complaintRepo.AppendChatMessage(ctx, complaintNumber, msg)
}

// History returns the ordered conversation so far plus the current close
// request, for replay on join.
func (c *chatUsecase) History(ctx context.Context, complaintNumber string) (entity.ChatHistory, error) {
	return c.complaintRepo.GetChatHistory(ctx, complaintNumber)
}
