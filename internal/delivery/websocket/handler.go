package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"grievchat/infrastructure/cache"
	"grievchat/infrastructure/ws"
	"grievchat/internal/entity"
	"grievchat/internal/repository"
	"grievchat/internal/usecase"
	"grievchat/pkg/jwt"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler is the realtime gateway: the only component network
// clients talk to. It authenticates connections, relays chat, typing and
// closure events to complaint rooms, and bridges durable events to the
// store before fan-out.
type WebsocketHandler struct {
	hub        ws.IHub
	chatUc     usecase.ChatUsecase
	closureUc  usecase.ClosureUsecase
	buffer     *cache.MessageBuffer
	jwtManager *jwt.JWTManager
	log        zerolog.Logger

	// requireDurable flips the availability-over-durability default: when
	// set, a chat message that failed to persist is not fanned out.
	requireDurable bool
}

func NewWebsocketHandler(hub ws.IHub, chatUc usecase.ChatUsecase, closureUc usecase.ClosureUsecase, buffer *cache.MessageBuffer, jwtManager *jwt.JWTManager, requireDurable bool, log zerolog.Logger) *WebsocketHandler {
	return &WebsocketHandler{
		hub:            hub,
		chatUc:         chatUc,
		closureUc:      closureUc,
		buffer:         buffer,
		jwtManager:     jwtManager,
		requireDurable: requireDurable,
		log:            log,
	}
}

// HandleWebSocket upgrades the connection and runs its event loop until
// disconnect. Identity comes from the session token, not the payloads.
func (h *WebsocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtManager.ValidateToken(token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(claims.UserType, claims.SenderId(), claims.Name, h.hub, conn)
	h.hub.RegisterClient(client)

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		h.HandleEvent(r.Context(), client, data)
	})
}

// HandleClientDisconnect is wired as the hub's unregister callback; it tells
// the room the participant left. By the time it runs the client is already
// out of the registry.
func (h *WebsocketHandler) HandleClientDisconnect(client *ws.Client) error {
	complaintNumber := client.Room()
	if complaintNumber == "" {
		return nil
	}

	h.broadcast(complaintNumber, OutEvent{
		Event: "user-left",
		Data: PresencePayload{
			UserType: client.UserType,
			UserId:   client.UserId,
			Message:  fmt.Sprintf("%s has left the chat", participantLabel(client.UserType)),
		},
	})

	if h.hub.RoomCount(complaintNumber) == 0 {
		h.buffer.Drop(complaintNumber)
	}
	return nil
}

// HandleEvent dispatches one inbound frame. Errors are reported only to the
// originating connection; the rest of the room never sees failed attempts.
func (h *WebsocketHandler) HandleEvent(ctx context.Context, client *ws.Client, data []byte) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		h.log.Warn().Err(err).Str("connId", client.ConnId).Msg("malformed frame")
		h.sendError(client, "malformed event")
		return
	}

	switch envelope.Event {
	case "join-complaint-room":
		h.handleJoinRoom(ctx, client, envelope.Data)
	case "send-message":
		h.handleSendMessage(ctx, client, envelope.Data)
	case "request-close-complaint":
		h.handleRequestClose(ctx, client, envelope.Data)
	case "respond-close-request":
		h.handleRespondClose(ctx, client, envelope.Data)
	case "typing":
		h.handleTyping(client, envelope.Data)
	default:
		h.sendError(client, fmt.Sprintf("unknown event: %s", envelope.Event))
	}
}

// handleJoinRoom replays the persisted history to the joining connection and
// only then adds it to the room, so no live message can be queued ahead of
// the existing-messages batch.
func (h *WebsocketHandler) handleJoinRoom(ctx context.Context, client *ws.Client, data json.RawMessage) {
	var req JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ComplaintNumber == "" {
		h.sendError(client, "complaintNumber is required")
		return
	}

	history, err := h.chatUc.History(ctx, req.ComplaintNumber)
	if err != nil {
		// Degrade to the room buffer, then to a fresh-looking chat; the
		// join itself must not be blocked by a store outage.
		h.log.Error().Err(err).Str("complaintNumber", req.ComplaintNumber).Msg("history fetch failed")
		history = entity.ChatHistory{Messages: h.buffer.Recent(req.ComplaintNumber)}
	}
	if history.Messages == nil {
		history.Messages = []entity.ChatMessage{}
	}

	h.send(client, OutEvent{Event: "existing-messages", Data: history.Messages})

	prev := client.Room()
	h.hub.JoinRoom(req.ComplaintNumber, client)

	// Switching complaints leaves the old room; tell its members.
	if prev != "" && prev != req.ComplaintNumber {
		h.broadcast(prev, OutEvent{
			Event: "user-left",
			Data: PresencePayload{
				UserType: client.UserType,
				UserId:   client.UserId,
				Message:  fmt.Sprintf("%s has left the chat", participantLabel(client.UserType)),
			},
		})
		if h.hub.RoomCount(prev) == 0 {
			h.buffer.Drop(prev)
		}
	}

	h.broadcastExcept(req.ComplaintNumber, client, OutEvent{
		Event: "user-joined",
		Data: PresencePayload{
			UserType: client.UserType,
			UserId:   client.UserId,
			Message:  fmt.Sprintf("%s has joined the chat", participantLabel(client.UserType)),
		},
	})
}

func (h *WebsocketHandler) handleSendMessage(ctx context.Context, client *ws.Client, data json.RawMessage) {
	var req SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ComplaintNumber == "" {
		h.sendError(client, "complaintNumber is required")
		return
	}

	msg, err := h.chatUc.SendMessage(ctx, req.ComplaintNumber, client.UserType, client.UserId, senderName(client), req.Message)
	switch {
	case err == nil:

	case errors.Is(err, usecase.ErrEmptyMessage),
		errors.Is(err, usecase.ErrInvalidSender),
		errors.Is(err, repository.ErrComplaintNotFound):
		h.sendError(client, err.Error())
		return

	default:
		// Transient store failure. Live delivery wins over durability for
		// plain chat unless the durable toggle says otherwise.
		h.log.Error().Err(err).Str("complaintNumber", req.ComplaintNumber).Msg("chat message not persisted")
		if h.requireDurable {
			h.sendError(client, "message could not be saved")
			return
		}
		msg = entity.ChatMessage{
			Id:          uuid.New().String(),
			Message:     req.Message,
			SenderType:  client.UserType,
			SenderId:    client.UserId,
			SenderName:  senderName(client),
			Timestamp:   time.Now(),
			MessageType: entity.TypeMessage,
		}
	}

	// The sender is included in the fan-out so multiple tabs of one
	// participant converge on the same ordering.
	h.NotifyNewMessage(req.ComplaintNumber, msg)
}

func (h *WebsocketHandler) handleRequestClose(ctx context.Context, client *ws.Client, data json.RawMessage) {
	if client.UserType != entity.SenderDepartment {
		h.sendError(client, "only departments can request closure")
		return
	}

	var req RequestCloseRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ComplaintNumber == "" {
		h.sendError(client, "complaintNumber is required")
		return
	}

	request, err := h.closureUc.RequestClose(ctx, req.ComplaintNumber, client.UserId, req.Reason)
	if err != nil {
		// Closure gates an irreversible transition: nothing is broadcast
		// unless the store accepted the request.
		h.sendError(client, closureErrorMessage(err))
		return
	}

	h.NotifyCloseRequest(req.ComplaintNumber, request)
}

// NotifyCloseRequest fans an accepted close request out to the room. Also
// called by the REST mirror so both write paths emit the same events.
func (h *WebsocketHandler) NotifyCloseRequest(complaintNumber string, request entity.CloseRequest) {
	// Mirror the store's synthesized chat entry so a degraded replay from
	// the buffer still shows the negotiation.
	h.buffer.Append(complaintNumber, entity.ChatMessage{
		Id:          uuid.New().String(),
		Message:     fmt.Sprintf("Department has requested to close this complaint. Reason: %s", request.Reason),
		SenderType:  entity.SenderDepartment,
		SenderId:    request.RequestedBy,
		SenderName:  fmt.Sprintf("%s Department", request.RequestedBy),
		Timestamp:   request.RequestedAt,
		MessageType: entity.TypeCloseRequest,
	})

	h.broadcast(complaintNumber, OutEvent{
		Event: "close-request",
		Data: CloseRequestPayload{
			Id:              uuid.New().String(),
			ComplaintNumber: complaintNumber,
			Type:            string(entity.TypeCloseRequest),
			Reason:          request.Reason,
			DepartmentName:  request.RequestedBy,
			Timestamp:       request.RequestedAt,
			Status:          string(entity.ResponsePending),
		},
	})
}

func (h *WebsocketHandler) handleRespondClose(ctx context.Context, client *ws.Client, data json.RawMessage) {
	if client.UserType != entity.SenderUser {
		h.sendError(client, "only the complainant can respond to a close request")
		return
	}

	var req RespondCloseRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ComplaintNumber == "" {
		h.sendError(client, "complaintNumber is required")
		return
	}

	request, err := h.closureUc.Respond(ctx, req.ComplaintNumber, req.Accepted, req.Response, client.UserId)
	if err != nil {
		h.sendError(client, closureErrorMessage(err))
		return
	}

	h.NotifyCloseResponse(req.ComplaintNumber, req.Accepted, request)
}

// NotifyCloseResponse fans the user's answer out to the room, followed by
// complaint-closed when the answer sealed the complaint. Shared with the
// REST mirror.
func (h *WebsocketHandler) NotifyCloseResponse(complaintNumber string, accepted bool, request entity.CloseRequest) {
	now := time.Now()
	if request.UserResponseAt != nil {
		now = *request.UserResponseAt
	}

	body := fmt.Sprintf("User has rejected the closure request. %s", request.UserResponseMessage)
	if accepted {
		body = fmt.Sprintf("User has accepted the closure request. %s", request.UserResponseMessage)
	}
	h.buffer.Append(complaintNumber, entity.ChatMessage{
		Id:          uuid.New().String(),
		Message:     body,
		SenderType:  entity.SenderUser,
		SenderName:  "User",
		Timestamp:   now,
		MessageType: entity.TypeCloseResponse,
		Accepted:    &accepted,
	})

	h.broadcast(complaintNumber, OutEvent{
		Event: "close-response",
		Data: CloseResponsePayload{
			Id:              uuid.New().String(),
			ComplaintNumber: complaintNumber,
			Type:            string(entity.TypeCloseResponse),
			Accepted:        accepted,
			Response:        request.UserResponseMessage,
			Timestamp:       now,
		},
	})

	if accepted {
		h.broadcast(complaintNumber, OutEvent{
			Event: "complaint-closed",
			Data: ComplaintClosedPayload{
				ComplaintNumber: complaintNumber,
				Message:         "Complaint has been closed with user consent",
				Timestamp:       now,
			},
		})
	}
}

// NotifyNewMessage fans a chat message persisted through the REST mirror
// out to any live room members.
func (h *WebsocketHandler) NotifyNewMessage(complaintNumber string, msg entity.ChatMessage) {
	h.buffer.Append(complaintNumber, msg)
	h.broadcast(complaintNumber, OutEvent{
		Event: "new-message",
		Data: NewMessagePayload{
			Id:              msg.Id,
			ComplaintNumber: complaintNumber,
			Message:         msg.Message,
			UserType:        msg.SenderType,
			SenderId:        msg.SenderId,
			SenderName:      msg.SenderName,
			Timestamp:       msg.Timestamp,
			Type:            msg.MessageType,
		},
	})
}

// handleTyping relays the indicator to the room's other members. Never
// persisted, never echoed back to the sender.
func (h *WebsocketHandler) handleTyping(client *ws.Client, data json.RawMessage) {
	var req TypingRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ComplaintNumber == "" {
		return
	}

	h.broadcastExcept(req.ComplaintNumber, client, OutEvent{
		Event: "user-typing",
		Data: TypingPayload{
			UserType: client.UserType,
			IsTyping: req.IsTyping,
			UserId:   client.UserId,
		},
	})
}

func (h *WebsocketHandler) send(client *ws.Client, event OutEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Event).Msg("marshal event")
		return
	}
	h.hub.SendToClient(client, data)
}

func (h *WebsocketHandler) broadcast(complaintNumber string, event OutEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Event).Msg("marshal event")
		return
	}
	h.hub.BroadcastToRoom(complaintNumber, data)
}

func (h *WebsocketHandler) broadcastExcept(complaintNumber string, except *ws.Client, event OutEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Event).Msg("marshal event")
		return
	}
	h.hub.BroadcastToRoomExcept(complaintNumber, except, data)
}

func (h *WebsocketHandler) sendError(client *ws.Client, message string) {
	h.send(client, OutEvent{
		Event: "error",
		Data:  ErrorPayload{Message: message},
	})
}

func senderName(client *ws.Client) string {
	if client.UserType == entity.SenderDepartment {
		return fmt.Sprintf("%s Department", client.UserId)
	}
	return client.Name
}

func participantLabel(t entity.SenderType) string {
	if t == entity.SenderDepartment {
		return "Department"
	}
	return "User"
}

func closureErrorMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrComplaintNotFound),
		errors.Is(err, repository.ErrNoCloseRequest),
		errors.Is(err, repository.ErrCloseRequestPending),
		errors.Is(err, repository.ErrCloseRequestResolved),
		errors.Is(err, repository.ErrComplaintClosed),
		errors.Is(err, usecase.ErrMissingDepartment),
		errors.Is(err, usecase.ErrMissingUser):
		return err.Error()
	default:
		return "closure operation failed"
	}
}
