package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"grievchat/internal/entity"
	"grievchat/internal/repository"
	"grievchat/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// RoomNotifier lets the REST mirror emit the same room events the realtime
// gateway does, so clients connected live see REST-originated writes too.
type RoomNotifier interface {
	NotifyNewMessage(complaintNumber string, msg entity.ChatMessage)
	NotifyCloseRequest(complaintNumber string, request entity.CloseRequest)
	NotifyCloseResponse(complaintNumber string, accepted bool, request entity.CloseRequest)
}

// HttpHandler mirrors the gateway's chat and closure operations for
// non-realtime clients. Both paths share the same usecases, so validation
// and persistence never diverge.
type HttpHandler struct {
	chatUc        usecase.ChatUsecase
	closureUc     usecase.ClosureUsecase
	complaintRepo repository.ComplaintRepository
	notifier      RoomNotifier
	log           zerolog.Logger
}

func NewHttpHandler(chatUc usecase.ChatUsecase, closureUc usecase.ClosureUsecase, complaintRepo repository.ComplaintRepository, notifier RoomNotifier, log zerolog.Logger) *HttpHandler {
	return &HttpHandler{
		chatUc:        chatUc,
		closureUc:     closureUc,
		complaintRepo: complaintRepo,
		notifier:      notifier,
		log:           log,
	}
}

type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// GET /api/complaints/track/{complaintNumber}
func (h *HttpHandler) TrackComplaint(w http.ResponseWriter, r *http.Request) {
	complaintNumber := chi.URLParam(r, "complaintNumber")

	complaint, err := h.complaintRepo.Get(r.Context(), complaintNumber)
	if err != nil {
		if errors.Is(err, repository.ErrComplaintNotFound) {
			writeJSON(w, http.StatusNotFound, Response{Message: "Not found"})
			return
		}
		h.log.Error().Err(err).Str("complaintNumber", complaintNumber).Msg("track complaint")
		writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, complaint)
}

// GET /api/complaints/{complaintNumber}/chat
// GET /api/departments/complaints/{complaintNumber}/chat
func (h *HttpHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	complaintNumber := chi.URLParam(r, "complaintNumber")

	history, err := h.chatUc.History(r.Context(), complaintNumber)
	if err != nil {
		if errors.Is(err, repository.ErrComplaintNotFound) {
			writeJSON(w, http.StatusNotFound, Response{Message: "Complaint not found"})
			return
		}
		h.log.Error().Err(err).Str("complaintNumber", complaintNumber).Msg("get chat messages")
		writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// POST /api/complaints/{complaintNumber}/chat
// POST /api/departments/complaints/{complaintNumber}/chat
func (h *HttpHandler) SaveChatMessage(w http.ResponseWriter, r *http.Request) {
	complaintNumber := chi.URLParam(r, "complaintNumber")

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	msg, err := h.chatUc.SendMessage(r.Context(), complaintNumber, claims.UserType, claims.SenderId(), displayName(claims), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyMessage):
			writeJSON(w, http.StatusBadRequest, Response{Message: "Message is required"})
		case errors.Is(err, repository.ErrComplaintNotFound):
			writeJSON(w, http.StatusNotFound, Response{Message: "Complaint not found"})
		default:
			h.log.Error().Err(err).Str("complaintNumber", complaintNumber).Msg("save chat message")
			writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		}
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyNewMessage(complaintNumber, msg)
	}

	writeJSON(w, http.StatusOK, Response{Message: "Message saved successfully", Data: msg})
}

// POST /api/departments/complaints/{complaintNumber}/request-close
func (h *HttpHandler) RequestCloseComplaint(w http.ResponseWriter, r *http.Request) {
	complaintNumber := chi.URLParam(r, "complaintNumber")

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	request, err := h.closureUc.RequestClose(r.Context(), complaintNumber, claims.DepartmentName, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrComplaintNotFound):
			writeJSON(w, http.StatusNotFound, Response{Message: "Complaint not found"})
		case errors.Is(err, repository.ErrCloseRequestPending), errors.Is(err, repository.ErrComplaintClosed):
			writeJSON(w, http.StatusConflict, Response{Message: err.Error()})
		case errors.Is(err, usecase.ErrMissingDepartment):
			writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
		default:
			h.log.Error().Err(err).Str("complaintNumber", complaintNumber).Msg("request close")
			writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		}
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyCloseRequest(complaintNumber, request)
	}

	writeJSON(w, http.StatusOK, Response{Message: "Close request sent to user", Data: request})
}

// POST /api/complaints/{complaintNumber}/close-response
func (h *HttpHandler) HandleCloseResponse(w http.ResponseWriter, r *http.Request) {
	complaintNumber := chi.URLParam(r, "complaintNumber")

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	var req struct {
		Accepted        bool   `json:"accepted"`
		ResponseMessage string `json:"responseMessage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	request, err := h.closureUc.Respond(r.Context(), complaintNumber, req.Accepted, req.ResponseMessage, claims.UserId)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrComplaintNotFound), errors.Is(err, repository.ErrNoCloseRequest):
			writeJSON(w, http.StatusNotFound, Response{Message: err.Error()})
		case errors.Is(err, repository.ErrCloseRequestResolved):
			writeJSON(w, http.StatusConflict, Response{Message: err.Error()})
		default:
			h.log.Error().Err(err).Str("complaintNumber", complaintNumber).Msg("close response")
			writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		}
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyCloseResponse(complaintNumber, req.Accepted, request)
	}

	writeJSON(w, http.StatusOK, Response{Message: "Response recorded", Data: request})
}

func displayName(claims entity.TokenClaims) string {
	if claims.UserType == entity.SenderDepartment {
		return claims.DepartmentName + " Department"
	}
	return claims.Name
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
