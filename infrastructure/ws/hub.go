package ws

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub owns the set of live connections and fans events out to complaint
// rooms through the injected RoomRegistry. All room state is in-memory;
// a single process owns every room.
type Hub struct {
	clients            map[*Client]bool
	registry           *RoomRegistry
	Register           chan *Client
	Unregister         chan *Client
	mu                 sync.RWMutex
	log                zerolog.Logger
	OnClientUnregister func(client *Client) error
}

func NewHub(registry *RoomRegistry, log zerolog.Logger) IHub {
	return &Hub{
		clients:    make(map[*Client]bool),
		registry:   registry,
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug().Str("connId", client.ConnId).Str("userId", client.UserId).Msg("client connected")

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.log.Debug().Str("connId", client.ConnId).Str("userId", client.UserId).Msg("client disconnected")
			}
			h.mu.Unlock()

			h.registry.Leave(client)

			if h.OnClientUnregister != nil {
				if err := h.OnClientUnregister(client); err != nil {
					h.log.Error().Err(err).Msg("OnClientUnregister error")
				}
			}
		}
	}
}

func (h *Hub) JoinRoom(complaintNumber string, client *Client) {
	h.registry.Join(complaintNumber, client)
}

func (h *Hub) BroadcastToRoom(complaintNumber string, message []byte) {
	for _, client := range h.registry.Members(complaintNumber) {
		if !client.Send(message) {
			h.log.Warn().Str("connId", client.ConnId).Msg("dropping message for slow client")
		}
	}
}

func (h *Hub) BroadcastToRoomExcept(complaintNumber string, except *Client, message []byte) {
	for _, client := range h.registry.MembersExcept(complaintNumber, except) {
		if !client.Send(message) {
			h.log.Warn().Str("connId", client.ConnId).Msg("dropping message for slow client")
		}
	}
}

func (h *Hub) SendToClient(client *Client, message []byte) {
	if !client.Send(message) {
		h.log.Warn().Str("connId", client.ConnId).Msg("failed to send to client")
	}
}

func (h *Hub) RoomCount(complaintNumber string) int {
	return h.registry.Count(complaintNumber)
}

func (h *Hub) RegisterClient(client *Client) {
	h.Register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.Unregister <- client
}

func (h *Hub) SetOnClientUnregister(callback func(client *Client) error) {
	h.OnClientUnregister = callback
}
