package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisHub is the multi-server variant of Hub: local fan-out stays in-memory,
// and every room broadcast is additionally published to Redis so the room's
// members connected to other server instances receive it too. The default
// deployment runs a single process with the plain Hub; this exists for the
// same env-selected swap the rest of the stack supports.
type RedisHub struct {
	clients  map[*Client]bool
	registry *RoomRegistry
	mu       sync.RWMutex

	redisClient *redis.Client
	pubsub      *redis.PubSub
	serverID    string
	log         zerolog.Logger

	Register   chan *Client
	Unregister chan *Client

	OnClientUnregister func(client *Client) error
}

type redisRoomMessage struct {
	FromServerID    string `json:"fromServerId"`
	ComplaintNumber string `json:"complaintNumber"`
	Payload         []byte `json:"payload"`
}

func NewRedisHub(redisAddr, serverID string, registry *RoomRegistry, log zerolog.Logger) IHub {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	hub := &RedisHub{
		clients:     make(map[*Client]bool),
		registry:    registry,
		redisClient: rdb,
		serverID:    serverID,
		log:         log,
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
	}

	hub.pubsub = rdb.PSubscribe(context.Background(), "room:*")

	return hub
}

func (h *RedisHub) Run() {
	go h.subscribeRedis()

	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug().Str("serverId", h.serverID).Str("connId", client.ConnId).Msg("client connected")

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.log.Debug().Str("serverId", h.serverID).Str("connId", client.ConnId).Msg("client disconnected")
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

func (h *RedisHub) subscribeRedis() {
	ch := h.pubsub.Channel()

	h.log.Info().Str("serverId", h.serverID).Msg("redis room subscriber started")

	for msg := range ch {
		var roomMsg redisRoomMessage
		if err := json.Unmarshal([]byte(msg.Payload), &roomMsg); err != nil {
			h.log.Error().Err(err).Msg("unmarshal redis room message")
			continue
		}

		// Our own publishes already reached local members.
		if roomMsg.FromServerID == h.serverID {
			continue
		}

		h.broadcastLocal(roomMsg.ComplaintNumber, nil, roomMsg.Payload)
	}
}

func (h *RedisHub) publishToRedis(complaintNumber string, message []byte) {
	ctx := context.Background()

	roomMsg := redisRoomMessage{
		FromServerID:    h.serverID,
		ComplaintNumber: complaintNumber,
		Payload:         message,
	}

	msgBytes, err := json.Marshal(roomMsg)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal redis room message")
		return
	}

	if err := h.redisClient.Publish(ctx, "room:"+complaintNumber, msgBytes).Err(); err != nil {
		h.log.Error().Err(err).Str("complaintNumber", complaintNumber).Msg("publish to redis")
	}
}

func (h *RedisHub) broadcastLocal(complaintNumber string, except *Client, message []byte) {
	var members []*Client
	if except != nil {
		members = h.registry.MembersExcept(complaintNumber, except)
	} else {
		members = h.registry.Members(complaintNumber)
	}
	for _, client := range members {
		if !client.Send(message) {
			h.log.Warn().Str("connId", client.ConnId).Msg("dropping message for slow client")
		}
	}
}

func (h *RedisHub) JoinRoom(complaintNumber string, client *Client) {
	h.registry.Join(complaintNumber, client)
}

func (h *RedisHub) BroadcastToRoom(complaintNumber string, message []byte) {
	h.broadcastLocal(complaintNumber, nil, message)
	h.publishToRedis(complaintNumber, message)
}

func (h *RedisHub) BroadcastToRoomExcept(complaintNumber string, except *Client, message []byte) {
	h.broadcastLocal(complaintNumber, except, message)
	h.publishToRedis(complaintNumber, message)
}

func (h *RedisHub) SendToClient(client *Client, message []byte) {
	if !client.Send(message) {
		h.log.Warn().Str("connId", client.ConnId).Msg("failed to send to client")
	}
}

func (h *RedisHub) RoomCount(complaintNumber string) int {
	return h.registry.Count(complaintNumber)
}

func (h *RedisHub) RegisterClient(client *Client) {
	h.Register <- client
}

func (h *RedisHub) UnregisterClient(client *Client) {
	h.Unregister <- client
}

func (h *RedisHub) SetOnClientUnregister(callback func(client *Client) error) {
	h.OnClientUnregister = callback
}
