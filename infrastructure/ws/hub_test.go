package ws

import (
	"testing"
	"time"

	"grievchat/internal/entity"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRegisterUnregister(t *testing.T) {
	registry := NewRoomRegistry()
	hub := NewHub(registry, zerolog.Nop())
	go hub.Run()

	client := newTestClient(entity.SenderUser, "user-1")
	client.hub = hub

	left := make(chan *Client, 1)
	hub.SetOnClientUnregister(func(c *Client) error {
		left <- c
		return nil
	})

	hub.RegisterClient(client)
	hub.JoinRoom("CMP-001", client)
	assert.Equal(t, 1, hub.RoomCount("CMP-001"))

	hub.UnregisterClient(client)

	select {
	case c := <-left:
		assert.Equal(t, client, c)
	case <-time.After(time.Second):
		t.Fatal("unregister callback not invoked")
	}

	assert.Equal(t, 0, hub.RoomCount("CMP-001"))

	_, open := <-client.send
	assert.False(t, open, "send channel closed on unregister")
}

func TestHubBroadcastToRoom(t *testing.T) {
	registry := NewRoomRegistry()
	hub := NewHub(registry, zerolog.Nop())

	a := newTestClient(entity.SenderUser, "user-1")
	b := newTestClient(entity.SenderDepartment, "Water")
	hub.JoinRoom("CMP-001", a)
	hub.JoinRoom("CMP-001", b)

	hub.BroadcastToRoom("CMP-001", []byte("hello"))

	for _, client := range []*Client{a, b} {
		select {
		case msg := <-client.send:
			assert.Equal(t, "hello", string(msg))
		default:
			t.Fatalf("client %s did not receive the broadcast", client.UserId)
		}
	}
}

func TestHubBroadcastToRoomExcept(t *testing.T) {
	registry := NewRoomRegistry()
	hub := NewHub(registry, zerolog.Nop())

	a := newTestClient(entity.SenderUser, "user-1")
	b := newTestClient(entity.SenderUser, "user-2")
	hub.JoinRoom("CMP-001", a)
	hub.JoinRoom("CMP-001", b)

	hub.BroadcastToRoomExcept("CMP-001", a, []byte("typing"))

	select {
	case <-a.send:
		t.Fatal("originator must not receive its own relay")
	default:
	}

	select {
	case msg := <-b.send:
		assert.Equal(t, "typing", string(msg))
	default:
		t.Fatal("other member did not receive the relay")
	}
}

func TestHubBroadcastAfterRoomSwitchAndDisconnect(t *testing.T) {
	registry := NewRoomRegistry()
	hub := NewHub(registry, zerolog.Nop())
	go hub.Run()

	mover := newTestClient(entity.SenderUser, "user-1")
	mover.hub = hub
	stayer := newTestClient(entity.SenderUser, "user-2")

	left := make(chan *Client, 1)
	hub.SetOnClientUnregister(func(c *Client) error {
		left <- c
		return nil
	})

	hub.RegisterClient(mover)
	hub.JoinRoom("CMP-001", mover)
	hub.JoinRoom("CMP-001", stayer)
	hub.JoinRoom("CMP-002", mover)

	hub.UnregisterClient(mover)
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("unregister callback not invoked")
	}

	// the first room holds no reference to the disconnected mover, so
	// broadcasting there must reach the stayer and nothing else
	hub.BroadcastToRoom("CMP-001", []byte("still here"))

	select {
	case msg := <-stayer.send:
		assert.Equal(t, "still here", string(msg))
	default:
		t.Fatal("remaining member did not receive the broadcast")
	}
}

func TestSendAfterDisconnectIsDropped(t *testing.T) {
	client := newTestClient(entity.SenderUser, "user-1")

	client.closeSend()
	assert.False(t, client.Send([]byte("late")), "a closed connection drops instead of panicking")

	// closing twice is a no-op
	client.closeSend()
}

func TestHubSlowClientIsSkipped(t *testing.T) {
	registry := NewRoomRegistry()
	hub := NewHub(registry, zerolog.Nop())

	slow := newTestClient(entity.SenderUser, "user-1")
	slow.send = make(chan []byte, 1)
	hub.JoinRoom("CMP-001", slow)

	hub.BroadcastToRoom("CMP-001", []byte("one"))
	hub.BroadcastToRoom("CMP-001", []byte("two"))

	require.Len(t, slow.send, 1, "full buffer drops instead of blocking")
	assert.Equal(t, "one", string(<-slow.send))
}
