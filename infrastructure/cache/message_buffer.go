package cache

import (
	"sync"

	"grievchat/internal/entity"
)

const defaultBufferLimit = 100

// MessageBuffer keeps a bounded in-memory copy of each room's most recent
// chat messages. It is a best-effort cache only: the complaint store stays
// authoritative, and the buffer is consulted just as a replay fallback when
// the store is unreachable on join.
type MessageBuffer struct {
	rooms map[string][]entity.ChatMessage
	limit int
	mu    sync.RWMutex
}

// NewMessageBuffer creates a buffer keeping up to limit messages per room.
// A non-positive limit falls back to the default.
func NewMessageBuffer(limit int) *MessageBuffer {
	if limit <= 0 {
		limit = defaultBufferLimit
	}
	return &MessageBuffer{
		rooms: make(map[string][]entity.ChatMessage),
		limit: limit,
	}
}

// Append records a message for the room, evicting the oldest beyond the limit.
func (b *MessageBuffer) Append(complaintNumber string, msg entity.ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf := append(b.rooms[complaintNumber], msg)
	if len(buf) > b.limit {
		buf = buf[len(buf)-b.limit:]
	}
	b.rooms[complaintNumber] = buf
}

// Recent returns a copy of the room's buffered messages in append order.
func (b *MessageBuffer) Recent(complaintNumber string) []entity.ChatMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	buf := b.rooms[complaintNumber]
	out := make([]entity.ChatMessage, len(buf))
	copy(out, buf)
	return out
}

// Drop discards the room's buffer, called when its room is torn down.
func (b *MessageBuffer) Drop(complaintNumber string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms, complaintNumber)
}
