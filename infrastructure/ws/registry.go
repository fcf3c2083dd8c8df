package ws

import (
	"sync"

	"grievchat/internal/entity"
)

// room is the ephemeral state of one complaint's chat: the set of live user
// connections and the set of live department connections. Nothing here is
// persisted; the message store stays authoritative across restarts.
type room struct {
	users       map[*Client]bool
	departments map[*Client]bool
}

func (r *room) empty() bool {
	return len(r.users) == 0 && len(r.departments) == 0
}

// RoomRegistry tracks which connections belong to which complaint's room.
// It is process-local and rebuilt from nothing on restart; only live
// presence is lost, which reconnection recovers.
type RoomRegistry struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*room),
	}
}

// Join adds the client to the complaint's room, creating the room on first
// join. Joining twice is a no-op for membership. A connection belongs to at
// most one room, so joining a different complaint removes the client from
// its previous room first.
func (reg *RoomRegistry) Join(complaintNumber string, client *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if client.room != "" && client.room != complaintNumber {
		reg.leaveLocked(client)
	}

	rm, ok := reg.rooms[complaintNumber]
	if !ok {
		rm = &room{
			users:       make(map[*Client]bool),
			departments: make(map[*Client]bool),
		}
		reg.rooms[complaintNumber] = rm
	}

	if client.UserType == entity.SenderDepartment {
		rm.departments[client] = true
	} else {
		rm.users[client] = true
	}
	client.room = complaintNumber
}

// Leave removes the client from its room and deletes the room once both
// membership sets are empty.
func (reg *RoomRegistry) Leave(client *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.leaveLocked(client)
}

func (reg *RoomRegistry) leaveLocked(client *Client) {
	rm, ok := reg.rooms[client.room]
	if !ok {
		return
	}

	delete(rm.users, client)
	delete(rm.departments, client)

	if rm.empty() {
		delete(reg.rooms, client.room)
	}
}

// Members returns every connection currently subscribed to the complaint.
func (reg *RoomRegistry) Members(complaintNumber string) []*Client {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rm, ok := reg.rooms[complaintNumber]
	if !ok {
		return nil
	}

	members := make([]*Client, 0, len(rm.users)+len(rm.departments))
	for client := range rm.users {
		members = append(members, client)
	}
	for client := range rm.departments {
		members = append(members, client)
	}
	return members
}

// MembersExcept returns the room's connections minus the given one, used for
// notifications that must not echo to their originator.
func (reg *RoomRegistry) MembersExcept(complaintNumber string, except *Client) []*Client {
	members := reg.Members(complaintNumber)
	filtered := members[:0]
	for _, client := range members {
		if client != except {
			filtered = append(filtered, client)
		}
	}
	return filtered
}

// Count returns the number of connections in the complaint's room.
func (reg *RoomRegistry) Count(complaintNumber string) int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rm, ok := reg.rooms[complaintNumber]
	if !ok {
		return 0
	}
	return len(rm.users) + len(rm.departments)
}
