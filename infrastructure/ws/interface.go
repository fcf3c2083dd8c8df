package ws

type IHub interface {
	Run()
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	JoinRoom(complaintNumber string, client *Client)
	BroadcastToRoom(complaintNumber string, message []byte)
	BroadcastToRoomExcept(complaintNumber string, except *Client, message []byte)
	SendToClient(client *Client, message []byte)
	RoomCount(complaintNumber string) int
	SetOnClientUnregister(callback func(client *Client) error)
}
