package room

import "encoding/json"

// Server-to-client event names. Payload shapes are part of the wire
// contract with clients.
const (
	EventRoomUpdate     = "roomUpdate"
	EventUserJoined     = "userJoined"
	EventUserLeft       = "userLeft"
	EventReceiveMessage = "receiveMessage"
	EventForceLeave     = "forceLeave"
	EventError          = "error"
)

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type roomUpdatePayload struct {
	RoomID    string   `json:"roomId"`
	TrainID   string   `json:"trainId"`
	TrainLine string   `json:"trainLine"`
	Users     []Member `json:"users"`
}

type userPayload struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

type forceLeavePayload struct {
	Reason string `json:"reason,omitempty"`
}

// Frame marshals a server event envelope. Marshaling cannot fail for the
// payload types above.
func Frame(event string, data any) []byte {
	b, _ := json.Marshal(envelope{Event: event, Data: data})
	return b
}
