package chat

import (
	"encoding/json"
	"time"
)

// Client-to-server event names.
const (
	eventJoinRoom       = "joinRoom"
	eventLeaveRoom      = "leaveRoom"
	eventSendMessage    = "sendMessage"
	eventUpdateNickname = "updateNickname"
)

type clientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinRoomPayload struct {
	RoomID    string `json:"roomId"`
	TrainID   string `json:"trainId"`
	TrainLine string `json:"trainLine"`
	Nickname  string `json:"nickname"`
}

type leaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

type sendMessagePayload struct {
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	Nickname string `json:"nickname"`
	// Client send time, informational only: ordering and the
	// authoritative timestamp come from the coordinator.
	Timestamp time.Time `json:"timestamp"`
}

type updateNicknamePayload struct {
	Nickname string `json:"nickname"`
}

type errorPayload struct {
	Message string `json:"message"`
}
