package room

import (
	"errors"
	"time"
)

var (
	// ErrNotConnected is returned when an operation requires a live
	// transport channel and none is registered.
	ErrNotConnected = errors.New("connection not registered")
	// ErrNotAMember is returned when a send references a room the caller
	// is not in.
	ErrNotAMember = errors.New("not a member of room")
)

// Conn is one live transport channel. Send is drained by the connection's
// writer goroutine; the coordinator never blocks on it.
type Conn struct {
	ID     string
	UserID string
	Send   chan []byte
}

// Member is a rider's membership record inside a room, keyed by user id so
// it survives reconnects within the same device session.
type Member struct {
	UserID   string    `json:"userId"`
	Nickname string    `json:"nickname"`
	JoinedAt time.Time `json:"joinedAt"`

	connID string
}

// Room is an ephemeral group session keyed by line label. It exists only
// while it has members; eviction is eager, never deferred to a sweep.
type Room struct {
	ID        string
	TrainID   string
	TrainLine string
	CreatedAt time.Time

	members map[string]*Member
}

// Message is created by the coordinator on receipt of a send request and
// lives only in process memory.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Nickname  string    `json:"nickname"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Metrics receives coordinator counters. Implemented by the prometheus
// collector; nil disables.
type Metrics interface {
	MemberJoined()
	MemberLeft()
	MessageBroadcast()
	RoomOpened()
	RoomClosed()
}

// Lifecycle receives room lifecycle notifications for downstream
// consumers; nil disables.
type Lifecycle interface {
	RoomCreated(roomID, trainLine string)
	RoomEvicted(roomID string)
	MessageSent(roomID string)
}
