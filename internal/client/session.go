// Package client glues the motion classifier to the chat transport: boarding
// joins the line's room, alighting leaves it. The server never sees fixes,
// only the membership decisions derived from them.
package client

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/RyujiTanaka899/train-chat-app/internal/line"
	"github.com/RyujiTanaka899/train-chat-app/internal/motion"
	"github.com/gorilla/websocket"
)

var ErrNotInRoom = errors.New("not currently in a room")

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
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
	RoomID    string    `json:"roomId"`
	Message   string    `json:"message"`
	Nickname  string    `json:"nickname"`
	Timestamp time.Time `json:"timestamp"`
}

// transport is the slice of *websocket.Conn the session uses.
type transport interface {
	WriteJSON(v any) error
	ReadMessage() (int, []byte, error)
	Close() error
}

type Session struct {
	conn       transport
	classifier *motion.Classifier
	nickname   string
	roomID     string

	// OnFrame receives every server frame; nil discards them.
	OnFrame func([]byte)
}

// Dial connects to the chat endpoint with a rider session token.
func Dial(wsURL, token, nickname string, classifier *motion.Classifier) (*Session, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	return newSession(conn, classifier, nickname), nil
}

func newSession(conn transport, classifier *motion.Classifier, nickname string) *Session {
	return &Session{conn: conn, classifier: classifier, nickname: nickname}
}

// RoomID reports the room the session believes it is in, empty outside a
// ride.
func (s *Session) RoomID() string { return s.roomID }

// ObserveFix feeds one position fix through the classifier and reacts to
// whatever it emits.
func (s *Session) ObserveFix(fix motion.Fix) error {
	for _, ev := range s.classifier.Observe(fix) {
		switch ev.Kind {
		case motion.EventBoarded:
			roomID := line.Slug(ev.Line)
			payload := joinRoomPayload{
				RoomID:    roomID,
				TrainID:   roomID,
				TrainLine: ev.Line,
				Nickname:  s.nickname,
			}
			if err := s.conn.WriteJSON(envelope{Event: "joinRoom", Data: payload}); err != nil {
				return err
			}
			s.roomID = roomID

		case motion.EventAlighted:
			if s.roomID == "" {
				continue
			}
			if err := s.conn.WriteJSON(envelope{Event: "leaveRoom", Data: leaveRoomPayload{RoomID: s.roomID}}); err != nil {
				return err
			}
			s.roomID = ""
		}
	}
	return nil
}

// SendChat sends a message to the current room.
func (s *Session) SendChat(text string) error {
	if s.roomID == "" {
		return ErrNotInRoom
	}
	payload := sendMessagePayload{
		RoomID:    s.roomID,
		Message:   text,
		Nickname:  s.nickname,
		Timestamp: time.Now(),
	}
	return s.conn.WriteJSON(envelope{Event: "sendMessage", Data: payload})
}

// Listen reads server frames until the connection closes or the context is
// cancelled.
func (s *Session) Listen(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		if s.OnFrame != nil {
			s.OnFrame(data)
		}
	}
}

func (s *Session) Close() error {
	return s.conn.Close()
}
