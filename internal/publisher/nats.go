// Package publisher emits room lifecycle events to NATS for downstream
// consumers (dashboards, analytics). Entirely optional: the server runs
// without a broker.
package publisher

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	subjectRoomCreated = "rooms.created"
	subjectRoomEvicted = "rooms.evicted"
	subjectRoomMessage = "rooms.message"
)

type NATSPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("trainchat-api"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

type roomEvent struct {
	RoomID    string    `json:"roomId"`
	TrainLine string    `json:"trainLine,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// The coordinator reports through the room.Lifecycle interface.

func (p *NATSPublisher) RoomCreated(roomID, trainLine string) {
	p.publish(subjectRoomCreated, roomEvent{RoomID: roomID, TrainLine: trainLine, Timestamp: time.Now()})
}

func (p *NATSPublisher) RoomEvicted(roomID string) {
	p.publish(subjectRoomEvicted, roomEvent{RoomID: roomID, Timestamp: time.Now()})
}

func (p *NATSPublisher) MessageSent(roomID string) {
	p.publish(subjectRoomMessage, roomEvent{RoomID: roomID, Timestamp: time.Now()})
}

func (p *NATSPublisher) publish(subject string, event roomEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := p.nc.Publish(subject+"."+subjectToken(event.RoomID), b); err != nil {
		log.Printf("nats publish error: %v", err)
	}
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
