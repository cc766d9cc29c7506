package client

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/RyujiTanaka899/train-chat-app/internal/line"
	"github.com/RyujiTanaka899/train-chat-app/internal/motion"
)

type fakeConn struct {
	writes []envelope
	err    error
}

func (f *fakeConn) WriteJSON(v any) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, v.(envelope))
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, io.EOF }
func (f *fakeConn) Close() error                      { return nil }

func rideFixes(kmhs []float64) []motion.Fix {
	at := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	lat := -6.3
	fixes := []motion.Fix{{Lat: lat, Lng: 106.82, RecordedAt: at}}
	for _, kmh := range kmhs {
		at = at.Add(10 * time.Second)
		lat += kmh * (10.0 / 3600.0) / 111.19493
		fixes = append(fixes, motion.Fix{Lat: lat, Lng: 106.82, RecordedAt: at})
	}
	return fixes
}

func TestSessionJoinsAndLeavesWithRide(t *testing.T) {
	conn := &fakeConn{}
	s := newSession(conn, motion.New(line.Default(), motion.DefaultThresholds()), "alpha")

	for _, fix := range rideFixes([]float64{10, 40, 50, 45, 8, 8, 8}) {
		if err := s.ObserveFix(fix); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}

	if len(conn.writes) != 2 {
		t.Fatalf("expected join and leave, got %v", conn.writes)
	}
	if conn.writes[0].Event != "joinRoom" {
		t.Fatalf("expected joinRoom first, got %s", conn.writes[0].Event)
	}
	join := conn.writes[0].Data.(joinRoomPayload)
	if join.RoomID != "bogor-line" || join.TrainLine != "Bogor Line" || join.Nickname != "alpha" {
		t.Fatalf("unexpected join payload: %+v", join)
	}
	if conn.writes[1].Event != "leaveRoom" {
		t.Fatalf("expected leaveRoom second, got %s", conn.writes[1].Event)
	}
	if s.RoomID() != "" {
		t.Fatalf("room id should be cleared after alighting")
	}
}

func TestSendChatRequiresRoom(t *testing.T) {
	conn := &fakeConn{}
	s := newSession(conn, motion.New(line.Default(), motion.DefaultThresholds()), "alpha")

	if err := s.SendChat("hello"); !errors.Is(err, ErrNotInRoom) {
		t.Fatalf("expected ErrNotInRoom, got %v", err)
	}

	for _, fix := range rideFixes([]float64{10, 40, 50}) {
		if err := s.ObserveFix(fix); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
	if s.RoomID() == "" {
		t.Fatalf("expected to be in a room")
	}

	if err := s.SendChat("hello"); err != nil {
		t.Fatalf("send chat: %v", err)
	}
	last := conn.writes[len(conn.writes)-1]
	if last.Event != "sendMessage" {
		t.Fatalf("expected sendMessage, got %s", last.Event)
	}
	msg := last.Data.(sendMessagePayload)
	if msg.RoomID != "bogor-line" || msg.Message != "hello" {
		t.Fatalf("unexpected message payload: %+v", msg)
	}
}

func TestObserveFixPropagatesWriteError(t *testing.T) {
	conn := &fakeConn{err: errors.New("socket gone")}
	s := newSession(conn, motion.New(line.Default(), motion.DefaultThresholds()), "alpha")

	var observeErr error
	for _, fix := range rideFixes([]float64{10, 40}) {
		if err := s.ObserveFix(fix); err != nil {
			observeErr = err
		}
	}
	if observeErr == nil {
		t.Fatalf("expected write error to surface")
	}
	if s.RoomID() != "" {
		t.Fatalf("room id must not be set when join failed")
	}
}
