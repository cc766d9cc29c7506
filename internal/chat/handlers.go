package chat

import (
	"context"
	"encoding/json"
	"log"

	"github.com/RyujiTanaka899/train-chat-app/internal/rider"
	"github.com/RyujiTanaka899/train-chat-app/internal/room"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

func RegisterRoutes(r fiber.Router, coord *room.Coordinator, riders *rider.Service) {
	r.Post("/rooms/:id/force-leave", func(c *fiber.Ctx) error {
		var req struct {
			Reason string `json:"reason"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}

		evicted := coord.ForceLeave(c.Params("id"), req.Reason)
		return c.JSON(fiber.Map{"roomId": c.Params("id"), "evicted": evicted})
	})

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		serveSocket(c, coord, riders)
	}))
}

func serveSocket(c *websocket.Conn, coord *room.Coordinator, riders *rider.Service) {
	userID, nickname, ok := identify(c, riders)
	if !ok {
		payload := room.Frame(room.EventError, errorPayload{Message: "invalid session"})
		_ = c.WriteMessage(websocket.TextMessage, payload)
		return
	}

	connID := uuid.NewString()
	conn := coord.Connect(connID, userID)

	done := make(chan struct{})
	go func() {
		for msg := range conn.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
		close(done)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			break
		}
		dispatch(coord, riders, conn, nickname, data)
	}

	coord.Disconnect(connID)
	<-done
}

// identify resolves the rider from the connection query: a signed session
// token when present, otherwise a caller-supplied userId used to correlate
// reconnects.
func identify(c *websocket.Conn, riders *rider.Service) (userID, nickname string, ok bool) {
	if token := c.Query("token"); token != "" {
		userID, nickname, err := riders.ResolveToken(context.Background(), token)
		if err != nil {
			return "", "", false
		}
		return userID, nickname, true
	}

	userID = c.Query("userId")
	if userID == "" {
		return "", "", false
	}
	nickname = c.Query("nickname")
	if nickname == "" {
		nickname = riders.Nickname(context.Background(), userID)
	}
	return userID, nickname, true
}

func dispatch(coord *room.Coordinator, riders *rider.Service, conn *room.Conn, fallbackNickname string, data []byte) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		reply(conn, room.Frame(room.EventError, errorPayload{Message: "malformed frame"}))
		return
	}

	switch env.Event {
	case eventJoinRoom:
		var p joinRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			reply(conn, room.Frame(room.EventError, errorPayload{Message: "invalid joinRoom payload"}))
			return
		}
		if p.Nickname == "" {
			p.Nickname = fallbackNickname
		}
		if err := coord.Join(conn.UserID, conn.ID, p.RoomID, p.TrainID, p.TrainLine, p.Nickname); err != nil {
			reply(conn, room.Frame(room.EventError, errorPayload{Message: err.Error()}))
		}

	case eventLeaveRoom:
		var p leaveRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			reply(conn, room.Frame(room.EventError, errorPayload{Message: "invalid leaveRoom payload"}))
			return
		}
		coord.Leave(conn.UserID, p.RoomID)

	case eventSendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			reply(conn, room.Frame(room.EventError, errorPayload{Message: "invalid sendMessage payload"}))
			return
		}
		if _, err := coord.SendMessage(conn.UserID, p.RoomID, p.Message); err != nil {
			reply(conn, room.Frame(room.EventError, errorPayload{Message: err.Error()}))
		}

	case eventUpdateNickname:
		var p updateNicknamePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.Nickname == "" {
			reply(conn, room.Frame(room.EventError, errorPayload{Message: "invalid updateNickname payload"}))
			return
		}
		if err := riders.SetNickname(context.Background(), conn.UserID, p.Nickname); err != nil {
			log.Printf("nickname store error: %v", err)
		}
		coord.UpdateNickname(conn.UserID, p.Nickname)

	default:
		reply(conn, room.Frame(room.EventError, errorPayload{Message: "unknown event"}))
	}
}

// reply enqueues a frame for the caller's own connection through the same
// outbound queue broadcasts use, keeping a single writer per socket.
func reply(conn *room.Conn, frame []byte) {
	select {
	case conn.Send <- frame:
	default:
	}
}
