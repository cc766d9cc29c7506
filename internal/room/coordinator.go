// Package room is the authoritative store of chat rooms and memberships.
// One coordinator owns every Room and Member record; all mutations happen
// under a single mutual-exclusion domain, which is what makes the order
// observed by members equal the order the coordinator processed operations.
package room

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayBuffer = 256

type relayFrame struct {
	roomID string
	frame  []byte
}

type Coordinator struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	conns  map[string]*Conn
	byUser map[string]string // userID -> roomID

	redis      *redis.Client
	instanceID string
	relayCh    chan relayFrame

	metrics Metrics
	events  Lifecycle
}

func NewCoordinator(redisClient *redis.Client, metrics Metrics, events Lifecycle) *Coordinator {
	c := &Coordinator{
		rooms:      map[string]*Room{},
		conns:      map[string]*Conn{},
		byUser:     map[string]string{},
		redis:      redisClient,
		instanceID: uuid.NewString(),
		metrics:    metrics,
		events:     events,
	}

	if redisClient != nil {
		c.relayCh = make(chan relayFrame, relayBuffer)
		go c.publishRelay()
		go c.subscribeRelay()
	}
	return c
}

// Connect registers a live transport channel for a user. The returned
// Conn's Send channel is drained by the caller's writer goroutine.
func (c *Coordinator) Connect(connID, userID string) *Conn {
	conn := &Conn{
		ID:     connID,
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[connID] = conn
	return conn
}

// Disconnect handles transport-level termination: it performs the same
// effect as an explicit leave for whichever room the connection's user was
// in, then closes the channel. This is the only path covering ungraceful
// client exits.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[connID]
	if !ok {
		return
	}
	delete(c.conns, connID)

	if roomID, inRoom := c.byUser[conn.UserID]; inRoom {
		if r := c.rooms[roomID]; r != nil {
			if m := r.members[conn.UserID]; m != nil && m.connID == connID {
				c.leaveLocked(conn.UserID, roomID)
			}
		}
	}

	close(conn.Send)
}

// Join adds the user to a room, creating it lazily. A user belongs to at
// most one room: joining while a member elsewhere leaves the old room
// first, with its usual side effects.
func (c *Coordinator) Join(userID, connID, roomID, trainID, trainLine, nickname string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[connID]
	if !ok || conn.UserID != userID {
		return ErrNotConnected
	}

	if prev, inRoom := c.byUser[userID]; inRoom && prev != roomID {
		c.leaveLocked(userID, prev)
	}

	r := c.rooms[roomID]
	if r == nil {
		r = &Room{
			ID:        roomID,
			TrainID:   trainID,
			TrainLine: trainLine,
			CreatedAt: time.Now(),
			members:   map[string]*Member{},
		}
		c.rooms[roomID] = r
		if c.metrics != nil {
			c.metrics.RoomOpened()
		}
		if c.events != nil {
			c.events.RoomCreated(roomID, trainLine)
		}
	}

	_, rejoin := r.members[userID]
	r.members[userID] = &Member{
		UserID:   userID,
		Nickname: nickname,
		JoinedAt: time.Now(),
		connID:   connID,
	}
	c.byUser[userID] = roomID

	if !rejoin {
		if c.metrics != nil {
			c.metrics.MemberJoined()
		}
		c.broadcastLocked(r, Frame(EventUserJoined, userPayload{UserID: userID, Nickname: nickname}), userID)
	}
	c.broadcastLocked(r, c.roomUpdateFrame(r), "")
	return nil
}

// Leave removes the user from the room. Not being a member is a benign
// no-op, not an error.
func (c *Coordinator) Leave(userID, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked(userID, roomID)
}

// SendMessage builds a coordinator-stamped message and fans it out to every
// member of the room except the sender, who renders locally.
func (c *Coordinator) SendMessage(userID, roomID, text string) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.rooms[roomID]
	if r == nil {
		return Message{}, ErrNotAMember
	}
	m := r.members[userID]
	if m == nil {
		return Message{}, ErrNotAMember
	}
	if c.conns[m.connID] == nil {
		return Message{}, ErrNotConnected
	}

	msg := Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		UserID:    userID,
		Nickname:  m.Nickname,
		Text:      text,
		Timestamp: time.Now(),
	}
	c.broadcastLocked(r, Frame(EventReceiveMessage, msg), userID)

	if c.metrics != nil {
		c.metrics.MessageBroadcast()
	}
	if c.events != nil {
		c.events.MessageSent(roomID)
	}
	return msg, nil
}

// UpdateNickname renames the user in their current room, if any, and
// pushes a fresh member snapshot.
func (c *Coordinator) UpdateNickname(userID, nickname string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	roomID, inRoom := c.byUser[userID]
	if !inRoom {
		return
	}
	r := c.rooms[roomID]
	if r == nil {
		return
	}
	if m := r.members[userID]; m != nil {
		m.Nickname = nickname
		c.broadcastLocked(r, c.roomUpdateFrame(r), "")
	}
}

// ForceLeave notifies every member of the room, evicts them all, and
// deletes the room. Returns the number of members evicted.
func (c *Coordinator) ForceLeave(roomID, reason string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.rooms[roomID]
	if r == nil {
		return 0
	}

	c.broadcastLocked(r, Frame(EventForceLeave, forceLeavePayload{Reason: reason}), "")
	evicted := len(r.members)
	for userID := range r.members {
		delete(c.byUser, userID)
		if c.metrics != nil {
			c.metrics.MemberLeft()
		}
	}
	r.members = map[string]*Member{}
	c.deleteRoomLocked(roomID)
	return evicted
}

// RoomCount reports the number of live rooms.
func (c *Coordinator) RoomCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rooms)
}

// Members returns a snapshot of a room's membership, ordered by join time.
// The second result is false when the room does not exist.
func (c *Coordinator) Members(roomID string) ([]Member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r := c.rooms[roomID]
	if r == nil {
		return nil, false
	}
	return r.memberSnapshot(), true
}

func (c *Coordinator) leaveLocked(userID, roomID string) {
	r := c.rooms[roomID]
	if r == nil {
		return
	}
	m := r.members[userID]
	if m == nil {
		return
	}

	delete(r.members, userID)
	delete(c.byUser, userID)
	if c.metrics != nil {
		c.metrics.MemberLeft()
	}

	if len(r.members) == 0 {
		// Eager eviction: a room with zero members must never be
		// observable by subsequent operations.
		c.deleteRoomLocked(roomID)
		return
	}

	c.broadcastLocked(r, Frame(EventUserLeft, userPayload{UserID: userID, Nickname: m.Nickname}), "")
	c.broadcastLocked(r, c.roomUpdateFrame(r), "")
}

func (c *Coordinator) deleteRoomLocked(roomID string) {
	delete(c.rooms, roomID)
	if c.metrics != nil {
		c.metrics.RoomClosed()
	}
	if c.events != nil {
		c.events.RoomEvicted(roomID)
	}
}

// broadcastLocked enqueues the frame for every member except exceptUser.
// Delivery is fire-and-forget per recipient: a full channel drops the frame
// for that member only, and the client resyncs from the next roomUpdate.
func (c *Coordinator) broadcastLocked(r *Room, frame []byte, exceptUser string) {
	for userID, m := range r.members {
		if userID == exceptUser {
			continue
		}
		conn := c.conns[m.connID]
		if conn == nil {
			continue
		}
		select {
		case conn.Send <- frame:
		default:
		}
	}

	if c.relayCh != nil {
		select {
		case c.relayCh <- relayFrame{roomID: r.ID, frame: frame}:
		default:
		}
	}
}

func (c *Coordinator) roomUpdateFrame(r *Room) []byte {
	return Frame(EventRoomUpdate, roomUpdatePayload{
		RoomID:    r.ID,
		TrainID:   r.TrainID,
		TrainLine: r.TrainLine,
		Users:     r.memberSnapshot(),
	})
}

func (r *Room) memberSnapshot() []Member {
	members := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, *m)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID < members[j].UserID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members
}

// relayEnvelope carries frames between coordinator instances over Redis.
type relayEnvelope struct {
	Src   string          `json:"src"`
	Frame json.RawMessage `json:"frame"`
}

func (c *Coordinator) publishRelay() {
	ctx := context.Background()
	for rf := range c.relayCh {
		payload, _ := json.Marshal(relayEnvelope{Src: c.instanceID, Frame: rf.frame})
		if err := c.redis.Publish(ctx, relayChannel(rf.roomID), payload).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (c *Coordinator) subscribeRelay() {
	ctx := context.Background()
	pubsub := c.redis.PSubscribe(ctx, "room:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env relayEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			continue
		}
		if env.Src == c.instanceID {
			continue
		}

		roomID := roomIDFromChannel(msg.Channel)
		c.mu.RLock()
		if r := c.rooms[roomID]; r != nil {
			for _, m := range r.members {
				conn := c.conns[m.connID]
				if conn == nil {
					continue
				}
				select {
				case conn.Send <- []byte(env.Frame):
				default:
				}
			}
		}
		c.mu.RUnlock()
	}
}

func relayChannel(roomID string) string {
	return "room:" + roomID + ":events"
}

func roomIDFromChannel(ch string) string {
	// room:{id}:events
	const prefix = "room:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
