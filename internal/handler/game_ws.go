package handler

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"drawparty-backend/internal/config"
	"drawparty-backend/internal/game"
)

const joinDeadline = 10 * time.Second

// GameWSHandler owns the websocket side of the game: it attributes each new
// connection to a room and player, then shuttles frames between the socket
// and the room actor.
type GameWSHandler struct {
	manager *game.Manager
	wsCfg   config.WebSocketConfig
}

// NewGameWSHandler builds the handler around the room registry.
func NewGameWSHandler(manager *game.Manager, wsCfg config.WebSocketConfig) *GameWSHandler {
	return &GameWSHandler{manager: manager, wsCfg: wsCfg}
}

// wsSession adapts one websocket connection to game.Session. Outbound frames
// go through a buffered queue drained by a single writer goroutine, so the
// room's broadcast never blocks on a slow client; when the queue is full the
// frame is dropped and Send reports it.
type wsSession struct {
	conn         *websocket.Conn
	send         chan []byte
	writeTimeout time.Duration
	closeOnce    sync.Once
	done         chan struct{}
}

func newWSSession(conn *websocket.Conn, queueSize int, writeTimeout time.Duration) *wsSession {
	s := &wsSession{
		conn:         conn,
		send:         make(chan []byte, queueSize),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
	go s.writePump()
	return s
}

func (s *wsSession) Send(data []byte) bool {
	select {
	case s.send <- data:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

func (s *wsSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *wsSession) writePump() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.Close()
				return
			}
		}
	}
}

// joinRejectFrame builds the error frame for a refused join. Marshaled, not
// string-assembled: the room id is client-controlled.
func joinRejectFrame(roomID string, err error) []byte {
	code := "joinFailed"
	switch err {
	case game.ErrRoomFull:
		code = "roomFull"
	case game.ErrRoomClosed:
		code = "roomClosed"
	}
	frame, _ := json.Marshal(game.ServerMessage{
		Type:   game.TypeError,
		RoomID: roomID,
		Data:   game.ErrorData{Code: code, Message: err.Error()},
	})
	return frame
}

// HandleWebSocket runs one connection's lifecycle. The first frame must be a
// playerJoin that names the room; everything after it is routed to the room.
func (h *GameWSHandler) HandleWebSocket(c *websocket.Conn) {
	c.SetReadDeadline(time.Now().Add(joinDeadline))
	_, raw, err := c.ReadMessage()
	if err != nil {
		c.Close()
		return
	}

	msg, err := game.DecodeClientMessage(raw)
	if err != nil {
		c.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","data":{"code":"badJoin","message":"first frame must be playerJoin"}}`))
		c.Close()
		return
	}
	join, ok := msg.(game.JoinMessage)
	if !ok || join.RoomID == "" {
		c.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","data":{"code":"badJoin","message":"first frame must be playerJoin with roomId"}}`))
		c.Close()
		return
	}

	playerID := join.PlayerID
	if playerID == "" {
		playerID = uuid.NewString()
	}
	displayName := join.DisplayName
	if displayName == "" {
		short := playerID
		if len(short) > 8 {
			short = short[:8]
		}
		displayName = "player-" + short
	}

	room := h.manager.GetOrCreate(join.RoomID)
	session := newWSSession(c, h.wsCfg.SendQueueSize, h.wsCfg.WriteTimeout)

	player := game.Player{ID: playerID, DisplayName: displayName, JoinedAt: time.Now()}
	if err := room.Join(player, session); err != nil {
		log.Printf("[GameWS] Join rejected for %s in room %s: %v", playerID, join.RoomID, err)
		// written directly, not through the session queue, so the frame
		// reaches the client before the close
		c.WriteMessage(websocket.TextMessage, joinRejectFrame(join.RoomID, err))
		session.Close()
		return
	}

	log.Printf("[GameWS] Connection established: room=%s, player=%s", join.RoomID, playerID)

	var leaveOnce sync.Once
	leave := func() {
		leaveOnce.Do(func() {
			// session-scoped: a close firing after a reconnect replaced
			// this session must not evict the live player
			room.Detach(playerID, session)
			session.Close()
			log.Printf("[GameWS] Connection closed: room=%s, player=%s", join.RoomID, playerID)
		})
	}
	defer leave()

	c.SetReadDeadline(time.Time{})
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}
		h.manager.Route(join.RoomID, playerID, raw)
	}
}
