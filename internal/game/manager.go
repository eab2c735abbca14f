package game

import (
	"log"
	"sync"
	"time"

	"drawparty-backend/internal/config"
)

// Manager is the room registry. It creates rooms on demand, hands inbound
// frames to the owning room and reaps rooms once their roster empties.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	cfg       config.GameConfig
	canvasCfg config.CanvasConfig
	topics    *TopicCatalog
	submitter Submitter
}

// NewManager creates an empty registry.
func NewManager(cfg config.GameConfig, canvasCfg config.CanvasConfig, submitter Submitter) *Manager {
	return &Manager{
		rooms:     make(map[string]*Room),
		cfg:       cfg,
		canvasCfg: canvasCfg,
		topics:    NewTopicCatalog(time.Now().UnixNano(), nil),
		submitter: submitter,
	}
}

// GetOrCreate returns the room for roomID, creating it if absent. Concurrent
// callers with the same id get the same instance.
func (m *Manager) GetOrCreate(roomID string) *Room {
	m.mu.RLock()
	room, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if ok {
		return room
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[roomID]; ok {
		return room
	}
	room = newRoom(roomID, m.cfg, m.canvasCfg, m, m.submitter)
	m.rooms[roomID] = room
	log.Printf("[GameManager] Room %s created, total rooms: %d", roomID, len(m.rooms))
	return room
}

// Get returns the room for roomID, or nil.
func (m *Manager) Get(roomID string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID]
}

// Remove drops a room from the registry and stops its actor, closing every
// connected session. No-op for unknown rooms.
func (m *Manager) Remove(roomID string) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if ok {
		delete(m.rooms, roomID)
	}
	m.mu.Unlock()

	if ok {
		room.enqueue(evShutdown{})
		log.Printf("[GameManager] Room %s removed by request", roomID)
	}
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Route decodes one raw inbound frame and delivers it to the player's room.
// Malformed frames are logged and dropped without disturbing the room.
func (m *Manager) Route(roomID, playerID string, raw []byte) {
	msg, err := DecodeClientMessage(raw)
	if err != nil {
		log.Printf("[GameManager] Dropping frame from %s in room %s: %v", playerID, roomID, err)
		return
	}
	room := m.Get(roomID)
	if room == nil {
		log.Printf("[GameManager] Frame for unknown room %s dropped", roomID)
		return
	}
	room.Deliver(playerID, msg)
}

func (m *Manager) roomEmptied(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	log.Printf("[GameManager] Room %s removed, total rooms: %d", roomID, len(m.rooms))
}

func (m *Manager) pickTopic() string {
	return m.topics.Pick()
}
