package ws

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var ErrNotConnected = errors.New("subscriber not connected")

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

func (s *subscriber) write(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Manager keeps track of dashboard websocket connections.
type Manager struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber // subscriberID -> conn
}

func NewManager() *Manager {
	return &Manager{subscribers: make(map[string]*subscriber)}
}

// Register adds a connection and returns the id assigned to it.
func (m *Manager) Register(conn *websocket.Conn) string {
	id := uuid.New().String()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[id] = &subscriber{conn: conn}
	return id
}

// Unregister removes and closes a connection.
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subscribers[id]; ok {
		_ = s.conn.Close()
		delete(m.subscribers, id)
	}
}

// Send writes a text message to one subscriber.
func (m *Manager) Send(id string, payload []byte) error {
	m.mu.RLock()
	s, ok := m.subscribers[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	return s.write(payload)
}

// Broadcast writes payload to every subscriber, dropping those that fail.
// It returns the number of successful deliveries.
func (m *Manager) Broadcast(payload []byte) int {
	m.mu.RLock()
	targets := make(map[string]*subscriber, len(m.subscribers))
	for id, s := range m.subscribers {
		targets[id] = s
	}
	m.mu.RUnlock()

	sent := 0
	for id, s := range targets {
		if err := s.write(payload); err != nil {
			log.Printf("dropping dashboard %s: %v", id, err)
			m.Unregister(id)
			continue
		}
		sent++
	}
	return sent
}

// IsConnected reports whether a subscriber is registered.
func (m *Manager) IsConnected(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.subscribers[id]
	return ok
}

// List returns a copy of current subscriber ids.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	return ids
}
