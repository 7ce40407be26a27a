package websocket

import (
	"sync"

	"github.com/google/uuid"

	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

// RoomManager членство соединений в комнатах проектов. Набор комнат клиента
// меняется в той же критической секции, что и карта комнат.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]map[uuid.UUID]*Client
	log   logger.Logger
}

func NewRoomManager(log logger.Logger) *RoomManager {
	return &RoomManager{
		rooms: make(map[string]map[uuid.UUID]*Client),
		log:   log,
	}
}

// Departure результат выхода из комнаты
type Departure struct {
	RoomID string
	// LastForUser у пользователя не осталось соединений в комнате
	LastForUser bool
}

// Join добавляет клиента в комнату. added=false, если клиент уже в ней;
// firstForUser=true, если до этого в комнате не было соединений пользователя.
func (m *RoomManager) Join(client *Client, roomID string) (added, firstForUser bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client.mu.Lock()
	defer client.mu.Unlock()

	if client.state == StateDisconnected {
		return false, false, ErrClientClosed
	}
	if _, ok := client.rooms[roomID]; ok {
		return false, false, nil
	}

	room, ok := m.rooms[roomID]
	if !ok {
		room = make(map[uuid.UUID]*Client)
		m.rooms[roomID] = room
	}
	firstForUser = !m.hasUserUnsafe(roomID, client.identity.UserID)

	room[client.ID] = client
	client.rooms[roomID] = struct{}{}
	return true, firstForUser, nil
}

// Leave удаляет клиента из комнаты; пустые комнаты удаляются
func (m *RoomManager) Leave(client *Client, roomID string) (Departure, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeUnsafe(client, roomID)
}

// LeaveAll удаляет клиента из всех комнат
func (m *RoomManager) LeaveAll(client *Client) []Departure {
	m.mu.Lock()
	defer m.mu.Unlock()

	left := make([]Departure, 0)
	for _, roomID := range client.Rooms() {
		if d, ok := m.removeUnsafe(client, roomID); ok {
			left = append(left, d)
		}
	}
	return left
}

func (m *RoomManager) removeUnsafe(client *Client, roomID string) (Departure, bool) {
	room, ok := m.rooms[roomID]
	if !ok {
		return Departure{}, false
	}
	if _, ok := room[client.ID]; !ok {
		return Departure{}, false
	}

	delete(room, client.ID)
	client.mu.Lock()
	delete(client.rooms, roomID)
	userID := client.identity.UserID
	client.mu.Unlock()

	if len(room) == 0 {
		delete(m.rooms, roomID)
	}
	return Departure{RoomID: roomID, LastForUser: !m.hasUserUnsafe(roomID, userID)}, true
}

// Broadcast сериализует событие один раз и раздает его всем участникам
// комнаты, кроме exclude. Доставка best-effort: переполненные очереди
// пропускаются. Возвращает число получателей.
func (m *RoomManager) Broadcast(roomID string, event EventType, payload any, exclude uuid.UUID) (int, error) {
	data, err := Encode(event, payload)
	if err != nil {
		return 0, err
	}
	return m.broadcastRaw(roomID, data, exclude), nil
}

func (m *RoomManager) broadcastRaw(roomID string, data []byte, exclude uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	delivered := 0
	for id, client := range m.rooms[roomID] {
		if id == exclude {
			continue
		}
		if err := client.enqueue(data); err != nil {
			m.log.Warn("Dropped room frame", "room", roomID, "conn_id", id, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

func (m *RoomManager) IsMember(connID uuid.UUID, roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[roomID][connID]
	return ok
}

func (m *RoomManager) Members(roomID string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := make([]*Client, 0, len(m.rooms[roomID]))
	for _, client := range m.rooms[roomID] {
		members = append(members, client)
	}
	return members
}

// Users возвращает различных пользователей в комнате
func (m *RoomManager) Users(roomID string) []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	users := make([]uuid.UUID, 0)
	for _, client := range m.rooms[roomID] {
		userID := client.UserID()
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		users = append(users, userID)
	}
	return users
}

// hasUserUnsafe есть ли в комнате хотя бы одно соединение пользователя
func (m *RoomManager) hasUserUnsafe(roomID string, userID uuid.UUID) bool {
	for _, client := range m.rooms[roomID] {
		if client.UserID() == userID {
			return true
		}
	}
	return false
}

// Count число непустых комнат
func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
