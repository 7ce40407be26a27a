package websocket

import (
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
)

// SessionRegistry соединения и их владельцы
type SessionRegistry struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
	}
}

// Register добавляет неаутентифицированное соединение
func (r *SessionRegistry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID] = client
}

// Bind привязывает соединение к пользователю
func (r *SessionRegistry) Bind(connID uuid.UUID, id Identity) error {
	if id.UserID == uuid.Nil {
		return apperrors.ErrAuthenticationRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[connID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if err := client.bind(id); err != nil {
		if err == ErrClientClosed {
			return apperrors.ErrNotFound
		}
		return err
	}

	if _, ok := r.userClients[id.UserID]; !ok {
		r.userClients[id.UserID] = make(map[uuid.UUID]*Client)
	}
	r.userClients[id.UserID][connID] = client
	return nil
}

// Remove убирает соединение из реестра. Повторный вызов ничего не делает.
func (r *SessionRegistry) Remove(connID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[connID]
	if !ok {
		return false
	}
	delete(r.clients, connID)

	userID := client.UserID()
	if userClients, ok := r.userClients[userID]; ok {
		delete(userClients, connID)
		if len(userClients) == 0 {
			delete(r.userClients, userID)
		}
	}
	return true
}

func (r *SessionRegistry) Get(connID uuid.UUID) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[connID]
}

// UserFor возвращает пользователя соединения; false для неизвестных и
// неаутентифицированных соединений
func (r *SessionRegistry) UserFor(connID uuid.UUID) (uuid.UUID, bool) {
	r.mu.RLock()
	client, ok := r.clients[connID]
	r.mu.RUnlock()
	if !ok {
		return uuid.Nil, false
	}

	id, ok := client.Identity()
	return id.UserID, ok
}

func (r *SessionRegistry) ConnectionsFor(userID uuid.UUID) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.userClients[userID]))
	for _, client := range r.userClients[userID] {
		clients = append(clients, client)
	}
	return clients
}

// OnlineUsers возвращает список онлайн пользователей
func (r *SessionRegistry) OnlineUsers() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(r.userClients))
	for userID := range r.userClients {
		users = append(users, userID)
	}
	return users
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *SessionRegistry) all() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}
