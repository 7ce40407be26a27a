package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

type TypingUser struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
}

type typingKey struct {
	projectID uuid.UUID
	userID    uuid.UUID
}

type typingEntry struct {
	name      string
	connID    uuid.UUID
	updatedAt time.Time
}

// TypingTracker кто печатает в каких комнатах. Запись живет ttl с последнего
// обновления; просроченные записи не видны даже до очистки.
type TypingTracker struct {
	mu      sync.Mutex
	entries map[typingKey]typingEntry

	rooms    *RoomManager
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      logger.Logger
}

func NewTypingTracker(rooms *RoomManager, ttl, interval time.Duration, log logger.Logger) *TypingTracker {
	return &TypingTracker{
		entries:  make(map[typingKey]typingEntry),
		rooms:    rooms,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

type typingChange struct {
	key    typingKey
	connID uuid.UUID
}

// Set обновляет состояние набора текста пользователя соединения client
// и рассылает его остальным участникам комнаты
func (t *TypingTracker) Set(client *Client, projectID uuid.UUID, name string, isTyping bool) error {
	id, ok := client.Identity()
	if !ok {
		return apperrors.ErrAuthenticationRequired
	}
	if name == "" {
		name = id.Name
	}

	roomID := RoomID(projectID)
	key := typingKey{projectID: projectID, userID: id.UserID}

	t.mu.Lock()
	if !t.rooms.IsMember(client.ID, roomID) {
		t.mu.Unlock()
		return ErrNotInRoom
	}

	_, existed := t.entries[key]
	if isTyping {
		t.entries[key] = typingEntry{name: name, connID: client.ID, updatedAt: t.now()}
	} else {
		delete(t.entries, key)
	}
	t.mu.Unlock()

	if !isTyping && !existed {
		return nil
	}

	payload := TypingPayload{ProjectID: projectID, UserID: id.UserID, IsTyping: isTyping}
	if isTyping {
		payload.Name = name
	}
	if _, err := t.rooms.Broadcast(roomID, EventTyping, payload, client.ID); err != nil {
		return err
	}
	return nil
}

// Typing возвращает непросроченные записи комнаты
func (t *TypingTracker) Typing(projectID uuid.UUID) []TypingUser {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	type item struct {
		user TypingUser
		at   time.Time
	}
	items := make([]item, 0)
	for key, entry := range t.entries {
		if key.projectID != projectID || t.expired(entry, now) {
			continue
		}
		items = append(items, item{user: TypingUser{UserID: key.userID, Name: entry.name}, at: entry.updatedAt})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].at.Before(items[j].at) })

	users := make([]TypingUser, 0, len(items))
	for _, it := range items {
		users = append(users, it.user)
	}
	return users
}

func (t *TypingTracker) expired(entry typingEntry, now time.Time) bool {
	return now.Sub(entry.updatedAt) > t.ttl
}

// Sweep удаляет просроченные записи и рассылает isTyping=false по каждой
func (t *TypingTracker) Sweep() int {
	t.mu.Lock()
	now := t.now()
	removed := make([]typingChange, 0)
	for key, entry := range t.entries {
		if t.expired(entry, now) {
			delete(t.entries, key)
			removed = append(removed, typingChange{key: key, connID: entry.connID})
		}
	}
	t.mu.Unlock()

	t.announceStopped(removed)
	if len(removed) > 0 {
		t.log.Debug("Typing entries expired", "count", len(removed))
	}
	return len(removed)
}

// DropConnection убирает записи, созданные соединением
func (t *TypingTracker) DropConnection(connID uuid.UUID) int {
	return t.drop(func(key typingKey, entry typingEntry) bool {
		return entry.connID == connID
	})
}

// DropRoom убирает запись соединения в одной комнате
func (t *TypingTracker) DropRoom(connID, projectID uuid.UUID) int {
	return t.drop(func(key typingKey, entry typingEntry) bool {
		return entry.connID == connID && key.projectID == projectID
	})
}

func (t *TypingTracker) drop(match func(typingKey, typingEntry) bool) int {
	t.mu.Lock()
	removed := make([]typingChange, 0)
	for key, entry := range t.entries {
		if match(key, entry) {
			delete(t.entries, key)
			removed = append(removed, typingChange{key: key, connID: entry.connID})
		}
	}
	t.mu.Unlock()

	t.announceStopped(removed)
	return len(removed)
}

func (t *TypingTracker) announceStopped(changes []typingChange) {
	for _, ch := range changes {
		payload := TypingPayload{ProjectID: ch.key.projectID, UserID: ch.key.userID, IsTyping: false}
		if _, err := t.rooms.Broadcast(RoomID(ch.key.projectID), EventTyping, payload, ch.connID); err != nil {
			t.log.Error("Failed to broadcast typing stop", "error", err)
		}
	}
}

// Run периодически вызывает Sweep до отмены ctx
func (t *TypingTracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}
