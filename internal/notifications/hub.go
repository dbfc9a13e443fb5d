package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventConnected      = "connected"
	EventListGenerated  = "shopping_list_generated"
	EventCatalogUpdated = "catalog_updated"

	subscriberBuffer = 16
)

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub рассылает события SSE-подписчикам. Медленный подписчик теряет события, а не блокирует отправителя.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
	now         func() time.Time
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
		now:         time.Now,
	}
}

// Subscribe подписывает пользователя на события и возвращает канал и функцию отписки.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	userSubs, ok := h.subscribers[userID]
	if !ok {
		userSubs = make(map[chan Event]struct{})
		h.subscribers[userID] = userSubs
	}
	userSubs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, exists := h.subscribers[userID]; exists {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подпискам пользователя.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	event.Timestamp = h.now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver(h.subscribers[userID], event)
}

// Broadcast отправляет событие всем подписчикам.
func (h *Hub) Broadcast(event Event) {
	event.Timestamp = h.now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, subs := range h.subscribers {
		deliver(subs, event)
	}
}

// Subscribers возвращает количество открытых подписок.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

func deliver(subs map[chan Event]struct{}, event Event) {
	for ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}
