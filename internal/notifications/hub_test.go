package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case event := <-ch:
		return event
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
	}
	return Event{}
}

// TestHubPublishSubscribe проверяет доставку событий только своему пользователю.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()
	other, unsubscribeOther := hub.Subscribe(uuid.New())
	defer unsubscribeOther()

	hub.Publish(userID, Event{Type: EventListGenerated})

	event := receive(t, ch)
	if event.Type != EventListGenerated {
		t.Fatalf("expected %s, got %s", EventListGenerated, event.Type)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	select {
	case event := <-other:
		t.Fatalf("unexpected event for another user: %+v", event)
	default:
	}
}

// TestHubBroadcast проверяет рассылку всем подписчикам.
func TestHubBroadcast(t *testing.T) {
	hub := NewHub()

	first, unsubscribeFirst := hub.Subscribe(uuid.New())
	defer unsubscribeFirst()
	second, unsubscribeSecond := hub.Subscribe(uuid.New())
	defer unsubscribeSecond()

	hub.Broadcast(Event{Type: EventCatalogUpdated})

	if receive(t, first).Type != EventCatalogUpdated || receive(t, second).Type != EventCatalogUpdated {
		t.Fatal("expected catalog update for every subscriber")
	}
}

// TestHubDropsWhenFull проверяет, что переполненный подписчик не блокирует публикацию.
func TestHubDropsWhenFull(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	_, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(userID, Event{Type: EventListGenerated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

// TestHubUnsubscribe проверяет закрытие канала после отписки.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
}
