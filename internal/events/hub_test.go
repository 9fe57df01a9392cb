package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func setupHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	r := chi.NewRouter()
	hub.RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/events/ws"
	return hub, wsURL
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, got %d", want, hub.SubscriberCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub, wsURL := setupHub(t)
	conn := dial(t, wsURL)
	waitForSubscribers(t, hub, 1)

	hub.Publish(Event{
		RuleID:        "r1",
		RuleName:      "tag refunds",
		InteractionID: "i1",
		Action:        "add_tag",
		Matched:       true,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.RuleID != "r1" || got.Action != "add_tag" || !got.Matched {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.At.IsZero() {
		t.Error("expected publish timestamp to be set")
	}
}

func TestPublishWithNoSubscribers(t *testing.T) {
	hub := NewHub()
	// Must not block or panic.
	hub.Publish(Event{RuleID: "r1"})
}

func TestClosedConnectionIsDropped(t *testing.T) {
	hub, wsURL := setupHub(t)
	conn := dial(t, wsURL)
	waitForSubscribers(t, hub, 1)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected closed connection to be unregistered")
		}
		hub.Publish(Event{RuleID: "r1"})
		time.Sleep(10 * time.Millisecond)
	}
}
