package realtime

import (
	"encoding/json"
	"testing"
)

func newTestClient(buffer int) *Client {
	return &Client{send: make(chan []byte, buffer)}
}

func TestPublish_DeliversToRoomMembers(t *testing.T) {
	hub := NewHub(nil)
	member := newTestClient(4)
	outsider := newTestClient(4)
	hub.Join(DashboardRoom, member)
	hub.Join("other", outsider)

	hub.Publish(DashboardRoom, "sale-created", map[string]any{"invoice": "INV-1"})

	select {
	case data := <-member.send:
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("failed decoding envelope: %v", err)
		}
		if env.Event != "sale-created" {
			t.Errorf("expected event sale-created, got %q", env.Event)
		}
	default:
		t.Fatal("expected room member to receive the event")
	}

	select {
	case <-outsider.send:
		t.Error("expected no delivery outside the room")
	default:
	}
}

func TestPublish_NeverBlocksOnFullBuffer(t *testing.T) {
	hub := NewHub(nil)
	slow := newTestClient(1)
	hub.Join(DashboardRoom, slow)

	// Second publish must drop, not block.
	hub.Publish(DashboardRoom, "stock-updated", nil)
	hub.Publish(DashboardRoom, "stock-updated", nil)

	if got := len(slow.send); got != 1 {
		t.Errorf("expected 1 buffered event, got %d", got)
	}
}

func TestPublish_EmptyRoomIsNoop(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish(DashboardRoom, "sale-created", nil)
}

func TestLeave_RemovesClientFromAllRooms(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(1)
	hub.Join(DashboardRoom, client)
	hub.Join("other", client)

	if size := hub.RoomSize(DashboardRoom); size != 1 {
		t.Fatalf("expected room size 1, got %d", size)
	}

	hub.Leave(client)

	if size := hub.RoomSize(DashboardRoom); size != 0 {
		t.Errorf("expected empty dashboard room, got %d", size)
	}
	if size := hub.RoomSize("other"); size != 0 {
		t.Errorf("expected empty other room, got %d", size)
	}

	hub.Publish(DashboardRoom, "sale-created", nil)
	select {
	case <-client.send:
		t.Error("expected no delivery after leave")
	default:
	}
}

func TestJoin_IsIdempotentPerClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(4)
	hub.Join(DashboardRoom, client)
	hub.Join(DashboardRoom, client)

	if size := hub.RoomSize(DashboardRoom); size != 1 {
		t.Errorf("expected room size 1 after double join, got %d", size)
	}

	hub.Publish(DashboardRoom, "sale-created", nil)
	if got := len(client.send); got != 1 {
		t.Errorf("expected single delivery, got %d", got)
	}
}
