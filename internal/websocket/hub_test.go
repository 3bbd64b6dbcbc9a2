package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lexigraph/jobmon/internal/models"
)

func TestHub(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Mock client
	client := &Client{
		hub:  hub,
		send: make(chan []byte, 1),
	}

	// Test registration
	hub.register <- client
	// Allow the hub to process the register message
	time.Sleep(10 * time.Millisecond)
	if len(hub.clients) != 1 {
		t.Fatalf("Expected 1 client after registration, got %d", len(hub.clients))
	}

	// Test broadcast
	message := []byte("hello")
	hub.broadcast <- message

	select {
	case received := <-client.send:
		if string(received) != "hello" {
			t.Errorf("Client received wrong message: got %s, want %s", received, message)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Client did not receive broadcast message in time")
	}

	// Test unregistration
	hub.unregister <- client
	// Allow the hub to process the unregister message
	time.Sleep(10 * time.Millisecond)
	if len(hub.clients) != 0 {
		t.Fatalf("Expected 0 clients after unregistration, got %d", len(hub.clients))
	}
}

func TestHubBroadcastJSON(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 1),
	}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastJSON(models.JobProgress{JobID: "job-1", Status: models.StatusProcessing})

	select {
	case received := <-client.send:
		var snap models.JobProgress
		if err := json.Unmarshal(received, &snap); err != nil {
			t.Fatalf("Broadcast payload is not valid JSON: %v", err)
		}
		if snap.JobID != "job-1" || snap.Status != models.StatusProcessing {
			t.Errorf("Unexpected payload: %+v", snap)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Client did not receive JSON broadcast in time")
	}
}
