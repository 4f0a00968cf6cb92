package websocket

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"distancemeter/internal/logger"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) *HubService {
	t.Helper()

	log, err := logger.NewWithWriters(t.TempDir(), io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHubService(log)
	go hub.Run(ctx)
	return hub
}

func TestHubService_BroadcastReachesClient(t *testing.T) {
	hub := newTestHub(t)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	payload := map[string]interface{}{"source": "upload", "summary": "Detected people: 1 (distances: 6.00m)"}
	if err := hub.BroadcastJSON(payload); err != nil {
		t.Fatalf("BroadcastJSON failed: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if !strings.Contains(string(message), `"summary":"Detected people: 1 (distances: 6.00m)"`) {
		t.Errorf("Unexpected message %s", message)
	}
}

func TestHubService_BroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	log, err := logger.NewWithWriters(t.TempDir(), io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer log.Close()

	// Hub not running: the queue fills and extra messages are dropped.
	hub := NewHubService(log)
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.Broadcast([]byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked")
	}
}

func TestHubService_UnregisterAfterStopDoesNotBlock(t *testing.T) {
	log, err := logger.NewWithWriters(t.TempDir(), io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHubService(log)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	upgrader := websocket.Upgrader{}
	viewerDone := make(chan struct{}, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { viewerDone <- struct{}{} }()

		hub.Register(conn)
		defer hub.Unregister(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	<-stopped

	select {
	case <-viewerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Viewer handler blocked in Unregister after the hub stopped")
	}

	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer late.Close()

	select {
	case <-viewerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Register blocked after the hub stopped")
	}
}
