package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newSocketPair upgrades a real connection over an in-process server and
// returns both ends.
func newSocketPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- c
	}))
	t.Cleanup(srv.Close)

	clientConn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = clientConn.Close() })

	select {
	case serverConn := <-connCh:
		t.Cleanup(func() { _ = serverConn.Close() })
		return serverConn, clientConn
	case <-time.After(5 * time.Second):
		t.Fatal("server side never upgraded")
		return nil, nil
	}
}

func TestPushSerializesConcurrentWriters(t *testing.T) {
	serverConn, clientConn := newSocketPair(t)

	hub := NewHub(nil)
	hub.Add(1, serverConn)

	const writers = 4
	const perWriter = 200

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				hub.Push(1, map[string]int{"n": j})
			}
		}()
	}
	wg.Wait()

	if got := hub.Connections(1); got != 1 {
		t.Fatalf("healthy connection was dropped, connections = %d", got)
	}

	_ = clientConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < writers*perWriter; i++ {
		var msg map[string]int
		if err := clientConn.ReadJSON(&msg); err != nil {
			t.Fatalf("read message %d: %v", i, err)
		}
	}
}

func TestPushDropsConnectionOnWriteError(t *testing.T) {
	serverConn, _ := newSocketPair(t)

	hub := NewHub(nil)
	hub.Add(1, serverConn)
	_ = serverConn.Close()

	hub.Push(1, map[string]string{"kind": "outbid"})

	if got := hub.Connections(1); got != 0 {
		t.Fatalf("dead connection still registered, connections = %d", got)
	}

	// A later push must not block or write to the dropped connection.
	done := make(chan struct{})
	go func() {
		hub.Push(1, map[string]string{"kind": "sold"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push after drop blocked")
	}
}
