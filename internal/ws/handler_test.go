package ws_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arena-service/internal/config"
	"arena-service/internal/middleware"
	"arena-service/internal/service/cardgame"
	"arena-service/internal/service/chat"
	"arena-service/internal/ws"
	pkgAuth "arena-service/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *cardgame.Coordinator, *chat.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.GlobalConfig = &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", Expire: 1},
	}

	hub := chat.NewHub(8, nil)
	coordinator := cardgame.NewCoordinator(cardgame.Options{Notifier: hub})
	r := gin.New()
	r.GET("/ws/chat", middleware.OptionalAuth(), ws.NewHandler(coordinator, hub).HandleChatWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, coordinator, hub
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial failed: %v (status %d)", err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) chat.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt chat.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return evt
}

func waitViewers(t *testing.T, hub *chat.Hub, matchID int64, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Viewers(matchID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d viewers, have %d", want, hub.Viewers(matchID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestChatRoundTrip(t *testing.T) {
	srv, _, hub := newTestServer(t)
	token, err := pkgAuth.GenerateGuestToken("guest-1", "Guest001")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	player := dial(t, srv, "?matchId=1&token="+token)
	watcher := dial(t, srv, "")
	for _, conn := range []*websocket.Conn{player, watcher} {
		if evt := readEvent(t, conn); evt.Type != chat.EventHello || evt.MatchID != 1 {
			t.Fatalf("expected hello, got %+v", evt)
		}
	}
	waitViewers(t, hub, 1, 2)

	if err := player.WriteJSON(map[string]string{"type": "chat", "text": "  good luck  "}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, conn := range []*websocket.Conn{player, watcher} {
		evt := readEvent(t, conn)
		if evt.Type != chat.EventChat || evt.Text != "good luck" || evt.PlayerID != "guest-1" {
			t.Fatalf("unexpected chat event: %+v", evt)
		}
	}

	// plain text frames are chat too
	if err := player.WriteMessage(websocket.TextMessage, []byte("gg")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if evt := readEvent(t, watcher); evt.Text != "gg" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestBlankChatRejectedAndAnonymousChatDelivered(t *testing.T) {
	srv, _, _ := newTestServer(t)
	token, _ := pkgAuth.GenerateGuestToken("guest-2", "Guest002")

	player := dial(t, srv, "?token="+token)
	readEvent(t, player)
	player.WriteJSON(map[string]string{"type": "chat", "text": "   "})
	if evt := readEvent(t, player); evt.Type != chat.EventError {
		t.Fatalf("expected error frame for blank chat, got %+v", evt)
	}

	watcher := dial(t, srv, "")
	readEvent(t, watcher)
	watcher.WriteJSON(map[string]string{"type": "chat", "text": "hello"})
	for _, conn := range []*websocket.Conn{watcher, player} {
		evt := readEvent(t, conn)
		if evt.Type != chat.EventChat || evt.Text != "hello" || evt.PlayerID != "" {
			t.Fatalf("expected anonymous chat without playerId, got %+v", evt)
		}
	}
}

func TestUnknownMatchRejectedBeforeUpgrade(t *testing.T) {
	srv, _, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?matchId=99"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}
}

func TestEndGameClosesEveryViewer(t *testing.T) {
	srv, _, hub := newTestServer(t)
	token, _ := pkgAuth.GenerateGuestToken("guest-3", "Guest003")

	player := dial(t, srv, "?token="+token)
	watcher := dial(t, srv, "")
	readEvent(t, player)
	readEvent(t, watcher)
	waitViewers(t, hub, 1, 2)

	player.WriteJSON(map[string]string{"type": "end-game"})

	watcher.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := watcher.ReadMessage(); err == nil {
		t.Fatalf("expected watcher connection to close")
	}
	waitViewers(t, hub, 1, 0)
}

func TestResetDetachesSpectators(t *testing.T) {
	srv, coordinator, hub := newTestServer(t)
	watcher := dial(t, srv, "")
	readEvent(t, watcher)
	waitViewers(t, hub, 1, 1)

	coordinator.Reset()

	watcher.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := watcher.ReadMessage(); err == nil {
		t.Fatalf("expected watcher connection to close after reset")
	}
	if hub.Viewers(1) != 0 {
		t.Fatalf("expected no viewers for old match")
	}
}
