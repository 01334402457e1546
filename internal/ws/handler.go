package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"arena-service/internal/middleware"
	"arena-service/internal/service/cardgame"
	"arena-service/internal/service/chat"
	"arena-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingPeriod   = 25 * time.Second
	writeWait    = 5 * time.Second
	maxTextBytes = 500
)

type Handler struct {
	coordinator *cardgame.Coordinator
	hub         *chat.Hub
}

func NewHandler(coordinator *cardgame.Coordinator, hub *chat.Hub) *Handler {
	return &Handler{coordinator: coordinator, hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

type incomingMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HandleChatWS attaches a spectator to the current match. A token is
// optional; anonymous chat goes out without a playerId. If the match is
// reset before the attach lands the viewer gets matchEnded and a close.
func (h *Handler) HandleChatWS(c *gin.Context) {
	matchID := h.coordinator.MatchID()
	if raw := c.Query("matchId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
			return
		}
		if id != matchID {
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			return
		}
	}

	playerID, _ := middleware.PlayerID(c)
	viewerID := playerID
	if viewerID == "" {
		viewerID = "viewer-" + uuid.NewString()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New spectator connection",
		zap.Int64("matchID", matchID),
		zap.String("viewerID", viewerID),
	)

	client := newClient(conn, h.hub, h.hub.Attach(matchID, viewerID), playerID)
	client.run()
}

type client struct {
	conn     *websocket.Conn
	hub      *chat.Hub
	sub      *chat.Subscription
	playerID string
	// direct carries replies for this connection only.
	direct chan chat.Event
	done   chan struct{}
}

func newClient(conn *websocket.Conn, hub *chat.Hub, sub *chat.Subscription, playerID string) *client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &client{
		conn:     conn,
		hub:      hub,
		sub:      sub,
		playerID: playerID,
		direct:   make(chan chat.Event, 4),
		done:     make(chan struct{}),
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.sub.Close()
		c.conn.Close()
	}()

	matchID := c.sub.MatchID()
	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Debug("WS read error", zap.Error(err), zap.Int64("matchID", matchID))
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		msg := parseIncoming(message)
		switch msg.Type {
		case "end-game":
			logger.Log.Info("end-game requested", zap.Int64("matchID", matchID), zap.String("playerID", c.playerID))
			c.hub.DetachAll(matchID)
			return
		case "chat":
			text := strings.TrimSpace(msg.Text)
			switch {
			case text == "":
				c.reply("empty message")
			case len(text) > maxTextBytes:
				c.reply("message too long")
			default:
				c.hub.Chat(matchID, c.playerID, text)
			}
		default:
			c.reply("unsupported message type")
		}
	}
}

// parseIncoming accepts JSON frames and treats anything else as chat text.
func parseIncoming(raw []byte) incomingMessage {
	var msg incomingMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		return incomingMessage{Type: "chat", Text: string(raw)}
	}
	return msg
}

func (c *client) reply(text string) {
	select {
	case c.direct <- chat.Event{Type: chat.EventError, MatchID: c.sub.MatchID(), Text: text}:
	default:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	events := c.sub.Events()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match closed"),
					time.Now().Add(writeWait))
				return
			}
			if !c.write(evt) {
				return
			}
		case evt := <-c.direct:
			if !c.write(evt) {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) write(evt chat.Event) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(evt); err != nil {
		logger.Log.Debug("WS write error", zap.Error(err), zap.Int64("matchID", c.sub.MatchID()))
		return false
	}
	return true
}
