package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"arena-service/internal/middleware"
	"arena-service/internal/service"
	"arena-service/internal/service/cardgame"
	"arena-service/internal/ws"
	pkgAuth "arena-service/pkg/auth"
	"arena-service/pkg/response"
	"arena-service/pkg/utils/random"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Coordinator, services.Hub)

	r.Use(services.Metrics.Middleware())

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(services.Metrics.Handler()))

	v1 := r.Group("/arena/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/guest", handler.GuestLogin)
		}

		game := v1.Group("/cardgame")
		{
			game.GET("/state", handler.GetState)
			game.GET("/roster/:side", handler.GetRoster)
			game.GET("/catalog", handler.GetCatalog)
			game.GET("/plays", handler.GetPlays)
			game.GET("/history", handler.ListHistory)
			game.GET("/history/:matchId", handler.GetHistory)

			player := game.Group("/")
			player.Use(middleware.AuthRequired())
			{
				player.POST("/join", handler.Join)
				player.POST("/begin", handler.Begin)
				player.POST("/play", handler.PlayCard)
				player.POST("/reset", handler.Reset)
				player.GET("/hand", handler.GetHand)
			}
		}
	}

	r.GET("/ws/chat", middleware.OptionalAuth(), wsHandler.HandleChatWS)
}

type guestLoginBody struct {
	Username string `json:"username" binding:"omitempty,max=32"`
}

type joinBody struct {
	Side  string `json:"side"`
	Stake int64  `json:"stake" binding:"min=0"`
}

type playBody struct {
	Index *int `json:"index" binding:"required"`
}

type handCard struct {
	Index  int             `json:"index"`
	CardID cardgame.CardID `json:"cardId"`
	Damage int             `json:"damage"`
}

// GuestLogin issues a guest identity so a browser without an account can
// join and chat.
func (h *Handler) GuestLogin(c *gin.Context) {
	var body guestLoginBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		username = random.GuestName()
	}
	playerID := "guest-" + uuid.NewString()

	token, err := pkgAuth.GenerateGuestToken(playerID, username)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	response.Success(c, gin.H{
		"token":    token,
		"playerId": playerID,
		"username": username,
	})
}

func (h *Handler) Join(c *gin.Context) {
	playerID, ok := middleware.PlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body joinBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	side, err := cardgame.ParseSide(body.Side)
	if err != nil {
		response.FromError(c, err)
		return
	}

	entry, err := h.services.Coordinator.Join(playerID, side, body.Stake)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{
		"entry": entry,
		"state": h.services.Coordinator.State(),
	})
}

func (h *Handler) Begin(c *gin.Context) {
	playerID, _ := middleware.PlayerID(c)
	state, err := h.services.Coordinator.Begin(playerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *Handler) PlayCard(c *gin.Context) {
	playerID, ok := middleware.PlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body playBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.services.Coordinator.PlayCard(playerID, *body.Index)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *Handler) Reset(c *gin.Context) {
	response.Success(c, h.services.Coordinator.Reset())
}

func (h *Handler) GetState(c *gin.Context) {
	response.Success(c, h.services.Coordinator.State())
}

func (h *Handler) GetRoster(c *gin.Context) {
	side, err := cardgame.ParseSide(c.Param("side"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	// auto is not a side to list
	players, err := h.services.Coordinator.Roster(side)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{
		"matchId": h.services.Coordinator.MatchID(),
		"side":    side.String(),
		"players": players,
	})
}

func (h *Handler) GetHand(c *gin.Context) {
	playerID, _ := middleware.PlayerID(c)
	hand, err := h.services.Coordinator.Hand(playerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	catalog := h.services.Coordinator.Catalog()
	cards := make([]handCard, 0, len(hand))
	for i, id := range hand {
		cards = append(cards, handCard{Index: i, CardID: id, Damage: catalog.DamageOf(id)})
	}
	response.Success(c, gin.H{
		"matchId": h.services.Coordinator.MatchID(),
		"cards":   cards,
	})
}

func (h *Handler) GetCatalog(c *gin.Context) {
	response.Success(c, h.services.Coordinator.Catalog().Cards())
}

func (h *Handler) GetPlays(c *gin.Context) {
	response.Success(c, gin.H{
		"matchId": h.services.Coordinator.MatchID(),
		"plays":   h.services.Coordinator.Plays(),
	})
}

func (h *Handler) ListHistory(c *gin.Context) {
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Ledger.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{
		"items": result.Items,
		"total": result.Total,
		"page":  page,
		"size":  size,
	})
}

func (h *Handler) GetHistory(c *gin.Context) {
	matchID, err := strconv.ParseInt(c.Param("matchId"), 10, 64)
	if err != nil || matchID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid match id")
		return
	}
	record, err := h.services.Ledger.Get(c.Request.Context(), matchID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, record)
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}
