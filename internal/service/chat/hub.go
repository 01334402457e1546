package chat

import (
	"sync"
	"time"

	"arena-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultBuffer = 16

const (
	EventHello      = "hello"
	EventChat       = "chat"
	EventMatchEnded = "matchEnded"
	EventError      = "error"
)

type Event struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	MatchID   int64  `json:"matchId"`
	PlayerID  string `json:"playerId,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"ts,omitempty"`
}

type Observer interface {
	SpectatorsChanged(delta int)
	ChatPublished()
}

// Subscription is one viewer attached to a match channel.
type Subscription struct {
	hub      *Hub
	matchID  int64
	viewerID string
	ch       chan Event
}

func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) MatchID() int64 {
	return s.matchID
}

// Close detaches the viewer. Safe to call more than once and after the
// channel was torn down by DetachAll.
func (s *Subscription) Close() {
	s.hub.detach(s)
}

// Hub fans out chat and lifecycle events per match. Channels are closed
// only under the write lock and sends happen under the read lock, so a
// viewer is never sent to after eviction. Matches that ended or were reset
// are retired: a late Attach to one gets an already closed subscription.
type Hub struct {
	mu       sync.RWMutex
	buffer   int
	channels map[int64]map[*Subscription]struct{}
	retired  map[int64]struct{}
	observer Observer
}

func NewHub(buffer int, observer Observer) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer:   buffer,
		channels: make(map[int64]map[*Subscription]struct{}),
		retired:  make(map[int64]struct{}),
		observer: observer,
	}
}

// Attach subscribes viewerID to matchID. The first event on the
// subscription is a hello for that match. Attaching to a retired match
// yields a subscription holding only matchEnded, already closed.
func (h *Hub) Attach(matchID int64, viewerID string) *Subscription {
	sub := &Subscription{
		hub:      h,
		matchID:  matchID,
		viewerID: viewerID,
		ch:       make(chan Event, h.buffer),
	}

	h.mu.Lock()
	if _, gone := h.retired[matchID]; gone {
		h.mu.Unlock()
		sub.ch <- Event{Type: EventMatchEnded, MatchID: matchID, Timestamp: time.Now().UnixMilli()}
		close(sub.ch)
		logger.Log.Debug("spectator attached to retired match", zap.Int64("matchID", matchID), zap.String("viewerID", viewerID))
		return sub
	}
	sub.ch <- Event{Type: EventHello, MatchID: matchID, Timestamp: time.Now().UnixMilli()}
	viewers, ok := h.channels[matchID]
	if !ok {
		viewers = make(map[*Subscription]struct{})
		h.channels[matchID] = viewers
	}
	viewers[sub] = struct{}{}
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.SpectatorsChanged(1)
	}
	logger.Log.Debug("spectator attached", zap.Int64("matchID", matchID), zap.String("viewerID", viewerID))
	return sub
}

// Publish delivers evt to every viewer of matchID without blocking. A viewer
// whose buffer is full misses the event. Returns the number of deliveries.
func (h *Hub) Publish(matchID int64, evt Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.channels[matchID] {
		select {
		case sub.ch <- evt:
			delivered++
		default:
			logger.Log.Warn("spectator channel full", zap.Int64("matchID", matchID), zap.String("viewerID", sub.viewerID))
		}
	}
	return delivered
}

func (h *Hub) Chat(matchID int64, playerID, text string) int {
	if h.observer != nil {
		h.observer.ChatPublished()
	}
	return h.Publish(matchID, Event{
		Type:      EventChat,
		ID:        uuid.NewString(),
		MatchID:   matchID,
		PlayerID:  playerID,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
}

// EndMatch retires matchID, hands every viewer a final matchEnded event
// and closes them. A full buffer gives up its oldest event to make room.
func (h *Hub) EndMatch(matchID int64) {
	evt := Event{Type: EventMatchEnded, MatchID: matchID, Timestamp: time.Now().UnixMilli()}
	h.teardown(matchID, true, &evt)
}

// CloseMatch retires matchID and evicts its viewers without a final event.
func (h *Hub) CloseMatch(matchID int64) {
	h.teardown(matchID, true, nil)
}

// DetachAll evicts every viewer of matchID. The match stays open to new
// viewers.
func (h *Hub) DetachAll(matchID int64) {
	h.teardown(matchID, false, nil)
}

func (h *Hub) teardown(matchID int64, retire bool, final *Event) {
	h.mu.Lock()
	if retire {
		h.retired[matchID] = struct{}{}
	}
	viewers := h.channels[matchID]
	delete(h.channels, matchID)
	for sub := range viewers {
		if final != nil && !sendEvicting(sub.ch, *final) {
			logger.Log.Warn("final event dropped", zap.Int64("matchID", matchID), zap.String("viewerID", sub.viewerID))
		}
		close(sub.ch)
	}
	h.mu.Unlock()

	if n := len(viewers); n > 0 {
		if h.observer != nil {
			h.observer.SpectatorsChanged(-n)
		}
		logger.Log.Info("spectators detached", zap.Int64("matchID", matchID), zap.Int("count", n))
	}
}

// sendEvicting must run under the write lock so no other sender competes
// for the slot it frees.
func sendEvicting(ch chan Event, evt Event) bool {
	select {
	case ch <- evt:
		return true
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- evt:
		return true
	default:
		return false
	}
}

func (h *Hub) Viewers(matchID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[matchID])
}

func (h *Hub) detach(sub *Subscription) {
	h.mu.Lock()
	viewers, ok := h.channels[sub.matchID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := viewers[sub]; !ok {
		h.mu.Unlock()
		return
	}
	delete(viewers, sub)
	if len(viewers) == 0 {
		delete(h.channels, sub.matchID)
	}
	close(sub.ch)
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.SpectatorsChanged(-1)
	}
}
