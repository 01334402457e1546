package cardgame

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"arena-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	stateKey           = "arena:cardgame:state"
	mirrorWriteTimeout = 2 * time.Second
)

// RedisMirror keeps the latest MatchState in redis so pollers outside the
// process can read it and the match id survives a restart. Store only
// records the newest state; Run writes it out.
type RedisMirror struct {
	rdb *redis.Client

	mu      sync.Mutex
	pending *MatchState
	wake    chan struct{}
}

func NewRedisMirror(rdb *redis.Client) *RedisMirror {
	return &RedisMirror{
		rdb:  rdb,
		wake: make(chan struct{}, 1),
	}
}

func (m *RedisMirror) Store(state MatchState) {
	m.mu.Lock()
	m.pending = &state
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *RedisMirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.flush(context.Background())
			return
		case <-m.wake:
			m.flush(ctx)
		}
	}
}

func (m *RedisMirror) flush(ctx context.Context) {
	m.mu.Lock()
	state := m.pending
	m.pending = nil
	m.mu.Unlock()
	if state == nil {
		return
	}

	data, err := json.Marshal(state)
	if err != nil {
		logger.Log.Error("encode match state failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, mirrorWriteTimeout)
	defer cancel()
	if err := m.rdb.Set(ctx, stateKey, data, 0).Err(); err != nil {
		logger.Log.Warn("mirror match state failed", zap.Int64("matchID", state.MatchID), zap.Error(err))
	}
}

// Load returns the last mirrored state, ok=false when none was stored.
func (m *RedisMirror) Load(ctx context.Context) (MatchState, bool, error) {
	raw, err := m.rdb.Get(ctx, stateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return MatchState{}, false, nil
	}
	if err != nil {
		return MatchState{}, false, err
	}
	var state MatchState
	if err := json.Unmarshal(raw, &state); err != nil {
		return MatchState{}, false, err
	}
	return state, true, nil
}

// ResumeMatchID picks the match id to open after a restart. Rosters are not
// persisted, so a match that had left idle cannot be continued and the next
// id is used instead.
func ResumeMatchID(last MatchState) int64 {
	if last.MatchID <= 0 {
		return 1
	}
	if last.Phase == PhaseIdle {
		return last.MatchID
	}
	return last.MatchID + 1
}
