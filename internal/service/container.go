package service

import (
	"context"
	"time"

	"arena-service/internal/config"
	"arena-service/internal/metrics"
	"arena-service/internal/service/cardgame"
	"arena-service/internal/service/chat"
	"arena-service/internal/service/ledger"
	"arena-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const restoreTimeout = 3 * time.Second

type Container struct {
	Coordinator *cardgame.Coordinator
	Hub         *chat.Hub
	Ledger      *ledger.Service
	Metrics     *metrics.Metrics
	Mirror      *cardgame.RedisMirror
}

// NewContainer wires the card game. rdb may be nil, in which case the match
// state is not mirrored and the match id resumes from the ledger only.
func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	cfg := config.GlobalConfig.CardGame
	m := metrics.New()
	hub := chat.NewHub(config.GlobalConfig.Spectator.Buffer, m)
	ledgerSvc := ledger.NewService(db, cfg.FeeBps)

	var mirror *cardgame.RedisMirror
	if rdb != nil {
		mirror = cardgame.NewRedisMirror(rdb)
	}

	catalog := cardgame.DefaultCatalog()
	opts := cardgame.Options{
		Catalog:        catalog,
		Dealer:         cardgame.NewRandomDealer(catalog, cfg.HandSize, cfg.DealSeed),
		StartingHealth: cfg.StartingHealth,
		StartingSide:   cardgame.SideA,
		MinStake:       cfg.MinStake,
		AutoBegin:      cfg.AutoBegin,
		InitialMatchID: resumeMatchID(ledgerSvc, mirror),
		Notifier:       hub,
		Recorder:       ledgerSvc,
		Observer:       m,
	}
	if mirror != nil {
		opts.Mirror = mirror
	}

	return &Container{
		Coordinator: cardgame.NewCoordinator(opts),
		Hub:         hub,
		Ledger:      ledgerSvc,
		Metrics:     m,
		Mirror:      mirror,
	}
}

func resumeMatchID(ledgerSvc *ledger.Service, mirror *cardgame.RedisMirror) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	next := int64(1)
	if last, err := ledgerSvc.LastMatchID(ctx); err != nil {
		logger.Log.Warn("read last recorded match failed", zap.Error(err))
	} else if last+1 > next {
		next = last + 1
	}
	if mirror != nil {
		state, ok, err := mirror.Load(ctx)
		if err != nil {
			logger.Log.Warn("load mirrored match state failed", zap.Error(err))
		} else if ok {
			next = max(next, cardgame.ResumeMatchID(state))
		}
	}
	logger.Log.Info("card game ready", zap.Int64("matchID", next))
	return next
}

func (c *Container) Start(ctx context.Context) error {
	if c.Mirror != nil {
		go c.Mirror.Run(ctx)
	}
	return nil
}
