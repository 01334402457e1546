package ledger

import (
	"context"
	"encoding/json"
	"errors"

	"arena-service/internal/model"
	"arena-service/internal/service/cardgame"
	appErr "arena-service/pkg/errors"
	"arena-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultFeeBps = 300
	bpsDenom      = 10000
)

// Service stores concluded matches and the prize split owed to the winners.
// Paying out is left to whoever reads the ledger.
type Service struct {
	db     *gorm.DB
	feeBps int64
}

func NewService(db *gorm.DB, feeBps int64) *Service {
	if feeBps < 0 || feeBps > bpsDenom {
		feeBps = DefaultFeeBps
	}
	return &Service{db: db, feeBps: feeBps}
}

type playersRecord struct {
	A []string `json:"a"`
	B []string `json:"b"`
}

// Split returns the house fee and the winners' payout for a prize pool. On a
// draw the payout is shared by both sides.
func (s *Service) Split(pool int64) (fee, payout int64) {
	if pool <= 0 {
		return 0, 0
	}
	fee = pool * s.feeBps / bpsDenom
	return fee, pool - fee
}

func (s *Service) Record(ctx context.Context, result cardgame.Result) error {
	if result.MatchID <= 0 || (!result.Winner.Valid() && result.Winner != cardgame.SideDraw) {
		return errors.New("ledger: incomplete match result")
	}

	fee, payout := s.Split(result.PrizePool)
	record := model.MatchRecord{
		MatchID:     result.MatchID,
		Winner:      result.Winner.String(),
		HealthA:     result.Health.A,
		HealthB:     result.Health.B,
		PrizePool:   result.PrizePool,
		Fee:         fee,
		Payout:      payout,
		Plays:       len(result.Plays),
		PlayersJSON: mustJSON(playersRecord{A: result.PlayersA, B: result.PlayersB}),
		PlaysJSON:   mustJSON(result.Plays),
		StartedAt:   result.StartedAt,
		ConcludedAt: result.ConcludedAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.MatchRecord{}).Where("match_id = ?", result.MatchID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return appErr.ErrMatchAlreadyRecorded
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return err
	}

	logger.Log.Info("match recorded",
		zap.Int64("matchID", result.MatchID),
		zap.String("winner", record.Winner),
		zap.Int64("prizePool", record.PrizePool),
		zap.Int64("fee", fee),
		zap.Int64("payout", payout),
	)
	return nil
}

type ListResult struct {
	Items []model.MatchRecord `json:"items"`
	Total int64               `json:"total"`
}

func (s *Service) List(ctx context.Context, page, size int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.MatchRecord{}).
		Count(&total).Error; err != nil {
		return nil, err
	}

	items := []model.MatchRecord{}
	if total > 0 {
		offset := (page - 1) * size
		if err := s.db.WithContext(ctx).
			Model(&model.MatchRecord{}).
			Order("match_id DESC").
			Limit(size).
			Offset(offset).
			Find(&items).Error; err != nil {
			return nil, err
		}
	}

	return &ListResult{Items: items, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, matchID int64) (*model.MatchRecord, error) {
	var record model.MatchRecord
	err := s.db.WithContext(ctx).Where("match_id = ?", matchID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErr.ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// LastMatchID is the highest recorded match id, 0 for an empty ledger.
func (s *Service) LastMatchID(ctx context.Context) (int64, error) {
	var last int64
	err := s.db.WithContext(ctx).
		Model(&model.MatchRecord{}).
		Select("COALESCE(MAX(match_id), 0)").
		Scan(&last).Error
	return last, err
}

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(b)
}
