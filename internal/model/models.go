package model

import (
	"time"

	"gorm.io/datatypes"
)

// MatchRecord is the append-only ledger row written when a match concludes.
type MatchRecord struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	MatchID     int64          `gorm:"uniqueIndex;not null" json:"matchId"`
	Winner      string         `gorm:"size:8;not null" json:"winner"` // A/B/draw
	HealthA     int            `json:"healthA"`
	HealthB     int            `json:"healthB"`
	PrizePool   int64          `json:"prizePool"`
	Fee         int64          `json:"fee"`
	Payout      int64          `json:"payout"`
	Plays       int            `json:"plays"`
	PlayersJSON datatypes.JSON `gorm:"type:jsonb" json:"players"`
	PlaysJSON   datatypes.JSON `gorm:"type:jsonb" json:"-"`
	StartedAt   time.Time      `json:"startedAt"`
	ConcludedAt time.Time      `json:"concludedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
}
