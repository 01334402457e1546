package cardgame

import (
	"strings"
	"time"

	appErr "arena-service/pkg/errors"
)

type Side int

const (
	SideNone Side = 0
	SideA    Side = 1
	SideB    Side = 2
	// SideDraw is the winner of a match that ran out of cards on equal health.
	SideDraw Side = 3
	// SideAuto asks Join to pick the side with fewer members.
	SideAuto Side = -1
)

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	case SideDraw:
		return "draw"
	case SideAuto:
		return "auto"
	default:
		return "none"
	}
}

// ParseSide accepts A/B, the legacy team numbers 1/2 and red/blue, and auto.
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "a", "1", "red":
		return SideA, nil
	case "b", "2", "blue":
		return SideB, nil
	case "", "auto":
		return SideAuto, nil
	default:
		return SideNone, appErr.ErrInvalidSide
	}
}

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseActive    Phase = "active"
	PhaseConcluded Phase = "concluded"
)

// PerSide holds one integer for each side.
type PerSide struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (p PerSide) Of(s Side) int {
	if s == SideB {
		return p.B
	}
	return p.A
}

func (p *PerSide) Set(s Side, v int) {
	if s == SideB {
		p.B = v
		return
	}
	p.A = v
}

func (p PerSide) clamped() PerSide {
	return PerSide{A: max(p.A, 0), B: max(p.B, 0)}
}

type MatchState struct {
	MatchID        int64     `json:"matchId"`
	Phase          Phase     `json:"phase"`
	Turn           Side      `json:"turn"`
	Health         PerSide   `json:"health"`
	CardsRemaining PerSide   `json:"cardsRemaining"`
	Players        PerSide   `json:"players"`
	Winner         Side      `json:"winner"`
	PrizePool      int64     `json:"prizePool"`
	LastActionAt   time.Time `json:"lastActionAt"`
}

type RosterEntry struct {
	MatchID  int64     `json:"matchId"`
	PlayerID string    `json:"playerId"`
	Side     Side      `json:"side"`
	Stake    int64     `json:"stake"`
	Hand     []CardID  `json:"hand"`
	JoinedAt time.Time `json:"joinedAt"`

	dealt bool
}

// PlayRecord is one accepted PlayCard. HealthAfter keeps the signed value.
type PlayRecord struct {
	ID          string    `json:"id"`
	Seq         int       `json:"seq"`
	PlayerID    string    `json:"playerId"`
	Side        Side      `json:"side"`
	CardID      CardID    `json:"cardId"`
	Damage      int       `json:"damage"`
	HealthAfter int       `json:"healthAfter"`
	At          time.Time `json:"at"`
}

// Result describes a concluded match for the ledger.
type Result struct {
	MatchID     int64        `json:"matchId"`
	Winner      Side         `json:"winner"`
	Health      PerSide      `json:"health"`
	PrizePool   int64        `json:"prizePool"`
	PlayersA    []string     `json:"playersA"`
	PlayersB    []string     `json:"playersB"`
	Plays       []PlayRecord `json:"plays"`
	StartedAt   time.Time    `json:"startedAt"`
	ConcludedAt time.Time    `json:"concludedAt"`
}
