package errors

import "errors"

// Card game
var (
	ErrAlreadyJoined    = errors.New("player already joined this match")
	ErrInvalidSide      = errors.New("invalid side")
	ErrInvalidStake     = errors.New("invalid stake amount")
	ErrNotEnoughPlayers = errors.New("both sides need at least one player")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidCardIndex = errors.New("invalid card index")
	ErrMatchNotActive   = errors.New("match is not active")
	ErrMatchNotIdle     = errors.New("match already started")
	ErrMatchInProgress  = errors.New("match in progress, joining is closed")
	ErrNotJoined        = errors.New("player has not joined this match")
	ErrEmptyDeal        = errors.New("dealer produced no cards for either side")
)

// Spectator / ledger
var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchAlreadyRecorded = errors.New("match already recorded")
)

// Auth
var (
	ErrUnauthorized = errors.New("unauthorized")
)
