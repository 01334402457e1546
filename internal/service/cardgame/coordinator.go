package cardgame

import (
	"context"
	"errors"
	"sync"
	"time"

	appErr "arena-service/pkg/errors"
	"arena-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultStartingHealth = 100
	recordTimeout         = 5 * time.Second
)

// Notifier receives match lifecycle signals for spectators.
type Notifier interface {
	EndMatch(matchID int64)
	CloseMatch(matchID int64)
}

// StateMirror gets a copy of every state change. Store must not block.
type StateMirror interface {
	Store(state MatchState)
}

type Recorder interface {
	Record(ctx context.Context, result Result) error
}

type Observer interface {
	CardPlayed(side string, damage int)
	PlayRejected(reason string)
	MatchConcluded(winner string)
	MatchReset()
}

type Options struct {
	Catalog        *Catalog
	Roster         *Roster
	Dealer         Dealer
	StartingHealth int
	StartingSide   Side
	MinStake       int64
	AutoBegin      bool
	// InitialMatchID is the id of the first match, 1 when zero.
	InitialMatchID int64

	Notifier Notifier
	Mirror   StateMirror
	Recorder Recorder
	Observer Observer
}

// Coordinator owns the single live match. Every mutation runs under mu;
// reads take the read lock and return clamped copies.
type Coordinator struct {
	mu sync.RWMutex

	catalog        *Catalog
	roster         *Roster
	dealer         Dealer
	startingHealth int
	startingSide   Side
	minStake       int64
	autoBegin      bool

	state     MatchState
	plays     []PlayRecord
	startedAt time.Time

	notifier Notifier
	mirror   StateMirror
	recorder Recorder
	observer Observer
}

func NewCoordinator(opts Options) *Coordinator {
	c := &Coordinator{
		catalog:        opts.Catalog,
		roster:         opts.Roster,
		dealer:         opts.Dealer,
		startingHealth: opts.StartingHealth,
		startingSide:   opts.StartingSide,
		minStake:       opts.MinStake,
		autoBegin:      opts.AutoBegin,
		notifier:       opts.Notifier,
		mirror:         opts.Mirror,
		recorder:       opts.Recorder,
		observer:       opts.Observer,
	}
	if c.catalog == nil {
		c.catalog = DefaultCatalog()
	}
	if c.roster == nil {
		c.roster = NewRoster()
	}
	if c.dealer == nil {
		c.dealer = NewRandomDealer(c.catalog, DefaultHandSize, 0)
	}
	if c.startingHealth <= 0 {
		c.startingHealth = DefaultStartingHealth
	}
	if !c.startingSide.Valid() {
		c.startingSide = SideA
	}
	matchID := opts.InitialMatchID
	if matchID <= 0 {
		matchID = 1
	}
	c.state = c.idleState(matchID)
	return c
}

func (c *Coordinator) idleState(matchID int64) MatchState {
	return MatchState{
		MatchID: matchID,
		Phase:   PhaseIdle,
		Health:  PerSide{A: c.startingHealth, B: c.startingHealth},
	}
}

func (c *Coordinator) Catalog() *Catalog {
	return c.catalog
}

// Join registers playerID on side for the current match. SideAuto picks the
// side with fewer members, A on a tie.
func (c *Coordinator) Join(playerID string, side Side, stake int64) (RosterEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if playerID == "" {
		return RosterEntry{}, appErr.ErrUnauthorized
	}
	if c.state.Phase != PhaseIdle {
		return RosterEntry{}, appErr.ErrMatchInProgress
	}
	if stake < 0 || stake < c.minStake {
		return RosterEntry{}, appErr.ErrInvalidStake
	}
	if side == SideAuto {
		side = SideA
		if c.state.Players.B < c.state.Players.A {
			side = SideB
		}
	}

	matchID := c.state.MatchID
	entry, err := c.roster.Join(matchID, playerID, side, stake)
	if err != nil {
		return RosterEntry{}, err
	}

	c.state.Players.Set(side, c.state.Players.Of(side)+1)
	c.state.PrizePool += stake
	c.state.LastActionAt = time.Now()
	logger.Log.Info("player joined",
		zap.Int64("matchID", matchID),
		zap.String("playerID", playerID),
		zap.Stringer("side", side),
		zap.Int64("stake", stake),
	)

	if c.autoBegin && c.state.Players.A > 0 && c.state.Players.B > 0 {
		if err := c.beginLocked(playerID); err != nil {
			logger.Log.Warn("auto begin failed", zap.Int64("matchID", matchID), zap.Error(err))
		}
		entry, _ = c.roster.Entry(matchID, playerID)
	}
	c.mirrorLocked()
	return entry, nil
}

func (c *Coordinator) Begin(requesterID string) (MatchState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseIdle {
		return MatchState{}, appErr.ErrMatchNotIdle
	}
	if c.state.Players.A == 0 || c.state.Players.B == 0 {
		return MatchState{}, appErr.ErrNotEnoughPlayers
	}
	if err := c.beginLocked(requesterID); err != nil {
		return MatchState{}, err
	}
	c.mirrorLocked()
	return c.snapshotLocked(), nil
}

// beginLocked deals and activates the match. A deal that leaves both sides
// empty is taken back and the match stays idle.
func (c *Coordinator) beginLocked(requesterID string) error {
	matchID := c.state.MatchID
	c.roster.DealHands(matchID, c.dealer)
	cards := PerSide{
		A: c.roster.CardsRemaining(matchID, SideA),
		B: c.roster.CardsRemaining(matchID, SideB),
	}
	if cards.A == 0 && cards.B == 0 {
		c.roster.Undeal(matchID)
		return appErr.ErrEmptyDeal
	}

	now := time.Now()
	c.state.Phase = PhaseActive
	c.state.Health = PerSide{A: c.startingHealth, B: c.startingHealth}
	c.state.CardsRemaining = cards
	c.state.Winner = SideNone
	c.state.Turn = SideNone
	c.state.LastActionAt = now
	c.plays = nil
	c.startedAt = now

	logger.Log.Info("match started",
		zap.Int64("matchID", matchID),
		zap.String("requesterID", requesterID),
		zap.Int("cardsA", c.state.CardsRemaining.A),
		zap.Int("cardsB", c.state.CardsRemaining.B),
	)
	c.passTurnLocked(c.startingSide.Opponent())
	return nil
}

// PlayCard plays the card at index of the caller's hand against the
// opposing side.
func (c *Coordinator) PlayCard(playerID string, index int) (MatchState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.playLocked(playerID, index)
	if err != nil {
		if c.observer != nil {
			c.observer.PlayRejected(rejectReason(err))
		}
		return MatchState{}, err
	}
	return state, nil
}

func (c *Coordinator) playLocked(playerID string, index int) (MatchState, error) {
	if c.state.Phase != PhaseActive {
		return MatchState{}, appErr.ErrMatchNotActive
	}
	matchID := c.state.MatchID
	entry, ok := c.roster.Entry(matchID, playerID)
	if !ok {
		return MatchState{}, appErr.ErrNotJoined
	}
	side := entry.Side
	if side != c.state.Turn {
		return MatchState{}, appErr.ErrNotYourTurn
	}
	card, err := c.roster.TakeCard(matchID, playerID, index)
	if err != nil {
		return MatchState{}, err
	}

	damage := c.catalog.DamageOf(card)
	opponent := side.Opponent()
	health := c.state.Health.Of(opponent) - damage
	c.state.Health.Set(opponent, health)
	c.state.CardsRemaining.Set(side, c.roster.CardsRemaining(matchID, side))
	now := time.Now()
	c.state.LastActionAt = now

	c.plays = append(c.plays, PlayRecord{
		ID:          uuid.NewString(),
		Seq:         len(c.plays) + 1,
		PlayerID:    playerID,
		Side:        side,
		CardID:      card,
		Damage:      damage,
		HealthAfter: health,
		At:          now,
	})
	if c.observer != nil {
		c.observer.CardPlayed(side.String(), damage)
	}
	logger.Log.Debug("card played",
		zap.Int64("matchID", matchID),
		zap.String("playerID", playerID),
		zap.Int("cardID", int(card)),
		zap.Int("damage", damage),
		zap.Int("opponentHealth", health),
	)

	if health <= 0 {
		c.concludeLocked(side)
	} else {
		c.passTurnLocked(side)
	}
	c.mirrorLocked()
	return c.snapshotLocked(), nil
}

// passTurnLocked hands the turn away from current. A side without cards is
// skipped; when neither side has cards the match is decided on health, and
// equal health is a draw.
func (c *Coordinator) passTurnLocked(current Side) {
	next := current.Opponent()
	switch {
	case c.state.CardsRemaining.Of(next) > 0:
		c.state.Turn = next
	case c.state.CardsRemaining.Of(current) > 0:
		c.state.Turn = current
	default:
		winner := SideDraw
		switch {
		case c.state.Health.A > c.state.Health.B:
			winner = SideA
		case c.state.Health.B > c.state.Health.A:
			winner = SideB
		}
		logger.Log.Info("both sides out of cards", zap.Int64("matchID", c.state.MatchID))
		c.concludeLocked(winner)
	}
}

func (c *Coordinator) concludeLocked(winner Side) {
	c.state.Phase = PhaseConcluded
	c.state.Winner = winner
	c.state.Turn = SideNone
	matchID := c.state.MatchID

	logger.Log.Info("match concluded",
		zap.Int64("matchID", matchID),
		zap.Stringer("winner", winner),
		zap.Int("healthA", c.state.Health.A),
		zap.Int("healthB", c.state.Health.B),
	)
	if c.notifier != nil {
		c.notifier.EndMatch(matchID)
	}
	if c.observer != nil {
		c.observer.MatchConcluded(winner.String())
	}
	if c.recorder != nil {
		go c.record(c.resultLocked())
	}
}

func (c *Coordinator) record(result Result) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := c.recorder.Record(ctx, result); err != nil {
		logger.Log.Error("record match result failed", zap.Int64("matchID", result.MatchID), zap.Error(err))
	}
}

func (c *Coordinator) resultLocked() Result {
	matchID := c.state.MatchID
	return Result{
		MatchID:     matchID,
		Winner:      c.state.Winner,
		Health:      c.state.Health.clamped(),
		PrizePool:   c.state.PrizePool,
		PlayersA:    c.roster.RosterOf(matchID, SideA),
		PlayersB:    c.roster.RosterOf(matchID, SideB),
		Plays:       append([]PlayRecord(nil), c.plays...),
		StartedAt:   c.startedAt,
		ConcludedAt: c.state.LastActionAt,
	}
}

// Reset discards the current match and opens the next one. It never fails.
func (c *Coordinator) Reset() MatchState {
	c.mu.Lock()
	defer c.mu.Unlock()

	oldID := c.state.MatchID
	c.roster.Clear(oldID)
	c.state = c.idleState(oldID + 1)
	c.state.LastActionAt = time.Now()
	c.plays = nil
	c.startedAt = time.Time{}

	logger.Log.Info("match reset", zap.Int64("previousMatchID", oldID), zap.Int64("matchID", c.state.MatchID))
	if c.notifier != nil {
		c.notifier.CloseMatch(oldID)
	}
	if c.observer != nil {
		c.observer.MatchReset()
	}
	c.mirrorLocked()
	return c.snapshotLocked()
}

func (c *Coordinator) State() MatchState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Coordinator) MatchID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.MatchID
}

func (c *Coordinator) Roster(side Side) ([]string, error) {
	if !side.Valid() {
		return nil, appErr.ErrInvalidSide
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roster.RosterOf(c.state.MatchID, side), nil
}

func (c *Coordinator) Hand(playerID string) ([]CardID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hand, ok := c.roster.Hand(c.state.MatchID, playerID)
	if !ok {
		return nil, appErr.ErrNotJoined
	}
	return hand, nil
}

func (c *Coordinator) Plays() []PlayRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]PlayRecord{}, c.plays...)
}

func (c *Coordinator) snapshotLocked() MatchState {
	out := c.state
	out.Health = out.Health.clamped()
	return out
}

func (c *Coordinator) mirrorLocked() {
	if c.mirror != nil {
		c.mirror.Store(c.snapshotLocked())
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, appErr.ErrMatchNotActive):
		return "not_active"
	case errors.Is(err, appErr.ErrNotJoined):
		return "not_joined"
	case errors.Is(err, appErr.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, appErr.ErrInvalidCardIndex):
		return "invalid_index"
	default:
		return "other"
	}
}
