package cardgame

import (
	"sync"
	"time"

	appErr "arena-service/pkg/errors"
)

type matchRoster struct {
	entries map[string]*RosterEntry
	order   map[Side][]string
}

// Roster tracks which players joined which side of a match and the hand
// dealt to each of them.
type Roster struct {
	mu      sync.RWMutex
	matches map[int64]*matchRoster
}

func NewRoster() *Roster {
	return &Roster{matches: make(map[int64]*matchRoster)}
}

func (r *Roster) Join(matchID int64, playerID string, side Side, stake int64) (RosterEntry, error) {
	if !side.Valid() {
		return RosterEntry{}, appErr.ErrInvalidSide
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[matchID]
	if !ok {
		m = &matchRoster{entries: make(map[string]*RosterEntry), order: make(map[Side][]string)}
		r.matches[matchID] = m
	}
	if _, exists := m.entries[playerID]; exists {
		return RosterEntry{}, appErr.ErrAlreadyJoined
	}

	entry := &RosterEntry{
		MatchID:  matchID,
		PlayerID: playerID,
		Side:     side,
		Stake:    stake,
		JoinedAt: time.Now(),
	}
	m.entries[playerID] = entry
	m.order[side] = append(m.order[side], playerID)
	return copyEntry(entry), nil
}

// RosterOf lists a side's players in join order. The first one represents
// the side in logs and ledger records.
func (r *Roster) RosterOf(matchID int64, side Side) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[matchID]
	if !ok {
		return []string{}
	}
	return append([]string{}, m.order[side]...)
}

func (r *Roster) Count(matchID int64, side Side) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.matches[matchID]; ok {
		return len(m.order[side])
	}
	return 0
}

// DealHands gives every entry that has not been dealt yet a hand from the
// dealer, side A first, each side in join order.
func (r *Roster) DealHands(matchID int64, dealer Dealer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[matchID]
	if !ok {
		return
	}
	for _, side := range []Side{SideA, SideB} {
		for _, pid := range m.order[side] {
			entry := m.entries[pid]
			if entry.dealt {
				continue
			}
			entry.Hand = dealer.Deal()
			entry.dealt = true
		}
	}
}

// Undeal takes every hand back so a later DealHands deals afresh.
func (r *Roster) Undeal(matchID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[matchID]
	if !ok {
		return
	}
	for _, entry := range m.entries {
		entry.Hand = nil
		entry.dealt = false
	}
}

func (r *Roster) Entry(matchID int64, playerID string) (RosterEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry := r.lookupLocked(matchID, playerID)
	if entry == nil {
		return RosterEntry{}, false
	}
	return copyEntry(entry), true
}

func (r *Roster) Hand(matchID int64, playerID string) ([]CardID, bool) {
	entry, ok := r.Entry(matchID, playerID)
	if !ok {
		return nil, false
	}
	return entry.Hand, true
}

// TakeCard removes the card at index from the player's hand, keeping the
// order of the rest.
func (r *Roster) TakeCard(matchID int64, playerID string, index int) (CardID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.lookupLocked(matchID, playerID)
	if entry == nil {
		return 0, appErr.ErrNotJoined
	}
	if index < 0 || index >= len(entry.Hand) {
		return 0, appErr.ErrInvalidCardIndex
	}
	card := entry.Hand[index]
	entry.Hand = append(entry.Hand[:index], entry.Hand[index+1:]...)
	return card, nil
}

func (r *Roster) CardsRemaining(matchID int64, side Side) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[matchID]
	if !ok {
		return 0
	}
	total := 0
	for _, pid := range m.order[side] {
		total += len(m.entries[pid].Hand)
	}
	return total
}

func (r *Roster) StakeTotal(matchID int64) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[matchID]
	if !ok {
		return 0
	}
	var total int64
	for _, entry := range m.entries {
		total += entry.Stake
	}
	return total
}

func (r *Roster) Clear(matchID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.matches, matchID)
}

func (r *Roster) lookupLocked(matchID int64, playerID string) *RosterEntry {
	m, ok := r.matches[matchID]
	if !ok {
		return nil
	}
	return m.entries[playerID]
}

func copyEntry(e *RosterEntry) RosterEntry {
	out := *e
	out.Hand = append([]CardID{}, e.Hand...)
	return out
}
