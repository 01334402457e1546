package cardgame

import (
	"math/rand"
	"sync"
	"time"
)

const DefaultHandSize = 15

type Dealer interface {
	Deal() []CardID
}

// RandomDealer draws hands uniformly from a catalog. The same seed yields
// the same sequence of hands.
type RandomDealer struct {
	mu       sync.Mutex
	rng      *rand.Rand
	ids      []CardID
	handSize int
}

func NewRandomDealer(catalog *Catalog, handSize int, seed int64) *RandomDealer {
	if handSize <= 0 {
		handSize = DefaultHandSize
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomDealer{
		rng:      rand.New(rand.NewSource(seed)),
		ids:      catalog.IDs(),
		handSize: handSize,
	}
}

func (d *RandomDealer) Deal() []CardID {
	d.mu.Lock()
	defer d.mu.Unlock()

	hand := make([]CardID, d.handSize)
	for i := range hand {
		hand[i] = d.ids[d.rng.Intn(len(d.ids))]
	}
	return hand
}

// FixedDealer hands out scripted hands in order, wrapping around.
type FixedDealer struct {
	mu    sync.Mutex
	hands [][]CardID
	next  int
}

func NewFixedDealer(hands ...[]CardID) *FixedDealer {
	return &FixedDealer{hands: hands}
}

func (d *FixedDealer) Deal() []CardID {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.hands) == 0 {
		return []CardID{}
	}
	hand := d.hands[d.next%len(d.hands)]
	d.next++
	return append([]CardID{}, hand...)
}
