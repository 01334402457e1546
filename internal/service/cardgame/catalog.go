package cardgame

import (
	"errors"
	"fmt"
	"sort"
)

var (
	errEmptyCatalog    = errors.New("catalog has no cards")
	errNegativeDamage  = errors.New("card damage must not be negative")
	errDuplicateCardID = errors.New("duplicate card id")
)

type CardID int

type Card struct {
	ID     CardID `json:"id"`
	Damage int    `json:"damage"`
}

// Catalog is a fixed card id to damage table. It is immutable once built.
type Catalog struct {
	damage map[CardID]int
	ids    []CardID
}

var defaultCards = []Card{
	{ID: 0, Damage: 5},
	{ID: 1, Damage: 8},
	{ID: 2, Damage: 3},
	{ID: 3, Damage: 12},
	{ID: 4, Damage: 6},
}

func NewCatalog(cards []Card) (*Catalog, error) {
	if len(cards) == 0 {
		return nil, errEmptyCatalog
	}
	c := &Catalog{damage: make(map[CardID]int, len(cards))}
	for _, card := range cards {
		if card.Damage < 0 {
			return nil, fmt.Errorf("%w: card %d", errNegativeDamage, card.ID)
		}
		if _, ok := c.damage[card.ID]; ok {
			return nil, fmt.Errorf("%w: %d", errDuplicateCardID, card.ID)
		}
		c.damage[card.ID] = card.Damage
		c.ids = append(c.ids, card.ID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return c, nil
}

func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultCards)
	if err != nil {
		panic(err)
	}
	return c
}

// DamageOf returns 0 for ids outside the catalog. Dealers only draw from
// IDs so that never happens for a dealt card.
func (c *Catalog) DamageOf(id CardID) int {
	return c.damage[id]
}

func (c *Catalog) Contains(id CardID) bool {
	_, ok := c.damage[id]
	return ok
}

func (c *Catalog) IDs() []CardID {
	return append([]CardID(nil), c.ids...)
}

func (c *Catalog) Cards() []Card {
	cards := make([]Card, 0, len(c.ids))
	for _, id := range c.ids {
		cards = append(cards, Card{ID: id, Damage: c.damage[id]})
	}
	return cards
}
