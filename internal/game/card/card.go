package card

import "fmt"

// Type is the rules tag of a card.
type Type string

const (
	TypeAttack Type = "attack"
	TypeGraze  Type = "graze"
	TypeHeal   Type = "heal"
)

// Card is a single dealt card. Cards are immutable and compared by identity.
type Card struct {
	id  int
	typ Type
}

// New creates a card. Deck builders are the only expected callers.
func New(id int, typ Type) *Card {
	return &Card{id: id, typ: typ}
}

// ID returns the card's identifier.
func (c *Card) ID() int {
	return c.id
}

// Type returns the card's rules tag.
func (c *Card) Type() Type {
	return c.typ
}

// String implements fmt.Stringer.
func (c *Card) String() string {
	return fmt.Sprintf("%s#%d", c.typ, c.id)
}

// View is the wire representation of a revealed card.
type View struct {
	ID   int  `json:"id"`
	Type Type `json:"type"`
}

// Views converts cards to their wire representation.
func Views(cards []*Card) []View {
	views := make([]View, 0, len(cards))
	for _, c := range cards {
		views = append(views, View{ID: c.id, Type: c.typ})
	}
	return views
}

// IDs returns the identifiers of cards in order.
func IDs(cards []*Card) []int {
	ids := make([]int, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.id)
	}
	return ids
}
