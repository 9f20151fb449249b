package card

// Composition lists how many cards of each type a deck holds.
type Composition struct {
	Attack int
	Graze  int
	Heal   int
}

// DefaultComposition is the stock deck for a four player table.
var DefaultComposition = Composition{Attack: 30, Graze: 20, Heal: 10}

// Total returns the number of cards in the composition.
func (c Composition) Total() int {
	return c.Attack + c.Graze + c.Heal
}

// Build creates cards with sequential ids starting at 1, grouped by type.
func (c Composition) Build() []*Card {
	cards := make([]*Card, 0, c.Total())
	id := 1
	add := func(typ Type, n int) {
		for i := 0; i < n; i++ {
			cards = append(cards, New(id, typ))
			id++
		}
	}
	add(TypeAttack, c.Attack)
	add(TypeGraze, c.Graze)
	add(TypeHeal, c.Heal)
	return cards
}

// NewStandardDeck builds and shuffles a deck from the composition.
func NewStandardDeck(c Composition, opts ...Option) *Deck {
	d := NewDeck(c.Build(), opts...)
	d.Shuffle()
	return d
}
