package card

import (
	"math/rand/v2"
	"sync"
)

// Deck owns the draw pile and the discard pile.
// Every card the deck created is indexed so ids coming from player input
// can be resolved wherever the card currently sits.
type Deck struct {
	mu      sync.RWMutex
	draw    []*Card
	discard []*Card
	index   map[int]*Card
	rng     *rand.Rand
}

// Option configures a Deck.
type Option func(*Deck)

// WithRand sets the random source used when the discard pile is shuffled
// back into the draw pile.
func WithRand(rng *rand.Rand) Option {
	return func(d *Deck) {
		d.rng = rng
	}
}

// NewDeck creates a deck whose draw pile holds cards in the given order.
// The front of the slice is drawn first.
func NewDeck(cards []*Card, opts ...Option) *Deck {
	d := &Deck{
		draw:  make([]*Card, len(cards)),
		index: make(map[int]*Card, len(cards)),
	}
	copy(d.draw, cards)
	for _, c := range cards {
		d.index[c.id] = c
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return d
}

// Shuffle shuffles the draw pile in place.
func (d *Deck) Shuffle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shuffle(d.draw)
}

func (d *Deck) shuffle(cards []*Card) {
	d.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Draw removes and returns up to n cards from the front of the draw pile.
// When the draw pile runs short the discard pile is shuffled and placed
// under it. Fewer than n cards are returned once both piles are exhausted.
func (d *Deck) Draw(n int) []*Card {
	if n <= 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if n > len(d.draw) && len(d.discard) > 0 {
		d.shuffle(d.discard)
		d.draw = append(d.draw, d.discard...)
		d.discard = nil
	}
	if n > len(d.draw) {
		n = len(d.draw)
	}

	drawn := make([]*Card, n)
	copy(drawn, d.draw[:n])
	d.draw = d.draw[n:]
	return drawn
}

// Lookup resolves ids to cards. The result is aligned with ids and holds
// nil for ids the deck never created.
func (d *Deck) Lookup(ids []int) []*Card {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cards := make([]*Card, len(ids))
	for i, id := range ids {
		cards[i] = d.index[id]
	}
	return cards
}

// Discard places cards on top of the discard pile.
func (d *Deck) Discard(cards ...*Card) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.discard = append(d.discard, cards...)
}

// DrawPile returns a copy of the draw pile, front first.
func (d *Deck) DrawPile() []*Card {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Card, len(d.draw))
	copy(out, d.draw)
	return out
}

// DiscardPile returns a copy of the discard pile, oldest first.
func (d *Deck) DiscardPile() []*Card {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Card, len(d.discard))
	copy(out, d.discard)
	return out
}

// Len returns the number of cards in the draw pile.
func (d *Deck) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.draw)
}

// Size returns the number of cards the deck created.
func (d *Deck) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.index)
}
