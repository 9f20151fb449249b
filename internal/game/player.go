package game

import (
	"context"
	"fmt"
	"slices"

	"github.com/thbattle/thb-server-go/internal/game/card"
)

// Session is the boundary to a seated player's client.
type Session interface {
	// RequestInput blocks until the player answers, the context ends or the
	// client goes away. Responses are untrusted and validated by the caller.
	RequestInput(ctx context.Context, kind string, prompt any) (any, error)

	// Reveal discloses card identities to this player.
	Reveal(cards []*card.Card)
}

// Player is a seat at the table. Life, hand and the dead flag change only
// through actions processed by the owning Game.
type Player struct {
	id      int
	name    string
	life    int
	maxLife int
	hand    []*card.Card
	dead    bool
	session Session
}

// NewPlayer creates a player at full life with an empty hand.
func NewPlayer(id int, name string, maxLife int, session Session) *Player {
	return &Player{
		id:      id,
		name:    name,
		life:    maxLife,
		maxLife: maxLife,
		session: session,
	}
}

func (p *Player) ID() int       { return p.id }
func (p *Player) Name() string  { return p.name }
func (p *Player) Life() int     { return p.life }
func (p *Player) MaxLife() int  { return p.maxLife }
func (p *Player) Dead() bool    { return p.dead }
func (p *Player) HandSize() int { return len(p.hand) }

// Hand returns a copy of the hand in order.
func (p *Player) Hand() []*card.Card {
	return slices.Clone(p.hand)
}

// Owns reports whether every given card is held by the player. A card
// listed twice is only owned if it would be held twice, which never holds.
func (p *Player) Owns(cards ...*card.Card) bool {
	seen := make(map[*card.Card]bool, len(cards))
	for _, c := range cards {
		if c == nil || seen[c] || !slices.Contains(p.hand, c) {
			return false
		}
		seen[c] = true
	}
	return true
}

// String implements fmt.Stringer.
func (p *Player) String() string {
	return fmt.Sprintf("%s(#%d)", p.name, p.id)
}

func (p *Player) addCards(cards []*card.Card) {
	p.hand = append(p.hand, cards...)
}

// removeCards drops cards from the hand keeping the order of the rest.
// Callers must have checked ownership.
func (p *Player) removeCards(cards []*card.Card) {
	p.hand = slices.DeleteFunc(p.hand, func(c *card.Card) bool {
		return slices.Contains(cards, c)
	})
}

// firstCards returns a copy of the first n cards in hand order.
func (p *Player) firstCards(n int) []*card.Card {
	n = min(max(n, 0), len(p.hand))
	return slices.Clone(p.hand[:n])
}

// Roster is the ordered set of players seated at a game.
type Roster []*Player

// ByID returns the player with the given id, or nil.
func (r Roster) ByID(id int) *Player {
	for _, p := range r {
		if p.id == id {
			return p
		}
	}
	return nil
}

// Exclude returns the roster without the given players.
func (r Roster) Exclude(players ...*Player) Roster {
	out := make(Roster, 0, len(r))
	for _, p := range r {
		if !slices.Contains(players, p) {
			out = append(out, p)
		}
	}
	return out
}

// Alive returns the players that are not dead.
func (r Roster) Alive() Roster {
	out := make(Roster, 0, len(r))
	for _, p := range r {
		if !p.dead {
			out = append(out, p)
		}
	}
	return out
}

// IDs returns player ids in seat order.
func (r Roster) IDs() []int {
	ids := make([]int, 0, len(r))
	for _, p := range r {
		ids = append(ids, p.id)
	}
	return ids
}
