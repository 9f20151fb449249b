package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thbattle/thb-server-go/internal/game/card"
	"github.com/thbattle/thb-server-go/internal/game/input"
	"github.com/thbattle/thb-server-go/internal/game/rules"
	"go.uber.org/zap/zaptest"
)

const testMaxLife = 4

// table seats players with known hands over a deck in a known order.
// Card ids are assigned in order: first every hand, seat by seat, then the
// draw pile.
type table struct {
	t        *testing.T
	game     *Game
	players  []*Player
	sessions []*input.Scripted
	events   []rules.Event
}

func newTable(t *testing.T, hands [][]card.Type, pile []card.Type, opts ...Option) *table {
	t.Helper()

	var all []*card.Card
	next := 0
	mint := func(typ card.Type) *card.Card {
		next++
		c := card.New(next, typ)
		all = append(all, c)
		return c
	}

	dealt := make([][]*card.Card, len(hands))
	for i, hand := range hands {
		for _, typ := range hand {
			dealt[i] = append(dealt[i], mint(typ))
		}
	}
	for _, typ := range pile {
		mint(typ)
	}

	deck := card.NewDeck(all, card.WithRand(rand.New(rand.NewPCG(1, 2))))
	deck.Draw(len(all) - len(pile))

	tb := &table{t: t}
	for i := range hands {
		s := input.NewScripted()
		p := NewPlayer(i+1, fmt.Sprintf("p%d", i+1), testMaxLife, s)
		p.addCards(dealt[i])
		tb.players = append(tb.players, p)
		tb.sessions = append(tb.sessions, s)
	}

	base := []Option{WithLogger(zaptest.NewLogger(t)), WithID("test-game")}
	tb.game = New(deck, tb.players, append(base, opts...)...)
	tb.game.Events().Subscribe(func(e rules.Event) {
		tb.events = append(tb.events, e)
	})
	return tb
}

// resolve runs a as a top-level action and fails the test on an
// invariant violation.
func (tb *table) resolve(a Action) bool {
	tb.t.Helper()
	applied, err := tb.game.Resolve(context.Background(), a)
	require.NoError(tb.t, err)
	return applied
}

// answer queues input for the player in the given seat.
func (tb *table) answer(seat int, kind string, answers ...any) {
	tb.sessions[seat].Push(kind, answers...)
}

func (tb *table) eventsOf(typ rules.EventType) []rules.Event {
	var out []rules.Event
	for _, e := range tb.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// record registers an interceptor that logs every matching action kind.
func (tb *table) record(category Category) *[]Kind {
	var seen []Kind
	tb.game.Intercept(Interceptor{
		Name:     "recorder",
		Category: category,
		Before: func(ctx context.Context, g *Game, a Action) Verdict {
			seen = append(seen, a.Kind())
			return Proceed
		},
	})
	return &seen
}

func cardIDs(p *Player) []int {
	return card.IDs(p.hand)
}
