package game

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thbattle/thb-server-go/internal/game/card"
	"github.com/thbattle/thb-server-go/internal/game/rules"
)

// aggressor plays the first card of its hand at one target every time it
// is asked, and never discards or grazes.
type aggressor struct {
	target int
}

func (b *aggressor) RequestInput(ctx context.Context, kind string, prompt any) (any, error) {
	p, ok := prompt.(Prompt)
	if !ok || kind != InputActionStage || len(p.Hand) == 0 {
		return nil, nil
	}
	return []any{p.Hand[0], []any{b.target}}, nil
}

func (b *aggressor) Reveal(cards []*card.Card) {}

func attackPile(n int) []card.Type {
	pile := make([]card.Type, n)
	for i := range pile {
		pile[i] = card.TypeAttack
	}
	return pile
}

func lifecycleConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialHand = 1
	cfg.DrawPerTurn = 1
	return cfg
}

func TestStart_DealsInitialHands(t *testing.T) {
	cfg := DefaultConfig()
	tb := newTable(t, [][]card.Type{{}, {}}, attackPile(10), WithConfig(cfg))

	require.NoError(t, tb.game.Start(context.Background()))
	for _, p := range tb.players {
		assert.Equal(t, cfg.InitialHand, p.HandSize())
	}
	assert.Equal(t, 10-2*cfg.InitialHand, tb.game.Deck().Len())
	assert.Len(t, tb.eventsOf(rules.EventGameStarted), 1)
}

func TestRun_PlaysToAWinner(t *testing.T) {
	tb := newTable(t, [][]card.Type{{}, {}}, attackPile(20), WithConfig(lifecycleConfig()))
	p1, p2 := tb.players[0], tb.players[1]
	p1.session = &aggressor{target: p2.ID()}

	winner, err := tb.game.Run(context.Background())
	require.NoError(t, err)
	assert.Same(t, p1, winner)
	assert.True(t, p2.Dead())
	assert.Zero(t, p2.Life())

	over := tb.eventsOf(rules.EventGameOver)
	require.Len(t, over, 1)
	assert.Equal(t, p1.ID(), over[0].PlayerID)
	assert.Equal(t, 3, over[0].Amount)

	deaths := tb.eventsOf(rules.EventPlayerDead)
	require.Len(t, deaths, 1)
	assert.Equal(t, p2.ID(), deaths[0].PlayerID)
	assert.Equal(t, p1.ID(), deaths[0].SourceID)

	assert.Equal(t, rules.EventGameStarted, tb.events[slices.IndexFunc(tb.events, func(e rules.Event) bool {
		return e.Type != rules.EventCardsRevealed
	})].Type)
}

func TestRun_ConservesCards(t *testing.T) {
	cfg := lifecycleConfig()
	cfg.MaxRounds = 10
	tb := newTable(t, [][]card.Type{{}, {}, {}}, attackPile(12), WithConfig(cfg))
	tb.players[0].session = &aggressor{target: 2}
	tb.players[2].session = &aggressor{target: 1}

	_, err := tb.game.Run(context.Background())
	require.NoError(t, err)

	total := tb.game.Deck().Len() + len(tb.game.Deck().DiscardPile())
	for _, p := range tb.players {
		total += p.HandSize()
	}
	assert.Equal(t, tb.game.Deck().Size(), total)
}

func TestRun_RoundLimit(t *testing.T) {
	cfg := lifecycleConfig()
	cfg.MaxRounds = 2
	tb := newTable(t, [][]card.Type{{}, {}}, attackPile(20), WithConfig(cfg))

	winner, err := tb.game.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, winner)

	over := tb.eventsOf(rules.EventGameOver)
	require.Len(t, over, 1)
	assert.Zero(t, over[0].PlayerID)
	assert.Equal(t, 2, over[0].Amount)
	assert.Len(t, tb.eventsOf(rules.EventTurnBegin), 4)
}

func TestRun_Interrupted(t *testing.T) {
	tb := newTable(t, [][]card.Type{{}, {}}, attackPile(10), WithConfig(lifecycleConfig()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	winner, err := tb.game.Run(ctx)
	assert.Nil(t, winner)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tb.eventsOf(rules.EventGameOver))
}

func TestRun_SinglePlayerWinsImmediately(t *testing.T) {
	tb := newTable(t, [][]card.Type{{}}, attackPile(5), WithConfig(lifecycleConfig()))

	winner, err := tb.game.Run(context.Background())
	require.NoError(t, err)
	assert.Same(t, tb.players[0], winner)
	assert.Empty(t, tb.eventsOf(rules.EventTurnBegin))
}
