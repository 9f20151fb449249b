package game

import (
	"context"
	"fmt"

	"github.com/thbattle/thb-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Start deals the initial hands.
func (g *Game) Start(ctx context.Context) error {
	for _, p := range g.players {
		if _, err := g.Resolve(ctx, &DrawCards{Target: p, Amount: g.cfg.InitialHand}); err != nil {
			return fmt.Errorf("deal initial hand to %s: %w", p, err)
		}
	}
	g.Emit(rules.NewEvent(rules.EventGameStarted, g.id, 0))
	g.logger.Info("game started",
		zap.Int("players", len(g.players)),
		zap.Int("deck", g.deck.Len()))
	return nil
}

// Run starts the game and plays turns in seat order until at most one
// player is alive, the round limit is hit, or ctx ends. It returns the
// winner, or nil when there is none.
func (g *Game) Run(ctx context.Context) (*Player, error) {
	if err := g.Start(ctx); err != nil {
		return nil, err
	}

	round := 0
	for !g.over() && (g.cfg.MaxRounds == 0 || round < g.cfg.MaxRounds) {
		round++
		for _, p := range g.players {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("game %s interrupted: %w", g.id, err)
			}
			if g.over() {
				break
			}
			if p.dead {
				continue
			}
			if _, err := g.Resolve(ctx, &Turn{Actor: p}); err != nil {
				return nil, fmt.Errorf("turn of %s in round %d: %w", p, round, err)
			}
		}
	}

	var winner *Player
	if alive := g.players.Alive(); len(alive) == 1 {
		winner = alive[0]
	}

	event := rules.NewEvent(rules.EventGameOver, g.id, 0)
	if winner != nil {
		event.PlayerID = winner.id
	}
	event.Amount = round
	g.Emit(event)

	g.logger.Info("game over",
		zap.Int("rounds", round),
		zap.Int("winner_id", event.PlayerID))
	return winner, nil
}

func (g *Game) over() bool {
	return len(g.players.Alive()) <= 1
}
