package game

import (
	"context"

	"github.com/thbattle/thb-server-go/internal/game/card"
	"github.com/thbattle/thb-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// EffectFunc builds the action a launched card applies to one target.
type EffectFunc func(source, target *Player) Action

// StandardEffects returns the effects of the stock card types. Graze cards
// only answer attacks and have no launch effect.
func StandardEffects() map[card.Type]EffectFunc {
	return map[card.Type]EffectFunc{
		card.TypeAttack: func(source, target *Player) Action {
			return &Attack{Source: source, Target: target, Damage: 1}
		},
		card.TypeHeal: func(source, target *Player) Action {
			return &Heal{Source: source, Target: target, Amount: 1}
		},
	}
}

// LaunchCard plays a card from the source's hand against each target in
// list order.
type LaunchCard struct {
	Source  *Player
	Targets []*Player
	Card    *card.Card

	Effects []Action
}

func (l *LaunchCard) Kind() Kind         { return KindLaunchCard }
func (l *LaunchCard) Category() Category { return categoryGeneric }

func (l *LaunchCard) Apply(ctx context.Context, g *Game) bool {
	if l.Card == nil || !l.Source.Owns(l.Card) {
		g.logger.Warn("launch of a card not in hand refused",
			zap.Int("player_id", l.Source.id))
		return false
	}

	effect := g.effects[l.Card.Type()]
	g.Process(ctx, &DropUsedCards{DropCards{Target: l.Source, Cards: []*card.Card{l.Card}}})
	if effect == nil {
		g.logger.Debug("card has no launch effect",
			zap.Int("card_id", l.Card.ID()),
			zap.String("card_type", string(l.Card.Type())))
		return false
	}

	for _, target := range l.Targets {
		a := effect(l.Source, target)
		if a == nil {
			continue
		}
		g.Process(ctx, a)
		l.Effects = append(l.Effects, a)
	}
	return true
}

// ActionStage is the play loop of a turn. The actor keeps playing cards
// until they pass, answer with anything malformed, or die.
type ActionStage struct {
	Actor *Player

	// Plays counts launched cards that left the hand.
	Plays     int
	Rejection Rejection
}

func (s *ActionStage) Kind() Kind         { return KindActionStage }
func (s *ActionStage) Category() Category { return categoryGeneric }

func (s *ActionStage) Apply(ctx context.Context, g *Game) bool {
	for {
		if s.Actor.dead {
			s.Rejection = RejectActorDead
			break
		}

		raw := g.RequestInput(ctx, s.Actor, InputActionStage, newPrompt(s.Kind(), s.Actor, "", 0))
		p, rej := g.parsePlay(s.Actor, raw)
		if rej != RejectNone {
			s.Rejection = rej
			break
		}

		g.Reveal([]*card.Card{p.card}, g.players.Exclude(s.Actor))
		g.Process(ctx, &LaunchCard{Source: s.Actor, Targets: p.targets, Card: p.card})
		if !s.Actor.Owns(p.card) {
			s.Plays++
		}
	}

	g.logger.Debug("action stage finished",
		zap.Int("player_id", s.Actor.id),
		zap.Int("plays", s.Plays),
		zap.String("exit", string(s.Rejection)))
	return true
}

// Default completes the stage with no plays.
func (s *ActionStage) Default(ctx context.Context, g *Game) bool {
	return true
}

// Turn drives one player's turn: draw, play, then discard down to the hand
// limit.
type Turn struct {
	Actor *Player

	Draw  *DrawCardStage
	Stage *ActionStage
	Drop  *DropCardStage
}

func (t *Turn) Kind() Kind         { return KindTurn }
func (t *Turn) Category() Category { return categoryGeneric }

func (t *Turn) Apply(ctx context.Context, g *Game) bool {
	if t.Actor.dead {
		return false
	}
	g.Emit(rules.NewEvent(rules.EventTurnBegin, g.id, t.Actor.id))

	t.Draw = &DrawCardStage{DrawCards{Target: t.Actor}}
	g.Process(ctx, t.Draw)

	t.Stage = &ActionStage{Actor: t.Actor}
	g.Process(ctx, t.Stage)

	if !t.Actor.dead {
		t.Drop = &DropCardStage{Target: t.Actor}
		g.Process(ctx, t.Drop)
	}

	end := rules.NewEvent(rules.EventTurnEnd, g.id, t.Actor.id)
	end.Amount = t.Stage.Plays
	g.Emit(end)
	return true
}
