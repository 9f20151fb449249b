package game

import (
	"context"

	"github.com/thbattle/thb-server-go/internal/game/card"
	"go.uber.org/zap"
)

// Predicate decides whether a validated card selection is acceptable.
type Predicate func(cards []*card.Card) bool

// SingleOfType accepts exactly one card of the given type.
func SingleOfType(typ card.Type) Predicate {
	return func(cards []*card.Card) bool {
		return len(cards) == 1 && cards[0].Type() == typ
	}
}

// ExactCount accepts selections of exactly n cards.
func ExactCount(n int) Predicate {
	return func(cards []*card.Card) bool {
		return len(cards) == n
	}
}

// ChooseCard asks the target to pick cards from their hand. It is the one
// place untrusted card selections are validated; every choice-based action
// goes through it.
type ChooseCard struct {
	Target    *Player
	Predicate Predicate
	Hint      string
	Count     int

	// Cards is set only when the selection was accepted.
	Cards     []*card.Card
	Rejection Rejection
}

func (c *ChooseCard) Kind() Kind         { return KindChooseCard }
func (c *ChooseCard) Category() Category { return categoryGeneric }

func (c *ChooseCard) Apply(ctx context.Context, g *Game) bool {
	raw := g.RequestInput(ctx, c.Target, InputChooseCard, newPrompt(c.Kind(), c.Target, c.Hint, c.Count))

	ids, rej := parseIDs(raw)
	if rej != RejectNone {
		return c.reject(g, rej)
	}
	cards, rej := g.handCards(c.Target, ids)
	if rej != RejectNone {
		return c.reject(g, rej)
	}
	if c.Predicate != nil && !c.Predicate(cards) {
		return c.reject(g, RejectPredicate)
	}

	g.Reveal(cards, g.players.Exclude(c.Target))
	c.Cards = cards
	return true
}

// Default leaves the selection empty.
func (c *ChooseCard) Default(ctx context.Context, g *Game) bool {
	c.Cards = nil
	return false
}

func (c *ChooseCard) reject(g *Game, rej Rejection) bool {
	c.Rejection = rej
	g.logger.Debug("card choice rejected",
		zap.Int("player_id", c.Target.id),
		zap.String("hint", c.Hint),
		zap.String("rejection", string(rej)))
	return false
}

// DropCards moves cards from the target's hand to the discard pile. The
// cards must already be known to be in the hand; anything else is an
// engine bug and halts the action tree.
type DropCards struct {
	Target *Player
	Cards  []*card.Card
}

func (d *DropCards) Kind() Kind         { return KindDropCards }
func (d *DropCards) Category() Category { return categoryGeneric }

func (d *DropCards) Apply(ctx context.Context, g *Game) bool {
	return d.drop(g, d.Kind())
}

func (d *DropCards) drop(g *Game, kind Kind) bool {
	if !d.Target.Owns(d.Cards...) {
		violate(kind, "%s does not hold cards %v", d.Target, card.IDs(d.Cards))
	}
	d.Target.removeCards(d.Cards)
	g.deck.Discard(d.Cards...)
	return true
}

// DropUsedCards is the cost of using a card. It is bookkeeping of the
// enclosing action and is never intercepted.
type DropUsedCards struct {
	DropCards
}

func (d *DropUsedCards) Kind() Kind         { return KindDropUsedCards }
func (d *DropUsedCards) Category() Category { return CategoryInternal }

func (d *DropUsedCards) Apply(ctx context.Context, g *Game) bool {
	return d.drop(g, d.Kind())
}

// ForceDropCards enforces the hand limit when the interceptable drop of a
// drop stage was blocked.
type ForceDropCards struct {
	DropCards
}

func (d *ForceDropCards) Kind() Kind         { return KindForceDrop }
func (d *ForceDropCards) Category() Category { return CategoryInternal }

func (d *ForceDropCards) Apply(ctx context.Context, g *Game) bool {
	return d.drop(g, d.Kind())
}

// UseCard has the target choose cards and pays them as the cost.
type UseCard struct {
	Target    *Player
	Predicate Predicate
	Hint      string
	Count     int

	Cards []*card.Card
}

func (u *UseCard) Kind() Kind         { return KindUseCard }
func (u *UseCard) Category() Category { return categoryUser }

func (u *UseCard) Apply(ctx context.Context, g *Game) bool {
	choose := &ChooseCard{
		Target:    u.Target,
		Predicate: u.Predicate,
		Hint:      u.Hint,
		Count:     u.Count,
	}
	if !g.Process(ctx, choose) {
		return false
	}

	// Interceptors run between the choice and the cost and may have moved
	// the chosen cards.
	if len(choose.Cards) == 0 || !u.Target.Owns(choose.Cards...) {
		g.logger.Warn("chosen cards no longer held, use cancelled",
			zap.Int("player_id", u.Target.id),
			zap.Ints("card_ids", card.IDs(choose.Cards)))
		return false
	}

	g.Process(ctx, &DropUsedCards{DropCards{Target: u.Target, Cards: choose.Cards}})
	u.Cards = choose.Cards
	return true
}

// UseGraze evades an attack by using exactly one graze card.
type UseGraze struct {
	UseCard
}

func (u *UseGraze) Kind() Kind         { return KindUseGraze }
func (u *UseGraze) Category() Category { return categoryBasic }

func (u *UseGraze) Apply(ctx context.Context, g *Game) bool {
	if u.Predicate == nil {
		u.Predicate = SingleOfType(card.TypeGraze)
	}
	if u.Hint == "" {
		u.Hint = string(card.TypeGraze)
		u.Count = 1
	}
	return u.UseCard.Apply(ctx, g)
}

// DrawCards moves cards from the deck into the target's hand and reveals
// them to the target alone.
type DrawCards struct {
	Target *Player
	Amount int

	Cards []*card.Card
}

func (d *DrawCards) Kind() Kind         { return KindDrawCards }
func (d *DrawCards) Category() Category { return categoryGeneric }

func (d *DrawCards) Apply(ctx context.Context, g *Game) bool {
	cards := g.deck.Draw(d.Amount)
	if len(cards) < d.Amount {
		g.logger.Warn("deck exhausted",
			zap.Int("player_id", d.Target.id),
			zap.Int("requested", d.Amount),
			zap.Int("drawn", len(cards)))
	}
	g.Reveal(cards, Roster{d.Target})
	d.Target.addCards(cards)
	d.Cards = cards
	return true
}

// DrawCardStage is the draw at the start of a turn. A zero Amount uses the
// configured per-turn draw.
type DrawCardStage struct {
	DrawCards
}

func (d *DrawCardStage) Kind() Kind { return KindDrawCardStage }

func (d *DrawCardStage) Apply(ctx context.Context, g *Game) bool {
	if d.Amount <= 0 {
		d.Amount = g.cfg.DrawPerTurn
	}
	return d.DrawCards.Apply(ctx, g)
}

// DropCardStage enforces the end of turn hand limit: a player may keep at
// most as many cards as they have life.
type DropCardStage struct {
	Target *Player

	Dropped []*card.Card
}

func (d *DropCardStage) Kind() Kind         { return KindDropCardStage }
func (d *DropCardStage) Category() Category { return categoryGeneric }

func (d *DropCardStage) Apply(ctx context.Context, g *Game) bool {
	t := d.Target
	n := t.HandSize() - t.life
	if n <= 0 {
		return true
	}

	choose := &ChooseCard{Target: t, Predicate: ExactCount(n), Hint: "drop", Count: n}
	cards := t.firstCards(n)
	if g.Process(ctx, choose) && len(choose.Cards) == n && t.Owns(choose.Cards...) {
		cards = choose.Cards
	}

	drop := &DropCards{Target: t, Cards: cards}
	if g.Process(ctx, drop) {
		d.Dropped = append(d.Dropped, drop.Cards...)
	}

	if excess := t.HandSize() - t.life; excess > 0 {
		forced := t.firstCards(excess)
		g.Process(ctx, &ForceDropCards{DropCards{Target: t, Cards: forced}})
		d.Dropped = append(d.Dropped, forced...)
		g.logger.Debug("hand limit forced",
			zap.Int("player_id", t.id),
			zap.Int("forced", excess))
	}
	return true
}
