package game

import (
	"context"

	"github.com/thbattle/thb-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Damage removes life from the target. Evasion happens upstream, so any
// positive amount applies once it gets here.
type Damage struct {
	Source *Player
	Target *Player
	Amount int

	// Killed is set when this application took the target to zero.
	Killed bool
}

func (d *Damage) Kind() Kind         { return KindDamage }
func (d *Damage) Category() Category { return categoryGeneric }

func (d *Damage) Apply(ctx context.Context, g *Game) bool {
	if d.Amount <= 0 {
		return false
	}
	t := d.Target
	t.life = max(t.life-d.Amount, 0)

	if t.life <= 0 && !t.dead {
		t.dead = true
		d.Killed = true

		event := rules.NewEvent(rules.EventPlayerDead, g.id, t.id)
		if d.Source != nil {
			event.SourceID = d.Source.id
		}
		event.Amount = d.Amount
		g.Emit(event)

		g.logger.Info("player dead",
			zap.Int("player_id", t.id),
			zap.Int("amount", d.Amount))
	}
	return true
}

// Attack lets the target evade with a graze; otherwise the damage lands.
type Attack struct {
	Source *Player
	Target *Player
	Damage int

	Grazed bool
}

func (a *Attack) Kind() Kind         { return KindAttack }
func (a *Attack) Category() Category { return categoryBasic }

func (a *Attack) Apply(ctx context.Context, g *Game) bool {
	if g.Process(ctx, &UseGraze{UseCard: UseCard{Target: a.Target}}) {
		a.Grazed = true
		return false
	}
	g.Process(ctx, &Damage{Source: a.Source, Target: a.Target, Amount: a.Damage})
	return true
}

// Heal restores life up to the target's maximum. The dead stay dead.
type Heal struct {
	Source *Player
	Target *Player
	Amount int
}

func (h *Heal) Kind() Kind         { return KindHeal }
func (h *Heal) Category() Category { return categoryBasic }

func (h *Heal) Apply(ctx context.Context, g *Game) bool {
	t := h.Target
	if h.Amount <= 0 || t.dead || t.life >= t.maxLife {
		return false
	}
	t.life = min(t.life+h.Amount, t.maxLife)
	return true
}
