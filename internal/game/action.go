package game

import (
	"context"
	"fmt"
	"strings"
)

// Kind names an action variant in logs, spans and interceptor filters.
type Kind string

const (
	KindDamage        Kind = "damage"
	KindAttack        Kind = "attack"
	KindHeal          Kind = "heal"
	KindChooseCard    Kind = "choose_card"
	KindDropCards     Kind = "drop_cards"
	KindDropUsedCards Kind = "drop_used_cards"
	KindForceDrop     Kind = "force_drop_cards"
	KindUseCard       Kind = "use_card"
	KindUseGraze      Kind = "use_graze"
	KindDrawCards     Kind = "draw_cards"
	KindDrawCardStage Kind = "draw_card_stage"
	KindDropCardStage Kind = "drop_card_stage"
	KindLaunchCard    Kind = "launch_card"
	KindActionStage   Kind = "action_stage"
	KindTurn          Kind = "turn"
)

// Category is a set of capability markers carried by an action.
// Basic implies User, and User implies Generic. Internal actions carry
// nothing else and are never offered to interceptors.
type Category uint8

const (
	CategoryGeneric Category = 1 << iota
	CategoryUser
	CategoryBasic
	CategoryInternal
)

const (
	categoryGeneric = CategoryGeneric
	categoryUser    = CategoryGeneric | CategoryUser
	categoryBasic   = CategoryGeneric | CategoryUser | CategoryBasic
)

// CategoryAny matches every interceptable action.
const CategoryAny = CategoryGeneric | CategoryUser | CategoryBasic

// Has reports whether c carries any of the markers in mask.
func (c Category) Has(mask Category) bool {
	return c&mask != 0
}

// Internal reports whether c marks engine bookkeeping.
func (c Category) Internal() bool {
	return c&CategoryInternal != 0
}

// String implements fmt.Stringer.
func (c Category) String() string {
	var parts []string
	if c&CategoryGeneric != 0 {
		parts = append(parts, "generic")
	}
	if c&CategoryUser != 0 {
		parts = append(parts, "user")
	}
	if c&CategoryBasic != 0 {
		parts = append(parts, "basic")
	}
	if c&CategoryInternal != 0 {
		parts = append(parts, "internal")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Action is a proposed unit of game-state mutation. Actions are plain data
// until submitted to Game.Process, which records the outcome on the action
// itself.
type Action interface {
	Kind() Kind
	Category() Category

	// Apply performs the mutation and reports whether it took effect.
	// Sub-actions must be submitted through g.Process.
	Apply(ctx context.Context, g *Game) bool
}

// Defaulter is implemented by actions that have a deterministic outcome
// when a veto or a failed Apply blocks the active path.
type Defaulter interface {
	Default(ctx context.Context, g *Game) bool
}

// InvariantError reports an engine or rule-authoring bug. It is raised by
// panicking inside Process and recovered by Resolve, halting the whole
// action tree.
type InvariantError struct {
	Action Kind
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Action, e.Reason)
}

func violate(kind Kind, format string, args ...any) {
	panic(&InvariantError{Action: kind, Reason: fmt.Sprintf(format, args...)})
}
