package game

import (
	"encoding/json"
	"math"

	"github.com/thbattle/thb-server-go/internal/game/card"
)

// Rejection names why untrusted player input was refused.
type Rejection string

const (
	RejectNone          Rejection = ""
	RejectNoInput       Rejection = "no_input"
	RejectNotList       Rejection = "not_list"
	RejectWrongShape    Rejection = "wrong_shape"
	RejectEmpty         Rejection = "empty_selection"
	RejectNotInteger    Rejection = "not_integer"
	RejectDuplicate     Rejection = "duplicate_id"
	RejectUnknownCard   Rejection = "unknown_card"
	RejectNotOwned      Rejection = "not_owned"
	RejectPredicate     Rejection = "predicate_mismatch"
	RejectUnknownTarget Rejection = "unknown_target"
	RejectActorDead     Rejection = "actor_dead"
)

// asInt accepts Go integers and integral json.Number values. Floats,
// booleans and strings are not ids.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return asInt(i)
	default:
		return 0, false
	}
}

// asList accepts decoded JSON arrays and the typed slices in-process
// sessions produce.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

// parseIDs checks that raw is a non-empty list of unique integer ids.
func parseIDs(raw any) ([]int, Rejection) {
	if raw == nil {
		return nil, RejectNoInput
	}
	items, ok := asList(raw)
	if !ok {
		return nil, RejectNotList
	}
	if len(items) == 0 {
		return nil, RejectEmpty
	}

	ids := make([]int, 0, len(items))
	seen := make(map[int]bool, len(items))
	for _, item := range items {
		id, ok := asInt(item)
		if !ok {
			return nil, RejectNotInteger
		}
		if seen[id] {
			return nil, RejectDuplicate
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, RejectNone
}

// handCards resolves ids to cards currently held by p.
func (g *Game) handCards(p *Player, ids []int) ([]*card.Card, Rejection) {
	cards := g.deck.Lookup(ids)
	for _, c := range cards {
		if c == nil {
			return nil, RejectUnknownCard
		}
	}
	if !p.Owns(cards...) {
		return nil, RejectNotOwned
	}
	return cards, RejectNone
}

type play struct {
	card    *card.Card
	targets []*Player
}

// parsePlay validates an action stage answer of the form
// [card_id, [target_id, ...]].
func (g *Game) parsePlay(actor *Player, raw any) (play, Rejection) {
	if raw == nil {
		return play{}, RejectNoInput
	}
	tuple, ok := asList(raw)
	if !ok || len(tuple) != 2 {
		return play{}, RejectWrongShape
	}

	cardID, ok := asInt(tuple[0])
	if !ok {
		return play{}, RejectNotInteger
	}
	rawTargets, ok := asList(tuple[1])
	if !ok {
		return play{}, RejectNotList
	}

	c := g.deck.Lookup([]int{cardID})[0]
	if c == nil {
		return play{}, RejectUnknownCard
	}
	if !actor.Owns(c) {
		return play{}, RejectNotOwned
	}

	targets := make([]*Player, 0, len(rawTargets))
	for _, rt := range rawTargets {
		id, ok := asInt(rt)
		if !ok {
			return play{}, RejectNotInteger
		}
		target := g.players.ByID(id)
		if target == nil || target.Dead() {
			return play{}, RejectUnknownTarget
		}
		targets = append(targets, target)
	}
	return play{card: c, targets: targets}, RejectNone
}
