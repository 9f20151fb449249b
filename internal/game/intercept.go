package game

import (
	"context"
	"slices"
	"sync"
)

// Verdict is the result of a pre-application interceptor.
type Verdict int

const (
	// Proceed lets the action continue to the next interceptor and Apply.
	Proceed Verdict = iota
	// Veto cancels the active path; the action's Default, if any, decides
	// the outcome.
	Veto
)

// Interceptor observes actions around their application.
//
// Before runs ahead of Apply in registration order. It may rewrite fields
// on the action or return Veto; the first veto stops the remaining Before
// hooks. After runs once the outcome is final and only observes. Both may
// submit sub-actions through g.Process.
type Interceptor struct {
	Name string

	// Category selects actions carrying any of these markers. Zero means
	// CategoryAny. Internal actions never reach an interceptor.
	Category Category

	// Kinds narrows the match to specific variants when non-empty.
	Kinds []Kind

	Before func(ctx context.Context, g *Game, a Action) Verdict
	After  func(ctx context.Context, g *Game, a Action, applied bool)
}

func (ic Interceptor) matches(a Action) bool {
	mask := ic.Category
	if mask == 0 {
		mask = CategoryAny
	}
	if !a.Category().Has(mask) {
		return false
	}
	return len(ic.Kinds) == 0 || slices.Contains(ic.Kinds, a.Kind())
}

// Handle identifies a registered interceptor.
type Handle int

type chainEntry struct {
	handle      Handle
	interceptor Interceptor
}

// chain is the ordered interceptor registry of a game.
type chain struct {
	mu      sync.RWMutex
	entries []chainEntry
	next    Handle
}

func (c *chain) add(ic Interceptor) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.entries = append(c.entries, chainEntry{handle: c.next, interceptor: ic})
	return c.next
}

func (c *chain) remove(h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.handle == h {
			c.entries = slices.Delete(c.entries, i, i+1)
			return true
		}
	}
	return false
}

// matching returns a snapshot of the interceptors that apply to a, so
// registrations made while dispatching take effect from the next action.
func (c *chain) matching(a Action) []Interceptor {
	if a.Category().Internal() {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Interceptor
	for _, e := range c.entries {
		if e.interceptor.matches(a) {
			out = append(out, e.interceptor)
		}
	}
	return out
}

func (c *chain) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
