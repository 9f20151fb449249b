// Package watchers tracks per-game statistics from the event stream.
package watchers

import (
	"sync"

	"github.com/thbattle/thb-server-go/internal/game/rules"
)

// Watcher observes events and accumulates state about them.
type Watcher interface {
	// Watch is called for every event published while the watcher is attached.
	Watch(event rules.Event)

	// Reset clears accumulated state.
	Reset()

	// Key identifies the watcher inside a registry.
	Key() string
}

// Registry fans events out to a set of watchers.
type Registry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{watchers: make(map[string]Watcher)}
}

// Add registers w, replacing any watcher with the same key.
func (r *Registry) Add(w Watcher) {
	if w == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := w.Key()
	if _, ok := r.watchers[key]; !ok {
		r.order = append(r.order, key)
	}
	r.watchers[key] = w
}

// Remove drops the watcher registered under key.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.watchers[key]; !ok {
		return
	}
	delete(r.watchers, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the watcher registered under key, or nil.
func (r *Registry) Get(key string) Watcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.watchers[key]
}

// Notify delivers event to every watcher in registration order.
func (r *Registry) Notify(event rules.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, key := range r.order {
		r.watchers[key].Watch(event)
	}
}

// Reset clears every watcher.
func (r *Registry) Reset() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.watchers {
		w.Reset()
	}
}

// Attach feeds the registry from bus. The returned function detaches it.
func (r *Registry) Attach(bus *rules.EventBus) func() {
	handle := bus.Subscribe(r.Notify)
	return func() { bus.Unsubscribe(handle) }
}

// Kills counts deaths caused by each player. Deaths without a source are
// counted under player 0.
type Kills struct {
	mu     sync.Mutex
	bySrc  map[int]int
	deaths int
}

func NewKills() *Kills {
	return &Kills{bySrc: make(map[int]int)}
}

func (w *Kills) Key() string { return "kills" }

func (w *Kills) Watch(event rules.Event) {
	if event.Type != rules.EventPlayerDead {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bySrc[event.SourceID]++
	w.deaths++
}

func (w *Kills) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bySrc = make(map[int]int)
	w.deaths = 0
}

// By returns the number of players killed by player id.
func (w *Kills) By(id int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bySrc[id]
}

// Deaths returns the total number of deaths.
func (w *Kills) Deaths() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deaths
}

// Plays tracks turns taken and cards played during action stages.
type Plays struct {
	mu    sync.Mutex
	turns map[int]int
	plays map[int]int
}

func NewPlays() *Plays {
	return &Plays{turns: make(map[int]int), plays: make(map[int]int)}
}

func (w *Plays) Key() string { return "plays" }

func (w *Plays) Watch(event rules.Event) {
	if event.Type != rules.EventTurnEnd {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns[event.PlayerID]++
	w.plays[event.PlayerID] += event.Amount
}

func (w *Plays) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = make(map[int]int)
	w.plays = make(map[int]int)
}

// Turns returns the number of completed turns of player id.
func (w *Plays) Turns(id int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.turns[id]
}

// Cards returns the number of cards player id launched in action stages.
func (w *Plays) Cards(id int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.plays[id]
}
