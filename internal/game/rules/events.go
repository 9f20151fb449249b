package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a broadcast game event.
type EventType string

const (
	// Lifecycle events
	EventGameStarted EventType = "game_started"
	EventGameOver    EventType = "game_over"
	EventTurnBegin   EventType = "turn_begin"
	EventTurnEnd     EventType = "turn_end"

	// Player events
	EventPlayerDead EventType = "player_dead"

	// Information disclosure
	EventCardsRevealed EventType = "cards_revealed"
)

// Event is a notification that observers outside the engine react to.
// Events are not actions: they cannot be intercepted or cancelled.
type Event struct {
	Type      EventType `json:"type"`
	GameID    string    `json:"game_id"`
	PlayerID  int       `json:"player_id,omitempty"`
	SourceID  int       `json:"source_id,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	CardIDs   []int     `json:"card_ids,omitempty"`
	Audience  []int     `json:"audience,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, gameID string, playerID int) Event {
	return Event{
		Type:      eventType,
		GameID:    gameID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	order          []int
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	bus.order = append(bus.order, handle)
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, ok := bus.listeners[handle]; ok {
		delete(bus.listeners, handle)
		for i, h := range bus.order {
			if h == handle {
				bus.order = append(bus.order[:i:i], bus.order[i+1:]...)
				break
			}
		}
		return
	}
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i:i], listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously,
// catch-all listeners first, each group in subscription order.
// Listeners run outside the bus lock so they may subscribe or publish.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	callbacks := make([]func(Event), 0, len(bus.order)+len(bus.typedListeners[event.Type]))
	for _, handle := range bus.order {
		callbacks = append(callbacks, bus.listeners[handle])
	}
	for _, listener := range bus.typedListeners[event.Type] {
		callbacks = append(callbacks, listener.Callback)
	}
	bus.mu.RUnlock()

	for _, cb := range callbacks {
		cb(event)
	}
}
