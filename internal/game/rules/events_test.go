package rules

import (
	"testing"
)

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	deaths := 0
	reveals := 0

	handle1 := bus.SubscribeTyped(EventPlayerDead, func(e Event) {
		deaths++
	})
	bus.SubscribeTyped(EventCardsRevealed, func(e Event) {
		reveals++
	})

	bus.Publish(NewEvent(EventPlayerDead, "game1", 1))
	if deaths != 1 {
		t.Fatalf("expected death count 1, got %d", deaths)
	}
	if reveals != 0 {
		t.Fatalf("expected reveal count 0, got %d", reveals)
	}

	bus.Unsubscribe(handle1)

	bus.Publish(NewEvent(EventPlayerDead, "game1", 2))
	if deaths != 1 {
		t.Fatalf("expected death count still 1 after unsubscribe, got %d", deaths)
	}

	bus.Publish(NewEvent(EventCardsRevealed, "game1", 2))
	if reveals != 1 {
		t.Fatalf("expected reveal count 1, got %d", reveals)
	}
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus()

	var seen []EventType
	handle := bus.Subscribe(func(e Event) {
		seen = append(seen, e.Type)
	})

	bus.Publish(NewEvent(EventTurnBegin, "game1", 1))
	bus.Publish(NewEvent(EventPlayerDead, "game1", 1))
	bus.Publish(NewEvent(EventTurnEnd, "game1", 1))

	if len(seen) != 3 {
		t.Fatalf("expected 3 events, got %d", len(seen))
	}
	if seen[0] != EventTurnBegin || seen[2] != EventTurnEnd {
		t.Fatalf("events delivered out of order: %v", seen)
	}

	bus.Unsubscribe(handle)
	bus.Publish(NewEvent(EventTurnBegin, "game1", 2))
	if len(seen) != 3 {
		t.Fatalf("expected no delivery after unsubscribe, got %d events", len(seen))
	}
}

func TestEventBusOrdering(t *testing.T) {
	bus := NewEventBus()

	var order []string
	bus.SubscribeTyped(EventGameOver, func(Event) { order = append(order, "typed") })
	bus.Subscribe(func(Event) { order = append(order, "all-1") })
	bus.Subscribe(func(Event) { order = append(order, "all-2") })

	bus.Publish(NewEvent(EventGameOver, "game1", 0))

	want := []string{"all-1", "all-2", "typed"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestEventBusListenerMayPublish(t *testing.T) {
	bus := NewEventBus()

	overs := 0
	bus.SubscribeTyped(EventPlayerDead, func(e Event) {
		bus.Publish(NewEvent(EventGameOver, e.GameID, 0))
	})
	bus.SubscribeTyped(EventGameOver, func(Event) { overs++ })

	bus.Publish(NewEvent(EventPlayerDead, "game1", 1))
	if overs != 1 {
		t.Fatalf("expected nested publish to be delivered once, got %d", overs)
	}
}

func TestEventBusNilListeners(t *testing.T) {
	bus := NewEventBus()
	if h := bus.Subscribe(nil); h != -1 {
		t.Fatalf("expected -1 handle for nil listener, got %d", h)
	}
	if h := bus.SubscribeTyped(EventTurnBegin, nil); h != -1 {
		t.Fatalf("expected -1 handle for nil typed listener, got %d", h)
	}
	bus.Publish(NewEvent(EventTurnBegin, "game1", 1))
}
