package input

import (
	"context"
	"sync"

	"github.com/thbattle/thb-server-go/internal/game/card"
)

// Pending is an input request waiting for an answer.
type Pending struct {
	Kind   string
	Prompt any

	reply chan any
}

// Respond answers the request. Only the first answer counts; answers
// after the requester gave up are dropped.
func (p *Pending) Respond(v any) {
	select {
	case p.reply <- v:
	default:
	}
}

// Exchange is a message-passing session. Each input request is published
// on Requests and blocks the engine until it is answered or the request
// context ends.
type Exchange struct {
	requests chan *Pending

	mu       sync.Mutex
	revealed []*card.Card
}

// NewExchange creates an exchange. buffer is the number of requests that
// may be queued before a reader picks them up.
func NewExchange(buffer int) *Exchange {
	return &Exchange{requests: make(chan *Pending, buffer)}
}

// Requests delivers input requests to the player side.
func (e *Exchange) Requests() <-chan *Pending {
	return e.requests
}

// RequestInput publishes a request and waits for the answer.
func (e *Exchange) RequestInput(ctx context.Context, kind string, prompt any) (any, error) {
	p := &Pending{Kind: kind, Prompt: prompt, reply: make(chan any, 1)}

	select {
	case e.requests <- p:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case v := <-p.reply:
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reveal records the disclosed cards.
func (e *Exchange) Reveal(cards []*card.Card) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revealed = append(e.revealed, cards...)
}

// Revealed returns every card disclosed to this session, in order.
func (e *Exchange) Revealed() []*card.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*card.Card, len(e.revealed))
	copy(out, e.revealed)
	return out
}

// Serve answers requests with fn until ctx ends.
func (e *Exchange) Serve(ctx context.Context, fn func(kind string, prompt any) any) {
	for {
		select {
		case p := <-e.requests:
			p.Respond(fn(p.Kind, p.Prompt))
		case <-ctx.Done():
			return
		}
	}
}
