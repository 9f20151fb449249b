// Package input provides in-process player sessions: a scripted responder
// for tests and bots, and a channel exchange for players driven from
// another goroutine.
package input

import (
	"context"
	"sync"

	"github.com/thbattle/thb-server-go/internal/game/card"
)

// Request records an input request made to a session.
type Request struct {
	Kind   string
	Prompt any
}

// Scripted answers input requests from per-kind queues. An exhausted queue
// answers nil, which the engine treats like a timeout.
type Scripted struct {
	mu       sync.Mutex
	answers  map[string][]any
	requests []Request
	revealed []*card.Card
}

// NewScripted creates a scripted session with no queued answers.
func NewScripted() *Scripted {
	return &Scripted{answers: make(map[string][]any)}
}

// Push queues answers for the given input kind.
func (s *Scripted) Push(kind string, answers ...any) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[kind] = append(s.answers[kind], answers...)
	return s
}

// RequestInput pops the next queued answer for kind.
func (s *Scripted) RequestInput(ctx context.Context, kind string, prompt any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Kind: kind, Prompt: prompt})

	queue := s.answers[kind]
	if len(queue) == 0 {
		return nil, nil
	}
	answer := queue[0]
	s.answers[kind] = queue[1:]
	return answer, nil
}

// Reveal records the disclosed cards.
func (s *Scripted) Reveal(cards []*card.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealed = append(s.revealed, cards...)
}

// Revealed returns every card disclosed to this session, in order.
func (s *Scripted) Revealed() []*card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*card.Card, len(s.revealed))
	copy(out, s.revealed)
	return out
}

// Requests returns the input requests made so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Pending returns the number of queued answers left for kind.
func (s *Scripted) Pending(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers[kind])
}
