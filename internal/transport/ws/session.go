// Package ws seats remote players over websocket connections. A Session
// implements the engine's player session: input requests go out as
// numbered "input" messages and come back as "response" messages with the
// same sequence number.
package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/thbattle/thb-server-go/internal/game/card"
	"github.com/thbattle/thb-server-go/internal/game/rules"
	"go.uber.org/zap"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Message types.
const (
	TypeInput    = "input"
	TypeResponse = "response"
	TypeReveal   = "reveal"
	TypeEvent    = "event"
)

// ErrClosed is returned by requests made on or interrupted by a closed
// session.
var ErrClosed = errors.New("ws: session closed")

// Message is the envelope of every frame in both directions.
type Message struct {
	Type string          `json:"type"`
	Seq  uint64          `json:"seq,omitempty"`
	Kind string          `json:"kind,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Session is one connected player.
type Session struct {
	conn         *websocket.Conn
	name         string
	logger       *zap.Logger
	writeTimeout time.Duration
	send         chan []byte

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]chan any

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, name string, writeTimeout time.Duration, logger *zap.Logger) *Session {
	s := &Session{
		conn:         conn,
		name:         name,
		logger:       logger.With(zap.String("player", name)),
		writeTimeout: writeTimeout,
		send:         make(chan []byte, sendBuffer),
		pending:      make(map[uint64]chan any),
		done:         make(chan struct{}),
	}
	go s.writePump()
	go s.readPump()
	return s
}

// Name is the player name given when connecting.
func (s *Session) Name() string { return s.name }

// Done is closed once the connection is gone.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close drops the connection. Pending requests fail with ErrClosed.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// RequestInput sends an input request and waits for the matching response.
// The response data is decoded with json.Number for numbers.
func (s *Session) RequestInput(ctx context.Context, kind string, prompt any) (any, error) {
	data, err := json.Marshal(prompt)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	reply := make(chan any, 1)
	s.pending[seq] = reply
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, seq)
		s.mu.Unlock()
	}()

	frame, err := json.Marshal(Message{Type: TypeInput, Seq: seq, Kind: kind, Data: data})
	if err != nil {
		return nil, err
	}
	select {
	case s.send <- frame:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	}

	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	}
}

// Reveal pushes card identities to the player.
func (s *Session) Reveal(cards []*card.Card) {
	s.push(TypeReveal, "", card.Views(cards))
}

// Notify pushes a game event to the player.
func (s *Session) Notify(event rules.Event) {
	s.push(TypeEvent, string(event.Type), event)
}

// push queues a notification without blocking the engine. Notifications
// to a player that stopped reading are dropped.
func (s *Session) push(typ, kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshal push", zap.String("type", typ), zap.Error(err))
		return
	}
	frame, err := json.Marshal(Message{Type: typ, Kind: kind, Data: data})
	if err != nil {
		s.logger.Error("marshal push", zap.String("type", typ), zap.Error(err))
		return
	}

	select {
	case <-s.done:
	case s.send <- frame:
	default:
		s.logger.Warn("send buffer full, dropping message", zap.String("type", typ))
	}
}

func (s *Session) readPump() {
	defer func() {
		s.Close()
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("ws read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(frame, &msg); err != nil {
			s.logger.Debug("ws parse error", zap.Error(err))
			continue
		}
		if msg.Type != TypeResponse {
			s.logger.Debug("ignoring message", zap.String("type", msg.Type))
			continue
		}
		s.deliver(msg)
	}
}

func (s *Session) deliver(msg Message) {
	var v any
	if len(msg.Data) > 0 {
		dec := json.NewDecoder(bytes.NewReader(msg.Data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			// Malformed answers still resolve the request, as no answer.
			v = nil
		}
	}

	s.mu.Lock()
	reply, ok := s.pending[msg.Seq]
	delete(s.pending, msg.Seq)
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("stale response", zap.Uint64("seq", msg.Seq))
		return
	}
	reply <- v
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Debug("ws write error", zap.Error(err))
				s.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
