package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Listener upgrades HTTP requests into sessions and hands them out in
// connection order. Connections beyond the backlog are turned away.
type Listener struct {
	upgrader     websocket.Upgrader
	logger       *zap.Logger
	writeTimeout time.Duration
	sessions     chan *Session
}

// NewListener creates a listener queueing at most backlog unclaimed
// sessions.
func NewListener(backlog int, writeTimeout time.Duration, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Listener{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:       logger,
		writeTimeout: writeTimeout,
		sessions:     make(chan *Session, backlog),
	}
}

// ServeHTTP implements http.Handler. The player name is taken from the
// "name" query parameter.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}

	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Warn("ws upgrade error", zap.Error(err))
		return
	}

	s := newSession(conn, name, l.writeTimeout, l.logger)
	select {
	case l.sessions <- s:
		l.logger.Info("player connected",
			zap.String("player", name),
			zap.String("remote", r.RemoteAddr))
	default:
		l.logger.Info("table full, connection refused", zap.String("player", name))
		s.Close()
	}
}

// Accept waits for n sessions.
func (l *Listener) Accept(ctx context.Context, n int) ([]*Session, error) {
	out := make([]*Session, 0, n)
	for len(out) < n {
		select {
		case s := <-l.sessions:
			select {
			case <-s.Done():
				continue
			default:
			}
			out = append(out, s)
		case <-ctx.Done():
			for _, s := range out {
				s.Close()
			}
			return nil, ctx.Err()
		}
	}
	return out, nil
}
