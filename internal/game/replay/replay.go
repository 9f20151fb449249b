// Package replay records the event log of a game and stores it as a
// gzipped gob file for later playback.
package replay

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/thbattle/thb-server-go/internal/game/rules"
	"go.uber.org/zap"
)

const version = 1

// Replay is the recorded event log of one game with a playback cursor.
type Replay struct {
	GameID string
	Events []rules.Event
	Cursor int
	mu     sync.RWMutex
}

// New creates an empty replay.
func New(gameID string) *Replay {
	return &Replay{GameID: gameID}
}

// Append records an event.
func (r *Replay) Append(event rules.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// Start rewinds the cursor.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cursor = 0
}

// Next returns the event under the cursor and advances it.
func (r *Replay) Next() (rules.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Cursor < len(r.Events) {
		event := r.Events[r.Cursor]
		r.Cursor++
		return event, true
	}
	return rules.Event{}, false
}

// Previous steps the cursor back and returns the event under it.
func (r *Replay) Previous() (rules.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Cursor > 0 {
		r.Cursor--
		return r.Events[r.Cursor], true
	}
	return rules.Event{}, false
}

// Skip moves the cursor by count, clamped to the log, and returns the event
// under it.
func (r *Replay) Skip(count int) (rules.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Events) == 0 {
		return rules.Event{}, false
	}
	r.Cursor = min(max(r.Cursor+count, 0), len(r.Events)-1)
	return r.Events[r.Cursor], true
}

// Len returns the number of recorded events.
func (r *Replay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Events)
}

// At returns the event at index.
func (r *Replay) At(index int) (rules.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Events) {
		return r.Events[index], true
	}
	return rules.Event{}, false
}

type metadata struct {
	GameID     string
	Saved      time.Time
	Version    int
	EventCount int
}

func fileName(directory, gameID string) string {
	return filepath.Join(directory, gameID+".replay")
}

// Save writes the replay to directory and returns the file path.
func (r *Replay) Save(directory string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("create replay directory: %w", err)
	}

	path := fileName(directory, r.GameID)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create replay file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)

	meta := metadata{
		GameID:     r.GameID,
		Saved:      time.Now(),
		Version:    version,
		EventCount: len(r.Events),
	}
	if err := enc.Encode(&meta); err != nil {
		return "", fmt.Errorf("encode replay metadata: %w", err)
	}
	for i := range r.Events {
		if err := enc.Encode(&r.Events[i]); err != nil {
			return "", fmt.Errorf("encode event %d: %w", i, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("flush replay: %w", err)
	}
	return path, nil
}

// Load reads the replay of gameID from directory.
func Load(directory, gameID string) (*Replay, error) {
	file, err := os.Open(fileName(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open replay stream: %w", err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)

	var meta metadata
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode replay metadata: %w", err)
	}
	if meta.Version != version {
		return nil, fmt.Errorf("unsupported replay version: %d", meta.Version)
	}

	r := New(meta.GameID)
	r.Events = make([]rules.Event, 0, meta.EventCount)
	for i := 0; i < meta.EventCount; i++ {
		var event rules.Event
		if err := dec.Decode(&event); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", i, err)
		}
		r.Events = append(r.Events, event)
	}
	return r, nil
}

// Recorder keeps a replay per game seen on the buses it is attached to.
// When a game ends its replay is saved, if a directory is configured, and
// dropped from memory.
type Recorder struct {
	logger  *zap.Logger
	saveDir string

	mu      sync.Mutex
	replays map[string]*Replay
}

// NewRecorder creates a recorder. An empty saveDir keeps finished replays
// in memory only until the game ends.
func NewRecorder(saveDir string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		logger:  logger,
		saveDir: saveDir,
		replays: make(map[string]*Replay),
	}
}

// Attach records every event published on bus. The returned function
// detaches the recorder.
func (rr *Recorder) Attach(bus *rules.EventBus) func() {
	handle := bus.Subscribe(rr.record)
	return func() { bus.Unsubscribe(handle) }
}

func (rr *Recorder) record(event rules.Event) {
	rr.mu.Lock()
	r, ok := rr.replays[event.GameID]
	if !ok {
		r = New(event.GameID)
		rr.replays[event.GameID] = r
		rr.logger.Debug("started replay recording", zap.String("game_id", event.GameID))
	}
	if event.Type == rules.EventGameOver {
		delete(rr.replays, event.GameID)
	}
	rr.mu.Unlock()

	r.Append(event)
	if event.Type == rules.EventGameOver {
		rr.finish(r)
	}
}

func (rr *Recorder) finish(r *Replay) {
	if rr.saveDir == "" {
		return
	}
	path, err := r.Save(rr.saveDir)
	if err != nil {
		rr.logger.Error("failed to save replay",
			zap.String("game_id", r.GameID),
			zap.Error(err))
		return
	}
	rr.logger.Info("saved replay to disk",
		zap.String("game_id", r.GameID),
		zap.Int("event_count", r.Len()),
		zap.String("path", path))
}

// Replay returns the replay of a game in progress.
func (rr *Recorder) Replay(gameID string) (*Replay, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	r, ok := rr.replays[gameID]
	return r, ok
}

// Drop forgets the replay of a game that will not finish.
func (rr *Recorder) Drop(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.replays, gameID)
}

// Load reads a saved replay from the recorder's directory.
func (rr *Recorder) Load(gameID string) (*Replay, error) {
	if rr.saveDir == "" {
		return nil, fmt.Errorf("replay storage disabled")
	}
	return Load(rr.saveDir, gameID)
}
