package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thbattle/thb-server-go/internal/game/card"
	"github.com/thbattle/thb-server-go/internal/game/rules"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/thbattle/thb-server-go/internal/game"

// Input kinds sent to Session.RequestInput.
const (
	InputChooseCard  = "choose_card"
	InputActionStage = "action_stage_usecard"
)

// Config holds the engine tunables.
type Config struct {
	// RecursionLimit bounds the depth of nested Process calls.
	RecursionLimit int
	// InputTimeout bounds every player input request. Zero disables it.
	InputTimeout time.Duration
	InitialHand  int
	DrawPerTurn  int
	// MaxRounds stops Run after this many rounds. Zero means no limit.
	MaxRounds int
}

// DefaultConfig returns the stock engine settings.
func DefaultConfig() Config {
	return Config{
		RecursionLimit: 64,
		InputTimeout:   30 * time.Second,
		InitialHand:    4,
		DrawPerTurn:    2,
	}
}

// Option configures a Game.
type Option func(*Game)

func WithLogger(logger *zap.Logger) Option {
	return func(g *Game) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(g *Game) { g.cfg = cfg }
}

func WithEventBus(bus *rules.EventBus) Option {
	return func(g *Game) {
		if bus != nil {
			g.bus = bus
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(g *Game) {
		if tracer != nil {
			g.tracer = tracer
		}
	}
}

// WithID overrides the generated game id.
func WithID(id string) Option {
	return func(g *Game) { g.id = id }
}

// WithEffect binds the effect constructor used when a card of the given
// type is launched. A nil constructor makes the type unplayable.
func WithEffect(typ card.Type, fn EffectFunc) Option {
	return func(g *Game) {
		if fn == nil {
			delete(g.effects, typ)
			return
		}
		g.effects[typ] = fn
	}
}

// Game is the coordinator: it owns the roster, the deck and the single
// gateway through which every action is processed.
type Game struct {
	id      string
	cfg     Config
	logger  *zap.Logger
	tracer  trace.Tracer
	deck    *card.Deck
	players Roster
	bus     *rules.EventBus
	chain   chain
	effects map[card.Type]EffectFunc

	// mu serializes top-level resolutions. Nested Process calls run on the
	// goroutine holding it.
	mu         sync.Mutex
	depth      int
	resolution string
}

// New creates a game over the given deck and seated players.
func New(deck *card.Deck, players []*Player, opts ...Option) *Game {
	g := &Game{
		id:      uuid.NewString(),
		cfg:     DefaultConfig(),
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
		deck:    deck,
		players: Roster(players),
		bus:     rules.NewEventBus(),
		effects: StandardEffects(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cfg.RecursionLimit <= 0 {
		g.cfg.RecursionLimit = DefaultConfig().RecursionLimit
	}
	g.logger = g.logger.With(zap.String("game_id", g.id))
	return g
}

func (g *Game) ID() string              { return g.id }
func (g *Game) Config() Config          { return g.cfg }
func (g *Game) Deck() *card.Deck        { return g.deck }
func (g *Game) Players() Roster         { return g.players }
func (g *Game) Events() *rules.EventBus { return g.bus }

// Intercept registers an interceptor at the end of the chain.
func (g *Game) Intercept(ic Interceptor) Handle {
	h := g.chain.add(ic)
	g.logger.Debug("registered interceptor",
		zap.String("interceptor", ic.Name),
		zap.Stringer("category", ic.Category),
		zap.Int("handle", int(h)))
	return h
}

// Unintercept removes a registered interceptor.
func (g *Game) Unintercept(h Handle) bool {
	return g.chain.remove(h)
}

// Resolve is the top-level entry point for an action tree. It serializes
// against other resolutions and turns an invariant violation anywhere in
// the tree into a returned *InvariantError.
func (g *Game) Resolve(ctx context.Context, a Action) (applied bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.resolution = uuid.NewString()
	defer func() { g.resolution = "" }()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ie, ok := r.(*InvariantError)
		if !ok {
			panic(r)
		}
		g.logger.Error("action tree halted",
			zap.String("resolution_id", g.resolution),
			zap.String("action", string(a.Kind())),
			zap.Error(ie))
		applied, err = false, ie
	}()

	return g.Process(ctx, a), nil
}

// Process runs a through the interception chain and applies it. It is
// reentrant: actions submit their sub-actions here. Only call it from
// inside a resolution started by Resolve.
func (g *Game) Process(ctx context.Context, a Action) bool {
	g.depth++
	defer func() { g.depth-- }()

	kind := a.Kind()
	if g.depth > g.cfg.RecursionLimit {
		violate(kind, "recursion limit %d exceeded", g.cfg.RecursionLimit)
	}

	ctx, span := g.tracer.Start(ctx, "action."+string(kind), trace.WithAttributes(
		attribute.String("action.kind", string(kind)),
		attribute.String("action.category", a.Category().String()),
		attribute.Int("action.depth", g.depth),
	))
	defer span.End()

	interceptors := g.chain.matching(a)

	vetoedBy := ""
	for _, ic := range interceptors {
		if ic.Before == nil {
			continue
		}
		if ic.Before(ctx, g, a) == Veto {
			vetoedBy = ic.Name
			break
		}
	}

	applied := false
	if vetoedBy == "" {
		applied = a.Apply(ctx, g)
	}

	defaulted := false
	if vetoedBy != "" || !applied {
		if d, ok := a.(Defaulter); ok {
			applied = d.Default(ctx, g)
			defaulted = true
		}
	}

	for _, ic := range interceptors {
		if ic.After != nil {
			ic.After(ctx, g, a, applied)
		}
	}

	span.SetAttributes(
		attribute.Bool("action.applied", applied),
		attribute.Bool("action.defaulted", defaulted),
	)
	if vetoedBy != "" {
		span.SetAttributes(attribute.String("action.vetoed_by", vetoedBy))
	}

	g.logger.Debug("processed action",
		zap.String("resolution_id", g.resolution),
		zap.String("action", string(kind)),
		zap.Int("depth", g.depth),
		zap.Bool("applied", applied),
		zap.Bool("defaulted", defaulted),
		zap.String("vetoed_by", vetoedBy))

	return applied
}

// Emit broadcasts a notification. Events are not actions and cannot be
// intercepted.
func (g *Game) Emit(event rules.Event) {
	if event.GameID == "" {
		event.GameID = g.id
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	g.bus.Publish(event)
}

// Reveal discloses cards to the audience without moving them.
func (g *Game) Reveal(cards []*card.Card, audience Roster) {
	if len(cards) == 0 {
		return
	}
	for _, p := range audience {
		if p.session != nil {
			p.session.Reveal(cards)
		}
	}
	event := rules.NewEvent(rules.EventCardsRevealed, g.id, 0)
	event.CardIDs = card.IDs(cards)
	event.Audience = audience.IDs()
	g.Emit(event)
}

// RequestInput asks p for input with the configured bounded wait. Timeouts,
// disconnects and missing sessions all come back as nil.
func (g *Game) RequestInput(ctx context.Context, p *Player, kind string, prompt any) any {
	if p.session == nil {
		return nil
	}
	if g.cfg.InputTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.InputTimeout)
		defer cancel()
	}

	resp, err := p.session.RequestInput(ctx, kind, prompt)
	if err != nil {
		g.logger.Debug("input request unanswered",
			zap.Int("player_id", p.id),
			zap.String("kind", kind),
			zap.Error(err))
		return nil
	}
	return resp
}

// Prompt is the context sent along with an input request.
type Prompt struct {
	Action Kind   `json:"action"`
	Hint   string `json:"hint,omitempty"`
	Count  int    `json:"count,omitempty"`
	Hand   []int  `json:"hand"`
}

func newPrompt(kind Kind, p *Player, hint string, count int) Prompt {
	return Prompt{
		Action: kind,
		Hint:   hint,
		Count:  count,
		Hand:   card.IDs(p.hand),
	}
}
