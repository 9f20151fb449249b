package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thbattle/thb-server-go/internal/config"
	"github.com/thbattle/thb-server-go/internal/game"
	"github.com/thbattle/thb-server-go/internal/game/card"
	"github.com/thbattle/thb-server-go/internal/game/replay"
	"github.com/thbattle/thb-server-go/internal/game/rules"
	"github.com/thbattle/thb-server-go/internal/game/watchers"
	"github.com/thbattle/thb-server-go/internal/platform/otel"
	"github.com/thbattle/thb-server-go/internal/transport/ws"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

const shutdownTimeout = 5 * time.Second

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting THB server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	shutdownTracing, err := otel.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName,
		otel.WithLogger(logger),
		otel.WithHeaders(cfg.Telemetry.Headers),
		otel.WithSampleRatio(cfg.Telemetry.SampleRatio),
		otel.WithVersion(version),
	)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", zap.Error(err))
		}
	}()

	listener := ws.NewListener(cfg.Game.Players, cfg.Server.WriteTimeout, logger)
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, listener)
	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	// Start WebSocket server
	group.Go(func() error {
		logger.Info("starting WebSocket server",
			zap.String("address", cfg.Server.Address),
			zap.String("path", cfg.Server.Path))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("websocket server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down gracefully...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		return httpServer.Shutdown(stopCtx)
	})

	recorder := replay.NewRecorder(cfg.Replay.Dir, logger)

	group.Go(func() error {
		return hostTables(ctx, cfg, listener, recorder, logger)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("THB server stopped")
}

// hostTables seats connecting players and plays one game after another
// until ctx ends.
func hostTables(ctx context.Context, cfg *config.Config, listener *ws.Listener, recorder *replay.Recorder, logger *zap.Logger) error {
	for table := 1; ; table++ {
		sessions, err := listener.Accept(ctx, cfg.Game.Players)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := playTable(ctx, cfg, sessions, recorder, logger.With(zap.Int("table", table))); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// An invariant violation ends the table, not the server.
			logger.Error("table aborted", zap.Int("table", table), zap.Error(err))
		}
	}
}

func playTable(ctx context.Context, cfg *config.Config, sessions []*ws.Session, recorder *replay.Recorder, logger *zap.Logger) error {
	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()

	players := make([]*game.Player, len(sessions))
	for i, s := range sessions {
		players[i] = game.NewPlayer(i+1, s.Name(), cfg.Game.MaxLife, s)
	}

	// Reveals reach their audience through Session.Reveal; the event only
	// carries card ids and must not be broadcast.
	bus := rules.NewEventBus()
	bus.Subscribe(func(event rules.Event) {
		if event.Type == rules.EventCardsRevealed {
			return
		}
		for _, s := range sessions {
			s.Notify(event)
		}
	})
	defer recorder.Attach(bus)()

	kills, plays := watchers.NewKills(), watchers.NewPlays()
	stats := watchers.NewRegistry()
	stats.Add(kills)
	stats.Add(plays)
	defer stats.Attach(bus)()

	g := game.New(card.NewStandardDeck(cfg.Composition()), players,
		game.WithLogger(logger),
		game.WithConfig(cfg.Engine()),
		game.WithEventBus(bus),
	)

	winner, err := g.Run(ctx)
	if err != nil {
		recorder.Drop(g.ID())
		return err
	}
	for _, p := range players {
		logger.Info("player summary",
			zap.String("game_id", g.ID()),
			zap.Stringer("player", p),
			zap.Int("turns", plays.Turns(p.ID())),
			zap.Int("cards_played", plays.Cards(p.ID())),
			zap.Int("kills", kills.By(p.ID())))
	}
	if winner != nil {
		logger.Info("table finished", zap.String("game_id", g.ID()), zap.Stringer("winner", winner))
	} else {
		logger.Info("table finished without a winner", zap.String("game_id", g.ID()))
	}
	return nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
