// Package config loads server configuration from an optional YAML file and
// THB_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/thbattle/thb-server-go/internal/game"
	"github.com/thbattle/thb-server-go/internal/game/card"
)

// EnvPrefix prefixes every environment override, e.g. THB_GAME_MAX_LIFE.
const EnvPrefix = "THB"

// Config is the root server configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Game      GameConfig      `mapstructure:"game"`
	Deck      DeckConfig      `mapstructure:"deck"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Replay    ReplayConfig    `mapstructure:"replay"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the websocket listener players connect to.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	Path         string        `mapstructure:"path"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GameConfig configures the table and the engine.
type GameConfig struct {
	Players        int           `mapstructure:"players"`
	MaxLife        int           `mapstructure:"max_life"`
	InitialHand    int           `mapstructure:"initial_hand"`
	DrawPerTurn    int           `mapstructure:"draw_per_turn"`
	RecursionLimit int           `mapstructure:"recursion_limit"`
	InputTimeout   time.Duration `mapstructure:"input_timeout"`
	MaxRounds      int           `mapstructure:"max_rounds"`
}

// DeckConfig is the number of cards of each type in the deck.
type DeckConfig struct {
	Attack int `mapstructure:"attack"`
	Graze  int `mapstructure:"graze"`
	Heal   int `mapstructure:"heal"`
}

// TelemetryConfig enables trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string            `mapstructure:"endpoint"`
	ServiceName string            `mapstructure:"service_name"`
	Headers     map[string]string `mapstructure:"headers"`
	SampleRatio float64           `mapstructure:"sample_ratio"`
}

// ReplayConfig sets where finished games are stored. Empty disables
// storage.
type ReplayConfig struct {
	Dir string `mapstructure:"dir"`
}

func setDefaults(v *viper.Viper) {
	engine := game.DefaultConfig()
	deck := card.DefaultComposition

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.path", "/ws")
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("game.players", 2)
	v.SetDefault("game.max_life", 4)
	v.SetDefault("game.initial_hand", engine.InitialHand)
	v.SetDefault("game.draw_per_turn", engine.DrawPerTurn)
	v.SetDefault("game.recursion_limit", engine.RecursionLimit)
	v.SetDefault("game.input_timeout", engine.InputTimeout)
	v.SetDefault("game.max_rounds", engine.MaxRounds)

	v.SetDefault("deck.attack", deck.Attack)
	v.SetDefault("deck.graze", deck.Graze)
	v.SetDefault("deck.heal", deck.Heal)

	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "thb-server")
	v.SetDefault("telemetry.sample_ratio", 1.0)

	v.SetDefault("replay.dir", "")
}

// Load reads configuration from path, if it exists, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks the values the server cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Game.Players < 2:
		return fmt.Errorf("%w: game.players must be at least 2, got %d", ErrInvalid, c.Game.Players)
	case c.Game.MaxLife < 1:
		return fmt.Errorf("%w: game.max_life must be positive, got %d", ErrInvalid, c.Game.MaxLife)
	case c.Game.InitialHand < 0 || c.Game.DrawPerTurn < 0:
		return fmt.Errorf("%w: game.initial_hand and game.draw_per_turn must not be negative", ErrInvalid)
	case c.Game.RecursionLimit < 1:
		return fmt.Errorf("%w: game.recursion_limit must be positive, got %d", ErrInvalid, c.Game.RecursionLimit)
	case c.Game.InputTimeout < 0:
		return fmt.Errorf("%w: game.input_timeout must not be negative", ErrInvalid)
	case c.Game.MaxRounds < 0:
		return fmt.Errorf("%w: game.max_rounds must not be negative", ErrInvalid)
	case c.Deck.Attack < 0 || c.Deck.Graze < 0 || c.Deck.Heal < 0:
		return fmt.Errorf("%w: deck counts must not be negative", ErrInvalid)
	case c.Composition().Total() < c.Game.Players*c.Game.InitialHand:
		return fmt.Errorf("%w: deck of %d cards cannot deal %d hands of %d", ErrInvalid,
			c.Composition().Total(), c.Game.Players, c.Game.InitialHand)
	case c.Server.Path == "" || !strings.HasPrefix(c.Server.Path, "/"):
		return fmt.Errorf("%w: server.path must start with /, got %q", ErrInvalid, c.Server.Path)
	case c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1:
		return fmt.Errorf("%w: telemetry.sample_ratio must be within [0, 1], got %g", ErrInvalid, c.Telemetry.SampleRatio)
	}
	return nil
}

// Engine returns the engine settings.
func (c *Config) Engine() game.Config {
	return game.Config{
		RecursionLimit: c.Game.RecursionLimit,
		InputTimeout:   c.Game.InputTimeout,
		InitialHand:    c.Game.InitialHand,
		DrawPerTurn:    c.Game.DrawPerTurn,
		MaxRounds:      c.Game.MaxRounds,
	}
}

// Composition returns the deck makeup.
func (c *Config) Composition() card.Composition {
	return card.Composition{
		Attack: c.Deck.Attack,
		Graze:  c.Deck.Graze,
		Heal:   c.Deck.Heal,
	}
}
