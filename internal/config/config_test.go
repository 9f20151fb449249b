package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thbattle/thb-server-go/internal/game"
	"github.com/thbattle/thb-server-go/internal/game/card"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "/ws", cfg.Server.Path)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 2, cfg.Game.Players)
	assert.Equal(t, 4, cfg.Game.MaxLife)
	assert.Equal(t, game.DefaultConfig(), cfg.Engine())
	assert.Equal(t, card.DefaultComposition, cfg.Composition())
	assert.Equal(t, "thb-server", cfg.Telemetry.ServiceName)
	assert.Empty(t, cfg.Telemetry.Endpoint)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
	assert.Empty(t, cfg.Replay.Dir)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Game.Players)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
server:
  address: 127.0.0.1:9000
  write_timeout: 3s
game:
  players: 4
  max_life: 5
  input_timeout: 500ms
  max_rounds: 40
deck:
  attack: 12
  graze: 8
  heal: 4
telemetry:
  sample_ratio: 0.25
  headers:
    authorization: Bearer secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, "/ws", cfg.Server.Path, "unset keys keep their default")
	assert.Equal(t, 3*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 4, cfg.Game.Players)
	assert.Equal(t, 5, cfg.Game.MaxLife)

	engine := cfg.Engine()
	assert.Equal(t, 500*time.Millisecond, engine.InputTimeout)
	assert.Equal(t, 40, engine.MaxRounds)
	assert.Equal(t, game.DefaultConfig().RecursionLimit, engine.RecursionLimit)
	assert.Equal(t, card.Composition{Attack: 12, Graze: 8, Heal: 4}, cfg.Composition())
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
	assert.Equal(t, map[string]string{"authorization": "Bearer secret"}, cfg.Telemetry.Headers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "game:\n  max_life: 5\n")
	t.Setenv("THB_GAME_MAX_LIFE", "7")
	t.Setenv("THB_SERVER_PATH", "/play")
	t.Setenv("THB_TELEMETRY_ENDPOINT", "localhost:4318")
	t.Setenv("THB_REPLAY_DIR", "/var/lib/thb/replays")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Game.MaxLife)
	assert.Equal(t, "/play", cfg.Server.Path)
	assert.Equal(t, "localhost:4318", cfg.Telemetry.Endpoint)
	assert.Equal(t, "/var/lib/thb/replays", cfg.Replay.Dir)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "game: [players\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "one player", mutate: func(c *Config) { c.Game.Players = 1 }, want: "game.players"},
		{name: "no life", mutate: func(c *Config) { c.Game.MaxLife = 0 }, want: "game.max_life"},
		{name: "negative draw", mutate: func(c *Config) { c.Game.DrawPerTurn = -1 }, want: "game.draw_per_turn"},
		{name: "no recursion", mutate: func(c *Config) { c.Game.RecursionLimit = 0 }, want: "game.recursion_limit"},
		{name: "negative timeout", mutate: func(c *Config) { c.Game.InputTimeout = -time.Second }, want: "game.input_timeout"},
		{name: "negative rounds", mutate: func(c *Config) { c.Game.MaxRounds = -1 }, want: "game.max_rounds"},
		{name: "negative deck", mutate: func(c *Config) { c.Deck.Heal = -1 }, want: "deck counts"},
		{name: "deck too small", mutate: func(c *Config) { c.Deck = DeckConfig{Attack: 3} }, want: "cannot deal"},
		{name: "sample ratio above one", mutate: func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, want: "telemetry.sample_ratio"},
		{name: "relative path", mutate: func(c *Config) { c.Server.Path = "ws" }, want: "server.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, valid().Validate())
}
