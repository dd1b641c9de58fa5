package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Game.Blinds)
	assert.Equal(t, 100, cfg.Game.StartingChips)
	assert.Equal(t, []string{"alice", "bob", "carol"}, cfg.Game.Players)
	assert.Equal(t, "memory", cfg.History.Backend)
	assert.Equal(t, 2*time.Second, cfg.Server.DecisionTimeout)
	assert.Equal(t, *cfg, C)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
game:
  blinds: 5
  players: [p1, p2]
history:
  backend: redis
  ttl: 1h
redis:
  addr: 127.0.0.1:6390
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Game.Blinds)
	assert.Equal(t, 100, cfg.Game.StartingChips, "unset keys keep defaults")
	assert.Equal(t, []string{"p1", "p2"}, cfg.Game.Players)
	assert.Equal(t, "redis", cfg.History.Backend)
	assert.Equal(t, time.Hour, cfg.History.TTL)
	assert.Equal(t, "127.0.0.1:6390", cfg.Redis.Addr)
}

func TestLoadShippedFile(t *testing.T) {
	cfg, err := Load("config.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.History.TTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("HOLDEM_GAME_BLINDS", "20")
	t.Setenv("HOLDEM_LOG_LEVEL", "debug")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Game.Blinds)
	assert.Equal(t, "debug", cfg.Log.Level)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("blinds", 10, "")
	fs.Int("hands", 10, "")
	require.NoError(t, fs.Parse([]string{"--blinds=40"}))

	cfg, err = Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Game.Blinds, "flag beats env")
	assert.Equal(t, 10, cfg.Game.Hands)
}

func TestValidate(t *testing.T) {
	t.Setenv("HOLDEM_GAME_BLINDS", "-1")
	_, err := Load("", nil)
	assert.ErrorContains(t, err, "game.blinds")

	t.Setenv("HOLDEM_GAME_BLINDS", "10")
	t.Setenv("HOLDEM_HISTORY_BACKEND", "postgres")
	_, err = Load("", nil)
	assert.ErrorContains(t, err, "history.backend")
}
