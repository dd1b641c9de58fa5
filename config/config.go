package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Redis   RedisConfig   `mapstructure:"redis"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Name            string        `mapstructure:"name"`
	DecisionTimeout time.Duration `mapstructure:"decisionTimeout"`
}

type GameConfig struct {
	Blinds        int      `mapstructure:"blinds"`
	StartingChips int      `mapstructure:"startingChips"`
	Seed          int64    `mapstructure:"seed"` // 0 = clock
	Hands         int      `mapstructure:"hands"`
	Attempts      int      `mapstructure:"attempts"`
	Players       []string `mapstructure:"players"`
	RaiseEvery    int      `mapstructure:"raiseEvery"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type HistoryConfig struct {
	Backend string        `mapstructure:"backend"` // memory, redis
	MaxLen  int           `mapstructure:"maxLen"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// C is the configuration loaded by the last successful Load
var C Config

const EnvPrefix = "HOLDEM"

// flagKeys maps command line flags to config keys
var flagKeys = map[string]string{
	"blinds":  "game.blinds",
	"chips":   "game.startingChips",
	"seed":    "game.seed",
	"hands":   "game.hands",
	"players": "game.players",
	"history": "history.backend",
	"redis":   "redis.addr",
	"log":     "log.level",
	"timeout": "server.decisionTimeout",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "holdem")
	v.SetDefault("server.decisionTimeout", 2*time.Second)

	v.SetDefault("game.blinds", 10)
	v.SetDefault("game.startingChips", 100)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.hands", 10)
	v.SetDefault("game.attempts", 3)
	v.SetDefault("game.players", []string{"alice", "bob", "carol"})
	v.SetDefault("game.raiseEvery", 4)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.maxLen", 1000)
	v.SetDefault("history.ttl", 0)

	v.SetDefault("log.level", "info")
}

// Load reads path (optional), HOLDEM_* environment variables and flags, in
// increasing order of precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
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

	C = cfg
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Game.Blinds < 0:
		return errors.New("game.blinds must be non-negative")
	case c.Game.StartingChips <= 0:
		return errors.New("game.startingChips must be positive")
	case len(c.Game.Players) < 2:
		return errors.New("game.players needs at least 2 players")
	}

	switch c.History.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("history.backend %q is not one of memory, redis", c.History.Backend)
	}

	return nil
}
