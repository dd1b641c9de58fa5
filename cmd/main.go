package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"HoldemCore/config"
	"HoldemCore/internal/game/bot"
	"HoldemCore/internal/game/manager"
	"HoldemCore/internal/history"
	"HoldemCore/internal/hub"
	"HoldemCore/internal/storage"
	"HoldemCore/internal/utils"
)

func main() {
	cfgPath := pflag.StringP("config", "c", "", "config file (yaml)")
	pflag.Int("blinds", 10, "blinds for every hand")
	pflag.Int("chips", 100, "starting chips per player")
	pflag.Int64("seed", 0, "deck and bot seed, 0 = clock")
	pflag.IntP("hands", "n", 10, "hands to play, 0 = until one player is left")
	pflag.StringSlice("players", []string{"alice", "bob", "carol"}, "player names")
	pflag.String("history", "memory", "hand history backend: memory or redis")
	pflag.String("redis", "localhost:6379", "redis address")
	pflag.String("log", "info", "log level")
	pflag.Duration("timeout", 0, "per decision timeout")
	pflag.Parse()

	cfg, err := config.Load(*cfgPath, pflag.CommandLine)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := utils.Init(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("holdem", "err", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	//-------------------------------------------------------
	// 1. Hub（必须最先启动）
	//-------------------------------------------------------
	h := hub.New(logger)
	go h.Run(ctx)
	defer h.Close()

	watcher := h.Watch(hub.DefaultBuffer)
	go func() {
		for msg := range watcher.Send {
			logger.Debug("event", "event", msg.Event)
		}
	}()

	//-------------------------------------------------------
	// 2. 牌谱存储
	//-------------------------------------------------------
	repo, closeRepo, err := newRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()
	svc := history.NewService(repo, h, logger)

	//-------------------------------------------------------
	// 3. GameManager + 机器人
	//-------------------------------------------------------
	mgr, err := manager.NewGameManager(h, svc, logger, manager.Options{
		Blinds:   cfg.Game.Blinds,
		Seed:     cfg.Game.Seed,
		Attempts: cfg.Game.Attempts,
	})
	if err != nil {
		return err
	}

	for i, id := range cfg.Game.Players {
		var seed int64
		if cfg.Game.Seed != 0 {
			seed = cfg.Game.Seed + int64(i) + 1
		}

		provider := bot.NewRandom(seed, cfg.Game.RaiseEvery)
		if err := mgr.Join(id, cfg.Game.StartingChips, withTimeout(provider, cfg)); err != nil {
			return fmt.Errorf("join %s: %w", id, err)
		}
	}

	logger.Info("table ready", "name", cfg.Server.Name, "table", mgr.TableID(), "players", len(cfg.Game.Players), "blinds", cfg.Game.Blinds)

	//-------------------------------------------------------
	// 4. 开打
	//-------------------------------------------------------
	results, err := mgr.Play(ctx, cfg.Game.Hands)
	if err != nil && ctx.Err() == nil {
		return err
	}

	fmt.Println(renderSummary(cfg.Server.Name, results, mgr.Chips()))

	if n, err := svc.Count(context.Background()); err == nil {
		logger.Info("hands recorded", "count", n, "backend", cfg.History.Backend)
	}
	return nil
}

func newRepo(ctx context.Context, cfg *config.Config) (history.Repo, func(), error) {
	if cfg.History.Backend != "redis" {
		return history.NewMemoryRepo(cfg.History.MaxLen), func() {}, nil
	}

	rdb, err := storage.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return history.NewRedisRepo(rdb, cfg.History.MaxLen, cfg.History.TTL), func() { _ = rdb.Close() }, nil
}
