package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vitaminbot/config"
	"vitaminbot/db"
	"vitaminbot/scheduler"
	"vitaminbot/tgbot"

	"go.uber.org/zap"
)

// getLogger creates a logger in global namespace
func getLogger() (*zap.SugaredLogger, func() error) {
	logger, _ := zap.NewDevelopment(zap.Fields(zap.String("ns", "VitaminBot")))

	log := logger.Sugar()
	return log, logger.Sync
}

// Bot entry point
func main() {
	logger, syncLogs := getLogger()
	defer syncLogs()

	cfgFile, ok := os.LookupEnv("CONFIG_FILE")
	if !ok {
		logger.Fatalf("Configuration file name isn't set")
	}

	cfg, err := config.Read(cfgFile)
	if err != nil {
		logger.Fatalw(fmt.Sprintf("Couldn't read configuration from file %q", cfgFile), "err", err)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal(err)
	}

	// cfg.String redacts the token
	logger.Infof("configuration loaded: %s", cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalw("failed loading time zone", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := db.Init(ctx, cfg.DBConnStr, loc)
	if err != nil {
		logger.Fatalw("failed to initialize database", "err", err)
	}
	defer d.Close()

	prefs := scheduler.NewPrefs(cfg.RepeatRemindersEnabled())

	b, err := tgbot.NewTBot(cfg, d, prefs, logger)
	if err != nil {
		logger.Fatalw("failed to initialize bot", "err", err)
	}
	b.Postponer = scheduler.NewPostponer(b, logger)

	evaluator := scheduler.NewEvaluator(d, b, cfg.AllowedUsers, cfg.CheckInterval(), loc, logger)
	go evaluator.Run(ctx)

	if cfg.RepeatRemindersEnabled() {
		escalator := scheduler.NewEscalator(d, b, prefs, cfg.AllowedUsers,
			cfg.RepeatCheckInterval(), cfg.RepeatInterval(), cfg.MaxAttempts, loc, logger)
		go escalator.Run(ctx)
	}

	b.Run(ctx)
}
