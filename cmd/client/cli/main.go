package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/mazgpt/mazgpt-go/internal/buildinfo"
	"github.com/mazgpt/mazgpt-go/internal/client/cli"
	"github.com/mazgpt/mazgpt-go/internal/client/config"
	"github.com/mazgpt/mazgpt-go/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
