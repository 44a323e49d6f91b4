package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"echo/internal/shell"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	url := cli.StringP("url", "u", "", "Url of the daemon bus")
	logLevel := cli.StringP("log", "l", "error", "Log level")
	cli.Parse()

	// stdout belongs to the UI
	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	_ = godotenv.Load(*envFile)
	if *url == "" {
		*url = os.Getenv("BUS_URL")
	}
	if *url == "" {
		*url = "ws://127.0.0.1:8092/ws"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := shell.Run(ctx, *url); err != nil {
		log.Error("Shell failed", "url", *url, "err", err)
		os.Exit(1)
	}
}
