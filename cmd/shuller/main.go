package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/muratoffalex/shuller/internal/config"
	"github.com/muratoffalex/shuller/internal/logger"
)

var (
	version   string
	buildTime string
)

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}
	return "undefined"
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApplication).ExecuteContext(ctx); err != nil {
		stop()
		logger.NewLogrusLogger(config.LoggingConfig{LogLevel: "error"}).
			WithError(err).
			Fatal("Command failed")
	}
}
