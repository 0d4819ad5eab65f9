package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/wordstat-proxy/internal/cliclient"
	"github.com/okian/wordstat-proxy/internal/config"
	"github.com/okian/wordstat-proxy/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Logs go to stderr so stdout carries only the envelope.
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return cliclient.ExitError
	}
	if lvl := os.Getenv(config.EnvPrefix + "LOG_LEVEL"); lvl != "" {
		_ = logger.SetLevelString(lvl)
	}
	if err := config.LoadDotEnv(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
	}

	cfg, err := cliclient.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		cliclient.ShowHelp(os.Stdout)
		return cliclient.ExitOK
	}
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n\n")
		cliclient.ShowHelp(os.Stderr)
		return cliclient.ExitUsage
	}
	if cfg.Help {
		cliclient.ShowHelp(os.Stdout)
		return cliclient.ExitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cliclient.Run(ctx, cfg, os.Stdout)
}
