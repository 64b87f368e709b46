package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"digital-ondu/internal/adapters/cli"
	"digital-ondu/internal/adapters/repl"
	"digital-ondu/internal/bootstrap"
	"digital-ondu/internal/config"
	"digital-ondu/internal/logging"

	"github.com/sirupsen/logrus"
)

// app runs one command when given arguments and the interactive terminal otherwise.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	// Terminal output belongs to the user; keep the logger quiet unless asked.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	log := logging.NewWithOutput(os.Stderr, level, "text")

	ctx := context.Background()
	services, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer services.Close()

	actor, storeID, err := services.TerminalSession(ctx, cfg)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	if len(os.Args) > 1 {
		err := cli.Run(ctx, os.Stdout, services.App, actor, storeID, os.Args[1:])
		switch {
		case errors.Is(err, cli.ErrMismatch):
			services.Close()
			os.Exit(1)
		case errors.Is(err, cli.ErrUsage):
			fmt.Fprintln(os.Stderr, err)
			services.Close()
			os.Exit(2)
		case err != nil:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			services.Close()
			os.Exit(1)
		}
		return
	}

	if err := repl.Run(ctx, services.App, actor, storeID, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		log.Fatalf("terminal: %v", err)
	}
}
