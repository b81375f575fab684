package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cardsim/internal/event"
	"cardsim/internal/simulation"
	"cardsim/pkg/config"
	"cardsim/pkg/logger"
)

// simulate runs the full payment lifecycle once, narrating every step to
// stdout and writing batch artifacts to the configured output directory.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewWithWriter("simulate", os.Stderr)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim, err := simulation.New(cfg.Simulation, event.NewConsole(os.Stdout), log, nil)
	if err != nil {
		log.Fatal("failed to build simulation", map[string]interface{}{"error": err.Error()})
	}

	outcome := sim.Run(ctx)
	if outcome.Status == simulation.StatusFailed {
		os.Exit(1)
	}
}
