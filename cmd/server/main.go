package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cardsim/internal/server"
	"cardsim/pkg/config"
	"cardsim/pkg/logger"
)

// server exposes the simulation over HTTP: POST /api/v1/simulation/run starts
// a run, GET /ws/events streams the narrated steps over a websocket.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("simulation-server")

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	srv := server.New(cfg, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server starting", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", map[string]interface{}{"error": err.Error()})
	}
	log.Info("server stopped", nil)
}
