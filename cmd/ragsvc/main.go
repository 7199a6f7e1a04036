// Command ragsvc runs the multi-tenant RAG HTTP API: chat, URL/file
// ingestion, status, and document management.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"singularityio/internal/config"
	"singularityio/internal/httpapi"
	"singularityio/internal/persistence/databases"
	"singularityio/internal/ragapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragsvc: load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	mgr, err := databases.NewManager(ctx, cfg.Databases)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("connect databases")
	}
	defer mgr.Close()

	app, err := ragapi.New(cfg, mgr)
	if err != nil {
		log.Fatal().Err(err).Msg("wire application")
	}
	defer app.Close()

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: httpapi.NewServer(app),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("ragsvc listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	} else {
		log.Info().Msg("ragsvc stopped")
	}
}
