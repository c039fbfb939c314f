// Command server runs the tflextract HTTP service: documents are uploaded,
// extracted by a worker pool and their reports downloaded when ready.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/tflextract/internal/api"
	"github.com/dgallion1/tflextract/internal/classify"
	"github.com/dgallion1/tflextract/internal/config"
	"github.com/dgallion1/tflextract/internal/pipeline"
	"github.com/dgallion1/tflextract/internal/report"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rules, rulesPath, err := config.ResolveRules("", cfg.RulesFile)
	if err != nil {
		return err
	}
	classifier, err := classify.New(rules)
	if err != nil {
		return fmt.Errorf("compile rules: %w", err)
	}

	orch := pipeline.NewOrchestrator(cfg, report.NewAssembler(classifier, log), log)
	orch.Start(ctx)
	defer orch.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, rules, log, cfg),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting tflextract", "port", cfg.Port, "workers", cfg.WorkerCount, "rules", rulesPath)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
