// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lead-magnet-workers/internal/common/camunda"
	"lead-magnet-workers/internal/common/config"
	"lead-magnet-workers/internal/common/logger"
	"lead-magnet-workers/internal/common/observability"
	"lead-magnet-workers/internal/perplexity"

	glm "lead-magnet-workers/internal/workers/content/generate-lead-magnet"
	gt "lead-magnet-workers/internal/workers/content/generate-text"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	schemas := loadInputSchemas(cfg.Registry.Path, log)

	generator, err := perplexity.NewClient(cfg.Perplexity.ClientConfig(), log)
	if err != nil {
		zapLog.Fatal("perplexity client init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Plaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	var workers []*camunda.CamundaWorker

	if config.IsWorkerEnabled(cfg, glm.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, glm.TaskType)
		handler, err := glm.NewHandler(
			&glm.Config{
				Timeout:     config.GetDuration(wcfg.Timeout),
				InputSchema: schemas[glm.TaskType],
			},
			generator, obs, log,
		)
		if err != nil {
			zapLog.Fatal("handler init failed", zap.String("taskType", glm.TaskType), zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), glm.TaskType, workerOptions(wcfg), handler.Handle, log))
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", glm.TaskType))
	}

	if config.IsWorkerEnabled(cfg, gt.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, gt.TaskType)
		handler, err := gt.NewHandler(
			&gt.Config{
				Timeout:     config.GetDuration(wcfg.Timeout),
				InputSchema: schemas[gt.TaskType],
			},
			generator, obs, log,
		)
		if err != nil {
			zapLog.Fatal("handler init failed", zap.String("taskType", gt.TaskType), zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), gt.TaskType, workerOptions(wcfg), handler.Handle, log))
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", gt.TaskType))
	}

	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := newHTTPServer(cfg.Server.Address, zeebe)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func workerOptions(wcfg config.WorkerConfig) camunda.WorkerOptions {
	return camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}
}
