package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/messaging"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/outbox"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/config"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/metrics"
)

func main() {
	envFile := pflag.String("env-file", "", "dotenv file to load before reading the environment (default .env)")
	healthAddr := pflag.String("health-addr", "", "health and metrics listen address (default $RELAY_HEALTH_ADDR)")
	pflag.Parse()

	cfg, err := config.LoadRelayConfig(*envFile)
	logger := logging.New(cfg.Log).With("component", "outbox-relay")
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if *healthAddr != "" {
		cfg.HealthAddr = *healthAddr
	}

	logger.Info("starting outbox relay", "exchange", cfg.Exchange, "queue", cfg.QueueName)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	broker, err := messaging.NewRabbitMQBroker(cfg.RabbitMQURL, messaging.Topology{
		Exchange: cfg.Exchange,
		Queue:    cfg.QueueName,
	})
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "err", err)
		os.Exit(1)
	}
	defer broker.Close()
	logger.Info("connected to RabbitMQ")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	worker := outbox.NewRelay(db, cfg.DatabaseURL, broker, m.OutboxPublished, logger)

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, worker.IsHealthy())
	})
	healthMux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, worker.IsReady() && !broker.IsClosed())
	})
	healthMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	healthServer := &http.Server{
		Addr:              cfg.HealthAddr,
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server listening", "addr", cfg.HealthAddr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", "err", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		logger.Error("relay worker failed", "err", err)
		cancel()
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown", "err", err)
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		shutdownCancel()
		os.Exit(exitCode)
	}
}

func writeStatus(w http.ResponseWriter, up bool) {
	status, code := "UP", http.StatusOK
	if !up {
		status, code = "DOWN", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    status,
		"component": "outbox-relay",
	})
}
