package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskfish-server/internal/clock"
	"github.com/taskfish-server/internal/config"
	"github.com/taskfish-server/internal/handler"
	"github.com/taskfish-server/internal/kafka"
	"github.com/taskfish-server/internal/service"
	"github.com/taskfish-server/internal/store"
	"github.com/taskfish-server/internal/websocket"
	"github.com/taskfish-server/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	var loadErr error
	if err != nil {
		loadErr = err
		cfg = config.DefaultConfig()
		if err := cfg.ApplyEnv(); err != nil {
			fmt.Fprintln(os.Stderr, "invalid environment configuration:", err)
			os.Exit(1)
		}
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if loadErr != nil {
		logger.Warn("failed to load config file, using defaults", "error", loadErr)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Player state lives for the whole process
	playerStore := store.New(&cfg.Game,
		store.WithClock(clock.RealClock{}),
		store.WithLogger(logger),
	)
	logger.Info("player state initialized", "start_at", playerStore.Now())

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize services
	playerService := service.NewPlayerService(playerStore, logger)
	playerService.SetHub(wsHub)
	wsHub.SetSource(playerService)

	// Initialize Kafka for command ingestion and event publishing
	var kafkaConsumer *kafka.Consumer
	var eventProducer *kafka.EventProducer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka",
			"brokers", cfg.Kafka.Brokers,
			"command_topic", cfg.Kafka.CommandTopic,
			"event_topic", cfg.Kafka.EventTopic,
		)

		eventProducer, err = kafka.NewEventProducer(&cfg.Kafka, logger)
		if err != nil {
			logger.Warn("failed to create Kafka producer, continuing without events", "error", err)
		} else {
			playerService.SetPublisher(eventProducer)
		}

		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, playerService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Start idle production ticker
	productionTicker := worker.NewProductionTicker(playerService, wsHub, &cfg.Production, logger)
	if cfg.Production.Enabled {
		if err := productionTicker.Start(ctx); err != nil {
			logger.Error("failed to start production ticker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(playerService, wsHub, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("WebSocket endpoint available at /ws")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first so no new commands arrive
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop production ticker
	if err := productionTicker.Stop(); err != nil {
		logger.Error("failed to stop production ticker", "error", err)
	}

	// Flush pending events
	if eventProducer != nil {
		if err := eventProducer.Close(); err != nil {
			logger.Error("failed to close Kafka producer", "error", err)
		}
	}

	// Stop WebSocket hub
	wsHub.Stop()

	logger.Info("server stopped")
}
