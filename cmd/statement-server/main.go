package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/insightdelivered/statement-parser/internal/api"
	"github.com/insightdelivered/statement-parser/internal/config"
	"github.com/insightdelivered/statement-parser/internal/extractor"
	"github.com/insightdelivered/statement-parser/internal/logger"
	"github.com/insightdelivered/statement-parser/internal/parser"
	"github.com/insightdelivered/statement-parser/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	policy, err := parser.ParseRowPolicy(cfg.RowPolicy)
	if err != nil {
		log.Fatal("Invalid row policy", zap.Error(err))
	}

	h := &api.Handler{
		Engine: parser.New(
			parser.WithLogger(log.Named("parser")),
			parser.WithRowPolicy(policy),
			parser.WithHeaderLookahead(cfg.HeaderLookahead),
		),
		Store: store.New(cfg.ResultTTL, cfg.ResultCleanupInterval),
		Extractor: extractor.New(extractor.ExtractionOptions{
			UsePdftotext: cfg.UsePdftotext,
			Logger:       log.Named("extractor"),
		}),
		Log:       log.Named("api"),
		Currency:  cfg.ReportCurrency,
		StaticDir: cfg.StaticDir,
	}
	app := api.NewApp(h, api.AppConfig{BodyLimit: cfg.BodyLimit(), AccessLog: true})

	// Start server
	go func() {
		addr := cfg.Addr()
		log.Info("Server starting",
			zap.String("address", addr),
			zap.String("policy", policy.String()),
			zap.Duration("result_ttl", cfg.ResultTTL),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
}
