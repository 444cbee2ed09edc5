package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tvmbox/emulator-host/internal/config"
	"github.com/tvmbox/emulator-host/internal/engine"
	"github.com/tvmbox/emulator-host/internal/wasm"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	artifactName := flag.String("artifact", "", "Engine artifact to use: name, name@version, or @version (empty for the configured default)")
	requestPath := flag.String("request", "-", "Request JSON document (- reads stdin)")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize logger; the flag overrides the configured level
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	var logger *zap.Logger
	if level == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}

	defer logger.Sync()

	logger.Info("Starting emurun",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	// Bring up the WASM runtime and the engine artifacts
	runtime, err := wasm.NewRuntime(ctx, logger, &wasm.RuntimeConfig{
		CacheDir: cfg.Wasm.CacheDir,
		Debug:    cfg.Wasm.Debug,
	})
	if err != nil {
		logger.Fatal("Failed to create WASM runtime", zap.Error(err))
	}

	manager := engine.NewManager(cfg, runtime, logger)
	if err := manager.LoadAll(ctx); err != nil {
		logger.Fatal("Failed to load engine artifacts", zap.Error(err))
	}

	// Read and decode the request document
	raw, err := readRequest(*requestPath)
	if err != nil {
		logger.Fatal("Failed to read request", zap.Error(err))
	}

	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		logger.Fatal("Invalid request JSON", zap.Error(err))
	}

	// Run the request against a fresh engine session
	session, err := manager.NewSession(ctx, *artifactName)
	if err != nil {
		logger.Fatal("Failed to open engine session", zap.Error(err))
	}

	out, err := dispatch(ctx, session.Executor, &req)
	if err != nil {
		logger.Fatal("Emulation failed", zap.Error(err))
	}

	doc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Fatal("Failed to render result", zap.Error(err))
	}
	fmt.Println(string(doc))

	if err := session.Close(ctx); err != nil {
		logger.Warn("Failed to close session", zap.Error(err))
	}
	if err := manager.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}

func readRequest(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
