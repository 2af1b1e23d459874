package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genremap/internal/config"
	"genremap/internal/server"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; it may set GENREMAP_CONFIG and NGROK_AUTHTOKEN
	_ = godotenv.Load()

	defaultPath := os.Getenv("GENREMAP_CONFIG")
	if defaultPath == "" {
		defaultPath = "./config.toml"
	}
	configPath := flag.String("config", defaultPath, "path to the TOML configuration file")
	flag.Parse()

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}

	logFile, err := configureLogger(logger, &cfg.Logging)
	if err != nil {
		logger.WithError(err).Fatal("Error configuring logger")
	}
	if logFile != nil {
		defer logFile.Close()
	}

	// Check if image directory exists
	if _, err := os.Stat(cfg.Assets.ImageDir); os.IsNotExist(err) {
		logger.WithField("image_dir", cfg.Assets.ImageDir).Fatal("Image directory does not exist. Please create it and add the genre map images.")
	}

	explorerServer, err := server.NewExplorerServer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating explorer server")
	}

	// Statistics load in the background; the map is usable before they arrive
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	explorerServer.LoadStatistics(ctx)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	errc := make(chan error, 1)
	go func() {
		errc <- explorerServer.Start()
	}()

	// Wait for shutdown signal
	select {
	case <-c:
		logger.Info("Received shutdown signal")
	case err := <-errc:
		if err != nil {
			logger.WithError(err).Error("Server stopped")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := explorerServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}
}

// configureLogger applies level, format and output from the logging config.
// The returned file, if any, must be closed by the caller.
func configureLogger(logger *logrus.Logger, cfg *config.LoggingConfig) (*os.File, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.File == "" {
		return nil, nil
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(file)
	return file, nil
}
