package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"genremap/internal/assets"
	"genremap/internal/cache"
	"genremap/internal/config"
	"genremap/internal/explorer"
	"genremap/internal/ngrok"
	"genremap/internal/stats"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ExplorerServer serves the genre map explorer
type ExplorerServer struct {
	config       *config.Config
	logger       *logrus.Logger
	explorer     *explorer.Explorer
	images       *cache.ImageCache
	watcher      *fsnotify.Watcher
	ngrokService *ngrok.Service
	httpServer   *http.Server
	startedAt    time.Time
}

// NewExplorerServer creates a new explorer server instance
func NewExplorerServer(cfg *config.Config, logger *logrus.Logger) (*ExplorerServer, error) {
	timeline, err := assets.NewTimeline(cfg.Assets.Decades, cfg.Assets.InterpolationSteps)
	if err != nil {
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}

	images := cache.NewImageCache(cfg.ImageCacheTTL())
	ex := explorer.New(explorer.Config{
		Timeline:  timeline,
		Resolver:  assets.NewResolver(cfg.Assets.URLPrefix),
		Store:     stats.NewStore(cfg.Assets.StatsSource, logger),
		Sampler:   explorer.NewSampler(cfg.Assets.URLPrefix, cfg.Assets.ImageDir, images),
		Logger:    logger,
		Tolerance: cfg.Inspect.Tolerance,
		Interval:  cfg.PlaybackInterval(),
	})

	// Create ngrok service
	ngrokSvc, err := ngrok.NewService(&cfg.Ngrok, logger)
	if err != nil {
		logger.WithError(err).Warn("Ngrok service not available")
		ngrokSvc = nil
	}

	srv := newExplorerServer(cfg, logger, ex)
	srv.images = images
	srv.ngrokService = ngrokSvc
	return srv, nil
}

func newExplorerServer(cfg *config.Config, logger *logrus.Logger, ex *explorer.Explorer) *ExplorerServer {
	return &ExplorerServer{
		config:    cfg,
		logger:    logger,
		explorer:  ex,
		startedAt: time.Now(),
	}
}

// Explorer returns the explorer driven by this server
func (es *ExplorerServer) Explorer() *explorer.Explorer {
	return es.explorer
}

// LoadStatistics starts the statistics load without waiting for it
func (es *ExplorerServer) LoadStatistics(ctx context.Context) {
	es.explorer.Store().LoadAsync(ctx)
}

// Start starts the explorer server and blocks until it stops
func (es *ExplorerServer) Start() error {
	// Start file watcher if enabled
	if es.config.Assets.WatchForChanges {
		if err := es.startFileWatcher(); err != nil {
			es.logger.WithError(err).Warn("Could not start file watcher")
		}
	}

	localAddress := fmt.Sprintf("http://%s", es.config.GetAddress())

	es.logger.WithFields(logrus.Fields{
		"address":  localAddress,
		"steps":    es.explorer.Timeline().Len(),
		"images":   es.config.Assets.ImageDir,
		"stats":    es.config.Assets.StatsSource,
		"interval": es.config.PlaybackInterval(),
	}).Info("Genre map explorer starting")

	// Start ngrok tunnel if enabled
	if es.ngrokService != nil {
		if err := es.ngrokService.StartTunnel(context.Background(), localAddress); err != nil {
			es.logger.WithError(err).Warn("Could not start ngrok tunnel")
		}
	}

	es.httpServer = &http.Server{
		Addr:         es.config.GetAddress(),
		Handler:      es.Handler(),
		ReadTimeout:  time.Duration(es.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(es.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(es.config.Server.IdleTimeout) * time.Second,
	}

	if err := es.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Handler builds the routed handler wrapped in middleware
func (es *ExplorerServer) Handler() http.Handler {
	mux := http.NewServeMux()
	es.setupRoutes(mux)

	var handler http.Handler = mux
	handler = es.corsMiddleware(handler)
	handler = es.requestLoggingMiddleware(handler)
	handler = es.requestIDMiddleware(handler)
	handler = es.panicRecoveryMiddleware(handler)
	return handler
}

// imagePrefix is the URL path the image directory is served under
func (es *ExplorerServer) imagePrefix() string {
	return "/" + strings.Trim(es.config.Assets.URLPrefix, "/") + "/"
}

func (es *ExplorerServer) setupRoutes(mux *http.ServeMux) {
	imagePrefix := es.imagePrefix()

	mux.HandleFunc("/", es.handleHome)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(es.config.Server.StaticDir))))
	mux.Handle(imagePrefix, http.StripPrefix(imagePrefix, http.FileServer(http.Dir(es.config.Assets.ImageDir))))
	mux.HandleFunc("/health", es.handleHealthCheck)

	// Explorer state
	mux.HandleFunc("/api/config", es.handleGetConfig)
	mux.HandleFunc("/api/genres", es.handleGetConfig)
	mux.HandleFunc("/api/view", es.handleGetView)
	mux.HandleFunc("/api/events", es.handleEvents)
	mux.HandleFunc("/api/stats", es.handleGetStats)

	// Controls
	mux.HandleFunc("/api/genre", es.handleSelectGenre)
	mux.HandleFunc("/api/opacity", es.handleSetOpacity)
	mux.HandleFunc("/api/elements", es.handleSetElements)
	mux.HandleFunc("/api/inspect", es.handleInspect)
	mux.HandleFunc("/api/playback/", es.handlePlayback)
}

// Shutdown gracefully shuts down the explorer server
func (es *ExplorerServer) Shutdown(ctx context.Context) error {
	es.logger.Info("Shutting down genre map explorer")

	es.explorer.Close()
	es.stopFileWatcher()

	if err := es.ngrokService.Stop(); err != nil {
		es.logger.WithError(err).Warn("Error stopping ngrok tunnel")
	}
	if es.images != nil {
		es.images.Close()
	}

	if es.httpServer != nil {
		if err := es.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
	}

	es.logger.Info("Genre map explorer shutdown complete")
	return nil
}
