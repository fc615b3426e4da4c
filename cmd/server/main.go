package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wso2/idcard-reissue-api/internal/admin"
	"github.com/wso2/idcard-reissue-api/internal/bootstrap"
	"github.com/wso2/idcard-reissue-api/internal/camera"
	"github.com/wso2/idcard-reissue-api/internal/config"
	"github.com/wso2/idcard-reissue-api/internal/events"
	"github.com/wso2/idcard-reissue-api/internal/router"
	"github.com/wso2/idcard-reissue-api/internal/wizard"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

const (
	shutdownTimeout   = 30 * time.Second
	statsInterval     = time.Minute
	placeholderWidth  = 300
	placeholderHeight = 400
)

func main() {
	// Set Gin to release mode by default (can be overridden by GIN_MODE env var)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load configuration
	// Priority: CONFIG_PATH env var > ./configs/config.yaml and parent directories
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger, err := bootstrap.NewLogger(&cfg.Logging)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logger")
	}

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_date": buildDate,
		"log_level":  logger.GetLevel().String(),
	}).Info("Starting ID Card Reissue API Server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open request store")
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close storage cleanly")
		}
	}()

	if seeded, err := rt.Seed(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to seed request store")
	} else if seeded {
		logger.Info("Request store seeded")
	}

	// Sessions are cancelled together with the process
	hub := events.NewHub(cfg.CORS.AllowedOrigins, logger)
	fallback := camera.SyntheticFrame(placeholderWidth, placeholderHeight)
	wizards := wizard.NewRegistry(ctx, rt.Store,
		func() camera.DeviceProvider {
			return camera.NewFrameBuffer(cfg.Wizard.CameraEnabled, fallback)
		},
		hub, wizard.OptionsFromConfig(&cfg.Wizard), cfg.Wizard.SessionIdleTimeout, logger)
	consoles := admin.NewRegistry(admin.NewService(rt.Store, admin.OptionsFromConfig(&cfg.Admin), logger))

	ginRouter := router.SetupRouter(router.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Wizards:  wizards,
		Consoles: consoles,
		Events:   hub,
		Health:   rt.Health,
	})

	// Configure HTTP server
	serverAddr := cfg.Server.GetServerAddress()
	server := &http.Server{
		Addr:           serverAddr,
		Handler:        ginRouter,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	changes, unsubscribe := rt.Store.Changes()
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("address", serverAddr).Info("Starting HTTP server...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hub.CloseAll()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return wizards.Run(gctx)
	})
	g.Go(func() error {
		return consoles.Run(gctx)
	})
	g.Go(func() error {
		return hub.Relay(gctx, changes)
	})
	g.Go(func() error {
		return rt.WatchStorage(gctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				rt.LogStats()
			}
		}
	})

	logger.Info("Press Ctrl+C to stop the server")
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Server stopped with error")
		return
	}
	logger.Info("Server exited gracefully")
}
