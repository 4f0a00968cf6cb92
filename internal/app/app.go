package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"distancemeter/internal/config"
	"distancemeter/internal/logger"
	"distancemeter/internal/middleware"
	"distancemeter/internal/repository/sqlite"
	"distancemeter/internal/route"
	"distancemeter/internal/service"
	"distancemeter/internal/service/ai"
	"distancemeter/internal/service/storage"
	"distancemeter/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	manager       *service.Manager
	auth          *middleware.Auth
	handler       http.Handler
}

// NewApp loads the model, opens the history database and wires the web server.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	measureRepo := sqlite.NewMeasurementRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)

	detector, err := ai.NewDetector(cfg, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load detector: %w", err)
	}

	auth, err := middleware.NewAuth(cfg.Password)
	if err != nil {
		detector.Close()
		db.Close()
		return nil, err
	}

	buffer := storage.NewBufferService(cfg, log, measureRepo, detectionRepo)
	hub := websocket.NewHubService(log)
	mng := service.NewManager(detector, buffer, hub, cfg, log)

	return &App{
		config:        cfg,
		logger:        log,
		db:            db,
		bufferService: buffer,
		hubService:    hub,
		manager:       mng,
		auth:          auth,
		handler:       route.SetupRoutes(mng, cfg, log, auth, measureRepo, detectionRepo),
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down and flushes buffered results.
func (a *App) Run(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flushed := make(chan struct{})
	go func() {
		a.bufferService.Run(bgCtx)
		close(flushed)
	}()
	go a.hubService.Run(bgCtx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("🚀 Distance Meter")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("🔑 Auth: %v", a.auth.Enabled())
	a.logger.Info("📁 Images: %s, results: %s", a.config.ImageDirectory, a.config.ResultDirectory)
	a.logger.Info("🤖 AI Model: %s (%s)", a.config.ModelPath, a.config.DetectorBackend)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		a.logger.Info("🛑 Shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("failed to shut down server: %w", err)
		}
	}

	cancel()
	<-flushed
	return runErr
}

// Close releases the detector and the database.
func (a *App) Close() error {
	return errors.Join(a.manager.Close(), a.db.Close())
}
