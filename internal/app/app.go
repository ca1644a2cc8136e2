// Package app wires the configuration into the HTTP controller and owns its lifetime.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/runtimeterrors/trailrunners/internal/controllers/restserver"
	"github.com/runtimeterrors/trailrunners/internal/log"
	"github.com/runtimeterrors/trailrunners/pkg/config"
)

// App runs the trail visualization server
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates an App. A nil logger falls back to the package logger.
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = log.GetSugaredLogger()
	}
	return &App{cfg: cfg, logger: logger}
}

// Run serves until ctx is cancelled, the process receives SIGINT or SIGTERM,
// or the server fails. It then waits for the controller to drain and returns
// the server's error, if any.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	rest, err := restserver.NewController(ctx, &wg, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("create rest controller: %w", err)
	}
	if err := rest.StartController(); err != nil {
		return fmt.Errorf("start rest controller: %w", err)
	}

	a.logger.Infow("trailrunners started",
		"addr", rest.Server.Addr,
		"backend", a.cfg.Backend.BaseURL,
		"trails_dir", a.cfg.Trails.TrailsDir,
		"lidar_dir", a.cfg.Trails.LidarDir)

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Infow("shutting down", "reason", context.Cause(ctx))
	case serveErr = <-rest.Err():
		a.logger.Errorw("rest server stopped", "error", serveErr)
	}
	stopping := time.Now()
	cancel()

	wg.Wait()
	a.logger.Infow("shutdown complete", "took", time.Since(stopping))
	return serveErr
}
