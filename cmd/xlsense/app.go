package main

import (
	"go.uber.org/zap"

	"intellisense-overlay/internal/cache"
	"intellisense-overlay/internal/config"
	"intellisense-overlay/internal/overlay"
	"intellisense-overlay/internal/watcher"
	"intellisense-overlay/internal/win32"
)

// App wires the services behind every command
type App struct {
	config  *config.Service
	win     *win32.Service
	cache   *cache.Service
	overlay *overlay.Service
	watcher *watcher.Service
	logger  *zap.Logger
}

// NewApp creates the service graph from the loaded configuration
func NewApp(configSvc *config.Service, log *zap.Logger) (*App, error) {
	cfg := configSvc.Get()

	winSvc := win32.New(
		win32.WithLogger(log),
		win32.WithAddInPath(cfg.Host.AddInPath),
	)

	cacheSvc := cache.New(cfg.Watcher.ClassCacheSize, cfg.Watcher.ClassCacheTTL.Duration)

	overlaySvc, err := overlay.New(configSvc)
	if err != nil {
		return nil, err
	}

	return &App{
		config:  configSvc,
		win:     winSvc,
		cache:   cacheSvc,
		overlay: overlaySvc,
		watcher: watcher.New(winSvc, cacheSvc, overlaySvc, cfg, log),
		logger:  log,
	}, nil
}

// OnConfigChange applies a reloaded configuration to running services
func (a *App) OnConfigChange(cfg *config.Config) {
	a.watcher.UpdateConfig(cfg)
}

// Shutdown stops polling and persists state
func (a *App) Shutdown() {
	a.watcher.Stop()
	if err := a.overlay.Shutdown(); err != nil {
		a.logger.Warn("Failed to save overlay state", zap.Error(err))
	}
	a.logger.Debug("Class cache", zap.Any("stats", a.cache.Stats()))
}
