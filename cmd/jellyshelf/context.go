package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmcdole/jellyshelf/internal/cache"
	"github.com/mmcdole/jellyshelf/internal/config"
	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/mmcdole/jellyshelf/internal/logging"
	"github.com/mmcdole/jellyshelf/internal/mediaserver/jellyfin"
	"github.com/mmcdole/jellyshelf/internal/metrics/prom"
	"github.com/mmcdole/jellyshelf/internal/store"
)

const marksFile = "marks.db"

var errNotLoggedIn = errors.New("not logged in; run `jellyshelf login` first")

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	logCloser  io.Closer

	runtime *runtime
}

// runtime is the wired cache stack shared by the subcommands
type runtime struct {
	cfg      *config.Config
	client   *jellyfin.Client
	store    *store.Store
	marks    *store.Marks
	manager  *cache.Manager
	metrics  *prom.Adapter
	registry *prometheus.Registry
	server   *metricsServer
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) configPath() string {
	if c.flags == nil {
		return ""
	}
	return strings.TrimSpace(c.flags.config)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.flags != nil && c.flags.metricsAddr != "" {
			cfg.Metrics.Addr = c.flags.metricsAddr
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid config: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loggerFor sets up file logging once; on failure logging is discarded
func (c *commandContext) loggerFor(cfg *config.Config) *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, closer, err := logging.SetupLogger(cfg.Logging)
		if err != nil {
			c.logger = logging.NullLogger()
			return
		}
		c.logger = logger
		c.logCloser = closer
		slog.SetDefault(logger)
	})
	return c.logger
}

// openRuntime builds the client, store and cache manager. Change events
// go to notifier, which may be nil for one-shot commands.
func (c *commandContext) openRuntime(notifier domain.Notifier) (*runtime, error) {
	if c.runtime != nil {
		return c.runtime, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.IsConfigured() {
		return nil, errNotLoggedIn
	}
	logger := c.loggerFor(cfg)

	st, err := store.New(store.Options{
		Dir:           cfg.Cache.Dir,
		LockTimeout:   cfg.Cache.LockTimeout,
		SweepAttempts: cfg.Cache.SweepAttempts,
		SweepBackoff:  cfg.Cache.SweepBackoff,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	marks, err := store.OpenMarks(filepath.Join(cfg.Cache.Dir, marksFile), nil)
	if err != nil {
		return nil, err
	}

	client := jellyfin.NewClient(jellyfin.ClientConfig{
		BaseURL:  cfg.Server.URL,
		Token:    cfg.Server.Token,
		UserID:   cfg.Server.UserID,
		DeviceID: cfg.Server.DeviceID,
	}, logger)

	registry := prometheus.NewRegistry()
	metrics := prom.New(registry, "jellyshelf", "cache", nil)

	manager, err := cache.NewManager(cache.Options{
		Store:           st,
		Fetcher:         client,
		Marks:           marks,
		Notifier:        notifier,
		Metrics:         metrics,
		Logger:          logger,
		UserID:          cfg.Server.UserID,
		Server:          client.BaseURL(),
		FreshnessWindow: cfg.Cache.FreshnessWindow,
		RefreshWorkers:  cfg.Cache.RefreshWorkers,
		RefreshQueue:    cfg.Cache.RefreshQueue,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		client:   client,
		store:    st,
		marks:    marks,
		manager:  manager,
		metrics:  metrics,
		registry: registry,
	}
	if cfg.Metrics.Addr != "" {
		rt.server = startMetricsServer(cfg.Metrics.Addr, registry, logger)
	}
	c.runtime = rt
	return rt, nil
}

// withRuntime opens the runtime for the duration of fn
func (c *commandContext) withRuntime(ctx context.Context, notifier domain.Notifier, fn func(*runtime) error) (err error) {
	rt, err := c.openRuntime(notifier)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.close(ctx))
	}()
	return fn(rt)
}

// close drains refreshes and releases everything openRuntime created
func (c *commandContext) close(ctx context.Context) error {
	var errs []error
	if rt := c.runtime; rt != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := rt.manager.Close(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if rt.server != nil {
			if err := rt.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := rt.client.Close(); err != nil {
			errs = append(errs, err)
		}
		c.runtime = nil
	}
	if c.logCloser != nil {
		if err := c.logCloser.Close(); err != nil {
			errs = append(errs, err)
		}
		c.logCloser = nil
	}
	return errors.Join(errs...)
}

func (c *commandContext) viewOptions() domain.ViewOptions {
	if c.runtime != nil {
		return c.runtime.cfg.ViewOptions()
	}
	cfg, _ := c.ensureConfig()
	if cfg == nil {
		return domain.ViewOptions{}
	}
	return cfg.ViewOptions()
}
