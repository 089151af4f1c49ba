package command

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rawhttpd/internal/core/domain"
	"github.com/yndnr/rawhttpd/internal/core/service"
	"github.com/yndnr/rawhttpd/internal/infra/buildinfo"
	"github.com/yndnr/rawhttpd/internal/infra/confloader"
	"github.com/yndnr/rawhttpd/internal/infra/shutdown"
	"github.com/yndnr/rawhttpd/internal/server/config"
	"github.com/yndnr/rawhttpd/internal/server/httpd"
	"github.com/yndnr/rawhttpd/internal/storage"
	"github.com/yndnr/rawhttpd/internal/storage/memory"
	"github.com/yndnr/rawhttpd/internal/telemetry/logger"
	"github.com/yndnr/rawhttpd/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

// ServeCommand returns the serve command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.http.addr)",
			},
			&cli.StringFlag{
				Name:  "static-root",
				Usage: "Static file directory (overrides static.root)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, loader, err := loadConfig(c)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	slog.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting rawhttpd",
		"version", info.Version,
		"commit", info.Commit,
		"config", loader.FilePath())

	reg := metric.NewRegistry()
	sessions := memory.NewSessionStore[domain.UserID](
		memory.WithTTL(cfg.Session.TTL),
		memory.WithSweepThreshold(cfg.Session.SweepThreshold),
		memory.WithMetrics(reg),
	)
	if err := reg.Registerer().Register(metric.NewSessionCollector(sessions.Len)); err != nil {
		return fmt.Errorf("register session collector: %w", err)
	}

	engine, err := openStorage(cfg, log)
	if err != nil {
		return err
	}
	engine.RegisterMetrics(reg.Registerer())

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, log)
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return engine.Close()
	})

	users := service.NewUserService(storage.NewUserRepository(engine), service.WithLogger(log))

	dispatchOpts := []httpd.DispatcherOption{
		httpd.WithObserver(reg),
		httpd.WithDispatchLogger(log),
	}
	static, err := httpd.NewStaticHandler(httpd.StaticConfig{
		Root:       cfg.Static.Root,
		Index:      cfg.Static.Index,
		Restricted: cfg.Static.Restricted,
	})
	switch {
	case err == nil:
		dispatchOpts = append(dispatchOpts, httpd.WithStatic(static))
		shutdownHandler.OnShutdown("static root", func(context.Context) error {
			return static.Close()
		})
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("static root missing, static paths will return 404", "root", cfg.Static.Root)
	default:
		_ = engine.Close()
		return err
	}
	if cfg.Metrics.Enabled {
		dispatchOpts = append(dispatchOpts, httpd.WithMetricsHandler(cfg.Metrics.Path, httpd.MetricsHandler(reg)))
	}

	dispatcher := httpd.NewDispatcher(sessions, dispatchOpts...)
	httpd.NewUserHandler(users, sessions).Bind(dispatcher)

	srv := httpd.New(&httpd.Config{
		Addr:           cfg.Server.HTTP.Addr,
		MaxConnections: cfg.Server.HTTP.MaxConnections,
		AcceptRate:     cfg.Server.HTTP.AcceptRate,
		AcceptBurst:    cfg.Server.HTTP.AcceptBurst,
		ReadTimeout:    cfg.Server.HTTP.ReadTimeout,
		WriteTimeout:   cfg.Server.HTTP.WriteTimeout,
	}, dispatcher, log, httpd.WithConnObserver(reg))

	if loader.FilePath() != "" {
		watcher, err := watchConfig(loader, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	// Registered last so it runs first.
	shutdownHandler.OnShutdown("http server", srv.Shutdown)

	ctx := c.Context
	var serveErr error
	served := make(chan struct{})
	go func() {
		defer close(served)
		if err := srv.ListenAndServe(ctx); err != nil {
			serveErr = err
			shutdownHandler.Trigger()
		}
	}()

	err = shutdownHandler.Wait(ctx)
	<-served
	if err := errors.Join(serveErr, err); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// openStorage opens the user database described by cfg.
func openStorage(cfg *config.ServerConfig, log *slog.Logger) (*storage.BadgerEngine, error) {
	kv := storage.DefaultKVConfig(cfg.Storage.DataDir)
	kv.InMemory = cfg.Storage.InMemory
	kv.Badger.SyncWrites = cfg.Storage.SyncWrites
	kv.Badger.GCInterval = cfg.Storage.GCInterval
	if cfg.Storage.EncryptionKey != "" {
		kv.EncryptionKey = []byte(cfg.Storage.EncryptionKey)
	}

	engine, err := storage.NewBadgerEngine(kv, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return engine, nil
}

// watchConfig reloads the configuration file on change and applies the
// settings that can change at runtime. Everything else needs a restart.
func watchConfig(loader *confloader.Loader, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(loader.FilePath()); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		next := config.Default()
		if err := loader.Reload(next); err != nil {
			log.Error("config reload failed", "file", path, "error", err)
			return
		}
		if err := config.Verify(next); err != nil {
			log.Error("reloaded config rejected", "file", path, "error", err)
			return
		}
		if prev := logger.GetLevel(); prev != strings.ToLower(next.Log.Level) {
			logger.SetLevel(next.Log.Level)
			log.Info("log level changed", "from", prev, "to", next.Log.Level)
		}
		log.Info("config reloaded", "file", path)
	})
	watcher.StartAsync()
	return watcher, nil
}
