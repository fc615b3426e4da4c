// Package bootstrap wires the configured storage backend, change notifier
// and request store. Both the server and the CLI start from here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/config"
	"github.com/wso2/idcard-reissue-api/internal/database"
	"github.com/wso2/idcard-reissue-api/internal/kv"
	"github.com/wso2/idcard-reissue-api/internal/notify"
	"github.com/wso2/idcard-reissue-api/internal/store"
)

const watchDebounce = 250 * time.Millisecond

// Runtime holds the opened storage components
type Runtime struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Backend  kv.Backend
	Notifier notify.Notifier
	Store    *store.RequestStore

	db      *database.DB
	redis   *redis.Client
	watcher *kv.Watcher
	closers []func() error
}

// NewLogger builds the logrus logger described by cfg
func NewLogger(cfg *config.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	switch cfg.Format {
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}
	logger.SetOutput(out)
	return logger, nil
}

// Open connects the backend and the notifier and creates the store. On
// error everything opened so far is closed again.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: logger}
	if err := rt.open(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"backend":   cfg.Storage.Backend,
		"notifier":  cfg.Notifier.Kind,
		"namespace": cfg.Storage.Namespace,
	}).Info("Request store opened")
	return rt, nil
}

func (rt *Runtime) open(ctx context.Context) error {
	backend, err := rt.openBackend(ctx)
	if err != nil {
		return err
	}
	rt.Backend = kv.WithQuota(backend, rt.Config.Storage.MaxValueBytes)
	rt.closers = append(rt.closers, rt.Backend.Close)

	if rt.Notifier, err = rt.openNotifier(ctx); err != nil {
		return err
	}
	rt.closers = append(rt.closers, rt.Notifier.Close)

	rt.Store = store.NewRequestStore(rt.Backend, rt.Notifier, rt.Config.Storage.Namespace, rt.Logger)
	return nil
}

func (rt *Runtime) openBackend(ctx context.Context) (kv.Backend, error) {
	cfg := rt.Config
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return kv.NewMemoryBackend(), nil

	case config.BackendFile:
		fb, err := kv.NewFileBackend(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Watch {
			w, err := kv.NewWatcher(fb, watchDebounce, rt.Logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create storage watcher: %w", err)
			}
			rt.watcher = w
		}
		return fb, nil

	case config.BackendMySQL:
		db, err := database.Initialize(&cfg.Database.Requests, rt.Logger)
		if err != nil {
			return nil, err
		}
		rt.db = db
		backend := kv.NewMySQLBackend(db)
		if err := backend.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return backend, nil

	case config.BackendRedis:
		client := rt.redisClient()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return kv.NewRedisBackend(client), nil
	}
	return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
}

func (rt *Runtime) openNotifier(ctx context.Context) (notify.Notifier, error) {
	cfg := rt.Config
	switch cfg.Notifier.Kind {
	case config.NotifierLocal:
		return notify.NewHub(), nil

	case config.NotifierRedis:
		shared := rt.redis != nil
		client := rt.redisClient()
		n, err := notify.NewRedisNotifier(ctx, client, cfg.Redis.Channel, rt.Logger)
		if err != nil {
			if !shared {
				_ = client.Close()
			}
			return nil, err
		}
		if !shared {
			// the backend does not own this client
			rt.closers = append(rt.closers, client.Close)
		}
		return n, nil

	case config.NotifierNATS:
		n, err := notify.NewNATSNotifier(cfg.NATS.URL, cfg.NATS.Subject, rt.Logger)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, fmt.Errorf("unknown notifier kind: %s", cfg.Notifier.Kind)
}

func (rt *Runtime) redisClient() *redis.Client {
	if rt.redis == nil {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     rt.Config.Redis.Addr,
			Password: rt.Config.Redis.Password,
			DB:       rt.Config.Redis.DB,
		})
	}
	return rt.redis
}

// Seed writes the seed file's records, or the built-in demo records when
// no file is configured, if the list has never been written
func (rt *Runtime) Seed(ctx context.Context) (bool, error) {
	records := store.DefaultSeed()
	switch {
	case rt.Config.Storage.SeedFile != "":
		loaded, err := store.LoadSeedFile(rt.Config.Storage.SeedFile)
		if err != nil {
			return false, err
		}
		records = loaded
	case !rt.Config.Storage.SeedDefaults:
		return false, nil
	}
	return rt.Store.Seed(ctx, records)
}

// Health checks the backend connection
func (rt *Runtime) Health(ctx context.Context) error {
	switch {
	case rt.db != nil:
		return rt.db.HealthCheck(ctx)
	case rt.redis != nil && rt.Config.Storage.Backend == config.BackendRedis:
		return rt.redis.Ping(ctx).Err()
	}
	_, err := rt.Store.LoadAll(ctx)
	return err
}

// LogStats logs connection pool statistics when a database is in use
func (rt *Runtime) LogStats() {
	if rt.db != nil {
		rt.db.LogStats()
	}
}

// WatchStorage turns edits of the list file made by other processes into
// change signals. It returns when ctx is done, immediately when the
// backend is not watched.
func (rt *Runtime) WatchStorage(ctx context.Context) error {
	if rt.watcher == nil {
		return nil
	}
	if err := rt.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start storage watcher: %w", err)
	}
	defer func() { _ = rt.watcher.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-rt.watcher.Changes():
			if !ok {
				return nil
			}
			if key != rt.Store.Key() {
				continue
			}
			rt.Logger.WithField("key", key).Info("Request list changed on disk")
			rt.Store.Announce(ctx)
		}
	}
}

// Close releases everything Open acquired, newest first
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if rt.watcher != nil {
		_ = rt.watcher.Stop()
		rt.watcher = nil
	}
	return errors.Join(errs...)
}
