package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"seteuk/internal/adapter/api"
	"seteuk/internal/adapter/file"
	"seteuk/internal/adapter/memory"
	"seteuk/internal/adapter/postgres"
	"seteuk/internal/adapter/redis"
	"seteuk/internal/adapter/sqlite"
	"seteuk/internal/app"
	"seteuk/internal/config"
	"seteuk/internal/domain"
	"seteuk/internal/logger"
	"seteuk/internal/metrics"
	"seteuk/internal/render"
)

// Env is everything a command needs, wired once per invocation.
type Env struct {
	Config  *config.Config
	Log     *slog.Logger
	Store   *app.SessionStore
	Auth    *app.AuthService
	Chat    *app.ChatService
	Printer *render.Printer

	registry *prometheus.Registry
	closers  []func() error
}

// buildEnv wires config, logger, metrics, storage, session store, backend
// client and services, in that order. The session store has rehydrated by
// the time buildEnv returns.
func buildEnv(ctx context.Context, opts *RootOptions, stdout, stderr io.Writer) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Store != "" {
		cfg.Store = opts.Store
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log := logger.Setup(stderr, logger.Format(cfg.LogFormat), opts.Verbose)
	reg := prometheus.NewRegistry()
	col := metrics.NewCollector(reg)

	env := &Env{
		Config:   cfg,
		Log:      log,
		Printer:  render.NewPrinter(stdout, render.Format(opts.Format)),
		registry: reg,
	}

	medium, closer, err := openMedium(ctx, cfg)
	if err != nil {
		log.Warn("session storage unavailable", slog.String("store", cfg.Store), slog.String("error", err.Error()))
		medium = unavailableMedium{err: err}
	}
	if closer != nil {
		env.closers = append(env.closers, closer)
	}

	env.Store = app.NewSessionStore(ctx, medium,
		app.WithLogger(log),
		app.WithRecorder(col),
		app.WithNamespace(cfg.Namespace),
	)

	client, err := api.New(cfg.APIURL,
		api.WithTimeout(cfg.Timeout),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		api.WithTokenSource(env.Store.TokenSource()),
		api.WithRecorder(col),
		api.WithLogger(log),
		api.WithUnauthorizedHook(env.Store.Logout),
	)
	if err != nil {
		_ = env.Close()
		return nil, err
	}

	env.Auth = app.NewAuthService(client, env.Store, log)
	env.Chat = app.NewChatService(client, env.Store, render.NewAnswerSanitizer(), log)
	return env, nil
}

func openMedium(ctx context.Context, cfg *config.Config) (domain.SnapshotMedium, func() error, error) {
	switch cfg.Store {
	case config.StoreFile:
		return file.New(cfg.StateDir, file.WithPassphrase(cfg.Passphrase)), nil, nil
	case config.StoreSQLite:
		db, err := sqlite.Open(filepath.Join(cfg.StateDir, "session.db"))
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.StoreRedis:
		rdb, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return redis.New(rdb, "", cfg.RedisTTL), rdb.Close, nil
	case config.StoreMemory:
		return memory.New(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// Close writes the metrics textfile and releases storage connections.
func (e *Env) Close() error {
	var errs []error
	if err := metrics.WriteTextfile(e.Config.MetricsFile, e.registry); err != nil {
		errs = append(errs, fmt.Errorf("write metrics: %w", err))
	}
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// unavailableMedium stands in for storage that could not be opened, so the
// session starts logged out and later writes are counted as failures.
type unavailableMedium struct {
	err error
}

func (m unavailableMedium) Load(context.Context, string) ([]byte, error) { return nil, m.err }
func (m unavailableMedium) Save(context.Context, string, []byte) error  { return m.err }
func (m unavailableMedium) Clear(context.Context, string) error         { return m.err }
