package drills

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/aretw0/drills/internal/logging"
	"github.com/aretw0/drills/pkg/adapters/memory"
	"github.com/aretw0/drills/pkg/adapters/process"
	"github.com/aretw0/drills/pkg/adapters/redis"
	"github.com/aretw0/drills/pkg/baseline"
	"github.com/aretw0/drills/pkg/config"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/features"
	"github.com/aretw0/drills/pkg/ports"
	"github.com/aretw0/drills/pkg/registry"
	"github.com/aretw0/drills/pkg/session"
)

// Session is the reset/step environment returned by New.
type Session = session.Session

type options struct {
	id         string
	runner     ports.ToolRunner
	store      ports.RecordStore
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	sequential bool
}

// Option defines a functional option for New and NewGreedy.
type Option func(*options)

// WithSessionID names the session in events and logs (default "default").
func WithSessionID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithToolRunner replaces the local process runner, e.g. with a fake in tests.
func WithToolRunner(r ports.ToolRunner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithRecordStore persists the best-known records of the configured design.
func WithRecordStore(store ports.RecordStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSequentialFeatures runs the feature analyzers one after the other.
func WithSequentialFeatures() Option {
	return func(o *options) {
		o.sequential = true
	}
}

func resolve(cfg config.Config, opts []Option) *options {
	o := &options{id: "default", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.runner == nil {
		o.runner = process.NewRunner(
			process.WithTimeout(cfg.Timeout.Duration),
			process.WithLogger(o.logger),
		)
	}
	return o
}

// New wires a session for cfg: the ABC process runner, the Yosys and ABC
// feature analyzers and the optional record store.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := resolve(cfg, opts)

	var exOpts []features.Option
	if o.sequential {
		exOpts = append(exOpts, features.WithSequential())
	}
	extractor := features.NewExtractor(features.Default(o.runner, cfg.YosysBinary, cfg.ABCBinary), exOpts...)

	sessOpts := []session.Option{
		session.WithLogger(o.logger),
		session.WithLifecycleHooks(o.hooks),
	}
	if o.store != nil {
		sessOpts = append(sessOpts, session.WithRecordStore(o.store, cfg.RecordKey()))
	}
	return session.New(ctx, cfg.Session(o.id), o.runner, extractor, sessOpts...)
}

// NewFactory returns a registry factory creating sessions of cfg. Every
// session works in its own playground subdirectory named after its id.
func NewFactory(cfg config.Config, opts ...Option) registry.Factory {
	return func(ctx context.Context, id string) (*Session, error) {
		c := cfg
		c.PlaygroundDir = filepath.Join(cfg.PlaygroundDir, id)
		return New(ctx, c, append(slices.Clone(opts), WithSessionID(id))...)
	}
}

// NewGreedy wires the greedy baseline for cfg.
func NewGreedy(cfg config.Config, opts ...Option) (*baseline.Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := resolve(cfg, opts)
	return baseline.New(baseline.Config{
		Pipeline:      cfg.Pipeline(),
		ABCBinary:     cfg.ABCBinary,
		OutputDir:     cfg.GreedyOutputDir(),
		Optimizations: cfg.Optimizations,
		Iterations:    cfg.Iterations,
		Primary:       cfg.Objective.Optimize,
		Constraint:    cfg.Objective.Constrain,
	}, o.runner, baseline.WithLogger(o.logger))
}

// NewRecordStore opens the record store selected by cfg.Store.
func NewRecordStore(ctx context.Context, cfg config.Config) (ports.RecordStore, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		store := redis.New(cfg.Store.Address, cfg.Store.Password, cfg.Store.DB,
			redis.WithPrefix(cfg.Store.Prefix+"records:"))
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Store.Address, err)
		}
		return store, store.Close, nil
	default:
		return memory.NewStore(), func() error { return nil }, nil
	}
}

// NewLocker returns a distributed locker sharing the redis connection of
// store, or nil for other backends.
func NewLocker(cfg config.Config, store ports.RecordStore) ports.DistributedLocker {
	rs, ok := store.(*redis.Store)
	if !ok {
		return nil
	}
	return redis.NewLocker(rs.Client(), cfg.Store.Prefix)
}
