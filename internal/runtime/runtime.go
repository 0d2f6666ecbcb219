package runtime

import (
	"context"
	"errors"
	"syscall"
	"time"

	cfgpkg "github.com/rzbill/modeldb/internal/config"
	boltstore "github.com/rzbill/modeldb/internal/storage/bolt"
	pebblestore "github.com/rzbill/modeldb/internal/storage/pebble"
	"github.com/rzbill/modeldb/pkg/kv"
	logpkg "github.com/rzbill/modeldb/pkg/log"
	"github.com/rzbill/modeldb/pkg/model"
	"github.com/rzbill/modeldb/pkg/modeldb"
	"github.com/sethvargo/go-retry"
	"go.etcd.io/bbolt"
)

// Options for building the Runtime.
type Options struct {
	Config   cfgpkg.Config
	Registry *model.Registry
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// Metrics observes Pebble reads and commits. Optional.
	Metrics pebblestore.MetricsHook
}

// Runtime wires config, logging and storage into an open DB.
type Runtime struct {
	db     *modeldb.DB
	config cfgpkg.Config
	logger logpkg.Logger
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = logpkg.ApplyConfig(&opts.Config.Log); err != nil {
			return nil, err
		}
	}
	store, err := openStore(context.Background(), opts, logger)
	if err != nil {
		return nil, err
	}
	db, err := modeldb.New(store, modeldb.Options{Registry: opts.Registry, Logger: logger})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Debug("modeldb opened",
		logpkg.Str("engine", opts.Config.Engine),
		logpkg.Str("dataDir", opts.Config.ResolvedDataDir()),
		logpkg.Str("fsync", opts.Config.Fsync),
	)
	return &Runtime{db: db, config: opts.Config, logger: logger}, nil
}

// openStore opens the configured engine, retrying with Fibonacci backoff
// while another process holds the store lock.
func openStore(ctx context.Context, opts Options, logger logpkg.Logger) (kv.Store, error) {
	cfg := opts.Config
	fsync, err := pebblestore.ParseFsyncMode(cfg.Fsync)
	if err != nil {
		return nil, err
	}
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}

	var open func() (kv.Store, error)
	switch cfg.Engine {
	case cfgpkg.EnginePebble, "":
		open = func() (kv.Store, error) {
			return pebblestore.Open(pebblestore.Options{
				DataDir:       path,
				Fsync:         fsync,
				FsyncInterval: time.Duration(cfg.FsyncIntervalMs) * time.Millisecond,
				Metrics:       opts.Metrics,
			})
		}
	case cfgpkg.EngineBolt:
		open = func() (kv.Store, error) {
			return boltstore.Open(boltstore.Options{
				Path:    path,
				NoSync:  fsync == pebblestore.FsyncModeNever,
				Timeout: time.Second,
			})
		}
	}

	var store kv.Store
	backoff := retry.WithMaxRetries(uint64(max(cfg.OpenRetries, 0)), retry.NewFibonacci(50*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		s, err := open()
		if err == nil {
			store = s
			return nil
		}
		if lockHeld(err) {
			logger.Warn("store locked, retrying", logpkg.Str("path", path), logpkg.Err(err))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, &modeldb.StoreError{Op: "open", Err: err}
	}
	return store, nil
}

// lockHeld reports whether err means another process owns the store.
func lockHeld(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, bbolt.ErrTimeout)
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Ping()
}

// DB exposes the opened database.
func (r *Runtime) DB() *modeldb.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the runtime logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }
