package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// idBandwidth is how many memory ids a sequence leases per disk write.
const idBandwidth = 100

// Backend owns the BadgerDB handle shared by the memory and category
// repositories.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

type backendConfig struct {
	inMemory    bool
	syncWrites  bool
	compression options.CompressionType
	logger      *slog.Logger
}

// BackendOption configures OpenBackend.
type BackendOption func(*backendConfig)

// InMemory keeps the whole database in RAM; the path is ignored.
func InMemory() BackendOption {
	return func(c *backendConfig) { c.inMemory = true }
}

// WithSyncWrites fsyncs every commit. Off by default.
func WithSyncWrites(sync bool) BackendOption {
	return func(c *backendConfig) { c.syncWrites = sync }
}

// WithCompression compresses value log and table blocks.
// Default is options.None; vectors compress poorly.
func WithCompression(compression options.CompressionType) BackendOption {
	return func(c *backendConfig) { c.compression = compression }
}

// WithBackendLogger routes badger's own log lines to logger.
func WithBackendLogger(logger *slog.Logger) BackendOption {
	return func(c *backendConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// OpenBackend opens the database directory at path, creating it if needed.
func OpenBackend(path string, opts ...BackendOption) (*Backend, error) {
	cfg := backendConfig{
		compression: options.None,
		logger:      slog.Default().With("component", "badger"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var bopts badger.Options
	if cfg.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		bopts = badger.DefaultOptions(path).WithSyncWrites(cfg.syncWrites)
	}
	bopts = bopts.
		WithCompression(cfg.compression).
		WithLogger(badgerLogger{logger: cfg.logger})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", path, err)
	}
	return &Backend{db: db, logger: cfg.logger}, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// Close flushes and closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn in a transaction that is discarded afterwards; writers
// commit inside fn.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns the named id sequence.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), idBandwidth)
}

// WithTransaction runs fn and commits a write transaction if it succeeds.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// scanPrefix calls fn for every key under prefix, stopping early when fn
// returns false or an error.
func scanPrefix(tx *badger.Txn, prefix []byte, keysOnly bool, fn func(item *badger.Item) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = !keysOnly
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		more, err := fn(iter.Item())
		if err != nil || !more {
			return err
		}
	}
	return nil
}

// badgerLogger forwards badger's printf-style logging to slog. Badger's
// info lines (compactions, value log GC) are demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = badgerLogger{}

func (l badgerLogger) log(level slog.Level, format string, args ...any) {
	l.logger.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.log(slog.LevelError, format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.log(slog.LevelWarn, format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.log(slog.LevelDebug, format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.log(slog.LevelDebug, format, args...) }
