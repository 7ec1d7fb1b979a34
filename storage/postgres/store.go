// Package postgres stores memories in PostgreSQL with the pgvector extension.
//
// The filter predicate tree is lowered to SQL: hard predicates become the
// WHERE clause and boosts are added to the ORDER BY score, so the database
// orders the over-fetch exactly as the ranker scores it.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config describes a PostgreSQL connection.
type Config struct {
	DSN       string
	Dimension int
	Timeout   time.Duration
}

// Store owns the gorm connection shared by the repositories.
type Store struct {
	db        *gorm.DB
	dimension int
	logger    *slog.Logger
}

type txKey struct{}

// Open connects to PostgreSQL and migrates the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, ErrDSNRequired
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &Store{
		db:        db,
		dimension: cfg.Dimension,
		logger:    slog.Default().With("component", "postgres"),
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := s.Migrate(timeoutCtx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the vector extension, tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if err := db.AutoMigrate(&memoryRow{}, &categoryRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if s.dimension <= 0 {
		return nil
	}
	// An HNSW index needs a fixed dimension on the column.
	if err := db.Exec(fmt.Sprintf("ALTER TABLE memories ALTER COLUMN embedding TYPE vector(%d)", s.dimension)).Error; err != nil {
		return fmt.Errorf("failed to set embedding dimension: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_memories_embedding_hnsw ON memories USING hnsw (embedding vector_cosine_ops)").Error; err != nil {
		s.logger.WarnContext(ctx, "failed to create HNSW index on memories", "error", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTransaction runs fn in a database transaction. Repository calls made
// with the context passed to fn join the transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or the shared pool.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
