// Package postgres guarda artefactos en la tabla certificate_artifact (pgx).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/dropDatabas3/hellocert/migrations/postgres"

	"github.com/dropDatabas3/hellocert/internal/store"
)

func init() {
	store.RegisterAdapter(&pgAdapter{})
}

type pgAdapter struct{}

func (a *pgAdapter) Name() string { return "postgres" }

func (a *pgAdapter) Open(ctx context.Context, cfg store.AdapterConfig) (store.ArtifactStore, error) {
	s, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Connect abre el pool sin aplicar migraciones (cmd/migrate las aplica aparte).
func Connect(ctx context.Context, cfg store.AdapterConfig) (*Store, error) {
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Migrations lista los .sql embebidos en el orden en que se aplican.
func Migrations() ([]string, error) {
	files, err := fs.Glob(migrations.CertificatesFS, migrations.CertificatesDir+"/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func openPool(ctx context.Context, c store.AdapterConfig) (*pgxpool.Pool, error) {
	if c.DSN == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	cfg, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse pgxpool config: %w", err)
	}
	if c.MaxOpenConns > 0 {
		cfg.MaxConns = int32(c.MaxOpenConns)
	}
	// MaxIdleConns → MinConns (pgxpool)
	if c.MaxIdleConns > 0 {
		cfg.MinConns = int32(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = c.ConnMaxLifetime
		cfg.MaxConnIdleTime = c.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxpool ping: %w", err)
	}
	return pool, nil
}

type Store struct {
	pool *pgxpool.Pool
}

func (s *Store) Name() string { return "postgres" }

// Migrate aplica los .sql embebidos en orden lexicográfico. Son idempotentes.
func (s *Store) Migrate(ctx context.Context) error {
	files, err := Migrations()
	if err != nil {
		return err
	}
	for _, f := range files {
		sql, err := migrations.CertificatesFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", f, err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var img []byte
	err := s.pool.QueryRow(ctx,
		`SELECT image FROM certificate_artifact WHERE requester_key = $1`, key).Scan(&img)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %s: %w", key, err)
	}
	return img, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO certificate_artifact (requester_key, image, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (requester_key) DO UPDATE
		SET image = EXCLUDED.image, updated_at = EXCLUDED.updated_at`, key, data)
	if err != nil {
		return fmt.Errorf("postgres: put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM certificate_artifact WHERE requester_key = $1`, key); err != nil {
		return fmt.Errorf("postgres: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
