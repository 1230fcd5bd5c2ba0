// Package fs guarda un PNG por clave en un directorio ({key}_final.png).
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dropDatabas3/hellocert/internal/store"
	"github.com/dropDatabas3/hellocert/internal/util/atomicwrite"
)

// Suffix del nombre de archivo de cada artefacto.
const Suffix = "_final.png"

func init() {
	store.RegisterAdapter(&fsAdapter{})
}

type fsAdapter struct{}

func (a *fsAdapter) Name() string { return "fs" }

func (a *fsAdapter) Open(_ context.Context, cfg store.AdapterConfig) (store.ArtifactStore, error) {
	return New(cfg.FSRoot)
}

// Store implementa store.ArtifactStore sobre el filesystem.
type Store struct {
	root string
}

// New crea el directorio raíz si no existe.
func New(root string) (*Store, error) {
	if root == "" {
		root = "data/certificates"
	}
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("fs: create root %s: %w", root, err)
		}
	case err != nil:
		return nil, fmt.Errorf("fs: root path error: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("fs: root path is not a directory: %s", root)
	}
	return &Store{root: root}, nil
}

func (s *Store) Name() string { return "fs" }

// Path retorna la ruta del artefacto de key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, key+Suffix)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fs: read %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := atomicwrite.WriteFile(s.Path(key), data, 0o644); err != nil {
		return fmt.Errorf("fs: write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(s.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fs: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("fs: %s is not a directory", s.root)
	}
	return nil
}

func (s *Store) Close() error { return nil }
