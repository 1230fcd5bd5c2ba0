// Package store define el almacenamiento clave-valor de certificados y el
// registry de adaptadores (fs, memory, redis, postgres).
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNotFound: no hay artefacto para la clave.
var ErrNotFound = errors.New("store: artifact not found")

// ArtifactStore guarda un único artefacto por clave. Put reemplaza de forma
// atómica: un Get concurrente ve el valor viejo o el nuevo, nunca uno parcial.
type ArtifactStore interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Adapter abre un ArtifactStore a partir de la configuración.
type Adapter interface {
	Name() string
	Open(ctx context.Context, cfg AdapterConfig) (ArtifactStore, error)
}

// AdapterConfig configuración para abrir un almacenamiento.
type AdapterConfig struct {
	// Name del adapter: "fs", "memory", "redis", "postgres"
	Name string

	// FSRoot directorio raíz (fs)
	FSRoot string

	// DSN connection string (postgres)
	DSN string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Prefix de claves (redis)
	Prefix string

	// Pool settings (postgres)
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter. Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open abre el store del adapter indicado en cfg.Name y verifica que responda.
func Open(ctx context.Context, cfg AdapterConfig) (ArtifactStore, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("adapter: %q not registered (available: %v)", cfg.Name, ListAdapters())
	}
	s, err := a.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("adapter %s: %w", cfg.Name, err)
	}
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("adapter %s: ping: %w", cfg.Name, err)
	}
	return s, nil
}

// ErrInvalidKey: la clave contiene caracteres fuera de [A-Za-z0-9_-].
var ErrInvalidKey = errors.New("store: invalid key")

// ValidateKey rechaza claves vacías, largas o con separadores de ruta.
func ValidateKey(key string) error {
	if key == "" || len(key) > 128 {
		return ErrInvalidKey
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return ErrInvalidKey
		}
	}
	return nil
}
