package certificate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellocert/internal/store"
)

// Service es la fachada que usan los transportes: emitir, verificar y
// recuperar el certificado de un solicitante.
type Service struct {
	issuer       *Issuer
	verifier     *Verifier
	store        store.ArtifactStore
	storeTimeout time.Duration
	fetches      singleflight.Group
}

func NewService(issuer *Issuer, verifier *Verifier, st store.ArtifactStore, storeTimeout time.Duration) *Service {
	return &Service{issuer: issuer, verifier: verifier, store: st, storeTimeout: storeTimeout}
}

func (s *Service) Issue(ctx context.Context, key string, req Request) (*Artifact, error) {
	return s.issuer.Issue(ctx, key, req)
}

func (s *Service) Verify(ctx context.Context, key string, upload []byte) Verdict {
	return s.verifier.Verify(ctx, key, upload)
}

// Fetch retorna el PNG guardado para key o ErrNotSubmitted. Lecturas
// concurrentes de la misma clave comparten una sola consulta al store.
func (s *Service) Fetch(ctx context.Context, key string) ([]byte, error) {
	v, err, _ := s.fetches.Do(key, func() (interface{}, error) {
		fctx, cancel := withTimeout(context.WithoutCancel(ctx), s.storeTimeout)
		defer cancel()
		return s.store.Get(fctx, key)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotSubmitted
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	return v.([]byte), nil
}

// Ready verifica que el store responda.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
