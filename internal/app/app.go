// Package app arma el servicio a partir de la configuración: claves, TSA,
// plantilla, store, rate limit, métricas y router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellocert/internal/certificate"
	"github.com/dropDatabas3/hellocert/internal/config"
	certctrl "github.com/dropDatabas3/hellocert/internal/http/controllers/certificate"
	"github.com/dropDatabas3/hellocert/internal/http/controllers/health"
	"github.com/dropDatabas3/hellocert/internal/http/router"
	"github.com/dropDatabas3/hellocert/internal/metrics"
	"github.com/dropDatabas3/hellocert/internal/observability/logger"
	"github.com/dropDatabas3/hellocert/internal/rate"
	"github.com/dropDatabas3/hellocert/internal/render"
	"github.com/dropDatabas3/hellocert/internal/signature"
	"github.com/dropDatabas3/hellocert/internal/store"
	"github.com/dropDatabas3/hellocert/internal/tsa"

	_ "github.com/dropDatabas3/hellocert/internal/store/adapters/all"
)

// Container agrupa lo que el main necesita del servicio armado.
type Container struct {
	Handler http.Handler
	Service *certificate.Service
	Metrics *metrics.Metrics
	Store   store.ArtifactStore

	closers []func() error
}

// Close libera store y clientes en orden inverso de apertura.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// New construye el Container. Si falla a mitad de camino cierra lo abierto.
func New(ctx context.Context, cfg *config.Config, version string) (_ *Container, err error) {
	log := logger.With(logger.Component("app"))
	c := &Container{}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	key, generated, err := signature.EnsureKey(cfg.Signing.PrivateKeyPath, cfg.Signing.PublicKeyPath, cfg.Signing.AutoGenerate)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	if generated {
		log.Warn("signing key generated", logger.String("path", cfg.Signing.PrivateKeyPath))
	}
	signer, err := signature.NewSigner(key)
	if err != nil {
		return nil, err
	}
	sigVerifier, err := signature.NewVerifier(signer.Public())
	if err != nil {
		return nil, err
	}

	tsVerifier, err := tsa.LoadVerifier(cfg.TSA.CAFile, cfg.TSA.UntrustedFile)
	if err != nil {
		return nil, fmt.Errorf("tsa trust: %w", err)
	}
	tsClient := tsa.NewClient(tsa.ClientConfig{
		URL:              cfg.TSA.URL,
		Timeout:          cfg.TSA.Timeout,
		MaxResponseBytes: cfg.TSA.MaxResponseBytes,
	})

	composer, err := render.NewComposer(render.Config{
		BackgroundPath: cfg.Template.BackgroundPath,
		FontSize:       cfg.Template.FontSize,
		Lines:          cfg.Template.Lines,
	})
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}

	st, err := store.Open(ctx, storeConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	c.Store = st
	c.closers = append(c.closers, st.Close)

	var observer certificate.Observer
	if cfg.Metrics.Enabled {
		if c.Metrics, err = metrics.New(nil); err != nil {
			return nil, err
		}
		observer = c.Metrics
	}

	issuer, err := certificate.NewIssuer(certificate.IssuerConfig{
		Signer:        signer,
		Timestamper:   tsClient,
		Composer:      composer,
		Store:         st,
		Observer:      observer,
		ScratchDir:    cfg.Work.ScratchDir,
		SignTimeout:   cfg.Timeouts.Sign,
		RenderTimeout: cfg.Timeouts.Render,
		StoreTimeout:  cfg.Timeouts.Store,
	})
	if err != nil {
		return nil, err
	}
	verifier, err := certificate.NewVerifier(certificate.VerifierConfig{
		Signatures: sigVerifier,
		Timestamps: tsVerifier,
		Observer:   observer,
		ScratchDir: cfg.Work.ScratchDir,
	})
	if err != nil {
		return nil, err
	}
	c.Service = certificate.NewService(issuer, verifier, st, cfg.Timeouts.Store)

	limiter, err := c.rateLimiter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.Handler = router.New(router.Deps{
		Certificates:      certctrl.NewController(c.Service, cfg.Server.MaxUploadBytes),
		Health:            health.NewController(c.Service, version),
		Metrics:           c.Metrics,
		RateLimiter:       limiter,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	log.Info("service wired",
		logger.String("storage", st.Name()),
		logger.TSAURL(tsClient.URL()),
		logger.String("rate", rateBackend(cfg)),
	)
	return c, nil
}

func storeConfig(cfg *config.Config) store.AdapterConfig {
	return store.AdapterConfig{
		Name:            cfg.Storage.Driver,
		FSRoot:          cfg.Storage.FSRoot,
		DSN:             cfg.Storage.DSN,
		RedisAddr:       cfg.Storage.Redis.Addr,
		RedisPassword:   cfg.Storage.Redis.Password,
		RedisDB:         cfg.Storage.Redis.DB,
		Prefix:          cfg.Storage.Redis.Prefix,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	}
}

func rateBackend(cfg *config.Config) string {
	if !cfg.Rate.Enabled {
		return "off"
	}
	return cfg.Rate.Backend
}

// rateLimiter retorna nil (sin límite) si rate.enabled es false.
func (c *Container) rateLimiter(ctx context.Context, cfg *config.Config) (rate.Limiter, error) {
	if !cfg.Rate.Enabled {
		return nil, nil
	}
	if cfg.Rate.Backend != "redis" {
		return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window), nil
	}
	client := rdb.NewClient(&rdb.Options{
		Addr:     cfg.Storage.Redis.Addr,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	c.closers = append(c.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("rate redis: %w", err)
	}
	return rate.NewRedisLimiter(client, "hellocert:rate:", cfg.Rate.MaxRequests, cfg.Rate.Window), nil
}
