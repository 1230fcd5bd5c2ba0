// Package http contiene el servidor HTTP y su ciclo de vida.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/hellocert/internal/observability/logger"
)

// ServerConfig son los timeouts del http.Server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run sirve hasta que ctx se cancela (o el listener falla) y luego hace un
// shutdown ordenado esperando hasta shutdownTimeout a los requests en curso.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	log := logger.With(logger.Component("http"))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
