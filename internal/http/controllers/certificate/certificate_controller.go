// Package certificate contiene el controller de emisión, verificación y
// descarga de certificados.
package certificate

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dropDatabas3/hellocert/internal/audit"
	"github.com/dropDatabas3/hellocert/internal/certificate"
	httperrors "github.com/dropDatabas3/hellocert/internal/http/errors"
	mw "github.com/dropDatabas3/hellocert/internal/http/middlewares"
	"github.com/dropDatabas3/hellocert/internal/observability/logger"
)

// Respuestas de texto plano que esperan los clientes existentes.
const (
	RespIssued       = "ok!\r\n"
	RespCertified    = "Certified!\r\n"
	RespErroneous    = "Erroneous Certificate!\r\n"
	RespNotSubmitted = "You have not submit your information yet"
)

// Campos de formulario.
const (
	FieldIdentity = "identite"
	FieldTitle    = "intitule_certif"
	FieldImage    = "image"
)

const maxFormBytes = 64 << 10

// Service es lo que el controller necesita del dominio.
type Service interface {
	Issue(ctx context.Context, key string, req certificate.Request) (*certificate.Artifact, error)
	Verify(ctx context.Context, key string, upload []byte) certificate.Verdict
	Fetch(ctx context.Context, key string) ([]byte, error)
}

type Controller struct {
	service        Service
	maxUploadBytes int64
}

func NewController(service Service, maxUploadBytes int64) *Controller {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	return &Controller{service: service, maxUploadBytes: maxUploadBytes}
}

// Create maneja POST /creation
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CertificateController.Create"))

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeBodyError(w, err)
		return
	}
	if !r.Form.Has(FieldIdentity) || !r.Form.Has(FieldTitle) {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail(FieldIdentity+", "+FieldTitle))
		return
	}

	req := certificate.Request{
		Identity: r.Form.Get(FieldIdentity),
		Title:    r.Form.Get(FieldTitle),
	}
	key := mw.GetRequesterKey(ctx)
	art, err := c.service.Issue(ctx, key, req)
	if err != nil {
		log.Warn("issue failed", logger.Err(err), logger.Reason(certificate.KindOf(err)))
		audit.Log(ctx, audit.EventIssueFailed, logger.Reason(certificate.KindOf(err)))
		httperrors.WriteError(w, issueError(err))
		return
	}
	audit.Log(ctx, audit.EventIssued,
		logger.String("identity", req.Identity),
		logger.String("title", req.Title),
		logger.Bytes(len(art.PNG)),
	)

	writeText(w, http.StatusOK, RespIssued)
}

// Verify maneja POST /verification
func (c *Controller) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// margen para el overhead del multipart
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadBytes+maxFormBytes)
	if err := r.ParseMultipartForm(c.maxUploadBytes); err != nil {
		writeBodyError(w, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile(FieldImage)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail(FieldImage))
		return
	}
	defer file.Close()
	if hdr.Size > c.maxUploadBytes {
		httperrors.WriteError(w, httperrors.ErrBodyTooLarge)
		return
	}
	upload, err := io.ReadAll(io.LimitReader(file, c.maxUploadBytes))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithCause(err))
		return
	}

	verdict := c.service.Verify(ctx, mw.GetRequesterKey(ctx), upload)
	audit.Log(ctx, audit.EventVerified,
		logger.Valid(verdict.Valid),
		logger.Reason(string(verdict.Reason)),
		logger.Stage(string(verdict.Stage)),
	)
	if verdict.Valid {
		writeText(w, http.StatusOK, RespCertified)
		return
	}
	writeText(w, http.StatusOK, RespErroneous)
}

// Fetch maneja GET /fond
func (c *Controller) Fetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CertificateController.Fetch"))

	png, err := c.service.Fetch(ctx, mw.GetRequesterKey(ctx))
	switch {
	case errors.Is(err, certificate.ErrNotSubmitted):
		audit.Log(ctx, audit.EventFetchNotExists)
		writeText(w, http.StatusNotFound, RespNotSubmitted)
		return
	case errors.Is(err, context.DeadlineExceeded):
		httperrors.WriteError(w, httperrors.ErrGatewayTimeout.WithCause(err))
		return
	case err != nil:
		log.Error("fetch failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	audit.Log(ctx, audit.EventFetched, logger.Bytes(len(png)))
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// issueError traduce el tipo de falla de la emisión a un AppError.
func issueError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, certificate.ErrInvalidInput):
		return httperrors.ErrInvalidFormat.WithDetail("identity and title must fit in 64 bytes").WithCause(err)
	case errors.Is(err, certificate.ErrTimeout):
		return httperrors.ErrGatewayTimeout.WithCause(err)
	case errors.Is(err, certificate.ErrTimestampUnavailable):
		return httperrors.ErrServiceUnavailable.WithDetail("timestamp authority unavailable").WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httperrors.WriteError(w, httperrors.ErrBodyTooLarge)
		return
	}
	httperrors.WriteError(w, httperrors.ErrBadRequest.WithCause(err))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
