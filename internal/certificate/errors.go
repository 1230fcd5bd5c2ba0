package certificate

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellocert/internal/tsa"
)

// Tipos de falla de la emisión. Un StageError siempre matchea uno de estos
// con errors.Is, además de la causa original.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrSigningFailure       = errors.New("signing failure")
	ErrRenderingFailure     = errors.New("rendering failure")
	ErrTimestampUnavailable = errors.New("timestamp unavailable")
	ErrPersistenceFailure   = errors.New("persistence failure")
	ErrTimeout              = errors.New("timeout")
)

// ErrNotSubmitted: no hay certificado emitido para la clave.
var ErrNotSubmitted = errors.New("no certificate submitted for this requester")

// StageError indica en qué etapa se abortó la emisión.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("certificate: %s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	errs := []error{e.Kind, e.Err}
	if e.Kind != ErrTimeout && isTimeout(e.Err) {
		errs = append(errs, ErrTimeout)
	}
	return errs
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, tsa.ErrTimeout)
}

func stageErr(stage Stage, kind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// KindOf retorna el tipo de falla como texto corto (para métricas y logs).
func KindOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrSigningFailure):
		return "signing_failure"
	case errors.Is(err, ErrRenderingFailure):
		return "rendering_failure"
	case errors.Is(err, ErrTimestampUnavailable):
		return "timestamp_unavailable"
	case errors.Is(err, ErrPersistenceFailure):
		return "persistence_failure"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
