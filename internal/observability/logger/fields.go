package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - CERTIFICADOS
// =================================================================================

// RequesterKey identifica el artefacto (sha256 de la dirección del cliente).
func RequesterKey(v string) zap.Field { return zap.String("requester_key", v) }

// Stage es la etapa del pipeline de emisión/verificación.
func Stage(v string) zap.Field { return zap.String("stage", v) }

// Reason es el motivo interno de un veredicto inválido.
func Reason(v string) zap.Field { return zap.String("reason", v) }

func Valid(v bool) zap.Field { return zap.Bool("valid", v) }

func TSAURL(v string) zap.Field { return zap.String("tsa_url", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Int64(key string, v int64) zap.Field { return zap.Int64(key, v) }

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }

// Field evita importar zap solo para armar slices de campos.
type Field = zap.Field
