package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configura el logger.
type Config struct {
	// Env define el entorno: "dev" (consola con colores) o "prod" (JSON).
	// Default: "dev"
	Env string

	// Level define el nivel mínimo de log: "debug", "info", "warn", "error".
	// Default: "info"
	Level string

	// ServiceName es el nombre del servicio para incluir en logs.
	// Opcional.
	ServiceName string

	// Version es la versión del servicio.
	// Opcional.
	Version string

	// File es la ruta de un archivo de log rotado. Vacío = solo stdout.
	File string

	// Rotación del archivo (solo si File != "").
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// build construye el logger según la configuración.
func build(cfg Config) *zap.Logger {
	level := parseLevel(cfg.Level)
	prod := strings.ToLower(cfg.Env) == "prod"

	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	if prod {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeCaller = zapcore.ShortCallerEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
		// Colores para el nivel
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		encCfg.EncodeCaller = zapcore.ShortCallerEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	atom := zap.NewAtomicLevelAt(level)
	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), atom),
	}

	// El archivo siempre va en JSON, sin colores.
	if cfg.File != "" {
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		fileEnc.EncodeCaller = zapcore.ShortCallerEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEnc),
			zapcore.AddSync(rotatingWriter(cfg)),
			atom,
		))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if prod {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else if level == zapcore.DebugLevel {
		opts = append(opts, zap.Development())
	}

	l := zap.New(zapcore.NewTee(cores...), opts...)

	// Campos base
	if cfg.ServiceName != "" {
		l = l.With(zap.String("service", cfg.ServiceName))
	}
	if cfg.Version != "" {
		l = l.With(zap.String("version", cfg.Version))
	}
	return l
}

func rotatingWriter(cfg Config) *lumberjack.Logger {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}

// parseLevel convierte un string a zapcore.Level.
func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
