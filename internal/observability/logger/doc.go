// Package logger provides a singleton Zap logger with context-based scoping.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request lleva su logger con request_id y requester_key.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - File: opcionalmente se duplica la salida a un archivo rotado (lumberjack).
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En handlers/services:
//
//	log := logger.From(ctx)
//	log.Info("certificate issued", logger.RequesterKey(key))
package logger
