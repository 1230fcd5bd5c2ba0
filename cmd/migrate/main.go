package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/hellocert/internal/config"
	"github.com/dropDatabas3/hellocert/internal/store"
	"github.com/dropDatabas3/hellocert/internal/store/adapters/postgres"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "Path to YAML config")
		envFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		list       = flag.Bool("list", false, "solo lista las migraciones embebidas")
		timeout    = flag.Duration("timeout", time.Minute, "timeout total")
	)
	flag.Parse()
	_ = godotenv.Load(*envFile)

	files, err := postgres.Migrations()
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	if *list {
		for _, f := range files {
			log.Println(f)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Storage.DSN == "" {
		log.Fatal("storage.dsn (STORAGE_DSN) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	s, err := postgres.Connect(ctx, store.AdapterConfig{
		Name:            "postgres",
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer s.Close()

	log.Printf("Applying %d migration(s)...", len(files))
	if err := s.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("Migrations completed.")
}
