package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/hellocert/internal/app"
	"github.com/dropDatabas3/hellocert/internal/config"
	httpserver "github.com/dropDatabas3/hellocert/internal/http"
	"github.com/dropDatabas3/hellocert/internal/observability/logger"
)

var version = "dev"

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		flagPrint      = flag.Bool("print-config", false, "imprime config efectiva y termina")
	)
	flag.Parse()

	if fileExists(*flagEnvFile) {
		_ = godotenv.Load(*flagEnvFile)
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}
	if *flagPrint {
		printConfigSummary(cfg)
		return
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "hellocert",
		Version:     version,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.New(ctx, cfg, version)
	if err != nil {
		log.Fatal("startup failed", logger.Err(err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn("close failed", logger.Err(err))
		}
	}()

	srv := httpserver.NewServer(httpserver.ServerConfig{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, c.Handler)

	if err := httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout); err != nil {
		log.Error("server stopped", logger.Err(err))
		return
	}
	log.Info("bye")
}

func printConfigSummary(c *config.Config) {
	fmt.Printf(`env=%s addr=%s
storage=%s fs_root=%s redis=%s
tsa=%s timeout=%s ca=%s
signing=%s auto_generate=%t
template=%q font_size=%.0f
timeouts sign=%s render=%s store=%s
rate enabled=%t backend=%s max=%d window=%s
metrics=%t scratch=%q
`,
		c.App.Env, c.Server.Addr,
		c.Storage.Driver, c.Storage.FSRoot, c.Storage.Redis.Addr,
		c.TSA.URL, c.TSA.Timeout, c.TSA.CAFile,
		c.Signing.PrivateKeyPath, c.Signing.AutoGenerate,
		c.Template.BackgroundPath, c.Template.FontSize,
		c.Timeouts.Sign, c.Timeouts.Render, c.Timeouts.Store,
		c.Rate.Enabled, c.Rate.Backend, c.Rate.MaxRequests, c.Rate.Window,
		c.Metrics.Enabled, c.Work.ScratchDir,
	)
}
