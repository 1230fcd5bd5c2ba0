package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr              string        `yaml:"addr"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
		MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
		TrustProxyHeaders bool          `yaml:"trust_proxy_headers"`
	} `yaml:"server"`

	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`

	Signing struct {
		PrivateKeyPath string `yaml:"private_key_path"`
		PublicKeyPath  string `yaml:"public_key_path"`
		AutoGenerate   bool   `yaml:"auto_generate"`
	} `yaml:"signing"`

	TSA struct {
		URL              string        `yaml:"url"`
		Timeout          time.Duration `yaml:"timeout"`
		CAFile           string        `yaml:"ca_file"`
		UntrustedFile    string        `yaml:"untrusted_file"`
		MaxResponseBytes int64         `yaml:"max_response_bytes"`
	} `yaml:"tsa"`

	Template struct {
		BackgroundPath string   `yaml:"background_path"`
		FontSize       float64  `yaml:"font_size"`
		Lines          []string `yaml:"lines"`
	} `yaml:"template"`

	Storage struct {
		// fs | memory | redis | postgres
		Driver string `yaml:"driver"`
		FSRoot string `yaml:"fs_root"`
		DSN    string `yaml:"dsn"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Postgres struct {
			MaxOpenConns    int           `yaml:"max_open_conns"`
			MaxIdleConns    int           `yaml:"max_idle_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Work struct {
		ScratchDir string `yaml:"scratch_dir"`
	} `yaml:"work"`

	Timeouts struct {
		Sign   time.Duration `yaml:"sign"`
		Render time.Duration `yaml:"render"`
		Store  time.Duration `yaml:"store"`
	} `yaml:"timeouts"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Backend     string        `yaml:"backend"` // memory | redis
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
	} `yaml:"rate"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// Load lee path (si existe), aplica defaults y luego overrides de entorno.
// path vacío o inexistente = solo defaults + entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 20 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Signing.PrivateKeyPath == "" {
		c.Signing.PrivateKeyPath = "keys/signing.pem"
	}
	if c.TSA.URL == "" {
		c.TSA.URL = "https://freetsa.org/tsr"
	}
	if c.TSA.Timeout == 0 {
		c.TSA.Timeout = 30 * time.Second
	}
	if c.TSA.CAFile == "" {
		c.TSA.CAFile = "tsa/cacert.pem"
	}
	if c.TSA.MaxResponseBytes == 0 {
		c.TSA.MaxResponseBytes = 1 << 20
	}
	if c.Template.FontSize == 0 {
		c.Template.FontSize = 56
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "fs"
	}
	if c.Storage.FSRoot == "" {
		c.Storage.FSRoot = "data/certificates"
	}
	if c.Timeouts.Sign == 0 {
		c.Timeouts.Sign = 5 * time.Second
	}
	if c.Timeouts.Render == 0 {
		c.Timeouts.Render = 20 * time.Second
	}
	if c.Timeouts.Store == 0 {
		c.Timeouts.Store = 10 * time.Second
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 10
	}
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func (c *Config) applyEnvOverrides() {
	// APP / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("LOG_FILE"); ok {
		c.Log.File = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvInt("SERVER_MAX_UPLOAD_BYTES"); ok {
		c.Server.MaxUploadBytes = int64(v)
	}
	if v, ok := getEnvBool("SERVER_TRUST_PROXY_HEADERS"); ok {
		c.Server.TrustProxyHeaders = v
	}

	// SIGNING
	if v, ok := getEnvStr("SIGNING_PRIVATE_KEY_PATH"); ok {
		c.Signing.PrivateKeyPath = v
	}
	if v, ok := getEnvStr("SIGNING_PUBLIC_KEY_PATH"); ok {
		c.Signing.PublicKeyPath = v
	}
	if v, ok := getEnvBool("SIGNING_AUTO_GENERATE"); ok {
		c.Signing.AutoGenerate = v
	}

	// TSA
	if v, ok := getEnvStr("TSA_URL"); ok {
		c.TSA.URL = v
	}
	if v, ok := getEnvDur("TSA_TIMEOUT"); ok {
		c.TSA.Timeout = v
	}
	if v, ok := getEnvStr("TSA_CA_FILE"); ok {
		c.TSA.CAFile = v
	}
	if v, ok := getEnvStr("TSA_UNTRUSTED_FILE"); ok {
		c.TSA.UntrustedFile = v
	}

	// TEMPLATE
	if v, ok := getEnvStr("TEMPLATE_BACKGROUND_PATH"); ok {
		c.Template.BackgroundPath = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_FS_ROOT"); ok {
		c.Storage.FSRoot = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Storage.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Storage.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Storage.Redis.DB = v
	}

	// WORK / TIMEOUTS
	if v, ok := getEnvStr("WORK_SCRATCH_DIR"); ok {
		c.Work.ScratchDir = v
	}
	if v, ok := getEnvDur("TIMEOUT_SIGN"); ok {
		c.Timeouts.Sign = v
	}
	if v, ok := getEnvDur("TIMEOUT_RENDER"); ok {
		c.Timeouts.Render = v
	}
	if v, ok := getEnvDur("TIMEOUT_STORE"); ok {
		c.Timeouts.Store = v
	}

	// RATE / METRICS
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}

// Validate revisa combinaciones que no tienen default razonable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "fs", "memory":
	case "redis":
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required for driver redis"))
		}
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}
	if c.Rate.Enabled {
		switch c.Rate.Backend {
		case "memory":
		case "redis":
			if c.Storage.Redis.Addr == "" {
				errs = append(errs, errors.New("rate backend redis needs storage.redis.addr"))
			}
		default:
			errs = append(errs, fmt.Errorf("rate.backend %q not supported", c.Rate.Backend))
		}
	}
	if c.TSA.Timeout <= 0 {
		errs = append(errs, errors.New("tsa.timeout must be positive"))
	}
	return errors.Join(errs...)
}
