// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string `yaml:"env" env:"APP_ENV"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	HTTPAddr string `yaml:"http_addr" env:"HTTP_ADDR"`

	// Public base URL of this app; the OAuth redirect_uri is AppURL + /auth/callback.
	AppURL string `yaml:"app_url" env:"APP_URL"`

	// Partner app credentials
	APIKey    string   `yaml:"api_key" env:"SHOPIFY_API_KEY"`
	APISecret string   `yaml:"-" env:"SHOPIFY_API_SECRET"`
	Scopes    []string `yaml:"scopes" env:"SCOPES" envSeparator:","`
	// Handle used in /apps/{handle} admin URLs; falls back to APIKey.
	AppHandle     string `yaml:"app_handle" env:"APP_HANDLE"`
	PerUserAccess bool   `yaml:"per_user_access" env:"PER_USER_ACCESS"`

	// Platform shape
	StorefrontSuffix string `yaml:"storefront_suffix" env:"STOREFRONT_SUFFIX"`
	AdminHost        string `yaml:"admin_host" env:"ADMIN_HOST"`

	NonceTTL            time.Duration `yaml:"nonce_ttl" env:"NONCE_TTL"`
	RequireCallbackHMAC bool          `yaml:"require_callback_hmac" env:"REQUIRE_CALLBACK_HMAC"`
	InstallPolicyFile   string        `yaml:"install_policy_file" env:"INSTALL_POLICY_FILE"`
	ExchangeTimeout     time.Duration `yaml:"exchange_timeout" env:"EXCHANGE_TIMEOUT"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`

	// Redis & SQL
	RedisURL    string `yaml:"-" env:"REDIS_URL"`
	DatabaseURL string `yaml:"-" env:"DATABASE_URL"`

	// OTLP endpoint; tracing stays off when empty.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func defaults() Config {
	return Config{
		Env:                 "dev",
		LogLevel:            "info",
		HTTPAddr:            ":8080",
		AppURL:              "http://localhost:8080",
		Scopes:              []string{"read_products", "read_inventory"},
		StorefrontSuffix:    "myshopify.com",
		AdminHost:           "admin.shopify.com",
		NonceTTL:            10 * time.Minute,
		RequireCallbackHMAC: true,
		ExchangeTimeout:     15 * time.Second,
		RateLimitRPS:        10,
		RateLimitBurst:      20,
	}
}

// Load reads .env (if present), then APP_CONFIG_FILE (YAML) over the defaults, then the
// process environment. Later sources win.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := defaults()
	if path := os.Getenv("APP_CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set, using in-memory credential store for dev")
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.AppURL = strings.TrimRight(strings.TrimSpace(c.AppURL), "/")
	c.StorefrontSuffix = strings.Trim(strings.ToLower(strings.TrimSpace(c.StorefrontSuffix)), ".")
	c.AdminHost = strings.ToLower(strings.TrimSpace(c.AdminHost))
	scopes := c.Scopes[:0]
	for _, s := range c.Scopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	c.Scopes = scopes
	if c.AppHandle == "" {
		c.AppHandle = c.APIKey
	}
}

// Validate reports missing settings. Dev tolerates missing app credentials.
func (c Config) Validate() error {
	var errs []error
	if c.StorefrontSuffix == "" {
		errs = append(errs, errors.New("STOREFRONT_SUFFIX is required"))
	}
	if c.AdminHost == "" {
		errs = append(errs, errors.New("ADMIN_HOST is required"))
	}
	if c.NonceTTL <= 0 {
		errs = append(errs, errors.New("NONCE_TTL must be positive"))
	}
	if c.Env != "dev" {
		if c.APIKey == "" || c.APISecret == "" {
			errs = append(errs, errors.New("SHOPIFY_API_KEY and SHOPIFY_API_SECRET are required"))
		}
		if !strings.HasPrefix(c.AppURL, "https://") {
			errs = append(errs, errors.New("APP_URL must be an https URL"))
		}
	}
	return errors.Join(errs...)
}

// CallbackURL is the redirect_uri registered with the provider.
func (c Config) CallbackURL() string { return c.AppURL + "/auth/callback" }
