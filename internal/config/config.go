package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	JWT      JWTConfig
	Log      LogConfig
	Supplier SupplierConfig
	Payment  PaymentConfig
	Dispatch DispatchConfig
	Webhook  WebhookConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type DatabaseConfig struct {
	URL             string // postgres://, mysql:// or sqlite://
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogLevel        string // silent, error, warn, info
	SlowThreshold   time.Duration
}

type RedisConfig struct {
	URL      string // empty disables redis; in-memory fallbacks are used
	CacheTTL time.Duration
}

type RabbitMQConfig struct {
	URL      string // empty disables event publishing
	Exchange string
}

type JWTConfig struct {
	Secret string
}

type LogConfig struct {
	Level  string
	Format string // json, console
	Output string // stdout, stderr, or a file path
}

type SupplierConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	WebhookSecret string
	Shipping      ShippingConfig
}

// ShippingConfig is the placeholder consignee sent with every supplier order.
type ShippingConfig struct {
	CountryCode     string
	Province        string
	City            string
	Address         string
	Zip             string
	CustomerName    string
	Phone           string
	LogisticName    string
	FromCountryCode string
}

// PaymentConfig covers inbound payment webhooks only; creating payment
// intents happens outside this service.
type PaymentConfig struct {
	WebhookSecret      string
	SignatureTolerance time.Duration
}

type DispatchConfig struct {
	Enabled      bool
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	Lease        time.Duration
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration
}

// legacyEnv maps config keys to the bare environment names the storefront
// has always been deployed with. SHOP_-prefixed names still win.
var legacyEnv = map[string]string{
	"app.port":                "PORT",
	"app.env":                 "APP_ENV",
	"database.url":            "DATABASE_URL",
	"redis.url":               "REDIS_URL",
	"rabbitmq.url":            "RABBITMQ_URL",
	"jwt.secret":              "JWT_SECRET",
	"supplier.api_key":        "CJ_API_KEY",
	"supplier.webhook_secret": "CJ_WEBHOOK_SECRET",
	"payment.webhook_secret":  "STRIPE_WEBHOOK_SECRET",
}

// Load reads config.yaml (optional), then SHOP_* environment variables, then
// the legacy bare names, and fills in defaults for anything left empty.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "SHOP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			CORSOrigins:     v.GetStringSlice("http.cors_origins"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			URL:      v.GetString("redis.url"),
			CacheTTL: v.GetDuration("redis.cache_ttl"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("rabbitmq.url"),
			Exchange: v.GetString("rabbitmq.exchange"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Supplier: SupplierConfig{
			BaseURL:       v.GetString("supplier.base_url"),
			APIKey:        v.GetString("supplier.api_key"),
			Timeout:       v.GetDuration("supplier.timeout"),
			RatePerSecond: v.GetFloat64("supplier.rate_per_second"),
			WebhookSecret: v.GetString("supplier.webhook_secret"),
			Shipping: ShippingConfig{
				CountryCode:     v.GetString("supplier.shipping.country_code"),
				Province:        v.GetString("supplier.shipping.province"),
				City:            v.GetString("supplier.shipping.city"),
				Address:         v.GetString("supplier.shipping.address"),
				Zip:             v.GetString("supplier.shipping.zip"),
				CustomerName:    v.GetString("supplier.shipping.customer_name"),
				Phone:           v.GetString("supplier.shipping.phone"),
				LogisticName:    v.GetString("supplier.shipping.logistic_name"),
				FromCountryCode: v.GetString("supplier.shipping.from_country_code"),
			},
		},
		Payment: PaymentConfig{
			WebhookSecret:      v.GetString("payment.webhook_secret"),
			SignatureTolerance: v.GetDuration("payment.signature_tolerance"),
		},
		Dispatch: DispatchConfig{
			Enabled:      !v.IsSet("dispatch.enabled") || v.GetBool("dispatch.enabled"),
			PollInterval: v.GetDuration("dispatch.poll_interval"),
			BatchSize:    v.GetInt("dispatch.batch_size"),
			MaxAttempts:  v.GetInt("dispatch.max_attempts"),
			BaseBackoff:  v.GetDuration("dispatch.base_backoff"),
			MaxBackoff:   v.GetDuration("dispatch.max_backoff"),
			Lease:        v.GetDuration("dispatch.lease"),
		},
		Webhook: WebhookConfig{
			IdempotencyTTL: v.GetDuration("webhook.idempotency_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3001"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = "postgres://postgres@localhost:5432/storefront?sslmode=disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = time.Minute
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = 10 * time.Minute
	}
	if cfg.RabbitMQ.Exchange == "" {
		cfg.RabbitMQ.Exchange = "order.exchange"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Supplier.BaseURL == "" {
		cfg.Supplier.BaseURL = "https://developers.cjdropshipping.com/api2.0/v1"
	}
	if cfg.Supplier.Timeout == 0 {
		cfg.Supplier.Timeout = 15 * time.Second
	}
	if cfg.Supplier.RatePerSecond == 0 {
		cfg.Supplier.RatePerSecond = 1
	}
	defaultShipping(&cfg.Supplier.Shipping)
	if cfg.Payment.SignatureTolerance == 0 {
		cfg.Payment.SignatureTolerance = 5 * time.Minute
	}
	if cfg.Dispatch.PollInterval == 0 {
		cfg.Dispatch.PollInterval = 30 * time.Second
	}
	if cfg.Dispatch.BatchSize == 0 {
		cfg.Dispatch.BatchSize = 20
	}
	if cfg.Dispatch.MaxAttempts == 0 {
		cfg.Dispatch.MaxAttempts = 8
	}
	if cfg.Dispatch.BaseBackoff == 0 {
		cfg.Dispatch.BaseBackoff = time.Minute
	}
	if cfg.Dispatch.MaxBackoff == 0 {
		cfg.Dispatch.MaxBackoff = 6 * time.Hour
	}
	if cfg.Dispatch.Lease == 0 {
		cfg.Dispatch.Lease = 2 * time.Minute
	}
	if cfg.Webhook.IdempotencyTTL == 0 {
		cfg.Webhook.IdempotencyTTL = 24 * time.Hour
	}
}

func defaultShipping(s *ShippingConfig) {
	if s.CountryCode == "" {
		s.CountryCode = "US"
	}
	if s.Province == "" {
		s.Province = "N/A"
	}
	if s.City == "" {
		s.City = "N/A"
	}
	if s.Address == "" {
		s.Address = "Address pending"
	}
	if s.CustomerName == "" {
		s.CustomerName = "Storefront Customer"
	}
	if s.Phone == "" {
		s.Phone = "0000000000"
	}
	if s.LogisticName == "" {
		s.LogisticName = "CJPacket Ordinary"
	}
	if s.FromCountryCode == "" {
		s.FromCountryCode = "CN"
	}
}

func (c *Config) validate() error {
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Supplier.RatePerSecond < 0 {
		return fmt.Errorf("supplier.rate_per_second cannot be negative")
	}
	if c.Dispatch.MaxAttempts < 1 {
		return fmt.Errorf("dispatch.max_attempts must be at least 1")
	}
	if c.Dispatch.BaseBackoff > c.Dispatch.MaxBackoff {
		return fmt.Errorf("dispatch.base_backoff cannot exceed dispatch.max_backoff")
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Payment.WebhookSecret == "" {
			return fmt.Errorf("payment.webhook_secret is required in production")
		}
		for _, origin := range c.HTTP.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("http.cors_origins cannot be '*' in production")
			}
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
