package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Scheduler   SchedulerConfig
	Telemetry   TelemetryConfig
	Storage     StorageConfig
	Printing    PrintingConfig
	Razorpay    RazorpayConfig
	Shiprocket  ShiprocketConfig
	WhatsApp    WhatsAppConfig
	AI          AIConfig
	Ads         AdsConfig
	Marketplace MarketplaceConfig
	Marketing   MarketingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application configuration
type AppConfig struct {
	Name        string
	Env         string
	Port        string
	PublicURL   string // storefront base URL used in links sent to customers
	SupportName string
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
	SlowThreshold   time.Duration
}

// RedisConfig holds redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxBodySize           int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitRequests int
	AuthRateLimitWindow   time.Duration
	CORSAllowOrigins      []string
	TrustedProxies        []string
}

// SchedulerConfig holds the interval of each background job
type SchedulerConfig struct {
	Enabled               bool
	AbandonedCartInterval time.Duration
	CampaignInterval      time.Duration
	PayoutInterval        time.Duration
	AttemptExpiryInterval time.Duration
	JobTimeout            time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	LogsEnabled       bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	Profiling         ProfilingConfig
}

// ProfilingConfig holds Pyroscope continuous profiling settings
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string
	// tag CPU samples with the active span ID; needs tracing enabled
	SpanProfiles bool
}

// StorageConfig holds S3-compatible object storage configuration
type StorageConfig struct {
	Enabled        bool
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	UsePathStyle   bool
	PresignExpiry  time.Duration
	PublicBaseURL  string
	MaxUploadBytes int64
}

// PrintingConfig holds headless Chrome settings for catalog PDFs
type PrintingConfig struct {
	ChromeURL string // remote devtools websocket; empty launches a local browser
	Timeout   time.Duration
}

// RazorpayConfig holds payment gateway credentials
type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
}

// Enabled reports whether Razorpay credentials are present
func (r RazorpayConfig) Enabled() bool {
	return r.KeyID != "" && r.KeySecret != ""
}

// ShiprocketConfig holds shipping aggregator configuration
type ShiprocketConfig struct {
	Email          string
	Password       string
	BaseURL        string
	WebhookToken   string
	PickupLocation string
	Strategy       string // cheapest, fastest, balanced
	MaxDays        int
	RateCacheTTL   time.Duration
	FlatRate       decimal.Decimal
}

// Enabled reports whether Shiprocket credentials are present
func (s ShiprocketConfig) Enabled() bool {
	return s.Email != "" && s.Password != ""
}

// WhatsAppConfig holds WhatsApp Cloud API configuration
type WhatsAppConfig struct {
	PhoneNumberID         string
	AccessToken           string
	AppSecret             string
	VerifyToken           string
	BaseURL               string
	APIVersion            string
	AbandonedCartTemplate string
	TemplateLanguage      string
}

// Enabled reports whether WhatsApp credentials are present
func (w WhatsAppConfig) Enabled() bool {
	return w.PhoneNumberID != "" && w.AccessToken != ""
}

// AIConfig holds the auto-responder model configuration
type AIConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int32
	Temperature     float32
	StoreInfo       string
}

// Enabled reports whether an API key is present
func (a AIConfig) Enabled() bool {
	return a.APIKey != ""
}

// AdsConfig holds Meta Conversions API configuration
type AdsConfig struct {
	MetaPixelID     string
	MetaAccessToken string
	MetaAPIVersion  string
	MetaTestCode    string
}

// Enabled reports whether conversions should be forwarded
func (a AdsConfig) Enabled() bool {
	return a.MetaPixelID != "" && a.MetaAccessToken != ""
}

// MarketplaceConfig holds pricing and settlement rules
type MarketplaceConfig struct {
	DefaultMarginPercent decimal.Decimal
	AdvancePercent       decimal.Decimal
	PaymentAttemptTTL    time.Duration
	PayoutHold           time.Duration
}

// MarketingConfig holds automation thresholds
type MarketingConfig struct {
	HumanTakeoverCooldown time.Duration
	AbandonedCartAfter    time.Duration
	AbandonedCartMaxAge   time.Duration
	CampaignConcurrency   int
	CampaignBatchSize     int
	// running campaigns without progress for this long are marked failed
	CampaignStaleAfter time.Duration
}

// Load reads configuration from an optional .env file, config.toml and
// environment variables prefixed with D2B (D2B_DATABASE_HOST -> database.host)
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("D2B")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Env:         v.GetString("app.env"),
			Port:        v.GetString("app.port"),
			PublicURL:   v.GetString("app.public_url"),
			SupportName: v.GetString("app.support_name"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           v.GetDuration("http.read_timeout"),
			WriteTimeout:          v.GetDuration("http.write_timeout"),
			IdleTimeout:           v.GetDuration("http.idle_timeout"),
			MaxBodySize:           v.GetInt64("http.max_body_size"),
			RateLimitEnabled:      v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:     v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:       v.GetDuration("http.rate_limit_window"),
			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:   v.GetDuration("http.auth_rate_limit_window"),
			CORSAllowOrigins:      v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:        v.GetStringSlice("http.trusted_proxies"),
		},
		Scheduler: SchedulerConfig{
			Enabled:               v.GetBool("scheduler.enabled"),
			AbandonedCartInterval: v.GetDuration("scheduler.abandoned_cart_interval"),
			CampaignInterval:      v.GetDuration("scheduler.campaign_interval"),
			PayoutInterval:        v.GetDuration("scheduler.payout_interval"),
			AttemptExpiryInterval: v.GetDuration("scheduler.attempt_expiry_interval"),
			JobTimeout:            v.GetDuration("scheduler.job_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			Profiling: ProfilingConfig{
				Enabled:           v.GetBool("telemetry.profiling.enabled"),
				ServerAddress:     v.GetString("telemetry.profiling.server_address"),
				ApplicationName:   v.GetString("telemetry.profiling.application_name"),
				BasicAuthUser:     v.GetString("telemetry.profiling.basic_auth_user"),
				BasicAuthPassword: v.GetString("telemetry.profiling.basic_auth_password"),
				ProfileTypes:      v.GetStringSlice("telemetry.profiling.profile_types"),
				SpanProfiles:      v.GetBool("telemetry.profiling.span_profiles"),
			},
		},
		Storage: StorageConfig{
			Enabled:        v.GetBool("storage.enabled"),
			Endpoint:       v.GetString("storage.endpoint"),
			Region:         v.GetString("storage.region"),
			Bucket:         v.GetString("storage.bucket"),
			AccessKey:      v.GetString("storage.access_key"),
			SecretKey:      v.GetString("storage.secret_key"),
			UsePathStyle:   v.GetBool("storage.use_path_style"),
			PresignExpiry:  v.GetDuration("storage.presign_expiry"),
			PublicBaseURL:  v.GetString("storage.public_base_url"),
			MaxUploadBytes: v.GetInt64("storage.max_upload_bytes"),
		},
		Printing: PrintingConfig{
			ChromeURL: v.GetString("printing.chrome_url"),
			Timeout:   v.GetDuration("printing.timeout"),
		},
		Razorpay: RazorpayConfig{
			KeyID:         v.GetString("razorpay.key_id"),
			KeySecret:     v.GetString("razorpay.key_secret"),
			WebhookSecret: v.GetString("razorpay.webhook_secret"),
			BaseURL:       v.GetString("razorpay.base_url"),
		},
		Shiprocket: ShiprocketConfig{
			Email:          v.GetString("shiprocket.email"),
			Password:       v.GetString("shiprocket.password"),
			BaseURL:        v.GetString("shiprocket.base_url"),
			WebhookToken:   v.GetString("shiprocket.webhook_token"),
			PickupLocation: v.GetString("shiprocket.pickup_location"),
			Strategy:       v.GetString("shiprocket.strategy"),
			MaxDays:        v.GetInt("shiprocket.max_days"),
			RateCacheTTL:   v.GetDuration("shiprocket.rate_cache_ttl"),
			FlatRate:       getDecimal(v, "shiprocket.flat_rate"),
		},
		WhatsApp: WhatsAppConfig{
			PhoneNumberID:         v.GetString("whatsapp.phone_number_id"),
			AccessToken:           v.GetString("whatsapp.access_token"),
			AppSecret:             v.GetString("whatsapp.app_secret"),
			VerifyToken:           v.GetString("whatsapp.verify_token"),
			BaseURL:               v.GetString("whatsapp.base_url"),
			APIVersion:            v.GetString("whatsapp.api_version"),
			AbandonedCartTemplate: v.GetString("whatsapp.abandoned_cart_template"),
			TemplateLanguage:      v.GetString("whatsapp.template_language"),
		},
		AI: AIConfig{
			APIKey:          v.GetString("ai.api_key"),
			Model:           v.GetString("ai.model"),
			MaxOutputTokens: v.GetInt32("ai.max_output_tokens"),
			Temperature:     float32(v.GetFloat64("ai.temperature")),
			StoreInfo:       v.GetString("ai.store_info"),
		},
		Ads: AdsConfig{
			MetaPixelID:     v.GetString("ads.meta_pixel_id"),
			MetaAccessToken: v.GetString("ads.meta_access_token"),
			MetaAPIVersion:  v.GetString("ads.meta_api_version"),
			MetaTestCode:    v.GetString("ads.meta_test_code"),
		},
		Marketplace: MarketplaceConfig{
			DefaultMarginPercent: getDecimal(v, "marketplace.default_margin_percent"),
			AdvancePercent:       getDecimal(v, "marketplace.advance_percent"),
			PaymentAttemptTTL:    v.GetDuration("marketplace.payment_attempt_ttl"),
			PayoutHold:           v.GetDuration("marketplace.payout_hold"),
		},
		Marketing: MarketingConfig{
			HumanTakeoverCooldown: v.GetDuration("marketing.human_takeover_cooldown"),
			AbandonedCartAfter:    v.GetDuration("marketing.abandoned_cart_after"),
			AbandonedCartMaxAge:   v.GetDuration("marketing.abandoned_cart_max_age"),
			CampaignConcurrency:   v.GetInt("marketing.campaign_concurrency"),
			CampaignBatchSize:     v.GetInt("marketing.campaign_batch_size"),
			CampaignStaleAfter:    v.GetDuration("marketing.campaign_stale_after"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getDecimal reads a decimal setting; unparsable values read as zero and are
// then replaced by defaults
func getDecimal(v *viper.Viper, key string) decimal.Decimal {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "d2bcart"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.PublicURL == "" {
		cfg.App.PublicURL = "http://localhost:3000"
	}
	if cfg.App.SupportName == "" {
		cfg.App.SupportName = "D2BCart"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "d2bcart"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 30 * time.Minute
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 30 * 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "d2bcart"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.IsProduction() {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 120
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 10
	}
	if cfg.HTTP.AuthRateLimitWindow == 0 {
		cfg.HTTP.AuthRateLimitWindow = time.Minute
	}
	if cfg.Scheduler.AbandonedCartInterval == 0 {
		cfg.Scheduler.AbandonedCartInterval = 15 * time.Minute
	}
	if cfg.Scheduler.CampaignInterval == 0 {
		cfg.Scheduler.CampaignInterval = time.Minute
	}
	if cfg.Scheduler.PayoutInterval == 0 {
		cfg.Scheduler.PayoutInterval = time.Hour
	}
	if cfg.Scheduler.AttemptExpiryInterval == 0 {
		cfg.Scheduler.AttemptExpiryInterval = 30 * time.Minute
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "d2bcart"
	}
	if cfg.Telemetry.Profiling.ServerAddress == "" {
		cfg.Telemetry.Profiling.ServerAddress = "http://localhost:4040"
	}
	if cfg.Telemetry.Profiling.ApplicationName == "" {
		cfg.Telemetry.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) == 0 {
		cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "ap-south-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "d2bcart"
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = 15 * time.Minute
	}
	if cfg.Storage.MaxUploadBytes == 0 {
		cfg.Storage.MaxUploadBytes = 5 << 20
	}
	if cfg.Printing.Timeout == 0 {
		cfg.Printing.Timeout = 60 * time.Second
	}
	if cfg.Razorpay.BaseURL == "" {
		cfg.Razorpay.BaseURL = "https://api.razorpay.com/v1"
	}
	if cfg.Shiprocket.BaseURL == "" {
		cfg.Shiprocket.BaseURL = "https://apiv2.shiprocket.in/v1/external"
	}
	if cfg.Shiprocket.PickupLocation == "" {
		cfg.Shiprocket.PickupLocation = "Primary"
	}
	if cfg.Shiprocket.Strategy == "" {
		cfg.Shiprocket.Strategy = "cheapest"
	}
	if cfg.Shiprocket.MaxDays == 0 {
		cfg.Shiprocket.MaxDays = 7
	}
	if cfg.Shiprocket.RateCacheTTL == 0 {
		cfg.Shiprocket.RateCacheTTL = 30 * time.Minute
	}
	if cfg.Shiprocket.FlatRate.IsZero() {
		cfg.Shiprocket.FlatRate = decimal.NewFromInt(99)
	}
	if cfg.WhatsApp.BaseURL == "" {
		cfg.WhatsApp.BaseURL = "https://graph.facebook.com"
	}
	if cfg.WhatsApp.APIVersion == "" {
		cfg.WhatsApp.APIVersion = "v21.0"
	}
	if cfg.WhatsApp.AbandonedCartTemplate == "" {
		cfg.WhatsApp.AbandonedCartTemplate = "abandoned_cart_reminder"
	}
	if cfg.WhatsApp.TemplateLanguage == "" {
		cfg.WhatsApp.TemplateLanguage = "en"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.0-flash"
	}
	if cfg.AI.MaxOutputTokens == 0 {
		cfg.AI.MaxOutputTokens = 300
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.4
	}
	if cfg.Ads.MetaAPIVersion == "" {
		cfg.Ads.MetaAPIVersion = "v21.0"
	}
	if cfg.Marketplace.DefaultMarginPercent.IsZero() {
		cfg.Marketplace.DefaultMarginPercent = decimal.NewFromInt(10)
	}
	if cfg.Marketplace.AdvancePercent.IsZero() {
		cfg.Marketplace.AdvancePercent = decimal.NewFromInt(20)
	}
	if cfg.Marketplace.PaymentAttemptTTL == 0 {
		cfg.Marketplace.PaymentAttemptTTL = 24 * time.Hour
	}
	if cfg.Marketplace.PayoutHold == 0 {
		cfg.Marketplace.PayoutHold = 7 * 24 * time.Hour
	}
	if cfg.Marketing.HumanTakeoverCooldown == 0 {
		cfg.Marketing.HumanTakeoverCooldown = 30 * time.Minute
	}
	if cfg.Marketing.AbandonedCartAfter == 0 {
		cfg.Marketing.AbandonedCartAfter = 2 * time.Hour
	}
	if cfg.Marketing.AbandonedCartMaxAge == 0 {
		cfg.Marketing.AbandonedCartMaxAge = 7 * 24 * time.Hour
	}
	if cfg.Marketing.CampaignConcurrency == 0 {
		cfg.Marketing.CampaignConcurrency = 5
	}
	if cfg.Marketing.CampaignBatchSize == 0 {
		cfg.Marketing.CampaignBatchSize = 200
	}
	if cfg.Marketing.CampaignStaleAfter == 0 {
		cfg.Marketing.CampaignStaleAfter = 30 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	hundred := decimal.NewFromInt(100)
	if c.Marketplace.AdvancePercent.IsNegative() || c.Marketplace.AdvancePercent.GreaterThan(hundred) {
		return fmt.Errorf("marketplace.advance_percent must be between 0 and 100")
	}
	if c.Marketplace.DefaultMarginPercent.IsNegative() {
		return fmt.Errorf("marketplace.default_margin_percent cannot be negative")
	}

	if c.App.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Razorpay.Enabled() && c.Razorpay.WebhookSecret == "" {
			return fmt.Errorf("razorpay.webhook_secret is required when razorpay is enabled in production")
		}
		if c.WhatsApp.Enabled() && (c.WhatsApp.AppSecret == "" || c.WhatsApp.VerifyToken == "") {
			return fmt.Errorf("whatsapp.app_secret and whatsapp.verify_token are required when whatsapp is enabled in production")
		}
		if c.Shiprocket.Enabled() && c.Shiprocket.WebhookToken == "" {
			return fmt.Errorf("shiprocket.webhook_token is required when shiprocket is enabled in production")
		}
	} else if c.JWT.Secret == "" {
		c.JWT.Secret = "development-only-secret-change-me-please"
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
