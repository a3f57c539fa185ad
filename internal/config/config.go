package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName          = "TamweelWaitlist"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultSignedURLTTL     = 3600 * time.Second
	defaultSessionTTL       = 24 * time.Hour
	defaultMaxUploadBytes   = 10 << 20
	defaultRasterMaxPages   = 3
	defaultRasterScale      = 2.0
	defaultRasterQuality    = 90
	defaultGeminiModel      = "gemini-1.5-pro"
	defaultCountryCode      = "+966"
	defaultNotifier         = "log"
	defaultSMTPPort         = 587
	defaultAMQPExchange     = "waitlist.events"
	defaultMinioBucket      = "document-uploads"
	defaultAnalyticsWindow  = time.Second
	defaultSubmitRateLimit  = 5
	defaultMaxTrackedUpload = 1000
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	SessionTTL     time.Duration

	Minio     MinioConfig
	Uploads   UploadConfig
	Analysis  AnalysisConfig
	Waitlist  WaitlistConfig
	Notifier  NotifierConfig
	Analytics AnalyticsConfig
}

// MinioConfig configures blob storage for uploaded documents.
type MinioConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UseSSL       bool
	SignedURLTTL time.Duration
}

// UploadConfig bounds the document upload pipeline.
type UploadConfig struct {
	MaxBytes       int64
	RasterMaxPages int
	RasterScale    float64
	RasterQuality  int
	MaxTracked     int
}

// AnalysisConfig selects how documents are analysed. When RemoteURL is set
// requests are forwarded there, otherwise the in-process analyser is used.
type AnalysisConfig struct {
	RemoteURL     string
	GeminiAPIKeys []string
	GeminiModel   string
}

// WaitlistConfig holds submission flow settings.
type WaitlistConfig struct {
	CountryCode     string
	SubmitRateLimit int
}

// NotifierConfig selects where trigger notifications go.
type NotifierConfig struct {
	Kind         string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	AMQPURL      string
	AMQPExchange string
}

// AnalyticsConfig configures event coalescing.
type AnalyticsConfig struct {
	DebounceWindow time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", defaultMinioBucket),
		},
		Analysis: AnalysisConfig{
			RemoteURL:     os.Getenv("ANALYSIS_URL"),
			GeminiAPIKeys: splitList(os.Getenv("GEMINI_API_KEYS")),
			GeminiModel:   getEnv("GEMINI_MODEL", defaultGeminiModel),
		},
		Waitlist: WaitlistConfig{
			CountryCode: getEnv("PHONE_COUNTRY_CODE", defaultCountryCode),
		},
		Notifier: NotifierConfig{
			Kind:         strings.ToLower(getEnv("NOTIFIER", defaultNotifier)),
			SMTPHost:     os.Getenv("SMTP_HOST"),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			SMTPFrom:     os.Getenv("SMTP_FROM"),
			AMQPURL:      os.Getenv("AMQP_URL"),
			AMQPExchange: getEnv("AMQP_EXCHANGE", defaultAMQPExchange),
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationFromEnv("SESSION_TTL_SECONDS", "SESSION_TTL", defaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.Minio.SignedURLTTL, err = durationFromEnv("SIGNED_URL_TTL_SECONDS", "SIGNED_URL_TTL", defaultSignedURLTTL); err != nil {
		return Config{}, err
	}
	if cfg.Analytics.DebounceWindow, err = durationFromEnv("ANALYTICS_DEBOUNCE_MS", "ANALYTICS_DEBOUNCE", defaultAnalyticsWindow); err != nil {
		return Config{}, err
	}
	if cfg.Minio.UseSSL, err = boolFromEnv("MINIO_USE_SSL", false); err != nil {
		return Config{}, err
	}

	maxBytes, err := intFromEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.Uploads.MaxBytes = int64(maxBytes)
	if cfg.Uploads.RasterMaxPages, err = intFromEnv("RASTER_MAX_PAGES", defaultRasterMaxPages); err != nil {
		return Config{}, err
	}
	if cfg.Uploads.MaxTracked, err = intFromEnv("MAX_TRACKED_UPLOADS", defaultMaxTrackedUpload); err != nil {
		return Config{}, err
	}
	cfg.Uploads.RasterScale = defaultRasterScale
	if v := os.Getenv("RASTER_SCALE"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			return Config{}, fmt.Errorf("invalid RASTER_SCALE: %q", v)
		}
		cfg.Uploads.RasterScale = scale
	}
	if cfg.Uploads.RasterQuality, err = intFromEnv("RASTER_JPEG_QUALITY", defaultRasterQuality); err != nil {
		return Config{}, err
	}
	if cfg.Uploads.RasterQuality < 1 || cfg.Uploads.RasterQuality > 100 {
		return Config{}, fmt.Errorf("invalid RASTER_JPEG_QUALITY: %d", cfg.Uploads.RasterQuality)
	}
	if cfg.Waitlist.SubmitRateLimit, err = intFromEnv("SUBMIT_RATE_LIMIT", defaultSubmitRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.Notifier.SMTPPort, err = intFromEnv("SMTP_PORT", defaultSMTPPort); err != nil {
		return Config{}, err
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
		if cfg.Minio.Endpoint == "" {
			return Config{}, fmt.Errorf("MINIO_ENDPOINT must be set")
		}
	}

	switch cfg.Notifier.Kind {
	case "log":
	case "smtp":
		if cfg.Notifier.SMTPHost == "" || cfg.Notifier.SMTPFrom == "" {
			return Config{}, fmt.Errorf("SMTP_HOST and SMTP_FROM must be set when NOTIFIER=smtp")
		}
	case "amqp":
		if cfg.Notifier.AMQPURL == "" {
			return Config{}, fmt.Errorf("AMQP_URL must be set when NOTIFIER=amqp")
		}
	default:
		return Config{}, fmt.Errorf("invalid NOTIFIER: %q", cfg.Notifier.Kind)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service may run on in-memory backends.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationFromEnv prefers an integer seconds variable (or milliseconds when the
// name ends in _MS) and falls back to a Go duration string.
func durationFromEnv(numericKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(numericKey); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", numericKey, err)
		}
		unit := time.Second
		if strings.HasSuffix(numericKey, "_MS") {
			unit = time.Millisecond
		}
		return time.Duration(n) * unit, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
