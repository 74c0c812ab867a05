package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	// Copy (text) provider: an OpenAI-compatible chat-completions endpoint.
	CopyAPIToken string
	CopyModel    string
	CopyBaseURL  string

	// Image provider: an inference endpoint returning raw image bytes.
	ImageAPIToken string
	ImageModel    string
	ImageBaseURL  string

	// Video provider: submit + poll + download.
	VideoAPIKey  string
	VideoModel   string
	VideoBaseURL string

	// Media sink. When S3Bucket is empty the local file store under
	// StoragePath is used instead.
	S3Bucket     string
	S3Region     string
	MediaBaseURL string
	StoragePath  string

	StripeAPIKey        string
	StripeWebhookSecret string
	StripePriceID       string

	GeoIPDBPath     string
	DefaultLocale   string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	HTTPReadTimeout time.Duration
	// Write timeout must cover the synchronous video path, which can poll
	// upstream for several minutes.
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// Load reads configuration from environment variables and applies defaults
// where needed.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		CopyAPIToken: os.Getenv("COPY_API_TOKEN"),
		CopyModel:    getEnv("COPY_MODEL", "Qwen/Qwen2.5-72B-Instruct"),
		CopyBaseURL:  getEnv("COPY_BASE_URL", "https://router.huggingface.co/v1"),

		ImageAPIToken: os.Getenv("IMAGE_API_TOKEN"),
		ImageModel:    getEnv("IMAGE_MODEL", "stabilityai/stable-diffusion-xl-base-1.0"),
		ImageBaseURL:  getEnv("IMAGE_BASE_URL", "https://router.huggingface.co/hf-inference/models"),

		VideoAPIKey:  os.Getenv("VIDEO_API_KEY"),
		VideoModel:   getEnv("VIDEO_MODEL", "veo3-fast"),
		VideoBaseURL: getEnv("VIDEO_BASE_URL", "https://veo3api.com"),

		S3Bucket:     os.Getenv("S3_BUCKET"),
		S3Region:     getEnv("S3_REGION", "us-east-1"),
		MediaBaseURL: os.Getenv("MEDIA_BASE_URL"),
		StoragePath:  getEnv("STORAGE_PATH", "./storage"),

		StripeAPIKey:        os.Getenv("STRIPE_API_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID"),

		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		MaxUploadBytes:   getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 360)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
