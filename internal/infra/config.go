package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	WorkRoot           string
	PublicBasePath     string
	FFmpegPath         string
	FetchTimeout       time.Duration
	EncodeTimeout      time.Duration
	MaxDownloadBytes   int64
	MaxSlideDuration   float64
	MaxSlides          int
	ArtifactTTL        time.Duration
	CleanupSchedule    string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	ElevenLabsAPIKey   string
	ElevenLabsBaseURL  string
	ElevenLabsModel    string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		WorkRoot:           getEnv("WORK_ROOT", "./tmp"),
		PublicBasePath:     strings.TrimRight(os.Getenv("PUBLIC_BASE_PATH"), "/"),
		FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		FetchTimeout:       time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)),
		EncodeTimeout:      time.Second * time.Duration(getEnvInt("ENCODE_TIMEOUT_SECONDS", 300)),
		MaxDownloadBytes:   int64(getEnvInt("MAX_DOWNLOAD_BYTES", 50<<20)),
		MaxSlideDuration:   float64(getEnvInt("MAX_SLIDE_DURATION_SECONDS", 60)),
		MaxSlides:          getEnvInt("MAX_SLIDES", 40),
		ArtifactTTL:        time.Minute * time.Duration(getEnvInt("ARTIFACT_TTL_MINUTES", 60)),
		CleanupSchedule:    getEnv("CLEANUP_SCHEDULE", "@every 15m"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		ElevenLabsAPIKey:   os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsBaseURL:  getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1"),
		ElevenLabsModel:    getEnv("ELEVENLABS_MODEL", "eleven_monolingual_v1"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 600)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if strings.TrimSpace(cfg.WorkRoot) == "" {
		return nil, fmt.Errorf("WORK_ROOT is required")
	}
	if cfg.FetchTimeout <= 0 || cfg.EncodeTimeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT_SECONDS and ENCODE_TIMEOUT_SECONDS must be positive")
	}
	if cfg.MaxSlides <= 0 {
		return nil, fmt.Errorf("MAX_SLIDES must be positive")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
