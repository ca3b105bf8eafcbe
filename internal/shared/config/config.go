package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ot-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is honored.
	// Empty means the socket peer is the client.
	TrustedProxies []string

	LLMProvider   string
	LLMModel      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	LLMTimeout    time.Duration
	LLMCacheSize  int

	AnalyzeRate  float64
	AnalyzeBurst int
	SoapRate     float64
	SoapBurst    int

	// PillarNames overrides the default pillar name map, e.g. "1=physical,2=cognitive".
	PillarNames string

	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"PORT":                     "8080",
	"ENV":                      "dev",
	"CORS_ALLOW_ORIGINS":       "http://localhost:5173",
	"TRUSTED_PROXIES":          "",
	"LLM_PROVIDER":             "openai",
	"OPENAI_BASE_URL":          "",
	"LLM_TIMEOUT":              "60s",
	"LLM_CACHE_SIZE":           0,
	"RATE_LIMIT_ANALYZE_RPS":   0.2,
	"RATE_LIMIT_ANALYZE_BURST": 3,
	"RATE_LIMIT_SOAP_RPS":      0.5,
	"RATE_LIMIT_SOAP_BURST":    5,
	"PILLAR_NAMES":             "",
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "json",
}

// Load reads configuration from the environment, an optional CONFIG_FILE and
// local .env files, in that order of precedence.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			telemetry.Warn("config.file_unreadable", map[string]any{"path": path, "error": err})
		}
	}

	return fromViper(v)
}

// defaultModels is the model used per provider when LLM_MODEL is unset.
var defaultModels = map[string]string{
	"openai": "gpt-4o-mini",
	"gemini": "gemini-2.5-flash",
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[NormalizeProvider(provider)]
}

func fromViper(v *viper.Viper) Config {
	provider := NormalizeProvider(v.GetString("LLM_PROVIDER"))
	model := strings.TrimSpace(v.GetString("LLM_MODEL"))
	if model == "" {
		model = defaultModels[provider]
	}
	timeout := v.GetDuration("LLM_TIMEOUT")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cacheSize := v.GetInt("LLM_CACHE_SIZE")
	if cacheSize < 0 {
		cacheSize = 0
	}

	return Config{
		Port:            v.GetString("PORT"),
		Env:             normalizeEnv(v.GetString("ENV")),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		TrustedProxies:  splitAndTrim(v.GetString("TRUSTED_PROXIES")),
		LLMProvider:     provider,
		LLMModel:        model,
		OpenAIAPIKey:    strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		OpenAIBaseURL:   strings.TrimSpace(v.GetString("OPENAI_BASE_URL")),
		GeminiAPIKey:    strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		LLMTimeout:      timeout,
		LLMCacheSize:    cacheSize,
		AnalyzeRate:     v.GetFloat64("RATE_LIMIT_ANALYZE_RPS"),
		AnalyzeBurst:    v.GetInt("RATE_LIMIT_ANALYZE_BURST"),
		SoapRate:        v.GetFloat64("RATE_LIMIT_SOAP_RPS"),
		SoapBurst:       v.GetInt("RATE_LIMIT_SOAP_BURST"),
		PillarNames:     strings.TrimSpace(v.GetString("PILLAR_NAMES")),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
	}
}

// IsDevLike reports whether env tolerates missing provider credentials.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

// NormalizeProvider maps a provider name to "openai" or "gemini".
func NormalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	default:
		return "openai"
	}
}
