package configs

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// StudioConfig configures the briefspark studio process.
type StudioConfig struct {
	ListenAddr    string
	GeminiBaseURL string
	GeminiAPIKey  string
	TextModel     string
	ImageModel    string
	// ProxyURL, when set, routes image generation through the image proxy
	// instead of calling the provider with the studio's key.
	ProxyURL    string
	MaxAttempts int
}

// ProxyConfig configures the image proxy process.
type ProxyConfig struct {
	ListenAddr    string
	GeminiBaseURL string
	ImageModel    string
	// CredentialParam names an SSM parameter holding the upstream
	// credential. When empty the credential comes from CredentialEnv.
	CredentialParam string
	CredentialEnv   string
	MaxAttempts     int
}

// LoadStudio reads studio settings from .env and the environment.
func LoadStudio() (*StudioConfig, error) {
	loadDotenv()

	cfg := &StudioConfig{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		TextModel:     getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		ImageModel:    getEnv("GEMINI_IMAGE_MODEL", "imagen-3.0-generate-002"),
		ProxyURL:      getEnv("IMAGE_PROXY_URL", ""),
		MaxAttempts:   getEnvAsInt("FETCH_MAX_ATTEMPTS", 0),
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return cfg, nil
}

// LoadProxy reads proxy settings from .env and the environment.
func LoadProxy() (*ProxyConfig, error) {
	loadDotenv()

	cfg := &ProxyConfig{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8081"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", ""),
		ImageModel:      getEnv("GEMINI_IMAGE_MODEL", "imagen-3.0-generate-002"),
		CredentialParam: getEnv("CREDENTIAL_PARAM", ""),
		CredentialEnv:   getEnv("CREDENTIAL_ENV", "GEMINI_API_KEY"),
		MaxAttempts:     getEnvAsInt("FETCH_MAX_ATTEMPTS", 0),
	}
	if cfg.CredentialParam == "" && cfg.CredentialEnv == "" {
		return nil, fmt.Errorf("one of CREDENTIAL_PARAM or CREDENTIAL_ENV is required")
	}
	return cfg, nil
}

func loadDotenv() {
	// a missing .env is fine; real deployments use plain env vars
	_ = godotenv.Load()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
