package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Store  StoreConfig
	CORS   CORSConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Store:  loadStoreConfig(),
		CORS:   loadCORSConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5003"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":5003" or "127.0.0.1:5003" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the local model backend.
type AIConfig struct {
	BaseURL string
	Model   string
	// Timeout bounds one full generation, connect included.
	Timeout time.Duration
}

func loadAIConfig() (AIConfig, error) {
	timeoutSeconds := 120
	if override, err := parseOptionalIntEnv("OLLAMA_TIMEOUT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("OLLAMA_TIMEOUT must be at least 1 second, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return AIConfig{
		BaseURL: getEnvOrDefault("OLLAMA_BASE_URL", "http://127.0.0.1:11434"),
		Model:   getEnvOrDefault("OLLAMA_MODEL", "llama3.1"),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// StoreConfig describes persistence. An empty DatabaseURL selects the
// in-memory store.
type StoreConfig struct {
	DatabaseURL string
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL"))}
}

// CORSConfig lists the origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

func loadCORSConfig() CORSConfig {
	raw := getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")

	origins := make([]string, 0, 4)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return CORSConfig{AllowedOrigins: origins}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
