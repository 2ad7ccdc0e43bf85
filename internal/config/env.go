package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables recognized as endpoint overrides. The LLM names
// match what Ollama tooling conventionally exports.
const (
	EnvEngineURL  = "ENGINE_API_BASE_URL"
	EnvFlowiseURL = "FLOWISE_ENDPOINT"
	EnvLLMURL     = "LLM_API_BASE_URL"
	EnvOllamaHost = "OLLAMA_HOST"
)

// loadEnvFiles loads .env / .env.local if present. Existing process
// environment variables are never overwritten.
func loadEnvFiles() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// godotenv.Load does not override existing variables.
		_ = godotenv.Load(path)
	}
}

// applyEnvOverrides lets deployment environments re-point the external
// services without touching the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvEngineURL); v != "" {
		cfg.Services.Engine.BaseURL = v
	}
	if v := os.Getenv(EnvFlowiseURL); v != "" {
		cfg.Services.Flowise.BaseURL = v
	}
	if v := os.Getenv(EnvLLMURL); v != "" {
		cfg.Services.LLM.BaseURL = v
	} else if v := os.Getenv(EnvOllamaHost); v != "" {
		cfg.Services.LLM.BaseURL = v
	}
}
