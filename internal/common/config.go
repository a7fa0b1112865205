package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ExecutionIDPlaceholder is the token in the poll URL template that gets
// substituted with the execution id of an in-flight moderation job.
const ExecutionIDPlaceholder = "{execution_id}"

// Config holds all application configuration
type Config struct {
	API        APIConfig
	Moderation ModerationConfig
	Batch      BatchConfig
}

// APIConfig holds the moderation API endpoints and credentials
type APIConfig struct {
	APIKey          string
	SubmitURL       string
	PollURL         string // template containing ExecutionIDPlaceholder
	PollInterval    time.Duration
	MaxPollAttempts int // 0 means poll until a terminal status
	Timeout         time.Duration
}

// ModerationConfig holds result-classification settings
type ModerationConfig struct {
	RejectionThreshold float64
}

// BatchConfig holds batch-run settings
type BatchConfig struct {
	OutputPath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		API: APIConfig{
			APIKey:          getEnv("API_KEY", ""),
			SubmitURL:       getEnv("API_URL_POST", ""),
			PollURL:         getEnv("API_URL_GET", ""),
			PollInterval:    getEnvAsDuration("POLL_INTERVAL", 5*time.Second),
			MaxPollAttempts: getEnvAsInt("MAX_POLL_ATTEMPTS", 0),
			Timeout:         getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		},
		Moderation: ModerationConfig{
			RejectionThreshold: getEnvAsFloat64("REJECTION_THRESHOLD", 0.2),
		},
		Batch: BatchConfig{
			OutputPath: getEnv("OUTPUT_PATH", "SyntheticDataResult.xlsx"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.API.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "API_KEY is required", ErrInvalidInput)
	}
	if c.API.SubmitURL == "" {
		return NewAppError("CONFIG_ERROR", "API_URL_POST is required", ErrInvalidInput)
	}
	if c.API.PollURL == "" {
		return NewAppError("CONFIG_ERROR", "API_URL_GET is required", ErrInvalidInput)
	}
	if !strings.Contains(c.API.PollURL, ExecutionIDPlaceholder) {
		return NewAppError("CONFIG_ERROR", "API_URL_GET must contain "+ExecutionIDPlaceholder, ErrInvalidInput)
	}
	if t := c.Moderation.RejectionThreshold; t < 0 || t > 1 {
		return NewAppError("CONFIG_ERROR", "REJECTION_THRESHOLD must be within [0,1]", ErrInvalidInput)
	}
	return nil
}
