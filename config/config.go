package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Gemini struct {
		ApiKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	Openai struct {
		GptApiKey string `yaml:"gptApiKey"`
		Model     string `yaml:"model"`
	} `yaml:"openai"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
		Expiry int    `yaml:"expiry"` // token expiry in minutes
	} `yaml:"jwt"`

	Sync struct {
		PollIntervalSeconds int `yaml:"pollIntervalSeconds"`
	} `yaml:"sync"`

	Inference struct {
		MaxAttempts    int `yaml:"maxAttempts"`
		BaseDelayMs    int `yaml:"baseDelayMs"`
		TimeoutSeconds int `yaml:"timeoutSeconds"`
	} `yaml:"inference"`
}

// LoadConfig reads the configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	return &cfg, nil
}

// PollInterval returns the session poll interval, defaulting to 3
// seconds. The HTTP server itself never polls; this is consumed by
// embedders constructing a SessionSync for a participant session.
func (c *Config) PollInterval() time.Duration {
	if c.Sync.PollIntervalSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Sync.PollIntervalSeconds) * time.Second
}
