package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	State struct {
		Path string `yaml:"path"`
	} `yaml:"state"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Gemini struct {
		APIKey     string `yaml:"api_key"`
		BaseURL    string `yaml:"base_url"`
		TextModel  string `yaml:"text_model"`
		ImageModel string `yaml:"image_model"`
		ProModel   string `yaml:"pro_model"`
		Timeout    string `yaml:"timeout"`
		Retry      struct {
			MaxAttempts  int     `yaml:"max_attempts"`
			InitialDelay string  `yaml:"initial_delay"`
			Multiplier   float64 `yaml:"multiplier"`
		} `yaml:"retry"`
	} `yaml:"gemini"`
	Payment struct {
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		SiteID   string `yaml:"site_id"`
		Currency string `yaml:"currency"`
	} `yaml:"payment"`
	Content struct {
		TTL string `yaml:"ttl"`
	} `yaml:"content"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
