package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" toml:"port"`
	} `yaml:"server" toml:"server"`
	Log struct {
		Level  string `yaml:"level" toml:"level"`
		Format string `yaml:"format" toml:"format"`
	} `yaml:"log" toml:"log"`
	Redis struct {
		Addr     string `yaml:"addr" toml:"addr"`
		Password string `yaml:"password" toml:"password"`
		DB       int    `yaml:"db" toml:"db"`
		TTL      string `yaml:"ttl" toml:"ttl"`
	} `yaml:"redis" toml:"redis"`
	Postgres struct {
		URL string `yaml:"url" toml:"url"`
	} `yaml:"postgres" toml:"postgres"`
	SQLite struct {
		Path string `yaml:"path" toml:"path"`
	} `yaml:"sqlite" toml:"sqlite"`
	Quiz struct {
		// Dictionary is an optional YAML dictionary replacing the builtin hiragana set.
		Dictionary string `yaml:"dictionary" toml:"dictionary"`
	} `yaml:"quiz" toml:"quiz"`
	Stats struct {
		CacheTTL string `yaml:"cache_ttl" toml:"cache_ttl"`
	} `yaml:"stats" toml:"stats"`
}

// Load reads config from path. Files ending in .toml are decoded as TOML,
// everything else as YAML.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("decode toml config: %w", err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode yaml config: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
