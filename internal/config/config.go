package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type ProjectConfig struct {
	Project   string          `yaml:"project" env:"PROJECT"`
	Version   int             `yaml:"version"`
	Generator GeneratorConfig `yaml:"generator" envPrefix:"GENERATOR_"`
	Archive   ArchiveConfig   `yaml:"archive" envPrefix:"ARCHIVE_"`
	Feed      FeedConfig      `yaml:"feed" envPrefix:"FEED_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

type GeneratorConfig struct {
	Provider string        `yaml:"provider" env:"PROVIDER"`
	Latency  time.Duration `yaml:"latency" env:"LATENCY"`
	Catalog  string        `yaml:"catalog" env:"CATALOG"`
}

type ArchiveConfig struct {
	DSN string `yaml:"dsn" env:"DSN"`
}

type FeedConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// EnvPrefix namespaces the environment overrides, e.g. WORLDFORGE_ARCHIVE_DSN.
const EnvPrefix = "WORLDFORGE_"

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("loading project config: parse env: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if strings.TrimSpace(cfg.Generator.Provider) == "" {
		cfg.Generator.Provider = "mock"
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	if strings.TrimSpace(cfg.Log.Format) == "" {
		cfg.Log.Format = "text"
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if cfg.Generator.Latency < 0 {
		return fmt.Errorf("generator latency must not be negative")
	}
	dsn := strings.TrimSpace(cfg.Archive.DSN)
	if dsn != "" && !strings.HasPrefix(dsn, "sqlite://") && !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Errorf("archive dsn must start with sqlite:// or postgres://")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Log.Format)
	}
	return nil
}
