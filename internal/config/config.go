package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults.
const (
	DefaultMaxSourceBytes = 1 << 20
	DefaultCacheSize      = 256
	DefaultListenAddr     = ":8080"
	DefaultLogLevel       = "info"
)

// Config holds settings loaded from flowchart.yml and the environment.
type Config struct {
	MaxSourceBytes int64    `yaml:"maxSourceBytes,omitempty"`
	MaxDepth       int      `yaml:"maxDepth,omitempty"`
	CacheSize      int      `yaml:"cacheSize,omitempty"`
	StorePath      string   `yaml:"storePath,omitempty"`
	ListenAddr     string   `yaml:"listenAddr,omitempty"`
	LogLevel       string   `yaml:"logLevel,omitempty"`
	Workers        int      `yaml:"workers,omitempty"`
	ExcludeDirs    []string `yaml:"excludeDirs,omitempty"`
}

// Load reads flowchart.yml or flowchart.yaml from dir, then applies
// FLOWCHART_* environment overrides, reading dir/.env first when present.
// A missing config file yields a zero-value config, not an error.
func Load(dir string) (*Config, error) {
	var cfg Config
	for _, name := range []string{"flowchart.yml", "flowchart.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		break
	}

	_ = godotenv.Load(filepath.Join(dir, ".env"))
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := env("FLOWCHART_MAX_SOURCE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FLOWCHART_MAX_SOURCE_BYTES: %w", err)
		}
		c.MaxSourceBytes = n
	}
	for key, dst := range map[string]*int{
		"FLOWCHART_MAX_DEPTH":  &c.MaxDepth,
		"FLOWCHART_CACHE_SIZE": &c.CacheSize,
		"FLOWCHART_WORKERS":    &c.Workers,
	} {
		v := env(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	c.StorePath = firstNonEmpty(env("FLOWCHART_STORE_PATH"), c.StorePath)
	c.ListenAddr = firstNonEmpty(env("FLOWCHART_LISTEN_ADDR"), c.ListenAddr)
	c.LogLevel = firstNonEmpty(env("FLOWCHART_LOG_LEVEL"), c.LogLevel)
	if v := env("FLOWCHART_EXCLUDE_DIRS"); v != "" {
		c.ExcludeDirs = nil
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				c.ExcludeDirs = append(c.ExcludeDirs, d)
			}
		}
	}
	return nil
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
// MaxDepth stays zero, which the front ends read as flow.DefaultMaxDepth;
// StorePath stays empty, which selects the in-memory store.
func (c Config) WithDefaults() Config {
	if c.MaxSourceBytes <= 0 {
		c.MaxSourceBytes = DefaultMaxSourceBytes
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ExcludeDirs == nil {
		c.ExcludeDirs = []string{".git", "node_modules", "bin", "obj", "__pycache__", ".venv"}
	}
	return c
}

// Write saves c as YAML to path. Zero fields are omitted.
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
