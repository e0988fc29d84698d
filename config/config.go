// Package config manages pool configuration loading and validation.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BreakerSettings describes circuit breaker behaviour for a pool.
type BreakerSettings struct {
	Enabled      bool          `yaml:"enabled"`
	Threshold    int           `yaml:"threshold"`
	ResetTimeout time.Duration `yaml:"resetTimeout"`
}

// Settings contains the immutable configuration for a single pool. Pools copy
// the value at construction; callers must not rely on later mutation.
type Settings struct {
	Name             string          `yaml:"name"`
	MaxPoolSize      int             `yaml:"maxPoolSize"`
	MaxActiveObjects int             `yaml:"maxActiveObjects"`
	GetTimeout       time.Duration   `yaml:"getTimeout"`
	TTL              time.Duration   `yaml:"ttl"`
	IdleTimeout      time.Duration   `yaml:"idleTimeout"`
	WarmupSize       int             `yaml:"warmupSize"`
	Breaker          BreakerSettings `yaml:"breaker"`
}

// duration decodes YAML scalars given either as Go duration strings ("90s",
// "5m") or as raw nanosecond integers.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var nanos int64
	if err := node.Decode(&nanos); err == nil {
		*d = duration(nanos)
		return nil
	}
	var text string
	if err := node.Decode(&text); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	*d = duration(parsed)
	return nil
}

// UnmarshalYAML decodes breaker settings, accepting human-readable duration
// strings. Absent fields keep their current values.
func (b *BreakerSettings) UnmarshalYAML(node *yaml.Node) error {
	type alias struct {
		Enabled      *bool     `yaml:"enabled"`
		Threshold    *int      `yaml:"threshold"`
		ResetTimeout *duration `yaml:"resetTimeout"`
	}
	var raw alias
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Enabled != nil {
		b.Enabled = *raw.Enabled
	}
	if raw.Threshold != nil {
		b.Threshold = *raw.Threshold
	}
	if raw.ResetTimeout != nil {
		b.ResetTimeout = time.Duration(*raw.ResetTimeout)
	}
	return nil
}

// UnmarshalYAML decodes pool settings, accepting human-readable duration
// strings. Absent fields keep their current values.
func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	type alias struct {
		Name             *string          `yaml:"name"`
		MaxPoolSize      *int             `yaml:"maxPoolSize"`
		MaxActiveObjects *int             `yaml:"maxActiveObjects"`
		GetTimeout       *duration        `yaml:"getTimeout"`
		TTL              *duration        `yaml:"ttl"`
		IdleTimeout      *duration        `yaml:"idleTimeout"`
		WarmupSize       *int             `yaml:"warmupSize"`
		Breaker          *BreakerSettings `yaml:"breaker"`
	}
	raw := alias{Breaker: &s.Breaker}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Name != nil {
		s.Name = *raw.Name
	}
	if raw.MaxPoolSize != nil {
		s.MaxPoolSize = *raw.MaxPoolSize
	}
	if raw.MaxActiveObjects != nil {
		s.MaxActiveObjects = *raw.MaxActiveObjects
	}
	if raw.GetTimeout != nil {
		s.GetTimeout = time.Duration(*raw.GetTimeout)
	}
	if raw.TTL != nil {
		s.TTL = time.Duration(*raw.TTL)
	}
	if raw.IdleTimeout != nil {
		s.IdleTimeout = time.Duration(*raw.IdleTimeout)
	}
	if raw.WarmupSize != nil {
		s.WarmupSize = *raw.WarmupSize
	}
	return nil
}

// Default returns the baseline pool configuration.
func Default() Settings {
	return Settings{
		Name:             "pool",
		MaxPoolSize:      100,
		MaxActiveObjects: 0,
		GetTimeout:       30 * time.Second,
		TTL:              0,
		IdleTimeout:      0,
		WarmupSize:       0,
		Breaker: BreakerSettings{
			Enabled:      false,
			Threshold:    5,
			ResetTimeout: 60 * time.Second,
		},
	}
}

// Load reads and validates Settings from the provided YAML file. Absent fields
// fall back to Default values.
func Load(configPath string) (Settings, error) {
	reader, closer, err := openConfigFile(configPath)
	if err != nil {
		return Settings{}, err
	}
	defer closer()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}

	return cfg, nil
}

func (s *Settings) normalise() {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		s.Name = "pool"
	}
	if s.MaxPoolSize <= 0 {
		s.MaxPoolSize = Default().MaxPoolSize
	}
	if s.Breaker.Enabled {
		if s.Breaker.Threshold <= 0 {
			s.Breaker.Threshold = Default().Breaker.Threshold
		}
		if s.Breaker.ResetTimeout <= 0 {
			s.Breaker.ResetTimeout = Default().Breaker.ResetTimeout
		}
	}
}

// Validate performs semantic validation on the configuration.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name required")
	}
	if s.MaxPoolSize <= 0 {
		return fmt.Errorf("maxPoolSize must be >0")
	}
	if s.MaxActiveObjects < 0 {
		return fmt.Errorf("maxActiveObjects must be >=0")
	}
	if s.GetTimeout < 0 {
		return fmt.Errorf("getTimeout must be >=0")
	}
	if s.TTL < 0 {
		return fmt.Errorf("ttl must be >=0")
	}
	if s.IdleTimeout < 0 {
		return fmt.Errorf("idleTimeout must be >=0")
	}
	if s.WarmupSize < 0 {
		return fmt.Errorf("warmupSize must be >=0")
	}
	if s.WarmupSize > s.MaxPoolSize {
		return fmt.Errorf("warmupSize must be <= maxPoolSize")
	}
	if s.Breaker.Enabled {
		if s.Breaker.Threshold <= 0 {
			return fmt.Errorf("breaker threshold must be >0 when enabled")
		}
		if s.Breaker.ResetTimeout <= 0 {
			return fmt.Errorf("breaker resetTimeout must be >0 when enabled")
		}
	}
	return nil
}

func openConfigFile(path string) (io.Reader, func(), error) {
	candidate := strings.TrimSpace(path)
	candidate = filepath.Clean(candidate)

	file, err := os.Open(candidate) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return nil, nil, fmt.Errorf("open pool config: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
