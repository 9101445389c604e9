package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultDispatchTimeout is used when dispatch.timeout is not configured.
const DefaultDispatchTimeout = 30 * time.Second

// Config represents the server configuration.
// This is the root configuration structure loaded from YAML or TOML files.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Dispatch  DispatchConfig  `yaml:"dispatch" toml:"dispatch"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Audit     AuditConfig     `yaml:"audit" toml:"audit"`
}

// ServerConfig is reported to clients in the initialize handshake.
type ServerConfig struct {
	Name    string `yaml:"name" toml:"name"`
	Version string `yaml:"version" toml:"version"`
}

// TransportConfig defines transport settings.
// Specifies whether to use stdio or HTTP transport.
type TransportConfig struct {
	Type string     `yaml:"type" toml:"type"` // "stdio" or "http"
	HTTP HTTPConfig `yaml:"http,omitempty" toml:"http"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// DispatchConfig holds the per-invocation execution limit.
type DispatchConfig struct {
	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // text or json
}

// CacheConfig configures the handler result cache. A zero TTL disables caching.
type CacheConfig struct {
	TTL        time.Duration `yaml:"-" toml:"-"`
	TTLRaw     string        `yaml:"ttl" toml:"ttl"`
	MaxEntries int           `yaml:"max_entries" toml:"max_entries"`
}

// AuditConfig configures the SQLite invocation audit log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "mcp-tool-server",
			Version: "1.0.0",
		},
		Transport: TransportConfig{
			Type: "stdio",
			HTTP: HTTPConfig{Host: "127.0.0.1", Port: 8080},
		},
		Dispatch: DispatchConfig{
			Timeout:    DefaultDispatchTimeout,
			TimeoutRaw: DefaultDispatchTimeout.String(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			TTL:        5 * time.Minute,
			TTLRaw:     "5m",
			MaxEntries: 1024,
		},
		Audit: AuditConfig{
			Path: "./data/audit.db",
		},
	}
}

// LoadConfig reads and validates configuration from a YAML or TOML file.
// Values missing from the file keep their defaults. ${VAR} references are
// replaced with environment variables before decoding.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, config); err != nil {
			return nil, fmt.Errorf("invalid TOML syntax in configuration file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
			return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
		}
	}

	if err := config.parseDurations(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the variable's value, or "" when unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func (c *Config) parseDurations() error {
	var errors []string

	if c.Dispatch.TimeoutRaw != "" {
		d, err := time.ParseDuration(c.Dispatch.TimeoutRaw)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid dispatch timeout %q: %v", c.Dispatch.TimeoutRaw, err))
		} else {
			c.Dispatch.Timeout = d
		}
	}

	if c.Cache.TTLRaw != "" {
		d, err := time.ParseDuration(c.Cache.TTLRaw)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid cache ttl %q: %v", c.Cache.TTLRaw, err))
		} else {
			c.Cache.TTL = d
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

// Validate checks the configuration for completeness and correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if c.Server.Name == "" {
		errors = append(errors, "server name is required")
	}

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if c.Dispatch.Timeout <= 0 {
		errors = append(errors, fmt.Sprintf("dispatch timeout must be positive, got %s", c.Dispatch.Timeout))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.Logging.Level))
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.Logging.Format))
	}

	if c.Cache.TTL < 0 {
		errors = append(errors, "cache ttl must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		errors = append(errors, "cache max_entries must not be negative")
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		errors = append(errors, "audit path is required when audit is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateTransport validates the transport configuration.
func (c *Config) validateTransport() error {
	var errors []string

	if c.Transport.Type == "" {
		errors = append(errors, "transport type is required")
	} else if c.Transport.Type != "stdio" && c.Transport.Type != "http" {
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if c.Transport.Type == "http" {
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}
