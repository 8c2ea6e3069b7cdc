// Package models - service configuration and operational settings.
//
// Configuration is hierarchical and grouped by component (server, auth,
// governance, logging, metrics, observability). Defaults work out of the box
// for development; production deployments override via YAML file and
// SIGGATE_* environment variables. Validation runs once at startup and
// rejects misconfigurations before the server binds.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Keystore backend type constants
const (
	KeystoreTypeMemory   = "memory"
	KeystoreTypeSQLite   = "sqlite"
	KeystoreTypePostgres = "postgres"
)

// Governance window store type constants
const (
	GovernanceStoreMemory = "memory"
	GovernanceStoreRedis  = "redis"
)

// RequestTargetComponent is the pseudo-component binding a signature to the
// request method and path. Every verification policy must include it.
const RequestTargetComponent = "(request-target)"

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Upstream      UpstreamConfig      `yaml:"upstream" json:"upstream"`
	Auth          AuthConfig          `yaml:"auth" json:"auth"`
	Governance    GovernanceConfig    `yaml:"governance" json:"governance"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

// UpstreamConfig identifies the backend the gateway proxies admitted
// requests to.
type UpstreamConfig struct {
	URL     string        `yaml:"url" json:"url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// AuthConfig controls request signature verification.
type AuthConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// RequiredComponents is the server-side minimum set of signing-string
	// components a presented signature must cover. (request-target) is
	// always required and is appended if omitted.
	RequiredComponents []string `yaml:"required_components" json:"required_components"`

	Keystore KeystoreConfig `yaml:"keystore" json:"keystore"`

	// DebugHeaders echoes the computed signing string in a response header
	// so clients can diagnose canonicalization mismatches. Diagnostic only;
	// must stay off in production.
	DebugHeaders bool `yaml:"debug_headers" json:"debug_headers"`
}

type KeystoreConfig struct {
	Type     string         `yaml:"type" json:"type"`
	Keys     []SigningKey   `yaml:"keys" json:"keys"`
	Database DatabaseConfig `yaml:"database" json:"database"`
}

// SigningKey is an inline shared-secret entry for the memory keystore.
// Algorithm, when set, pins the only HMAC variant accepted for this key.
type SigningKey struct {
	KeyID     string `yaml:"key_id" json:"key_id"`
	Secret    string `yaml:"secret" json:"secret"`
	Algorithm string `yaml:"algorithm" json:"algorithm"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// GovernanceConfig declares per-endpoint traffic policies and where window
// counters live.
type GovernanceConfig struct {
	Store     GovernanceStoreConfig `yaml:"store" json:"store"`
	Endpoints []EndpointPolicy      `yaml:"endpoints" json:"endpoints"`
}

type GovernanceStoreConfig struct {
	Type  string      `yaml:"type" json:"type"`
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	PoolSize int    `yaml:"pool_size" json:"pool_size"`
}

// EndpointPolicy binds a logical endpoint name to its route and traffic
// limits. Either limit may be absent; an endpoint with neither is rejected
// by validation since it would govern nothing.
type EndpointPolicy struct {
	Name        string             `yaml:"name" json:"name"`
	Path        string             `yaml:"path" json:"path"`
	Methods     []string           `yaml:"methods" json:"methods"`
	Rate        *RatePolicy        `yaml:"rate" json:"rate,omitempty"`
	Concurrency *ConcurrencyPolicy `yaml:"concurrency" json:"concurrency,omitempty"`
}

// RatePolicy caps admitted calls inside a fixed window.
type RatePolicy struct {
	Limit  int           `yaml:"limit" json:"limit"`
	Window time.Duration `yaml:"window" json:"window"`
}

// ConcurrencyPolicy caps simultaneously executing calls.
type ConcurrencyPolicy struct {
	Limit int `yaml:"limit" json:"limit"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with development-friendly defaults:
// auth enabled with an empty memory keystore (startup fails until keys are
// supplied), no governed endpoints, metrics on, tracing off.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Upstream: UpstreamConfig{
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:            true,
			RequiredComponents: []string{RequestTargetComponent},
			Keystore: KeystoreConfig{
				Type: KeystoreTypeMemory,
			},
		},
		Governance: GovernanceConfig{
			Store: GovernanceStoreConfig{
				Type: GovernanceStoreMemory,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "siggate",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

// Validate checks the configuration for correctness. It is called once at
// startup; any error here is fatal and surfaced to the operator.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.TLSEnabled && (c.Server.TLSCertFile == "" || c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.tls_cert_file and server.tls_key_file are required when TLS is enabled"))
	}

	if c.Upstream.URL == "" {
		errs = append(errs, errors.New("upstream.url is required"))
	}

	if err := c.Auth.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Governance.validate(); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level))
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			errs = append(errs, fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port))
		}
		if c.Metrics.Path == "" {
			errs = append(errs, errors.New("metrics.path is required when metrics are enabled"))
		}
	}

	return errors.Join(errs...)
}

func (a *AuthConfig) validate() error {
	if !a.Enabled {
		return nil
	}

	var errs []error

	for _, comp := range a.RequiredComponents {
		if strings.TrimSpace(comp) == "" {
			errs = append(errs, errors.New("auth.required_components entries must be non-empty"))
		}
	}

	switch a.Keystore.Type {
	case KeystoreTypeMemory:
		if len(a.Keystore.Keys) == 0 {
			errs = append(errs, errors.New("auth.keystore.keys is required for the memory keystore when auth is enabled"))
		}
		seen := make(map[string]bool, len(a.Keystore.Keys))
		for i, key := range a.Keystore.Keys {
			if key.KeyID == "" {
				errs = append(errs, fmt.Errorf("auth.keystore.keys[%d]: key_id is required", i))
			}
			if key.Secret == "" {
				errs = append(errs, fmt.Errorf("auth.keystore.keys[%d]: secret is required", i))
			}
			if seen[key.KeyID] {
				errs = append(errs, fmt.Errorf("auth.keystore.keys[%d]: duplicate key_id %q", i, key.KeyID))
			}
			seen[key.KeyID] = true
		}
	case KeystoreTypeSQLite, KeystoreTypePostgres:
		if a.Keystore.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("auth.keystore.database.dsn is required for %s keystore", a.Keystore.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported keystore type: %s", a.Keystore.Type))
	}

	return errors.Join(errs...)
}

func (g *GovernanceConfig) validate() error {
	var errs []error

	switch g.Store.Type {
	case GovernanceStoreMemory:
	case GovernanceStoreRedis:
		if g.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("governance.store.redis.addr is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported governance store type: %s", g.Store.Type))
	}

	seen := make(map[string]bool, len(g.Endpoints))
	for i, ep := range g.Endpoints {
		if ep.Name == "" {
			errs = append(errs, fmt.Errorf("governance.endpoints[%d]: name is required", i))
			continue
		}
		if seen[ep.Name] {
			errs = append(errs, fmt.Errorf("governance.endpoints[%d]: duplicate endpoint name %q", i, ep.Name))
		}
		seen[ep.Name] = true

		if ep.Path == "" {
			errs = append(errs, fmt.Errorf("governance.endpoints[%d] (%s): path is required", i, ep.Name))
		}
		if ep.Rate == nil && ep.Concurrency == nil {
			errs = append(errs, fmt.Errorf("governance.endpoints[%d] (%s): at least one of rate or concurrency is required", i, ep.Name))
		}
		if ep.Rate != nil {
			if ep.Rate.Limit < 1 {
				errs = append(errs, fmt.Errorf("governance.endpoints[%d] (%s): rate.limit must be at least 1", i, ep.Name))
			}
			if ep.Rate.Window <= 0 {
				errs = append(errs, fmt.Errorf("governance.endpoints[%d] (%s): rate.window must be positive", i, ep.Name))
			}
		}
		if ep.Concurrency != nil && ep.Concurrency.Limit < 1 {
			errs = append(errs, fmt.Errorf("governance.endpoints[%d] (%s): concurrency.limit must be at least 1", i, ep.Name))
		}
	}

	return errors.Join(errs...)
}

// EndpointByName returns the named endpoint policy, if declared.
func (g *GovernanceConfig) EndpointByName(name string) (*EndpointPolicy, bool) {
	for i := range g.Endpoints {
		if g.Endpoints[i].Name == name {
			return &g.Endpoints[i], true
		}
	}
	return nil, false
}
