// Package config loads service configuration from an optional YAML file and
// SIGGATE_* environment variables, layered over built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"siggate/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables. Precedence:
// defaults, then file, then environment. The result is validated; any
// validation error is fatal to startup.
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("SIGGATE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SIGGATE_HOST"); host != "" {
		config.Server.Host = host
	}
	if timeout := os.Getenv("SIGGATE_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}
	if timeout := os.Getenv("SIGGATE_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}
	if timeout := os.Getenv("SIGGATE_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}
	if tls := os.Getenv("SIGGATE_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}
	if certFile := os.Getenv("SIGGATE_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}
	if keyFile := os.Getenv("SIGGATE_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Upstream configuration
	if upstream := os.Getenv("SIGGATE_UPSTREAM_URL"); upstream != "" {
		config.Upstream.URL = upstream
	}
	if timeout := os.Getenv("SIGGATE_UPSTREAM_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Upstream.Timeout = d
		}
	}

	// Authentication configuration
	if auth := os.Getenv("SIGGATE_AUTH_ENABLED"); auth != "" {
		config.Auth.Enabled = strings.ToLower(auth) == "true"
	}
	if debug := os.Getenv("SIGGATE_AUTH_DEBUG_HEADERS"); debug != "" {
		config.Auth.DebugHeaders = strings.ToLower(debug) == "true"
	}
	if keystoreType := os.Getenv("SIGGATE_KEYSTORE_TYPE"); keystoreType != "" {
		config.Auth.Keystore.Type = keystoreType
	}
	if dsn := os.Getenv("SIGGATE_KEYSTORE_DSN"); dsn != "" {
		config.Auth.Keystore.Database.DSN = dsn
	}

	// Governance configuration
	if storeType := os.Getenv("SIGGATE_GOVERNANCE_STORE_TYPE"); storeType != "" {
		config.Governance.Store.Type = storeType
	}
	if addr := os.Getenv("SIGGATE_REDIS_ADDR"); addr != "" {
		config.Governance.Store.Redis.Addr = addr
	}
	if password := os.Getenv("SIGGATE_REDIS_PASSWORD"); password != "" {
		config.Governance.Store.Redis.Password = password
	}
	if db := os.Getenv("SIGGATE_REDIS_DB"); db != "" {
		if dbNum, err := strconv.Atoi(db); err == nil {
			config.Governance.Store.Redis.DB = dbNum
		}
	}

	// Logging configuration
	if level := os.Getenv("SIGGATE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SIGGATE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("SIGGATE_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}
	if filePath := os.Getenv("SIGGATE_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("SIGGATE_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}
	if path := os.Getenv("SIGGATE_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}
	if port := os.Getenv("SIGGATE_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Observability configuration
	if name := os.Getenv("SIGGATE_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}
	if tracing := os.Getenv("SIGGATE_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}
	if exporter := os.Getenv("SIGGATE_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}
	if endpoint := os.Getenv("SIGGATE_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}
