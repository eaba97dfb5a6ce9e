package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for the taxonomy store.
type Config struct {
	Backend    string        `json:"backend" yaml:"backend"`
	DataDir    string        `json:"data_dir" yaml:"data_dir"`
	ServerURL  string        `json:"server_url,omitempty" yaml:"server_url,omitempty"`
	ListenAddr string        `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	RedisURL   string        `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	CacheTTL   time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
	LogLevel   string        `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Supported backend names. BackendSQLite opens the local store directly;
// BackendHTTP talks to a running taxa server at ServerURL.
const (
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrServerURLEmpty  = errors.New("server_url is required for the http backend")
	ErrCacheTTLInvalid = errors.New("cache_ttl must not be negative")
	ErrLogLevelUnknown = errors.New("unknown log level")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendHTTP:   true,
}

// knownLogLevels lists the log levels that Validate accepts. Empty means the
// default level.
var knownLogLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendHTTP && c.ServerURL == "" {
		return ErrServerURLEmpty
	}
	if c.CacheTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	return nil
}
