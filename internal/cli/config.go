package cli

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/taxa/internal/paths"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend    = "backend"
	cfgKeyDataDir    = "data_dir"
	cfgKeyServerURL  = "server_url"
	cfgKeyListenAddr = "listen_addr"
	cfgKeyRedisURL   = "redis_url"
	cfgKeyCacheTTL   = "cache_ttl"
	cfgKeyLogLevel   = "log_level"

	defaultBackend    = types.BackendSQLite
	defaultListenAddr = ":8080"
	defaultCacheTTL   = "5m"
	defaultLogLevel   = "info"

	envConfigDirHelp = paths.EnvConfigDir
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# taxa configuration

# Backend: sqlite (local data directory) or http (a running "taxa serve").
backend: sqlite

# Data directory for the sqlite backend (overridable by --data-dir).
# data_dir:

# Server base URL for the http backend.
# server_url: http://localhost:8080

# Listen address for "taxa serve".
listen_addr: ":8080"

# Optional Redis cache in front of the store.
# redis_url: redis://localhost:6379/0
cache_ttl: 5m

# debug, info, warn, or error.
log_level: info
`

// loadConfig reads config.yaml from configDir with viper, creating the
// directory and a default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyListenAddr, defaultListenAddr)
	v.SetDefault(cfgKeyCacheTTL, defaultCacheTTL)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates config.yaml if it does not exist.
func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// buildConfig turns viper values and flags into a validated types.Config.
func buildConfig(v *viper.Viper, dataDirFlag string) (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:    v.GetString(cfgKeyBackend),
		DataDir:    dataDir,
		ServerURL:  v.GetString(cfgKeyServerURL),
		ListenAddr: v.GetString(cfgKeyListenAddr),
		RedisURL:   v.GetString(cfgKeyRedisURL),
		CacheTTL:   v.GetDuration(cfgKeyCacheTTL),
		LogLevel:   v.GetString(cfgKeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// load resolves directories, reads the configuration, and configures the
// logger.
func (a *app) load() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return systemErr("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return systemErr("%w", err)
	}
	cfg, err := buildConfig(v, a.flags.dataDir)
	if err != nil {
		return fmt.Errorf("config %s: %w", paths.ConfigFile(configDir), err)
	}
	a.config = cfg

	level := log.InfoLevel
	if cfg.LogLevel != "" {
		if level, err = log.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}
	if a.flags.debug {
		level = log.DebugLevel
	}
	a.logger.SetLevel(level)
	a.logger.WithFields(log.Fields{
		"config_dir": configDir,
		"backend":    cfg.Backend,
		"data_dir":   cfg.DataDir,
	}).Debug("configuration loaded")
	return nil
}
