package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	API_ENDPOINT          = "api.endpoint"
	API_USER_AGENT        = "api.user_agent"
	API_TIMEOUT           = "api.timeout"
	API_RATE_PERIOD       = "api.rate_limit.period"
	API_RATE_BURST        = "api.rate_limit.burst"
	HTTP_PROXY            = "http.proxy"
	HTTP_NO_PROXY         = "http.no_proxy"
	DOWNLOAD_DIRECTORY    = "download.directory"
	DOWNLOAD_THREADS      = "download.threads"
	DOWNLOAD_OVERWRITE    = "download.overwrite"
	DATABASE_DSN          = "database.dsn"
	LOGGING_LEVEL         = "logging.level"
	LOGGING_WRITE_IN_FILE = "logging.write_in_file"
	LOGGING_FILE_PATH     = "logging.file_path"

	EnvPrefix       = "SHULLER_"
	DefaultEndpoint = "https://api.rule34.xxx/index.php"
)

var (
	ErrEmptyEndpoint  = errors.New("api endpoint is required")
	ErrInvalidThreads = errors.New("download threads must be at least 1")
)

type Config struct {
	k *koanf.Koanf
}

func defaults() map[string]any {
	return map[string]any{
		API_ENDPOINT:          DefaultEndpoint,
		API_USER_AGENT:        "shuller/1.0",
		API_TIMEOUT:           30 * time.Second,
		API_RATE_PERIOD:       time.Second,
		API_RATE_BURST:        2,
		HTTP_PROXY:            "",
		HTTP_NO_PROXY:         []string{},
		DOWNLOAD_DIRECTORY:    ".",
		DOWNLOAD_THREADS:      5,
		DOWNLOAD_OVERWRITE:    false,
		DATABASE_DSN:          "shuller.db",
		LOGGING_LEVEL:         "warn",
		LOGGING_WRITE_IN_FILE: false,
		LOGGING_FILE_PATH:     "shuller.log",
	}
}

// Load merges defaults, the first config file found and SHULLER_* environment
// variables, in that order. An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	for _, p := range getConfigPaths(path) {
		if _, err := os.Stat(p); err == nil {
			if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", p, err)
			}
			break
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)),
			"__", ".",
		)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	cfg := &Config{k: k}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.k.String(API_ENDPOINT)) == "" {
		return ErrEmptyEndpoint
	}
	if c.k.Int(DOWNLOAD_THREADS) < 1 {
		return ErrInvalidThreads
	}
	return nil
}

func (c *Config) API() APIConfig {
	burst := c.k.Int(API_RATE_BURST)
	if burst < 1 {
		burst = 1
	}
	return APIConfig{
		Endpoint:  c.k.String(API_ENDPOINT),
		UserAgent: c.k.String(API_USER_AGENT),
		Timeout:   c.k.Duration(API_TIMEOUT),
		RateLimit: RateLimitConfig{
			Period: c.k.Duration(API_RATE_PERIOD),
			Burst:  burst,
		},
	}
}

func (c *Config) HTTP() HTTPConfig {
	return HTTPConfig{
		proxy:   c.k.String(HTTP_PROXY),
		noProxy: c.k.Strings(HTTP_NO_PROXY),
	}
}

func (c *Config) Download() DownloadConfig {
	return DownloadConfig{
		Directory: c.k.String(DOWNLOAD_DIRECTORY),
		Threads:   c.k.Int(DOWNLOAD_THREADS),
		Overwrite: c.k.Bool(DOWNLOAD_OVERWRITE),
	}
}

func (c *Config) Log() LoggingConfig {
	return LoggingConfig{
		LogLevel:    c.k.String(LOGGING_LEVEL),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func (c *Config) GetDatabaseDSN() string {
	return c.k.String(DATABASE_DSN)
}

// Set overrides a single key, used by command line flags.
func (c *Config) Set(key string, value any) error {
	return c.k.Load(confmap.Provider(map[string]any{key: value}, "."), nil)
}

func getConfigPaths(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"shuller.toml",
		"config.toml",
		filepath.Join(xdgConfig, "shuller", "config.toml"),
		"/etc/shuller/config.toml",
	}
}
