package config

import (
	"os"
	"strings"
	"time"
)

type APIConfig struct {
	Endpoint  string          `koanf:"endpoint"`
	UserAgent string          `koanf:"user_agent"`
	Timeout   time.Duration   `koanf:"timeout"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig allows Burst requests per Period. A zero Period disables throttling.
type RateLimitConfig struct {
	Period time.Duration `koanf:"period"`
	Burst  int           `koanf:"burst"`
}

type HTTPConfig struct {
	proxy   string
	noProxy []string
}

func NewHTTPConfig(proxy string, noProxy ...string) HTTPConfig {
	return HTTPConfig{proxy: proxy, noProxy: noProxy}
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != "" {
		return c.proxy
	}
	for _, key := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
		if proxyURL := os.Getenv(key); proxyURL != "" {
			return proxyURL
		}
	}
	return ""
}

func (c HTTPConfig) GetNoProxy() []string {
	if len(c.noProxy) > 0 {
		return c.noProxy
	}
	for _, key := range []string{"NO_PROXY", "no_proxy"} {
		if value := os.Getenv(key); value != "" {
			var hosts []string
			for host := range strings.SplitSeq(value, ",") {
				if host = strings.TrimSpace(host); host != "" {
					hosts = append(hosts, host)
				}
			}
			return hosts
		}
	}
	return nil
}

type DownloadConfig struct {
	Directory string `koanf:"directory"`
	Threads   int    `koanf:"threads"`
	Overwrite bool   `koanf:"overwrite"`
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

func (c LoggingConfig) IsDebug() bool {
	return c.Level() == "debug" || c.Level() == "trace"
}
