package network

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/net/proxy"

	"github.com/muratoffalex/shuller/internal/config"
	"github.com/muratoffalex/shuller/internal/logger"
)

const LogProxyNotConfigured = "Proxy not configured, using direct connection"

type HTTPClientConfig struct {
	ProxyURL              string
	NoProxy               []string
	Timeout               time.Duration
	DisableKeepAlives     bool
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	ForceAttemptHTTP2     bool
	DisableCompression    bool
}

// NewAPIHTTPClientConfig is tuned for many small JSON requests against one host.
func NewAPIHTTPClientConfig(cfg config.HTTPConfig, timeout time.Duration) HTTPClientConfig {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return HTTPClientConfig{
		ProxyURL:              cfg.GetProxy(),
		NoProxy:               cfg.GetNoProxy(),
		Timeout:               timeout,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// NewDownloadHTTPClientConfig has no overall timeout: large videos may take minutes,
// cancellation comes from the request context instead.
func NewDownloadHTTPClientConfig(cfg config.HTTPConfig) HTTPClientConfig {
	return HTTPClientConfig{
		ProxyURL:              cfg.GetProxy(),
		NoProxy:               cfg.GetNoProxy(),
		Timeout:               0,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		DisableCompression:    true,
	}
}

func SetupHTTPClient(cfg HTTPClientConfig, log logger.Logger) (*http.Client, error) {
	transport := &http.Transport{
		ForceAttemptHTTP2:     cfg.ForceAttemptHTTP2,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		DisableKeepAlives:     cfg.DisableKeepAlives,
		DisableCompression:    cfg.DisableCompression,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
		DialContext:           createSimpleDialer().DialContext,
	}

	if cfg.ProxyURL != "" {
		if err := configureProxy(transport, cfg.ProxyURL, cfg.NoProxy, log); err != nil {
			return nil, fmt.Errorf("failed to configure proxy: %w", err)
		}
	} else {
		log.Info(LogProxyNotConfigured)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}, nil
}

func configureProxy(transport *http.Transport, proxyURL string, noProxy []string, log logger.Logger) error {
	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("failed to parse proxy URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "socks5", "socks5h":
		dialContext, err := createSOCKS5ProxyDialer(parsedURL, noProxy, log)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = dialContext
	case "http", "https":
		transport.Proxy = createProxyFunc(parsedURL, noProxy)
		log.Info(fmt.Sprintf("Proxy configured: %s, no_proxy: %v", parsedURL.Redacted(), noProxy))
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", parsedURL.Scheme)
	}

	return nil
}

func createProxyFunc(proxyURL *url.URL, noProxy []string) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		if isExcluded(req.URL.Hostname(), noProxy) {
			return nil, nil
		}
		return proxyURL, nil
	}
}

func isExcluded(host string, noProxy []string) bool {
	for _, pattern := range noProxy {
		if matchHost(host, pattern) {
			return true
		}
	}
	return false
}

// matchHost supports shell-style wildcards ("*.example.com").
func matchHost(host, pattern string) bool {
	if pattern == host {
		return true
	}
	matched, err := path.Match(pattern, host)
	return err == nil && matched
}

func createSimpleDialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
}

func createSOCKS5ProxyDialer(proxyURL *url.URL, noProxy []string, log logger.Logger) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	directDialer := createSimpleDialer()

	proxyDialer, err := proxy.FromURL(proxyURL, directDialer)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy dialer: %w", err)
	}
	log.Info(fmt.Sprintf("Proxy configured: %s, no_proxy: %v", proxyURL.Redacted(), noProxy))

	contextDialer, hasContext := proxyDialer.(proxy.ContextDialer)
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if isExcluded(host, noProxy) {
			return directDialer.DialContext(ctx, network, addr)
		}
		if hasContext {
			return contextDialer.DialContext(ctx, network, addr)
		}
		return proxyDialer.Dial(network, addr)
	}, nil
}
