package booru

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const DefaultEndpoint = "https://api.rule34.xxx/index.php"

type queryParam struct {
	key   string
	value string
}

// ParseEndpoint validates a base API URL. Any failure wraps ErrInvalidEndpoint.
func ParseEndpoint(endpoint string) (*url.URL, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("%w: endpoint cannot be empty", ErrInvalidEndpoint)
	}
	u, err := url.ParseRequestURI(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: endpoint must have a host", ErrInvalidEndpoint)
	}
	return u, nil
}

// BuildURL returns endpoint with the query of p. Any query already present on
// endpoint is replaced.
func BuildURL(endpoint string, p Params) (*url.URL, error) {
	u, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	u.RawQuery = p.Query()
	return u, nil
}

// URL builds the request URL against DefaultEndpoint.
func (p Params) URL() (*url.URL, error) {
	return BuildURL(DefaultEndpoint, p)
}

// Query encodes p in a fixed parameter order:
// page, s, q, tags, json, limit, pid and finally id when set.
func (p Params) Query() string {
	var b strings.Builder
	for i, param := range p.queryParams() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(param.value))
	}
	return b.String()
}

func (p Params) queryParams() []queryParam {
	params := []queryParam{
		{"page", p.route},
		{"s", p.subject},
		{"q", p.query},
		{"tags", p.Tags()},
		{"json", boolFlag(p.json)},
		{"limit", strconv.Itoa(p.limit)},
		{"pid", strconv.Itoa(p.page)},
	}
	if p.hasID {
		params = append(params, queryParam{"id", strconv.FormatUint(p.id, 10)})
	}
	return params
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
