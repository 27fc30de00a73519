package booru

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/muratoffalex/shuller/internal/logger"
	"golang.org/x/time/rate"
)

const DefaultUserAgent = "shuller/1.0"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientOptions struct {
	Endpoint  string
	UserAgent string
	// Limiter throttles outgoing requests. Nil means unlimited.
	Limiter *rate.Limiter
}

// Client runs post queries against one endpoint. It is safe for concurrent use.
type Client struct {
	httpClient HTTPClient
	endpoint   string
	userAgent  string
	limiter    *rate.Limiter
	logger     logger.Logger
}

// NewRateLimiter allows burst requests at once and one more every period.
// A non-positive period disables throttling.
func NewRateLimiter(period time.Duration, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	if period <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(period), burst)
}

func NewClient(httpClient HTTPClient, l logger.Logger, opts ClientOptions) (*Client, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if _, err := ParseEndpoint(opts.Endpoint); err != nil {
		return nil, err
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   opts.Endpoint,
		userAgent:  opts.UserAgent,
		limiter:    opts.Limiter,
		logger:     l.WithField("endpoint", opts.Endpoint),
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// NewParams returns default params that log through the client's logger.
func (c *Client) NewParams() Params {
	return NewParams().WithLogger(c.logger)
}

func (c *Client) URL(p Params) (string, error) {
	u, err := BuildURL(c.endpoint, p)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (c *Client) Search(ctx context.Context, p Params) (Posts, error) {
	rawURL, err := c.URL(p)
	if err != nil {
		return nil, err
	}
	posts, err := FetchJSON[Posts](ctx, c, rawURL)
	if err != nil {
		return nil, err
	}
	c.logger.WithFields(logger.Fields{
		"tags":  p.Tags(),
		"count": len(posts),
	}).Debug("Search completed")
	return posts, nil
}

// Post looks up a single post by id. The bool is false when the API has no such post.
func (c *Client) Post(ctx context.Context, id uint64) (Post, bool, error) {
	posts, err := c.Search(ctx, c.NewParams().ID(id))
	if err != nil {
		return Post{}, false, err
	}
	post, ok := posts.First()
	return post, ok, nil
}

// RandomPost looks up a uniformly drawn id in [0, maxID). Ids that were
// deleted come back as not found.
func (c *Client) RandomPost(ctx context.Context, rng RandomSource, maxID uint64) (Post, bool, error) {
	p := c.NewParams().WithRandomSource(rng).RandomID(maxID)
	id, _ := p.GetID()
	c.logger.WithField("id", id).Debug("Random post id drawn")

	posts, err := c.Search(ctx, p)
	if err != nil {
		return Post{}, false, err
	}
	post, ok := posts.First()
	return post, ok, nil
}

// FetchJSON issues a GET for rawURL through c and decodes the JSON body into T.
// An empty body decodes to the zero value of T.
func FetchJSON[T any](ctx context.Context, c *Client, rawURL string) (T, error) {
	var result T

	if err := c.limiter.Wait(ctx); err != nil {
		return result, &FetchError{URL: rawURL, Err: fmt.Errorf("%w: %w", ErrRequest, err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return result, &FetchError{URL: rawURL, Err: fmt.Errorf("%w: %w", ErrRequest, err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.WithField("url", rawURL).Debug("Sending request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, &FetchError{URL: rawURL, Err: fmt.Errorf("%w: %w", ErrRequest, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %w", ErrRequest, err)}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.logger.WithField("url", rawURL).Debug("Empty response body")
		return result, nil
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return result, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %w", ErrDecode, err)}
	}
	return result, nil
}
