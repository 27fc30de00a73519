package booru

import (
	"context"
	"net/url"
)

// Rule is a query bound to a concrete API. Other boorus plug in by
// implementing it for their own response type.
type Rule[T any] interface {
	URL() (*url.URL, error)
	Search(ctx context.Context) (T, error)
}

type Rule34 struct {
	client *Client
	params Params
}

var _ Rule[Posts] = Rule34{}

func NewRule34(client *Client, p Params) Rule34 {
	return Rule34{client: client, params: p}
}

func (r Rule34) Params() Params {
	return r.params
}

// With returns a copy of r whose params are transformed by fn.
func (r Rule34) With(fn func(Params) Params) Rule34 {
	r.params = fn(r.params)
	return r
}

func (r Rule34) URL() (*url.URL, error) {
	return BuildURL(r.client.Endpoint(), r.params)
}

func (r Rule34) Search(ctx context.Context) (Posts, error) {
	return r.client.Search(ctx, r.params)
}
