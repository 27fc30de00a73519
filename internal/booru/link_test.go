package booru

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_URL(t *testing.T) {
	p := NewParams().
		PositiveTags("anime", "base", "sunglasses").
		NegativeTags("ai_generated").
		Limit(5).
		Page(2)

	u, err := p.URL()
	require.NoError(t, err)

	assert.Equal(t,
		"https://api.rule34.xxx/index.php?page=dapi&s=post&q=index&tags=anime+base+sunglasses+-ai_generated&json=1&limit=5&pid=2",
		u.String())

	q := u.Query()
	assert.Equal(t, "anime base sunglasses -ai_generated", q.Get("tags"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, "2", q.Get("pid"))
	assert.Equal(t, "1", q.Get("json"))
	assert.False(t, q.Has("id"))
}

func TestParams_Query(t *testing.T) {
	t.Run("empty tags keep the separator", func(t *testing.T) {
		assert.Equal(t, "page=dapi&s=post&q=index&tags=+&json=1&limit=1&pid=1", NewParams().Query())
	})

	t.Run("id goes last", func(t *testing.T) {
		q := NewParams().PositiveTags("cat").ID(123).Query()
		assert.Equal(t, "page=dapi&s=post&q=index&tags=cat+&json=1&limit=1&pid=1&id=123", q)
	})

	t.Run("special characters are escaped", func(t *testing.T) {
		q := NewParams().PositiveTags("rating:safe", "a&b").Query()
		assert.Contains(t, q, "tags=rating%3Asafe+a%26b+&")
	})
}

func TestParams_URLRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		positive []string
		negative []string
		limit    int
		page     int
	}{
		{"no tags", nil, nil, 1, 1},
		{"mixed", []string{"a", "b"}, []string{"c"}, 100, 0},
		{"escaped", []string{"x+y", "100%"}, []string{"a=b"}, MaxLimit, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams().
				PositiveTags(tt.positive...).
				NegativeTags(tt.negative...).
				Limit(tt.limit).
				Page(tt.page)

			u, err := p.URL()
			require.NoError(t, err)

			values, err := url.ParseQuery(u.RawQuery)
			require.NoError(t, err)
			assert.Equal(t, EncodeTags(tt.positive, tt.negative), values.Get("tags"))
			assert.Equal(t, strconv.Itoa(tt.limit), values.Get("limit"))
			assert.Equal(t, strconv.Itoa(tt.page), values.Get("pid"))
		})
	}
}

func TestBuildURL(t *testing.T) {
	t.Run("existing query is replaced", func(t *testing.T) {
		u, err := BuildURL("http://localhost:8080/index.php?foo=bar", NewParams())
		require.NoError(t, err)
		assert.Equal(t, "localhost:8080", u.Host)
		assert.False(t, u.Query().Has("foo"))
		assert.Equal(t, "dapi", u.Query().Get("page"))
	})

	invalid := []string{
		"",
		"   ",
		"not a url",
		"ftp://example.com/index.php",
		"https://",
		"/index.php",
	}
	for _, endpoint := range invalid {
		t.Run("invalid "+endpoint, func(t *testing.T) {
			_, err := BuildURL(endpoint, NewParams())
			assert.ErrorIs(t, err, ErrInvalidEndpoint)
		})
	}
}
