package booru

import (
	"cmp"
	"slices"
	"strings"
)

// Post is one search result. Fields missing from the response keep their zero value.
type Post struct {
	PreviewURL   string `json:"preview_url"`
	SampleURL    string `json:"sample_url"`
	FileURL      string `json:"file_url"`
	Directory    int    `json:"directory"`
	Hash         string `json:"hash"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ID           int64  `json:"id"`
	Image        string `json:"image"`
	Change       int64  `json:"change"`
	Owner        string `json:"owner"`
	ParentID     int64  `json:"parent_id"`
	Rating       string `json:"rating"`
	Sample       bool   `json:"sample"`
	SampleHeight int    `json:"sample_height"`
	SampleWidth  int    `json:"sample_width"`
	Score        int    `json:"score"`
	Tags         string `json:"tags"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	HasNotes     bool   `json:"has_notes"`
	CommentCount int    `json:"comment_count"`
}

func (p Post) TagList() []string {
	return strings.Fields(p.Tags)
}

func (p Post) HasParent() bool {
	return p.ParentID != 0
}

func (p Post) IsVideo() bool {
	u := strings.ToLower(p.FileURL)
	return strings.HasSuffix(u, ".mp4") || strings.HasSuffix(u, ".webm")
}

// Posts is the decoded response: a JSON array of posts in API order.
type Posts []Post

func (ps Posts) Len() int {
	return len(ps)
}

func (ps Posts) IsEmpty() bool {
	return len(ps) == 0
}

func (ps Posts) First() (Post, bool) {
	if len(ps) == 0 {
		return Post{}, false
	}
	return ps[0], true
}

// Records returns a copy of the underlying slice.
func (ps Posts) Records() []Post {
	return slices.Clone([]Post(ps))
}

func (ps Posts) IDs() []int64 {
	return project(ps, func(p Post) int64 { return p.ID })
}

func (ps Posts) PreviewURLs() []string {
	return project(ps, func(p Post) string { return p.PreviewURL })
}

func (ps Posts) SampleURLs() []string {
	return project(ps, func(p Post) string { return p.SampleURL })
}

func (ps Posts) FileURLs() []string {
	return project(ps, func(p Post) string { return p.FileURL })
}

func (ps Posts) FirstPreviewURL() (string, bool) {
	p, ok := ps.First()
	return p.PreviewURL, ok
}

func (ps Posts) FirstSampleURL() (string, bool) {
	p, ok := ps.First()
	return p.SampleURL, ok
}

func (ps Posts) FirstFileURL() (string, bool) {
	p, ok := ps.First()
	return p.FileURL, ok
}

// SortByScore returns a copy ordered by score, highest first. Ties keep API order.
func (ps Posts) SortByScore() Posts {
	sorted := slices.Clone(ps)
	slices.SortStableFunc(sorted, func(a, b Post) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return sorted
}

// WithMinScore keeps posts scoring at least minScore, highest first.
// A non-positive minScore returns the collection unchanged.
func (ps Posts) WithMinScore(minScore int) Posts {
	if minScore <= 0 {
		return ps
	}
	var filtered Posts
	for _, p := range ps {
		if p.Score >= minScore {
			filtered = append(filtered, p)
		}
	}
	return filtered.SortByScore()
}

func (ps Posts) AverageScore() int {
	if len(ps) == 0 {
		return 0
	}
	sum := 0
	for _, p := range ps {
		sum += p.Score
	}
	return sum / len(ps)
}

func project[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}
