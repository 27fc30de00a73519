package booru

import (
	"fmt"
	"slices"
	"strings"
)

// TagSet holds the distinct tokens of a post's tag string.
type TagSet map[string]struct{}

// NewTagSet splits raw on single spaces. Empty tokens from repeated or
// surrounding spaces are skipped.
func NewTagSet(raw string) TagSet {
	set := make(TagSet)
	for _, tag := range strings.Split(raw, " ") {
		if tag != "" {
			set[tag] = struct{}{}
		}
	}
	return set
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

func (s TagSet) Len() int {
	return len(s)
}

func (s TagSet) Sorted() []string {
	tags := make([]string, 0, len(s))
	for tag := range s {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// CompactPost is the lightweight view of a Post. ID keeps the decoded value
// as is, like Post.ID.
type CompactPost struct {
	ID      int64
	FileURL string
	Width   int
	Height  int
	Tags    TagSet
}

func (c CompactPost) String() string {
	return fmt.Sprintf("id: %d, tags: %v, url: %s", c.ID, c.Tags.Sorted(), c.FileURL)
}

func (p Post) Compact() CompactPost {
	return CompactPost{
		ID:      p.ID,
		FileURL: p.FileURL,
		Width:   p.Width,
		Height:  p.Height,
		Tags:    NewTagSet(p.Tags),
	}
}

// CompactViews is computed on every call and follows the order of ps.
func (ps Posts) CompactViews() CompactPosts {
	return project(ps, Post.Compact)
}

type CompactPosts []CompactPost

func (cs CompactPosts) Len() int {
	return len(cs)
}

func (cs CompactPosts) IsEmpty() bool {
	return len(cs) == 0
}

func (cs CompactPosts) FileURLs() []string {
	return project(cs, func(c CompactPost) string { return c.FileURL })
}

func (cs CompactPosts) FirstFileURL() (string, bool) {
	if len(cs) == 0 {
		return "", false
	}
	return cs[0].FileURL, true
}

// DetailList renders every view with String.
func (cs CompactPosts) DetailList() []string {
	return project(cs, CompactPost.String)
}
