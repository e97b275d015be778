// Package blog serves the storefront's articles.
package blog

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/wichananm65/flower-shop-storefront/internal/slug"
)

const (
	DefaultLimit  = 3
	excerptLength = 100
)

type Post struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Author       string  `json:"author"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    *string `json:"updatedAt"`
	IsActive     bool    `json:"isActive"`
	Tags         string  `json:"tags"`
}

func (p Post) Slug() string {
	return slug.Make(p.Title)
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Excerpt is the first hundred characters of the content with markup removed.
func (p Post) Excerpt() string {
	text := tagPattern.ReplaceAllString(p.Content, "")
	if utf8.RuneCountInString(text) > excerptLength {
		text = string([]rune(text)[:excerptLength])
	}
	return text + "..."
}

// Summary is a post as shown in the list.
type Summary struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Excerpt      string `json:"excerpt"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Author       string `json:"author"`
	CreatedAt    string `json:"createdAt"`
	Tags         string `json:"tags"`
}

type Backend interface {
	ListPosts(ctx context.Context, page, limit int) ([]Post, error)
	AllPosts(ctx context.Context) ([]Post, error)
	GetPost(ctx context.Context, id int) (Post, error)
}

// assetURL resolves a relative image path against the backend host.
func assetURL(base, url string) string {
	if url == "" || strings.HasPrefix(url, "http") {
		return url
	}
	return base + url
}
