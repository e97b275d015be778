package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/slug"
)

// legacyHost is where article bodies were authored; embedded links are rewritten to
// the live backend.
const legacyHost = "http://localhost:8080"

type Page struct {
	Posts      []Summary `json:"posts"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

type Service struct {
	backend Backend
	baseURL string
	log     *logrus.Entry
}

func NewService(backend Backend, baseURL string, logger *logrus.Logger) *Service {
	return &Service{backend: backend, baseURL: baseURL, log: logger.WithField("component", "blog")}
}

// List returns one page of active posts. The backend answers with the page's posts
// only, so the page count is derived from that answer.
func (s *Service) List(ctx context.Context, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	posts, err := s.backend.ListPosts(ctx, page, limit)
	if err != nil {
		s.log.WithError(err).Warn("failed to list posts")
		return Page{Posts: []Summary{}, Page: page, TotalPages: 1}, fmt.Errorf("list posts: %w", err)
	}

	out := Page{Posts: make([]Summary, 0, len(posts)), Page: page, TotalPages: (len(posts) + limit - 1) / limit}
	if out.TotalPages == 0 {
		out.TotalPages = 1
	}
	for _, p := range posts {
		if !p.IsActive {
			continue
		}
		out.Posts = append(out.Posts, Summary{
			ID:           p.ID,
			Title:        p.Title,
			Slug:         p.Slug(),
			Excerpt:      p.Excerpt(),
			ThumbnailURL: assetURL(s.baseURL, p.ThumbnailURL),
			Author:       p.Author,
			CreatedAt:    p.CreatedAt,
			Tags:         p.Tags,
		})
	}
	return out, nil
}

// BySlug finds the first post whose title slugifies to postSlug and loads it in full.
func (s *Service) BySlug(ctx context.Context, postSlug string) (Post, error) {
	const op = "blog.BySlug"
	posts, err := s.backend.AllPosts(ctx)
	if err != nil {
		return Post{}, fmt.Errorf("find post by slug: %w", err)
	}
	found, ok := slug.Find(posts, postSlug, func(p Post) string { return p.Title })
	if !ok {
		return Post{}, apperr.New(op, apperr.KindNotFound, "post not found")
	}
	post, err := s.backend.GetPost(ctx, found.ID)
	if err != nil {
		return Post{}, err
	}
	post.ThumbnailURL = assetURL(s.baseURL, post.ThumbnailURL)
	post.Content = strings.ReplaceAll(post.Content, legacyHost, s.baseURL)
	return post, nil
}
