package blog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
)

type fakeBackend struct {
	posts   []Post
	listErr error
	fetched []int
}

func (f *fakeBackend) ListPosts(_ context.Context, page, limit int) ([]Post, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := (page - 1) * limit
	if start >= len(f.posts) {
		return nil, nil
	}
	end := start + limit
	if end > len(f.posts) {
		end = len(f.posts)
	}
	return f.posts[start:end], nil
}

func (f *fakeBackend) AllPosts(context.Context) ([]Post, error) {
	return f.posts, nil
}

func (f *fakeBackend) GetPost(_ context.Context, id int) (Post, error) {
	f.fetched = append(f.fetched, id)
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return Post{}, apperr.New("test", apperr.KindNotFound, "no post")
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

const base = "https://api.example"

func samplePosts() []Post {
	return []Post{
		{ID: 1, Title: "Cách Chăm Sóc Hoa Hồng", Content: "<p>Tưới nước <b>mỗi sáng</b></p><img src=\"http://localhost:8080/uploads/a.jpg\">", ThumbnailURL: "/uploads/rose.jpg", IsActive: true},
		{ID: 2, Title: "Bài nháp", Content: "draft", IsActive: false},
		{ID: 3, Title: "Hoa Đám Cưới", Content: strings.Repeat("a", 150), ThumbnailURL: "https://cdn.example/w.jpg", IsActive: true},
		{ID: 4, Title: "Hoa đám cưới", Content: "duplicate title", IsActive: true},
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Tưới nước mỗi sáng...", samplePosts()[0].Excerpt())
	assert.Equal(t, strings.Repeat("a", 100)+"...", samplePosts()[2].Excerpt())
}

func TestList(t *testing.T) {
	backend := &fakeBackend{posts: samplePosts()}
	svc := NewService(backend, base, quietLogger())

	page, err := svc.List(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "cach-cham-soc-hoa-hong", page.Posts[0].Slug)
	assert.Equal(t, base+"/uploads/rose.jpg", page.Posts[0].ThumbnailURL)
	assert.Equal(t, "https://cdn.example/w.jpg", page.Posts[1].ThumbnailURL)

	page, err = svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)

	backend.listErr = apperr.New("test", apperr.KindNetwork, "down")
	page, err = svc.List(context.Background(), 2, 3)
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.TotalPages)
}

func TestBySlug(t *testing.T) {
	backend := &fakeBackend{posts: samplePosts()}
	svc := NewService(backend, base, quietLogger())

	post, err := svc.BySlug(context.Background(), "cach-cham-soc-hoa-hong")
	require.NoError(t, err)
	assert.Equal(t, base+"/uploads/rose.jpg", post.ThumbnailURL)
	assert.Contains(t, post.Content, base+"/uploads/a.jpg")
	assert.NotContains(t, post.Content, "localhost")

	// colliding titles resolve to the first one
	post, err = svc.BySlug(context.Background(), "hoa-dam-cuoi")
	require.NoError(t, err)
	assert.Equal(t, 3, post.ID)
	assert.Equal(t, []int{1, 3}, backend.fetched)

	_, err = svc.BySlug(context.Background(), "khong-ton-tai")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestBlogRoutes(t *testing.T) {
	app := fiber.New()
	NewHandler(NewService(&fakeBackend{posts: samplePosts()}, base, quietLogger())).RegisterPublicRoutes(app)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/blog?page=1&limit=3", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	var body struct {
		Blog Page `json:"blog"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Len(t, body.Blog.Posts, 2)

	res, err = app.Test(httptest.NewRequest("GET", "/api/v1/blog/khong-ton-tai", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}
