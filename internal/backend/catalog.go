package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/wichananm65/flower-shop-storefront/internal/catalog"
)

func (c *Client) fixProducts(ps []catalog.Product) []catalog.Product {
	for i := range ps {
		ps[i].ImageURL = c.absolute(ps[i].ImageURL)
	}
	return ps
}

func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	err := c.do(ctx, c.api(http.MethodGet, "/api/products/view-all", ""), &out)
	return c.fixProducts(out), err
}

func (c *Client) ProductDetail(ctx context.Context, id int) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, c.api(http.MethodGet, fmt.Sprintf("/api/products/%d/detail", id), ""), &out)
	out.ImageURL = c.absolute(out.ImageURL)
	return out, err
}

func (c *Client) RelatedProducts(ctx context.Context, id int) ([]catalog.Product, error) {
	var out []catalog.Product
	err := c.do(ctx, c.api(http.MethodGet, fmt.Sprintf("/api/products/%d/related", id), ""), &out)
	return c.fixProducts(out), err
}

func (c *Client) ProductReviews(ctx context.Context, id int) ([]catalog.Review, error) {
	var out []catalog.Review
	err := c.do(ctx, c.api(http.MethodGet, fmt.Sprintf("/api/reviews/product/%d", id), ""), &out)
	return out, err
}

func (c *Client) Occasions(ctx context.Context) ([]catalog.Facet, error) {
	var out []catalog.Facet
	err := c.do(ctx, c.api(http.MethodGet, "/api/occasions", ""), &out)
	return out, err
}

func (c *Client) Flowers(ctx context.Context) ([]catalog.Facet, error) {
	var out []catalog.Facet
	err := c.do(ctx, c.api(http.MethodGet, "/api/flowers", ""), &out)
	return out, err
}

func (c *Client) FlowerByEnglishName(ctx context.Context, englishName string) (catalog.Facet, error) {
	var out catalog.Facet
	path := "/api/flowers/by-english-name?englishName=" + url.QueryEscape(englishName)
	err := c.do(ctx, c.api(http.MethodGet, path, ""), &out)
	return out, err
}

// SearchByImage uploads the picture to the image-similarity service as the "file" form
// field.
func (c *Client) SearchByImage(ctx context.Context, filename string, image io.Reader) (catalog.ImageSearchResult, error) {
	var out catalog.ImageSearchResult
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return out, fmt.Errorf("build image upload: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return out, fmt.Errorf("read image upload: %w", err)
	}
	if err := form.Close(); err != nil {
		return out, fmt.Errorf("build image upload: %w", err)
	}

	cl := call{
		upstream:    upstreamImageSearch,
		method:      http.MethodPost,
		url:         c.imageSearchURL + "/search-by-image",
		body:        &buf,
		contentType: form.FormDataContentType(),
	}
	err = c.do(ctx, cl, &out)
	return out, err
}
