package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/slug"
)

// maxDetailFetches bounds concurrent detail requests in one batch.
const maxDetailFetches = 6

const relatedLimit = 4

type Service struct {
	backend Backend
	images  ImageSearcher
	log     *logrus.Entry
}

func NewService(backend Backend, images ImageSearcher, logger *logrus.Logger) *Service {
	return &Service{backend: backend, images: images, log: logger.WithField("component", "catalog")}
}

func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return Apply(nil, q), fmt.Errorf("list products: %w", err)
	}
	return Apply(products, q), nil
}

// BySlug scans the full listing for the first product whose name slugifies to s.
func (s *Service) BySlug(ctx context.Context, productSlug string) (Product, error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return Product{}, fmt.Errorf("find product by slug: %w", err)
	}
	p, ok := slug.Find(products, productSlug, func(p Product) string { return p.Name })
	if !ok {
		return Product{}, apperr.New("catalog.BySlug", apperr.KindNotFound, "product not found")
	}
	return p, nil
}

func (s *Service) Detail(ctx context.Context, id int) (Product, error) {
	if id <= 0 {
		return Product{}, apperr.New("catalog.Detail", apperr.KindNotFound, "product not found")
	}
	return s.backend.ProductDetail(ctx, id)
}

func (s *Service) Related(ctx context.Context, id int) ([]Card, error) {
	products, err := s.backend.RelatedProducts(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(products) > relatedLimit {
		products = products[:relatedLimit]
	}
	cards := make([]Card, 0, len(products))
	for _, p := range products {
		cards = append(cards, p.Card())
	}
	return cards, nil
}

func (s *Service) Reviews(ctx context.Context, id int) ([]Review, error) {
	return s.backend.ProductReviews(ctx, id)
}

func (s *Service) Facets(ctx context.Context) (Facets, error) {
	var f Facets
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		f.Occasions, err = s.backend.Occasions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		f.Flowers, err = s.backend.Flowers(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Facets{}, fmt.Errorf("load facets: %w", err)
	}
	return f, nil
}

// Details fetches the detail of every distinct id in one bounded batch. Ids whose
// lookup fails are left out of the result.
func (s *Service) Details(ctx context.Context, ids []int) map[int]Product {
	unique := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	results := make([]*Product, len(unique))
	var g errgroup.Group
	g.SetLimit(maxDetailFetches)
	for i, id := range unique {
		g.Go(func() error {
			p, err := s.backend.ProductDetail(ctx, id)
			if err != nil {
				s.log.WithError(err).WithField("product_id", id).Warn("product detail lookup failed")
				return nil
			}
			results[i] = &p
			return nil
		})
	}
	g.Wait()

	out := make(map[int]Product, len(unique))
	for i, p := range results {
		if p != nil {
			out[unique[i]] = *p
		}
	}
	return out
}

// SearchByImage forwards an uploaded photo to the image-similarity service and keeps
// only matches that carry a product.
func (s *Service) SearchByImage(ctx context.Context, filename string, image io.Reader) (ImageSearchResult, error) {
	if s.images == nil {
		return ImageSearchResult{}, apperr.New("catalog.SearchByImage", apperr.KindNetwork, "image search is not configured")
	}
	res, err := s.images.SearchByImage(ctx, filename, image)
	if err != nil {
		return ImageSearchResult{}, fmt.Errorf("search by image: %w", err)
	}

	valid := res.Similar[:0:0]
	for _, m := range res.Similar {
		if m.Product != nil {
			m.Product.Slug = slug.Make(m.Product.Name)
			valid = append(valid, m)
		}
	}
	res.Similar = valid

	res.FlowerName = res.FlowerType
	if res.FlowerType != "" {
		if f, err := s.images.FlowerByEnglishName(ctx, res.FlowerType); err == nil && f.Name != "" {
			res.FlowerName = f.Name
		}
	}
	return res, nil
}
