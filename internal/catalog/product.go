package catalog

import (
	"context"
	"io"

	"github.com/wichananm65/flower-shop-storefront/internal/pricing"
	"github.com/wichananm65/flower-shop-storefront/internal/slug"
)

// Product is the display form of a catalog product.
type Product struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	DiscountValue float64  `json:"discountValue"`
	FinalPrice    float64  `json:"finalPrice"`
	AverageRating float64  `json:"averageRating"`
	ImageURL      string   `json:"imageUrl"`
	IsActive      bool     `json:"isActive"`
	CategoryID    int      `json:"categoryId"`
	CategoryName  string   `json:"categoryName"`
	FlowerNames   []string `json:"flowerNames"`
	OccasionNames []string `json:"occasionNames"`
	IsFavorited   bool     `json:"isFavorited"`
}

func (p Product) Slug() string { return slug.Make(p.Name) }

func (p Product) DiscountPercent() int { return pricing.DiscountPercent(p.Price, p.FinalPrice) }

// Card is what product listings render.
type Card struct {
	Product
	Slug     string `json:"slug"`
	Discount int    `json:"discountPercent"`
}

func (p Product) Card() Card {
	return Card{Product: p, Slug: p.Slug(), Discount: p.DiscountPercent()}
}

type Review struct {
	ID           int    `json:"id"`
	CustomerID   int    `json:"customerId"`
	ProductID    int    `json:"productId"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	IsVerified   bool   `json:"isVerified"`
	CustomerName string `json:"customerName"`
	ProductName  string `json:"productName"`
	CreatedAt    string `json:"createdAt"`
}

// Facet is a filter value: an occasion or a flower type.
type Facet struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	EnglishName string `json:"englishName,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type Facets struct {
	Occasions []Facet `json:"occasions"`
	Flowers   []Facet `json:"flowers"`
}

// ImageSearchResult is the image-similarity service's answer.
type ImageSearchResult struct {
	FlowerType string       `json:"flower_type"`
	FlowerName string       `json:"flowerName,omitempty"`
	Similar    []ImageMatch `json:"similar_products"`
}

type ImageMatch struct {
	Product *MatchedProduct `json:"product,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type MatchedProduct struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	FullImageURL string  `json:"fullImageUrl"`
	FinalPrice   float64 `json:"finalPrice,omitempty"`
	Slug         string  `json:"slug,omitempty"`
}

// Backend is the read-only catalog part of the remote API.
type Backend interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ProductDetail(ctx context.Context, id int) (Product, error)
	RelatedProducts(ctx context.Context, id int) ([]Product, error)
	ProductReviews(ctx context.Context, id int) ([]Review, error)
	Occasions(ctx context.Context) ([]Facet, error)
	Flowers(ctx context.Context) ([]Facet, error)
}

// ImageSearcher talks to the image-similarity service.
type ImageSearcher interface {
	SearchByImage(ctx context.Context, filename string, image io.Reader) (ImageSearchResult, error)
	FlowerByEnglishName(ctx context.Context, englishName string) (Facet, error)
}
