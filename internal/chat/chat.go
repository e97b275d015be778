// Package chat is the storefront's chat widget: a transcript per visitor and a
// single-turn suggestion call per question.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	Greeting = "Xin chào! Tôi có thể giúp bạn gợi ý hoa cho dịp đặc biệt nào ạ?"
	Fallback = "Có lỗi xảy ra. Vui lòng thử lại."
)

// ErrStale is returned when a reply arrives after a newer question was sent.
var ErrStale = errors.New("chat: reply superseded by a newer question")

// Card is one entry of a suggestion reply. A card with a Message is a plain tip,
// otherwise it references a product.
type Card struct {
	Flower      string `json:"flower"`
	Message     string `json:"message,omitempty"`
	ProductName string `json:"productName,omitempty"`
	Image       string `json:"image,omitempty"`
	Link        string `json:"link,omitempty"`
}

func (c Card) IsProduct() bool {
	return c.Message == ""
}

type Reply struct {
	Suggestion string `json:"suggestion"`
	Cards      []Card `json:"cards"`
}

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

type ProductRef struct {
	Flower      string `json:"flower"`
	ProductName string `json:"productName"`
	Image       string `json:"image,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Segment is one line of the transcript: text from either side, or a product
// reference from the bot.
type Segment struct {
	Role    Role        `json:"role"`
	Text    string      `json:"text,omitempty"`
	Product *ProductRef `json:"product,omitempty"`
	Time    time.Time   `json:"time"`
}

type Backend interface {
	Suggest(ctx context.Context, question string) (Reply, error)
}

// Links resolves the relative paths in a reply. SiteURL prefixes product links,
// AssetURL prefixes images served from /uploads.
type Links struct {
	SiteURL  string
	AssetURL string
}

func (l Links) segments(r Reply, now time.Time) []Segment {
	out := []Segment{{Role: RoleBot, Text: r.Suggestion, Time: now}}
	for _, c := range r.Cards {
		if !c.IsProduct() {
			out = append(out, Segment{Role: RoleBot, Text: c.Flower + " – " + c.Message, Time: now})
			continue
		}
		ref := &ProductRef{Flower: c.Flower, ProductName: c.ProductName, Image: c.Image}
		if strings.HasPrefix(ref.Image, "/uploads") {
			ref.Image = l.AssetURL + ref.Image
		}
		if c.Link != "" {
			ref.Link = l.SiteURL + c.Link
		}
		out = append(out, Segment{Role: RoleBot, Product: ref, Time: now})
	}
	return out
}
