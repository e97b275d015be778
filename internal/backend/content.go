package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wichananm65/flower-shop-storefront/internal/blog"
	"github.com/wichananm65/flower-shop-storefront/internal/chat"
)

func (c *Client) ListPosts(ctx context.Context, page, limit int) ([]blog.Post, error) {
	var out []blog.Post
	err := c.do(ctx, c.api(http.MethodGet, fmt.Sprintf("/api/blog?page=%d&limit=%d", page, limit), ""), &out)
	return out, err
}

func (c *Client) AllPosts(ctx context.Context) ([]blog.Post, error) {
	var out []blog.Post
	err := c.do(ctx, c.api(http.MethodGet, "/api/blog", ""), &out)
	return out, err
}

func (c *Client) GetPost(ctx context.Context, id int) (blog.Post, error) {
	var out blog.Post
	err := c.do(ctx, c.api(http.MethodGet, fmt.Sprintf("/api/blog/%d", id), ""), &out)
	return out, err
}

func (c *Client) Suggest(ctx context.Context, question string) (chat.Reply, error) {
	cl := call{upstream: upstreamChatbot, method: http.MethodPost, url: c.chatbotURL + "/chatbot/suggest"}
	cl, err := cl.withJSON(map[string]string{"question": question})
	if err != nil {
		return chat.Reply{}, err
	}
	var out chat.Reply
	err = c.do(ctx, cl, &out)
	return out, err
}
