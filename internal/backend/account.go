package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wichananm65/flower-shop-storefront/internal/account"
)

func (c *Client) GetProfile(ctx context.Context, token, customerID string) (account.Profile, error) {
	var out account.Profile
	err := c.do(ctx, c.api(http.MethodGet, "/api/customers/"+url.PathEscape(customerID), token), &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, token, customerID string, p account.ProfileUpdate) error {
	cl, err := c.api(http.MethodPut, "/api/customers/"+url.PathEscape(customerID), token).withJSON(p)
	if err != nil {
		return err
	}
	return c.do(ctx, cl, nil)
}

// HasReviewed asks for the shopper's reviews of a product; any answer means reviewed.
func (c *Client) HasReviewed(ctx context.Context, token string, productID int, customerID string) (bool, error) {
	q := url.Values{}
	q.Set("productId", fmt.Sprint(productID))
	q.Set("customerId", customerID)
	var out []struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, c.api(http.MethodGet, "/api/reviews?"+q.Encode(), token), &out); err != nil {
		return false, err
	}
	return len(out) > 0, nil
}

func (c *Client) SubmitReview(ctx context.Context, token string, form account.ReviewForm) error {
	cl, err := c.api(http.MethodPost, "/api/reviews", token).withJSON(form)
	if err != nil {
		return err
	}
	return c.do(ctx, cl, nil)
}
