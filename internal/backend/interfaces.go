package backend

import (
	"github.com/wichananm65/flower-shop-storefront/internal/account"
	"github.com/wichananm65/flower-shop-storefront/internal/auth"
	"github.com/wichananm65/flower-shop-storefront/internal/blog"
	"github.com/wichananm65/flower-shop-storefront/internal/cart"
	"github.com/wichananm65/flower-shop-storefront/internal/catalog"
	"github.com/wichananm65/flower-shop-storefront/internal/chat"
	"github.com/wichananm65/flower-shop-storefront/internal/checkout"
	"github.com/wichananm65/flower-shop-storefront/internal/wishlist"
)

var (
	_ cart.Backend          = (*Client)(nil)
	_ wishlist.Backend      = (*Client)(nil)
	_ wishlist.Carts        = (*Client)(nil)
	_ checkout.Backend      = (*Client)(nil)
	_ account.Backend       = (*Client)(nil)
	_ catalog.Backend       = (*Client)(nil)
	_ catalog.ImageSearcher = (*Client)(nil)
	_ blog.Backend          = (*Client)(nil)
	_ auth.Backend          = (*Client)(nil)
	_ chat.Backend          = (*Client)(nil)
)
