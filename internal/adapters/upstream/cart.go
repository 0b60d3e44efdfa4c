package upstream

import (
	"context"
	"net/http"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
)

var _ domain.RemoteCartGateway = (*Client)(nil)

type serverCartItemDTO struct {
	ItemID    string  `json:"item_id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	ColorID   *string `json:"color_id"`
	SizeID    *string `json:"size_id"`
}

type serverCartResponse struct {
	Items []serverCartItemDTO `json:"items"`
}

type addItemRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	ColorID   *string `json:"color_id"`
	SizeID    *string `json:"size_id"`
}

type updateQuantityRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// List returns the server cart verbatim; the server's lines are the source
// of truth for authenticated actors.
func (c *Client) List(ctx context.Context, token string) ([]domain.CartEntry, error) {
	var resp serverCartResponse
	if err := c.do(ctx, http.MethodGet, "cart/", token, nil, &resp); err != nil {
		return nil, err
	}

	entries := make([]domain.CartEntry, 0, len(resp.Items))
	for _, item := range resp.Items {
		itemID := item.ItemID
		entries = append(entries, domain.CartEntry{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			ColorID:      item.ColorID,
			SizeID:       item.SizeID,
			ServerItemID: &itemID,
		})
	}
	return entries, nil
}

// Add sends one line to the server cart. Merging identical identities is the
// server's job; the entry is sent as-is.
func (c *Client) Add(ctx context.Context, token string, entry domain.CartEntry) error {
	req := addItemRequest{
		ProductID: entry.ProductID,
		Quantity:  entry.Quantity,
		ColorID:   entry.ColorID,
		SizeID:    entry.SizeID,
	}
	return c.do(ctx, http.MethodPost, "cart/add/", token, req, nil)
}

func (c *Client) UpdateQuantity(ctx context.Context, token, itemID string, quantity int) error {
	req := updateQuantityRequest{ItemID: itemID, Quantity: quantity}
	return c.do(ctx, http.MethodPut, "cart/update-quantity/", token, req, nil)
}

func (c *Client) Remove(ctx context.Context, token, itemID string) error {
	return c.do(ctx, http.MethodDelete, "cart/remove-item/"+itemID+"/", token, nil, nil)
}
