package upstream

import (
	"context"
	"net/http"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
)

var _ domain.CatalogGateway = (*Client)(nil)

type attributeOptionDTO struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type attributesResponse struct {
	Colors []attributeOptionDTO `json:"colors"`
	Sizes  []attributeOptionDTO `json:"sizes"`
}

type productResponse struct {
	Product struct {
		ID        string   `json:"_id"`
		Name      string   `json:"name"`
		Price     float64  `json:"price"`
		ImageURLs []string `json:"image_urls"`
		ColorIDs  []string `json:"color_ids"`
		SizeIDs   []string `json:"size_ids"`
		Stock     int      `json:"stock"`
	} `json:"product"`
}

// FetchAttributes pulls the global color/size reference set.
func (c *Client) FetchAttributes(ctx context.Context) (*domain.AttributeReferenceSet, error) {
	var resp attributesResponse
	if err := c.do(ctx, http.MethodGet, "products/get-attributes/", "", nil, &resp); err != nil {
		return nil, err
	}

	return &domain.AttributeReferenceSet{
		Colors: toOptions(resp.Colors),
		Sizes:  toOptions(resp.Sizes),
	}, nil
}

func toOptions(dtos []attributeOptionDTO) []domain.AttributeOption {
	options := make([]domain.AttributeOption, 0, len(dtos))
	for _, dto := range dtos {
		options = append(options, domain.AttributeOption{ID: dto.ID, Name: dto.Name})
	}
	return options
}

// FetchProduct pulls the display slice of one product.
func (c *Client) FetchProduct(ctx context.Context, productID string) (*domain.ProductSummary, error) {
	var resp productResponse
	if err := c.do(ctx, http.MethodGet, "products/product-details/"+productID, "", nil, &resp); err != nil {
		return nil, err
	}

	return &domain.ProductSummary{
		ID:        resp.Product.ID,
		Name:      resp.Product.Name,
		Price:     resp.Product.Price,
		ImageURLs: resp.Product.ImageURLs,
		ColorIDs:  resp.Product.ColorIDs,
		SizeIDs:   resp.Product.SizeIDs,
		Stock:     resp.Product.Stock,
	}, nil
}
