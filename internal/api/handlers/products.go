package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/snkrtools/snkr-price-watch/internal/engine"
	"github.com/snkrtools/snkr-price-watch/internal/scraper"
	"github.com/snkrtools/snkr-price-watch/internal/store"
	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// ProductsProvider defines the store methods required by the products
// handler.
type ProductsProvider interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	SetProductActive(ctx context.Context, id string, active bool) error
	DeleteProduct(ctx context.Context, id string) error
	ListProductPriceHistory(ctx context.Context, productID string, limit int) ([]domain.PriceHistoryEntry, error)
}

// ProductTracker starts tracking a product URL by scraping it for the
// first time.
type ProductTracker interface {
	TrackProduct(ctx context.Context, url string) (*domain.Product, error)
}

// ProductsHandler handles tracked product requests.
type ProductsHandler struct {
	store   ProductsProvider
	tracker ProductTracker
}

// NewProductsHandler creates a new ProductsHandler.
func NewProductsHandler(s ProductsProvider, tr ProductTracker) *ProductsHandler {
	return &ProductsHandler{store: s, tracker: tr}
}

// ListProductsInput is the query for listing products.
type ListProductsInput struct {
	Active bool `query:"active" doc:"Only products with monitoring enabled"`
}

// ListProductsOutput is the response body for listing products.
type ListProductsOutput struct {
	Body []domain.Product
}

// List returns all tracked products.
func (h *ProductsHandler) List(
	ctx context.Context,
	input *ListProductsInput,
) (*ListProductsOutput, error) {
	products, err := h.store.ListProducts(ctx, input.Active)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing products failed: " + err.Error())
	}

	if products == nil {
		products = []domain.Product{}
	}

	return &ListProductsOutput{Body: products}, nil
}

// GetProductInput is the request path for a single product.
type GetProductInput struct {
	ID string `path:"id" doc:"Product UUID"`
}

// GetProductOutput is the response body for a single product.
type GetProductOutput struct {
	Body domain.Product
}

// Get returns one product including its sizes.
func (h *ProductsHandler) Get(
	ctx context.Context,
	input *GetProductInput,
) (*GetProductOutput, error) {
	p, err := h.store.GetProduct(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("product not found")
		}
		return nil, huma.Error500InternalServerError("fetching product failed: " + err.Error())
	}

	return &GetProductOutput{Body: *p}, nil
}

// CreateProductInput is the request body for tracking a new product.
type CreateProductInput struct {
	Body struct {
		URL string `json:"url" minLength:"1" doc:"Marketplace product page URL"`
	}
}

// CreateProductOutput is the response body for a newly tracked product.
type CreateProductOutput struct {
	Body domain.Product
}

// Create scrapes the product page and starts tracking it. Every size
// currently listed is seeded with its scraped price.
func (h *ProductsHandler) Create(
	ctx context.Context,
	input *CreateProductInput,
) (*CreateProductOutput, error) {
	p, err := h.tracker.TrackProduct(ctx, input.Body.URL)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrProductExists):
			return nil, huma.Error409Conflict("product already tracked")
		case errors.Is(err, scraper.ErrNoCredentials):
			return nil, huma.Error400BadRequest(
				"marketplace credentials not configured; set them via /api/v1/settings/scraper")
		default:
			return nil, huma.Error502BadGateway("scraping product failed: " + err.Error())
		}
	}

	return &CreateProductOutput{Body: *p}, nil
}

// UpdateProductInput is the request for updating product fields.
type UpdateProductInput struct {
	ID   string `path:"id" doc:"Product UUID"`
	Body struct {
		Name     string `json:"name,omitempty" doc:"Display name"`
		ImageURL string `json:"image_url,omitempty" doc:"Image URL"`
		Active   *bool  `json:"is_active,omitempty" doc:"Monitoring enabled"`
	}
}

// UpdateProductOutput is the response body for an updated product.
type UpdateProductOutput struct {
	Body domain.Product
}

// Update changes a product's name, image, or active flag. Omitted fields
// keep their stored values.
func (h *ProductsHandler) Update(
	ctx context.Context,
	input *UpdateProductInput,
) (*UpdateProductOutput, error) {
	p, err := h.store.GetProduct(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("product not found")
		}
		return nil, huma.Error500InternalServerError("fetching product failed: " + err.Error())
	}

	if input.Body.Name != "" {
		p.Name = input.Body.Name
	}
	if input.Body.ImageURL != "" {
		p.ImageURL = input.Body.ImageURL
	}
	if input.Body.Active != nil {
		p.Active = *input.Body.Active
	}

	if err := h.store.UpdateProduct(ctx, p); err != nil {
		return nil, huma.Error500InternalServerError("updating product failed: " + err.Error())
	}

	return &UpdateProductOutput{Body: *p}, nil
}

// SetProductActiveInput is the request for toggling monitoring.
type SetProductActiveInput struct {
	ID   string `path:"id" doc:"Product UUID"`
	Body struct {
		Active bool `json:"is_active" doc:"Monitoring enabled"`
	}
}

// SetActiveOutput is the status response for toggling monitoring.
type SetActiveOutput struct {
	Body struct {
		Status string `json:"status" example:"updated"`
	}
}

// SetActive enables or disables monitoring for a product. A disabled
// product keeps its last known prices.
func (h *ProductsHandler) SetActive(
	ctx context.Context,
	input *SetProductActiveInput,
) (*SetActiveOutput, error) {
	if err := h.store.SetProductActive(ctx, input.ID, input.Body.Active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("product not found")
		}
		return nil, huma.Error500InternalServerError("setting product active failed: " + err.Error())
	}

	resp := &SetActiveOutput{}
	resp.Body.Status = "updated"
	return resp, nil
}

// DeleteProductInput is the request path for deleting a product.
type DeleteProductInput struct {
	ID string `path:"id" doc:"Product UUID"`
}

// Delete removes a product with its sizes, history, and notifications.
func (h *ProductsHandler) Delete(
	ctx context.Context,
	input *DeleteProductInput,
) (*struct{}, error) {
	if err := h.store.DeleteProduct(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("product not found")
		}
		return nil, huma.Error500InternalServerError("deleting product failed: " + err.Error())
	}
	return nil, nil
}

// ProductHistoryInput is the request for a product's price history.
type ProductHistoryInput struct {
	ID    string `path:"id" doc:"Product UUID"`
	Limit int    `query:"limit" default:"100" minimum:"1" maximum:"1000" doc:"Maximum entries"`
}

// ProductHistoryOutput is the response body for price history.
type ProductHistoryOutput struct {
	Body []domain.PriceHistoryEntry
}

// History returns price history across all sizes of a product, newest
// first.
func (h *ProductsHandler) History(
	ctx context.Context,
	input *ProductHistoryInput,
) (*ProductHistoryOutput, error) {
	if _, err := h.store.GetProduct(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("product not found")
		}
		return nil, huma.Error500InternalServerError("fetching product failed: " + err.Error())
	}

	entries, err := h.store.ListProductPriceHistory(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("fetching price history failed: " + err.Error())
	}

	if entries == nil {
		entries = []domain.PriceHistoryEntry{}
	}

	return &ProductHistoryOutput{Body: entries}, nil
}

// RegisterProductRoutes registers product endpoints with the Huma API.
func RegisterProductRoutes(api huma.API, h *ProductsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List tracked products",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-product",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get a tracked product with its sizes",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID:   "create-product",
		Method:        http.MethodPost,
		Path:          "/api/v1/products",
		Summary:       "Track a new product",
		Description:   "Scrapes the product page and seeds every listed size with its current price.",
		Tags:          []string{"products"},
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusConflict,
			http.StatusBadGateway,
		},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "update-product",
		Method:      http.MethodPut,
		Path:        "/api/v1/products/{id}",
		Summary:     "Update product fields",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID: "set-product-active",
		Method:      http.MethodPut,
		Path:        "/api/v1/products/{id}/active",
		Summary:     "Enable or disable monitoring for a product",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.SetActive)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-product",
		Method:        http.MethodDelete,
		Path:          "/api/v1/products/{id}",
		Summary:       "Stop tracking a product",
		Tags:          []string{"products"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "get-product-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}/history",
		Summary:     "Get a product's price history",
		Description: "Price history entries across all sizes, newest first.",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.History)
}
