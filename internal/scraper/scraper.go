// Package scraper provides a marketplace scraping client abstracted behind
// interfaces for testability.
package scraper

import (
	"context"
	"errors"
)

// ErrNoCredentials is returned when a scrape requires a login session but
// no marketplace credentials have been configured.
var ErrNoCredentials = errors.New("marketplace credentials not configured")

// SizePrice is one size entry on a product page.
type SizePrice struct {
	Label string
	Price int
}

// ProductInfo holds the data scraped from a product page.
type ProductInfo struct {
	Name     string
	ImageURL string
	Sizes    []SizePrice
}

// Scraper defines the interface for fetching marketplace product data.
type Scraper interface {
	// FetchProduct scrapes the full product page: name, image, and the
	// current price of every listed size.
	FetchProduct(ctx context.Context, url string) (*ProductInfo, error)

	// FetchPrices scrapes only the size-to-price map of a product page.
	FetchPrices(ctx context.Context, url string) (map[string]int, error)
}

// CredentialsProvider defines the interface for obtaining marketplace login
// credentials. Implementations may return fresh values per call; settings
// can change while the monitor is running.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (username, password string, err error)
}
