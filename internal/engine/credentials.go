package engine

import (
	"context"
	"fmt"

	"github.com/snkrtools/snkr-price-watch/internal/store"
)

// StoreCredentials adapts the settings store to the scraper's
// CredentialsProvider, so credential changes through the settings API
// reach the scraper on its next login.
type StoreCredentials struct {
	store store.Store
}

// NewStoreCredentials creates a StoreCredentials backed by s.
func NewStoreCredentials(s store.Store) *StoreCredentials {
	return &StoreCredentials{store: s}
}

// Credentials returns the stored marketplace username and password.
// Unset settings come back as empty strings; the scraper decides how to
// handle that.
func (c *StoreCredentials) Credentials(ctx context.Context) (string, string, error) {
	set, err := c.store.GetScraperSettings(ctx)
	if err != nil {
		return "", "", fmt.Errorf("loading scraper settings: %w", err)
	}
	return set.Username, set.Password, nil
}
