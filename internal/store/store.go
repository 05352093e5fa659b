// Package store defines the datastore abstraction for snkr-price-watch.
// The engine and API handlers depend on the Store interface, never on
// concrete implementations, so business logic is testable without a
// running database.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// PriceChange is the result of applying an observed price to a size.
// Applied is false when the stored price already matched under the row
// lock, meaning a concurrent writer got there first and no history entry
// was appended.
type PriceChange struct {
	Size     *domain.Size
	OldPrice int
	NewPrice int
	Applied  bool
}

// Store defines all data access operations for snkr-price-watch.
type Store interface {
	// Products. CreateProduct persists the product together with its
	// seeded sizes and their initial history entries in one transaction.
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductByURL(ctx context.Context, url string) (*domain.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	SetProductActive(ctx context.Context, id string, active bool) error
	DeleteProduct(ctx context.Context, id string) error
	TouchProductChecked(ctx context.Context, id string, at time.Time) error

	// Sizes
	ListSizes(ctx context.Context, productID string) ([]domain.Size, error)
	GetSize(ctx context.Context, id string) (*domain.Size, error)
	UpdateSizeRules(ctx context.Context, id string, rules domain.NotifyRules) error
	// ApplySizePriceChange atomically appends a history entry and shifts
	// current → previous price, updating extrema and last_updated. The
	// size row is locked for the duration so the monitoring loop and a
	// concurrent manual edit cannot lose an update.
	ApplySizePriceChange(ctx context.Context, sizeID string, newPrice int, at time.Time) (*PriceChange, error)

	// Price history
	ListPriceHistory(ctx context.Context, sizeID string, limit int) ([]domain.PriceHistoryEntry, error)
	ListProductPriceHistory(ctx context.Context, productID string, limit int) ([]domain.PriceHistoryEntry, error)
	PrunePriceHistory(ctx context.Context, olderThan time.Time) (int64, error)

	// Notification history
	RecordNotificationEvents(ctx context.Context, events []domain.NotificationEvent) error
	ListNotificationEvents(ctx context.Context, limit int) ([]domain.NotificationEvent, error)

	// Settings. Getters return zero-value settings when none are stored.
	GetScraperSettings(ctx context.Context) (*domain.ScraperSettings, error)
	SaveScraperSettings(ctx context.Context, s *domain.ScraperSettings) error
	GetChannelSettings(ctx context.Context) (*domain.ChannelSettings, error)
	SaveChannelSettings(ctx context.Context, c *domain.ChannelSettings) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
