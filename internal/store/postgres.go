package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string, poolSize int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	cfg.MaxConns = int32(poolSize)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// mapNotFound translates pgx.ErrNoRows into the package sentinel.
func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// CreateProduct inserts a product and its seeded sizes, writing the initial
// price history entry for each size, all in one transaction.
func (s *PostgresStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	args := pgx.NamedArgs{
		"url":       p.URL,
		"name":      p.Name,
		"image_url": p.ImageURL,
		"is_active": p.Active,
	}
	if err := tx.QueryRow(ctx, queryCreateProduct, args).Scan(&p.ID, &p.AddedAt); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	for i := range p.Sizes {
		sz := &p.Sizes[i]
		sz.ProductID = p.ID

		sizeArgs := pgx.NamedArgs{
			"product_id":     sz.ProductID,
			"size":           sz.Label,
			"current_price":  sz.CurrentPrice,
			"previous_price": sz.PreviousPrice,
			"lowest_price":   sz.LowestPrice,
			"highest_price":  sz.HighestPrice,
			"last_updated":   sz.LastUpdatedAt,
		}
		if err := tx.QueryRow(ctx, queryCreateSize, sizeArgs).Scan(&sz.ID); err != nil {
			return fmt.Errorf("inserting size %q: %w", sz.Label, err)
		}

		if _, err := tx.Exec(ctx, queryInsertPriceHistory,
			sz.ID, sz.CurrentPrice, p.AddedAt,
		); err != nil {
			return fmt.Errorf("seeding price history for size %q: %w", sz.Label, err)
		}
	}

	return tx.Commit(ctx)
}

// GetProduct retrieves a product and its sizes by ID.
func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}
	err := s.pool.QueryRow(ctx, queryGetProduct, id).Scan(
		&p.ID, &p.URL, &p.Name, &p.ImageURL, &p.Active, &p.AddedAt, &p.LastCheckedAt,
	)
	if err != nil {
		return nil, mapNotFound(err)
	}

	sizes, err := s.ListSizes(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("loading sizes: %w", err)
	}
	p.Sizes = sizes

	return p, nil
}

// GetProductByURL retrieves a product by its marketplace URL.
func (s *PostgresStore) GetProductByURL(ctx context.Context, url string) (*domain.Product, error) {
	p := &domain.Product{}
	err := s.pool.QueryRow(ctx, queryGetProductByURL, url).Scan(
		&p.ID, &p.URL, &p.Name, &p.ImageURL, &p.Active, &p.AddedAt, &p.LastCheckedAt,
	)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return p, nil
}

// ListProducts returns all products, optionally filtered to active only.
// Sizes are not populated.
func (s *PostgresStore) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	query := queryListProductsAll
	if activeOnly {
		query = queryListProductsActive
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.URL, &p.Name, &p.ImageURL, &p.Active, &p.AddedAt, &p.LastCheckedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}

	return products, nil
}

// UpdateProduct updates a product's name, image, and active flag.
func (s *PostgresStore) UpdateProduct(ctx context.Context, p *domain.Product) error {
	tag, err := s.pool.Exec(ctx, queryUpdateProduct, p.ID, p.Name, p.ImageURL, p.Active)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetProductActive flips monitoring on or off for a product.
func (s *PostgresStore) SetProductActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, querySetProductActive, id, active)
	if err != nil {
		return fmt.Errorf("setting product active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product; sizes, history, and notification events
// go with it via cascade.
func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, queryDeleteProduct, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchProductChecked records the time a product was last scraped.
func (s *PostgresStore) TouchProductChecked(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx, queryTouchProductChecked, id, at)
	if err != nil {
		return fmt.Errorf("touching product: %w", err)
	}
	return nil
}

// ListSizes returns the sizes of a product ordered by label.
func (s *PostgresStore) ListSizes(ctx context.Context, productID string) ([]domain.Size, error) {
	rows, err := s.pool.Query(ctx, queryListSizes, productID)
	if err != nil {
		return nil, fmt.Errorf("querying sizes: %w", err)
	}
	defer rows.Close()

	var sizes []domain.Size
	for rows.Next() {
		var sz domain.Size
		if err := scanSize(rows, &sz); err != nil {
			return nil, fmt.Errorf("scanning size: %w", err)
		}
		sizes = append(sizes, sz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sizes: %w", err)
	}

	return sizes, nil
}

// GetSize retrieves a single size by ID.
func (s *PostgresStore) GetSize(ctx context.Context, id string) (*domain.Size, error) {
	sz := &domain.Size{}
	if err := scanSize(s.pool.QueryRow(ctx, queryGetSize, id), sz); err != nil {
		return nil, mapNotFound(err)
	}
	return sz, nil
}

// UpdateSizeRules replaces the notification rules of a size.
func (s *PostgresStore) UpdateSizeRules(ctx context.Context, id string, rules domain.NotifyRules) error {
	tag, err := s.pool.Exec(ctx, queryUpdateSizeRules,
		id, rules.Below, rules.Above, rules.OnAnyChange,
	)
	if err != nil {
		return fmt.Errorf("updating size rules: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplySizePriceChange locks the size row, re-checks the stored price, and
// applies the history append plus the price shift as one transaction. The
// re-check under lock means a concurrent edit that already stored the same
// price turns this call into a no-op instead of a duplicate history entry.
func (s *PostgresStore) ApplySizePriceChange(
	ctx context.Context,
	sizeID string,
	newPrice int,
	at time.Time,
) (*PriceChange, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var oldPrice int
	if err := tx.QueryRow(ctx, queryLockSizePrice, sizeID).Scan(&oldPrice); err != nil {
		return nil, mapNotFound(err)
	}

	if oldPrice == newPrice {
		return &PriceChange{OldPrice: oldPrice, NewPrice: newPrice, Applied: false}, nil
	}

	if _, err := tx.Exec(ctx, queryInsertPriceHistory, sizeID, newPrice, at); err != nil {
		return nil, fmt.Errorf("appending price history: %w", err)
	}

	sz := &domain.Size{}
	if err := scanSize(tx.QueryRow(ctx, queryShiftSizePrice, sizeID, newPrice, at), sz); err != nil {
		return nil, fmt.Errorf("shifting size price: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing price change: %w", err)
	}

	return &PriceChange{Size: sz, OldPrice: oldPrice, NewPrice: newPrice, Applied: true}, nil
}

// ListPriceHistory returns history entries for a size, newest first.
func (s *PostgresStore) ListPriceHistory(
	ctx context.Context,
	sizeID string,
	limit int,
) ([]domain.PriceHistoryEntry, error) {
	return s.queryHistory(ctx, queryListPriceHistory, sizeID, limit)
}

// ListProductPriceHistory returns history entries across all sizes of a
// product, newest first.
func (s *PostgresStore) ListProductPriceHistory(
	ctx context.Context,
	productID string,
	limit int,
) ([]domain.PriceHistoryEntry, error) {
	return s.queryHistory(ctx, queryListProductPriceHistory, productID, limit)
}

func (s *PostgresStore) queryHistory(
	ctx context.Context,
	query string,
	id string,
	limit int,
) ([]domain.PriceHistoryEntry, error) {
	rows, err := s.pool.Query(ctx, query, id, limit)
	if err != nil {
		return nil, fmt.Errorf("querying price history: %w", err)
	}
	defer rows.Close()

	var entries []domain.PriceHistoryEntry
	for rows.Next() {
		var e domain.PriceHistoryEntry
		if err := rows.Scan(&e.ID, &e.SizeID, &e.Price, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning price history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating price history: %w", err)
	}

	return entries, nil
}

// PrunePriceHistory removes history entries older than the cutoff and
// returns the number of rows deleted.
func (s *PostgresStore) PrunePriceHistory(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, queryPrunePriceHistory, olderThan)
	if err != nil {
		return 0, fmt.Errorf("pruning price history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecordNotificationEvents appends one history record per delivered channel.
func (s *PostgresStore) RecordNotificationEvents(
	ctx context.Context,
	events []domain.NotificationEvent,
) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range events {
		e := &events[i]
		batch.Queue(queryInsertNotificationEvent,
			e.ProductID, e.SizeID, e.OldPrice, e.NewPrice,
			string(e.Kind), e.Channel, e.Timestamp,
		)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("recording notification events: %w", err)
	}
	return nil
}

// ListNotificationEvents returns notification history, newest first.
func (s *PostgresStore) ListNotificationEvents(
	ctx context.Context,
	limit int,
) ([]domain.NotificationEvent, error) {
	rows, err := s.pool.Query(ctx, queryListNotificationEvents, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notification events: %w", err)
	}
	defer rows.Close()

	var events []domain.NotificationEvent
	for rows.Next() {
		var e domain.NotificationEvent
		if err := rows.Scan(
			&e.ID, &e.ProductID, &e.SizeID, &e.OldPrice, &e.NewPrice,
			&e.Kind, &e.Channel, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scanning notification event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification events: %w", err)
	}

	return events, nil
}

// GetScraperSettings returns the stored scraper settings, or zero-value
// settings when none have been saved yet.
func (s *PostgresStore) GetScraperSettings(ctx context.Context) (*domain.ScraperSettings, error) {
	set := &domain.ScraperSettings{}
	err := s.pool.QueryRow(ctx, queryGetScraperSettings).Scan(
		&set.Username, &set.Password, &set.IntervalSeconds,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.ScraperSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying scraper settings: %w", err)
	}
	return set, nil
}

// SaveScraperSettings upserts the single scraper settings row.
func (s *PostgresStore) SaveScraperSettings(ctx context.Context, set *domain.ScraperSettings) error {
	_, err := s.pool.Exec(ctx, querySaveScraperSettings,
		set.Username, set.Password, set.IntervalSeconds,
	)
	if err != nil {
		return fmt.Errorf("saving scraper settings: %w", err)
	}
	return nil
}

// GetChannelSettings returns the stored channel settings, or zero-value
// settings when none have been saved yet.
func (s *PostgresStore) GetChannelSettings(ctx context.Context) (*domain.ChannelSettings, error) {
	set := &domain.ChannelSettings{}
	err := s.pool.QueryRow(ctx, queryGetChannelSettings).Scan(
		&set.LineEnabled, &set.LineToken, &set.LineUserID,
		&set.DiscordEnabled, &set.DiscordWebhook,
		&set.ChatworkEnabled, &set.ChatworkToken, &set.ChatworkRoomID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.ChannelSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying channel settings: %w", err)
	}
	return set, nil
}

// SaveChannelSettings upserts the single channel settings row.
func (s *PostgresStore) SaveChannelSettings(ctx context.Context, set *domain.ChannelSettings) error {
	_, err := s.pool.Exec(ctx, querySaveChannelSettings,
		set.LineEnabled, set.LineToken, set.LineUserID,
		set.DiscordEnabled, set.DiscordWebhook,
		set.ChatworkEnabled, set.ChatworkToken, set.ChatworkRoomID,
	)
	if err != nil {
		return fmt.Errorf("saving channel settings: %w", err)
	}
	return nil
}

// scanSize scans a size row in the canonical column order.
func scanSize(row pgx.Row, sz *domain.Size) error {
	return row.Scan(
		&sz.ID, &sz.ProductID, &sz.Label, &sz.CurrentPrice, &sz.PreviousPrice,
		&sz.LowestPrice, &sz.HighestPrice,
		&sz.Below, &sz.Above, &sz.OnAnyChange, &sz.LastUpdatedAt,
	)
}
