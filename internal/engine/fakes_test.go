package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/snkrtools/snkr-price-watch/internal/scraper"
	"github.com/snkrtools/snkr-price-watch/internal/store"
	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	mu sync.Mutex

	products []domain.Product
	sizes    map[string][]domain.Size              // keyed by product ID
	history  map[string][]domain.PriceHistoryEntry // keyed by size ID
	events   []domain.NotificationEvent
	touched  map[string]time.Time

	scraperSet domain.ScraperSettings
	channelSet domain.ChannelSettings

	applyErr       error
	scraperSetErr  error
	channelSetErr  error
	recordEventErr error

	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sizes:   make(map[string][]domain.Size),
		history: make(map[string][]domain.PriceHistoryEntry),
		touched: make(map[string]time.Time),
		scraperSet: domain.ScraperSettings{
			Username: "user@example.com",
			Password: "hunter2",
		},
		// An enabled channel keeps cycles running; leaving it
		// unconfigured means the dispatcher skips it, so tests that
		// don't care about delivery stay off the network.
		channelSet: domain.ChannelSettings{LineEnabled: true},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// addProduct seeds a tracked product with one size per (label, price, rules)
// entry and returns it.
func (f *fakeStore) addProduct(name, url string, sizes ...domain.Size) *domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := domain.Product{
		ID:      f.id("p"),
		URL:     url,
		Name:    name,
		Active:  true,
		AddedAt: time.Now(),
	}
	for i := range sizes {
		sizes[i].ID = f.id("s")
		sizes[i].ProductID = p.ID
	}
	f.products = append(f.products, p)
	f.sizes[p.ID] = sizes
	return &p
}

func (f *fakeStore) CreateProduct(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p.ID = f.id("p")
	p.AddedAt = time.Now()
	for i := range p.Sizes {
		p.Sizes[i].ID = f.id("s")
		p.Sizes[i].ProductID = p.ID
		f.history[p.Sizes[i].ID] = []domain.PriceHistoryEntry{{
			ID:        f.id("h"),
			SizeID:    p.Sizes[i].ID,
			Price:     p.Sizes[i].CurrentPrice,
			Timestamp: p.AddedAt,
		}}
	}
	f.products = append(f.products, *p)
	f.sizes[p.ID] = append([]domain.Size(nil), p.Sizes...)
	return nil
}

func (f *fakeStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			p.Sizes = append([]domain.Size(nil), f.sizes[p.ID]...)
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetProductByURL(_ context.Context, url string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].URL == url {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListProducts(_ context.Context, activeOnly bool) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == p.ID {
			f.products[i] = *p
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) SetProductActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Active = active
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			delete(f.sizes, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) TouchProductChecked(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[id] = at
	return nil
}

func (f *fakeStore) ListSizes(_ context.Context, productID string) ([]domain.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Size(nil), f.sizes[productID]...), nil
}

func (f *fakeStore) GetSize(_ context.Context, id string) (*domain.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sizes := range f.sizes {
		for i := range sizes {
			if sizes[i].ID == id {
				sz := sizes[i]
				return &sz, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpdateSizeRules(_ context.Context, id string, rules domain.NotifyRules) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pid, sizes := range f.sizes {
		for i := range sizes {
			if sizes[i].ID == id {
				f.sizes[pid][i].NotifyRules = rules
				return nil
			}
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ApplySizePriceChange(
	_ context.Context,
	sizeID string,
	newPrice int,
	at time.Time,
) (*store.PriceChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.applyErr != nil {
		return nil, f.applyErr
	}

	for pid, sizes := range f.sizes {
		for i := range sizes {
			if sizes[i].ID != sizeID {
				continue
			}
			sz := &f.sizes[pid][i]
			old := sz.CurrentPrice
			if old == newPrice {
				return &store.PriceChange{OldPrice: old, NewPrice: newPrice}, nil
			}

			sz.PreviousPrice = old
			sz.CurrentPrice = newPrice
			if sz.LowestPrice == nil || newPrice < *sz.LowestPrice {
				v := newPrice
				sz.LowestPrice = &v
			}
			if sz.HighestPrice == nil || newPrice > *sz.HighestPrice {
				v := newPrice
				sz.HighestPrice = &v
			}
			sz.LastUpdatedAt = &at

			f.history[sizeID] = append(f.history[sizeID], domain.PriceHistoryEntry{
				ID:        f.id("h"),
				SizeID:    sizeID,
				Price:     newPrice,
				Timestamp: at,
			})

			out := *sz
			return &store.PriceChange{
				Size:     &out,
				OldPrice: old,
				NewPrice: newPrice,
				Applied:  true,
			}, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListPriceHistory(
	_ context.Context,
	sizeID string,
	_ int,
) ([]domain.PriceHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PriceHistoryEntry(nil), f.history[sizeID]...), nil
}

func (f *fakeStore) ListProductPriceHistory(
	_ context.Context,
	productID string,
	_ int,
) ([]domain.PriceHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PriceHistoryEntry
	for _, sz := range f.sizes[productID] {
		out = append(out, f.history[sz.ID]...)
	}
	return out, nil
}

func (f *fakeStore) PrunePriceHistory(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for sizeID, entries := range f.history {
		var kept []domain.PriceHistoryEntry
		for _, e := range entries {
			if e.Timestamp.Before(olderThan) {
				deleted++
				continue
			}
			kept = append(kept, e)
		}
		f.history[sizeID] = kept
	}
	return deleted, nil
}

func (f *fakeStore) RecordNotificationEvents(
	_ context.Context,
	events []domain.NotificationEvent,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordEventErr != nil {
		return f.recordEventErr
	}
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeStore) ListNotificationEvents(
	_ context.Context,
	_ int,
) ([]domain.NotificationEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.NotificationEvent(nil), f.events...), nil
}

func (f *fakeStore) GetScraperSettings(_ context.Context) (*domain.ScraperSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scraperSetErr != nil {
		return nil, f.scraperSetErr
	}
	s := f.scraperSet
	return &s, nil
}

func (f *fakeStore) SaveScraperSettings(_ context.Context, s *domain.ScraperSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scraperSet = *s
	return nil
}

func (f *fakeStore) GetChannelSettings(_ context.Context) (*domain.ChannelSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelSetErr != nil {
		return nil, f.channelSetErr
	}
	c := f.channelSet
	return &c, nil
}

func (f *fakeStore) SaveChannelSettings(_ context.Context, c *domain.ChannelSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channelSet = *c
	return nil
}

func (f *fakeStore) Migrate(_ context.Context) error { return nil }
func (f *fakeStore) Ping(_ context.Context) error    { return nil }

func (f *fakeStore) recordedEvents() []domain.NotificationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.NotificationEvent(nil), f.events...)
}

// fakeScraper serves canned prices per product URL.
type fakeScraper struct {
	mu      sync.Mutex
	prices  map[string]map[string]int // URL -> size label -> price
	info    map[string]*domainInfo
	errs    map[string]error
	fetches []string
}

type domainInfo struct {
	name     string
	imageURL string
}

func newFakeScraper() *fakeScraper {
	return &fakeScraper{
		prices: make(map[string]map[string]int),
		info:   make(map[string]*domainInfo),
		errs:   make(map[string]error),
	}
}

func (f *fakeScraper) FetchPrices(_ context.Context, url string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, url)
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	p, ok := f.prices[url]
	if !ok {
		return nil, fmt.Errorf("unknown product %s", url)
	}
	out := make(map[string]int, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out, nil
}

func (f *fakeScraper) FetchProduct(ctx context.Context, url string) (*scraper.ProductInfo, error) {
	prices, err := f.FetchPrices(ctx, url)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	meta := f.info[url]
	f.mu.Unlock()

	info := &scraper.ProductInfo{Name: "Untitled"}
	if meta != nil {
		info.Name = meta.name
		info.ImageURL = meta.imageURL
	}
	labels := make([]string, 0, len(prices))
	for label := range prices {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		info.Sizes = append(info.Sizes, scraper.SizePrice{Label: label, Price: prices[label]})
	}
	return info, nil
}
