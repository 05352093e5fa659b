package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/snkrtools/snkr-price-watch/internal/metrics"
	"github.com/snkrtools/snkr-price-watch/internal/notify"
	"github.com/snkrtools/snkr-price-watch/internal/scraper"
	"github.com/snkrtools/snkr-price-watch/internal/store"
	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

const (
	defaultMinInterval   = 5 * time.Second
	defaultInterval      = 60 * time.Second
	defaultScrapeTimeout = 30 * time.Second
)

var (
	// ErrAlreadyRunning is returned by Start when the loop is active.
	ErrAlreadyRunning = errors.New("monitor already running")

	// ErrNotRunning is returned by Stop when the loop is not active.
	ErrNotRunning = errors.New("monitor not running")

	// ErrProductExists is returned by TrackProduct for an already
	// tracked marketplace URL.
	ErrProductExists = errors.New("product already tracked")
)

// Monitor owns the price monitoring loop. One instance serves the whole
// process; Start and Stop are safe for concurrent use.
type Monitor struct {
	store      store.Store
	scraper    scraper.Scraper
	dispatcher *notify.Dispatcher
	log        *slog.Logger
	tracer     trace.Tracer

	minInterval   time.Duration
	scrapeTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// MonitorOption configures the Monitor.
type MonitorOption func(*Monitor)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.log = l
	}
}

// WithMinInterval sets the floor applied to the configured cycle interval.
func WithMinInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.minInterval = d
	}
}

// WithScrapeTimeout bounds the scrape of a single product page.
func WithScrapeTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.scrapeTimeout = d
	}
}

// NewMonitor creates a Monitor with injected dependencies.
func NewMonitor(
	s store.Store,
	sc scraper.Scraper,
	d *notify.Dispatcher,
	opts ...MonitorOption,
) *Monitor {
	m := &Monitor{
		store:         s,
		scraper:       sc,
		dispatcher:    d,
		log:           slog.Default(),
		tracer:        otel.Tracer("snkr-price-watch/engine"),
		minInterval:   defaultMinInterval,
		scrapeTimeout: defaultScrapeTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the monitoring loop. It returns ErrAlreadyRunning if the
// loop is already active. The loop's lifetime is detached from ctx: only
// Stop ends it. A start triggered over the API must not die with its
// request context.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.done = make(chan struct{})

	metrics.MonitorRunning.Set(1)
	m.log.Info("monitor starting")

	go m.run(runCtx, m.done)
	return nil
}

// Stop cancels the loop and waits for the in-flight cycle to unwind.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}

	cancel()
	<-done

	metrics.MonitorRunning.Set(0)
	m.log.Info("monitor stopped")
	return nil
}

// IsRunning reports whether the loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	// If the loop exits on its own, release the handle so IsRunning
	// turns false and a later Start is not refused. Stop clears the
	// fields first, so this only fires for an unsolicited exit.
	defer func() {
		m.mu.Lock()
		if m.done == done {
			m.cancel = nil
			m.done = nil
			metrics.MonitorRunning.Set(0)
		}
		m.mu.Unlock()
		close(done)
	}()

	for {
		if err := m.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.log.Error("monitoring cycle failed", "error", err)
		}
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval(ctx)):
		}
	}
}

// interval reads the configured cycle interval from settings, applying
// defaults and the minimum floor.
func (m *Monitor) interval(ctx context.Context) time.Duration {
	set, err := m.store.GetScraperSettings(ctx)
	if err != nil {
		m.log.Error("reading scraper settings", "error", err)
		return defaultInterval
	}

	if set.IntervalSeconds <= 0 {
		return defaultInterval
	}

	d := time.Duration(set.IntervalSeconds) * time.Second
	if d < m.minInterval {
		m.log.Warn("configured interval below minimum, clamping",
			"configured", d,
			"minimum", m.minInterval,
		)
		return m.minInterval
	}
	return d
}

// RunCycle executes one monitoring pass over all active products. A
// product failing to scrape or persist never stops the rest of the cycle.
func (m *Monitor) RunCycle(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "monitor.cycle")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.MonitorCycleDuration.Observe(time.Since(start).Seconds())
	}()
	metrics.MonitorCyclesTotal.Inc()

	scSet, err := m.store.GetScraperSettings(ctx)
	if err != nil {
		return fmt.Errorf("reading scraper settings: %w", err)
	}
	if !scSet.HasCredentials() {
		// Without credentials every scrape would fail; skip the whole
		// pass and keep the loop alive for when they get configured.
		m.log.Error("marketplace credentials not configured, skipping cycle")
		return nil
	}

	chSet, err := m.store.GetChannelSettings(ctx)
	if err != nil {
		return fmt.Errorf("reading channel settings: %w", err)
	}
	if !chSet.AnyEnabled() {
		m.log.Error("no notification channels enabled, skipping cycle")
		return nil
	}
	channels := notify.FromSettings(chSet)

	products, err := m.store.ListProducts(ctx, true)
	if err != nil {
		return fmt.Errorf("listing active products: %w", err)
	}
	span.SetAttributes(attribute.Int("products", len(products)))

	for i := range products {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p := &products[i]
		if err := m.processProduct(ctx, p, channels); err != nil {
			metrics.ScrapeFailuresTotal.Inc()
			m.log.Error("product check failed",
				"product", p.Name,
				"id", p.ID,
				"error", err,
			)
			continue
		}

		if err := m.store.TouchProductChecked(ctx, p.ID, time.Now()); err != nil {
			m.log.Error("recording check time failed", "id", p.ID, "error", err)
		}
	}

	m.log.Debug("monitoring cycle complete",
		"products", len(products),
		"duration", time.Since(start),
	)
	return nil
}

func (m *Monitor) processProduct(
	ctx context.Context,
	p *domain.Product,
	channels []notify.Channel,
) error {
	ctx, span := m.tracer.Start(ctx, "monitor.product",
		trace.WithAttributes(attribute.String("product.id", p.ID)))
	defer span.End()

	scrapeCtx, cancel := context.WithTimeout(ctx, m.scrapeTimeout)
	prices, err := m.scraper.FetchPrices(scrapeCtx, p.URL)
	cancel()
	if err != nil {
		return fmt.Errorf("scraping %s: %w", p.URL, err)
	}

	sizes, err := m.store.ListSizes(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("listing sizes: %w", err)
	}

	for i := range sizes {
		sz := &sizes[i]
		newPrice, ok := prices[sz.Label]
		if !ok {
			// Size no longer listed; keep the last known price.
			continue
		}
		if newPrice == sz.CurrentPrice {
			continue
		}

		m.applyChange(ctx, p, sz, newPrice, channels)
	}

	return nil
}

// applyChange persists one size's price change and, when the size's rules
// say so, notifies. Notification only happens after the change is durably
// stored; a persist failure leaves the old price in place so the change
// is re-detected next cycle.
func (m *Monitor) applyChange(
	ctx context.Context,
	p *domain.Product,
	sz *domain.Size,
	newPrice int,
	channels []notify.Channel,
) {
	change, err := m.store.ApplySizePriceChange(ctx, sz.ID, newPrice, time.Now())
	if err != nil {
		metrics.PersistFailuresTotal.Inc()
		m.log.Error("persisting price change failed",
			"product", p.Name,
			"size", sz.Label,
			"error", err,
		)
		return
	}
	if !change.Applied {
		return
	}

	metrics.PriceChangesTotal.Inc()
	m.log.Info("price changed",
		"product", p.Name,
		"size", sz.Label,
		"old", change.OldPrice,
		"new", change.NewPrice,
	)

	kind, fire := Evaluate(change.OldPrice, change.NewPrice, sz.NotifyRules)
	if !fire {
		return
	}

	text := notify.RenderPriceChange(p, sz.Label, change.OldPrice, change.NewPrice)
	delivered := m.dispatcher.Dispatch(ctx, channels, text)
	if len(delivered) == 0 {
		return
	}

	now := time.Now()
	events := make([]domain.NotificationEvent, 0, len(delivered))
	for _, channel := range delivered {
		events = append(events, domain.NotificationEvent{
			ProductID: p.ID,
			SizeID:    sz.ID,
			OldPrice:  change.OldPrice,
			NewPrice:  change.NewPrice,
			Kind:      kind,
			Channel:   channel,
			Timestamp: now,
		})
	}

	if err := m.store.RecordNotificationEvents(ctx, events); err != nil {
		m.log.Error("recording notification events failed",
			"product", p.Name,
			"size", sz.Label,
			"error", err,
		)
	}
}

// TrackProduct scrapes a product page for the first time and starts
// tracking it: every listed size is created with the scraped price as both
// current and previous, and as the initial low/high watermark.
func (m *Monitor) TrackProduct(ctx context.Context, url string) (*domain.Product, error) {
	if _, err := m.store.GetProductByURL(ctx, url); err == nil {
		return nil, ErrProductExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking existing product: %w", err)
	}

	scrapeCtx, cancel := context.WithTimeout(ctx, m.scrapeTimeout)
	info, err := m.scraper.FetchProduct(scrapeCtx, url)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("scraping %s: %w", url, err)
	}

	now := time.Now()
	p := &domain.Product{
		URL:      url,
		Name:     info.Name,
		ImageURL: info.ImageURL,
		Active:   true,
	}
	for _, sp := range info.Sizes {
		price := sp.Price
		p.Sizes = append(p.Sizes, domain.Size{
			Label:         sp.Label,
			CurrentPrice:  price,
			PreviousPrice: price,
			LowestPrice:   &price,
			HighestPrice:  &price,
			LastUpdatedAt: &now,
		})
	}

	if err := m.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	m.log.Info("tracking new product",
		"product", p.Name,
		"id", p.ID,
		"sizes", len(p.Sizes),
	)
	return p, nil
}
