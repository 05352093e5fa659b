package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/snkrtools/snkr-price-watch/internal/metrics"
)

const (
	defaultBaseURL   = "https://snkrdunk.com"
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 2.0
	defaultBurst     = 4
)

// Client implements Scraper against the marketplace's HTML pages. Product
// pages require an authenticated session; the client logs in lazily with
// the credentials from its provider and re-authenticates once when the
// session expires mid-run.
type Client struct {
	creds   CredentialsProvider
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	loggedIn bool
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the default marketplace base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default HTTP client. The client's jar is
// replaced so session cookies survive across requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimit sets the sustained requests-per-second and burst allowance
// for outgoing marketplace requests.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a marketplace scraping client.
func NewClient(creds CredentialsProvider, opts ...Option) *Client {
	c := &Client{
		creds:   creds,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client.Jar == nil {
		// cookiejar.New only errors on bad PublicSuffixList options.
		jar, _ := cookiejar.New(nil)
		c.client.Jar = jar
	}

	return c
}

// FetchProduct implements Scraper.FetchProduct.
func (c *Client) FetchProduct(ctx context.Context, pageURL string) (*ProductInfo, error) {
	body, err := c.getPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	info, err := parseProductPage(body)
	if err != nil {
		return nil, fmt.Errorf("parsing product page %s: %w", pageURL, err)
	}

	c.logger.Debug("scraped product page",
		"url", pageURL,
		"name", info.Name,
		"sizes", len(info.Sizes),
	)

	return info, nil
}

// FetchPrices implements Scraper.FetchPrices.
func (c *Client) FetchPrices(ctx context.Context, pageURL string) (map[string]int, error) {
	info, err := c.FetchProduct(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]int, len(info.Sizes))
	for _, sz := range info.Sizes {
		prices[sz.Label] = sz.Price
	}
	return prices, nil
}

// getPage fetches an authenticated page, logging in first if needed and
// retrying once on a session rejection.
func (c *Client) getPage(ctx context.Context, pageURL string) (string, error) {
	if err := c.ensureSession(ctx); err != nil {
		return "", err
	}

	body, status, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.logger.Info("marketplace session expired, re-authenticating")
		c.resetSession()
		if err := c.ensureSession(ctx); err != nil {
			return "", err
		}
		body, status, err = c.get(ctx, pageURL)
		if err != nil {
			return "", err
		}
	}

	if status != http.StatusOK {
		return "", fmt.Errorf("marketplace returned status %d for %s", status, pageURL)
	}

	return body, nil
}

func (c *Client) get(ctx context.Context, pageURL string) (string, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("rate limit: %w", err)
	}
	metrics.MarketRequestsTotal.Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", 0, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("reading response body: %w", err)
	}

	return string(body), resp.StatusCode, nil
}

// ensureSession logs in if no session is active.
func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loggedIn {
		return nil
	}

	username, password, err := c.creds.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("getting credentials: %w", err)
	}
	if username == "" || password == "" {
		return ErrNoCredentials
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	metrics.MarketRequestsTotal.Inc()

	form := url.Values{}
	form.Set("email", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // body content is irrelevant

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	c.logger.Info("logged in to marketplace", "user", username)
	c.loggedIn = true
	return nil
}

func (c *Client) resetSession() {
	c.mu.Lock()
	c.loggedIn = false
	c.mu.Unlock()
}
