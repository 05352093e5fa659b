package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snkrtools/snkr-price-watch/internal/api/handlers"
	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// mockSettingsProvider is a test double for SettingsProvider.
type mockSettingsProvider struct {
	scraper  domain.ScraperSettings
	channels domain.ChannelSettings
	err      error
}

func (m *mockSettingsProvider) GetScraperSettings(_ context.Context) (*domain.ScraperSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	set := m.scraper
	return &set, nil
}

func (m *mockSettingsProvider) SaveScraperSettings(_ context.Context, set *domain.ScraperSettings) error {
	if m.err != nil {
		return m.err
	}
	m.scraper = *set
	return nil
}

func (m *mockSettingsProvider) GetChannelSettings(_ context.Context) (*domain.ChannelSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	set := m.channels
	return &set, nil
}

func (m *mockSettingsProvider) SaveChannelSettings(_ context.Context, set *domain.ChannelSettings) error {
	if m.err != nil {
		return m.err
	}
	m.channels = *set
	return nil
}

func TestGetScraperSettings_Unset(t *testing.T) {
	t.Parallel()

	h := handlers.NewSettingsHandler(&mockSettingsProvider{})

	_, api := humatest.New(t)
	handlers.RegisterSettingsRoutes(api, h)

	resp := api.Get("/api/v1/settings/scraper")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"monitoring_interval":0`)
}

func TestSaveScraperSettings_RoundTrip(t *testing.T) {
	t.Parallel()

	provider := &mockSettingsProvider{}
	h := handlers.NewSettingsHandler(provider)

	_, api := humatest.New(t)
	handlers.RegisterSettingsRoutes(api, h)

	resp := api.Put("/api/v1/settings/scraper", map[string]any{
		"username":            "user@example.com",
		"password":            "hunter2",
		"monitoring_interval": 120,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "user@example.com", provider.scraper.Username)
	assert.Equal(t, 120, provider.scraper.IntervalSeconds)

	resp = api.Get("/api/v1/settings/scraper")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "user@example.com")
	assert.Contains(t, resp.Body.String(), "120")
}

func TestSaveScraperSettings_NegativeIntervalRejected(t *testing.T) {
	t.Parallel()

	h := handlers.NewSettingsHandler(&mockSettingsProvider{})

	_, api := humatest.New(t)
	handlers.RegisterSettingsRoutes(api, h)

	resp := api.Put("/api/v1/settings/scraper", map[string]any{
		"username":            "user@example.com",
		"password":            "hunter2",
		"monitoring_interval": -5,
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestSaveScraperSettings_StoreError(t *testing.T) {
	t.Parallel()

	h := handlers.NewSettingsHandler(&mockSettingsProvider{err: errors.New("db error")})

	_, api := humatest.New(t)
	handlers.RegisterSettingsRoutes(api, h)

	resp := api.Put("/api/v1/settings/scraper", map[string]any{
		"username": "user@example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestSaveChannelSettings_RoundTrip(t *testing.T) {
	t.Parallel()

	provider := &mockSettingsProvider{}
	h := handlers.NewSettingsHandler(provider)

	_, api := humatest.New(t)
	handlers.RegisterSettingsRoutes(api, h)

	resp := api.Put("/api/v1/settings/notifications", map[string]any{
		"discord_enabled": true,
		"discord_webhook": "https://discord.com/api/webhooks/1/abc",
		"line_enabled":    false,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, provider.channels.DiscordEnabled)
	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", provider.channels.DiscordWebhook)
	assert.False(t, provider.channels.LineEnabled)

	resp = api.Get("/api/v1/settings/notifications")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "discord.com/api/webhooks")
}

func TestGetChannelSettings_Error(t *testing.T) {
	t.Parallel()

	h := handlers.NewSettingsHandler(&mockSettingsProvider{err: errors.New("db error")})

	_, api := humatest.New(t)
	handlers.RegisterSettingsRoutes(api, h)

	resp := api.Get("/api/v1/settings/notifications")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
