package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// SettingsProvider defines the store methods required by the settings
// handler.
type SettingsProvider interface {
	GetScraperSettings(ctx context.Context) (*domain.ScraperSettings, error)
	SaveScraperSettings(ctx context.Context, set *domain.ScraperSettings) error
	GetChannelSettings(ctx context.Context) (*domain.ChannelSettings, error)
	SaveChannelSettings(ctx context.Context, set *domain.ChannelSettings) error
}

// SettingsHandler serves scraper and notification-channel settings.
type SettingsHandler struct {
	store SettingsProvider
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s SettingsProvider) *SettingsHandler {
	return &SettingsHandler{store: s}
}

// ScraperSettingsOutput wraps the scraper settings response body.
type ScraperSettingsOutput struct {
	Body domain.ScraperSettings
}

// GetScraper returns the stored marketplace credentials and polling
// interval. Unset settings come back as zero values.
func (h *SettingsHandler) GetScraper(
	ctx context.Context,
	_ *struct{},
) (*ScraperSettingsOutput, error) {
	set, err := h.store.GetScraperSettings(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("loading scraper settings failed: " + err.Error())
	}

	return &ScraperSettingsOutput{Body: *set}, nil
}

// SaveScraperSettingsInput is the request body for updating scraper
// settings.
type SaveScraperSettingsInput struct {
	Body struct {
		Username        string `json:"username" doc:"Marketplace account email"`
		Password        string `json:"password" doc:"Marketplace account password"`
		IntervalSeconds int    `json:"monitoring_interval" minimum:"0" doc:"Seconds between monitoring cycles; 0 uses the default"`
	}
}

// SaveScraper replaces the stored scraper settings. The monitor picks up
// a changed interval on its next loop pass without a restart.
func (h *SettingsHandler) SaveScraper(
	ctx context.Context,
	input *SaveScraperSettingsInput,
) (*ScraperSettingsOutput, error) {
	set := &domain.ScraperSettings{
		Username:        input.Body.Username,
		Password:        input.Body.Password,
		IntervalSeconds: input.Body.IntervalSeconds,
	}

	if err := h.store.SaveScraperSettings(ctx, set); err != nil {
		return nil, huma.Error500InternalServerError("saving scraper settings failed: " + err.Error())
	}

	return &ScraperSettingsOutput{Body: *set}, nil
}

// ChannelSettingsOutput wraps the channel settings response body.
type ChannelSettingsOutput struct {
	Body domain.ChannelSettings
}

// GetChannels returns the stored notification channel configuration.
func (h *SettingsHandler) GetChannels(
	ctx context.Context,
	_ *struct{},
) (*ChannelSettingsOutput, error) {
	set, err := h.store.GetChannelSettings(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("loading channel settings failed: " + err.Error())
	}

	return &ChannelSettingsOutput{Body: *set}, nil
}

// SaveChannelSettingsInput is the request body for updating channel
// settings.
type SaveChannelSettingsInput struct {
	Body domain.ChannelSettings
}

// SaveChannels replaces the stored channel configuration. Channels are
// rebuilt from these settings at the start of every monitoring cycle, so
// changes take effect without restarting the monitor.
func (h *SettingsHandler) SaveChannels(
	ctx context.Context,
	input *SaveChannelSettingsInput,
) (*ChannelSettingsOutput, error) {
	set := input.Body

	if err := h.store.SaveChannelSettings(ctx, &set); err != nil {
		return nil, huma.Error500InternalServerError("saving channel settings failed: " + err.Error())
	}

	return &ChannelSettingsOutput{Body: set}, nil
}

// RegisterSettingsRoutes registers settings endpoints with the Huma API.
func RegisterSettingsRoutes(api huma.API, h *SettingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-scraper-settings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings/scraper",
		Summary:     "Get scraper settings",
		Tags:        []string{"settings"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.GetScraper)

	huma.Register(api, huma.Operation{
		OperationID: "save-scraper-settings",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/scraper",
		Summary:     "Update scraper settings",
		Tags:        []string{"settings"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.SaveScraper)

	huma.Register(api, huma.Operation{
		OperationID: "get-channel-settings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings/notifications",
		Summary:     "Get notification channel settings",
		Tags:        []string{"settings"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.GetChannels)

	huma.Register(api, huma.Operation{
		OperationID: "save-channel-settings",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/notifications",
		Summary:     "Update notification channel settings",
		Tags:        []string{"settings"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.SaveChannels)
}
