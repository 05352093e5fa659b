package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snkrtools/snkr-price-watch/internal/api/handlers"
	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// mockNotificationsProvider is a test double for NotificationsProvider.
type mockNotificationsProvider struct {
	events   []domain.NotificationEvent
	err      error
	gotLimit int
}

func (m *mockNotificationsProvider) ListNotificationEvents(
	_ context.Context, limit int,
) ([]domain.NotificationEvent, error) {
	m.gotLimit = limit
	return m.events, m.err
}

func TestListNotifications_Success(t *testing.T) {
	t.Parallel()

	now := time.Now().Truncate(time.Second)
	provider := &mockNotificationsProvider{events: []domain.NotificationEvent{
		{
			ID:        "evt-1",
			ProductID: "prod-1",
			SizeID:    "size-1",
			OldPrice:  24000,
			NewPrice:  21000,
			Kind:      domain.KindBelow,
			Channel:   domain.ChannelDiscord,
			Timestamp: now,
		},
	}}
	h := handlers.NewNotificationsHandler(provider)

	_, api := humatest.New(t)
	handlers.RegisterNotificationRoutes(api, h)

	resp := api.Get("/api/v1/notifications")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "discord")
	assert.Contains(t, resp.Body.String(), "21000")
	assert.Equal(t, 50, provider.gotLimit, "default limit")
}

func TestListNotifications_CustomLimit(t *testing.T) {
	t.Parallel()

	provider := &mockNotificationsProvider{}
	h := handlers.NewNotificationsHandler(provider)

	_, api := humatest.New(t)
	handlers.RegisterNotificationRoutes(api, h)

	resp := api.Get("/api/v1/notifications?limit=5")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 5, provider.gotLimit)
}

func TestListNotifications_Empty(t *testing.T) {
	t.Parallel()

	h := handlers.NewNotificationsHandler(&mockNotificationsProvider{})

	_, api := humatest.New(t)
	handlers.RegisterNotificationRoutes(api, h)

	resp := api.Get("/api/v1/notifications")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "[]")
}

func TestListNotifications_Error(t *testing.T) {
	t.Parallel()

	h := handlers.NewNotificationsHandler(
		&mockNotificationsProvider{err: errors.New("db error")})

	_, api := humatest.New(t)
	handlers.RegisterNotificationRoutes(api, h)

	resp := api.Get("/api/v1/notifications")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "listing notifications failed")
}
