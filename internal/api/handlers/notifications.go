package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// NotificationsProvider defines the store methods required by the
// notifications handler.
type NotificationsProvider interface {
	ListNotificationEvents(ctx context.Context, limit int) ([]domain.NotificationEvent, error)
}

// NotificationsHandler serves delivered-notification history.
type NotificationsHandler struct {
	store NotificationsProvider
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(s NotificationsProvider) *NotificationsHandler {
	return &NotificationsHandler{store: s}
}

// ListNotificationsInput is the query for notification history.
type ListNotificationsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum entries"`
}

// ListNotificationsOutput is the response body for notification history.
type ListNotificationsOutput struct {
	Body []domain.NotificationEvent
}

// List returns delivered notifications, newest first. Each entry is one
// successful delivery to one channel.
func (h *NotificationsHandler) List(
	ctx context.Context,
	input *ListNotificationsInput,
) (*ListNotificationsOutput, error) {
	events, err := h.store.ListNotificationEvents(ctx, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing notifications failed: " + err.Error())
	}

	if events == nil {
		events = []domain.NotificationEvent{}
	}

	return &ListNotificationsOutput{Body: events}, nil
}

// RegisterNotificationRoutes registers notification endpoints with the
// Huma API.
func RegisterNotificationRoutes(api huma.API, h *NotificationsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List delivered notifications",
		Tags:        []string{"notifications"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.List)
}
