package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/snkrtools/snkr-price-watch/internal/store"
	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// SizesProvider defines the store methods required by the sizes handler.
type SizesProvider interface {
	GetSize(ctx context.Context, id string) (*domain.Size, error)
	UpdateSizeRules(ctx context.Context, id string, rules domain.NotifyRules) error
	ListPriceHistory(ctx context.Context, sizeID string, limit int) ([]domain.PriceHistoryEntry, error)
}

// SizesHandler handles per-size notification rules and history.
type SizesHandler struct {
	store SizesProvider
}

// NewSizesHandler creates a new SizesHandler.
func NewSizesHandler(s SizesProvider) *SizesHandler {
	return &SizesHandler{store: s}
}

// UpdateRulesInput is the request for replacing a size's notification
// rules.
type UpdateRulesInput struct {
	ID   string `path:"id" doc:"Size UUID"`
	Body struct {
		Below       *int `json:"notify_below,omitempty" minimum:"1" doc:"Notify when price drops to or under this yen amount"`
		Above       *int `json:"notify_above,omitempty" minimum:"1" doc:"Notify when price rises to or over this yen amount"`
		OnAnyChange bool `json:"notify_on_any_change,omitempty" doc:"Notify on every price change"`
	}
}

// UpdateRulesOutput is the response body after updating rules.
type UpdateRulesOutput struct {
	Body domain.Size
}

// UpdateRules replaces the notification rules of one size. The body is
// the complete rule set; omitted thresholds are cleared.
func (h *SizesHandler) UpdateRules(
	ctx context.Context,
	input *UpdateRulesInput,
) (*UpdateRulesOutput, error) {
	rules := domain.NotifyRules{
		Below:       input.Body.Below,
		Above:       input.Body.Above,
		OnAnyChange: input.Body.OnAnyChange,
	}

	if err := h.store.UpdateSizeRules(ctx, input.ID, rules); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("size not found")
		}
		return nil, huma.Error500InternalServerError("updating rules failed: " + err.Error())
	}

	sz, err := h.store.GetSize(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("fetching size failed: " + err.Error())
	}

	return &UpdateRulesOutput{Body: *sz}, nil
}

// SizeHistoryInput is the request for a size's price history.
type SizeHistoryInput struct {
	ID    string `path:"id" doc:"Size UUID"`
	Limit int    `query:"limit" default:"100" minimum:"1" maximum:"1000" doc:"Maximum entries"`
}

// SizeHistoryOutput is the response body for a size's price history.
type SizeHistoryOutput struct {
	Body []domain.PriceHistoryEntry
}

// History returns one size's price history, newest first.
func (h *SizesHandler) History(
	ctx context.Context,
	input *SizeHistoryInput,
) (*SizeHistoryOutput, error) {
	if _, err := h.store.GetSize(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("size not found")
		}
		return nil, huma.Error500InternalServerError("fetching size failed: " + err.Error())
	}

	entries, err := h.store.ListPriceHistory(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("fetching price history failed: " + err.Error())
	}

	if entries == nil {
		entries = []domain.PriceHistoryEntry{}
	}

	return &SizeHistoryOutput{Body: entries}, nil
}

// RegisterSizeRoutes registers size endpoints with the Huma API.
func RegisterSizeRoutes(api huma.API, h *SizesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "update-size-rules",
		Method:      http.MethodPut,
		Path:        "/api/v1/sizes/{id}/rules",
		Summary:     "Replace a size's notification rules",
		Tags:        []string{"sizes"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.UpdateRules)

	huma.Register(api, huma.Operation{
		OperationID: "get-size-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/sizes/{id}/history",
		Summary:     "Get a size's price history",
		Tags:        []string{"sizes"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.History)
}
