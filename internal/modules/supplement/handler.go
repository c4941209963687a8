package supplement

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dsfhealth/sahaya/internal/contextx"
	"github.com/dsfhealth/sahaya/internal/httpx"
)

const dateLayout = "2006-01-02"

// Handler holds the dependencies for the supplement module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the supplement module.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for the supplement module. All routes
// sit behind the session guard.
func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		Method:   http.MethodGet,
		Path:     "/supplements",
		Summary:  "List supplements with a day's intake status",
		Security: []map[string][]string{{"bearerAuth": {}}},
	}, h.ListHandler)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/supplements/{id}/logs",
		Summary:       "Mark a supplement as taken on a date",
		Security:      []map[string][]string{{"bearerAuth": {}}},
		DefaultStatus: http.StatusNoContent,
	}, h.MarkTakenHandler)

	huma.Register(api, huma.Operation{
		Method:   http.MethodGet,
		Path:     "/supplements/log-dates",
		Summary:  "List every date with a logged intake",
		Security: []map[string][]string{{"bearerAuth": {}}},
	}, h.LogDatesHandler)
}

// --- DTOs & Mappers ---

// SupplementDTO is the wire shape of one tracked supplement.
type SupplementDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListRequest selects the day to report intake status for; defaults to today.
type ListRequest struct {
	Date string `query:"date" doc:"Day to report intake for, YYYY-MM-DD. Defaults to today."`
}

// ListResponse pairs the supplement list with the selected day's taken IDs.
type ListResponse struct {
	Body struct {
		Date        string          `json:"date"`
		Supplements []SupplementDTO `json:"supplements"`
		TakenIDs    []string        `json:"takenIds"`
	}
}

// MarkTakenRequest logs one supplement for a date; defaults to today.
type MarkTakenRequest struct {
	ID   string `path:"id"`
	Body struct {
		Date string `json:"date,omitempty" doc:"Day taken, YYYY-MM-DD. Defaults to today."`
	}
}

// LogDatesResponse is the calendar feed of distinct intake dates.
type LogDatesResponse struct {
	Body struct {
		Dates []string `json:"dates"`
	}
}

// --- Handlers ---

// ListHandler lists the user's supplements with the selected day's intake
// status, seeding defaults on first use.
func (h *Handler) ListHandler(ctx context.Context, input *ListRequest) (*ListResponse, error) {
	userID, ok := ctx.Value(contextx.UserIDKey).(string)
	if !ok || userID == "" {
		h.logger.Error("user ID not found in context")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	date, err := parseDate(input.Date)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	view, err := h.service.ListForDate(ctx, userID, date)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	var resp ListResponse
	resp.Body.Date = date.Format(dateLayout)
	resp.Body.Supplements = make([]SupplementDTO, 0, len(view.Supplements))
	for _, s := range view.Supplements {
		resp.Body.Supplements = append(resp.Body.Supplements, SupplementDTO{
			ID:        s.ID,
			Name:      s.Name,
			CreatedAt: s.CreatedAt,
		})
	}
	resp.Body.TakenIDs = view.TakenIDs
	if resp.Body.TakenIDs == nil {
		resp.Body.TakenIDs = []string{}
	}
	return &resp, nil
}

// MarkTakenHandler logs one supplement as taken; repeating the call for the
// same day is a no-op.
func (h *Handler) MarkTakenHandler(ctx context.Context, input *MarkTakenRequest) (*struct{}, error) {
	userID, ok := ctx.Value(contextx.UserIDKey).(string)
	if !ok || userID == "" {
		h.logger.Error("user ID not found in context for supplement log")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	date, err := parseDate(input.Body.Date)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	if err := h.service.MarkTaken(ctx, userID, input.ID, date); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return nil, nil
}

// LogDatesHandler returns every distinct date the user logged an intake.
func (h *Handler) LogDatesHandler(ctx context.Context, _ *struct{}) (*LogDatesResponse, error) {
	userID, ok := ctx.Value(contextx.UserIDKey).(string)
	if !ok || userID == "" {
		h.logger.Error("user ID not found in context for log dates")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	dates, err := h.service.LogDates(ctx, userID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	var resp LogDatesResponse
	resp.Body.Dates = make([]string, 0, len(dates))
	for _, d := range dates {
		resp.Body.Dates = append(resp.Body.Dates, d.Format(dateLayout))
	}
	return &resp, nil
}

// parseDate interprets an optional YYYY-MM-DD value, defaulting to today in UTC.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate.WithCause(err)
	}
	return date, nil
}
