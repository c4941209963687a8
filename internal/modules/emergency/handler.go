package emergency

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dsfhealth/sahaya/internal/contextx"
	"github.com/dsfhealth/sahaya/internal/httpx"
)

// Handler holds the dependencies for the emergency module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the emergency module.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for the emergency module.
func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/emergency",
		Summary:       "Trigger an emergency helpline alert",
		Security:      []map[string][]string{{"bearerAuth": {}}},
		DefaultStatus: http.StatusAccepted,
	}, h.TriggerHandler)
}

// TriggerHandler sends the helpline alert for the authenticated user.
func (h *Handler) TriggerHandler(ctx context.Context, _ *struct{}) (*struct{}, error) {
	userID, ok := ctx.Value(contextx.UserIDKey).(string)
	if !ok || userID == "" {
		h.logger.Error("user ID not found in context for emergency trigger")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}
	email, _ := ctx.Value(contextx.UserEmailKey).(string)

	if err := h.service.Trigger(ctx, userID, email); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return nil, nil
}
