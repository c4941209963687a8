package profile

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dsfhealth/sahaya/internal/contextx"
	"github.com/dsfhealth/sahaya/internal/httpx"
	"github.com/dsfhealth/sahaya/internal/validation"
)

// Handler holds the dependencies for the profile module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the profile module.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for the profile module. Both routes sit
// behind the session guard.
func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		Method:   http.MethodGet,
		Path:     "/profile",
		Summary:  "Get the current user's profile",
		Security: []map[string][]string{{"bearerAuth": {}}},
	}, h.GetHandler)

	huma.Register(api, huma.Operation{
		Method:   http.MethodPut,
		Path:     "/profile",
		Summary:  "Update the current user's profile",
		Security: []map[string][]string{{"bearerAuth": {}}},
	}, h.UpdateHandler)
}

// --- DTOs & Mappers ---

// Response is the DTO for a user's profile. Email comes from the verified
// session user, not the profile row.
type Response struct {
	Body struct {
		ID          string    `json:"id"`
		Email       string    `json:"email"`
		Name        string    `json:"name"`
		Age         *int      `json:"age,omitempty"`
		PhoneNumber string    `json:"phoneNumber"`
		Address     string    `json:"address"`
		Country     string    `json:"country"`
		State       string    `json:"state"`
		City        string    `json:"city"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}
}

func toResponse(profile *Profile, email string) *Response {
	var resp Response
	resp.Body.ID = profile.ID
	resp.Body.Email = email
	resp.Body.Name = profile.Name
	resp.Body.Age = profile.Age
	resp.Body.PhoneNumber = profile.PhoneNumber
	resp.Body.Address = profile.Address
	resp.Body.Country = profile.Country
	resp.Body.State = profile.State
	resp.Body.City = profile.City
	resp.Body.CreatedAt = profile.CreatedAt
	resp.Body.UpdatedAt = profile.UpdatedAt
	return &resp
}

// UpdateRequest defines the fields that can be updated on a profile.
type UpdateRequest struct {
	Body struct {
		Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
		Age         *int    `json:"age,omitempty" validate:"omitempty,min=0,max=130"`
		PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,max=20"`
		Address     *string `json:"address,omitempty" validate:"omitempty,max=250"`
		Country     *string `json:"country,omitempty" validate:"omitempty,max=80"`
		State       *string `json:"state,omitempty" validate:"omitempty,max=80"`
		City        *string `json:"city,omitempty" validate:"omitempty,max=80"`
	}
}

// --- Handlers ---

// GetHandler retrieves the authenticated user's profile, creating an empty
// one on first access.
func (h *Handler) GetHandler(ctx context.Context, _ *struct{}) (*Response, error) {
	userID, ok := ctx.Value(contextx.UserIDKey).(string)
	if !ok || userID == "" {
		h.logger.Error("user ID not found in context")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}
	email, _ := ctx.Value(contextx.UserEmailKey).(string)

	profile, err := h.service.Get(ctx, userID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return toResponse(profile, email), nil
}

// UpdateHandler updates the authenticated user's profile.
func (h *Handler) UpdateHandler(ctx context.Context, input *UpdateRequest) (*Response, error) {
	userID, ok := ctx.Value(contextx.UserIDKey).(string)
	if !ok || userID == "" {
		h.logger.Error("user ID not found in context for profile update")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}
	email, _ := ctx.Value(contextx.UserEmailKey).(string)

	if err := validation.ValidateStruct(&input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	updated, err := h.service.Update(ctx, userID, UpdateInput{
		Name:        input.Body.Name,
		Age:         input.Body.Age,
		PhoneNumber: input.Body.PhoneNumber,
		Address:     input.Body.Address,
		Country:     input.Body.Country,
		State:       input.Body.State,
		City:        input.Body.City,
	})
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return toResponse(updated, email), nil
}
