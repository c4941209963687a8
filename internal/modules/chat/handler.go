package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Handler exposes the relay over HTTP. The wire contract is kept
// deliberately plain: POST JSON in, {"response"} or {"error"} out, any
// origin allowed. Browser clients call it directly, like the edge function
// it replaces.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the chat relay.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes builds the relay's sub-router with its permissive CORS policy.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/", h.Relay)
	r.Options("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

type relayRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// Relay forwards one chat message to the LLM provider and writes back its
// reply. No retry, no persistence.
func (h *Handler) Relay(w http.ResponseWriter, r *http.Request) {
	var req relayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRelayError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeRelayError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Language == "" {
		req.Language = LanguageEnglish
	}
	if req.Language != LanguageEnglish && req.Language != LanguageHindi {
		writeRelayError(w, http.StatusBadRequest, "language must be one of: en, hi")
		return
	}

	reply, err := h.service.Send(r.Context(), req.Message, req.Language)
	if err != nil {
		writeRelayError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"response": reply})
}

func writeRelayError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
