package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dsjohal14/studybank/internal/scope/answers"
	"github.com/dsjohal14/studybank/internal/scope/bank"
	"github.com/dsjohal14/studybank/internal/scope/pipeline"
)

// maxImportBytes bounds the body of an answer import
const maxImportBytes = 10 << 20

// Handler contains HTTP handlers for the API
type Handler struct {
	bank     *bank.Bank
	pipeline *pipeline.Pipeline
	answers  *answers.Store
	logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(b *bank.Bank, p *pipeline.Pipeline, a *answers.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		bank:     b,
		pipeline: p,
		answers:  a,
		logger:   logger,
	}
}

// Routes returns the API router
func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HandleHealth)
	r.Get("/modules", h.HandleModules)
	r.Post("/search", h.HandleSearch)
	r.Get("/questions/{id}", h.HandleQuestion)

	r.Route("/answers", func(r chi.Router) {
		r.Get("/export", h.HandleExport)
		r.Post("/import", h.HandleImport)
		r.Put("/{id}", h.HandlePutAnswer)
		r.Delete("/{id}", h.HandleClearAnswer)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
