package jobshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffeval/internal/platform/jobs"
	"staffeval/internal/transport/http/api"
	"staffeval/internal/transport/http/middleware"
	"staffeval/internal/transport/http/shared"
)

type Handler struct {
	Jobs *jobs.Service
}

func NewHandler(jobsSvc *jobs.Service) *Handler {
	return &Handler{Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/jobs/runs", h.handleRuns)
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.Apply(h.Jobs.Runs(), shared.ParsePagination(r, 20, 50))
	api.Success(w, page, middleware.GetRequestID(r.Context()))
}
