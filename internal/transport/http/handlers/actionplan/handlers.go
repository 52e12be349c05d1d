package actionplanhandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"staffeval/internal/domain/actionplan"
	"staffeval/internal/domain/audit"
	"staffeval/internal/transport/http/api"
	"staffeval/internal/transport/http/middleware"
	"staffeval/internal/transport/http/shared"
)

type Handler struct {
	Service *actionplan.Service
	Audit   shared.Auditor
}

func NewHandler(service *actionplan.Service, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/action-plan", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/", h.handleSave)
		r.Delete("/", h.handleReset)
		r.Get("/report", h.handleReport)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Service.Get(r.Context())
	if err != nil {
		shared.FailError(w, r, "action_plan", err)
		return
	}
	api.Success(w, plan, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var plan actionplan.Plan
	if !shared.DecodeJSON(w, r, &plan) {
		return
	}
	if err := h.Service.Save(r.Context(), plan); err != nil {
		shared.FailError(w, r, "action_plan_save", err)
		return
	}
	api.Success(w, plan, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if !shared.Confirmed(r) {
		api.Fail(w, http.StatusPreconditionRequired, "confirmation_required", "confirmation required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.Reset(r.Context()); err != nil {
		shared.FailError(w, r, "action_plan_reset", err)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionActionPlanReset, "action_plan", actionplan.Key, nil)
	api.Success(w, actionplan.Plan{}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Service.Get(r.Context())
	if err != nil {
		shared.FailError(w, r, "action_plan", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="action-plan.txt"`)
	_, _ = w.Write([]byte(actionplan.Report(plan, time.Now())))
}
