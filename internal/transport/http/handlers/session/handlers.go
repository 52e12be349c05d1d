package sessionhandler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"staffeval/internal/domain/audit"
	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/records"
	"staffeval/internal/domain/session"
	"staffeval/internal/transport/http/api"
	"staffeval/internal/transport/http/middleware"
	"staffeval/internal/transport/http/shared"
)

// Index resolves listing ids to the summaries the session selects by.
type Index interface {
	ListStaff(ctx context.Context) ([]evaluation.StaffSummary, error)
}

type Handler struct {
	Session *session.Session
	Index   Index
	Audit   shared.Auditor

	// UnlockAttempts caps unlock attempts per client per minute; zero disables the cap.
	UnlockAttempts int
}

func NewHandler(sess *session.Session, index Index, auditor shared.Auditor, unlockAttempts int) *Handler {
	return &Handler{Session: sess, Index: index, Audit: auditor, UnlockAttempts: unlockAttempts}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.handleView)
		r.Post("/select", h.handleSelect)
		r.Post("/back", h.transition(func(_ context.Context) error { return h.Session.Back() }))
		r.Post("/resume", h.transition(h.Session.Resume))
		r.Post("/new", h.transition(h.Session.StartNew))
		r.Post("/create", h.handleCreate)
		r.Post("/history", h.transition(h.Session.OpenHistory))
		r.Post("/history/{recordID}", h.handleSelectHistory)
		r.Post("/edit", h.handleEdit)
		r.Post("/leave", h.transition(h.Session.Leave))
		r.Post("/reload", h.handleReload)
		r.Post("/save", h.transition(h.Session.Save))

		r.Put("/category", h.handleCategory)
		r.With(middleware.RateLimit(h.UnlockAttempts, time.Minute)).Post("/unlock", h.handleUnlock)
		r.Delete("/unlock", h.handleLock)

		r.Put("/items/{itemNo}/score", h.handleItemScore)
		r.Put("/items/{itemNo}/memo", h.handleItemMemo)
		r.Put("/items/{itemNo}/incidents", h.handleItemIncidents)
		r.Put("/performance", h.handlePerformance)
		r.Put("/metadata", h.handleMetadata)
		r.Post("/reset", h.handleReset)

		r.Post("/compare", h.handleCompare)
		r.Delete("/compare", h.handleClearComparison)

		r.Post("/print", h.handlePrint)
		r.Post("/print/batch", h.handlePrintBatch)
	})
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Session.View(), middleware.GetRequestID(r.Context()))
}

// transition wraps a session step that either succeeds with a new view or
// fails with a domain error.
func (h *Handler) transition(step func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := step(r.Context()); err != nil {
			shared.FailError(w, r, "session", err)
			return
		}
		h.handleView(w, r)
	}
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	index, err := h.Index.ListStaff(r.Context())
	if err != nil {
		shared.FailError(w, r, "staff_list", err)
		return
	}
	for _, entry := range index {
		if entry.ID != payload.ID {
			continue
		}
		if err := h.Session.SelectStaff(entry); err != nil {
			shared.FailError(w, r, "session", err)
			return
		}
		h.handleView(w, r)
		return
	}
	shared.FailError(w, r, "session", records.ErrNotFound)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var seed records.Seed
	if !shared.DecodeJSON(w, r, &seed) {
		return
	}
	v := shared.NewValidator()
	v.EmployeeID("employeeId", seed.EmployeeID)
	v.Date("date", seed.Date)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := h.Session.CreateBlank(r.Context(), &seed); err != nil {
		shared.FailError(w, r, "record_create", err)
		return
	}
	api.Created(w, h.Session.View(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelectHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.SelectHistory(r.Context(), chi.URLParam(r, "recordID")); err != nil {
		shared.FailError(w, r, "session", err)
		return
	}
	h.handleView(w, r)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.RequestEdit(shared.Confirmed(r)); err != nil {
		shared.FailError(w, r, "session", err)
		return
	}
	h.handleView(w, r)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Reload(r.Context()); err != nil {
		shared.FailError(w, r, "session", err)
		return
	}
	h.handleView(w, r)
}

func (h *Handler) handleCategory(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Category evaluation.Category `json:"category"`
	}
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	outcome, err := h.Session.SetActiveCategory(payload.Category)
	if err != nil {
		shared.FailError(w, r, "category", err)
		return
	}
	api.Success(w, outcomeView{Outcome: outcome, View: h.Session.View()}, middleware.GetRequestID(r.Context()))
}

type outcomeView struct {
	Outcome session.CategoryOutcome `json:"outcome"`
	View    session.View            `json:"view"`
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if h.Session.Unlock(payload.Code) != session.CategorySwitched {
		api.Fail(w, http.StatusForbidden, "unlock_rejected", "unlock code rejected", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, outcomeView{Outcome: session.CategorySwitched, View: h.Session.View()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	h.Session.Lock()
	h.handleView(w, r)
}

func itemNo(w http.ResponseWriter, r *http.Request) (int, bool) {
	no, err := strconv.Atoi(chi.URLParam(r, "itemNo"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_item", "item number must be an integer", middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return no, true
}

// applied answers a boolean mutation: the new view when it landed, a
// not-applied failure when the session refused it.
func (h *Handler) applied(w http.ResponseWriter, r *http.Request, ok bool, refusal string) {
	if !ok {
		shared.NotApplied(w, r, refusal)
		return
	}
	h.handleView(w, r)
}

func (h *Handler) handleItemScore(w http.ResponseWriter, r *http.Request) {
	no, ok := itemNo(w, r)
	if !ok {
		return
	}
	var payload struct {
		Score *int `json:"score"`
	}
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	h.applied(w, r, h.Session.UpdateItemScore(no, payload.Score), "score not applied")
}

func (h *Handler) handleItemMemo(w http.ResponseWriter, r *http.Request) {
	no, ok := itemNo(w, r)
	if !ok {
		return
	}
	var payload struct {
		Memo string `json:"memo"`
	}
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	h.applied(w, r, h.Session.UpdateItemMemo(no, payload.Memo), "memo not applied")
}

func (h *Handler) handleItemIncidents(w http.ResponseWriter, r *http.Request) {
	no, ok := itemNo(w, r)
	if !ok {
		return
	}
	var payload struct {
		Incidents []evaluation.Incident `json:"incidents"`
	}
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	h.applied(w, r, h.Session.UpdateItemIncidents(no, payload.Incidents), "incidents not applied")
}

func (h *Handler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	var payload evaluation.PerformanceData
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	h.applied(w, r, h.Session.UpdatePerformanceData(payload), "performance data not applied")
}

func (h *Handler) handleMetadata(w http.ResponseWriter, r *http.Request) {
	var payload session.Identity
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.EmployeeID("employeeId", payload.EmployeeID)
	v.Date("date", payload.Date)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	h.applied(w, r, h.Session.UpdateMetadata(payload), "metadata not applied")
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Category evaluation.Category `json:"category"`
	}
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if !shared.Confirmed(r) {
		shared.FailError(w, r, "reset", records.ErrNotConfirmed)
		return
	}
	if !h.Session.ResetCategory(payload.Category, true) {
		shared.NotApplied(w, r, "reset not applied")
		return
	}
	view := h.Session.View()
	recordID := ""
	if view.Record != nil {
		recordID = view.Record.Metadata.ID
	}
	shared.Audit(r, h.Audit, audit.ActionCategoryReset, "record", recordID, map[string]any{"category": payload.Category})
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if err := h.Session.Compare(r.Context(), payload.ID); err != nil {
		shared.FailError(w, r, "compare", err)
		return
	}
	h.handleView(w, r)
}

func (h *Handler) handleClearComparison(w http.ResponseWriter, r *http.Request) {
	h.Session.ClearComparison()
	h.handleView(w, r)
}

func (h *Handler) handlePrint(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.PrintCurrent(); err != nil {
		shared.FailError(w, r, "print", err)
		return
	}
	api.Accepted(w, h.Session.View().Print, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePrintBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.PrintBatch(r.Context(), shared.Confirmed(r)); err != nil {
		shared.FailError(w, r, "print", err)
		return
	}
	api.Accepted(w, h.Session.View().Print, middleware.GetRequestID(r.Context()))
}
