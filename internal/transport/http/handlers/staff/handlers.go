package staffhandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"staffeval/internal/domain/audit"
	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/records"
	"staffeval/internal/domain/scoring"
	"staffeval/internal/domain/session"
	"staffeval/internal/transport/http/api"
	"staffeval/internal/transport/http/middleware"
	"staffeval/internal/transport/http/shared"
)

// Records is the read side of the record store the listing needs.
type Records interface {
	Template() *evaluation.Template
	ListStaff(ctx context.Context) ([]evaluation.StaffSummary, error)
	ListHistory(ctx context.Context, name, store string) ([]records.HistoryEntry, error)
	SnapshotForComparison(ctx context.Context, id string) (evaluation.StoredRecord, bool)
}

type Handler struct {
	Records Records
	Session *session.Session
	Audit   shared.Auditor
}

func NewHandler(recs Records, sess *session.Session, auditor shared.Auditor) *Handler {
	return &Handler{Records: recs, Session: sess, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/template", h.handleTemplate)
	r.Route("/staff", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/history", h.handleHistory)
		r.Get("/{recordID}/snapshot", h.handleSnapshot)
		r.Delete("/{recordID}", h.handleDelete)
	})
}

type templateView struct {
	Items                   []evaluation.Item   `json:"items"`
	RestrictedCategory      evaluation.Category `json:"restrictedCategory"`
	RestrictedSubCategories []string            `json:"restrictedSubCategories"`
	Axes                    []evaluation.Axis   `json:"axes"`
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Records.Template()
	api.Success(w, templateView{
		Items:                   tmpl.NewItems(),
		RestrictedCategory:      evaluation.RestrictedCategory,
		RestrictedSubCategories: tmpl.SubCategories(evaluation.RestrictedCategory),
		Axes:                    evaluation.ChartAxes,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	index, err := h.Records.ListStaff(r.Context())
	if err != nil {
		shared.FailError(w, r, "staff_list", err)
		return
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		filtered := index[:0:0]
		for _, entry := range index {
			if strings.Contains(entry.Name, q) || strings.Contains(entry.Store, q) {
				filtered = append(filtered, entry)
			}
		}
		index = filtered
	}
	page := shared.Apply(index, shared.ParsePagination(r, 0, 500))
	api.Success(w, page, middleware.GetRequestID(r.Context()))
}

// handleCreate adds a blank record from the listing and opens it in the editor.
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

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	store := r.URL.Query().Get("store")
	v := shared.NewValidator()
	v.Required("name", name, "required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	history, err := h.Records.ListHistory(r.Context(), name, store)
	if err != nil {
		shared.FailError(w, r, "history", err)
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

type snapshotView struct {
	Record  evaluation.StoredRecord `json:"record"`
	Summary scoring.Summary         `json:"summary"`
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.Records.SnapshotForComparison(r.Context(), chi.URLParam(r, "recordID"))
	if !ok {
		shared.FailError(w, r, "snapshot", records.ErrNotFound)
		return
	}
	subs := h.Records.Template().SubCategories(evaluation.RestrictedCategory)
	api.Success(w, snapshotView{Record: rec, Summary: scoring.Summarize(rec, subs)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordID")
	if err := h.Session.DeleteRecord(r.Context(), id, shared.Confirmed(r)); err != nil {
		shared.FailError(w, r, "record_delete", err)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionRecordDelete, "record", id, nil)
	api.Success(w, h.Session.View(), middleware.GetRequestID(r.Context()))
}
