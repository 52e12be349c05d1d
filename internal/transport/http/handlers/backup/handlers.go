package backuphandler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"staffeval/internal/domain/audit"
	"staffeval/internal/domain/backup"
	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/records"
	"staffeval/internal/domain/reports"
	"staffeval/internal/platform/crypto"
	"staffeval/internal/platform/jobs"
	"staffeval/internal/transport/http/api"
	"staffeval/internal/transport/http/middleware"
	"staffeval/internal/transport/http/shared"
)

// Records is the bulk read side of the record store.
type Records interface {
	Template() *evaluation.Template
	AllRecords(ctx context.Context) ([]evaluation.StoredRecord, error)
}

// Importer replaces the store contents and resets whatever session state
// depended on them.
type Importer interface {
	ImportAll(ctx context.Context, blob []byte, confirmed bool) (int, error)
}

type Handler struct {
	Backup   *backup.Service
	Records  Records
	Importer Importer
	Jobs     *jobs.Service
	Audit    shared.Auditor
}

func NewHandler(backupSvc *backup.Service, recs Records, importer Importer, jobsSvc *jobs.Service, auditor shared.Auditor) *Handler {
	return &Handler{Backup: backupSvc, Records: recs, Importer: importer, Jobs: jobsSvc, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/backup", func(r chi.Router) {
		r.Get("/export", h.handleExport)
		r.Post("/restore", h.handleRestore)
		r.Post("/run", h.handleRun)
		r.Get("/workbook", h.handleWorkbook)
	})
}

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.Backup.Export(r.Context())
	if err != nil {
		shared.FailError(w, r, "backup_export", err)
		return
	}
	name := "staffeval-" + time.Now().Format("20060102") + ".json"
	contentType := "application/json"
	if h.Backup.Sealed() {
		name += ".sealed"
		contentType = "application/octet-stream"
	}
	attachment(w, contentType, name)
	_, _ = w.Write(data)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if !shared.Confirmed(r) {
		shared.FailError(w, r, "backup_restore", records.ErrNotConfirmed)
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	plain, err := h.Backup.Open(payload)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_bundle", err.Error(), reqID)
		return
	}
	n, err := h.Importer.ImportAll(r.Context(), plain, true)
	if err != nil {
		shared.FailError(w, r, "backup_restore", err)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionBackupRestore, "bundle", "", map[string]any{"imported": n, "sealed": crypto.IsSealed(payload)})
	api.Success(w, map[string]int{"imported": n}, reqID)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	details, err := h.Jobs.RunNow(r.Context(), jobs.JobBackup, func(ctx context.Context) (any, error) {
		path, err := h.Backup.WriteFile(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"path": path}, nil
	})
	if err != nil {
		shared.FailError(w, r, "backup_run", err)
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Records.AllRecords(r.Context())
	if err != nil {
		shared.FailError(w, r, "workbook", err)
		return
	}
	var buf bytes.Buffer
	if err := reports.WriteWorkbook(&buf, recs, h.Records.Template()); err != nil {
		shared.FailError(w, r, "workbook", err)
		return
	}
	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "staffeval-"+time.Now().Format("20060102")+".xlsx")
	_, _ = w.Write(buf.Bytes())
}
