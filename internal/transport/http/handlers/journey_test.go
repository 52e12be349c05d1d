package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

type staffPage struct {
	Items []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Store string `json:"store"`
	} `json:"items"`
	Total int `json:"total"`
}

type jobRuns struct {
	Items []struct {
		Type   string `json:"type"`
		Status string `json:"status"`
	} `json:"items"`
}

func TestEvaluationJourney(t *testing.T) {
	ts := newTestServer(t)

	created := decode[testView](t, call(t, ts, http.MethodPost, "/api/v1/staff", map[string]any{
		"store":      "渋谷店",
		"name":       "佐藤",
		"employeeId": "A12",
		"evaluator":  "田中",
		"date":       "2024-04-01",
	}, http.StatusCreated))
	if created.Mode != "editing" || created.Record == nil {
		t.Fatalf("expected the new record in the editor, got %+v", created)
	}
	recordID := created.Record.Metadata.ID

	scored := decode[testView](t, call(t, ts, http.MethodPut, "/api/v1/session/items/1/score", map[string]any{"score": 3}, http.StatusOK))
	if got := itemScore(t, scored, 1); got == nil || *got != 3 {
		t.Fatalf("expected item 1 scored 3, got %v", got)
	}

	refused := call(t, ts, http.MethodPut, "/api/v1/session/items/1/score", map[string]any{"score": 9}, http.StatusUnprocessableEntity)
	if errorCode(refused) != "not_applied" {
		t.Fatalf("expected not_applied, got %+v", refused.Error)
	}

	perf := decode[testView](t, call(t, ts, http.MethodPut, "/api/v1/session/performance",
		performancePayload(500, 500, 500, 500, 500, 500), http.StatusOK))
	m := perf.Summary.Metrics
	if m.CurrentTotal != 3000 || m.Average != 500 || m.EmptyCount != 6 || m.PredictedTotal != 6000 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if perf.Summary.PerformanceScore != 15 {
		t.Fatalf("expected performance score 15, got %d", perf.Summary.PerformanceScore)
	}

	left := decode[testView](t, call(t, ts, http.MethodPost, "/api/v1/session/leave", nil, http.StatusOK))
	if left.Mode != "browsing" {
		t.Fatalf("expected browsing after leave, got %s", left.Mode)
	}

	listing := decode[staffPage](t, call(t, ts, http.MethodGet, "/api/v1/staff", nil, http.StatusOK))
	if listing.Total != 1 || listing.Items[0].ID != recordID || listing.Items[0].Name != "佐藤" {
		t.Fatalf("unexpected listing %+v", listing)
	}

	menu := decode[testView](t, call(t, ts, http.MethodPost, "/api/v1/session/select", map[string]any{"id": recordID}, http.StatusOK))
	if menu.Mode != "menu" {
		t.Fatalf("expected menu, got %s", menu.Mode)
	}
	resumed := decode[testView](t, call(t, ts, http.MethodPost, "/api/v1/session/resume", nil, http.StatusOK))
	if got := itemScore(t, resumed, 1); got == nil || *got != 3 {
		t.Fatalf("expected the saved score after resume, got %v", got)
	}
	if resumed.Record.PerformanceScore != 15 {
		t.Fatalf("expected saved performance score, got %d", resumed.Record.PerformanceScore)
	}

	type outcome struct {
		Outcome string   `json:"outcome"`
		View    testView `json:"view"`
	}
	challenge := decode[outcome](t, call(t, ts, http.MethodPut, "/api/v1/session/category", map[string]any{"category": "店長"}, http.StatusOK))
	if challenge.Outcome != "challenge" || challenge.View.ActiveCategory == "店長" {
		t.Fatalf("expected a challenge, got %+v", challenge.Outcome)
	}
	call(t, ts, http.MethodPost, "/api/v1/session/unlock", map[string]any{"code": "wrong"}, http.StatusForbidden)
	unlocked := decode[outcome](t, call(t, ts, http.MethodPost, "/api/v1/session/unlock", map[string]any{"code": " ammd "}, http.StatusOK))
	if unlocked.Outcome != "switched" || unlocked.View.ActiveCategory != "店長" {
		t.Fatalf("expected unlock to switch category, got %+v", unlocked)
	}

	call(t, ts, http.MethodPost, "/api/v1/session/print", nil, http.StatusAccepted)
	waitFor(t, "print run", func() bool {
		runs := decode[jobRuns](t, call(t, ts, http.MethodGet, "/api/v1/jobs/runs", nil, http.StatusOK))
		for _, run := range runs.Items {
			if run.Type == "print" && run.Status == "completed" {
				return true
			}
		}
		return false
	})

	unconfirmed := call(t, ts, http.MethodDelete, "/api/v1/staff/"+recordID, nil, http.StatusPreconditionRequired)
	if errorCode(unconfirmed) != "confirmation_required" {
		t.Fatalf("expected confirmation_required, got %+v", unconfirmed.Error)
	}
	deleted := decode[testView](t, call(t, ts, http.MethodDelete, "/api/v1/staff/"+recordID+"?confirm=true", nil, http.StatusOK))
	if deleted.Mode != "browsing" {
		t.Fatalf("expected browsing after deleting the open record, got %s", deleted.Mode)
	}
	listing = decode[staffPage](t, call(t, ts, http.MethodGet, "/api/v1/staff", nil, http.StatusOK))
	if listing.Total != 0 {
		t.Fatalf("expected empty listing, got %+v", listing)
	}

	trail := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, call(t, ts, http.MethodGet, "/api/v1/audit/events?action=record.delete", nil, http.StatusOK))
	if len(trail.Items) != 1 || trail.Items[0]["entityId"] != recordID {
		t.Fatalf("expected one delete in the audit trail, got %+v", trail.Items)
	}
	for _, field := range []string{"ip", "before", "after", "detail"} {
		if _, ok := trail.Items[0][field]; ok {
			t.Fatalf("delete event must not carry %q: %+v", field, trail.Items[0])
		}
	}
}

func TestHistoryIsReadOnlyUntilConfirmed(t *testing.T) {
	ts := newTestServer(t)

	first := decode[testView](t, call(t, ts, http.MethodPost, "/api/v1/staff", map[string]any{"store": "A", "name": "山田"}, http.StatusCreated))
	call(t, ts, http.MethodPost, "/api/v1/session/leave", nil, http.StatusOK)
	call(t, ts, http.MethodPost, "/api/v1/session/select", map[string]any{"id": first.Record.Metadata.ID}, http.StatusOK)
	call(t, ts, http.MethodPost, "/api/v1/session/new", nil, http.StatusOK)
	call(t, ts, http.MethodPost, "/api/v1/session/leave", nil, http.StatusOK)

	listing := decode[staffPage](t, call(t, ts, http.MethodGet, "/api/v1/staff", nil, http.StatusOK))
	if listing.Total != 2 {
		t.Fatalf("expected two evaluations, got %d", listing.Total)
	}
	history := decode[[]map[string]any](t, call(t, ts, http.MethodGet, "/api/v1/staff/history?"+url.Values{"name": {"山田"}, "store": {"A"}}.Encode(), nil, http.StatusOK))
	if len(history) != 2 {
		t.Fatalf("expected two history entries, got %d", len(history))
	}

	call(t, ts, http.MethodPost, "/api/v1/session/select", map[string]any{"id": first.Record.Metadata.ID}, http.StatusOK)
	call(t, ts, http.MethodPost, "/api/v1/session/history", nil, http.StatusOK)
	viewing := decode[testView](t, call(t, ts, http.MethodPost, "/api/v1/session/history/"+first.Record.Metadata.ID, nil, http.StatusOK))
	if viewing.Mode != "viewing" || !viewing.ReadOnly {
		t.Fatalf("expected read-only viewing, got %+v", viewing)
	}
	call(t, ts, http.MethodPut, "/api/v1/session/items/1/score", map[string]any{"score": 1}, http.StatusUnprocessableEntity)
	call(t, ts, http.MethodPost, "/api/v1/session/edit", nil, http.StatusPreconditionRequired)
	editing := decode[testView](t, call(t, ts, http.MethodPost, "/api/v1/session/edit?confirm=true", nil, http.StatusOK))
	if editing.Mode != "editing" || editing.ReadOnly {
		t.Fatalf("expected editing after confirmation, got %+v", editing)
	}
	call(t, ts, http.MethodPut, "/api/v1/session/items/1/score", map[string]any{"score": 1}, http.StatusOK)
	call(t, ts, http.MethodPost, "/api/v1/session/save", nil, http.StatusOK)

	snapshot := decode[struct {
		Record struct {
			Items []testItem `json:"items"`
		} `json:"record"`
	}](t, call(t, ts, http.MethodGet, "/api/v1/staff/"+first.Record.Metadata.ID+"/snapshot", nil, http.StatusOK))
	if snapshot.Record.Items[0].Score == nil || *snapshot.Record.Items[0].Score != 1 {
		t.Fatalf("expected saved score in snapshot, got %+v", snapshot.Record.Items[0])
	}
}

func TestBackupRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	created := decode[testView](t, call(t, ts, http.MethodPost, "/api/v1/staff", map[string]any{"store": "B", "name": "鈴木"}, http.StatusCreated))
	call(t, ts, http.MethodPut, "/api/v1/session/items/1/score", map[string]any{"score": 2}, http.StatusOK)
	call(t, ts, http.MethodPost, "/api/v1/session/leave", nil, http.StatusOK)

	resp := doRaw(t, ts, http.MethodGet, "/api/v1/backup/export", nil)
	bundle, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("export failed: %d %v", resp.StatusCode, err)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), ".json") {
		t.Fatalf("expected json attachment, got %q", resp.Header.Get("Content-Disposition"))
	}

	call(t, ts, http.MethodDelete, "/api/v1/staff/"+created.Record.Metadata.ID+"?confirm=true", nil, http.StatusOK)

	resp = doRaw(t, ts, http.MethodPost, "/api/v1/backup/restore", bundle)
	resp.Body.Close()
	if resp.StatusCode != http.StatusPreconditionRequired {
		t.Fatalf("expected unconfirmed restore to be refused, got %d", resp.StatusCode)
	}
	resp = doRaw(t, ts, http.MethodPost, "/api/v1/backup/restore?confirm=true", []byte(`{"other":"x"}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected foreign bundle to be rejected, got %d", resp.StatusCode)
	}
	resp = doRaw(t, ts, http.MethodPost, "/api/v1/backup/restore?confirm=true", bundle)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected restore to succeed, got %d", resp.StatusCode)
	}

	listing := decode[staffPage](t, call(t, ts, http.MethodGet, "/api/v1/staff", nil, http.StatusOK))
	if listing.Total != 1 || listing.Items[0].Name != "鈴木" {
		t.Fatalf("expected restored listing, got %+v", listing)
	}

	resp = doRaw(t, ts, http.MethodGet, "/api/v1/backup/workbook", nil)
	workbook, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(workbook, []byte("PK")) {
		t.Fatalf("expected an xlsx workbook, got %d", resp.StatusCode)
	}

	run := decode[map[string]string](t, call(t, ts, http.MethodPost, "/api/v1/backup/run", nil, http.StatusOK))
	if !strings.HasSuffix(run["path"], ".json") {
		t.Fatalf("expected backup file path, got %+v", run)
	}
}

func TestActionPlanDraft(t *testing.T) {
	ts := newTestServer(t)

	empty := decode[map[string]string](t, call(t, ts, http.MethodGet, "/api/v1/action-plan", nil, http.StatusOK))
	for field, value := range empty {
		if value != "" {
			t.Fatalf("expected empty draft, got %s=%q", field, value)
		}
	}

	call(t, ts, http.MethodPut, "/api/v1/action-plan", map[string]any{"storeName": "渋谷店", "goal": "売上120%"}, http.StatusOK)
	saved := decode[map[string]string](t, call(t, ts, http.MethodGet, "/api/v1/action-plan", nil, http.StatusOK))
	if saved["storeName"] != "渋谷店" || saved["goal"] != "売上120%" {
		t.Fatalf("unexpected draft %+v", saved)
	}

	resp := doRaw(t, ts, http.MethodGet, "/api/v1/action-plan/report", nil)
	report, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(report), "渋谷店") {
		t.Fatalf("expected store name in report, got %q", report)
	}

	call(t, ts, http.MethodDelete, "/api/v1/action-plan", nil, http.StatusPreconditionRequired)
	call(t, ts, http.MethodDelete, "/api/v1/action-plan?confirm=true", nil, http.StatusOK)
	reset := decode[map[string]string](t, call(t, ts, http.MethodGet, "/api/v1/action-plan", nil, http.StatusOK))
	if reset["storeName"] != "" {
		t.Fatalf("expected reset draft, got %+v", reset)
	}
}
