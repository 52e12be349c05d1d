package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"staffeval/internal/app/server"
	"staffeval/internal/domain/unlock"
	"staffeval/internal/platform/config"
)

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

type testItem struct {
	No    int  `json:"no"`
	Score *int `json:"score"`
}

type testView struct {
	Mode     string `json:"mode"`
	ReadOnly bool   `json:"readOnly"`
	Record   *struct {
		Metadata struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"metadata"`
		Items            []testItem `json:"items"`
		PerformanceScore int        `json:"performanceScore"`
	} `json:"record"`
	Summary *struct {
		Metrics struct {
			CurrentTotal   int `json:"currentTotal"`
			Average        int `json:"average"`
			EmptyCount     int `json:"emptyCount"`
			PredictedTotal int `json:"predictedTotal"`
		} `json:"metrics"`
		PerformanceScore int `json:"performanceScore"`
	} `json:"summary"`
	ActiveCategory string `json:"activeCategory"`
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	hash, err := unlock.HashCode("ammd", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash unlock code: %v", err)
	}
	dir := t.TempDir()
	return config.Config{
		Addr:           ":0",
		Environment:    "test",
		StorageDriver:  config.DriverSQLite,
		SQLitePath:     filepath.Join(dir, "eval.db"),
		RunMigrations:  true,
		UnlockCodeHash: hash,
		UnlockAttempts: 3,
		AutosaveDelay:  20 * time.Millisecond,
		PrintDelay:     10 * time.Millisecond,
		PrintOutputDir: filepath.Join(dir, "print"),
		BackupDir:      filepath.Join(dir, "backups"),
		MaxBodyBytes:   1 << 20,
		FrontendDir:    filepath.Join(dir, "frontend"),
		MetricsEnabled: true,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	app, err := server.New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		if err := app.Close(); err != nil {
			t.Errorf("close app: %v", err)
		}
	})
	return ts
}

func doRaw(t *testing.T, ts *httptest.Server, method, path string, body []byte) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// call sends payload as JSON and decodes the envelope, failing the test on
// any status other than want.
func call(t *testing.T, ts *httptest.Server, method, path string, payload any, want int) envelope {
	t.Helper()
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = encoded
	}
	resp := doRaw(t, ts, method, path, body)
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d (%+v)", method, path, want, resp.StatusCode, env.Error)
	}
	return env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func itemScore(t *testing.T, v testView, no int) *int {
	t.Helper()
	if v.Record == nil {
		t.Fatal("expected a record in the view")
	}
	for _, it := range v.Record.Items {
		if it.No == no {
			return it.Score
		}
	}
	t.Fatalf("item %d not found", no)
	return nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func performancePayload(cuts ...int) map[string]any {
	monthly := make([]int, 12)
	copy(monthly, cuts)
	return map[string]any{
		"monthlyCuts":         monthly,
		"excludedFromAverage": make([]bool, 12),
		"goalCuts":            0,
		"monthlyHolidays":     8,
	}
}
