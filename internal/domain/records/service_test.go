package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"staffeval/internal/domain/evaluation"
	"staffeval/internal/platform/kv"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService(t *testing.T) (*Service, kv.Store) {
	t.Helper()
	store, err := kv.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return newServiceOn(t, store), store
}

func newServiceOn(t *testing.T, store kv.Store) *Service {
	t.Helper()
	tmpl, err := evaluation.DefaultTemplate()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	svc := NewService(store, tmpl)
	c := &clock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	svc.now = c.now
	seq := 0
	svc.newID = func() (string, error) {
		seq++
		return fmt.Sprintf("rec-%02d", seq), nil
	}
	return svc
}

// failingStore rejects every batch while fail is set.
type failingStore struct {
	kv.Store
	fail bool
}

func (f *failingStore) Apply(ctx context.Context, ops ...kv.Op) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Store.Apply(ctx, ops...)
}

func TestCreateRecordStartsFromTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, &Seed{Store: "新宿", Name: "山田", EmployeeID: "A01", Evaluator: "佐藤"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.PerformanceScore != evaluation.BaselinePerformanceScore {
		t.Fatalf("expected baseline score, got %d", rec.PerformanceScore)
	}
	if len(rec.Items) != svc.Template().Len() {
		t.Fatalf("expected %d items, got %d", svc.Template().Len(), len(rec.Items))
	}

	// mutating the returned record must not leak into the template
	rec.Items[0].Score = evaluation.IntPtr(1)
	fresh := svc.Template().NewItems()
	if fresh[0].Score != nil {
		t.Fatalf("template aliased by created record")
	}

	index, err := svc.ListStaff(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(index) != 1 || index[0].ID != rec.Metadata.ID || index[0].Name != "山田" {
		t.Fatalf("unexpected index %+v", index)
	}
}

func TestCreatePrependsAndCarriesIdentityForward(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateRecord(ctx, &Seed{Store: "新宿", Name: "山田", EmployeeID: "A01", Evaluator: "佐藤"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	first.Items[0].Score = evaluation.IntPtr(3)
	if _, err := svc.SaveRecord(ctx, first.Metadata.ID, first.Metadata, first.Items, 20); err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := svc.CreateFromSummary(ctx, first.Summary())
	if err != nil {
		t.Fatalf("create from summary: %v", err)
	}
	if second.Metadata.EmployeeID != "A01" || second.Metadata.Evaluator != "佐藤" {
		t.Fatalf("identity not carried forward: %+v", second.Metadata)
	}
	if second.Items[0].Score != nil || second.PerformanceScore != evaluation.BaselinePerformanceScore {
		t.Fatalf("expected unscored template for new record")
	}

	index, _ := svc.ListStaff(ctx)
	if len(index) != 2 || index[0].ID != second.Metadata.ID {
		t.Fatalf("expected new record first, got %+v", index)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, _ := svc.CreateRecord(ctx, &Seed{Store: "渋谷", Name: "鈴木"})
	meta := rec.Metadata
	meta.Evaluator = "田中"
	meta.Performance.MonthlyCuts[0] = 620
	meta.Performance.ExcludedFromAverage[3] = true
	items := rec.Items
	items[0].Score = evaluation.IntPtr(2)
	items[0].Memo = "丁寧"

	summary, err := svc.SaveRecord(ctx, meta.ID, meta, items, 15)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if summary.UpdatedAt <= rec.Metadata.UpdatedAt {
		t.Fatalf("expected updatedAt to advance")
	}

	loaded, ok := svc.LoadRecord(ctx, meta.ID)
	if !ok {
		t.Fatalf("expected record")
	}
	meta.UpdatedAt = summary.UpdatedAt
	if !reflect.DeepEqual(loaded.Metadata, meta) {
		t.Fatalf("metadata mismatch:\n got %+v\nwant %+v", loaded.Metadata, meta)
	}
	if !reflect.DeepEqual(loaded.Items, items) {
		t.Fatalf("items mismatch")
	}
	if loaded.PerformanceScore != 15 || loaded.SchemaVersion != evaluation.CurrentSchemaVersion {
		t.Fatalf("unexpected record header %d/%d", loaded.PerformanceScore, loaded.SchemaVersion)
	}
}

func TestSaveKeepsIndexSortedAndReaddsMissingEntry(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	a, _ := svc.CreateRecord(ctx, &Seed{Name: "A"})
	b, _ := svc.CreateRecord(ctx, &Seed{Name: "B"})
	if _, err := svc.SaveRecord(ctx, a.Metadata.ID, a.Metadata, a.Items, a.PerformanceScore); err != nil {
		t.Fatalf("save: %v", err)
	}
	index, _ := svc.ListStaff(ctx)
	if index[0].ID != a.Metadata.ID || index[1].ID != b.Metadata.ID {
		t.Fatalf("expected A before B, got %+v", index)
	}

	if err := store.Apply(ctx, kv.Put(IndexKey, "[]")); err != nil {
		t.Fatalf("reset index: %v", err)
	}
	if _, err := svc.SaveRecord(ctx, b.Metadata.ID, b.Metadata, b.Items, b.PerformanceScore); err != nil {
		t.Fatalf("save: %v", err)
	}
	index, _ = svc.ListStaff(ctx)
	if len(index) != 1 || index[0].ID != b.Metadata.ID {
		t.Fatalf("expected B re-added, got %+v", index)
	}
}

func TestSaveFailureLeavesBothKeysUntouched(t *testing.T) {
	base, err := kv.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = base.Close() })
	store := &failingStore{Store: base}
	svc := newServiceOn(t, store)
	ctx := context.Background()

	rec, _ := svc.CreateRecord(ctx, &Seed{Name: "山田", Store: "新宿"})
	store.fail = true
	meta := rec.Metadata
	meta.Name = "山田太郎"
	if _, err := svc.SaveRecord(ctx, meta.ID, meta, rec.Items, 30); err == nil {
		t.Fatalf("expected save error")
	}
	store.fail = false

	loaded, _ := svc.LoadRecord(ctx, meta.ID)
	index, _ := svc.ListStaff(ctx)
	if loaded.Metadata.Name != "山田" || index[0].Name != "山田" {
		t.Fatalf("partial write visible: record %q index %q", loaded.Metadata.Name, index[0].Name)
	}
}

func TestLoadRecordAbsentAndCorrupt(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, ok := svc.LoadRecord(ctx, "missing"); ok {
		t.Fatalf("expected no record")
	}
	if err := store.Apply(ctx, kv.Put(RecordKey("bad"), "{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := svc.LoadRecord(ctx, "bad"); ok {
		t.Fatalf("expected corrupt record to load as absent")
	}
}

func TestLoadRecordRepairsMistypedPerformance(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	raw := `{"metadata":{"id":"x","name":"山田","store":"新宿","performance":{"monthlyCuts":"none","goalCuts":"7000"}},"items":[]}`
	if err := store.Apply(ctx, kv.Put(RecordKey("x"), raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec, ok := svc.LoadRecord(ctx, "x")
	if !ok {
		t.Fatalf("expected mistyped performance data to load")
	}
	if rec.Metadata.Name != "山田" || len(rec.Metadata.Performance.MonthlyCuts) != evaluation.MonthsPerYear || rec.Metadata.Performance.GoalCuts != 0 {
		t.Fatalf("expected defaults for mistyped fields, got %+v", rec.Metadata)
	}
}

func TestLoadRecordNormalizesItems(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	raw := `{"metadata":{"id":"old","name":"古い"},"items":[
		{"no":1,"category":"関係性","max":5,"score":9},
		{"no":17,"category":"接客","subCategory":"クレーム","max":-15,"score":-1,
		 "incidents":[{"id":"i1","deduction":-5,"improvement":2},{"id":"i2","deduction":-3,"improvement":0}]}
	]}`
	if err := store.Apply(ctx, kv.Put(RecordKey("old"), raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec, ok := svc.LoadRecord(ctx, "old")
	if !ok {
		t.Fatalf("expected record")
	}
	if rec.Items[0].Score != nil {
		t.Fatalf("expected out-of-range score dropped")
	}
	if rec.Items[1].Score == nil || *rec.Items[1].Score != -6 {
		t.Fatalf("expected incident score -6, got %v", rec.Items[1].Score)
	}
	if rec.PerformanceScore != evaluation.BaselinePerformanceScore {
		t.Fatalf("expected baseline score, got %d", rec.PerformanceScore)
	}
}

func TestDeleteRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec, _ := svc.CreateRecord(ctx, &Seed{Name: "山田"})

	if err := svc.DeleteRecord(ctx, rec.Metadata.ID, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if err := svc.DeleteRecord(ctx, rec.Metadata.ID, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := svc.LoadRecord(ctx, rec.Metadata.ID); ok {
		t.Fatalf("expected record gone")
	}
	index, _ := svc.ListStaff(ctx)
	if len(index) != 0 {
		t.Fatalf("expected empty index, got %+v", index)
	}
	if err := svc.DeleteRecord(ctx, rec.Metadata.ID, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListHistory(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first, _ := svc.CreateRecord(ctx, &Seed{Name: "山田", Store: "新宿", Evaluator: "佐藤"})
	first.Items[0].Score = evaluation.IntPtr(3)
	if _, err := svc.SaveRecord(ctx, first.Metadata.ID, first.Metadata, first.Items, 20); err != nil {
		t.Fatalf("save: %v", err)
	}
	second, _ := svc.CreateRecord(ctx, &Seed{Name: "山田", Store: "新宿"})
	if _, err := svc.CreateRecord(ctx, &Seed{Name: "山田", Store: "渋谷"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Apply(ctx, kv.Put(RecordKey(second.Metadata.ID), "corrupt")); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	history, err := svc.ListHistory(ctx, "山田", "新宿")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].ID != second.Metadata.ID || history[0].Loaded || history[0].TotalScore != nil {
		t.Fatalf("expected unloaded summary-only entry first, got %+v", history[0])
	}
	h := history[1]
	if !h.Loaded || h.TotalScore == nil || *h.TotalScore != 23 || h.Evaluator != "佐藤" {
		t.Fatalf("unexpected hydrated entry %+v", h)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec, _ := svc.CreateRecord(ctx, &Seed{Name: "山田"})

	snap, ok := svc.SnapshotForComparison(ctx, rec.Metadata.ID)
	if !ok {
		t.Fatalf("expected snapshot")
	}
	snap.Items[0].Score = evaluation.IntPtr(1)
	again, _ := svc.SnapshotForComparison(ctx, rec.Metadata.ID)
	if again.Items[0].Score != nil {
		t.Fatalf("snapshot mutation leaked into store")
	}
}

func TestCorruptIndexIsRebuilt(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a, _ := svc.CreateRecord(ctx, &Seed{Name: "A"})
	b, _ := svc.CreateRecord(ctx, &Seed{Name: "B"})

	if err := store.Apply(ctx, kv.Put(IndexKey, "{broken")); err != nil {
		t.Fatalf("corrupt index: %v", err)
	}
	index, err := svc.ListStaff(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(index) != 2 || index[0].ID != b.Metadata.ID || index[1].ID != a.Metadata.ID {
		t.Fatalf("unexpected rebuilt index %+v", index)
	}
	raw, _, _ := store.Get(ctx, IndexKey)
	var persisted []evaluation.StaffSummary
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil || len(persisted) != 2 {
		t.Fatalf("expected rebuilt index persisted, got %q", raw)
	}
}

func TestExportImport(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	rec, _ := svc.CreateRecord(ctx, &Seed{Name: "山田"})
	if err := store.Apply(ctx, kv.Put("foreign", "x")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	bundle, err := svc.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, ok := bundle["foreign"]; ok {
		t.Fatalf("export leaked key outside namespace")
	}
	if _, ok := bundle[RecordKey(rec.Metadata.ID)]; !ok {
		t.Fatalf("export missing record key")
	}

	other, _ := newTestService(t)
	blob, _ := json.Marshal(bundle)
	if _, err := other.ImportAll(ctx, blob, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	n, err := other.ImportAll(ctx, blob, true)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != len(bundle) {
		t.Fatalf("expected %d keys, got %d", len(bundle), n)
	}
	if _, ok := other.LoadRecord(ctx, rec.Metadata.ID); !ok {
		t.Fatalf("imported record not loadable")
	}
}

func TestImportAcceptsObjectValuesAndIgnoresForeignKeys(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	blob := []byte(`{"qb_action_plan_data_v2": {"storeName": "新宿"}, "other": "x"}`)

	n, err := svc.ImportAll(ctx, blob, true)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 key imported, got %d err=%v", n, err)
	}
	raw, ok, _ := store.Get(ctx, "qb_action_plan_data_v2")
	if !ok || raw != `{"storeName": "新宿"}` {
		t.Fatalf("unexpected stored value %q", raw)
	}
	if _, ok, _ := store.Get(ctx, "other"); ok {
		t.Fatalf("foreign key imported")
	}

	if _, err := svc.ImportAll(ctx, []byte(`{"x": "y"}`), true); !errors.Is(err, ErrInvalidBundle) {
		t.Fatalf("expected ErrInvalidBundle, got %v", err)
	}
	if _, err := svc.ImportAll(ctx, []byte(`not json`), true); !errors.Is(err, ErrInvalidBundle) {
		t.Fatalf("expected ErrInvalidBundle, got %v", err)
	}
}
