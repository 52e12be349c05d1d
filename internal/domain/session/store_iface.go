package session

import (
	"context"

	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/records"
	"staffeval/internal/domain/reports"
)

// Store is the record store surface the session drives.
type Store interface {
	Template() *evaluation.Template
	CreateRecord(ctx context.Context, seed *records.Seed) (evaluation.StoredRecord, error)
	CreateFromSummary(ctx context.Context, summary evaluation.StaffSummary) (evaluation.StoredRecord, error)
	LatestForStaff(ctx context.Context, name, store string) (evaluation.StoredRecord, bool)
	LoadRecord(ctx context.Context, id string) (evaluation.StoredRecord, bool)
	SaveRecord(ctx context.Context, id string, meta evaluation.Metadata, items []evaluation.Item, performanceScore int) (evaluation.StaffSummary, error)
	DeleteRecord(ctx context.Context, id string, confirmed bool) error
	ListHistory(ctx context.Context, name, store string) ([]records.HistoryEntry, error)
	SnapshotForComparison(ctx context.Context, id string) (evaluation.StoredRecord, bool)
	AllRecords(ctx context.Context) ([]evaluation.StoredRecord, error)
	ImportAll(ctx context.Context, blob []byte, confirmed bool) (int, error)
}

type Printer interface {
	Print(ctx context.Context, sheets []reports.Sheet) (reports.Result, error)
}

// Verifier checks a candidate unlock code.
type Verifier interface {
	Verify(candidate string) bool
}

// Recorder receives save and print outcomes.
type Recorder interface {
	RecordSave(err error)
	RecordPrint(err error)
}
