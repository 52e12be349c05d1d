package server

import (
	"context"
	"fmt"
	"log/slog"

	"staffeval/internal/domain/reports"
	"staffeval/internal/platform/jobs"
)

// jobPrinter renders print batches through the job runner so every print
// shows up in the run history.
type jobPrinter struct {
	jobs    *jobs.Service
	reports *reports.Service
}

func (p *jobPrinter) Print(ctx context.Context, sheets []reports.Sheet) (reports.Result, error) {
	details, err := p.jobs.RunNow(ctx, jobs.JobPrint, func(ctx context.Context) (any, error) {
		return p.reports.Print(ctx, sheets)
	})
	if err != nil {
		return reports.Result{}, err
	}
	res, ok := details.(reports.Result)
	if !ok {
		return reports.Result{}, fmt.Errorf("unexpected print result %T", details)
	}
	slog.Info("print written", "path", res.Path, "pages", res.Pages)
	return res, nil
}
