package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64
	autosaves       uint64
	autosaveErrors  uint64
	prints          uint64
	printErrors     uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordSave counts one persisted session write.
func (c *Collector) RecordSave(err error) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.autosaves, 1)
	if err != nil {
		atomic.AddUint64(&c.autosaveErrors, 1)
	}
}

func (c *Collector) RecordPrint(err error) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.prints, 1)
	if err != nil {
		atomic.AddUint64(&c.printErrors, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":   total,
		"errorsTotal":     errs,
		"avgDurationMs":   avg,
		"totalDurationMs": totalMs,
		"savesTotal":      atomic.LoadUint64(&c.autosaves),
		"saveErrorsTotal": atomic.LoadUint64(&c.autosaveErrors),
		"printsTotal":     atomic.LoadUint64(&c.prints),
		"printErrors":     atomic.LoadUint64(&c.printErrors),
	}
}
