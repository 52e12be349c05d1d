package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	JobBackup = "backup"
	JobPrint  = "print"

	StatusCompleted = "completed"
	StatusFailed    = "failed"

	historyLimit = 50
)

type RunFunc func(context.Context) (any, error)

// Run is the outcome of one job execution.
type Run struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Service runs queued jobs on one worker and feeds cron schedules into the
// same queue. The most recent runs are kept in memory.
type Service struct {
	queue chan job
	cron  *cron.Cron

	mu   sync.Mutex
	runs []Run
}

type job struct {
	Type string
	Run  RunFunc
}

func New() *Service {
	return &Service{
		queue: make(chan job, 128),
		cron:  cron.New(),
	}
}

// Schedule registers run under a standard five-field cron spec (or a
// descriptor such as @daily).
func (s *Service) Schedule(spec, jobType string, run RunFunc) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Enqueue(jobType, run) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", jobType, spec, err)
	}
	return nil
}

// Start runs the worker and the cron scheduler until ctx is done.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
}

func (s *Service) Enqueue(jobType string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Runs returns recorded runs, newest first.
func (s *Service) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, len(s.runs))
	for i, r := range s.runs {
		out[len(s.runs)-1-i] = r
	}
	return out
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	run := Run{ID: uuid.NewString(), Type: j.Type, StartedAt: time.Now()}
	details, err := j.Run(ctx)
	run.CompletedAt = time.Now()
	run.Details = details
	run.Status = StatusCompleted
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	}
	s.record(run)
	return details, err
}

func (s *Service) record(run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	if len(s.runs) > historyLimit {
		s.runs = s.runs[len(s.runs)-historyLimit:]
	}
}
