package reports

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Result describes one finished print job.
type Result struct {
	Path      string    `json:"path"`
	Pages     int       `json:"pages"`
	PrintedAt time.Time `json:"printedAt"`
}

// Service renders sheets into PDF files under dir.
type Service struct {
	dir      string
	renderer *Renderer
	now      func() time.Time
}

func NewService(dir string, renderer *Renderer) *Service {
	return &Service{dir: dir, renderer: renderer, now: time.Now}
}

func (s *Service) Print(ctx context.Context, sheets []Sheet) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, sheets); err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create print dir: %w", err)
	}

	printedAt := s.now()
	name := fmt.Sprintf("sheet-%s.pdf", printedAt.Format("20060102-150405.000"))
	if len(sheets) == 1 {
		name = fmt.Sprintf("sheet-%s-%s.pdf", sheets[0].Record.Metadata.ID, printedAt.Format("20060102-150405"))
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", path, err)
	}
	return Result{Path: path, Pages: len(sheets), PrintedAt: printedAt}, nil
}
