// Package backup turns the record store's namespace into portable bundles.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"staffeval/internal/platform/crypto"
)

// Source is the slice of the record store a backup needs.
type Source interface {
	ExportAll(ctx context.Context) (map[string]string, error)
}

type Service struct {
	source Source
	sealer *crypto.Sealer
	dir    string
	now    func() time.Time
}

func NewService(source Source, sealer *crypto.Sealer, dir string) *Service {
	return &Service{source: source, sealer: sealer, dir: dir, now: time.Now}
}

func (s *Service) Sealed() bool {
	return s.sealer.Configured()
}

// Export returns the bundle as a JSON object of key to string, sealed when a
// key is configured.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	bundle, err := s.source.ExportAll(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return s.sealer.Seal(data)
}

// Open returns the plain JSON bundle from an exported payload, sealed or not.
func (s *Service) Open(data []byte) ([]byte, error) {
	return s.sealer.Open(data)
}

// WriteFile exports into a timestamped file under the backup dir.
func (s *Service) WriteFile(ctx context.Context) (string, error) {
	data, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	ext := ".json"
	if s.Sealed() {
		ext = ".json.sealed"
	}
	path := filepath.Join(s.dir, "staffeval-"+s.now().UTC().Format("20060102T150405Z")+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}
