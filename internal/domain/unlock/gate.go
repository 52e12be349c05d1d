// Package unlock guards the restricted category behind a shared code.
package unlock

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrNoCode = errors.New("unlock code or hash is required")

// Gate checks candidate codes against a bcrypt hash. The plain code is never kept.
type Gate struct {
	hash []byte
}

// NewGate prefers a precomputed hash and falls back to hashing code.
func NewGate(code, hash string) (*Gate, error) {
	if hash = strings.TrimSpace(hash); hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("parse unlock hash: %w", err)
		}
		return &Gate{hash: []byte(hash)}, nil
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrNoCode
	}
	hashed, err := HashCode(code, bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Gate{hash: []byte(hashed)}, nil
}

func HashCode(code string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(code)), cost)
	if err != nil {
		return "", fmt.Errorf("hash unlock code: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether candidate matches. Surrounding whitespace is ignored.
func (g *Gate) Verify(candidate string) bool {
	if g == nil || len(g.hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(strings.TrimSpace(candidate))) == nil
}
