// Package crypto seals backup bundles with AES-256-GCM.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// sealedMagic prefixes every sealed payload so that Open can tell sealed
// bundles from plain JSON.
var sealedMagic = []byte("QBSEAL1")

var (
	ErrKeyRequired = errors.New("payload is sealed but no key is configured")
	ErrTruncated   = errors.New("sealed payload too short")
)

type Sealer struct {
	key []byte
}

// New builds a sealer from a 32-byte key given as hex, base64 or raw text.
// An empty key yields a pass-through sealer.
func New(key string) (*Sealer, error) {
	if key == "" {
		return &Sealer{}, nil
	}
	decoded := decodeKey(key)
	if len(decoded) != 32 {
		return nil, fmt.Errorf("BACKUP_ENCRYPTION_KEY must be 32 bytes after decoding")
	}
	return &Sealer{key: decoded}, nil
}

func (s *Sealer) Configured() bool {
	return s != nil && len(s.key) == 32
}

// IsSealed reports whether data carries the sealed header.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealedMagic)
}

// Seal encrypts plain; without a key it returns plain unchanged.
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	if !s.Configured() {
		return plain, nil
	}
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(sealedMagic)+len(nonce)+len(plain)+gcm.Overhead())
	out = append(out, sealedMagic...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plain, sealedMagic), nil
}

// Open reverses Seal. Unsealed input is returned as-is.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	if !IsSealed(data) {
		return data, nil
	}
	if !s.Configured() {
		return nil, ErrKeyRequired
	}
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	body := data[len(sealedMagic):]
	if len(body) < gcm.NonceSize() {
		return nil, ErrTruncated
	}
	nonce, ciphertext := body[:gcm.NonceSize()], body[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, sealedMagic)
	if err != nil {
		return nil, fmt.Errorf("open sealed payload: %w", err)
	}
	return plain, nil
}

func (s *Sealer) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func decodeKey(raw string) []byte {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	return []byte(raw)
}
