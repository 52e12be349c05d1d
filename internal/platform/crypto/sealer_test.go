package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestSealRoundTrip(t *testing.T) {
	s, err := New(testKey)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	plain := []byte(`{"qb_staff_index_v1":"[]"}`)

	sealed, err := s.Seal(plain)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if !IsSealed(sealed) || bytes.Contains(sealed, plain) {
		t.Fatalf("expected sealed output")
	}
	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("expected %q, got %q", plain, opened)
	}
}

func TestPassThroughWithoutKey(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	plain := []byte("{}")
	sealed, _ := s.Seal(plain)
	if !bytes.Equal(sealed, plain) {
		t.Fatalf("expected pass-through")
	}

	keyed, _ := New(testKey)
	other, _ := keyed.Seal(plain)
	if _, err := s.Open(other); !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	s, _ := New(testKey)
	sealed, _ := s.Seal([]byte("payload"))
	sealed[len(sealed)-1] ^= 0xff
	if _, err := s.Open(sealed); err == nil {
		t.Fatalf("expected tampered payload to fail")
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New(strings.Repeat("a", 10)); err == nil {
		t.Fatalf("expected short key error")
	}
}
