package unlock

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestGateFromHash(t *testing.T) {
	hash, err := HashCode("ammd", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	gate, err := NewGate("", hash)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}

	tests := []struct {
		candidate string
		want      bool
	}{
		{candidate: "ammd", want: true},
		{candidate: " ammd\n", want: true},
		{candidate: "AMMD", want: false},
		{candidate: "", want: false},
	}
	for _, tc := range tests {
		if got := gate.Verify(tc.candidate); got != tc.want {
			t.Fatalf("Verify(%q): expected %v, got %v", tc.candidate, tc.want, got)
		}
	}
}

func TestGateRequiresCode(t *testing.T) {
	if _, err := NewGate(" ", ""); !errors.Is(err, ErrNoCode) {
		t.Fatalf("expected ErrNoCode, got %v", err)
	}
	if _, err := NewGate("", "not-a-hash"); err == nil {
		t.Fatalf("expected malformed hash error")
	}
}

func TestNilGateRejects(t *testing.T) {
	var g *Gate
	if g.Verify("ammd") {
		t.Fatalf("nil gate must reject")
	}
}
