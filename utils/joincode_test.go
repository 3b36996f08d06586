package utils

import (
	"strings"
	"testing"
)

func TestNewJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := NewJoinCode()
		if len(code) != joinCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), joinCodeLength)
		}
		for _, ch := range code {
			if !strings.ContainsRune(joinCodeAlphabet, ch) {
				t.Fatalf("code %q contains %q outside the alphabet", code, ch)
			}
		}
		seen[code] = true
	}
	// 200 draws from a 32^6 space colliding would point at a broken
	// generator.
	if len(seen) < 199 {
		t.Errorf("suspicious collision rate: %d distinct codes out of 200", len(seen))
	}
}
