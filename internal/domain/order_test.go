package domain

import (
	"strings"
	"testing"
)

func TestNewOrderNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		if len(n) != 32 {
			t.Fatalf("expected 32 characters, got %d (%q)", len(n), n)
		}
		if n != strings.ToUpper(n) {
			t.Fatalf("expected uppercase, got %q", n)
		}
		if strings.ContainsAny(n, "-") {
			t.Fatalf("expected no separators, got %q", n)
		}
		if seen[n] {
			t.Fatalf("duplicate order number %q", n)
		}
		seen[n] = true
	}
}

func TestOptionalField(t *testing.T) {
	if got := OptionalField(""); got != nil {
		t.Fatalf("expected nil for empty, got %q", *got)
	}
	if got := OptionalField("   "); got != nil {
		t.Fatalf("expected nil for blank, got %q", *got)
	}
	got := OptionalField("  BS1 4ND ")
	if got == nil || *got != "BS1 4ND" {
		t.Fatalf("expected trimmed value, got %v", got)
	}
}

func TestCartCapErrorMessage(t *testing.T) {
	err := &CartCapError{ProductName: "Plant Hanger", Current: 8, Attempted: 3, Cap: 10}
	want := "cannot add 3 of Plant Hanger: 8 already in bag, limit is 10 per item"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
