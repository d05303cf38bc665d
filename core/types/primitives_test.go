package types

import (
	"strings"
	"testing"
)

func TestParseAddress(t *testing.T) {
	hexed := "0x00000000000000000000000000000000000000aa"
	addr, err := ParseAddress(hexed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addr[19] != 0xAA {
		t.Fatalf("unexpected last byte: %#x", addr[19])
	}
	if addr.Hex() != hexed {
		t.Fatalf("round trip = %s, want %s", addr.Hex(), hexed)
	}

	// Bare hex without the prefix is accepted too.
	bare, err := ParseAddress(strings.TrimPrefix(hexed, "0x"))
	if err != nil {
		t.Fatalf("parse bare: %v", err)
	}
	if bare != addr {
		t.Fatal("bare and prefixed forms must parse identically")
	}
}

func TestParseAddressRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "0x12", "0xzz00000000000000000000000000000000000000", "0x" + strings.Repeat("00", 21)} {
		if _, err := ParseAddress(input); err == nil {
			t.Fatalf("input %q must be rejected", input)
		}
	}
}

func TestParseTermID(t *testing.T) {
	hexed := "0x" + strings.Repeat("ab", 32)
	id, err := ParseTermID(hexed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.Hex() != hexed {
		t.Fatalf("round trip = %s, want %s", id.Hex(), hexed)
	}
	if _, err := ParseTermID("0x1234"); err == nil {
		t.Fatal("short id must be rejected")
	}
}

func TestIsZero(t *testing.T) {
	if !(Address{}).IsZero() || !(TermID{}).IsZero() {
		t.Fatal("zero values must report zero")
	}
	var addr Address
	addr[0] = 1
	if addr.IsZero() {
		t.Fatal("nonzero address must not report zero")
	}
}
