package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address is a raw 20-byte account identifier.
type Address [20]byte

// Hex returns the 0x-prefixed hexadecimal form of the address.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ParseAddress decodes a 0x-prefixed or bare hexadecimal address string.
func ParseAddress(s string) (Address, error) {
	var addr Address
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("invalid address length %d", len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// TermID is the content-addressed 32-byte identifier of an atom or triple.
type TermID [32]byte

// Hex returns the 0x-prefixed hexadecimal form of the identifier.
func (t TermID) Hex() string {
	return "0x" + hex.EncodeToString(t[:])
}

// IsZero reports whether the identifier is the zero value.
func (t TermID) IsZero() bool {
	return t == TermID{}
}

// ParseTermID decodes a 0x-prefixed or bare hexadecimal term identifier.
func ParseTermID(s string) (TermID, error) {
	var id TermID
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, fmt.Errorf("invalid term id %q: %w", s, err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("invalid term id length %d", len(raw))
	}
	copy(id[:], raw)
	return id, nil
}
