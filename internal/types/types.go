// Package types holds the small shared value types used across the node:
// content hashes, opaque blobs, and bech32-less address validation.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Hash256 is a 32-byte SHA-256 digest used as a content-addressed key.
type Hash256 [32]byte

// Blob is an opaque serialized payload.
type Blob []byte

// Hash256FromData computes the SHA-256 digest of data.
func Hash256FromData(data []byte) Hash256 {
	return Hash256(sha256.Sum256(data))
}

// Hash256FromHex parses a 64-character hex string into a Hash256.
func Hash256FromHex(s string) (Hash256, error) {
	var h Hash256
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != 32 {
		return h, errors.New("hash must be 32 bytes")
	}
	copy(h[:], b)
	return h, nil
}

// String returns the uppercase hex representation of the hash.
func (h Hash256) String() string {
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

// IsZero reports whether the hash is all zeroes.
func (h Hash256) IsZero() bool {
	return h == Hash256{}
}

// MarshalText encodes the hash as uppercase hex for JSON and friends.
func (h Hash256) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText parses a hex-encoded hash.
func (h *Hash256) UnmarshalText(text []byte) error {
	parsed, err := Hash256FromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Address is a token account identifier. The host chain hands us opaque
// bech32-style strings; the ledger only needs them to be non-empty,
// lowercase, and of bounded length.
type Address = string

const (
	minAddressLen = 3
	maxAddressLen = 90
)

// ErrInvalidAddress is returned when an address fails validation.
var ErrInvalidAddress = errors.New("invalid address")

// ValidateAddress checks that addr is usable as an account identifier.
func ValidateAddress(addr string) error {
	if len(addr) < minAddressLen || len(addr) > maxAddressLen {
		return ErrInvalidAddress
	}
	for _, c := range addr {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
			continue
		}
		return ErrInvalidAddress
	}
	return nil
}
