// Package domain holds the typed identifiers shared across modules. Typed
// wrappers keep an account address from being confused with a raw name or a
// name key at compile time.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	dErrors "namemart/pkg/domain-errors"
)

// Address identifies a payment account in normalized 0x-prefixed lowercase
// hex form. The zero value means "no account" and is valid anywhere an
// optional referrer is accepted.
type Address string

// ZeroAddress is the absent-account marker.
const ZeroAddress Address = ""

// addressHexLen is the number of hex digits in an address body.
const addressHexLen = 40

// ParseAddress validates and normalizes an account address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "address must not be empty")
	}
	trimmed := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(trimmed) != addressHexLen {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "address must be 40 hex digits")
	}
	if _, err := hex.DecodeString(trimmed); err != nil {
		return ZeroAddress, dErrors.Wrap(dErrors.CodeInvalidInput, "address must be hex", err)
	}
	return Address("0x" + trimmed), nil
}

// ParseOptionalAddress accepts an empty string as the zero address.
func ParseOptionalAddress(s string) (Address, error) {
	if s == "" {
		return ZeroAddress, nil
	}
	return ParseAddress(s)
}

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is the absent-account marker.
func (a Address) IsZero() bool { return a == ZeroAddress }

// NameKey is the canonical identity hash of a name record. The registry and
// all keyed stores address names exclusively through this value.
type NameKey [32]byte

// KeyForName maps a raw name to its canonical key. The mapping is an opaque
// deterministic hash; nothing in the system parses it back.
func KeyForName(name string) NameKey {
	return sha256.Sum256([]byte(name))
}

// ParseNameKey decodes a hex-encoded name key.
func ParseNameKey(s string) (NameKey, error) {
	var key NameKey
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return key, dErrors.Wrap(dErrors.CodeInvalidInput, "name key must be hex", err)
	}
	if len(raw) != len(key) {
		return key, dErrors.New(dErrors.CodeInvalidInput, "name key must be 32 bytes")
	}
	copy(key[:], raw)
	return key, nil
}

func (k NameKey) String() string { return hex.EncodeToString(k[:]) }

// Amount is a quantity of the single payment asset in base units. All share
// math uses integer division; there are no fractional units.
type Amount uint64
