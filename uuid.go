package gatt

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// bleBaseUUID is the Bluetooth SIG base UUID. A 16-bit UUID 0xXXXX is
// shorthand for 0000XXXX-0000-1000-8000-00805F9B34FB.
var bleBaseUUID = [16]byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB,
}

// UUID is a BLE attribute UUID, either the 16-bit short form or the
// full 128-bit form. The zero value is not a valid UUID.
//
// UUID stores bytes in big-endian (canonical text) order; wire
// encoding is little-endian and is handled by Pack/AppendPack.
type UUID struct {
	b []byte // len 2 or 16, big-endian
}

// UUID16 builds the short-form UUID for a 16-bit attribute type such
// as 0x1800.
func UUID16(v uint16) UUID {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return UUID{b}
}

// ParseUUID parses a UUID in standard text form: a 4 hex-digit short
// form ("180F") or a dashed 128-bit form
// ("12345678-1234-5678-1234-56789abcdef0").
func ParseUUID(s string) (UUID, error) {
	s = strings.ReplaceAll(s, "-", "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return UUID{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	switch len(b) {
	case 2, 16:
		return UUID{b}, nil
	default:
		return UUID{}, fmt.Errorf("%w: uuid must be 2 or 16 bytes, got %d", ErrInvalidFormat, len(b))
	}
}

// MustParseUUID is ParseUUID, panicking on error. Intended for
// compile-time-constant UUID literals.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// UUIDFromBytes wraps raw big-endian UUID bytes (2 or 16 of them).
// It does not copy b.
func UUIDFromBytes(b []byte) (UUID, error) {
	switch len(b) {
	case 2, 16:
		return UUID{b}, nil
	default:
		return UUID{}, fmt.Errorf("%w: uuid must be 2 or 16 bytes, got %d", ErrInvalidFormat, len(b))
	}
}

// IsZero reports whether u is the unset UUID value.
func (u UUID) IsZero() bool { return len(u.b) == 0 }

// Len returns the length of the UUID's wire form: 2 or 16.
func (u UUID) Len() int { return len(u.b) }

// long expands a 16-bit UUID to its full 128-bit base-UUID form, and
// returns a 128-bit UUID's bytes unchanged.
func (u UUID) long() [16]byte {
	if len(u.b) == 16 {
		var out [16]byte
		copy(out[:], u.b)
		return out
	}
	out := bleBaseUUID
	copy(out[2:4], u.b)
	return out
}

// Equal reports whether u and v denote the same logical UUID,
// regardless of whether each is expressed in 16-bit or 128-bit form.
func (u UUID) Equal(v UUID) bool {
	if len(u.b) == 0 || len(v.b) == 0 {
		return len(u.b) == len(v.b)
	}
	if len(u.b) == len(v.b) {
		return string(u.b) == string(v.b)
	}
	ul, vl := u.long(), v.long()
	return ul == vl
}

// String renders the UUID in standard text form.
func (u UUID) String() string {
	switch len(u.b) {
	case 2:
		return fmt.Sprintf("%04X", u.b)
	case 16:
		return fmt.Sprintf("%08X-%04X-%04X-%04X-%012X",
			u.b[0:4], u.b[4:6], u.b[6:8], u.b[8:10], u.b[10:16])
	default:
		return "<invalid-uuid>"
	}
}

// reverseBytes returns a byte-reversed copy of b. BLE wire order for
// multi-byte fields, including UUIDs, is little-endian; the canonical
// text/struct order used by UUID is big-endian.
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// Pack returns the little-endian wire encoding of u: 2 bytes for a
// short-form UUID, 16 bytes for a long-form UUID.
func (u UUID) Pack() []byte {
	return reverseBytes(u.b)
}

// AppendPack appends the little-endian wire encoding of u to dst and
// returns the extended slice.
func (u UUID) AppendPack(dst []byte) []byte {
	return append(dst, u.Pack()...)
}
