package gatt

import "encoding/binary"

// This file holds the ATT PDU primitive codecs (C1): little-endian
// u16/handle read+write, length-prefixed UUID reads, and
// remaining-bytes-as-value reads. All ATT integers are little-endian
// on the wire (spec.md §4.1, §6).

func putUint16LE(dst []byte, v uint16) {
	binary.LittleEndian.PutUint16(dst, v)
}

func appendUint16LE(dst []byte, v uint16) []byte {
	return append(dst, byte(v), byte(v>>8))
}

func readUint16LE(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, ErrTruncatedPDU
	}
	return binary.LittleEndian.Uint16(b), nil
}

// readHandle reads a 16-bit attribute handle. Handles share the u16
// LE wire representation but 0x0000 is reserved/invalid at the
// protocol layer, not the codec layer, so no extra validation here.
func readHandle(b []byte) (uint16, error) {
	return readUint16LE(b)
}

// readUUID reads a UUID whose wire length (2 or 16 bytes) is implied
// by the remaining buffer length, as used by Read By Type Request's
// UUID field (spec.md §4.5.1, opcode 0x08).
func readUUID(b []byte) (UUID, error) {
	switch len(b) {
	case 2, 16:
		return UUID{reverseBytes(b)}, nil
	default:
		return UUID{}, ErrTruncatedPDU
	}
}

// readRemaining returns the rest of b as an attribute value; ATT PDUs
// place the value as the final, length-implicit field.
func readRemaining(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
