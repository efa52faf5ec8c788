package linux

// o is the little-endian field writer cmd.go's marshal methods use.
// The teacher's retrieved cmd.go referenced it without ever defining
// or importing it; grounded on xaionaro-go-gatt/linux/util's
// binaryOrder (same PutUint8/PutUint16/PutUint64/PutMAC shape, MAC
// bytes reversed since HCI addresses are little-endian on the wire).
type littleEndian struct{}

var o littleEndian

func (littleEndian) Uint8(b []byte) uint8 { return b[0] }
func (littleEndian) Int8(b []byte) int8   { return int8(b[0]) }
func (littleEndian) Uint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
func (littleEndian) MAC(b []byte) [6]byte {
	return [6]byte{b[5], b[4], b[3], b[2], b[1], b[0]}
}

func (littleEndian) PutUint8(b []byte, v uint8) { b[0] = v }

func (littleEndian) PutUint16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func (littleEndian) PutUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

func (littleEndian) PutMAC(b []byte, m [6]byte) {
	b[0], b[1], b[2], b[3], b[4], b[5] = m[5], m[4], m[3], m[2], m[1], m[0]
}
