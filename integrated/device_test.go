package integrated

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEventRecordUnmarshalTruncated(t *testing.T) {
	var r eventRecord
	if err := r.unmarshal(make([]byte, 10)); err == nil {
		t.Error("unmarshal of a short buffer should fail")
	}
}

func TestEventRecordFrame(t *testing.T) {
	var r eventRecord
	payload := []byte{0xAA, 0xBB, 0xCC}
	binary.LittleEndian.PutUint16(r.buffer[0:2], uint16(len(payload)))
	binary.LittleEndian.PutUint16(r.buffer[2:4], msgIDEvent)
	copy(r.buffer[4:], payload)

	id, got, ok := r.frame()
	if !ok {
		t.Fatal("frame() reported not ok on a well-formed buffer")
	}
	if id != msgIDEvent {
		t.Errorf("id = %#x, want %#x", id, msgIDEvent)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %x, want %x", got, payload)
	}
}

func TestEventRecordFrameTruncatedLength(t *testing.T) {
	var r eventRecord
	binary.LittleEndian.PutUint16(r.buffer[0:2], eventBufferLen) // claims more than is present
	binary.LittleEndian.PutUint16(r.buffer[2:4], msgIDEvent)

	if _, _, ok := r.frame(); ok {
		t.Error("frame() should report not ok when the claimed length overruns the buffer")
	}
}

// TestIdentityAddressBitForcing checks the mask expression that
// deriveIdentityAddress applies to the first address byte, on fixed
// MACs; deriveIdentityAddress itself reads the host's interfaces and
// is not called here.
func TestIdentityAddressBitForcing(t *testing.T) {
	cases := [][6]byte{
		{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		{0xFF, 0x00, 0x00, 0x00, 0x00, 0x01},
	}
	for _, mac := range cases {
		addr := mac
		addr[0] |= 0xC0
		if addr[0]&0xC0 != 0xC0 {
			t.Errorf("top two bits not forced for mac %x", mac)
		}
	}
}

func TestLengthPrefixed(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	got := lengthPrefixed(data)
	want := []byte{4, 1, 2, 3, 4}
	if !bytes.Equal(got, want) {
		t.Errorf("lengthPrefixed(%x) = %x, want %x", data, got, want)
	}
}
