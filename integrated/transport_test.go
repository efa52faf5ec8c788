package integrated

import (
	"encoding/binary"
	"testing"

	gatt "github.com/yinzara/libblepp"
)

func TestClassifyHCIDisconnectReason(t *testing.T) {
	cases := []struct {
		reason byte
		want   gatt.DisconnectReason
	}{
		{0x13, gatt.DisconnectPeerRequested},
		{0x16, gatt.DisconnectPeerRequested},
		{0x08, gatt.DisconnectLinkLoss},
		{0x22, gatt.DisconnectLinkLoss},
		{0x99, gatt.DisconnectUnknown},
	}
	for _, tt := range cases {
		if got := classifyHCIDisconnectReason(tt.reason); got != tt.want {
			t.Errorf("classifyHCIDisconnectReason(%#x) = %v, want %v", tt.reason, got, tt.want)
		}
	}
}

func TestDisconnectCommandPacket(t *testing.T) {
	b := disconnectCommandPacket(0x0042)
	if len(b) != 6 {
		t.Fatalf("len = %d, want 6", len(b))
	}
	if opcode := binary.LittleEndian.Uint16(b[0:2]); opcode != 0x0406 {
		t.Errorf("opcode = %#x, want 0x0406", opcode)
	}
	if b[2] != 3 {
		t.Errorf("param len = %d, want 3", b[2])
	}
	if h := binary.LittleEndian.Uint16(b[3:5]); h != 0x0042 {
		t.Errorf("conn handle = %#x, want 0x0042", h)
	}
}

func TestHandleACLDeliversATTPayload(t *testing.T) {
	tr := &ServerTransport{}
	att := []byte{0x0A, 0x01, 0x00} // a Read Request-shaped ATT PDU
	l2cap := make([]byte, 4+len(att))
	binary.LittleEndian.PutUint16(l2cap[0:2], uint16(len(att)))
	binary.LittleEndian.PutUint16(l2cap[2:4], attCID)
	copy(l2cap[4:], att)

	acl := make([]byte, 4+len(l2cap))
	binary.LittleEndian.PutUint16(acl[0:2], 1)
	binary.LittleEndian.PutUint16(acl[2:4], uint16(len(l2cap)))
	copy(acl[4:], l2cap)

	var gotHandle uint16
	var gotData []byte
	tr.onDataReceived = func(connHandle uint16, b []byte) {
		gotHandle, gotData = connHandle, b
	}
	tr.handleACL(acl)

	if gotHandle != 1 {
		t.Errorf("connHandle = %d, want 1", gotHandle)
	}
	if string(gotData) != string(att) {
		t.Errorf("data = %x, want %x", gotData, att)
	}
}

func TestHandleACLDropsOtherChannels(t *testing.T) {
	tr := &ServerTransport{}
	l2cap := make([]byte, 4)
	binary.LittleEndian.PutUint16(l2cap[0:2], 0)
	binary.LittleEndian.PutUint16(l2cap[2:4], 0x0006) // not the ATT CID

	acl := make([]byte, 4+len(l2cap))
	binary.LittleEndian.PutUint16(acl[2:4], uint16(len(l2cap)))
	copy(acl[4:], l2cap)

	called := false
	tr.onDataReceived = func(uint16, []byte) { called = true }
	tr.handleACL(acl)

	if called {
		t.Error("handleACL should not deliver data from a non-ATT channel")
	}
}

func TestACLFramingRoundTrip(t *testing.T) {
	att := []byte{0x12, 0x34, 0x56}

	l2cap := make([]byte, 4+len(att))
	binary.LittleEndian.PutUint16(l2cap[0:2], uint16(len(att)))
	binary.LittleEndian.PutUint16(l2cap[2:4], attCID)
	copy(l2cap[4:], att)

	acl := make([]byte, 4+len(l2cap))
	binary.LittleEndian.PutUint16(acl[0:2], 7&0x0FFF)
	binary.LittleEndian.PutUint16(acl[2:4], uint16(len(l2cap)))
	copy(acl[4:], l2cap)

	// The frame above is built by hand with the same ACL + L2CAP layout
	// SendPDU writes; SendPDU itself needs a live device and is not
	// called. handleACL must unwrap it back to the ATT payload.
	tr := &ServerTransport{}
	var got []byte
	tr.onDataReceived = func(_ uint16, b []byte) { got = b }
	tr.handleACL(acl)

	if string(got) != string(att) {
		t.Errorf("round-tripped PDU = %x, want %x", got, att)
	}
}
