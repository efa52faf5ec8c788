package gatt

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

// fakeTransport is a ServerTransport stub that records nothing and
// does nothing; the tests below drive Server.dispatch directly, so the
// transport only sees calls such as SetCallbacks from NewServer and
// SetMTU from the MTU exchange.
type fakeTransport struct{}

func (fakeTransport) StartAdvertising(AdvertisingParams) error        { return nil }
func (fakeTransport) StopAdvertising() error                          { return nil }
func (fakeTransport) AcceptConnection() (bool, error)                 { return false, nil }
func (fakeTransport) Disconnect(uint16) error                         { return nil }
func (fakeTransport) SendPDU(uint16, []byte) (int, error)             { return 0, nil }
func (fakeTransport) RecvPDU(uint16, []byte) (int, error)             { return 0, nil }
func (fakeTransport) GetMTU(uint16) (int, error)                      { return defaultATTMTU, nil }
func (fakeTransport) SetMTU(uint16, uint16) error                     { return nil }
func (fakeTransport) ProcessEvents() error                            { return nil }
func (fakeTransport) SetCallbacks(
	func(ConnectionParams),
	func(uint16, DisconnectReason),
	func(uint16, []byte),
) {
}

// newBareDatabase builds an empty database with none of NewDatabase's
// GAP/GATT seeding, so a test can put a service at handle 1 and match
// the wire-level examples in spec.md §8 verbatim.
func newBareDatabase() *Database {
	return &Database{
		log:               logrus.WithField("component", "attdb"),
		charByValueHandle: map[uint16]*Characteristic{},
	}
}

func newTestServer(db *Database) *Server {
	s := NewServer(db, fakeTransport{})
	s.conns.add(newConnectionState(1, BDAddr{}, AddressPublic))
	return s
}

func TestDispatchMTUExchange(t *testing.T) {
	s := newTestServer(newBareDatabase())
	req := []byte{0x02, 0x64, 0x00}
	want := []byte{0x03, 0x05, 0x02}
	if got := s.dispatch(1, req); !bytes.Equal(got, want) {
		t.Errorf("MTU exchange: got % X, want % X", got, want)
	}
	if mtu, ok := s.conns.mtu(1); !ok || mtu != 100 {
		t.Errorf("negotiated mtu = %d, want 100", mtu)
	}
}

func TestDispatchPrimaryServiceDiscovery(t *testing.T) {
	db := newBareDatabase()
	if _, err := db.AddPrimaryService(UUID16(0x180F)); err != nil {
		t.Fatalf("AddPrimaryService: %v", err)
	}
	if _, err := db.AddCharacteristic(1, UUID16(0x2A19), PropRead, PermRead); err != nil {
		t.Fatalf("AddCharacteristic: %v", err)
	}
	s := newTestServer(db)

	req := []byte{0x10, 0x01, 0x00, 0xFF, 0xFF, 0x00, 0x28}
	want := []byte{0x11, 0x06, 0x01, 0x00, 0x03, 0x00, 0x0F, 0x18}
	if got := s.dispatch(1, req); !bytes.Equal(got, want) {
		t.Errorf("read by group type: got % X, want % X", got, want)
	}
}

func TestDispatchCharacteristicDiscovery(t *testing.T) {
	db := newBareDatabase()
	if _, err := db.AddPrimaryService(UUID16(0x180F)); err != nil {
		t.Fatalf("AddPrimaryService: %v", err)
	}
	if _, err := db.AddCharacteristic(1, UUID16(0x2A19), PropRead|PropNotify, PermRead); err != nil {
		t.Fatalf("AddCharacteristic: %v", err)
	}
	s := newTestServer(db)

	req := []byte{0x08, 0x01, 0x00, 0x03, 0x00, 0x03, 0x28}
	want := []byte{0x09, 0x07, 0x02, 0x00, 0x12, 0x03, 0x00, 0x19, 0x2A}
	if got := s.dispatch(1, req); !bytes.Equal(got, want) {
		t.Errorf("read by type (characteristic decl): got % X, want % X", got, want)
	}

	if a, ok := db.Get(4); !ok || !a.Type.Equal(uuidCCCD) {
		t.Errorf("handle 4 = %+v, want an auto-generated CCCD", a)
	}
}

func TestDispatchReadInvalidOffset(t *testing.T) {
	db := newBareDatabase()
	if _, err := db.AddPrimaryService(UUID16(0x180F)); err != nil {
		t.Fatalf("AddPrimaryService: %v", err)
	}
	if _, err := db.addCharacteristic(1, UUID16(0x2A19), PropRead, PermRead, nil,
		func(connHandle uint16, offset int) ([]byte, AttError) { return nil, AttErrorInvalidOffset },
		nil); err != nil {
		t.Fatalf("addCharacteristic: %v", err)
	}
	s := newTestServer(db)

	req := []byte{0x0A, 0x03, 0x00}
	want := []byte{0x01, 0x0A, 0x03, 0x00, byte(AttErrorInvalidOffset)}
	if got := s.dispatch(1, req); !bytes.Equal(got, want) {
		t.Errorf("read with failing callback: got % X, want % X", got, want)
	}
}

func TestDispatchEnableNotificationsThenNotify(t *testing.T) {
	db := newBareDatabase()
	if _, err := db.AddPrimaryService(UUID16(0x180F)); err != nil {
		t.Fatalf("AddPrimaryService: %v", err)
	}
	if _, err := db.AddCharacteristic(1, UUID16(0x2A19), PropRead|PropNotify, PermRead); err != nil {
		t.Fatalf("AddCharacteristic: %v", err)
	}
	sent := [][]byte{}
	transport := &recordingTransport{sendPDU: func(connHandle uint16, b []byte) (int, error) {
		sent = append(sent, append([]byte(nil), b...))
		return len(b), nil
	}}
	s := NewServer(db, transport)
	s.conns.add(newConnectionState(1, BDAddr{}, AddressPublic))

	req := []byte{0x12, 0x04, 0x00, 0x01, 0x00}
	want := []byte{0x13}
	if got := s.dispatch(1, req); !bytes.Equal(got, want) {
		t.Errorf("write to CCCD: got % X, want % X", got, want)
	}
	if bits := s.conns.getCCCD(1, 3); bits != 0x0001 {
		t.Errorf("stored CCCD bits for value handle 3 = 0x%04X, want 0x0001", bits)
	}

	if err := s.Notify(1, 3, []byte{0x55}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("got %d PDUs sent, want 1", len(sent))
	}
	if want := []byte{0x1B, 0x03, 0x00, 0x55}; !bytes.Equal(sent[0], want) {
		t.Errorf("notification PDU = % X, want % X", sent[0], want)
	}
}

func TestDispatchReadByGroupTypeUnsupportedGroupType(t *testing.T) {
	s := newTestServer(newBareDatabase())
	req := []byte{0x10, 0x01, 0x00, 0xFF, 0xFF, 0x03, 0x28} // group type 0x2803 (characteristic)
	want := attErrorResp(attOpReadByGroupReq, 1, AttErrorUnsupportedGroupType)
	if got := s.dispatch(1, req); !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestDispatchStartHandleAfterEndHandleIsInvalidHandle(t *testing.T) {
	s := newTestServer(newBareDatabase())
	req := []byte{0x04, 0x05, 0x00, 0x01, 0x00} // Find Information, start 0x0005 > end 0x0001
	want := attErrorResp(attOpFindInfoReq, 5, AttErrorInvalidHandle)
	if got := s.dispatch(1, req); !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestDispatchWriteCommandToUnknownHandleIsSilent(t *testing.T) {
	s := newTestServer(newBareDatabase())
	req := []byte{0x52, 0x09, 0x00, 0xFF} // Write Command to handle 9, nothing registered
	if got := s.dispatch(1, req); got != nil {
		t.Errorf("write command to unknown handle returned % X, want nil", got)
	}
}

// recordingTransport is a fakeTransport that calls through a SendPDU
// hook, letting a test observe Notify/Indicate traffic without a real
// transport.
type recordingTransport struct {
	fakeTransport
	sendPDU func(connHandle uint16, b []byte) (int, error)
}

func (r *recordingTransport) SendPDU(connHandle uint16, b []byte) (int, error) {
	return r.sendPDU(connHandle, b)
}
