package integrated

import (
	"encoding/binary"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	gatt "github.com/yinzara/libblepp"
)

// attCID is the fixed L2CAP channel ID ATT PDUs travel on.
const attCID = 0x0004

// HCI event codes this transport decodes out of the event stream
// (spec.md §4.3.3).
const (
	evtDisconnectionComplete byte = 0x05
	evtLEMeta                byte = 0x3E

	leSubEventConnectionComplete byte = 0x01
)

var errNoSuitableInterface = errors.New("integrated: no non-loopback interface with a hardware address")

// deriveIdentityAddress builds a random-static BLE address from the
// first non-loopback network interface's MAC, forcing the top two
// bits of the most significant octet to 0b11 (spec.md §4.3.3(e)).
func deriveIdentityAddress() ([6]byte, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return [6]byte{}, err
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(ifc.HardwareAddr) != 6 {
			continue
		}
		var addr [6]byte
		copy(addr[:], ifc.HardwareAddr)
		addr[0] |= 0xC0
		return addr, nil
	}
	return [6]byte{}, errNoSuitableInterface
}

// ServerTransport implements gatt.ServerTransport over the
// character-device ioctl interface (spec.md §4.3.2, §4.3.3, §6).
// Only one peripheral connection is modeled, matching the original
// single-link integrated stack; connHandle is the handle reported by
// its LE Connection Complete event.
type ServerTransport struct {
	log *logrus.Entry
	dev *device

	identity [6]byte

	// syncSem is posted by the event loop after every HCI event; its
	// one-slot buffer keeps the first post and later posts are dropped
	// while it is full. InitTransport waits on it with a 5s timeout.
	syncSem chan struct{}

	mu         sync.Mutex
	connected  bool
	connHandle uint16
	mtu        int

	onConnected    func(gatt.ConnectionParams)
	onDisconnected func(connHandle uint16, reason gatt.DisconnectReason)
	onDataReceived func(connHandle uint16, b []byte)
}

// InitTransport opens the character device at path and carries out
// the initialization ordering spec.md §4.3.3 requires:
//
//	(a) open device, start the event reader (async-io signal + signal
//	    handler are replaced by the reader goroutine — spec.md §9).
//	(b) initialize the host stack (coexist-start).
//	(c) the caller must register every GATT service on its Database
//	    before calling this, mirroring "services can only be added
//	    while the stack is not yet synchronized" — this package has no
//	    way to enforce that, so it is a documented precondition rather
//	    than a runtime check.
//	(d) start the host task (coexist-start's response implicitly
//	    starts it; there is no separate ioctl for this step).
//	(e) ensure a BLE identity address exists.
//	(f) wait on the synchronization semaphore with a 5s timeout.
func InitTransport(path string) (*ServerTransport, error) {
	dev, err := openDevice(path)
	if err != nil {
		return nil, err
	}
	t := &ServerTransport{
		log:     logrus.WithField("component", "integrated-transport"),
		dev:     dev,
		syncSem: make(chan struct{}, 1),
		mtu:     23,
	}
	go t.eventLoop()

	if err := dev.coexistStart(); err != nil {
		dev.close()
		return nil, err
	}

	addr, err := deriveIdentityAddress()
	if err != nil {
		dev.close()
		return nil, err
	}
	t.identity = addr

	select {
	case <-t.syncSem:
	case <-time.After(5 * time.Second):
		dev.close()
		return nil, gatt.ErrTimeout
	}
	return t, nil
}

// eventLoop drains dev.eventc, the one goroutine permitted to invoke
// this transport's callbacks (spec.md §5 — never while holding the
// connection-table lock, which here is just t.mu).
func (t *ServerTransport) eventLoop() {
	for b := range t.dev.eventc {
		if len(b) < 1 {
			continue
		}
		switch b[0] {
		case hciPktEvent:
			t.handleHCIEvent(b[1:])
		case hciPktACL:
			t.handleACL(b[1:])
		default:
			t.log.WithField("type", b[0]).Debug("ignoring unrecognized frame type")
		}
	}
}

func (t *ServerTransport) handleHCIEvent(b []byte) {
	if len(b) < 2 {
		return
	}
	code, plen := b[0], int(b[1])
	if len(b) < 2+plen {
		t.log.Debug("dropping truncated HCI event")
		return
	}
	params := b[2 : 2+plen]

	switch code {
	case evtLEMeta:
		t.handleLEMeta(params)
	case evtDisconnectionComplete:
		t.handleDisconnectionComplete(params)
	default:
		// Synchronization isn't a standard HCI event; this transport
		// treats any HCI event as proof the controller is alive, so
		// syncSem is posted below whatever the event code.
	}
	t.postSyncOnce()
}

func (t *ServerTransport) postSyncOnce() {
	select {
	case t.syncSem <- struct{}{}:
	default:
	}
}

func (t *ServerTransport) handleLEMeta(b []byte) {
	if len(b) < 1 || b[0] != leSubEventConnectionComplete {
		return
	}
	if len(b) < 18 {
		return
	}
	connHandle := binary.LittleEndian.Uint16(b[2:4])
	var peerAddr [6]byte
	copy(peerAddr[:], b[6:12])
	peerAddrType := b[5]

	t.mu.Lock()
	t.connected = true
	t.connHandle = connHandle
	t.mu.Unlock()

	if t.onConnected != nil {
		t.onConnected(gatt.ConnectionParams{
			ConnHandle:      connHandle,
			PeerAddress:     peerAddr,
			PeerAddressType: gatt.AddressType(peerAddrType),
		})
	}
}

func (t *ServerTransport) handleDisconnectionComplete(b []byte) {
	if len(b) < 4 {
		return
	}
	connHandle := binary.LittleEndian.Uint16(b[1:3])
	reason := b[3]

	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()

	if t.onDisconnected != nil {
		t.onDisconnected(connHandle, classifyHCIDisconnectReason(reason))
	}
}

func classifyHCIDisconnectReason(reason byte) gatt.DisconnectReason {
	switch reason {
	case 0x13, 0x16:
		return gatt.DisconnectPeerRequested
	case 0x08, 0x22:
		return gatt.DisconnectLinkLoss
	default:
		return gatt.DisconnectUnknown
	}
}

// handleACL strips the HCI ACL header and the fixed-channel L2CAP
// header, matching linux/l2cap.go's conn.Read framing, and delivers
// the remaining ATT payload.
func (t *ServerTransport) handleACL(b []byte) {
	if len(b) < 4 {
		return
	}
	connHandle := binary.LittleEndian.Uint16(b[0:2]) & 0x0FFF
	dlen := binary.LittleEndian.Uint16(b[2:4])
	if len(b) < 4+int(dlen) || dlen < 4 {
		return
	}
	l2cap := b[4 : 4+int(dlen)]
	cid := binary.LittleEndian.Uint16(l2cap[2:4])
	if cid != attCID {
		return
	}
	att := append([]byte(nil), l2cap[4:]...)
	if t.onDataReceived != nil {
		t.onDataReceived(connHandle, att)
	}
}

// StartAdvertising pushes the raw advertising and scan-response data
// that are non-empty, then starts advertising. It builds no payload of
// its own: an empty buffer is not sent, and DeviceName and
// ServiceUUIDs are not used.
func (t *ServerTransport) StartAdvertising(params gatt.AdvertisingParams) error {
	advData := params.AdvertisingData
	scanData := params.ScanResponseData
	if len(advData) > 0 {
		if err := t.dev.setAdvData(advData); err != nil {
			return err
		}
	}
	if len(scanData) > 0 {
		if err := t.dev.setScanRespData(scanData); err != nil {
			return err
		}
	}
	return t.dev.startAdv()
}

func (t *ServerTransport) StopAdvertising() error { return t.dev.coexistStop() }

// AcceptConnection reports whether the single peripheral link is in
// the connected state set by the LE Connection Complete handler. It
// returns true on every call while the link stays connected, not only
// on the first call after a new connection; onConnected already fired
// from the event-loop goroutine by the time this returns true.
func (t *ServerTransport) AcceptConnection() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return true, nil
	}
	return false, nil
}

func (t *ServerTransport) Disconnect(connHandle uint16) error {
	return t.dev.txHCIPacket(hciPktCommand, disconnectCommandPacket(connHandle))
}

// disconnectCommandPacket builds an HCI_Disconnect command (opcode
// 0x0406): [opcode_lo][opcode_hi][param_len][conn_handle_lo][conn_handle_hi][reason].
func disconnectCommandPacket(connHandle uint16) []byte {
	b := make([]byte, 6)
	binary.LittleEndian.PutUint16(b[0:2], 0x0406)
	b[2] = 3
	binary.LittleEndian.PutUint16(b[3:5], connHandle)
	b[5] = 0x13
	return b
}

// SendPDU wraps b in the fixed-ATT-channel L2CAP header and an HCI
// ACL header, then submits it through the tx-hci-packet ioctl.
func (t *ServerTransport) SendPDU(connHandle uint16, b []byte) (int, error) {
	l2cap := make([]byte, 4+len(b))
	binary.LittleEndian.PutUint16(l2cap[0:2], uint16(len(b)))
	binary.LittleEndian.PutUint16(l2cap[2:4], attCID)
	copy(l2cap[4:], b)

	acl := make([]byte, 4+len(l2cap))
	binary.LittleEndian.PutUint16(acl[0:2], connHandle&0x0FFF)
	binary.LittleEndian.PutUint16(acl[2:4], uint16(len(l2cap)))
	copy(acl[4:], l2cap)

	if err := t.dev.txHCIPacket(hciPktACL, acl); err != nil {
		return 0, err
	}
	return len(b), nil
}

// RecvPDU is never polled by the server engine: inbound ATT PDUs
// arrive through onDataReceived from the event-loop goroutine
// (handleACL). It exists only to satisfy gatt.ServerTransport.
func (t *ServerTransport) RecvPDU(connHandle uint16, buf []byte) (int, error) {
	return 0, nil
}

func (t *ServerTransport) GetMTU(connHandle uint16) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mtu, nil
}

func (t *ServerTransport) SetMTU(connHandle uint16, mtu uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mtu = int(mtu)
	return nil
}

// ProcessEvents is a no-op: the event-loop goroutine started by
// InitTransport pumps the device's event stream on its own.
func (t *ServerTransport) ProcessEvents() error { return nil }

func (t *ServerTransport) SetCallbacks(
	onConnected func(gatt.ConnectionParams),
	onDisconnected func(connHandle uint16, reason gatt.DisconnectReason),
	onDataReceived func(connHandle uint16, b []byte),
) {
	t.onConnected = onConnected
	t.onDisconnected = onDisconnected
	t.onDataReceived = onDataReceived
}

// Close releases the underlying character device.
func (t *ServerTransport) Close() error { return t.dev.close() }
