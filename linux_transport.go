package gatt

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yinzara/libblepp/linux"
)

// linuxAdvertiser is the subset of linux.advertiser's exported methods
// the server transport needs. The concrete type linux.NewAdvertiser
// returns is unexported, so it is held behind this interface rather
// than named directly.
type linuxAdvertiser interface {
	Option(opts ...linux.Option) linux.Option
	Start() error
	Stop() error
}

// NewLinuxServerTransport wraps an open linux.HCI as a ServerTransport
// (spec.md §6, "the Linux socket transport"). deviceID is not used:
// linux.NewHCI opens hci1, falling back to hci0. maxConn is passed to
// linux.NewHCI, which bounds simultaneous peripheral connections.
func NewLinuxServerTransport(deviceID int, maxConn int) (*LinuxServerTransport, error) {
	h, err := linux.NewHCI(maxConn)
	if err != nil {
		return nil, err
	}
	t := &LinuxServerTransport{
		log:     logrus.WithField("component", "linux-server-transport"),
		hci:     h,
		adv:     linux.NewAdvertiser(h),
		maxConn: maxConn,
		conns:   map[uint16]*linuxPeerConn{},
		pending: make(chan *linuxPeerConn, maxConn),
	}
	h.AcceptSlaveHandler = t.acceptSlave
	return t, nil
}

type linuxPeerConn struct {
	rwc  io.ReadWriteCloser
	pd   *linux.PlatData
	mtu  int
	recv chan []byte
}

// LinuxServerTransport implements ServerTransport on top of an HCI
// raw socket (spec.md §6). One goroutine per accepted connection
// reads PDUs off the L2CAP channel and delivers them through
// onDataReceived; AcceptConnection just drains the queue HCI's own
// connection-complete handler already filled.
type LinuxServerTransport struct {
	log     *logrus.Entry
	hci     *linux.HCI
	adv     linuxAdvertiser
	maxConn int

	mu       sync.Mutex
	conns    map[uint16]*linuxPeerConn
	nextConn uint16

	pending chan *linuxPeerConn

	onConnected    func(ConnectionParams)
	onDisconnected func(connHandle uint16, reason DisconnectReason)
	onDataReceived func(connHandle uint16, b []byte)
}

func (t *LinuxServerTransport) acceptSlave(rwc io.ReadWriteCloser, pd *linux.PlatData) {
	select {
	case t.pending <- &linuxPeerConn{rwc: rwc, pd: pd, mtu: defaultATTMTU, recv: make(chan []byte, 8)}:
	default:
		t.log.Warn("dropping accepted connection, pending queue full")
		rwc.Close()
	}
}

// StartAdvertising synthesizes advertising/scan-response payloads
// from params when the caller didn't supply raw ones, then enables
// advertising (spec.md §4.3.2, §4.2).
func (t *LinuxServerTransport) StartAdvertising(params AdvertisingParams) error {
	advData := params.AdvertisingData
	if len(advData) == 0 && len(params.ServiceUUIDs) > 0 {
		advData, _ = serviceAdvertisingPacket(params.ServiceUUIDs)
	}
	scanData := params.ScanResponseData
	if len(scanData) == 0 && params.DeviceName != "" {
		scanData = nameScanResponsePacket(params.DeviceName)
	}

	opts := []linux.Option{}
	if len(advData) > 0 {
		opts = append(opts, linux.AdvertisingPacket(advData))
	}
	if len(scanData) > 0 {
		opts = append(opts, linux.ScanResponsePacket(scanData))
	}
	if params.IntervalMinMS > 0 {
		opts = append(opts, linux.AdvertisingIntervalMin(msToHCIInterval(params.IntervalMinMS)))
	}
	if params.IntervalMaxMS > 0 {
		opts = append(opts, linux.AdvertisingIntervalMax(msToHCIInterval(params.IntervalMaxMS)))
	}
	t.adv.Option(opts...)
	return t.adv.Start()
}

func (t *LinuxServerTransport) StopAdvertising() error { return t.adv.Stop() }

// msToHCIInterval converts milliseconds to the 0.625ms HCI advertising
// interval unit (spec.md §4.3.2).
func msToHCIInterval(ms int) uint16 { return uint16(ms * 1000 / 625) }

func (t *LinuxServerTransport) AcceptConnection() (bool, error) {
	select {
	case pc := <-t.pending:
		t.mu.Lock()
		t.nextConn++
		connHandle := t.nextConn
		t.conns[connHandle] = pc
		t.mu.Unlock()

		go t.readLoop(connHandle, pc)

		if t.onConnected != nil {
			t.onConnected(ConnectionParams{
				ConnHandle:      connHandle,
				PeerAddress:     pc.pd.Address,
				PeerAddressType: AddressType(pc.pd.AddressType),
			})
		}
		return true, nil
	default:
		return false, nil
	}
}

func (t *LinuxServerTransport) readLoop(connHandle uint16, pc *linuxPeerConn) {
	buf := make([]byte, maxATTMTU)
	for {
		n, err := pc.rwc.Read(buf)
		if err != nil {
			t.mu.Lock()
			delete(t.conns, connHandle)
			t.mu.Unlock()
			if t.onDisconnected != nil {
				t.onDisconnected(connHandle, classifyReadError(err))
			}
			return
		}
		if n == 0 {
			continue
		}
		b := append([]byte(nil), buf[:n]...)
		if t.onDataReceived != nil {
			t.onDataReceived(connHandle, b)
		}
	}
}

func classifyReadError(err error) DisconnectReason {
	if err == io.EOF {
		return DisconnectPeerRequested
	}
	return DisconnectIOError
}

func (t *LinuxServerTransport) Disconnect(connHandle uint16) error {
	t.mu.Lock()
	pc, ok := t.conns[connHandle]
	delete(t.conns, connHandle)
	t.mu.Unlock()
	if !ok {
		return ErrUnreachable
	}
	return pc.rwc.Close()
}

func (t *LinuxServerTransport) SendPDU(connHandle uint16, b []byte) (int, error) {
	t.mu.Lock()
	pc, ok := t.conns[connHandle]
	t.mu.Unlock()
	if !ok {
		return 0, ErrUnreachable
	}
	return pc.rwc.Write(b)
}

// RecvPDU is never polled by the server engine, which receives PDUs
// through onDataReceived from the per-connection read goroutine; it
// exists only to satisfy ServerTransport.
func (t *LinuxServerTransport) RecvPDU(connHandle uint16, buf []byte) (int, error) {
	return 0, nil
}

func (t *LinuxServerTransport) GetMTU(connHandle uint16) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pc, ok := t.conns[connHandle]
	if !ok {
		return 0, ErrUnreachable
	}
	return pc.mtu, nil
}

func (t *LinuxServerTransport) SetMTU(connHandle uint16, mtu uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	pc, ok := t.conns[connHandle]
	if !ok {
		return ErrUnreachable
	}
	pc.mtu = int(mtu)
	return nil
}

// ProcessEvents is a no-op: linux.HCI pumps events on its own
// background goroutine (linux.HCI.mainLoop).
func (t *LinuxServerTransport) ProcessEvents() error { return nil }

func (t *LinuxServerTransport) SetCallbacks(
	onConnected func(ConnectionParams),
	onDisconnected func(connHandle uint16, reason DisconnectReason),
	onDataReceived func(connHandle uint16, b []byte),
) {
	t.onConnected = onConnected
	t.onDisconnected = onDisconnected
	t.onDataReceived = onDataReceived
}

// Close releases the underlying HCI socket.
func (t *LinuxServerTransport) Close() error { return t.hci.Close() }

// NewLinuxClientTransport wraps an open linux.HCI as a ClientTransport
// for central-role use (spec.md §6, §4.3.1).
func NewLinuxClientTransport(maxConn int) (*LinuxClientTransport, error) {
	h, err := linux.NewHCI(maxConn)
	if err != nil {
		return nil, err
	}
	t := &LinuxClientTransport{
		log:      logrus.WithField("component", "linux-client-transport"),
		hci:      h,
		conns:    map[ConnId]*linuxPeerConn{},
		connWait: make(chan struct{}),
	}
	h.AdvertisementHandler = t.handleAdvertisement
	h.AcceptMasterHandler = t.handleMaster
	return t, nil
}

// LinuxClientTransport implements ClientTransport on top of an HCI
// raw socket.
type LinuxClientTransport struct {
	log *logrus.Entry
	hci *linux.HCI

	scanMu  sync.Mutex
	adverts []AdvertisementRecord
	seq     uint64

	mu       sync.Mutex
	conns    map[ConnId]*linuxPeerConn
	nextConn ConnId

	connWaitMu sync.Mutex
	connWait   chan struct{}
	connAddr   [6]byte
	connID     ConnId
}

func (t *LinuxClientTransport) handleAdvertisement(pd *linux.PlatData) {
	evt := AdvNonconnInd
	if pd.Connectable {
		evt = AdvInd
	}
	t.scanMu.Lock()
	t.seq++
	rec := AdvertisementRecord{
		Address:     pd.Address,
		AddressType: AddressType(pd.AddressType),
		EventType:   evt,
		RSSI:        pd.RSSI,
		Data:        append([]byte(nil), pd.Data...),
		Sequence:    t.seq,
	}
	t.adverts = append(t.adverts, rec)
	t.scanMu.Unlock()
}

func (t *LinuxClientTransport) handleMaster(rwc io.ReadWriteCloser, addr net.HardwareAddr) {
	t.connWaitMu.Lock()
	defer t.connWaitMu.Unlock()
	var raw [6]byte
	copy(raw[:], addr)
	t.connAddr = raw

	t.mu.Lock()
	t.nextConn++
	id := t.nextConn
	t.conns[id] = &linuxPeerConn{rwc: rwc, mtu: defaultATTMTU, recv: make(chan []byte, 8)}
	t.mu.Unlock()

	t.connID = id
	go t.readLoop(id)
	close(t.connWait)
}

func (t *LinuxClientTransport) readLoop(id ConnId) {
	t.mu.Lock()
	pc := t.conns[id]
	t.mu.Unlock()
	if pc == nil {
		return
	}
	buf := make([]byte, maxATTMTU)
	for {
		n, err := pc.rwc.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		b := append([]byte(nil), buf[:n]...)
		select {
		case pc.recv <- b:
		default:
		}
	}
}

// StartScan ignores params: linux.HCI.Scan always runs an active scan
// with interval and window 0x0010 (10 ms) and the controller's
// duplicate filter enabled.
func (t *LinuxClientTransport) StartScan(params ScanParams) error { return t.hci.Scan() }

func (t *LinuxClientTransport) StopScan() error { return t.hci.StopScan() }

func (t *LinuxClientTransport) GetAdvertisements(timeout time.Duration) ([]AdvertisementRecord, error) {
	deadline := time.Now().Add(timeout)
	for {
		t.scanMu.Lock()
		if len(t.adverts) > 0 {
			out := t.adverts
			t.adverts = nil
			t.scanMu.Unlock()
			return out, nil
		}
		t.scanMu.Unlock()

		if timeout == 0 {
			return nil, nil
		}
		if timeout > 0 && time.Now().After(deadline) {
			return nil, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (t *LinuxClientTransport) Connect(params ConnectParams) (ConnId, error) {
	t.connWaitMu.Lock()
	t.connWait = make(chan struct{})
	wait := t.connWait
	t.connWaitMu.Unlock()

	pd := &linux.PlatData{
		Address:     params.Address,
		AddressType: uint8(params.AddressType),
	}
	if err := t.hci.Connect(pd); err != nil {
		return 0, err
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case <-wait:
	case <-time.After(timeout):
		return 0, ErrTimeout
	}

	t.connWaitMu.Lock()
	addr := t.connAddr
	id := t.connID
	t.connWaitMu.Unlock()
	if addr != params.Address {
		return 0, ErrUnreachable
	}
	return id, nil
}

func (t *LinuxClientTransport) Disconnect(conn ConnId) error {
	t.mu.Lock()
	pc, ok := t.conns[conn]
	delete(t.conns, conn)
	t.mu.Unlock()
	if !ok {
		return ErrUnreachable
	}
	return pc.rwc.Close()
}

func (t *LinuxClientTransport) Send(conn ConnId, b []byte) (int, error) {
	t.mu.Lock()
	pc, ok := t.conns[conn]
	t.mu.Unlock()
	if !ok {
		return 0, ErrUnreachable
	}
	return pc.rwc.Write(b)
}

func (t *LinuxClientTransport) Receive(conn ConnId, buf []byte) (int, error) {
	t.mu.Lock()
	pc, ok := t.conns[conn]
	t.mu.Unlock()
	if !ok {
		return 0, ErrUnreachable
	}
	select {
	case b := <-pc.recv:
		n := copy(buf, b)
		return n, nil
	default:
		return 0, nil
	}
}

func (t *LinuxClientTransport) GetMTU(conn ConnId) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pc, ok := t.conns[conn]
	if !ok {
		return 0, ErrUnreachable
	}
	return pc.mtu, nil
}

func (t *LinuxClientTransport) SetMTU(conn ConnId, mtu uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	pc, ok := t.conns[conn]
	if !ok {
		return ErrUnreachable
	}
	pc.mtu = int(mtu)
	return nil
}

// Close releases the underlying HCI socket.
func (t *LinuxClientTransport) Close() error { return t.hci.Close() }
