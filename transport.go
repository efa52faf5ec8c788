package gatt

import "time"

// FilterPolicy selects which advertisers a scan reports (spec.md §4.3.1).
type FilterPolicy int

const (
	FilterAll FilterPolicy = iota
	FilterWhitelist
)

// ScanParams configures ClientTransport.StartScan.
type ScanParams struct {
	Active           bool
	IntervalMS       int
	WindowMS         int
	FilterPolicy     FilterPolicy
	FilterDuplicates bool
}

// AddressType distinguishes public from random BLE device addresses.
type AddressType uint8

const (
	AddressPublic AddressType = 0
	AddressRandom AddressType = 1
)

// AdvEventType is the HCI LE Advertising Report event type byte.
type AdvEventType uint8

const (
	AdvInd        AdvEventType = 0x00
	AdvDirectInd  AdvEventType = 0x01
	AdvScanInd    AdvEventType = 0x02
	AdvNonconnInd AdvEventType = 0x03
	AdvScanRsp    AdvEventType = 0x04
)

// AdvertisementRecord is one scan result, raw or already decoded by
// the transport (spec.md §4.2, §4.3.1).
type AdvertisementRecord struct {
	Address     [6]byte
	AddressType AddressType
	EventType   AdvEventType
	RSSI        int8
	Data        []byte

	// Sequence is a monotonic counter set by transports whose internal
	// buffer is bounded, letting a caller detect a dropped record.
	Sequence uint64
}

// ConnId is an opaque client-side connection handle. LinuxClientTransport
// assigns them from a counter starting at 1; the integrated package
// has no client transport.
type ConnId uint64

// ConnectParams configures ClientTransport.Connect.
type ConnectParams struct {
	Address     [6]byte
	AddressType AddressType
	Timeout     time.Duration
}

// ClientTransport is the central-role transport contract (spec.md §4.3.1).
type ClientTransport interface {
	StartScan(params ScanParams) error
	StopScan() error

	// GetAdvertisements returns pending records. timeout == 0 is
	// non-blocking; timeout > 0 waits for at least one record or the
	// deadline; timeout < 0 waits forever.
	GetAdvertisements(timeout time.Duration) ([]AdvertisementRecord, error)

	Connect(params ConnectParams) (ConnId, error)
	Disconnect(conn ConnId) error

	// Send never fragments an ATT PDU across calls; n >= len(b) on
	// success.
	Send(conn ConnId, b []byte) (int, error)

	// Receive returns 0 with a nil error when no data is available yet.
	Receive(conn ConnId, buf []byte) (int, error)

	GetMTU(conn ConnId) (int, error)
	SetMTU(conn ConnId, mtu uint16) error
}

// ConnectionParams describes a newly accepted server-side connection
// (spec.md §4.3.2).
type ConnectionParams struct {
	ConnHandle      uint16
	PeerAddress     [6]byte
	PeerAddressType AddressType
}

// AdvertisingParams configures ServerTransport.StartAdvertising
// (spec.md §4.3.2). If AdvertisingData/ScanResponseData are empty,
// LinuxServerTransport builds a standard payload from DeviceName and
// ServiceUUIDs; the integrated ServerTransport builds none and sends
// only non-empty buffers.
type AdvertisingParams struct {
	DeviceName       string
	ServiceUUIDs     []UUID
	Appearance       uint16
	IntervalMinMS    int
	IntervalMaxMS    int
	AdvertisingData  []byte
	ScanResponseData []byte
}

// DisconnectReason classifies why a connection ended, passed to
// OnDisconnected.
type DisconnectReason int

const (
	DisconnectUnknown DisconnectReason = iota
	DisconnectPeerRequested
	DisconnectLocalRequested
	DisconnectLinkLoss
	DisconnectIOError
)

// ServerTransport is the peripheral-role transport contract (spec.md
// §4.3.2). Implementations call the three callbacks installed by
// SetCallbacks from whatever goroutine observes the underlying event
// (a background reader, or ProcessEvents for event-loop-driven
// transports); the engine never calls user code while holding its
// connection-table lock (spec.md §5).
type ServerTransport interface {
	StartAdvertising(params AdvertisingParams) error
	StopAdvertising() error

	// AcceptConnection polls one pending connection without blocking;
	// ok is false when none is pending. On success the transport has
	// already invoked OnConnected before returning true.
	AcceptConnection() (ok bool, err error)

	Disconnect(connHandle uint16) error
	SendPDU(connHandle uint16, b []byte) (int, error)
	RecvPDU(connHandle uint16, buf []byte) (int, error)

	GetMTU(connHandle uint16) (int, error)
	SetMTU(connHandle uint16, mtu uint16) error

	// ProcessEvents is one turn of the internal event pump. Transports
	// with a background reader thread treat this as a no-op.
	ProcessEvents() error

	SetCallbacks(
		onConnected func(ConnectionParams),
		onDisconnected func(connHandle uint16, reason DisconnectReason),
		onDataReceived func(connHandle uint16, b []byte),
	)
}
