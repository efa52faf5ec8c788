// Package integrated implements the integrated-stack ioctl transport
// (spec.md §4.3.3, §6): a single character device exposing six ioctl
// commands plus a framed asynchronous event stream, wired to the root
// package's ServerTransport contract.
package integrated

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/yinzara/libblepp/linux/gioctl"
)

// ioctlBase is the ATBM_IOCTL base number the six commands are built
// from: _IOW(121, n, unsigned), n in 0..5.
const ioctlBase = 121

var (
	cmdCoexistStart = gioctl.IoW(ioctlBase, 0, 4)
	cmdCoexistStop  = gioctl.IoW(ioctlBase, 1, 4)
	cmdSetAdvData   = gioctl.IoW(ioctlBase, 2, 4)
	cmdStartAdv     = gioctl.IoW(ioctlBase, 3, 4)
	cmdSetRespData  = gioctl.IoW(ioctlBase, 4, 4)
	cmdTxHCIPacket  = gioctl.IoW(ioctlBase, 5, 4)
)

// HCI packet types, as the first byte inside an ioctl'd or received
// frame (spec.md §6).
const (
	hciPktCommand byte = 0x01
	hciPktACL     byte = 0x02
	hciPktSCO     byte = 0x03
	hciPktEvent   byte = 0x04
)

// Event record message IDs (spec.md §6): 0xC01 tags an asynchronous
// HCI event, 0xC02 tags the acknowledgement of a command this
// transport itself sent.
const (
	msgIDEvent = 0x0C01
	msgIDAck   = 0x0C02
)

const eventBufferLen = 512

// eventRecord is one `read()` off the character device:
// [type:1][driver_mode:1][list_empty:1][buffer:512].
type eventRecord struct {
	typ        byte
	driverMode byte
	listEmpty  bool
	buffer     [eventBufferLen]byte
}

func (r *eventRecord) unmarshal(b []byte) error {
	if len(b) < 3+eventBufferLen {
		return fmt.Errorf("integrated: truncated event record (%d bytes)", len(b))
	}
	r.typ = b[0]
	r.driverMode = b[1]
	r.listEmpty = b[2] != 0
	copy(r.buffer[:], b[3:3+eventBufferLen])
	return nil
}

// frame extracts the `[len:u16][id:u16]` header and its payload from
// the record's buffer.
func (r *eventRecord) frame() (id uint16, payload []byte, ok bool) {
	b := r.buffer[:]
	if len(b) < 4 {
		return 0, nil, false
	}
	l := binary.LittleEndian.Uint16(b[0:2])
	id = binary.LittleEndian.Uint16(b[2:4])
	if len(b) < 4+int(l) {
		return 0, nil, false
	}
	return id, append([]byte(nil), b[4:4+int(l)]...), true
}

// device is the low-level ioctl + event-stream half of the
// transport, independent of any ATT/GATT semantics. Real async-IO
// signal delivery (spec.md §4.3.3, §9) is replaced here by a
// dedicated reader goroutine doing a blocking read() loop — the
// Go-idiomatic substitute spec.md §9 explicitly sanctions ("substitute
// ... a non-blocking read + poll loop and drop the signal entirely").
type device struct {
	log  *logrus.Entry
	fd   int
	path string

	// ioctlSem serializes every ioctl call (spec.md §5, §7): a
	// buffered channel of capacity 1 is the standard Go substitute
	// for a binary semaphore.
	ioctlSem chan struct{}

	eventc chan []byte // demuxed msgIDEvent payloads (raw HCI packets)
	ackc   chan []byte // demuxed msgIDAck payloads

	closeOnce sync.Once
	done      chan struct{}
}

func openDevice(path string) (*device, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	d := &device{
		log:      logrus.WithField("component", "integrated-device"),
		fd:       fd,
		path:     path,
		ioctlSem: make(chan struct{}, 1),
		eventc:   make(chan []byte, 32),
		ackc:     make(chan []byte, 8),
		done:     make(chan struct{}),
	}
	d.ioctlSem <- struct{}{}
	go d.readLoop()
	return d, nil
}

func (d *device) readLoop() {
	buf := make([]byte, 3+eventBufferLen)
	for {
		n, err := unix.Read(d.fd, buf)
		if err != nil {
			d.log.WithError(err).Debug("device read failed, stopping reader")
			close(d.eventc)
			return
		}
		if n == 0 {
			continue
		}
		var rec eventRecord
		if err := rec.unmarshal(buf[:n]); err != nil {
			d.log.WithError(err).Debug("dropping malformed event record")
			continue
		}
		id, payload, ok := rec.frame()
		if !ok {
			d.log.Debug("dropping event record with malformed frame header")
			continue
		}
		switch id {
		case msgIDEvent:
			select {
			case d.eventc <- payload:
			case <-d.done:
				return
			default:
				d.log.Warn("dropping HCI event, reader queue full")
			}
		case msgIDAck:
			select {
			case d.ackc <- payload:
			default:
				d.log.Debug("dropping command ack, queue full")
			}
		}
	}
}

// ioctl issues req against the device, serialized by ioctlSem.
func (d *device) ioctl(req uintptr, arg uintptr) error {
	<-d.ioctlSem
	defer func() { d.ioctlSem <- struct{}{} }()
	return gioctl.Ioctl(uintptr(d.fd), req, arg)
}

// txHCIPacket sends a raw HCI packet (type byte + payload) through
// the tx-hci-packet ioctl.
func (d *device) txHCIPacket(typ byte, payload []byte) error {
	buf := make([]byte, 1+len(payload))
	buf[0] = typ
	copy(buf[1:], payload)
	return d.ioctl(cmdTxHCIPacket, uintptr(unsafe.Pointer(&buf[0])))
}

// lengthPrefixed builds a [len:1][data...] buffer, the shape the
// driver's set-adv-data/set-resp-data ioctls expect a pointer to.
func lengthPrefixed(data []byte) []byte {
	buf := make([]byte, 1+len(data))
	buf[0] = byte(len(data))
	copy(buf[1:], data)
	return buf
}

func (d *device) coexistStart() error { return d.ioctl(cmdCoexistStart, 0) }
func (d *device) coexistStop() error  { return d.ioctl(cmdCoexistStop, 0) }

func (d *device) setAdvData(data []byte) error {
	buf := lengthPrefixed(data)
	return d.ioctl(cmdSetAdvData, uintptr(unsafe.Pointer(&buf[0])))
}

func (d *device) setScanRespData(data []byte) error {
	buf := lengthPrefixed(data)
	return d.ioctl(cmdSetRespData, uintptr(unsafe.Pointer(&buf[0])))
}

func (d *device) startAdv() error { return d.ioctl(cmdStartAdv, 0) }

func (d *device) close() error {
	d.closeOnce.Do(func() { close(d.done) })
	return unix.Close(d.fd)
}
