package gatt

import (
	"net"
	"sync"
	"time"
)

// BDAddr is a Bluetooth device address.
type BDAddr struct{ net.HardwareAddr }

func (a BDAddr) Network() string { return "BLE" }

const (
	defaultATTMTU = 23
	maxATTMTU     = 517

	cccdNotify   uint16 = 0x0001
	cccdIndicate uint16 = 0x0002
)

// connectionState is the per-connection bookkeeping the server engine
// keeps: negotiated MTU, CCCD values by characteristic value handle,
// and the single outstanding-indication marker (spec.md §4.5.3, §5).
// All mutable fields are only ever touched while connectionTable.mu is
// held.
type connectionState struct {
	connHandle   uint16
	peerAddr     BDAddr
	peerAddrType AddressType
	mtu          int
	connected    bool

	cccd map[uint16]uint16 // characteristic value handle -> raw CCCD bits

	indicationPending bool
	indicationTimer   *time.Timer
}

func newConnectionState(connHandle uint16, addr BDAddr, addrType AddressType) *connectionState {
	return &connectionState{
		connHandle:   connHandle,
		peerAddr:     addr,
		peerAddrType: addrType,
		mtu:          defaultATTMTU,
		connected:    true,
		cccd:         make(map[uint16]uint16),
	}
}

// connectionTable is the single lock guarding every live connection's
// mutable state (spec.md §5: "never held while calling user code").
type connectionTable struct {
	mu    sync.Mutex
	conns map[uint16]*connectionState
}

func newConnectionTable() *connectionTable {
	return &connectionTable{conns: make(map[uint16]*connectionState)}
}

func (t *connectionTable) add(cs *connectionState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[cs.connHandle] = cs
}

func (t *connectionTable) remove(connHandle uint16) *connectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs := t.conns[connHandle]
	if cs != nil {
		cs.connected = false
		if cs.indicationTimer != nil {
			cs.indicationTimer.Stop()
		}
	}
	delete(t.conns, connHandle)
	return cs
}

func (t *connectionTable) get(connHandle uint16) (*connectionState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs, ok := t.conns[connHandle]
	return cs, ok
}

func (t *connectionTable) mtu(connHandle uint16) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs, ok := t.conns[connHandle]
	if !ok {
		return 0, false
	}
	return cs.mtu, true
}

func (t *connectionTable) setMTU(connHandle uint16, mtu int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cs, ok := t.conns[connHandle]; ok {
		cs.mtu = mtu
	}
}

func (t *connectionTable) cccdBit(connHandle, valueHandle uint16, bit uint16) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs, ok := t.conns[connHandle]
	if !ok {
		return false
	}
	return cs.cccd[valueHandle]&bit != 0
}

func (t *connectionTable) setCCCD(connHandle, valueHandle uint16, bits uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cs, ok := t.conns[connHandle]; ok {
		cs.cccd[valueHandle] = bits
	}
}

func (t *connectionTable) getCCCD(connHandle, valueHandle uint16) uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs, ok := t.conns[connHandle]
	if !ok {
		return 0
	}
	return cs.cccd[valueHandle]
}

// beginIndication marks an indication as outstanding on connHandle,
// returning ErrBusy if one is already pending (spec.md §4.5.3: one
// outstanding indication per connection). onTimeout fires if no
// confirmation arrives within the timeout.
func (t *connectionTable) beginIndication(connHandle uint16, timeout time.Duration, onTimeout func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs, ok := t.conns[connHandle]
	if !ok || !cs.connected {
		return ErrUnreachable
	}
	if cs.indicationPending {
		return ErrBusy
	}
	cs.indicationPending = true
	if timeout > 0 {
		cs.indicationTimer = time.AfterFunc(timeout, onTimeout)
	}
	return nil
}

// endIndication clears the outstanding-indication marker, in response
// to either a Handle Value Confirmation or a timeout.
func (t *connectionTable) endIndication(connHandle uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs, ok := t.conns[connHandle]
	if !ok {
		return
	}
	cs.indicationPending = false
	if cs.indicationTimer != nil {
		cs.indicationTimer.Stop()
		cs.indicationTimer = nil
	}
}

func (t *connectionTable) isConnected(connHandle uint16) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs, ok := t.conns[connHandle]
	return ok && cs.connected
}
