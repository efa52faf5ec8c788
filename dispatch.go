package gatt

import (
	"time"

	"github.com/sirupsen/logrus"
)

// serverMaxMTU is the largest ATT MTU this engine will negotiate
// (spec.md §4.5.1, opcode 0x02).
const serverMaxMTU = 517

// indicationTimeout is the specification's recommended default for an
// unconfirmed indication (spec.md §5: "the source does not enforce a
// confirmation timeout... implementers should apply a 30 s timeout").
const indicationTimeout = 30 * time.Second

// Server is the ATT/GATT server engine (C5): one attribute Database
// driven over one ServerTransport, dispatching inbound PDUs per
// spec.md §4.5.1 and delivering notifications/indications per §4.5.3.
type Server struct {
	log *logrus.Entry

	db        *Database
	transport ServerTransport
	conns     *connectionTable

	deviceName   string
	serviceUUIDs []UUID
	appearance   uint16

	advIntervalMinMS int
	advIntervalMaxMS int
	rawAdvData       []byte
	rawScanRespData  []byte

	// groupTypeDelay is the spec.md §4.5.4 compatibility knob, inserted
	// before every Read By Group Type Response. Zero by default.
	groupTypeDelay time.Duration

	indicationTimeout time.Duration

	// Linux socket-transport device selection (option_linux.go).
	hciDeviceID int
	hciCheckLE  bool
	hciMaxConn  int
}

// Option configures a Server at construction, mirroring the teacher's
// functional-options idiom (each Option returns the previous value so
// it can be restored later).
type Option func(*Server) Option

// NewServer builds a Server around db, ready to Serve over transport
// once options are applied.
func NewServer(db *Database, transport ServerTransport, opts ...Option) *Server {
	s := &Server{
		log:               logrus.WithField("component", "server"),
		db:                db,
		transport:         transport,
		conns:             newConnectionTable(),
		advIntervalMinMS:  100,
		advIntervalMaxMS:  150,
		indicationTimeout: indicationTimeout,
		hciDeviceID:       hciDeviceIDAny,
		hciMaxConn:        1,
	}
	for _, opt := range opts {
		opt(s)
	}
	transport.SetCallbacks(s.handleConnected, s.handleDisconnected, s.handleDataReceived)
	return s
}

// DeviceName sets the name passed to the transport in
// AdvertisingParams. The GAP Device Name characteristic keeps the name
// given to NewDatabase.
func DeviceName(name string) Option {
	return func(s *Server) Option {
		prev := s.deviceName
		s.deviceName = name
		return DeviceName(prev)
	}
}

// AdvertiseServiceUUIDs overrides which service UUIDs the synthesized
// advertising payload lists.
func AdvertiseServiceUUIDs(uuids ...UUID) Option {
	return func(s *Server) Option {
		prev := s.serviceUUIDs
		s.serviceUUIDs = uuids
		return AdvertiseServiceUUIDs(prev...)
	}
}

// Appearance sets the value passed to the transport in
// AdvertisingParams.Appearance. Neither bundled transport puts it in
// the advertising payload, and the GAP Appearance characteristic is
// left unchanged.
func Appearance(v uint16) Option {
	return func(s *Server) Option {
		prev := s.appearance
		s.appearance = v
		return Appearance(prev)
	}
}

// AdvertisingInterval overrides the min/max advertising interval, in
// milliseconds.
func AdvertisingInterval(minMS, maxMS int) Option {
	return func(s *Server) Option {
		prevMin, prevMax := s.advIntervalMinMS, s.advIntervalMaxMS
		s.advIntervalMinMS, s.advIntervalMaxMS = minMS, maxMS
		return AdvertisingInterval(prevMin, prevMax)
	}
}

// RawAdvertisingData supplies a pre-built advertising payload, bypassing
// synthesis from DeviceName/AdvertiseServiceUUIDs.
func RawAdvertisingData(b []byte) Option {
	return func(s *Server) Option {
		prev := s.rawAdvData
		s.rawAdvData = b
		return RawAdvertisingData(prev)
	}
}

// RawScanResponseData supplies a pre-built scan response payload.
func RawScanResponseData(b []byte) Option {
	return func(s *Server) Option {
		prev := s.rawScanRespData
		s.rawScanRespData = b
		return RawScanResponseData(prev)
	}
}

// GroupTypeResponseDelay overrides the spec.md §4.5.4 compatibility
// delay inserted before every Read By Group Type Response.
func GroupTypeResponseDelay(d time.Duration) Option {
	return func(s *Server) Option {
		prev := s.groupTypeDelay
		s.groupTypeDelay = d
		return GroupTypeResponseDelay(prev)
	}
}

// IndicationTimeout overrides how long the engine waits for a Handle
// Value Confirmation before freeing up the connection to indicate
// again.
func IndicationTimeout(d time.Duration) Option {
	return func(s *Server) Option {
		prev := s.indicationTimeout
		s.indicationTimeout = d
		return IndicationTimeout(prev)
	}
}

// Serve starts advertising and pumps the transport's event loop until
// stop is closed.
func (s *Server) Serve(stop <-chan struct{}) error {
	if err := s.transport.StartAdvertising(AdvertisingParams{
		DeviceName:       s.deviceName,
		ServiceUUIDs:     s.serviceUUIDs,
		Appearance:       s.appearance,
		IntervalMinMS:    s.advIntervalMinMS,
		IntervalMaxMS:    s.advIntervalMaxMS,
		AdvertisingData:  s.rawAdvData,
		ScanResponseData: s.rawScanRespData,
	}); err != nil {
		return err
	}
	defer s.transport.StopAdvertising()

	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if _, err := s.transport.AcceptConnection(); err != nil {
			s.log.WithError(err).Warn("accept_connection failed")
		}
		if err := s.transport.ProcessEvents(); err != nil {
			s.log.WithError(err).Warn("process_events failed")
		}
	}
}

func (s *Server) handleConnected(p ConnectionParams) {
	cs := newConnectionState(p.ConnHandle, BDAddr{p.PeerAddress[:]}, p.PeerAddressType)
	s.conns.add(cs)
	s.log.WithField("conn", p.ConnHandle).Debug("connected")
}

func (s *Server) handleDisconnected(connHandle uint16, reason DisconnectReason) {
	s.conns.remove(connHandle)
	s.log.WithFields(logrus.Fields{"conn": connHandle, "reason": reason}).Debug("disconnected")
}

func (s *Server) handleDataReceived(connHandle uint16, b []byte) {
	if len(b) == 0 {
		return
	}
	resp := s.dispatch(connHandle, b)
	if resp == nil {
		return
	}
	if _, err := s.transport.SendPDU(connHandle, resp); err != nil {
		s.log.WithError(err).WithField("conn", connHandle).Error("send_pdu failed, disconnecting")
		s.transport.Disconnect(connHandle)
	}
}

// dispatch handles one inbound ATT PDU, returning the response PDU to
// send, or nil for a PDU that has no response (Write Command, Signed
// Write Command, Handle Value Confirmation) — spec.md §4.5.1.
func (s *Server) dispatch(connHandle uint16, b []byte) []byte {
	op := b[0]
	switch op {
	case attOpMtuReq:
		return s.handleMTUReq(connHandle, b)
	case attOpFindInfoReq:
		return s.handleFindInfo(connHandle, b)
	case attOpFindByTypeReq:
		return s.handleFindByTypeValue(connHandle, b)
	case attOpReadByTypeReq:
		return s.handleReadByType(connHandle, b)
	case attOpReadReq:
		return s.handleRead(connHandle, b)
	case attOpReadBlobReq:
		return s.handleReadBlob(connHandle, b)
	case attOpReadByGroupReq:
		return s.handleReadByGroup(connHandle, b)
	case attOpWriteReq:
		return s.handleWrite(connHandle, b, true)
	case attOpWriteCmd:
		s.handleWrite(connHandle, b, false)
		return nil
	case attOpPrepWriteReq:
		return attErrorResp(op, 0, AttErrorRequestNotSupported)
	case attOpExecWriteReq:
		return attErrorResp(op, 0, AttErrorRequestNotSupported)
	case attOpSignedWriteCmd:
		s.log.WithField("conn", connHandle).Debug("signed write command not supported, ignoring")
		return nil
	case attOpHandleCnf:
		s.conns.endIndication(connHandle)
		return nil
	default:
		return attErrorResp(op, 0, AttErrorRequestNotSupported)
	}
}

func (s *Server) mtu(connHandle uint16) int {
	if mtu, ok := s.conns.mtu(connHandle); ok {
		return mtu
	}
	return defaultATTMTU
}

func (s *Server) handleMTUReq(connHandle uint16, b []byte) []byte {
	if len(b) < 3 {
		return attErrorResp(attOpMtuReq, 0, AttErrorInvalidPDU)
	}
	clientMTU, _ := readUint16LE(b[1:3])
	mtu := int(clientMTU)
	if mtu > serverMaxMTU {
		mtu = serverMaxMTU
	}
	if mtu < defaultATTMTU {
		mtu = defaultATTMTU
	}
	s.conns.setMTU(connHandle, mtu)
	s.transport.SetMTU(connHandle, uint16(mtu))

	resp := make([]byte, 0, 3)
	resp = append(resp, attOpMtuResp)
	resp = appendUint16LE(resp, serverMaxMTU)
	return resp
}

func (s *Server) handleFindInfo(connHandle uint16, b []byte) []byte {
	if len(b) < 5 {
		return attErrorResp(attOpFindInfoReq, 0, AttErrorInvalidPDU)
	}
	start, _ := readHandle(b[1:3])
	end, _ := readHandle(b[3:5])
	if start == 0 || start > end {
		return attErrorResp(attOpFindInfoReq, start, AttErrorInvalidHandle)
	}
	attrs := s.db.Range(start, end)
	if len(attrs) == 0 {
		return attErrorResp(attOpFindInfoReq, start, AttErrorAttrNotFound)
	}

	uuidLen := attrs[0].Type.Len()
	format := byte(0x01)
	if uuidLen == 16 {
		format = 0x02
	}
	pairLen := 2 + uuidLen

	mtu := s.mtu(connHandle)
	resp := make([]byte, 0, mtu)
	resp = append(resp, attOpFindInfoResp, format)
	for _, a := range attrs {
		if a.Type.Len() != uuidLen {
			break
		}
		if len(resp)+pairLen > mtu {
			break
		}
		resp = appendUint16LE(resp, a.Handle)
		resp = a.Type.AppendPack(resp)
	}
	return resp
}

func (s *Server) handleFindByTypeValue(connHandle uint16, b []byte) []byte {
	if len(b) < 7 {
		return attErrorResp(attOpFindByTypeReq, 0, AttErrorInvalidPDU)
	}
	start, _ := readHandle(b[1:3])
	end, _ := readHandle(b[3:5])
	typ, err := readUUID(b[5:7])
	if err != nil {
		return attErrorResp(attOpFindByTypeReq, start, AttErrorInvalidPDU)
	}
	value := readRemaining(b[7:])
	if start == 0 || start > end {
		return attErrorResp(attOpFindByTypeReq, start, AttErrorInvalidHandle)
	}

	matches := s.db.FindByTypeValue(start, end, typ, value)
	if len(matches) == 0 {
		return attErrorResp(attOpFindByTypeReq, start, AttErrorAttrNotFound)
	}

	mtu := s.mtu(connHandle)
	resp := make([]byte, 0, mtu)
	resp = append(resp, attOpFindByTypeResp)
	for _, a := range matches {
		if len(resp)+4 > mtu {
			break
		}
		resp = appendUint16LE(resp, a.Handle)
		resp = appendUint16LE(resp, a.EndGroupHandle)
	}
	return resp
}

func (s *Server) handleReadByType(connHandle uint16, b []byte) []byte {
	if len(b) != 7 && len(b) != 21 {
		return attErrorResp(attOpReadByTypeReq, 0, AttErrorInvalidPDU)
	}
	start, _ := readHandle(b[1:3])
	end, _ := readHandle(b[3:5])
	typ, err := readUUID(b[5:])
	if err != nil {
		return attErrorResp(attOpReadByTypeReq, start, AttErrorInvalidPDU)
	}
	if start == 0 || start > end {
		return attErrorResp(attOpReadByTypeReq, start, AttErrorInvalidHandle)
	}

	matches := s.db.FindByType(start, end, typ)
	if len(matches) == 0 {
		return attErrorResp(attOpReadByTypeReq, start, AttErrorAttrNotFound)
	}

	// The pair length is fixed by the first match's value length; a
	// later match whose value differs in length is excluded, along
	// with anything after it (spec.md §4.5.1, opcode 0x08). A read
	// failure on the very first match fails the whole request; on a
	// later one it just ends the response early.
	type pair struct {
		handle uint16
		value  []byte
	}
	var pairs []pair
	firstLen := -1
	for _, a := range matches {
		if !a.Perms.readable() {
			if len(pairs) == 0 {
				return attErrorResp(attOpReadByTypeReq, a.Handle, AttErrorReadNotPermitted)
			}
			break
		}
		value, attErr := a.readValue(connHandle, 0)
		if attErr != 0 {
			if len(pairs) == 0 {
				return attErrorResp(attOpReadByTypeReq, a.Handle, attErr)
			}
			break
		}
		if firstLen == -1 {
			firstLen = len(value)
		} else if len(value) != firstLen {
			break
		}
		pairs = append(pairs, pair{a.Handle, value})
	}

	mtu := s.mtu(connHandle)
	pairLen := 2 + firstLen
	if pairLen > mtu-2 {
		pairLen = mtu - 2
	}
	resp := make([]byte, 0, mtu)
	resp = append(resp, attOpReadByTypeResp, byte(pairLen))
	for _, p := range pairs {
		if len(resp)+pairLen > mtu {
			break
		}
		resp = appendUint16LE(resp, p.handle)
		v := p.value
		if len(v) > pairLen-2 {
			v = v[:pairLen-2]
		}
		resp = append(resp, v...)
	}
	return resp
}

func (s *Server) handleRead(connHandle uint16, b []byte) []byte {
	if len(b) < 3 {
		return attErrorResp(attOpReadReq, 0, AttErrorInvalidPDU)
	}
	h, _ := readHandle(b[1:3])
	a, ok := s.db.Get(h)
	if !ok {
		return attErrorResp(attOpReadReq, h, AttErrorInvalidHandle)
	}
	if !a.Perms.readable() {
		return attErrorResp(attOpReadReq, h, AttErrorReadNotPermitted)
	}
	value, attErr := a.readValue(connHandle, 0)
	if attErr != 0 {
		return attErrorResp(attOpReadReq, h, attErr)
	}

	mtu := s.mtu(connHandle)
	if max := mtu - 1; len(value) > max {
		value = value[:max]
	}
	resp := make([]byte, 0, 1+len(value))
	resp = append(resp, attOpReadResp)
	resp = append(resp, value...)
	return resp
}

func (s *Server) handleReadBlob(connHandle uint16, b []byte) []byte {
	if len(b) < 5 {
		return attErrorResp(attOpReadBlobReq, 0, AttErrorInvalidPDU)
	}
	h, _ := readHandle(b[1:3])
	offset, _ := readUint16LE(b[3:5])
	a, ok := s.db.Get(h)
	if !ok {
		return attErrorResp(attOpReadBlobReq, h, AttErrorInvalidHandle)
	}
	if !a.Perms.readable() {
		return attErrorResp(attOpReadBlobReq, h, AttErrorReadNotPermitted)
	}
	value, attErr := a.readValue(connHandle, int(offset))
	if attErr != 0 {
		return attErrorResp(attOpReadBlobReq, h, attErr)
	}

	mtu := s.mtu(connHandle)
	if max := mtu - 1; len(value) > max {
		value = value[:max]
	}
	resp := make([]byte, 0, 1+len(value))
	resp = append(resp, attOpReadBlobResp)
	resp = append(resp, value...)
	return resp
}

func (s *Server) handleReadByGroup(connHandle uint16, b []byte) []byte {
	if s.groupTypeDelay > 0 {
		time.Sleep(s.groupTypeDelay)
	}
	if len(b) != 7 && len(b) != 21 {
		return attErrorResp(attOpReadByGroupReq, 0, AttErrorInvalidPDU)
	}
	start, _ := readHandle(b[1:3])
	end, _ := readHandle(b[3:5])
	typ, err := readUUID(b[5:])
	if err != nil {
		return attErrorResp(attOpReadByGroupReq, start, AttErrorInvalidPDU)
	}
	if !typ.Equal(uuidPrimaryService) {
		return attErrorResp(attOpReadByGroupReq, start, AttErrorUnsupportedGroupType)
	}
	if start == 0 || start > end {
		return attErrorResp(attOpReadByGroupReq, start, AttErrorInvalidHandle)
	}

	matches := s.db.FindByType(start, end, uuidPrimaryService)
	if len(matches) == 0 {
		return attErrorResp(attOpReadByGroupReq, start, AttErrorAttrNotFound)
	}

	mtu := s.mtu(connHandle)
	uuidLen := len(matches[0].Value)
	pairLen := 4 + uuidLen

	resp := make([]byte, 0, mtu)
	resp = append(resp, attOpReadByGroupResp, byte(pairLen))
	for _, a := range matches {
		if len(a.Value) != uuidLen {
			break
		}
		if len(resp)+pairLen > mtu {
			break
		}
		resp = appendUint16LE(resp, a.Handle)
		resp = appendUint16LE(resp, a.EndGroupHandle)
		resp = append(resp, a.Value...)
	}
	return resp
}

func (s *Server) handleWrite(connHandle uint16, b []byte, withResponse bool) []byte {
	op := byte(attOpWriteReq)
	if !withResponse {
		op = attOpWriteCmd
	}
	if len(b) < 3 {
		if withResponse {
			return attErrorResp(op, 0, AttErrorInvalidPDU)
		}
		return nil
	}
	h, _ := readHandle(b[1:3])
	value := readRemaining(b[3:])

	a, ok := s.db.Get(h)
	if !ok {
		if withResponse {
			return attErrorResp(op, h, AttErrorInvalidHandle)
		}
		return nil
	}
	if !a.Perms.writable() {
		if withResponse {
			return attErrorResp(op, h, AttErrorWriteNotPermitted)
		}
		return nil
	}

	if a.Type.Equal(uuidCCCD) && len(value) == 2 {
		bits, _ := readUint16LE(value)
		s.conns.setCCCD(connHandle, h-1, bits)
		s.notifyCCCDChange(connHandle, h-1, bits)
	}

	var attErr AttError
	if a.WriteCB != nil {
		attErr = a.WriteCB(connHandle, 0, value)
	}
	if !withResponse {
		return nil
	}
	if attErr != 0 {
		return attErrorResp(op, h, attErr)
	}
	return []byte{attOpWriteResp}
}

// notifyCCCDChange invokes a subscribed characteristic's NotifyHandler
// when its CCCD flips on, handing it a Notifier bound to whichever bit
// the client just set (spec.md §4.5.3).
func (s *Server) notifyCCCDChange(connHandle, cccdOwnerValueHandle uint16, bits uint16) {
	c := s.db.characteristicForValueHandle(cccdOwnerValueHandle)
	if c == nil || c.nhandler == nil {
		return
	}
	if bits&cccdIndicate != 0 {
		go c.nhandler.ServeNotify(connHandle, newNotifier(s, connHandle, c, true))
	} else if bits&cccdNotify != 0 {
		go c.nhandler.ServeNotify(connHandle, newNotifier(s, connHandle, c, false))
	}
}

// Notify sends a Handle Value Notification, per spec.md §4.5.3.
func (s *Server) Notify(connHandle, valueHandle uint16, data []byte) error {
	return s.sendNotification(connHandle, valueHandle, data)
}

// Indicate sends a Handle Value Indication and waits for it to be
// acknowledged only in the sense of freeing the one-outstanding slot;
// it does not block for the confirmation itself (spec.md §4.5.3).
func (s *Server) Indicate(connHandle, valueHandle uint16, data []byte) error {
	return s.sendIndication(connHandle, valueHandle, data)
}

func (s *Server) sendNotification(connHandle, valueHandle uint16, data []byte) error {
	if !s.conns.cccdBit(connHandle, valueHandle, cccdNotify) {
		return AttErrorInsuffAuthorization
	}
	pdu := make([]byte, 0, 3+len(data))
	pdu = append(pdu, attOpHandleNotify)
	pdu = appendUint16LE(pdu, valueHandle)
	pdu = append(pdu, data...)
	_, err := s.transport.SendPDU(connHandle, pdu)
	return err
}

func (s *Server) sendIndication(connHandle, valueHandle uint16, data []byte) error {
	if !s.conns.cccdBit(connHandle, valueHandle, cccdIndicate) {
		return AttErrorInsuffAuthorization
	}
	if err := s.conns.beginIndication(connHandle, s.indicationTimeout, func() {
		s.log.WithField("conn", connHandle).Warn("indication confirmation timed out")
		s.conns.endIndication(connHandle)
	}); err != nil {
		return err
	}
	pdu := make([]byte, 0, 3+len(data))
	pdu = append(pdu, attOpHandleInd)
	pdu = appendUint16LE(pdu, valueHandle)
	pdu = append(pdu, data...)
	if _, err := s.transport.SendPDU(connHandle, pdu); err != nil {
		s.conns.endIndication(connHandle)
		return err
	}
	return nil
}

func (s *Server) mtuFor(connHandle uint16) (int, bool) {
	return s.conns.mtu(connHandle)
}
