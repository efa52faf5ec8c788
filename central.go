package gatt

import "time"

// requestPollInterval is how often roundTrip polls a non-blocking
// ClientTransport.Receive while awaiting a response.
const requestPollInterval = 2 * time.Millisecond

// defaultRequestTimeout bounds how long a single ATT request/response
// round trip waits before failing with ErrTimeout.
const defaultRequestTimeout = 5 * time.Second

// ServiceInfo describes one primary or secondary service discovered
// over the wire (spec.md §4.5.1 opcode 0x10 / §4.3.1).
type ServiceInfo struct {
	Handle    uint16
	EndHandle uint16
	UUID      UUID
}

// IncludeInfo describes one Include declaration discovered via Read
// By Type (type 0x2802).
type IncludeInfo struct {
	Handle         uint16
	IncludedHandle uint16
	IncludedEndGrp uint16
	IncludedUUID   UUID // zero if the included service uses a 128-bit UUID (spec omits it from the pair)
}

// CharacteristicInfo describes one characteristic declaration
// discovered via Read By Type (type 0x2803).
type CharacteristicInfo struct {
	DeclHandle  uint16
	ValueHandle uint16
	Properties  Property
	UUID        UUID
}

// DescriptorInfo describes one descriptor handle/type pair discovered
// via Find Information (opcode 0x04).
type DescriptorInfo struct {
	Handle uint16
	UUID   UUID
}

// Central is a thin GATT client (C7): it encodes ATT requests and
// decodes their responses over a caller-supplied ClientTransport
// connection, complementing C3 which only moves bytes (spec.md §4.3.1,
// §4.5.1's opcode table read from the other end).
type Central struct {
	transport ClientTransport
	conn      ConnId
	mtu       int

	RequestTimeout time.Duration
}

// NewCentral wraps an established connection for GATT client use.
func NewCentral(transport ClientTransport, conn ConnId) *Central {
	return &Central{
		transport:      transport,
		conn:           conn,
		mtu:            defaultATTMTU,
		RequestTimeout: defaultRequestTimeout,
	}
}

// roundTrip sends req and waits for the matching response, translating
// an Error Response PDU into an AttError and a timed-out wait into
// ErrTimeout.
func (c *Central) roundTrip(req []byte) ([]byte, error) {
	if _, err := c.transport.Send(c.conn, req); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(c.RequestTimeout)
	buf := make([]byte, c.mtu)
	for {
		n, err := c.transport.Receive(c.conn, buf)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			resp := append([]byte(nil), buf[:n]...)
			if resp[0] == attOpError {
				if len(resp) < 5 {
					return nil, ErrTruncatedPDU
				}
				return nil, AttError(resp[4])
			}
			return resp, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		time.Sleep(requestPollInterval)
	}
}

// ExchangeMTU negotiates the ATT MTU with the peer and returns the
// agreed value.
func (c *Central) ExchangeMTU(clientMTU uint16) (int, error) {
	req := make([]byte, 0, 3)
	req = append(req, attOpMtuReq)
	req = appendUint16LE(req, clientMTU)
	resp, err := c.roundTrip(req)
	if err != nil {
		return 0, err
	}
	if len(resp) < 3 || resp[0] != attOpMtuResp {
		return 0, ErrInvalidFormat
	}
	serverMTU, _ := readUint16LE(resp[1:3])
	mtu := int(clientMTU)
	if int(serverMTU) < mtu {
		mtu = int(serverMTU)
	}
	c.mtu = mtu
	c.transport.SetMTU(c.conn, uint16(mtu))
	return mtu, nil
}

// DiscoverPrimaryServices walks the whole handle space with Read By
// Group Type Requests (spec.md §4.5.1 opcode 0x10) until AttrNotFound.
func (c *Central) DiscoverPrimaryServices() ([]ServiceInfo, error) {
	var out []ServiceInfo
	start := uint16(1)
	for {
		req := make([]byte, 0, 7)
		req = append(req, attOpReadByGroupReq)
		req = appendUint16LE(req, start)
		req = appendUint16LE(req, 0xFFFF)
		req = uuidPrimaryService.AppendPack(req)

		resp, err := c.roundTrip(req)
		if err != nil {
			if ae, ok := err.(AttError); ok && ae == AttErrorAttrNotFound {
				return out, nil
			}
			return out, err
		}
		if len(resp) < 2 {
			return out, ErrInvalidFormat
		}
		pairLen := int(resp[1])
		body := resp[2:]
		var last uint16
		for len(body) >= pairLen {
			h, _ := readHandle(body[0:2])
			end, _ := readHandle(body[2:4])
			u, err := readUUID(body[4:pairLen])
			if err != nil {
				return out, err
			}
			out = append(out, ServiceInfo{Handle: h, EndHandle: end, UUID: u})
			last = end
			body = body[pairLen:]
		}
		if last == 0xFFFF || last == 0 {
			return out, nil
		}
		start = last + 1
	}
}

// DiscoverCharacteristics finds every characteristic declaration in
// [start, end] via Read By Type Request (opcode 0x08, type 0x2803).
func (c *Central) DiscoverCharacteristics(start, end uint16) ([]CharacteristicInfo, error) {
	var out []CharacteristicInfo
	for start <= end {
		req := make([]byte, 0, 7)
		req = append(req, attOpReadByTypeReq)
		req = appendUint16LE(req, start)
		req = appendUint16LE(req, end)
		req = uuidCharacteristic.AppendPack(req)

		resp, err := c.roundTrip(req)
		if err != nil {
			if ae, ok := err.(AttError); ok && ae == AttErrorAttrNotFound {
				return out, nil
			}
			return out, err
		}
		if len(resp) < 2 {
			return out, ErrInvalidFormat
		}
		pairLen := int(resp[1])
		body := resp[2:]
		var last uint16
		for len(body) >= pairLen {
			h, _ := readHandle(body[0:2])
			props := Property(body[2])
			valueHandle, _ := readHandle(body[3:5])
			u, err := readUUID(body[5:pairLen])
			if err != nil {
				return out, err
			}
			out = append(out, CharacteristicInfo{DeclHandle: h, ValueHandle: valueHandle, Properties: props, UUID: u})
			last = h
			body = body[pairLen:]
		}
		if last == 0 || last >= end {
			return out, nil
		}
		start = last + 1
	}
	return out, nil
}

// DiscoverIncludedServices finds every Include declaration in
// [start, end] via Read By Type Request (opcode 0x08, type 0x2802).
func (c *Central) DiscoverIncludedServices(start, end uint16) ([]IncludeInfo, error) {
	var out []IncludeInfo
	for start <= end {
		req := make([]byte, 0, 7)
		req = append(req, attOpReadByTypeReq)
		req = appendUint16LE(req, start)
		req = appendUint16LE(req, end)
		req = uuidInclude.AppendPack(req)

		resp, err := c.roundTrip(req)
		if err != nil {
			if ae, ok := err.(AttError); ok && ae == AttErrorAttrNotFound {
				return out, nil
			}
			return out, err
		}
		if len(resp) < 2 {
			return out, ErrInvalidFormat
		}
		pairLen := int(resp[1])
		body := resp[2:]
		var last uint16
		for len(body) >= pairLen {
			h, _ := readHandle(body[0:2])
			included, _ := readHandle(body[2:4])
			endGrp, _ := readHandle(body[4:6])
			info := IncludeInfo{Handle: h, IncludedHandle: included, IncludedEndGrp: endGrp}
			if pairLen == 8 {
				u, err := readUUID(body[6:8])
				if err != nil {
					return out, err
				}
				info.IncludedUUID = u
			}
			out = append(out, info)
			last = h
			body = body[pairLen:]
		}
		if last == 0 || last >= end {
			return out, nil
		}
		start = last + 1
	}
	return out, nil
}

// DiscoverDescriptors finds every handle/type pair in [start, end] via
// Find Information Request (opcode 0x04).
func (c *Central) DiscoverDescriptors(start, end uint16) ([]DescriptorInfo, error) {
	var out []DescriptorInfo
	for start <= end {
		req := make([]byte, 0, 5)
		req = append(req, attOpFindInfoReq)
		req = appendUint16LE(req, start)
		req = appendUint16LE(req, end)

		resp, err := c.roundTrip(req)
		if err != nil {
			if ae, ok := err.(AttError); ok && ae == AttErrorAttrNotFound {
				return out, nil
			}
			return out, err
		}
		if len(resp) < 2 {
			return out, ErrInvalidFormat
		}
		uuidLen := 2
		if resp[1] == 0x02 {
			uuidLen = 16
		}
		pairLen := 2 + uuidLen
		body := resp[2:]
		var last uint16
		for len(body) >= pairLen {
			h, _ := readHandle(body[0:2])
			u, err := readUUID(body[2:pairLen])
			if err != nil {
				return out, err
			}
			out = append(out, DescriptorInfo{Handle: h, UUID: u})
			last = h
			body = body[pairLen:]
		}
		if last == 0 || last >= end {
			return out, nil
		}
		start = last + 1
	}
	return out, nil
}

// ReadCharacteristic reads a value handle, transparently chaining Read
// Blob Requests (opcode 0x0C) while the response stays MTU-full, per
// the standard ATT "long read" convention.
func (c *Central) ReadCharacteristic(valueHandle uint16) ([]byte, error) {
	return c.readLong(attOpReadReq, attOpReadResp, valueHandle)
}

// ReadDescriptor is ReadCharacteristic for a descriptor handle.
func (c *Central) ReadDescriptor(handle uint16) ([]byte, error) {
	return c.readLong(attOpReadReq, attOpReadResp, handle)
}

func (c *Central) readLong(reqOp, respOp byte, handle uint16) ([]byte, error) {
	req := make([]byte, 0, 3)
	req = append(req, reqOp)
	req = appendUint16LE(req, handle)
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	if len(resp) < 1 || resp[0] != respOp {
		return nil, ErrInvalidFormat
	}
	value := append([]byte(nil), resp[1:]...)

	last := len(value)
	for last+1 == c.mtu {
		blobReq := make([]byte, 0, 5)
		blobReq = append(blobReq, attOpReadBlobReq)
		blobReq = appendUint16LE(blobReq, handle)
		blobReq = appendUint16LE(blobReq, uint16(len(value)))
		blobResp, err := c.roundTrip(blobReq)
		if err != nil {
			if ae, ok := err.(AttError); ok && ae == AttErrorInvalidOffset {
				break
			}
			return value, err
		}
		if len(blobResp) < 1 || blobResp[0] != attOpReadBlobResp {
			return value, ErrInvalidFormat
		}
		if len(blobResp) == 1 {
			break
		}
		last = len(blobResp) - 1
		value = append(value, blobResp[1:]...)
	}
	return value, nil
}

// WriteCharacteristic writes value to a value handle, requesting a
// response (opcode 0x12) or not (0x52, spec.md §4.5.1).
func (c *Central) WriteCharacteristic(valueHandle uint16, value []byte, withResponse bool) error {
	return c.write(valueHandle, value, withResponse)
}

// WriteDescriptor is WriteCharacteristic for a descriptor handle.
func (c *Central) WriteDescriptor(handle uint16, value []byte, withResponse bool) error {
	return c.write(handle, value, withResponse)
}

func (c *Central) write(handle uint16, value []byte, withResponse bool) error {
	op := byte(attOpWriteCmd)
	if withResponse {
		op = attOpWriteReq
	}
	req := make([]byte, 0, 3+len(value))
	req = append(req, op)
	req = appendUint16LE(req, handle)
	req = append(req, value...)

	if !withResponse {
		_, err := c.transport.Send(c.conn, req)
		return err
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	if len(resp) < 1 || resp[0] != attOpWriteResp {
		return ErrInvalidFormat
	}
	return nil
}

// SetNotifyValue writes the CCCD at cccdHandle to enable or disable
// notifications (or indications) from its owning characteristic
// (spec.md §4.5.3).
func (c *Central) SetNotifyValue(cccdHandle uint16, notify, indicate bool) error {
	var bits uint16
	if notify {
		bits |= cccdNotify
	}
	if indicate {
		bits |= cccdIndicate
	}
	value := appendUint16LE(nil, bits)
	return c.WriteDescriptor(cccdHandle, value, true)
}
