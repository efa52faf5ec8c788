package gatt

import "fmt"

// A ReadRequest describes an inbound characteristic (or descriptor)
// value read (spec.md §4.5.1, opcodes 0x0A/0x0C).
type ReadRequest struct {
	ConnHandle     uint16
	Characteristic *Characteristic
	Cap            int
	Offset         int
}

// ReadResponseWriter collects the value a ReadHandler wants to answer
// a read with.
type ReadResponseWriter interface {
	Write([]byte) (int, error)
	SetStatus(AttError)
}

// A ReadHandler answers characteristic and descriptor read requests.
type ReadHandler interface {
	ServeRead(resp ReadResponseWriter, req *ReadRequest)
}

// ReadHandlerFunc adapts an ordinary function to a ReadHandler.
type ReadHandlerFunc func(resp ReadResponseWriter, req *ReadRequest)

func (f ReadHandlerFunc) ServeRead(resp ReadResponseWriter, req *ReadRequest) { f(resp, req) }

// A WriteRequest describes an inbound characteristic (or descriptor)
// value write (spec.md §4.5.1, opcodes 0x12/0x52).
type WriteRequest struct {
	ConnHandle     uint16
	Characteristic *Characteristic
	Data           []byte
}

// A WriteHandler answers characteristic and descriptor write
// requests. It does not distinguish Write Request from Write Command;
// the engine sends a response only for the former.
type WriteHandler interface {
	ServeWrite(req *WriteRequest) AttError
}

// WriteHandlerFunc adapts an ordinary function to a WriteHandler.
type WriteHandlerFunc func(req *WriteRequest) AttError

func (f WriteHandlerFunc) ServeWrite(req *WriteRequest) AttError { return f(req) }

// A NotifyHandler is started in its own goroutine the moment a
// central enables notifications or indications on a characteristic by
// writing its CCCD (spec.md §4.5.3). It should loop, calling
// Notifier.Write until Notifier.Done reports true, and return
// promptly once the peer unsubscribes or disconnects.
type NotifyHandler interface {
	ServeNotify(connHandle uint16, n Notifier)
}

// NotifyHandlerFunc adapts an ordinary function to a NotifyHandler.
type NotifyHandlerFunc func(connHandle uint16, n Notifier)

func (f NotifyHandlerFunc) ServeNotify(connHandle uint16, n Notifier) { f(connHandle, n) }

// A Characteristic is a BLE GATT characteristic builder.
type Characteristic struct {
	uuid  UUID
	props Property
	perms Permission
	value []byte
	descs []*Descriptor

	declHandle  uint16
	valueHandle uint16
	cccdHandle  uint16

	rhandler ReadHandler
	whandler WriteHandler
	nhandler NotifyHandler

	service *Service
}

// HandleRead makes the characteristic support Read Request/Read Blob
// Request, routing reads to h. Must be called before registration.
func (c *Characteristic) HandleRead(h ReadHandler) {
	c.props |= PropRead
	c.perms |= PermRead
	c.rhandler = h
}

// HandleReadFunc calls HandleRead(ReadHandlerFunc(f)).
func (c *Characteristic) HandleReadFunc(f func(resp ReadResponseWriter, req *ReadRequest)) {
	c.HandleRead(ReadHandlerFunc(f))
}

// HandleWrite makes the characteristic support Write Request and
// Write Command, routing both to h. Must be called before registration.
func (c *Characteristic) HandleWrite(h WriteHandler) {
	c.props |= PropWrite | PropWriteNoResponse
	c.perms |= PermWrite
	c.whandler = h
}

// HandleWriteFunc calls HandleWrite(WriteHandlerFunc(f)).
func (c *Characteristic) HandleWriteFunc(f func(req *WriteRequest) AttError) {
	c.HandleWrite(WriteHandlerFunc(f))
}

// HandleNotify enables unacknowledged notify-style subscription and
// starts h in a new goroutine whenever a central turns it on.
func (c *Characteristic) HandleNotify(h NotifyHandler) {
	c.props |= PropNotify
	c.nhandler = h
}

// HandleNotifyFunc calls HandleNotify(NotifyHandlerFunc(f)).
func (c *Characteristic) HandleNotifyFunc(f func(connHandle uint16, n Notifier)) {
	c.HandleNotify(NotifyHandlerFunc(f))
}

// HandleIndicate enables acknowledged indicate-style subscription
// (spec.md §4.5.3). It shares NotifyHandler's shape; the engine picks
// notify vs indicate per-connection from the CCCD bits the central set,
// so a characteristic offering both properties can serve either.
func (c *Characteristic) HandleIndicate(h NotifyHandler) {
	c.props |= PropIndicate
	c.nhandler = h
}

// HandleIndicateFunc calls HandleIndicate(NotifyHandlerFunc(f)).
func (c *Characteristic) HandleIndicateFunc(f func(connHandle uint16, n Notifier)) {
	c.HandleIndicate(NotifyHandlerFunc(f))
}

// SetValue gives the characteristic a static value served directly by
// the database, with no ReadHandler round-trip.
func (c *Characteristic) SetValue(b []byte) {
	c.props |= PropRead
	c.perms |= PermRead
	c.value = b
}

// AddDescriptor adds a user descriptor to the characteristic. The
// CCCD is generated automatically and never appears here.
func (c *Characteristic) AddDescriptor(u UUID) *Descriptor {
	d := &Descriptor{uuid: u, perms: PermRead}
	c.descs = append(c.descs, d)
	return d
}

// UUID returns the characteristic's UUID.
func (c *Characteristic) UUID() UUID { return c.uuid }

// ValueHandle returns the characteristic's value attribute handle,
// valid only once the owning service has been registered.
func (c *Characteristic) ValueHandle() uint16 { return c.valueHandle }

func (c *Characteristic) readCB() ReadCallback {
	if c.rhandler == nil {
		return nil
	}
	return func(connHandle uint16, offset int) ([]byte, AttError) {
		w := newReadResponseWriter(4096)
		c.rhandler.ServeRead(w, &ReadRequest{ConnHandle: connHandle, Characteristic: c, Cap: w.capacity, Offset: offset})
		if w.status != 0 {
			return nil, w.status
		}
		if offset > len(w.buf) {
			return nil, AttErrorInvalidOffset
		}
		return w.buf[offset:], 0
	}
}

func (c *Characteristic) writeCB() WriteCallback {
	if c.whandler == nil {
		return nil
	}
	return func(connHandle uint16, offset int, value []byte) AttError {
		return c.whandler.ServeWrite(&WriteRequest{ConnHandle: connHandle, Characteristic: c, Data: value})
	}
}

type readResponseWriter struct {
	capacity int
	buf      []byte
	status   AttError
}

func newReadResponseWriter(capacity int) *readResponseWriter {
	return &readResponseWriter{capacity: capacity}
}

func (w *readResponseWriter) Write(b []byte) (int, error) {
	if len(w.buf)+len(b) > w.capacity {
		return 0, fmt.Errorf("gatt: read response exceeds %d byte cap", w.capacity)
	}
	w.buf = append(w.buf, b...)
	return len(b), nil
}

func (w *readResponseWriter) SetStatus(status AttError) { w.status = status }
