package gatt

// A Descriptor is a user-defined characteristic descriptor (spec.md
// §3). The CCCD (0x2902) is generated automatically by the database
// and never surfaces as a Descriptor.
type Descriptor struct {
	uuid   UUID
	perms  Permission
	value  []byte
	handle uint16

	rhandler ReadHandler
	whandler WriteHandler
}

// SetValue gives the descriptor a static value.
func (d *Descriptor) SetValue(b []byte) {
	d.perms |= PermRead
	d.value = b
}

// HandleRead routes reads of the descriptor to h.
func (d *Descriptor) HandleRead(h ReadHandler) {
	d.perms |= PermRead
	d.rhandler = h
}

// HandleReadFunc calls HandleRead(ReadHandlerFunc(f)).
func (d *Descriptor) HandleReadFunc(f func(resp ReadResponseWriter, req *ReadRequest)) {
	d.HandleRead(ReadHandlerFunc(f))
}

// HandleWrite routes writes of the descriptor to h.
func (d *Descriptor) HandleWrite(h WriteHandler) {
	d.perms |= PermWrite
	d.whandler = h
}

// HandleWriteFunc calls HandleWrite(WriteHandlerFunc(f)).
func (d *Descriptor) HandleWriteFunc(f func(req *WriteRequest) AttError) {
	d.HandleWrite(WriteHandlerFunc(f))
}

// UUID returns the descriptor's UUID.
func (d *Descriptor) UUID() UUID { return d.uuid }

func (d *Descriptor) readCB() ReadCallback {
	if d.rhandler == nil {
		return nil
	}
	return func(connHandle uint16, offset int) ([]byte, AttError) {
		w := newReadResponseWriter(4096)
		d.rhandler.ServeRead(w, &ReadRequest{ConnHandle: connHandle, Offset: offset})
		if w.status != 0 {
			return nil, w.status
		}
		if offset > len(w.buf) {
			return nil, AttErrorInvalidOffset
		}
		return w.buf[offset:], 0
	}
}

func (d *Descriptor) writeCB() WriteCallback {
	if d.whandler == nil {
		return nil
	}
	return func(connHandle uint16, offset int, value []byte) AttError {
		return d.whandler.ServeWrite(&WriteRequest{ConnHandle: connHandle, Data: value})
	}
}
