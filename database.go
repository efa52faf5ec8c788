package gatt

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Database is the handle-indexed attribute store (C4). Handles are
// allocated monotonically starting at 1 and never reused; the
// database is mutated only while services are being registered and is
// safe to share across goroutines once RegisterServices has returned
// (spec.md §5 "Shared resource policy").
type Database struct {
	mu    sync.RWMutex
	attrs []Attribute // attrs[i].Handle == uint16(i)+1; contiguous, no gaps
	log   *logrus.Entry

	// charByValueHandle indexes the characteristic builder behind each
	// value handle, populated by RegisterServices, used by the server
	// engine to route CCCD writes to a subscription callback.
	charByValueHandle map[uint16]*Characteristic
}

// NewDatabase creates an empty database seeded with the standard GAP
// and GATT services (device name + appearance), matching the
// teacher's defaultServices and blepp's always-present GAP service
// (SPEC_FULL.md §12).
func NewDatabase(deviceName string) *Database {
	d := &Database{
		log:               logrus.WithField("component", "attdb"),
		charByValueHandle: map[uint16]*Characteristic{},
	}
	gap := NewService(uuidGAPService)
	nameChar := gap.AddCharacteristic(uuidGAPDeviceName)
	nameChar.props = PropRead
	nameChar.perms = PermRead
	nameChar.value = []byte(deviceName)
	appearChar := gap.AddCharacteristic(uuidGAPAppearance)
	appearChar.props = PropRead
	appearChar.perms = PermRead
	appearChar.value = []byte{0x00, 0x00}

	gatt := NewService(uuidGATTService)

	_ = d.addService(gap)
	_ = d.addService(gatt)
	return d
}

// nextHandle allocates the next free 16-bit handle, or reports
// ErrHandleSpaceExhausted once handle 0xFFFF has been issued
// (spec.md §4.4).
func (d *Database) nextHandle() (uint16, error) {
	if len(d.attrs) >= 0xFFFF {
		return 0, ErrHandleSpaceExhausted
	}
	return uint16(len(d.attrs)) + 1, nil
}

func (d *Database) append(a Attribute) (uint16, error) {
	h, err := d.nextHandle()
	if err != nil {
		return 0, err
	}
	a.Handle = h
	d.attrs = append(d.attrs, a)
	return h, nil
}

// idx converts a handle to its slice index, or -1 if out of range.
func (d *Database) idx(h uint16) int {
	if h == 0 || int(h) > len(d.attrs) {
		return -1
	}
	return int(h) - 1
}

// AddPrimaryService allocates a Primary Service declaration attribute
// and returns its handle. Its EndGroupHandle starts out equal to its
// own handle and is extended as characteristics/includes are added.
func (d *Database) AddPrimaryService(uuid UUID) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addServiceDecl(uuid, kindPrimaryService)
}

// AddSecondaryService is AddPrimaryService for a service only ever
// reachable via an Include (spec.md §3, §4.4).
func (d *Database) AddSecondaryService(uuid UUID) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addServiceDecl(uuid, kindSecondaryService)
}

func (d *Database) addServiceDecl(uuid UUID, kind attrKind) (uint16, error) {
	typ := uuidPrimaryService
	if kind == kindSecondaryService {
		typ = uuidSecondaryService
	}
	h, err := d.append(Attribute{Type: typ, kind: kind, Perms: PermRead, Value: uuid.AppendPack(nil)})
	if err != nil {
		return 0, err
	}
	d.attrs[d.idx(h)].EndGroupHandle = h
	return h, nil
}

// AddInclude adds an Include declaration (type 0x2802) referencing an
// already-registered service, appending it to serviceHandle's group.
func (d *Database) AddInclude(serviceHandle, includedServiceHandle uint16) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	inc, ok := d.at(includedServiceHandle)
	if !ok {
		return 0, AttErrorInvalidHandle
	}
	value := make([]byte, 0, 4+len(inc.Value))
	value = appendUint16LE(value, includedServiceHandle)
	value = appendUint16LE(value, inc.EndGroupHandle)
	value = append(value, inc.Value...)
	h, err := d.append(Attribute{Type: uuidInclude, kind: kindInclude, Perms: PermRead, Value: value})
	if err != nil {
		return 0, err
	}
	d.extendGroup(serviceHandle, h)
	return h, nil
}

// AddCharacteristic allocates a characteristic declaration handle h,
// its value at h+1 and — when props includes Notify or Indicate — an
// auto-generated CCCD at h+2 (spec.md §3, §4.4).
func (d *Database) AddCharacteristic(serviceHandle uint16, uuid UUID, props Property, perms Permission) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addCharacteristic(serviceHandle, uuid, props, perms, nil, nil, nil)
}

func (d *Database) addCharacteristic(serviceHandle uint16, uuid UUID, props Property, perms Permission, value []byte, rcb ReadCallback, wcb WriteCallback) (uint16, error) {
	declHandle, err := d.nextHandle()
	if err != nil {
		return 0, err
	}
	valueHandle := declHandle + 1

	declValue := make([]byte, 0, 3+uuid.Len())
	declValue = append(declValue, byte(props))
	declValue = appendUint16LE(declValue, valueHandle)
	declValue = uuid.AppendPack(declValue)

	if _, err := d.append(Attribute{Type: uuidCharacteristic, kind: kindCharacteristicDecl,
		Perms: PermRead, Value: declValue, Properties: props, ValueHandle: valueHandle}); err != nil {
		return 0, err
	}
	if h, err := d.append(Attribute{Type: uuid, kind: kindCharacteristicValue,
		Perms: perms, Value: value, ReadCB: rcb, WriteCB: wcb}); err != nil {
		return 0, err
	} else if h != valueHandle {
		panic("gatt: characteristic value handle allocation drifted")
	}

	last := valueHandle
	if props&(PropNotify|PropIndicate) != 0 {
		h, err := d.append(Attribute{Type: uuidCCCD, kind: kindCCCD,
			Perms: PermRead | PermWrite, Value: []byte{0x00, 0x00}})
		if err != nil {
			return 0, err
		}
		last = h
	}
	d.extendGroup(serviceHandle, last)
	return declHandle, nil
}

// AddDescriptor appends a user descriptor after characteristicValueHandle's
// existing attributes, extending the owning service's group.
func (d *Database) AddDescriptor(characteristicValueHandle uint16, uuid UUID, perms Permission) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addDescriptor(characteristicValueHandle, uuid, perms, nil, nil, nil)
}

func (d *Database) addDescriptor(characteristicValueHandle uint16, uuid UUID, perms Permission, value []byte, rcb ReadCallback, wcb WriteCallback) (uint16, error) {
	if _, ok := d.at(characteristicValueHandle); !ok {
		return 0, AttErrorInvalidHandle
	}
	svc := d.owningService(characteristicValueHandle)
	h, err := d.append(Attribute{Type: uuid, kind: kindPlain, Perms: perms, Value: value, ReadCB: rcb, WriteCB: wcb})
	if err != nil {
		return 0, err
	}
	if svc != 0 {
		d.extendGroup(svc, h)
	}
	return h, nil
}

// extendGroup bumps serviceHandle's EndGroupHandle to newLast if it is
// larger, an O(1) update since Get is a direct index (spec.md §4.4).
func (d *Database) extendGroup(serviceHandle, newLast uint16) {
	i := d.idx(serviceHandle)
	if i < 0 {
		return
	}
	if d.attrs[i].EndGroupHandle < newLast {
		d.attrs[i].EndGroupHandle = newLast
	}
}

// owningService walks backward from h to find the nearest preceding
// service declaration, returning 0 if h precedes any service (should
// not happen once GAP/GATT are seeded).
func (d *Database) owningService(h uint16) uint16 {
	for i := d.idx(h); i >= 0; i-- {
		switch d.attrs[i].kind {
		case kindPrimaryService, kindSecondaryService:
			return d.attrs[i].Handle
		}
	}
	return 0
}

// at returns a copy of the attribute at handle h.
func (d *Database) at(h uint16) (Attribute, bool) {
	i := d.idx(h)
	if i < 0 {
		return Attribute{}, false
	}
	return d.attrs[i], true
}

// Get returns the attribute at handle h, mirroring spec.md §4.4's
// get(handle) -> Option<Attribute>.
func (d *Database) Get(h uint16) (Attribute, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.at(h)
}

// Range returns every attribute with handle in [start, end], ordered
// ascending. It never panics for out-of-range bounds.
func (d *Database) Range(start, end uint16) []Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rangeLocked(start, end)
}

func (d *Database) rangeLocked(start, end uint16) []Attribute {
	if start == 0 {
		start = 1
	}
	if start > end || len(d.attrs) == 0 {
		return nil
	}
	si := d.idx(start)
	if si < 0 {
		if start > uint16(len(d.attrs)) {
			return nil
		}
		si = 0
	}
	ei := d.idx(end)
	if ei < 0 {
		ei = len(d.attrs) - 1
	}
	if si > ei {
		return nil
	}
	out := make([]Attribute, ei-si+1)
	copy(out, d.attrs[si:ei+1])
	return out
}

// FindByType returns every attribute in [start, end] whose Type
// equals typ, ordered ascending (spec.md §4.4).
func (d *Database) FindByType(start, end uint16, typ UUID) []Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Attribute
	for _, a := range d.rangeLocked(start, end) {
		if a.Type.Equal(typ) {
			out = append(out, a)
		}
	}
	return out
}

// FindByTypeValue is FindByType additionally filtered on an exact
// value match (spec.md §4.4, opcode 0x06).
func (d *Database) FindByTypeValue(start, end uint16, typ UUID, value []byte) []Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Attribute
	for _, a := range d.rangeLocked(start, end) {
		if a.Type.Equal(typ) && string(a.Value) == string(value) {
			out = append(out, a)
		}
	}
	return out
}

// RegisterServices registers one or more services in a single atomic
// step. Handle allocation for the whole batch happens against a
// scratch copy of the database first; if any service fails to
// register (e.g. ErrHandleSpaceExhausted), the live database is left
// completely untouched (spec.md §9 Open Question: "should a partially
// registered service ever be observable?" resolved as no).
func (d *Database) RegisterServices(services ...*Service) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	scratch := &Database{
		log:               d.log,
		charByValueHandle: map[uint16]*Characteristic{},
	}
	scratch.attrs = append(scratch.attrs, d.attrs...)
	for k, v := range d.charByValueHandle {
		scratch.charByValueHandle[k] = v
	}

	for _, svc := range services {
		if err := scratch.addService(svc); err != nil {
			return err
		}
	}

	d.attrs = scratch.attrs
	d.charByValueHandle = scratch.charByValueHandle
	return nil
}

// addService is the internal seeding path used by NewDatabase, which
// bypasses the public builder-based RegisterServices flow since the
// GAP/GATT services must exist before any user service is added.
func (d *Database) addService(svc *Service) error {
	kind := kindPrimaryService
	typ := uuidPrimaryService
	if !svc.primary {
		kind = kindSecondaryService
		typ = uuidSecondaryService
	}
	svcHandle, err := d.append(Attribute{Type: typ, kind: kind, Perms: PermRead, Value: svc.uuid.AppendPack(nil)})
	if err != nil {
		return err
	}
	d.attrs[d.idx(svcHandle)].EndGroupHandle = svcHandle

	for _, inc := range svc.includes {
		if _, err := d.AddInclude(svcHandle, inc); err != nil {
			return err
		}
	}
	for _, c := range svc.chars {
		if err := d.addCharFromBuilder(svcHandle, c); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) addCharFromBuilder(svcHandle uint16, c *Characteristic) error {
	declHandle, err := d.addCharacteristic(svcHandle, c.uuid, c.props, c.perms, c.value, c.readCB(), c.writeCB())
	if err != nil {
		return err
	}
	c.declHandle = declHandle
	c.valueHandle = declHandle + 1
	d.charByValueHandle[c.valueHandle] = c
	if c.props&(PropNotify|PropIndicate) != 0 {
		c.cccdHandle = c.valueHandle + 1
	}
	for _, desc := range c.descs {
		h, err := d.addDescriptor(c.valueHandle, desc.uuid, desc.perms, desc.value, desc.readCB(), desc.writeCB())
		if err != nil {
			return err
		}
		desc.handle = h
	}
	return nil
}

// characteristicForValueHandle looks up the builder behind a value
// handle, used by the server engine to deliver subscription
// notifications when a CCCD write flips notify/indicate on.
func (d *Database) characteristicForValueHandle(h uint16) *Characteristic {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.charByValueHandle[h]
}

// Dump logs the attribute table at debug level (SPEC_FULL.md §12,
// grounded on currantlabs-ble/linux/att/db.go's DumpAttributes).
func (d *Database) Dump() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	d.log.Debug("attribute table:")
	for _, a := range d.attrs {
		d.log.Debugf("  handle=0x%04X type=%s end=0x%04X value=% X", a.Handle, a.Type, a.EndGroupHandle, a.Value)
	}
}
