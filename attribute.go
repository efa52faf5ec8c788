package gatt

// Permission is a bitmask of the access rules an attribute enforces,
// spec.md §3 ("Attribute" data model).
type Permission uint8

const (
	PermRead Permission = 1 << iota
	PermWrite
	PermReadEncrypted
	PermWriteEncrypted
	PermReadAuthenticated
	PermWriteAuthenticated
)

func (p Permission) readable() bool { return p&PermRead != 0 }
func (p Permission) writable() bool { return p&PermWrite != 0 }

// Characteristic property flags, spec.md §3 ("properties (1 byte)").
type Property uint8

const (
	PropBroadcast Property = 1 << iota
	PropRead
	PropWriteNoResponse
	PropWrite
	PropNotify
	PropIndicate
	PropAuthenticatedSignedWrite
	PropExtended
)

// ReadCallback answers a read of an attribute's value for the
// connection connHandle at the given offset. Returning a non-zero
// AttError sends that code back to the peer verbatim (spec.md §3,
// §4.5.1 opcode 0x0A).
type ReadCallback func(connHandle uint16, offset int) ([]byte, AttError)

// WriteCallback handles a write of value to an attribute at offset,
// for the connection connHandle. A zero AttError means success.
type WriteCallback func(connHandle uint16, offset int, value []byte) AttError

// attrKind distinguishes the handful of attribute roles the database
// needs to special-case (service span bookkeeping, characteristic
// value/CCCD placement). It never appears on the wire; type_uuid does
// that job for real ATT clients.
type attrKind int

const (
	kindPlain attrKind = iota
	kindPrimaryService
	kindSecondaryService
	kindInclude
	kindCharacteristicDecl
	kindCharacteristicValue
	kindCCCD
)

// Attribute is one entry of the attribute database (C4), spec.md §3.
type Attribute struct {
	Handle uint16
	Type   UUID
	Perms  Permission
	Value  []byte

	ReadCB  ReadCallback
	WriteCB WriteCallback

	kind attrKind

	// EndGroupHandle is meaningful only on service-declaration
	// attributes (Primary/Secondary Service).
	EndGroupHandle uint16

	// Properties and ValueHandle are meaningful only on
	// characteristic-declaration attributes.
	Properties  Property
	ValueHandle uint16
}

// readValue resolves the attribute's current value for connHandle at
// offset, invoking ReadCB if present, else slicing the static Value.
func (a *Attribute) readValue(connHandle uint16, offset int) ([]byte, AttError) {
	if a.ReadCB != nil {
		return a.ReadCB(connHandle, offset)
	}
	if offset > len(a.Value) {
		return nil, AttErrorInvalidOffset
	}
	return a.Value[offset:], 0
}
