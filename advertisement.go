package gatt

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// MaxEIRPacketLength is the maximum allowed AdvertisingPacket
// and ScanResponsePacket length.
const MaxEIRPacketLength = 31

// ErrEIRPacketTooLong is the error returned when an AdvertisingPacket
// or ScanResponsePacket is too long.
var ErrEIRPacketTooLong = errors.New("max packet length is 31")

// advertising data field types, spec.md §4.2.
const (
	typeFlags             = 0x01 // Flags
	typeSomeUUID16        = 0x02 // Incomplete List of 16-bit Service Class UUIDs
	typeAllUUID16         = 0x03 // Complete List of 16-bit Service Class UUIDs
	typeSomeUUID32        = 0x04 // Incomplete List of 32-bit Service Class UUIDs
	typeAllUUID32         = 0x05 // Complete List of 32-bit Service Class UUIDs
	typeSomeUUID128       = 0x06 // Incomplete List of 128-bit Service Class UUIDs
	typeAllUUID128        = 0x07 // Complete List of 128-bit Service Class UUIDs
	typeShortName         = 0x08 // Shortened Local Name
	typeCompleteName      = 0x09 // Complete Local Name
	typeTxPower           = 0x0A // Tx Power Level
	typeClassOfDevice     = 0x0D // Class of Device
	typeSimplePairingC192 = 0x0E // Simple Pairing Hash C-192
	typeSimplePairingR192 = 0x0F // Simple Pairing Randomizer R-192
	typeSecManagerTK      = 0x10 // Security Manager TK Value
	typeSecManagerOOB     = 0x11 // Security Manager Out of Band Flags
	typeSlaveConnInt      = 0x12 // Slave Connection Interval Range
	typeServiceSol16      = 0x14 // List of 16-bit Service Solicitation UUIDs
	typeServiceSol128     = 0x15 // List of 128-bit Service Solicitation UUIDs
	typeServiceData16     = 0x16 // Service Data - 16-bit UUID
	typePubTargetAddr     = 0x17 // Public Target Address
	typeRandTargetAddr    = 0x18 // Random Target Address
	typeAppearance        = 0x19 // Appearance
	typeAdvInterval       = 0x1A // Advertising Interval
	typeLEDeviceAddr      = 0x1B // LE Bluetooth Device Address
	typeLERole            = 0x1C // LE Role
	typeServiceSol32      = 0x1F // List of 32-bit Service Solicitation UUIDs
	typeServiceData32     = 0x20 // Service Data - 32-bit UUID
	typeServiceData128    = 0x21 // Service Data - 128-bit UUID
	typeLESecConfirm      = 0x22 // LE Secure Connections Confirmation Value
	typeLESecRandom       = 0x23 // LE Secure Connections Random Value
	typeManufacturerData  = 0xFF // Manufacturer Specific Data
)

// flag bits, spec.md §4.2.
const (
	flagLimitedDiscoverable = 1 << iota // LE Limited Discoverable Mode
	flagGeneralDiscoverable             // LE General Discoverable Mode
	flagLEOnly                          // BR/EDR Not Supported
	flagBothController                  // Simultaneous LE and BR/EDR, Controller
	flagBothHost                        // Simultaneous LE and BR/EDR, Host
)

var advLog = logrus.WithField("component", "advertisement")

// Advertisement is the decoded TLV content of one advertising or scan
// response report (spec.md §4.2).
type Advertisement struct {
	HasFlags bool
	Flags    byte

	Services         []UUID
	ServicesComplete bool

	SolicitedService []UUID

	LocalName         string
	LocalNameComplete bool

	ManufacturerData []byte
	ServiceData      []byte

	HasTxPowerLevel bool
	TxPowerLevel    int

	// Unparsed holds any TLV chunk whose type byte isn't one of the
	// ones spec.md §4.2 names, keyed by that type byte.
	Unparsed map[byte][]byte

	// Connectable mirrors the discoverable flag bits, kept for
	// convenience; it is not itself part of any TLV.
	Connectable bool
}

// Unmarshal decodes the AD structure sequence in b into a, per
// spec.md §4.2's TLV table. A malformed chunk (length overrunning the
// buffer) fails the whole call; callers scanning a stream of reports
// should drop just the offending report and continue (spec.md §4.2
// "fail the single record... but never propagate out of the scanner
// loop").
func (a *Advertisement) Unmarshal(b []byte) error {
	for len(b) > 0 {
		if len(b) < 2 {
			return ErrTruncatedPDU
		}
		l, t := b[0], b[1]
		if l == 0 {
			return ErrInvalidFormat
		}
		if len(b) < int(1+l) {
			return ErrTruncatedPDU
		}
		d := b[2 : 1+l]
		switch t {
		case typeFlags:
			if len(d) < 1 {
				return ErrTruncatedPDU
			}
			a.HasFlags = true
			a.Flags = d[0]
			a.Connectable = d[0]&(flagLimitedDiscoverable|flagGeneralDiscoverable) != 0
		case typeSomeUUID16:
			a.Services = appendUUIDList(a.Services, d, 2)
			a.ServicesComplete = false
		case typeAllUUID16:
			a.Services = appendUUIDList(a.Services, d, 2)
			a.ServicesComplete = true
		case typeSomeUUID32:
			a.Services = appendUUIDList(a.Services, d, 4)
			a.ServicesComplete = false
		case typeAllUUID32:
			a.Services = appendUUIDList(a.Services, d, 4)
			a.ServicesComplete = true
		case typeSomeUUID128:
			a.Services = appendUUIDList(a.Services, d, 16)
			a.ServicesComplete = false
		case typeAllUUID128:
			a.Services = appendUUIDList(a.Services, d, 16)
			a.ServicesComplete = true
		case typeShortName:
			a.LocalName = string(d)
			a.LocalNameComplete = false
		case typeCompleteName:
			a.LocalName = string(d)
			a.LocalNameComplete = true
		case typeTxPower:
			if len(d) < 1 {
				return ErrTruncatedPDU
			}
			a.HasTxPowerLevel = true
			a.TxPowerLevel = int(int8(d[0]))
		case typeServiceSol16:
			a.SolicitedService = appendUUIDList(a.SolicitedService, d, 2)
		case typeServiceSol128:
			a.SolicitedService = appendUUIDList(a.SolicitedService, d, 16)
		case typeServiceSol32:
			a.SolicitedService = appendUUIDList(a.SolicitedService, d, 4)
		case typeServiceData16, typeServiceData32, typeServiceData128:
			a.ServiceData = append([]byte(nil), d...)
		case typeManufacturerData:
			a.ManufacturerData = append([]byte(nil), d...)
		default:
			if a.Unparsed == nil {
				a.Unparsed = map[byte][]byte{}
			}
			a.Unparsed[t] = append([]byte(nil), d...)
		}
		b = b[1+l:]
	}
	return nil
}

// appendUUIDList splits d into w-byte little-endian UUIDs and appends
// their (reversed, canonical big-endian) form to u.
func appendUUIDList(u []UUID, d []byte, w int) []UUID {
	for len(d) >= w {
		u = append(u, UUID{reverseBytes(d[:w])})
		d = d[w:]
	}
	return u
}

// ParseAdvertisingReport decodes one HCI LE Advertising Report
// sub-event payload — `[num_reports][per-report x N]`, each report
// `[event_type:1][addr_type:1][addr:6][data_len:1][data][rssi:1]` —
// into zero or more AdvertisementRecords (spec.md §4.2). A malformed
// report ends decoding but returns everything decoded before it,
// matching the "drop the bad one, keep going" policy at the caller
// (the caller is the one record here; a stream of HCI events each
// calls this once).
func ParseAdvertisingReport(payload []byte) ([]AdvertisementRecord, error) {
	if len(payload) < 1 {
		return nil, ErrTruncatedPDU
	}
	n := int(payload[0])
	b := payload[1:]
	out := make([]AdvertisementRecord, 0, n)
	for i := 0; i < n; i++ {
		if len(b) < 9 {
			return out, ErrTruncatedPDU
		}
		eventType := b[0]
		addrType := b[1]
		var addr [6]byte
		copy(addr[:], b[2:8])
		dataLen := int(b[8])
		if len(b) < 9+dataLen+1 {
			return out, ErrTruncatedPDU
		}
		data := append([]byte(nil), b[9:9+dataLen]...)
		rssi := int8(b[9+dataLen])
		b = b[9+dataLen+1:]

		out = append(out, AdvertisementRecord{
			Address:     addr,
			AddressType: AddressType(addrType),
			EventType:   AdvEventType(eventType),
			RSSI:        rssi,
			Data:        data,
		})
	}
	return out, nil
}

// DecodeAdvertisement parses rec.Data's TLV content into an
// Advertisement, logging and returning a nil *Advertisement (never an
// error to the caller's caller) on malformed input so a scanning loop
// never has to special-case one bad report (spec.md §4.2).
func DecodeAdvertisement(rec AdvertisementRecord) *Advertisement {
	a := &Advertisement{}
	if err := a.Unmarshal(rec.Data); err != nil {
		advLog.WithError(err).Debug("dropping malformed advertisement record")
		return nil
	}
	return a
}

// nameScanResponsePacket constructs a scan response packet with
// the given name, truncated as necessary.
func nameScanResponsePacket(name string) []byte {
	typ := byte(typeCompleteName)
	if max := MaxEIRPacketLength - 2; len(name) > max {
		name = name[:max]
		typ = typeShortName
	}
	scan := new(advPacket)
	scan.appendField(typ, []byte(name))
	return scan.data
}

// serviceAdvertisingPacket constructs an advertising packet that
// advertises as many of the provided service uuids as possible.
// It returns the advertising packet and the contained uuids. Per
// service-UUID length, the complete-list TLV (spec.md §4.3.2) is used
// when every uuid of that length fits; otherwise the incomplete-list
// TLV is used for whichever ones do fit, since the omission is real.
func serviceAdvertisingPacket(uu []UUID) ([]byte, []UUID) {
	fit := make([]UUID, 0, len(uu))
	adv := new(advPacket)
	adv.appendField(typeFlags, []byte{flagGeneralDiscoverable | flagLEOnly})

	for _, width := range [2]int{2, 16} {
		var group []UUID
		for _, u := range uu {
			if u.Len() == width {
				group = append(group, u)
			}
		}
		if len(group) == 0 {
			continue
		}
		complete := adv.fits(group)
		for _, u := range group {
			if ok := adv.appendUUIDFit(u, complete); ok {
				fit = append(fit, u)
			}
		}
	}
	return adv.data, fit
}

// fits reports whether every uuid in group would fit in p's remaining
// budget if appended back to back.
func (p *advPacket) fits(group []UUID) bool {
	n := len(p.data)
	for _, u := range group {
		n += u.Len() + 2
	}
	return n <= MaxEIRPacketLength
}

type advPacket struct {
	data []byte
}

// appendField appends a BLE advertising packet field: [len][typ][data].
func (p *advPacket) appendField(typ byte, data []byte) {
	p.data = append(p.data, byte(len(data)+1))
	p.data = append(p.data, typ)
	p.data = append(p.data, data...)
}

func (p *advPacket) appendManufactureDataFit(cid uint16, data []byte) bool {
	if len(p.data)+1+2+len(data) > MaxEIRPacketLength {
		return false
	}
	d := append([]byte{uint8(cid), uint8(cid >> 8)}, data...)
	p.appendField(typeManufacturerData, d)
	return true
}

// appendUUIDFit appends a BLE advertised service UUID packet field if
// it fits in the packet, and reports whether the UUID fit. complete
// selects the Complete-List TLV when the caller knows every same-width
// UUID it's advertising fits, and the Incomplete-List TLV otherwise.
func (p *advPacket) appendUUIDFit(u UUID, complete bool) bool {
	if len(p.data)+u.Len()+2 > MaxEIRPacketLength {
		return false
	}
	switch u.Len() {
	case 2:
		typ := byte(typeSomeUUID16)
		if complete {
			typ = typeAllUUID16
		}
		p.appendField(typ, u.Pack())
	case 16:
		typ := byte(typeSomeUUID128)
		if complete {
			typ = typeAllUUID128
		}
		p.appendField(typ, u.Pack())
	}
	return true
}
