package gatt

// ATT opcodes, spec.md §4.5.1 and §6.
const (
	attOpError           = 0x01
	attOpMtuReq          = 0x02
	attOpMtuResp         = 0x03
	attOpFindInfoReq     = 0x04
	attOpFindInfoResp    = 0x05
	attOpFindByTypeReq   = 0x06
	attOpFindByTypeResp  = 0x07
	attOpReadByTypeReq   = 0x08
	attOpReadByTypeResp  = 0x09
	attOpReadReq         = 0x0A
	attOpReadResp        = 0x0B
	attOpReadBlobReq     = 0x0C
	attOpReadBlobResp    = 0x0D
	attOpReadMultiReq    = 0x0E
	attOpReadMultiResp   = 0x0F
	attOpReadByGroupReq  = 0x10
	attOpReadByGroupResp = 0x11
	attOpWriteReq        = 0x12
	attOpWriteResp       = 0x13
	attOpPrepWriteReq    = 0x16
	attOpPrepWriteResp   = 0x17
	attOpExecWriteReq    = 0x18
	attOpExecWriteResp   = 0x19
	attOpHandleNotify    = 0x1B
	attOpHandleInd       = 0x1D
	attOpHandleCnf       = 0x1E
	attOpWriteCmd        = 0x52
	attOpSignedWriteCmd  = 0xD2
)

// attOpName is used only for log messages.
var attOpName = map[byte]string{
	attOpError:           "Error Response",
	attOpMtuReq:          "Exchange MTU Request",
	attOpMtuResp:         "Exchange MTU Response",
	attOpFindInfoReq:     "Find Information Request",
	attOpFindInfoResp:    "Find Information Response",
	attOpFindByTypeReq:   "Find By Type Value Request",
	attOpFindByTypeResp:  "Find By Type Value Response",
	attOpReadByTypeReq:   "Read By Type Request",
	attOpReadByTypeResp:  "Read By Type Response",
	attOpReadReq:         "Read Request",
	attOpReadResp:        "Read Response",
	attOpReadBlobReq:     "Read Blob Request",
	attOpReadBlobResp:    "Read Blob Response",
	attOpReadByGroupReq:  "Read By Group Type Request",
	attOpReadByGroupResp: "Read By Group Type Response",
	attOpWriteReq:        "Write Request",
	attOpWriteResp:       "Write Response",
	attOpPrepWriteReq:    "Prepare Write Request",
	attOpExecWriteReq:    "Execute Write Request",
	attOpHandleNotify:    "Handle Value Notification",
	attOpHandleInd:       "Handle Value Indication",
	attOpHandleCnf:       "Handle Value Confirmation",
	attOpWriteCmd:        "Write Command",
	attOpSignedWriteCmd:  "Signed Write Command",
}

// attErrorResp builds a spec.md §4.5.2 Error Response PDU:
// [0x01][failing opcode][attr handle LE][error code].
func attErrorResp(op byte, h uint16, status AttError) []byte {
	b := make([]byte, 0, 5)
	b = append(b, attOpError, op)
	b = appendUint16LE(b, h)
	b = append(b, byte(status))
	return b
}

// Attribute type UUIDs used by the GATT layer, spec.md §3-§4.4.
var (
	uuidPrimaryService   = UUID16(0x2800)
	uuidSecondaryService = UUID16(0x2801)
	uuidInclude          = UUID16(0x2802)
	uuidCharacteristic   = UUID16(0x2803)
	uuidCCCD             = UUID16(0x2902)

	uuidGAPService    = UUID16(0x1800)
	uuidGATTService   = UUID16(0x1801)
	uuidGAPDeviceName = UUID16(0x2A00)
	uuidGAPAppearance = UUID16(0x2A01)
)
