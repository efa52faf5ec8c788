package gatt

import (
	"errors"
	"fmt"
)

// Wire-level codec errors (C1). These never escape the server engine;
// on an inbound PDU they are translated to an ATT Error Response.
var (
	ErrInvalidFormat = errors.New("gatt: invalid format")
	ErrTruncatedPDU  = errors.New("gatt: truncated pdu")
)

// Transport errors (C3). Returned to the application driving a
// transport directly, or from Server/Scanner methods that wrap one.
var (
	ErrUnavailable     = errors.New("gatt: controller unavailable")
	ErrAlreadyScanning = errors.New("gatt: already scanning")
	ErrUnreachable     = errors.New("gatt: peer unreachable")
	ErrAuthFailed      = errors.New("gatt: authentication failed")
	ErrTimeout         = errors.New("gatt: operation timed out")
	ErrIO              = errors.New("gatt: transport i/o error")
	ErrBufferFull      = errors.New("gatt: advertisement buffer full")
	ErrUnsupported     = errors.New("gatt: unsupported by controller")
)

// ErrBusy is returned by (*Server).Indicate when an indication is
// already outstanding on the connection (spec.md §4.5.3, §7).
var ErrBusy = errors.New("gatt: indication already outstanding")

// ErrHandleSpaceExhausted is returned by attribute database
// registration once the 16-bit handle space (up to 0xFFFF) is used up.
var ErrHandleSpaceExhausted = errors.New("gatt: attribute handle space exhausted")

// ErrInvalidAddress reports a malformed device address. No function in
// this package returns it; UUID parsing reports ErrInvalidFormat.
var ErrInvalidAddress = errors.New("gatt: invalid address")

// AttError is one of the 1-byte ATT error codes (spec.md §4.5.2). It
// is both the wire value sent back to a peer and the Go error a user
// read/write callback returns to signal a failure.
type AttError uint8

// ATT error codes, spec.md §4.5.2.
const (
	AttErrorInvalidHandle        AttError = 0x01
	AttErrorReadNotPermitted     AttError = 0x02
	AttErrorWriteNotPermitted    AttError = 0x03
	AttErrorInvalidPDU           AttError = 0x04
	AttErrorInsuffAuthentication AttError = 0x05
	AttErrorRequestNotSupported  AttError = 0x06
	AttErrorInvalidOffset        AttError = 0x07
	AttErrorInsuffAuthorization  AttError = 0x08
	AttErrorPrepareQueueFull     AttError = 0x09
	AttErrorAttrNotFound         AttError = 0x0A
	AttErrorAttrNotLong          AttError = 0x0B
	AttErrorInsuffEncrKeySize    AttError = 0x0C
	AttErrorInvalidAttrValueLen  AttError = 0x0D
	AttErrorUnlikely             AttError = 0x0E
	AttErrorInsuffEncryption     AttError = 0x0F
	AttErrorUnsupportedGroupType AttError = 0x10
	AttErrorInsuffResources      AttError = 0x11
)

var attErrorNames = map[AttError]string{
	AttErrorInvalidHandle:        "invalid handle",
	AttErrorReadNotPermitted:     "read not permitted",
	AttErrorWriteNotPermitted:    "write not permitted",
	AttErrorInvalidPDU:           "invalid pdu",
	AttErrorInsuffAuthentication: "insufficient authentication",
	AttErrorRequestNotSupported:  "request not supported",
	AttErrorInvalidOffset:        "invalid offset",
	AttErrorInsuffAuthorization:  "insufficient authorization",
	AttErrorPrepareQueueFull:     "prepare queue full",
	AttErrorAttrNotFound:         "attribute not found",
	AttErrorAttrNotLong:          "attribute not long",
	AttErrorInsuffEncrKeySize:    "insufficient encryption key size",
	AttErrorInvalidAttrValueLen:  "invalid attribute value length",
	AttErrorUnlikely:             "unlikely error",
	AttErrorInsuffEncryption:     "insufficient encryption",
	AttErrorUnsupportedGroupType: "unsupported group type",
	AttErrorInsuffResources:      "insufficient resources",
}

func (e AttError) Error() string {
	if n, ok := attErrorNames[e]; ok {
		return fmt.Sprintf("gatt: att error 0x%02X (%s)", uint8(e), n)
	}
	return fmt.Sprintf("gatt: att error 0x%02X", uint8(e))
}
