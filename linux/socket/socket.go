// Package socket provides the small slice of the Bluetooth raw-HCI
// socket address family that golang.org/x/sys/unix does not expose
// directly: AF_BLUETOOTH/BTPROTO_HCI and struct sockaddr_hci, bound
// via a raw bind(2) syscall (SPEC_FULL.md §11, replacing the
// teacher's 386-only socketcall shim).
package socket

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Constants from <bluetooth/bluetooth.h> and <bluetooth/hci.h>.
const (
	AF_BLUETOOTH = 31
	BTPROTO_HCI  = 1

	HCI_CHANNEL_RAW  = 0
	HCI_CHANNEL_USER = 1
	HCI_CHANNEL_CTRL = 3
)

// SockaddrHCI mirrors struct sockaddr_hci.
type SockaddrHCI struct {
	Dev     int
	Channel int
}

type rawSockaddrHCI struct {
	family  uint16
	dev     uint16
	channel uint16
}

// Socket opens a raw socket in the given domain/type/protocol.
func Socket(domain, typ, proto int) (int, error) {
	return unix.Socket(domain, typ, proto)
}

// Bind binds fd to an HCI device/channel pair. The kernel's
// sockaddr_hci layout has no direct equivalent in x/sys/unix, so this
// issues the bind(2) syscall directly against a hand-laid-out struct.
func Bind(fd int, sa *SockaddrHCI) error {
	raw := rawSockaddrHCI{
		family:  AF_BLUETOOTH,
		dev:     uint16(sa.Dev),
		channel: uint16(sa.Channel),
	}
	_, _, errno := unix.Syscall(unix.SYS_BIND, uintptr(fd), uintptr(unsafe.Pointer(&raw)), unsafe.Sizeof(raw))
	if errno != 0 {
		return errno
	}
	return nil
}
