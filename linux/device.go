package linux

import (
	"io"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/yinzara/libblepp/linux/socket"
)

type device struct {
	fd  int
	rmu *sync.Mutex
	wmu *sync.Mutex
}

// newSocket opens a raw HCI socket on device n. It prefers the
// exclusive HCI_CHANNEL_USER introduced in Linux 3.14, falling back to
// HCI_CHANNEL_RAW (shared with bluetoothd) on older kernels.
func newSocket(n int) (io.ReadWriteCloser, error) {
	fd, err := socket.Socket(socket.AF_BLUETOOTH, unix.SOCK_RAW, socket.BTPROTO_HCI)
	if err != nil {
		return nil, err
	}

	sa := socket.SockaddrHCI{Dev: n, Channel: socket.HCI_CHANNEL_USER}
	if err = socket.Bind(fd, &sa); err == unix.EINVAL {
		sa := socket.SockaddrHCI{Dev: n, Channel: socket.HCI_CHANNEL_RAW}
		if err = socket.Bind(fd, &sa); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return &device{
		fd:  fd,
		rmu: &sync.Mutex{},
		wmu: &sync.Mutex{},
	}, nil
}

func newDevice(path string) (io.ReadWriteCloser, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0700)
	if err != nil {
		return nil, err
	}
	return &device{
		fd:  fd,
		rmu: &sync.Mutex{},
		wmu: &sync.Mutex{},
	}, nil
}

func (d device) Read(b []byte) (int, error) {
	d.rmu.Lock()
	defer d.rmu.Unlock()
	return unix.Read(d.fd, b)
}

func (d device) Write(b []byte) (int, error) {
	d.wmu.Lock()
	defer d.wmu.Unlock()
	return unix.Write(d.fd, b)
}

func (d device) Close() error {
	return unix.Close(d.fd)
}
