// Package gioctl builds Linux ioctl request codes using the same
// _IOR/_IOW bit layout as <asm-generic/ioctl.h>, and issues them via
// golang.org/x/sys/unix (SPEC_FULL.md §11).
package gioctl

import "golang.org/x/sys/unix"

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNrShift) | (size << iocSizeShift)
}

// IoR builds a "read" ioctl request code, equivalent to the C macro
// _IOR(typ, nr, size).
func IoR(typ, nr, size uintptr) uintptr { return ioc(iocRead, typ, nr, size) }

// IoW builds a "write" ioctl request code, equivalent to the C macro
// _IOW(typ, nr, size).
func IoW(typ, nr, size uintptr) uintptr { return ioc(iocWrite, typ, nr, size) }

// IoWR builds a read/write ioctl request code, equivalent to the C
// macro _IOWR(typ, nr, size).
func IoWR(typ, nr, size uintptr) uintptr { return ioc(iocRead|iocWrite, typ, nr, size) }

// Io builds a no-argument ioctl request code, equivalent to the C
// macro _IO(typ, nr).
func Io(typ, nr uintptr) uintptr { return ioc(iocNone, typ, nr, 0) }

// Ioctl issues an ioctl(2) syscall against fd.
func Ioctl(fd, req, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}
