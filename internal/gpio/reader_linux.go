//go:build linux

package gpio

import (
	"unsafe"

	"codeberg.org/mutker/fanmon/internal/errors"
	"golang.org/x/sys/unix"
)

// eviocgkey is EVIOCGKEY(len): _IOC(_IOC_READ, 'E', 0x18, len).
const eviocgkey = 2<<30 | keyBytes<<16 | 'E'<<8 | 0x18

// ReadKey returns 1 when key is pressed (line asserted) on the input device
// at devpath, 0 otherwise.
func (*Reader) ReadKey(devpath string, key uint) (int, error) {
	errFactory := errors.New()

	fd, err := unix.Open(devpath, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, errFactory.Wrap(ErrOpenDevice, err)
	}
	defer unix.Close(fd)

	var bitmap [keyBytes]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), eviocgkey, uintptr(unsafe.Pointer(&bitmap[0])))
	if errno != 0 {
		return 0, errFactory.Wrap(ErrReadKeys, errno)
	}

	return KeyState(bitmap[:], key)
}
