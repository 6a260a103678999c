//go:build !linux

package gpio

import "codeberg.org/mutker/fanmon/internal/errors"

// ReadKey is only supported on Linux.
func (*Reader) ReadKey(devpath string, _ uint) (int, error) {
	return 0, errors.New().WithData(ErrUnsupported, devpath)
}
