// Package gpio reads presence lines exposed by the kernel as input device
// keys (gpio-keys).
package gpio

import "codeberg.org/mutker/fanmon/internal/errors"

// KeyMax is the highest key code an input device reports.
const KeyMax = 0x2ff

// keyBytes is the size of the key state bitmap.
const keyBytes = (KeyMax + 8) / 8

// KeyState extracts one key from a key state bitmap.
func KeyState(bitmap []byte, key uint) (int, error) {
	if key > KeyMax || int(key/8) >= len(bitmap) {
		return 0, errors.New().WithData(ErrKeyRange, key)
	}
	if bitmap[key/8]&(1<<(key%8)) != 0 {
		return 1, nil
	}
	return 0, nil
}

// Reader reads key state from input devices.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}
