package gpio_test

import (
	"path/filepath"
	"testing"

	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/gpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyState(t *testing.T) {
	bitmap := make([]byte, 96)
	bitmap[15] = 0b0000_1000 // key 123

	v, err := gpio.KeyState(bitmap, 123)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = gpio.KeyState(bitmap, 122)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	_, err = gpio.KeyState(bitmap, gpio.KeyMax+1)
	assert.True(t, errors.HasCode(err, gpio.ErrKeyRange))

	_, err = gpio.KeyState(bitmap[:4], 123)
	assert.True(t, errors.HasCode(err, gpio.ErrKeyRange))
}

func TestReadKeyMissingDevice(t *testing.T) {
	_, err := gpio.NewReader().ReadKey(filepath.Join(t.TempDir(), "event0"), 1)
	assert.Error(t, err)
}
