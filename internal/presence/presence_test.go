package presence_test

import (
	"testing"

	"codeberg.org/mutker/fanmon/internal/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixed struct {
	present bool
	queries int
}

func (f *fixed) Present() bool {
	f.queries++
	return f.present
}

func (f *fixed) String() string {
	return "fixed"
}

func record(sensors ...presence.PresenceSensor) *presence.FanRecord {
	return &presence.FanRecord{
		Identity: presence.FanIdentity{Name: "fan0", Path: "/system/chassis/motherboard/fan0"},
		Sensors:  sensors,
	}
}

func TestAnyOf(t *testing.T) {
	tests := []struct {
		name    string
		sensors []presence.PresenceSensor
		want    bool
	}{
		{"present and absent", []presence.PresenceSensor{&fixed{present: true}, &fixed{}}, true},
		{"absent and present", []presence.PresenceSensor{&fixed{}, &fixed{present: true}}, true},
		{"all absent", []presence.PresenceSensor{&fixed{}, &fixed{}}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := presence.NewAnyOf(record(tt.sensors...))
			assert.Equal(t, tt.want, policy.Present())
			assert.Equal(t, "fan0", policy.Fan().Name)
		})
	}
}

func TestFallbackPriority(t *testing.T) {
	first, second, third := &fixed{}, &fixed{present: true}, &fixed{present: true}
	policy := presence.NewFallback(record(first, second, third))

	present, index := policy.Resolve()
	assert.True(t, present)
	assert.Equal(t, 1, index, "the second sensor answers")
	assert.Equal(t, 0, third.queries, "sensors after the first present one are not consulted")

	assert.True(t, policy.Present())
}

func TestFallbackExhausted(t *testing.T) {
	policy := presence.NewFallback(record(&fixed{}, &fixed{}))

	present, index := policy.Resolve()
	assert.False(t, present)
	assert.Equal(t, -1, index)

	assert.False(t, presence.NewFallback(record()).Present())
}

func TestPoliciesObserveRecordState(t *testing.T) {
	s := &fixed{}
	rec := record(s)
	anyOf := presence.NewAnyOf(rec)
	fallback := presence.NewFallback(rec)

	require.False(t, anyOf.Present())
	s.present = true
	assert.True(t, anyOf.Present(), "sensors are queried on every evaluation")
	assert.True(t, fallback.Present())
}

type cache map[string]float64

func (c cache) Float(path, _, _ string) (float64, bool) {
	v, ok := c[path]
	return v, ok
}

func TestTachPresence(t *testing.T) {
	c := cache{}
	tach := presence.NewTach([]string{"fan0_0", "fan0_1"}, c)

	assert.False(t, tach.Present(), "unregistered sensors read as absent")

	c["/xyz/openbmc_project/sensors/fan_tach/fan0_1"] = 0
	assert.False(t, tach.Present())

	c["/xyz/openbmc_project/sensors/fan_tach/fan0_1"] = 4200
	assert.True(t, tach.Present())
}

type lines struct {
	values map[uint]int
	err    error
	reads  []string
}

func (l *lines) ReadKey(devpath string, key uint) (int, error) {
	l.reads = append(l.reads, devpath)
	if l.err != nil {
		return 0, l.err
	}
	return l.values[key], nil
}

func TestGpioPresence(t *testing.T) {
	l := &lines{values: map[uint]int{123: 1}}

	assert.True(t, presence.NewGpio("/sys/devices/gpio", "/dev/input/by-path/platform-gpio-keys-event", 123, 1, l).Present())
	assert.False(t, presence.NewGpio("/sys/devices/gpio", "/dev/input/by-path/platform-gpio-keys-event", 124, 1, l).Present())
	assert.True(t, presence.NewGpio("/sys/devices/gpio", "/dev/input/by-path/platform-gpio-keys-event", 124, 0, l).Present())

	l.err = assert.AnError
	assert.False(t, presence.NewGpio("/sys/devices/gpio", "/dev/input/event0", 123, 1, l).Present())
}
