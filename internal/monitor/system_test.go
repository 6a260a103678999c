package monitor_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/fanmon/internal/monitor"
	"codeberg.org/mutker/fanmon/internal/objcache"
	"codeberg.org/mutker/fanmon/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSystem(t *testing.T) (*monitor.System, *timer.Manual, *recorder) {
	t.Helper()
	fans, err := monitor.ParseDocument([]byte(monitorJSON))
	require.NoError(t, err)

	clock := timer.NewManual()
	rec := &recorder{}
	return monitor.NewSystem(clock, fans, rec, rec), clock, rec
}

func TestSystemInit(t *testing.T) {
	sys, _, rec := newSystem(t)
	sys.Init()

	assert.Equal(t, []update{
		{"/system/chassis/motherboard/fan0/fan0_0", true},
		{"/system/chassis/motherboard/fan0/fan0_1", true},
		{"/system/chassis/motherboard/fan0", true},
		{"/system/chassis/motherboard/fan1/fan1_0", true},
	}, rec.updates)
}

func TestSystemInitWithoutFaultReporter(t *testing.T) {
	fans, err := monitor.ParseDocument([]byte(monitorJSON))
	require.NoError(t, err)
	rec := &recorder{}

	monitor.NewSystem(timer.NewManual(), fans, rec, nil).Init()
	assert.Len(t, rec.updates, 4)
}

func TestSystemWatchFeedsSensors(t *testing.T) {
	sys, clock, rec := newSystem(t)
	cache := objcache.New()

	objs := sys.Watch(cache)
	assert.Contains(t, objs, objcache.Object{
		Path:      monitor.SensorPath("fan1_0"),
		Interface: "xyz.openbmc_project.Control.FanPwm",
		Property:  monitor.TargetProperty,
	})
	assert.Len(t, objs, 5)

	sys.Start()
	clock.Advance(10 * time.Second)

	router := objcache.NewRouter(cache)
	for _, obj := range objs {
		router.Subscribe(obj)
	}

	n := router.InterfacesAdded(objcache.InterfacesAddedMsg{
		Path: monitor.SensorPath("fan0_0"),
		Interfaces: map[string]map[string]any{
			monitor.ValueInterface:         {monitor.ValueProperty: 1000.0},
			monitor.DefaultTargetInterface: {monitor.TargetProperty: uint64(10000)},
		},
	})
	require.Equal(t, 2, n)

	fan, ok := sys.Fan("/system/chassis/motherboard/fan0")
	require.True(t, ok)
	rotor0 := fan.Sensors()[0]
	assert.InDelta(t, 1000.0, rotor0.Input(), 0)
	assert.InDelta(t, 10000.0, rotor0.Target(), 0)

	clock.Advance(30 * time.Second)
	assert.False(t, rotor0.Functional())
	assert.False(t, fan.Functional())
	assert.Contains(t, rec.updates, update{"/system/chassis/motherboard/fan0", false})

	clock.Advance(time.Minute)
	require.Len(t, rec.faults, 1)
	assert.Equal(t, "fan0_0", rec.faults[0].Sensor)

	sys.Stop()
	assert.Equal(t, 0, clock.Pending())
}

func TestSystemSetFanPresent(t *testing.T) {
	sys, _, _ := newSystem(t)

	assert.True(t, sys.SetFanPresent("/system/chassis/motherboard/fan1", false))
	fan, _ := sys.Fan("/system/chassis/motherboard/fan1")
	assert.False(t, fan.Present())

	assert.False(t, sys.SetFanPresent("/system/chassis/motherboard/fan9", true))
}
