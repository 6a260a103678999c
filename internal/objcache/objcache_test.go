package objcache_test

import (
	"testing"

	"codeberg.org/mutker/fanmon/internal/objcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sensorPath  = "/xyz/openbmc_project/sensors/fan_tach/fan0_0"
	valueIntf   = "xyz.openbmc_project.Sensor.Value"
	controlIntf = "xyz.openbmc_project.Control.FanSpeed"
)

var valueObj = objcache.Object{Path: sensorPath, Interface: valueIntf, Property: "Value"}

func TestPropertiesChanged(t *testing.T) {
	c := objcache.New()

	ok := objcache.PropertiesChanged(objcache.PropertiesChangedMsg{
		Interface:  controlIntf,
		Properties: map[string]any{"Value": 100.0},
	}, valueObj, c)
	assert.False(t, ok, "interface mismatch must not update")

	ok = objcache.PropertiesChanged(objcache.PropertiesChangedMsg{
		Interface:  valueIntf,
		Properties: map[string]any{"MaxValue": 100.0},
	}, valueObj, c)
	assert.False(t, ok, "missing property must not update")

	_, cached := c.Property(sensorPath, valueIntf, "Value")
	assert.False(t, cached)

	ok = objcache.PropertiesChanged(objcache.PropertiesChangedMsg{
		Interface:  valueIntf,
		Properties: map[string]any{"Value": 9000.0, "MaxValue": 20000.0},
	}, valueObj, c)
	require.True(t, ok)

	v, cached := c.Float(sensorPath, valueIntf, "Value")
	require.True(t, cached)
	assert.InDelta(t, 9000.0, v, 0)
	_, cached = c.Property(sensorPath, valueIntf, "MaxValue")
	assert.False(t, cached, "only the registered property is cached")
}

func TestInterfacesAdded(t *testing.T) {
	c := objcache.New()

	msg := objcache.InterfacesAddedMsg{
		Path: "/xyz/openbmc_project/sensors/fan_tach/fan1_0",
		Interfaces: map[string]map[string]any{
			valueIntf: {"Value": 42},
		},
	}
	assert.False(t, objcache.InterfacesAdded(msg, valueObj, c), "path mismatch must not update")

	msg.Path = sensorPath
	msg.Interfaces = map[string]map[string]any{controlIntf: {"Target": 100}}
	assert.False(t, objcache.InterfacesAdded(msg, valueObj, c), "interface missing must not update")

	msg.Interfaces = map[string]map[string]any{valueIntf: {"Unit": "RPMS"}}
	assert.False(t, objcache.InterfacesAdded(msg, valueObj, c), "property missing must not update")

	msg.Interfaces = map[string]map[string]any{valueIntf: {"Value": 42}}
	require.True(t, objcache.InterfacesAdded(msg, valueObj, c))

	v, ok := c.Float(sensorPath, valueIntf, "Value")
	require.True(t, ok)
	assert.InDelta(t, 42.0, v, 0)
}

func TestWatchRunsOnEveryUpdate(t *testing.T) {
	c := objcache.New()
	var seen []any
	c.Watch(valueObj, func(v any) { seen = append(seen, v) })

	c.SetProperty(sensorPath, valueIntf, "Value", 1.0)
	c.SetProperty(sensorPath, valueIntf, "Value", 1.0)
	c.SetProperty(sensorPath, valueIntf, "MinValue", 0.0)

	assert.Equal(t, []any{1.0, 1.0}, seen)
}

func TestRouter(t *testing.T) {
	c := objcache.New()
	r := objcache.NewRouter(c)
	targetObj := objcache.Object{Path: sensorPath, Interface: controlIntf, Property: "Target"}
	r.Subscribe(valueObj)
	r.Subscribe(valueObj)
	r.Subscribe(targetObj)

	n := r.PropertiesChanged(sensorPath, objcache.PropertiesChangedMsg{
		Interface:  valueIntf,
		Properties: map[string]any{"Value": 5000.0},
	})
	assert.Equal(t, 1, n)

	n = r.PropertiesChanged("/other", objcache.PropertiesChangedMsg{
		Interface:  valueIntf,
		Properties: map[string]any{"Value": 1.0},
	})
	assert.Equal(t, 0, n)

	n = r.InterfacesAdded(objcache.InterfacesAddedMsg{
		Path: sensorPath,
		Interfaces: map[string]map[string]any{
			valueIntf:   {"Value": 6000.0},
			controlIntf: {"Target": uint64(7000)},
		},
	})
	assert.Equal(t, 2, n)

	target, ok := c.Float(sensorPath, controlIntf, "Target")
	require.True(t, ok)
	assert.InDelta(t, 7000.0, target, 0)
}

func TestToFloat(t *testing.T) {
	for _, v := range []any{int(3), int64(3), uint64(3), uint32(3), float32(3), 3.0} {
		f, ok := objcache.ToFloat(v)
		assert.True(t, ok)
		assert.InDelta(t, 3.0, f, 0)
	}
	_, ok := objcache.ToFloat("3")
	assert.False(t, ok)
}
