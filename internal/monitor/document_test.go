package monitor_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const monitorJSON = `{
  "fans": [
    {
      "inventory": "/system/chassis/motherboard/fan0",
      "allowed_out_of_range_time": 30,
      "functional_delay": 5,
      "deviation": 15,
      "num_sensors_nonfunc_for_fan_nonfunc": 1,
      "monitor_start_delay": 10,
      "nonfunc_rotor_error_delay": 60,
      "sensors": [
        {"name": "fan0_0", "has_target": true},
        {"name": "fan0_1", "has_target": false, "factor": 1.45, "offset": -909}
      ]
    },
    {
      "inventory": "/system/chassis/motherboard/fan1",
      "method": "count",
      "threshold": 30,
      "allowed_out_of_range_time": 2,
      "deviation": 20,
      "boundary": "exclusive",
      "sensors": [
        {"name": "fan1_0", "has_target": true, "target_interface": "xyz.openbmc_project.Control.FanPwm"}
      ]
    }
  ]
}`

func TestParseDocument(t *testing.T) {
	fans, err := monitor.ParseDocument([]byte(monitorJSON))
	require.NoError(t, err)
	require.Len(t, fans, 2)

	fan0 := fans[0]
	assert.Equal(t, "/system/chassis/motherboard/fan0", fan0.Path)
	assert.InDelta(t, 15.0, fan0.Deviation, 0)
	assert.Equal(t, monitor.BoundaryInclusive, fan0.Boundary)
	assert.Equal(t, 1, fan0.NumSensorsNonfuncForFanNonfunc)
	assert.Equal(t, 10*time.Second, fan0.MonitorStartDelay)
	require.Len(t, fan0.Sensors, 2)

	rotor0 := fan0.Sensors[0]
	assert.Equal(t, "fan0_0", rotor0.Name)
	assert.True(t, rotor0.HasTarget)
	assert.InDelta(t, 1.0, rotor0.Factor, 0)
	assert.Equal(t, monitor.MethodTimeBased, rotor0.Method)
	assert.Equal(t, 30*time.Second, rotor0.Timeout)
	assert.Equal(t, 5*time.Second, rotor0.FuncDelay)
	require.NotNil(t, rotor0.ErrorDelay)
	assert.Equal(t, time.Minute, *rotor0.ErrorDelay)

	rotor1 := fan0.Sensors[1]
	assert.False(t, rotor1.HasTarget)
	assert.InDelta(t, 1.45, rotor1.Factor, 0)
	assert.InDelta(t, -909.0, rotor1.Offset, 0)

	fan1 := fans[1]
	assert.Equal(t, monitor.BoundaryExclusive, fan1.Boundary)
	require.Len(t, fan1.Sensors, 1)
	assert.Equal(t, monitor.MethodCount, fan1.Sensors[0].Method)
	assert.Equal(t, 30, fan1.Sensors[0].Threshold)
	assert.Equal(t, "xyz.openbmc_project.Control.FanPwm", fan1.Sensors[0].TargetInterface)
	assert.Nil(t, fan1.Sensors[0].ErrorDelay)
}

func TestParseDocumentYAML(t *testing.T) {
	doc := `
fans:
  - inventory: /system/chassis/motherboard/fan2
    deviation: 10
    sensors:
      - name: fan2_0
        has_target: true
`
	fans, err := monitor.ParseDocument([]byte(doc))
	require.NoError(t, err)
	require.Len(t, fans, 1)
	assert.Equal(t, "fan2_0", fans[0].Sensors[0].Name)
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
	}{
		{"malformed", `{"fans": [`, monitor.ErrParseDocument},
		{"no fans", `{"fans": []}`, monitor.ErrNoFans},
		{"missing inventory", `{"fans": [{"deviation": 15, "sensors": [{"name": "a"}]}]}`, monitor.ErrMissingInventory},
		{"missing sensors", `{"fans": [{"inventory": "/f", "deviation": 15}]}`, monitor.ErrMissingSensors},
		{"missing sensor name", `{"fans": [{"inventory": "/f", "deviation": 15, "sensors": [{"has_target": true}]}]}`, monitor.ErrMissingSensorName},
		{"missing deviation", `{"fans": [{"inventory": "/f", "sensors": [{"name": "a"}]}]}`, monitor.ErrMissingDeviation},
		{"unknown method", `{"fans": [{"inventory": "/f", "method": "magic", "deviation": 15, "sensors": [{"name": "a"}]}]}`, monitor.ErrInvalidMethod},
		{"count without threshold", `{"fans": [{"inventory": "/f", "method": "count", "deviation": 15, "sensors": [{"name": "a"}]}]}`, monitor.ErrInvalidThreshold},
		{"zero factor", `{"fans": [{"inventory": "/f", "deviation": 15, "sensors": [{"name": "a", "factor": 0}]}]}`, monitor.ErrInvalidFactor},
		{"bad boundary", `{"fans": [{"inventory": "/f", "deviation": 15, "boundary": "open", "sensors": [{"name": "a"}]}]}`, monitor.ErrInvalidBoundary},
		{"duplicate fan", `{"fans": [{"inventory": "/f", "deviation": 15, "sensors": [{"name": "a"}]}, {"inventory": "/f", "deviation": 15, "sensors": [{"name": "b"}]}]}`, monitor.ErrDuplicateInventory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fans, err := monitor.ParseDocument([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, fans)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.json")
	require.NoError(t, os.WriteFile(path, []byte(monitorJSON), 0o600))

	fans, err := monitor.LoadDocument(path)
	require.NoError(t, err)
	assert.Len(t, fans, 2)

	_, err = monitor.LoadDocument(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.HasCode(err, monitor.ErrReadDocument))
}
