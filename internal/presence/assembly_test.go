package presence_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/objcache"
	"codeberg.org/mutker/fanmon/internal/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const presenceJSON = `[
  {
    "name": "fan0",
    "path": "/system/chassis/motherboard/fan0",
    "methods": [
      {"type": "tach", "sensors": ["fan0_0", "fan0_1"]},
      {"type": "GPIO", "physpath": "/sys/devices/platform/gpio-keys", "devpath": "/dev/input/event0", "key": 123}
    ],
    "rpolicy": {"type": "Fallback"}
  },
  {
    "name": "fan1",
    "path": "/system/chassis/motherboard/fan1",
    "methods": [
      {"type": "tach", "sensors": ["fan1_0"]}
    ],
    "rpolicy": {"type": "anyof"}
  }
]`

func assemble(t *testing.T, doc string, c cache, l *lines) (*presence.Engine, error) {
	t.Helper()
	decls, err := presence.ParseDocument([]byte(doc))
	if err != nil {
		return nil, err
	}
	return presence.NewAssembler(c, l).Assemble(decls)
}

func TestAssemble(t *testing.T) {
	c := cache{}
	l := &lines{values: map[uint]int{123: 1}}

	engine, err := assemble(t, presenceJSON, c, l)
	require.NoError(t, err)

	policies := engine.Policies()
	require.Len(t, policies, 2)
	assert.IsType(t, &presence.Fallback{}, policies[0])
	assert.IsType(t, &presence.AnyOf{}, policies[1])
	assert.Equal(t, presence.FanIdentity{Name: "fan1", Path: "/system/chassis/motherboard/fan1"}, policies[1].Fan())

	records := engine.Records()
	require.Len(t, records, 2)
	require.Len(t, records[0].Sensors, 2)
	assert.IsType(t, &presence.Tach{}, records[0].Sensors[0], "declared method order is kept")
	assert.IsType(t, &presence.Gpio{}, records[0].Sensors[1])

	fallback := policies[0].(*presence.Fallback)
	present, index := fallback.Resolve()
	assert.True(t, present)
	assert.Equal(t, 1, index, "tach is idle so the gpio line answers")

	c["/xyz/openbmc_project/sensors/fan_tach/fan0_0"] = 3000
	_, index = fallback.Resolve()
	assert.Equal(t, 0, index)

	assert.False(t, policies[1].Present())

	objs := engine.Objects()
	require.Len(t, objs, 3, "gpio sensors read no cached properties")
	assert.Equal(t, objcache.Object{
		Path:      "/xyz/openbmc_project/sensors/fan_tach/fan1_0",
		Interface: "xyz.openbmc_project.Sensor.Value",
		Property:  "Value",
	}, objs[2])
}

func TestAssemblePoliciesKeepTheirRecords(t *testing.T) {
	const fans = 40
	decls := make([]presence.FanDeclaration, 0, fans)
	for i := 0; i < fans; i++ {
		decls = append(decls, presence.FanDeclaration{
			Name:    fmt.Sprintf("fan%d", i),
			Path:    fmt.Sprintf("/system/chassis/motherboard/fan%d", i),
			Methods: []presence.MethodConfig{{"type": "tach", "sensors": []any{fmt.Sprintf("fan%d_0", i)}}},
			RPolicy: presence.MethodConfig{"type": "anyof"},
		})
	}

	c := cache{"/xyz/openbmc_project/sensors/fan_tach/fan17_0": 4200}
	engine, err := presence.NewAssembler(c, &lines{}).Assemble(decls)
	require.NoError(t, err)

	records := engine.Records()
	for i, policy := range engine.Policies() {
		assert.Equal(t, records[i].Identity, policy.Fan())
		assert.Equal(t, i == 17, policy.Present(), "fan%d", i)
	}
}

func TestAssembleDefaultsAsserted(t *testing.T) {
	doc := `[{"name": "fan0", "path": "/f0", "rpolicy": {"type": "anyof"},
	  "methods": [{"type": "gpio", "physpath": "/p", "devpath": "/dev/input/event0", "key": 7, "asserted": 0}]}]`

	engine, err := assemble(t, doc, cache{}, &lines{values: map[uint]int{}})
	require.NoError(t, err)
	assert.True(t, engine.Policies()[0].Present(), "line reads 0 and 0 is the asserted value")
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
	}{
		{
			"method without type",
			`[{"name": "fan0", "path": "/f0", "methods": [{"type": "tach", "sensors": ["a"]}], "rpolicy": {"type": "anyof"}},
			  {"name": "fan1", "path": "/f1", "methods": [{"sensors": ["b"]}], "rpolicy": {"type": "anyof"}}]`,
			presence.ErrMissingMethodType,
		},
		{
			"unknown method",
			`[{"name": "fan0", "path": "/f0", "methods": [{"type": "sonar"}], "rpolicy": {"type": "anyof"}}]`,
			presence.ErrUnknownMethod,
		},
		{
			"tach without sensors",
			`[{"name": "fan0", "path": "/f0", "methods": [{"type": "tach"}], "rpolicy": {"type": "anyof"}}]`,
			presence.ErrMissingField,
		},
		{
			"tach with empty sensors",
			`[{"name": "fan0", "path": "/f0", "methods": [{"type": "tach", "sensors": []}], "rpolicy": {"type": "anyof"}}]`,
			presence.ErrInvalidField,
		},
		{
			"gpio without key",
			`[{"name": "fan0", "path": "/f0", "methods": [{"type": "gpio", "physpath": "/p", "devpath": "/d"}], "rpolicy": {"type": "anyof"}}]`,
			presence.ErrMissingField,
		},
		{
			"gpio without devpath",
			`[{"name": "fan0", "path": "/f0", "methods": [{"type": "gpio", "physpath": "/p", "key": 1}], "rpolicy": {"type": "anyof"}}]`,
			presence.ErrMissingField,
		},
		{
			"policy without type",
			`[{"name": "fan0", "path": "/f0", "methods": [{"type": "tach", "sensors": ["a"]}], "rpolicy": {}}]`,
			presence.ErrMissingPolicyType,
		},
		{
			"unknown policy",
			`[{"name": "fan0", "path": "/f0", "methods": [{"type": "tach", "sensors": ["a"]}], "rpolicy": {"type": "majority"}}]`,
			presence.ErrUnknownPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := assemble(t, tt.doc, cache{}, &lines{})
			require.Error(t, err)
			assert.Nil(t, engine, "no partial policy set is returned")
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
	}{
		{"malformed", `[{"name": `, presence.ErrParseDocument},
		{"missing name", `[{"path": "/f0", "methods": [{"type": "tach"}], "rpolicy": {"type": "anyof"}}]`, presence.ErrMissingName},
		{"missing path", `[{"name": "fan0", "methods": [{"type": "tach"}], "rpolicy": {"type": "anyof"}}]`, presence.ErrMissingPath},
		{"missing methods", `[{"name": "fan0", "path": "/f0", "rpolicy": {"type": "anyof"}}]`, presence.ErrMissingMethods},
		{"missing rpolicy", `[{"name": "fan0", "path": "/f0", "methods": [{"type": "tach"}]}]`, presence.ErrMissingPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := presence.ParseDocument([]byte(tt.doc))
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestRegisterCustomMethod(t *testing.T) {
	decls, err := presence.ParseDocument([]byte(`[{"name": "fan0", "path": "/f0",
	  "methods": [{"type": "always"}], "rpolicy": {"type": "anyof"}}]`))
	require.NoError(t, err)

	a := presence.NewAssembler(cache{}, &lines{})
	var gotIndex = -1
	a.RegisterMethod("always", func(fanIndex int, _ presence.MethodConfig) (presence.PresenceSensor, error) {
		gotIndex = fanIndex
		return &fixed{present: true}, nil
	})

	engine, err := a.Assemble(decls)
	require.NoError(t, err)
	assert.Equal(t, 0, gotIndex)
	assert.True(t, engine.Policies()[0].Present())
}

func TestLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presence.json")
	require.NoError(t, os.WriteFile(path, []byte(presenceJSON), 0o600))

	decls, err := presence.LoadDocument(path)
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "fan0", decls[0].Name)

	_, err = presence.LoadDocument(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.HasCode(err, presence.ErrReadDocument))
}
