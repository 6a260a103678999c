package presence

import (
	"fmt"

	"codeberg.org/mutker/fanmon/internal/logger"
	"codeberg.org/mutker/fanmon/internal/monitor"
	"codeberg.org/mutker/fanmon/internal/objcache"
)

// PresenceSensor is one method of detecting that a fan is installed. Sensors
// are queried on demand and never cache a result.
type PresenceSensor interface {
	Present() bool
	String() string
}

// PropertyReader looks up cached numeric properties.
type PropertyReader interface {
	Float(path, intf, prop string) (float64, bool)
}

// LineReader reads the state of one key of an input device.
type LineReader interface {
	ReadKey(devpath string, key uint) (int, error)
}

// Tach detects a fan by activity on its tach sensors. The named sensors are
// looked up at evaluation time, so they need not exist yet when the sensor
// is built.
type Tach struct {
	sensors []string
	cache   PropertyReader
}

// NewTach creates a tach presence sensor over the named tach sensors.
func NewTach(sensors []string, cache PropertyReader) *Tach {
	return &Tach{
		sensors: append([]string(nil), sensors...),
		cache:   cache,
	}
}

// Present reports whether any named sensor shows a nonzero reading.
func (t *Tach) Present() bool {
	for _, name := range t.sensors {
		v, ok := t.cache.Float(monitor.SensorPath(name), monitor.ValueInterface, monitor.ValueProperty)
		if ok && v != 0 {
			return true
		}
	}
	return false
}

// Objects returns the cached properties the sensor reads.
func (t *Tach) Objects() []objcache.Object {
	objs := make([]objcache.Object, 0, len(t.sensors))
	for _, name := range t.sensors {
		objs = append(objs, objcache.Object{
			Path:      monitor.SensorPath(name),
			Interface: monitor.ValueInterface,
			Property:  monitor.ValueProperty,
		})
	}
	return objs
}

func (t *Tach) String() string {
	return fmt.Sprintf("tach%v", t.sensors)
}

// Gpio detects a fan by the state of a presence line exposed as an input
// device key.
type Gpio struct {
	physpath string
	devpath  string
	key      uint
	asserted int
	lines    LineReader
	log      logger.Logger
}

// NewGpio creates a gpio presence sensor. physpath identifies the line for
// callouts; devpath and key locate it.
func NewGpio(physpath, devpath string, key uint, asserted int, lines LineReader) *Gpio {
	return &Gpio{
		physpath: physpath,
		devpath:  devpath,
		key:      key,
		asserted: asserted,
		lines:    lines,
		log:      logger.Component("presence"),
	}
}

// Present reads the line and compares it with the asserted value. A read
// failure counts as not present.
func (g *Gpio) Present() bool {
	v, err := g.lines.ReadKey(g.devpath, g.key)
	if err != nil {
		g.log.Warn().
			Err(err).
			Str("physpath", g.physpath).
			Str("devpath", g.devpath).
			Uint("key", g.key).
			Msg("Failed to read presence line")
		return false
	}
	return v == g.asserted
}

func (g *Gpio) String() string {
	return fmt.Sprintf("gpio[%s key %d]", g.devpath, g.key)
}
