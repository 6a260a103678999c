package monitor

import "codeberg.org/mutker/fanmon/internal/objcache"

const (
	// SensorPathPrefix is prepended to a sensor name to form its object path.
	SensorPathPrefix = "/xyz/openbmc_project/sensors/fan_tach/"

	// ValueInterface carries the measured tach reading in its Value property.
	ValueInterface = "xyz.openbmc_project.Sensor.Value"
	ValueProperty  = "Value"

	// DefaultTargetInterface carries the commanded speed in its Target property.
	DefaultTargetInterface = "xyz.openbmc_project.Control.FanSpeed"
	TargetProperty         = "Target"
)

// Inventory receives every confirmed functional transition of a sensor or fan.
type Inventory interface {
	UpdateFunctional(path string, functional bool)
}

// FaultReporter receives a fault record once a sensor stayed nonfunctional
// for its error delay.
type FaultReporter interface {
	ReportFault(f SensorFault)
}

// SensorFault describes a sensor that has been nonfunctional long enough to
// be recorded.
type SensorFault struct {
	Fan       string
	Sensor    string
	Input     float64
	Target    float64
	Deviation float64
}

// Watcher is the part of the property cache the monitor subscribes through.
type Watcher interface {
	Watch(obj objcache.Object, fn func(any))
}

// SensorPath returns the object path of the named tach sensor.
func SensorPath(name string) string {
	return SensorPathPrefix + name
}
