// Package gpu publishes NVIDIA GPU fan speeds as tach sensor readings.
package gpu

import "github.com/NVIDIA/go-nvml/pkg/nvml"

// Device is the part of an NVML device handle the tach source reads.
type Device interface {
	GetNumFans() (int, nvml.Return)
	GetFanSpeed_v2(fan int) (uint32, nvml.Return)
	GetTargetFanSpeed(fan int) (int, nvml.Return)
}

// PropertySetter receives the published readings.
type PropertySetter interface {
	SetProperty(path, intf, prop string, value any)
}

// Poster runs fn on the event loop goroutine.
type Poster interface {
	Post(fn func())
}

// Reading is one fan speed sample, in percent of maximum.
type Reading struct {
	Sensor string
	Speed  float64
	Target float64
}
