package gpu

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/logger"
	"codeberg.org/mutker/fanmon/internal/monitor"
)

type fan struct {
	device Device
	index  int
	sensor string
}

// Source polls every GPU fan through NVML and publishes its speed as the
// Value of tach sensor gpu<d>_fan<f>, and its target as Target on the
// default target interface. NVML calls run on the source goroutine; cache
// updates are posted to the event loop.
type Source struct {
	nvml     nvmlController
	interval time.Duration
	loop     Poster
	sink     PropertySetter
	fans     []fan
	logger   logger.Logger
}

// NewSource creates a source backed by the system NVML library.
func NewSource(interval time.Duration, loop Poster, sink PropertySetter) *Source {
	return newSource(&nvmlWrapper{}, interval, loop, sink)
}

func newSource(ctrl nvmlController, interval time.Duration, loop Poster, sink PropertySetter) *Source {
	return &Source{
		nvml:     ctrl,
		interval: interval,
		loop:     loop,
		sink:     sink,
		logger:   logger.Component("gpu"),
	}
}

// SensorName returns the tach sensor name of fan f on device d.
func SensorName(device, fan int) string {
	return fmt.Sprintf("gpu%d_fan%d", device, fan)
}

// Run initializes NVML, discovers fans and publishes readings every
// interval until ctx is done.
func (s *Source) Run(ctx context.Context) error {
	if err := s.nvml.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := s.nvml.Shutdown(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to shut down NVML")
		}
	}()

	if err := s.discover(); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.publish(s.Poll())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.publish(s.Poll())
		}
	}
}

func (s *Source) discover() error {
	errFactory := errors.New()

	count, err := s.nvml.GetDeviceCount()
	if err != nil {
		return err
	}

	s.fans = s.fans[:0]
	for d := 0; d < count; d++ {
		device, err := s.nvml.GetDevice(d)
		if err != nil {
			return err
		}

		n, ret := device.GetNumFans()
		if !IsNVMLSuccess(ret) {
			return errFactory.Wrap(ErrFanCountFailed, newNVMLError(ret))
		}

		for f := 0; f < n; f++ {
			s.fans = append(s.fans, fan{device: device, index: f, sensor: SensorName(d, f)})
		}
	}

	s.logger.Info().
		Int("devices", count).
		Int("fans", len(s.fans)).
		Msg("Discovered GPU fans")

	return nil
}

// Poll reads every discovered fan. Fans that fail to read are skipped.
func (s *Source) Poll() []Reading {
	readings := make([]Reading, 0, len(s.fans))
	for _, f := range s.fans {
		speed, ret := f.device.GetFanSpeed_v2(f.index)
		if !IsNVMLSuccess(ret) {
			s.logger.Debug().
				Str("sensor", f.sensor).
				Err(newNVMLError(ret)).
				Msg("Failed to read fan speed")
			continue
		}

		r := Reading{Sensor: f.sensor, Speed: float64(speed)}
		if target, ret := f.device.GetTargetFanSpeed(f.index); IsNVMLSuccess(ret) {
			r.Target = float64(target)
		}
		readings = append(readings, r)
	}
	return readings
}

func (s *Source) publish(readings []Reading) {
	if len(readings) == 0 {
		return
	}
	s.loop.Post(func() {
		for _, r := range readings {
			path := monitor.SensorPath(r.Sensor)
			s.sink.SetProperty(path, monitor.DefaultTargetInterface, monitor.TargetProperty, r.Target)
			s.sink.SetProperty(path, monitor.ValueInterface, monitor.ValueProperty, r.Speed)
		}
	})
}
