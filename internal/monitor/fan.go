package monitor

import (
	"time"

	"codeberg.org/mutker/fanmon/internal/logger"
	"codeberg.org/mutker/fanmon/internal/timer"
)

// Boundary decides whether a deviation exactly at the tolerance is in range.
type Boundary int

const (
	BoundaryInclusive Boundary = iota
	BoundaryExclusive
)

func (b Boundary) String() string {
	if b == BoundaryExclusive {
		return "exclusive"
	}
	return "inclusive"
}

// FanParams holds the fan-level configuration shared by its sensors.
type FanParams struct {
	Path string
	// Deviation is the tolerance in percent.
	Deviation float64
	Boundary  Boundary
	// NumSensorsNonfuncForFanNonfunc is how many nonfunctional sensors make
	// the fan nonfunctional; zero disables fan-level status.
	NumSensorsNonfuncForFanNonfunc int
	MonitorStartDelay              time.Duration
	Sensors                        []SensorParams
}

// Fan owns the tach sensors of one physical fan and aggregates their state.
type Fan struct {
	path       string
	deviation  float64
	boundary   Boundary
	numNonfunc int

	sensors []*TachSensor

	present    bool
	functional bool
	monitoring bool
	startDelay time.Duration
	startTimer *timer.Timer

	inventory Inventory
	faults    FaultReporter
	log       logger.Logger
}

// NewFan builds a fan and its sensors. Monitoring starts with Start.
func NewFan(d timer.Dispatcher, p FanParams, inv Inventory, faults FaultReporter, log logger.Logger) *Fan {
	f := &Fan{
		path:       p.Path,
		deviation:  p.Deviation,
		boundary:   p.Boundary,
		numNonfunc: p.NumSensorsNonfuncForFanNonfunc,
		present:    true,
		functional: true,
		startDelay: p.MonitorStartDelay,
		inventory:  inv,
		faults:     faults,
		log:        log,
	}
	f.startTimer = timer.New(d, f.startMonitoring)

	f.sensors = make([]*TachSensor, 0, len(p.Sensors))
	for _, sp := range p.Sensors {
		f.sensors = append(f.sensors, newTachSensor(f, d, sp))
	}

	return f
}

// Path returns the fan inventory path.
func (f *Fan) Path() string {
	return f.path
}

// Sensors returns the fan's sensors in configuration order.
func (f *Fan) Sensors() []*TachSensor {
	return f.sensors
}

// Functional reports the aggregated fan state.
func (f *Fan) Functional() bool {
	return f.functional
}

// Present reports the last presence result pushed to the fan.
func (f *Fan) Present() bool {
	return f.present
}

// Monitoring reports whether readings are being evaluated.
func (f *Fan) Monitoring() bool {
	return f.monitoring
}

// Target returns the target of the first sensor that has one.
func (f *Fan) Target() float64 {
	for _, s := range f.sensors {
		if s.params.HasTarget {
			return s.target
		}
	}
	return 0
}

// Start begins monitoring, after the configured start delay if any.
func (f *Fan) Start() {
	if f.startDelay > 0 {
		f.startTimer.RestartOnce(f.startDelay)
		return
	}
	f.startMonitoring()
}

// Stop cancels every timer of the fan.
func (f *Fan) Stop() {
	f.startTimer.Stop()
	f.monitoring = false
	for _, s := range f.sensors {
		s.stop()
	}
}

// SetPresent records the fan presence. A missing fan never gets fault
// records.
func (f *Fan) SetPresent(present bool) {
	if f.present == present {
		return
	}
	f.present = present

	f.log.Info().
		Str("fan", f.path).
		Bool("present", present).
		Msg("Fan presence changed")

	if !present {
		for _, s := range f.sensors {
			s.stopErrorTimer()
		}
	}
}

// MarkFunctional sets every sensor and the fan functional in inventory.
func (f *Fan) MarkFunctional() {
	for _, s := range f.sensors {
		f.inventory.UpdateFunctional(s.invName, true)
	}
	if f.numNonfunc > 0 {
		f.inventory.UpdateFunctional(f.path, true)
	}
}

func (f *Fan) startMonitoring() {
	f.monitoring = true
	f.log.Debug().Str("fan", f.path).Msg("Monitoring started")
	f.process()
}

// process evaluates every sensor against its current reading.
func (f *Fan) process() {
	for _, s := range f.sensors {
		s.process()
	}
}

func (f *Fan) sensorFunctionalChanged(s *TachSensor) {
	target := s.Target()
	f.log.Info().
		Str("fan", f.path).
		Str("sensor", s.params.Name).
		Float64("input", s.input).
		Float64("target", target).
		Bool("functional", s.functional).
		Msg("Sensor functional state changed")

	f.inventory.UpdateFunctional(s.invName, s.functional)

	if f.numNonfunc == 0 {
		return
	}

	nonfunc := 0
	for _, other := range f.sensors {
		if !other.functional {
			nonfunc++
		}
	}

	functional := nonfunc < f.numNonfunc
	if functional == f.functional {
		return
	}
	f.functional = functional

	f.log.Info().
		Str("fan", f.path).
		Int("nonfunctional_sensors", nonfunc).
		Bool("functional", functional).
		Msg("Fan functional state changed")
	f.inventory.UpdateFunctional(f.path, functional)
}

func (f *Fan) reportFault(fault SensorFault) {
	f.log.Warn().
		Str("fan", fault.Fan).
		Str("sensor", fault.Sensor).
		Float64("input", fault.Input).
		Float64("target", fault.Target).
		Msg("Sensor fault recorded")

	if f.faults != nil {
		f.faults.ReportFault(fault)
	}
}
