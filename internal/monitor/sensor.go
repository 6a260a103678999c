package monitor

import (
	"math"
	"time"

	"codeberg.org/mutker/fanmon/internal/objcache"
	"codeberg.org/mutker/fanmon/internal/timer"
)

// Method selects how a sensor decides a reading is faulted.
type Method int

const (
	// MethodTimeBased faults on a single out-of-tolerance reading.
	MethodTimeBased Method = iota
	// MethodCount faults once a bounded counter of out-of-range readings
	// reaches its threshold.
	MethodCount
)

func (m Method) String() string {
	if m == MethodCount {
		return "count"
	}
	return "timebased"
}

// TimerMode tells which transition the debounce timer is confirming.
type TimerMode int

const (
	// TimerFunc confirms a return to functional.
	TimerFunc TimerMode = iota
	// TimerNonfunc confirms a transition to nonfunctional.
	TimerNonfunc
)

func (m TimerMode) String() string {
	if m == TimerNonfunc {
		return "nonfunc"
	}
	return "func"
}

// SensorParams holds the per-sensor configuration.
type SensorParams struct {
	Name            string
	HasTarget       bool
	TargetInterface string
	Factor          float64
	Offset          float64
	Method          Method
	Threshold       int
	Timeout         time.Duration
	FuncDelay       time.Duration
	// ErrorDelay, when set, is how long the sensor must stay nonfunctional
	// before a fault record is created.
	ErrorDelay *time.Duration
}

// TachSensor monitors one tach input of a fan. All methods must be called
// from the event loop goroutine.
type TachSensor struct {
	fan    *Fan
	params SensorParams

	invName string

	counter    int
	input      float64
	target     float64
	hasInput   bool
	functional bool

	timerMode  TimerMode
	debounce   *timer.Timer
	errorTimer *timer.Timer
}

func newTachSensor(fan *Fan, d timer.Dispatcher, p SensorParams) *TachSensor {
	if p.Factor == 0 {
		p.Factor = 1
	}
	if p.TargetInterface == "" {
		p.TargetInterface = DefaultTargetInterface
	}

	s := &TachSensor{
		fan:        fan,
		params:     p,
		invName:    fan.Path() + "/" + p.Name,
		functional: true,
	}
	s.debounce = timer.New(d, s.timerExpired)
	if p.ErrorDelay != nil {
		s.errorTimer = timer.New(d, s.errorTimerExpired)
	}

	return s
}

// Name returns the sensor name.
func (s *TachSensor) Name() string {
	return s.params.Name
}

// InventoryPath returns the inventory object that mirrors this sensor.
func (s *TachSensor) InventoryPath() string {
	return s.invName
}

// Params returns the sensor configuration.
func (s *TachSensor) Params() SensorParams {
	return s.params
}

// Functional reports the last confirmed state.
func (s *TachSensor) Functional() bool {
	return s.functional
}

// Input returns the last reading.
func (s *TachSensor) Input() float64 {
	return s.input
}

// Target returns the commanded speed this sensor is checked against. Sensors
// without their own target use the fan's.
func (s *TachSensor) Target() float64 {
	if s.params.HasTarget {
		return s.target
	}
	return s.fan.Target()
}

// Counter returns the count method counter.
func (s *TachSensor) Counter() int {
	return s.counter
}

// TimerRunning reports whether a debounce timer is armed, and for which mode.
func (s *TachSensor) TimerRunning() (TimerMode, bool) {
	return s.timerMode, s.debounce.IsEnabled()
}

// ErrorTimerRunning reports whether the fault record timer is armed.
func (s *TachSensor) ErrorTimerRunning() bool {
	return s.errorTimer != nil && s.errorTimer.IsEnabled()
}

// Objects returns the cached properties this sensor consumes.
func (s *TachSensor) Objects() []objcache.Object {
	path := SensorPath(s.params.Name)
	objs := []objcache.Object{{Path: path, Interface: ValueInterface, Property: ValueProperty}}
	if s.params.HasTarget {
		objs = append(objs, objcache.Object{Path: path, Interface: s.params.TargetInterface, Property: TargetProperty})
	}
	return objs
}

// UpdateInput stores a new reading and evaluates it.
func (s *TachSensor) UpdateInput(v float64) {
	s.input = v
	s.hasInput = true
	if s.fan.Monitoring() {
		s.process()
	}
}

// UpdateTarget stores a new commanded speed. Every sensor of the fan is
// re-evaluated since sensors without their own target follow this one.
func (s *TachSensor) UpdateTarget(v float64) {
	s.target = v
	if s.fan.Monitoring() {
		s.fan.process()
	}
}

func (s *TachSensor) watch(w Watcher) {
	path := SensorPath(s.params.Name)
	w.Watch(objcache.Object{Path: path, Interface: ValueInterface, Property: ValueProperty}, func(v any) {
		if f, ok := objcache.ToFloat(v); ok {
			s.UpdateInput(f)
		}
	})
	if s.params.HasTarget {
		w.Watch(objcache.Object{Path: path, Interface: s.params.TargetInterface, Property: TargetProperty}, func(v any) {
			if f, ok := objcache.ToFloat(v); ok {
				s.UpdateTarget(f)
			}
		})
	}
}

// deviation returns how far the reading is from the expected speed, in
// percent of the target expressed in input units.
func (s *TachSensor) deviation(target float64) float64 {
	base := target * s.params.Factor
	if base == 0 {
		return 0
	}
	expected := base + s.params.Offset
	return math.Abs(s.input-expected) * 100 / base
}

func (s *TachSensor) outOfRange() bool {
	target := s.Target()
	if target == 0 {
		return false
	}

	dev := s.deviation(target)
	if s.fan.boundary == BoundaryExclusive {
		return dev >= s.fan.deviation
	}
	return dev > s.fan.deviation
}

// setCounter moves the count method counter within [0, threshold].
func (s *TachSensor) setCounter(count bool) {
	if count {
		if s.counter < s.params.Threshold {
			s.counter++
		}
		return
	}
	if s.counter > 0 {
		s.counter--
	}
}

func (s *TachSensor) process() {
	if !s.hasInput {
		return
	}

	var fault bool
	switch s.params.Method {
	case MethodCount:
		s.setCounter(s.outOfRange())
		// A nonfunctional sensor recovers only once the counter is drained.
		if s.functional {
			fault = s.counter >= s.params.Threshold
		} else {
			fault = s.counter > 0
		}
	default:
		fault = s.outOfRange()
	}

	s.debounceFault(fault)
}

// debounceFault drives the debounce timer from the current fault condition.
// The functional flag itself only changes on timer expiry.
func (s *TachSensor) debounceFault(fault bool) {
	switch {
	case fault && s.functional:
		s.startTimer(TimerNonfunc)
	case fault:
		s.stopTimer(TimerFunc)
		s.startErrorTimer()
	case !s.functional:
		s.startTimer(TimerFunc)
		s.stopErrorTimer()
	default:
		s.stopTimer(TimerNonfunc)
	}
}

// startTimer arms the debounce timer for mode unless it is already running
// for that mode. A timer running for the other mode is canceled first.
func (s *TachSensor) startTimer(mode TimerMode) {
	if s.debounce.IsEnabled() && s.timerMode == mode {
		return
	}

	s.debounce.Stop()
	s.timerMode = mode
	s.debounce.RestartOnce(s.delay(mode))
}

func (s *TachSensor) stopTimer(mode TimerMode) {
	if s.debounce.IsEnabled() && s.timerMode == mode {
		s.debounce.Stop()
	}
}

func (s *TachSensor) delay(mode TimerMode) time.Duration {
	if mode == TimerNonfunc {
		return s.params.Timeout
	}
	return s.params.FuncDelay
}

func (s *TachSensor) timerExpired() {
	s.SetFunctional(s.timerMode == TimerFunc)
}

// SetFunctional records a confirmed state and pushes it to inventory. Going
// nonfunctional arms the fault record timer when the fan is present; going
// functional cancels it.
func (s *TachSensor) SetFunctional(functional bool) {
	s.functional = functional
	s.fan.sensorFunctionalChanged(s)

	if functional {
		s.stopErrorTimer()
		return
	}
	s.startErrorTimer()
}

func (s *TachSensor) startErrorTimer() {
	if s.errorTimer == nil || s.errorTimer.IsEnabled() || !s.fan.Present() {
		return
	}
	s.errorTimer.RestartOnce(*s.params.ErrorDelay)
}

func (s *TachSensor) stopErrorTimer() {
	if s.errorTimer != nil {
		s.errorTimer.Stop()
	}
}

func (s *TachSensor) errorTimerExpired() {
	if s.functional || !s.fan.Present() {
		return
	}

	target := s.Target()
	s.fan.reportFault(SensorFault{
		Fan:       s.fan.Path(),
		Sensor:    s.params.Name,
		Input:     s.input,
		Target:    target,
		Deviation: s.deviation(target),
	})
}

// stop cancels every armed timer.
func (s *TachSensor) stop() {
	s.debounce.Stop()
	s.stopErrorTimer()
}
