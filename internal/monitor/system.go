package monitor

import (
	"codeberg.org/mutker/fanmon/internal/logger"
	"codeberg.org/mutker/fanmon/internal/objcache"
	"codeberg.org/mutker/fanmon/internal/timer"
)

// System is the set of monitored fans. Like the fans it owns, it is driven
// from the event loop goroutine.
type System struct {
	fans   []*Fan
	byPath map[string]*Fan
	log    logger.Logger
}

// NewSystem builds every configured fan.
func NewSystem(d timer.Dispatcher, params []FanParams, inv Inventory, faults FaultReporter) *System {
	sys := &System{
		fans:   make([]*Fan, 0, len(params)),
		byPath: make(map[string]*Fan, len(params)),
		log:    logger.Component("monitor"),
	}

	for _, p := range params {
		f := NewFan(d, p, inv, faults, sys.log)
		sys.fans = append(sys.fans, f)
		sys.byPath[f.Path()] = f
	}

	return sys
}

// Fans returns the monitored fans in configuration order.
func (sys *System) Fans() []*Fan {
	return sys.fans
}

// Fan returns the fan with the given inventory path.
func (sys *System) Fan(path string) (*Fan, bool) {
	f, ok := sys.byPath[path]
	return f, ok
}

// Watch subscribes every sensor to its cached properties and returns the
// objects the cache must be fed with.
func (sys *System) Watch(w Watcher) []objcache.Object {
	var objs []objcache.Object
	for _, f := range sys.fans {
		for _, s := range f.sensors {
			s.watch(w)
			objs = append(objs, s.Objects()...)
		}
	}
	return objs
}

// Init marks every sensor and fan functional in inventory. Used at
// power-on before monitoring takes over.
func (sys *System) Init() {
	for _, f := range sys.fans {
		f.MarkFunctional()
	}
	sys.log.Info().Int("fans", len(sys.fans)).Msg("Marked all fans functional")
}

// Start begins monitoring on every fan.
func (sys *System) Start() {
	for _, f := range sys.fans {
		f.Start()
	}
	sys.log.Info().Int("fans", len(sys.fans)).Msg("Fan monitoring started")
}

// Stop cancels every timer.
func (sys *System) Stop() {
	for _, f := range sys.fans {
		f.Stop()
	}
}

// SetFanPresent forwards a presence result to the fan at path. It returns
// false when no monitored fan has that path.
func (sys *System) SetFanPresent(path string, present bool) bool {
	f, ok := sys.byPath[path]
	if !ok {
		return false
	}
	f.SetPresent(present)
	return true
}
