package presence

// FanIdentity names a fan.
type FanIdentity struct {
	Name string
	Path string
}

// FanRecord owns the presence sensors of one fan, in declared order.
type FanRecord struct {
	Identity FanIdentity
	Sensors  []PresenceSensor
}

// RedundancyPolicy combines a fan's sensor readings into one verdict.
type RedundancyPolicy interface {
	Fan() FanIdentity
	Present() bool
}

// AnyOf reports a fan present when at least one of its sensors does.
type AnyOf struct {
	record *FanRecord
}

// NewAnyOf creates an AnyOf policy observing rec's sensors.
func NewAnyOf(rec *FanRecord) *AnyOf {
	return &AnyOf{record: rec}
}

func (p *AnyOf) Fan() FanIdentity {
	return p.record.Identity
}

// Present queries every sensor; an empty list is not present.
func (p *AnyOf) Present() bool {
	present := false
	for _, s := range p.record.Sensors {
		if s.Present() {
			present = true
		}
	}
	return present
}

// Fallback consults sensors in priority order and stops at the first one
// that reports present.
type Fallback struct {
	record *FanRecord
}

// NewFallback creates a Fallback policy observing rec's sensors.
func NewFallback(rec *FanRecord) *Fallback {
	return &Fallback{record: rec}
}

func (p *Fallback) Fan() FanIdentity {
	return p.record.Identity
}

func (p *Fallback) Present() bool {
	present, _ := p.Resolve()
	return present
}

// Resolve returns the verdict and the index of the sensor that gave it, or
// -1 when no sensor reports present.
func (p *Fallback) Resolve() (bool, int) {
	for i, s := range p.record.Sensors {
		if s.Present() {
			return true, i
		}
	}
	return false, -1
}
