package presence

import (
	"time"

	"codeberg.org/mutker/fanmon/internal/logger"
	"codeberg.org/mutker/fanmon/internal/timer"
)

// Inventory receives fan presence changes.
type Inventory interface {
	UpdatePresence(path, name string, present bool)
}

// Hook is told about every presence change. It returns false when it does
// not know the fan.
type Hook func(path string, present bool) bool

// Poller evaluates every policy periodically on the event loop and pushes
// changes out.
type Poller struct {
	engine    *Engine
	interval  time.Duration
	timer     *timer.Timer
	inventory Inventory
	hooks     []Hook
	last      map[string]bool
	log       logger.Logger
}

// NewPoller creates a poller; call Start from the event loop.
func NewPoller(d timer.Dispatcher, engine *Engine, interval time.Duration, inv Inventory, hooks ...Hook) *Poller {
	p := &Poller{
		engine:    engine,
		interval:  interval,
		inventory: inv,
		hooks:     hooks,
		last:      make(map[string]bool, len(engine.policies)),
		log:       logger.Component("presence"),
	}
	p.timer = timer.New(d, p.tick)
	return p
}

// Start evaluates every fan once and schedules the next poll.
func (p *Poller) Start() {
	p.Poll()
	p.timer.RestartOnce(p.interval)
}

// Stop cancels the next poll.
func (p *Poller) Stop() {
	p.timer.Stop()
}

// Poll evaluates every policy. The first result for a fan and every change
// after that are pushed to inventory and the hooks.
func (p *Poller) Poll() {
	for _, policy := range p.engine.policies {
		fan := policy.Fan()
		present := policy.Present()

		if last, seen := p.last[fan.Path]; seen && last == present {
			continue
		}
		p.last[fan.Path] = present

		p.log.Info().
			Str("fan", fan.Name).
			Str("path", fan.Path).
			Bool("present", present).
			Msg("Fan presence updated")

		if p.inventory != nil {
			p.inventory.UpdatePresence(fan.Path, fan.Name, present)
		}
		for _, hook := range p.hooks {
			if !hook(fan.Path, present) {
				p.log.Debug().Str("path", fan.Path).Msg("Presence hook does not track fan")
			}
		}
	}
}

// Present returns the last result for the fan at path.
func (p *Poller) Present(path string) (present, known bool) {
	present, known = p.last[path]
	return present, known
}

func (p *Poller) tick() {
	p.Poll()
	p.timer.RestartOnce(p.interval)
}
