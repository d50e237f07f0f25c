package loop

import "time"

// maxCatchUp bounds the steps one tick may run after a stall.
const maxCatchUp = 8

// Pacer converts wall-clock time into a fixed number of simulation steps
// per second, independent of how often frames are drawn.
type Pacer struct {
	interval time.Duration
	last     time.Time
	acc      time.Duration
}

// NewPacer returns a pacer running tps steps per second. A tps of zero or
// less means one step per tick.
func NewPacer(tps float64) *Pacer {
	p := &Pacer{}
	if tps > 0 {
		p.interval = time.Duration(float64(time.Second) / tps)
	}
	return p
}

// Interval returns the time between steps, or 0 for one step per tick.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Steps returns how many steps are due at now. The first call is due one
// step. After a stall at most maxCatchUp steps are returned and the rest of
// the backlog is dropped.
func (p *Pacer) Steps(now time.Time) int {
	if p.interval <= 0 {
		return 1
	}
	if p.last.IsZero() {
		p.last = now
		return 1
	}
	if now.After(p.last) {
		p.acc += now.Sub(p.last)
	}
	p.last = now

	n := int(p.acc / p.interval)
	p.acc -= time.Duration(n) * p.interval
	if n > maxCatchUp {
		n = maxCatchUp
		p.acc = 0
	}
	return n
}

// Reset forgets accumulated time.
func (p *Pacer) Reset() {
	p.last = time.Time{}
	p.acc = 0
}
