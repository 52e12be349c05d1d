// Package debounce coalesces bursts of triggers into one delayed call.
package debounce

import (
	"sync"
	"time"
)

// Timer runs fn once delay has passed without a new Trigger. The zero value
// is not usable; construct with New.
type Timer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	pending bool
}

func New(delay time.Duration, fn func()) *Timer {
	return &Timer{delay: delay, fn: fn}
}

// Trigger (re)starts the countdown.
func (d *Timer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops a pending call and reports whether one was pending.
func (d *Timer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	was := d.pending
	d.pending = false
	return was
}

func (d *Timer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Timer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()
	d.fn()
}
