package testutil

import (
	"sync"
	"time"

	"github.com/fences/IcpDasDaqCore/event"
)

// Recorder captures bus events for inspection. Record is the subscriber
// handler; all accessors are safe to call while delivery is in flight.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends one event. Subscribe this method on the bus.
func (r *Recorder) Record(evt event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Count returns how many events of kind k have been recorded.
func (r *Recorder) Count(k event.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, evt := range r.events {
		if evt.Kind() == k {
			n++
		}
	}
	return n
}

// ErrorEvents returns the recorded error events in order.
func (r *Recorder) ErrorEvents() []event.ErrorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.ErrorEvent
	for _, evt := range r.events {
		if ee, ok := evt.(event.ErrorEvent); ok {
			out = append(out, ee)
		}
	}
	return out
}

// BlockEvents returns the recorded block events in order.
func (r *Recorder) BlockEvents() []event.BlockEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.BlockEvent
	for _, evt := range r.events {
		if be, ok := evt.(event.BlockEvent); ok {
			out = append(out, be)
		}
	}
	return out
}

// ChannelDataEvents returns the recorded per-channel data events in order.
func (r *Recorder) ChannelDataEvents() []event.ChannelDataEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.ChannelDataEvent
	for _, evt := range r.events {
		if ce, ok := evt.(event.ChannelDataEvent); ok {
			out = append(out, ce)
		}
	}
	return out
}

// CycleEvents returns the recorded cycle events in order.
func (r *Recorder) CycleEvents() []event.CycleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.CycleEvent
	for _, evt := range r.events {
		if ce, ok := evt.(event.CycleEvent); ok {
			out = append(out, ce)
		}
	}
	return out
}

// WaitCount polls until at least n events of kind k have been recorded or
// the timeout elapses. It reports whether the count was reached.
func (r *Recorder) WaitCount(k event.Kind, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if r.Count(k) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
}
