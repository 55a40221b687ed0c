// Package event defines the notification surface of the acquisition engine
// and the bus that delivers it. Publishing is fire-and-forget: a slow or
// absent subscriber never blocks the acquisition loop.
package event

import (
	"time"

	"github.com/fences/IcpDasDaqCore/channel"
)

// Kind identifies an event family for subscription filtering.
type Kind string

const (
	KindBlock       Kind = "block"
	KindChannelData Kind = "channel_data"
	KindCycle       Kind = "cycle"
	KindError       Kind = "error"
	KindInitialized Kind = "initialized"
)

// Event is implemented by every notification published on the bus.
type Event interface {
	Kind() Kind
}

// BlockEvent carries one cycle's data in aggregate mode. Values and Raw are
// sample-major matrices indexed [sample][channel], aligned with Channels.
// Raw holds the smoothed samples before calibration; the name is
// historical, pre-filter hardware values are not published.
type BlockEvent struct {
	Timestamp time.Time
	Channels  []channel.View
	Values    [][]float32
	Raw       [][]float32
}

// Kind implements Event.
func (BlockEvent) Kind() Kind { return KindBlock }

// ChannelDataEvent carries one channel's data for one cycle in per-channel
// mode. Raw follows the same post-filter convention as BlockEvent.
type ChannelDataEvent struct {
	Timestamp time.Time
	Name      string
	Index     int
	Values    []float32
	Raw       []float32
}

// Kind implements Event.
func (ChannelDataEvent) Kind() Kind { return KindChannelData }

// CycleEvent reports the latency of one completed acquisition cycle.
type CycleEvent struct {
	Timestamp time.Time
	Elapsed   time.Duration
	Samples   int
	Channels  int
}

// Kind implements Event.
func (CycleEvent) Kind() Kind { return KindCycle }

// ErrorEvent reports a failure. Channel is -1 when the failure is not tied
// to a specific channel. Code carries the driver status when one exists.
type ErrorEvent struct {
	Source  string
	Channel int
	Code    int
	Message string
}

// Kind implements Event.
func (ErrorEvent) Kind() Kind { return KindError }

// InitializedEvent fires once, after the first successful hardware
// configure call.
type InitializedEvent struct {
	Timestamp time.Time
	Board     string
}

// Kind implements Event.
func (InitializedEvent) Kind() Kind { return KindInitialized }
