// Package processor turns one raw scan block plus a channel snapshot into
// published engine output, in aggregate or per-channel mode.
package processor

import (
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fences/IcpDasDaqCore/channel"
	"github.com/fences/IcpDasDaqCore/dsp"
	"github.com/fences/IcpDasDaqCore/event"
)

// Mode selects the published data shape.
type Mode string

const (
	// ModeAggregate publishes one BlockEvent per cycle with sample-major
	// matrices across all channels.
	ModeAggregate Mode = "aggregate"
	// ModePerChannel publishes one ChannelDataEvent per channel per cycle.
	ModePerChannel Mode = "perchannel"
)

// ParallelThreshold is the per-channel sample count a cycle must exceed
// before the parallel paths engage. Below it the fan-out overhead costs
// more than it buys.
const ParallelThreshold = 1000

// Config controls the processing strategy.
type Config struct {
	Mode     Mode
	Parallel bool
}

// Processor applies the per-sample transform and publishes the result.
//
// The transform for every sample is: smooth through the channel's filter
// when one is configured, then calibrate (polynomial minus zero offset).
// Published "raw" values are the post-filter pre-calibration samples.
//
// A Processor is NOT safe for concurrent Process calls: channel filters
// are stateful and must see samples in acquisition order. The acquisition
// loop is the only caller.
type Processor struct {
	bus      *event.Bus
	logger   *slog.Logger
	mode     Mode
	parallel bool
}

// New creates a processor publishing to bus. Unknown modes fall back to
// aggregate.
func New(bus *event.Bus, logger *slog.Logger, cfg Config) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "processor")

	mode := cfg.Mode
	switch mode {
	case ModeAggregate, ModePerChannel:
	case "":
		mode = ModeAggregate
	default:
		logger.Warn("unknown output mode, using aggregate", "mode", string(cfg.Mode))
		mode = ModeAggregate
	}

	return &Processor{
		bus:      bus,
		logger:   logger,
		mode:     mode,
		parallel: cfg.Parallel,
	}
}

// Mode returns the active output mode.
func (p *Processor) Mode() Mode {
	return p.mode
}

// Process consumes one raw block. block is sample-major: sample s of
// channel c lives at block[s*len(views)+c], with samples*len(views) valid
// entries. The caller keeps ownership of block and may reuse it next
// cycle; everything published is freshly allocated.
func (p *Processor) Process(block []float32, views []channel.View, samples int, ts time.Time) {
	if len(views) == 0 || samples <= 0 {
		return
	}

	if p.mode == ModePerChannel {
		p.perChannel(block, views, samples, ts)
		return
	}
	p.aggregate(block, views, samples, ts)
}

// useParallel reports whether this cycle is large enough to fan out.
func (p *Processor) useParallel(samples int) bool {
	return p.parallel && samples > ParallelThreshold
}

// aggregate builds the calibrated and post-filter matrices and publishes a
// single BlockEvent.
func (p *Processor) aggregate(block []float32, views []channel.View, samples int, ts time.Time) {
	nch := len(views)
	raw := makeMatrix(samples, nch)
	values := makeMatrix(samples, nch)

	if p.useParallel(samples) {
		p.filterByChannel(block, views, samples, raw)
		p.calibrateByRows(views, samples, raw, values)
	} else {
		cals := calibrations(views)
		for s := 0; s < samples; s++ {
			for c := range views {
				x := block[s*nch+c]
				if views[c].Filter != nil {
					x = views[c].Filter.Next(x)
				}
				raw[s][c] = x
				values[s][c] = cals[c].Apply(x)
			}
		}
	}

	p.bus.Publish(event.BlockEvent{
		Timestamp: ts,
		Channels:  views,
		Values:    values,
		Raw:       raw,
	})
}

// filterByChannel runs the smoothing pass with one goroutine per channel.
// Each filter sees its own samples serially in acquisition order; the
// parallelism is only ever across channels.
func (p *Processor) filterByChannel(block []float32, views []channel.View, samples int, raw [][]float32) {
	nch := len(views)
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for c := range views {
		c := c
		g.Go(func() error {
			filter := views[c].Filter
			for s := 0; s < samples; s++ {
				x := block[s*nch+c]
				if filter != nil {
					x = filter.Next(x)
				}
				raw[s][c] = x
			}
			return nil
		})
	}
	_ = g.Wait()
}

// calibrateByRows runs the stateless calibration pass over contiguous row
// chunks, one chunk per worker.
func (p *Processor) calibrateByRows(views []channel.View, samples int, raw, values [][]float32) {
	cals := calibrations(views)
	workers := runtime.GOMAXPROCS(0)
	chunk := (samples + workers - 1) / workers

	g := new(errgroup.Group)
	for start := 0; start < samples; start += chunk {
		start := start
		end := min(start+chunk, samples)
		g.Go(func() error {
			for s := start; s < end; s++ {
				for c := range cals {
					values[s][c] = cals[c].Apply(raw[s][c])
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// perChannel extracts, smooths and calibrates each channel's series and
// publishes one ChannelDataEvent per channel.
func (p *Processor) perChannel(block []float32, views []channel.View, samples int, ts time.Time) {
	if p.useParallel(samples) {
		g := new(errgroup.Group)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for c := range views {
			c := c
			g.Go(func() error {
				p.publishChannel(block, views, c, samples, ts)
				return nil
			})
		}
		_ = g.Wait()
		return
	}

	for c := range views {
		p.publishChannel(block, views, c, samples, ts)
	}
}

// publishChannel processes one channel's series. Each channel's filter is
// touched by exactly one goroutine per cycle.
func (p *Processor) publishChannel(block []float32, views []channel.View, c, samples int, ts time.Time) {
	nch := len(views)
	view := views[c]
	cal := view.Calibration()

	raw := make([]float32, samples)
	values := make([]float32, samples)
	for s := 0; s < samples; s++ {
		x := block[s*nch+c]
		if view.Filter != nil {
			x = view.Filter.Next(x)
		}
		raw[s] = x
		values[s] = cal.Apply(x)
	}

	p.bus.Publish(event.ChannelDataEvent{
		Timestamp: ts,
		Name:      view.Name,
		Index:     view.Index,
		Values:    values,
		Raw:       raw,
	})
}

// calibrations hoists each view's calibration chain out of the sample loops.
func calibrations(views []channel.View) []dsp.Calibration {
	cals := make([]dsp.Calibration, len(views))
	for i, v := range views {
		cals[i] = v.Calibration()
	}
	return cals
}

// makeMatrix allocates a rows×cols matrix over a single backing slice.
func makeMatrix(rows, cols int) [][]float32 {
	backing := make([]float32, rows*cols)
	m := make([][]float32, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}
