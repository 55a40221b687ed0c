// Package sim provides a software analog input board for development,
// demos and tests. Waveforms are synthesized per channel, deterministic for
// a given seed, and continuous across scans. The three scan calls accept
// injected driver statuses so failure paths can be exercised without
// hardware.
package sim

import (
	"context"
	"math/rand"
	"sync"

	"github.com/chewxy/math32"
	"golang.org/x/time/rate"

	"github.com/fences/IcpDasDaqCore/device"
)

// Stage identifies one of the three scan calls for failure injection.
type Stage int

const (
	StageStart Stage = iota
	StageRead
	StageStop
)

// Waveform describes one channel's synthesized signal:
// amplitude*sin(2π·freq·t + phase) + offset, plus uniform noise in
// [-Noise, Noise].
type Waveform struct {
	Amplitude float32
	Frequency float32 // Hz
	Phase     float32 // radians
	Offset    float32
	Noise     float32
}

// Config configures a simulated board.
type Config struct {
	Info      device.BoardInfo
	Waveforms map[int]Waveform // by physical channel index
	Seed      int64            // 0 means seed 1
	Realtime  bool             // pace ReadScan at the configured sampling rate
}

// Board is a simulated analog input board implementing device.Board.
type Board struct {
	cfg Config
	rng *rand.Rand

	mu       sync.Mutex
	open     bool
	scanning bool
	scan     device.ScanConfig
	clock    float64 // accumulated sample time in seconds, continuous across scans
	limiter  *rate.Limiter

	injected map[Stage][]int
}

var _ device.Board = (*Board)(nil)

// New creates a simulated board. Zero-value Config gives a 32-channel board
// with default waveforms and no pacing.
func New(cfg Config) *Board {
	if cfg.Info.Model == "" {
		cfg.Info.Model = "SIM-1802"
	}
	if cfg.Info.SerialNumber == "" {
		cfg.Info.SerialNumber = "SIM00001"
	}
	if cfg.Info.MaxChannels <= 0 {
		cfg.Info.MaxChannels = 32
	}
	if cfg.Info.MaxRate <= 0 {
		cfg.Info.MaxRate = 200000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}

	return &Board{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
		injected: make(map[Stage][]int),
	}
}

// FailNext queues a driver status to be returned by the next call at the
// given stage. Statuses queue FIFO per stage and are consumed before any
// state checks.
func (b *Board) FailNext(stage Stage, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.injected[stage] = append(b.injected[stage], status)
}

// consumeInjected pops the next queued status for a stage. Caller holds mu.
func (b *Board) consumeInjected(stage Stage) error {
	queue := b.injected[stage]
	if len(queue) == 0 {
		return nil
	}
	status := queue[0]
	b.injected[stage] = queue[1:]
	return device.NewStatusError(status)
}

// Open brings the simulated board online. Opening twice is a driver error.
func (b *Board) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open {
		return device.NewStatusError(39) // Device Already Open
	}
	b.open = true
	return nil
}

// Close takes the board offline and discards any active scan. Idempotent.
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = false
	b.scanning = false
	return nil
}

// Info returns the simulated board description.
func (b *Board) Info() device.BoardInfo {
	return b.cfg.Info
}

// StartScan validates the scan configuration and arms the pacer. A scan
// left over from an aborted cycle is replaced, matching hardware where
// configure-and-start resets the pacer.
func (b *Board) StartScan(cfg device.ScanConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.consumeInjected(StageStart); err != nil {
		return err
	}
	if !b.open {
		return device.NewStatusError(40) // Device Not Open
	}
	if len(cfg.Channels) == 0 {
		return device.NewStatusError(6) // Invalid Channel Count
	}
	for _, ch := range cfg.Channels {
		if ch < 0 || ch >= b.cfg.Info.MaxChannels {
			return device.NewStatusError(5) // Invalid Channel Number
		}
	}
	if len(cfg.Ranges) != len(cfg.Channels) {
		return device.NewStatusError(8) // Invalid Range Code
	}
	if cfg.Rate <= 0 || cfg.Rate > b.cfg.Info.MaxRate {
		return device.NewStatusError(9) // Invalid Sampling Rate
	}
	if cfg.SamplesPerChannel <= 0 {
		return device.NewStatusError(10) // Invalid Sample Count
	}

	b.scan = cfg
	b.scanning = true
	if b.cfg.Realtime {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), cfg.SamplesPerChannel)
	}
	return nil
}

// ReadScan synthesizes one scan's worth of samples into buf, sample-major.
func (b *Board) ReadScan(buf []float32, total int) error {
	b.mu.Lock()

	if err := b.consumeInjected(StageRead); err != nil {
		b.mu.Unlock()
		return err
	}
	if !b.open {
		b.mu.Unlock()
		return device.NewStatusError(40) // Device Not Open
	}
	if !b.scanning {
		b.mu.Unlock()
		return device.NewStatusError(23) // No Scan In Progress
	}
	if total != b.scan.Total() {
		b.mu.Unlock()
		return device.NewStatusError(10) // Invalid Sample Count
	}
	if len(buf) < total {
		b.mu.Unlock()
		return device.NewStatusError(12) // Buffer Too Small
	}

	b.fill(buf)
	limiter := b.limiter
	samples := b.scan.SamplesPerChannel
	b.mu.Unlock()

	// Pacing happens outside the lock so Close is never blocked behind a
	// realtime read.
	if limiter != nil {
		_ = limiter.WaitN(context.Background(), samples)
	}
	return nil
}

// StopScan stops the active scan. Idempotent.
func (b *Board) StopScan() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.consumeInjected(StageStop); err != nil {
		return err
	}
	if !b.open {
		return device.NewStatusError(40) // Device Not Open
	}
	b.scanning = false
	return nil
}

// fill writes one scan into buf. Caller holds mu.
func (b *Board) fill(buf []float32) {
	nch := len(b.scan.Channels)
	dt := 1.0 / b.scan.Rate
	for s := 0; s < b.scan.SamplesPerChannel; s++ {
		t := b.clock + float64(s)*dt
		for c, ch := range b.scan.Channels {
			buf[s*nch+c] = b.synth(ch, t)
		}
	}
	b.clock += float64(b.scan.SamplesPerChannel) * dt
}

// synth evaluates one channel's waveform at time t.
func (b *Board) synth(ch int, t float64) float32 {
	w, ok := b.cfg.Waveforms[ch]
	if !ok {
		w = defaultWaveform(ch)
	}
	v := w.Amplitude*math32.Sin(2*math32.Pi*w.Frequency*float32(t)+w.Phase) + w.Offset
	if w.Noise > 0 {
		v += w.Noise * (b.rng.Float32()*2 - 1)
	}
	return v
}

// defaultWaveform gives each channel a distinguishable tone.
func defaultWaveform(ch int) Waveform {
	return Waveform{
		Amplitude: 1.0,
		Frequency: 10 * float32(ch+1),
	}
}
