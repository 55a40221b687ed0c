// Package testutil provides test doubles for the acquisition pipeline: a
// scriptable board and an event recorder. No production code imports it.
package testutil

import (
	"sync"

	"github.com/fences/IcpDasDaqCore/device"
)

// ScriptedBoard implements device.Board with per-call failure scripting
// and call counting. The zero value is usable; New sets board info
// defaults.
//
// Failures are keyed by 1-based call number per method: entry 2 in
// ReadScanStatus makes the second ReadScan call fail with that status
// code. Unscripted calls succeed.
type ScriptedBoard struct {
	mu sync.Mutex

	// Per-call status scripts. A nonzero status fails that call with the
	// matching device.StatusError.
	OpenStatus      map[int]int
	StartScanStatus map[int]int
	ReadScanStatus  map[int]int
	StopScanStatus  map[int]int

	// Fill produces the sample data for a ReadScan call. Defaults to a
	// ramp: buf[i] = i.
	Fill func(buf []float32, call int)

	// BoardInfo returned by Info.
	InfoValue device.BoardInfo

	// Call counts, one per method.
	OpenCalls  int
	CloseCalls int
	StartCalls int
	ReadCalls  int
	StopCalls  int

	// LastConfig is the configuration of the most recent StartScan.
	LastConfig device.ScanConfig
}

var _ device.Board = (*ScriptedBoard)(nil)

// NewScriptedBoard returns a board that succeeds on every call until
// scripted otherwise.
func NewScriptedBoard() *ScriptedBoard {
	return &ScriptedBoard{
		InfoValue: device.BoardInfo{
			Model:        "SCRIPTED-1",
			SerialNumber: "TEST0001",
			MaxChannels:  16,
			MaxRate:      200000,
		},
	}
}

func (b *ScriptedBoard) scripted(script map[int]int, call int) error {
	if script == nil {
		return nil
	}
	return device.NewStatusError(script[call])
}

// Open implements device.Board.
func (b *ScriptedBoard) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.OpenCalls++
	return b.scripted(b.OpenStatus, b.OpenCalls)
}

// Close implements device.Board.
func (b *ScriptedBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CloseCalls++
	return nil
}

// Info implements device.Board.
func (b *ScriptedBoard) Info() device.BoardInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.InfoValue
}

// StartScan implements device.Board.
func (b *ScriptedBoard) StartScan(cfg device.ScanConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.StartCalls++
	b.LastConfig = cfg
	return b.scripted(b.StartScanStatus, b.StartCalls)
}

// ReadScan implements device.Board.
func (b *ScriptedBoard) ReadScan(buf []float32, total int) error {
	b.mu.Lock()
	fill := b.Fill
	b.ReadCalls++
	call := b.ReadCalls
	err := b.scripted(b.ReadScanStatus, call)
	b.mu.Unlock()

	if err != nil {
		return err
	}
	if fill == nil {
		for i := range buf[:total] {
			buf[i] = float32(i)
		}
		return nil
	}
	fill(buf[:total], call)
	return nil
}

// StopScan implements device.Board.
func (b *ScriptedBoard) StopScan() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.StopCalls++
	return b.scripted(b.StopScanStatus, b.StopCalls)
}

// Calls returns the start/read/stop call counts as one snapshot.
func (b *ScriptedBoard) Calls() (starts, reads, stops int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.StartCalls, b.ReadCalls, b.StopCalls
}
