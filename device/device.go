// Package device defines the hardware collaborator contract for analog
// input boards and the driver status vocabulary shared by real and simulated
// implementations.
package device

// ScanConfig carries the argument set for one configure-and-start call:
// the channel list, the matching range code list, the sampling rate in Hz
// and the number of samples to acquire per channel.
type ScanConfig struct {
	Channels          []int
	Ranges            []int
	Rate              float64
	SamplesPerChannel int
}

// Total returns the flat buffer size for one scan, samples times channels.
func (c ScanConfig) Total() int {
	return c.SamplesPerChannel * len(c.Channels)
}

// BoardInfo describes an attached board.
type BoardInfo struct {
	Model        string
	SerialNumber string
	Slot         int
	MaxChannels  int
	MaxRate      float64
}

// Board is the hardware contract consumed by the acquisition loop. Each
// cycle makes three ordered calls: StartScan, then ReadScan, then StopScan.
// The scan methods take no context; an in-flight hardware call is never
// interrupted, cancellation is observed between calls.
//
// ReadScan fills buf with sample-major data: the first len(cfg.Channels)
// values are sample 0 across all channels, and so on. total must equal
// cfg.Total() from the preceding StartScan.
type Board interface {
	Open() error
	Close() error
	Info() BoardInfo

	StartScan(cfg ScanConfig) error
	ReadScan(buf []float32, total int) error
	StopScan() error
}
