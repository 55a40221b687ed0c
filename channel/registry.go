package channel

import (
	"sync"
	"sync/atomic"

	"github.com/fences/IcpDasDaqCore/dsp"
)

// Registry holds the configured channels. Writers serialize on an RWMutex;
// readers get snapshots through an atomically cached view slice, so readers
// never block readers. Mutations made while acquisition runs take effect
// from the next snapshot, never retroactively.
type Registry struct {
	mu       sync.RWMutex
	channels []*Channel
	snapshot atomic.Pointer[[]View]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a channel. filterWindow 0 disables smoothing; any other value
// goes through dsp.NewMovingAverage, which rejects windows below 1.
// Duplicate names are accepted.
func (r *Registry) Add(name string, index, rangeCode, filterWindow int, coeffs []float64, zero float64) error {
	var filter *dsp.MovingAverage
	if filterWindow != 0 {
		var err error
		filter, err = dsp.NewMovingAverage(filterWindow)
		if err != nil {
			return err
		}
	}

	ch := &Channel{
		Name:      name,
		Index:     index,
		RangeCode: rangeCode,
		Filter:    filter,
		Coeffs:    append([]float64(nil), coeffs...),
		Zero:      zero,
	}

	r.mu.Lock()
	r.channels = append(r.channels, ch)
	r.snapshot.Store(nil)
	r.mu.Unlock()
	return nil
}

// Clear removes all channels and their filter state.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.channels = nil
	r.snapshot.Store(nil)
	r.mu.Unlock()
}

// Snapshot returns a consistent view of all channels. The built slice is
// cached until the next mutation, so repeated snapshots between writes are
// free. The cache is refilled under the read lock, which keeps rebuilds
// and mutations mutually exclusive.
func (r *Registry) Snapshot() []View {
	if cached := r.snapshot.Load(); cached != nil {
		return *cached
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]View, len(r.channels))
	for i, ch := range r.channels {
		views[i] = View{
			Name:      ch.Name,
			Index:     ch.Index,
			RangeCode: ch.RangeCode,
			Filter:    ch.Filter,
			Coeffs:    append([]float64(nil), ch.Coeffs...),
			Zero:      ch.Zero,
		}
	}
	r.snapshot.Store(&views)
	return views
}

// UpdateZero sets the zero offset on the first channel with the given
// name. Unknown names are a silent no-op.
func (r *Registry) UpdateZero(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.channels {
		if ch.Name == name {
			ch.Zero = value
			r.snapshot.Store(nil)
			return
		}
	}
}

// UpdateCalibration replaces the coefficient slice on the first channel
// with the given name. The slice is replaced wholesale, never mutated in
// place, so views already handed out keep the coefficients they were built
// with. Unknown names are a silent no-op.
func (r *Registry) UpdateCalibration(name string, coeffs []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.channels {
		if ch.Name == name {
			ch.Coeffs = append([]float64(nil), coeffs...)
			r.snapshot.Store(nil)
			return
		}
	}
}

// Len returns the number of configured channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
