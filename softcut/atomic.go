package softcut

import (
	"math"
	"sync/atomic"
)

// atomicFloat is a single-writer float64 slot. Loads and stores move the
// whole value, so a reader never observes a torn update.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}
