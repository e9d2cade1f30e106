package softcut

import (
	"errors"
	"strings"
)

var (
	ErrInvalidVoice      = errors.New("softcut: voice index out of range")
	ErrNoBuffer          = errors.New("softcut: voice has no buffer")
	ErrDegenerateLoop    = errors.New("softcut: loop region shorter than one frame")
	ErrSyncCycle         = errors.New("softcut: sync relation would form a cycle")
	ErrInvalidSampleRate = errors.New("softcut: sample rate must be positive")
	ErrClosed            = errors.New("softcut: engine closed")
)

// Warning is a set of non-fatal conditions raised by the audio thread.
// A condition is raised once when it starts; it is raised again only after
// it has cleared and recurred.
type Warning uint32

const (
	// WarnNoBuffer: the voice was processed without a buffer and produced silence.
	WarnNoBuffer Warning = 1 << iota
	// WarnDegenerateLoop: looping is on but the region is shorter than a frame.
	WarnDegenerateLoop
	// WarnNonFinite: a filter produced NaN/Inf and its state was cleared.
	WarnNonFinite
)

// Has reports whether all bits of x are set in w.
func (w Warning) Has(x Warning) bool {
	return w&x == x && x != 0
}

func (w Warning) String() string {
	if w == 0 {
		return "none"
	}
	var parts []string
	if w.Has(WarnNoBuffer) {
		parts = append(parts, "no-buffer")
	}
	if w.Has(WarnDegenerateLoop) {
		parts = append(parts, "degenerate-loop")
	}
	if w.Has(WarnNonFinite) {
		parts = append(parts, "non-finite")
	}
	return strings.Join(parts, "|")
}
