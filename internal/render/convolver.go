package render

import (
	"fmt"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
)

const defaultPartSize = 128

// Convolver applies a stereo impulse response (a room or cabinet) to a
// rendered stereo mix with partitioned overlap-add convolution.
type Convolver struct {
	sampleRate int
	partSize   int

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	leftIn   []float32
	rightIn  []float32
	leftOut  []float32
	rightOut []float32
}

// NewConvolver creates a pass-through convolver.
func NewConvolver(sampleRate int) *Convolver {
	c := &Convolver{
		sampleRate: sampleRate,
		partSize:   defaultPartSize,
		leftIn:     make([]float32, defaultPartSize),
		rightIn:    make([]float32, defaultPartSize),
		leftOut:    make([]float32, defaultPartSize),
		rightOut:   make([]float32, defaultPartSize),
	}
	if err := c.SetIR([]float32{1}, []float32{1}); err != nil {
		panic(err)
	}
	return c
}

// SetIR installs left/right impulse responses. An empty side is an identity.
func (c *Convolver) SetIR(leftIR, rightIR []float32) error {
	if len(leftIR) == 0 {
		leftIR = []float32{1}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1}
	}
	leftOLA, err := dspconv.NewStreamingOverlapAdd32(leftIR, c.partSize)
	if err != nil {
		return fmt.Errorf("left ir: %w", err)
	}
	rightOLA, err := dspconv.NewStreamingOverlapAdd32(rightIR, c.partSize)
	if err != nil {
		return fmt.Errorf("right ir: %w", err)
	}
	c.leftOLA = leftOLA
	c.rightOLA = rightOLA
	c.Reset()
	return nil
}

// SetIRFromWAV loads a mono or stereo IR, resampled to the convolver rate.
func (c *Convolver) SetIRFromWAV(path string) error {
	chans, sr, err := ReadWAV(path)
	if err != nil {
		return err
	}
	if len(chans[0]) == 0 {
		return fmt.Errorf("empty wav data: %s", path)
	}
	left := chans[0]
	right := left
	if len(chans) > 1 {
		right = chans[1]
	}
	if left, err = ResampleIfNeeded(left, sr, c.sampleRate); err != nil {
		return err
	}
	if right, err = ResampleIfNeeded(right, sr, c.sampleRate); err != nil {
		return err
	}
	return c.SetIR(left, right)
}

// Process convolves left and right in place. Both must have equal length.
func (c *Convolver) Process(left, right []float32) error {
	if len(left) != len(right) {
		return fmt.Errorf("left/right length mismatch")
	}
	for start := 0; start < len(left); start += c.partSize {
		end := min(start+c.partSize, len(left))
		n := end - start
		clear(c.leftIn)
		clear(c.rightIn)
		copy(c.leftIn, left[start:end])
		copy(c.rightIn, right[start:end])
		if err := c.leftOLA.ProcessBlockTo(c.leftOut, c.leftIn); err != nil {
			return err
		}
		if err := c.rightOLA.ProcessBlockTo(c.rightOut, c.rightIn); err != nil {
			return err
		}
		copy(left[start:end], c.leftOut[:n])
		copy(right[start:end], c.rightOut[:n])
	}
	return nil
}

// Reset clears the convolution tails.
func (c *Convolver) Reset() {
	if c.leftOLA != nil {
		c.leftOLA.Reset()
	}
	if c.rightOLA != nil {
		c.rightOLA.Reset()
	}
}
