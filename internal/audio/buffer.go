package audio

import (
	"errors"
	"sync"
	"time"
)

// ErrBufferLocked is returned when the sample buffer lock cannot be taken in time
var ErrBufferLocked = errors.New("could not lock audio buffer")

const lockRetryInterval = 100 * time.Microsecond

// SampleBuffer is the growable f32 buffer shared between the capture callback
// and the worker. The lock is only ever held for an append, a clear or a copy.
type SampleBuffer struct {
	mu      sync.Mutex
	samples []float32
}

// NewSampleBuffer creates a buffer with the given initial capacity
func NewSampleBuffer(capacity int) *SampleBuffer {
	return &SampleBuffer{
		samples: make([]float32, 0, capacity),
	}
}

// Int16ToFloat32 converts a signed 16-bit sample to [-1.0, 1.0)
func Int16ToFloat32(s int16) float32 {
	return float32(s) / 32768
}

// Uint16ToFloat32 converts an unsigned 16-bit sample to [-1.0, 1.0)
func Uint16ToFloat32(s uint16) float32 {
	return (float32(s) - 32768) / 32768
}

// grow makes room for n more samples; callers hold mu
func (b *SampleBuffer) grow(n int) {
	if cap(b.samples)-len(b.samples) >= n {
		return
	}
	grown := make([]float32, len(b.samples), 2*cap(b.samples)+n)
	copy(grown, b.samples)
	b.samples = grown
}

// AppendFloat32 appends a block of native f32 samples
func (b *SampleBuffer) AppendFloat32(in []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.grow(len(in))
	b.samples = append(b.samples, in...)
}

// AppendInt16 converts and appends a block of i16 samples
func (b *SampleBuffer) AppendInt16(in []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.grow(len(in))
	for _, s := range in {
		b.samples = append(b.samples, Int16ToFloat32(s))
	}
}

// AppendUint16 converts and appends a block of u16 samples
func (b *SampleBuffer) AppendUint16(in []uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.grow(len(in))
	for _, s := range in {
		b.samples = append(b.samples, Uint16ToFloat32(s))
	}
}

// lockWithin tries to take the lock until timeout elapses
func (b *SampleBuffer) lockWithin(timeout time.Duration) bool {
	if b.mu.TryLock() {
		return true
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		time.Sleep(lockRetryInterval)
		if b.mu.TryLock() {
			return true
		}
	}
	return false
}

// Reset clears the buffer and re-reserves at least capacity samples
func (b *SampleBuffer) Reset(capacity int, timeout time.Duration) error {
	if !b.lockWithin(timeout) {
		return ErrBufferLocked
	}
	defer b.mu.Unlock()

	if cap(b.samples) < capacity {
		b.samples = make([]float32, 0, capacity)
		return nil
	}
	b.samples = b.samples[:0]
	return nil
}

// Snapshot returns a copy of the buffered samples
func (b *SampleBuffer) Snapshot(timeout time.Duration) ([]float32, error) {
	if !b.lockWithin(timeout) {
		return nil, ErrBufferLocked
	}
	defer b.mu.Unlock()

	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out, nil
}

// Len returns the number of buffered samples
func (b *SampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}
