package audio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
)

// SessionOptions tunes buffer behavior for a Session
type SessionOptions struct {
	// BufferCapacity is the number of samples reserved at open and at every Start
	BufferCapacity int
	// LockTimeout bounds how long Start/Stop wait for the sample buffer
	LockTimeout time.Duration
}

// DefaultSessionOptions returns the default session options
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		BufferCapacity: InitialBufferCapacity,
		LockTimeout:    500 * time.Millisecond,
	}
}

// captureSink is handed to the stream; it runs on the real-time callback thread.
type captureSink struct {
	recording *atomic.Bool
	buffer    *SampleBuffer
	log       *logger.Logger
}

func (c *captureSink) recoverPanic() {
	if r := recover(); r != nil {
		c.log.Error("Recovered from panic in audio callback: %v", r)
	}
}

func (c *captureSink) WriteFloat32(samples []float32) {
	defer c.recoverPanic()
	if c.recording.Load() {
		c.buffer.AppendFloat32(samples)
	}
}

func (c *captureSink) WriteInt16(samples []int16) {
	defer c.recoverPanic()
	if c.recording.Load() {
		c.buffer.AppendInt16(samples)
	}
}

func (c *captureSink) WriteUint16(samples []uint16) {
	defer c.recoverPanic()
	if c.recording.Load() {
		c.buffer.AppendUint16(samples)
	}
}

// Session is one opened binding to an input device.
// It exclusively owns the stream; only the sample buffer is shared with the callback.
type Session struct {
	deviceName string
	config     CaptureConfig
	stream     Stream
	buffer     *SampleBuffer
	recording  atomic.Bool
	opts       SessionOptions
	log        *logger.Logger
	closed     bool
}

// OpenSession builds a paused input stream for device using config
func OpenSession(host Host, device Device, config CaptureConfig, opts SessionOptions, log *logger.Logger) (*Session, error) {
	if opts.BufferCapacity <= 0 {
		opts.BufferCapacity = InitialBufferCapacity
	}

	s := &Session{
		deviceName: device.Name(),
		config:     config,
		buffer:     NewSampleBuffer(opts.BufferCapacity),
		opts:       opts,
		log:        log,
	}

	sink := &captureSink{
		recording: &s.recording,
		buffer:    s.buffer,
		log:       log,
	}

	stream, err := host.OpenInputStream(device, config, sink)
	if err != nil {
		return nil, fmt.Errorf("failed to build stream: %w", err)
	}

	s.stream = stream
	return s, nil
}

// DeviceName returns the name of the bound device
func (s *Session) DeviceName() string {
	return s.deviceName
}

// Config returns the capture configuration fixed at open
func (s *Session) Config() CaptureConfig {
	return s.config
}

// IsRecording reports whether captured blocks are being appended
func (s *Session) IsRecording() bool {
	return s.recording.Load()
}

// BufferedSamples returns the number of samples captured so far
func (s *Session) BufferedSamples() int {
	return s.buffer.Len()
}

// Start clears the buffer, starts the stream and only then raises the recording flag,
// so the callback never appends into a buffer that has not been reset.
func (s *Session) Start() error {
	if s.closed {
		return fmt.Errorf("session is closed")
	}

	if err := s.buffer.Reset(s.opts.BufferCapacity, s.opts.LockTimeout); err != nil {
		return err
	}

	if err := s.stream.Play(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}

	s.recording.Store(true)
	return nil
}

// Stop lowers the recording flag before pausing the stream and copying the buffer.
// A block already inside the callback when the flag drops may still land in the copy.
func (s *Session) Stop() (*AudioRecording, error) {
	s.recording.Store(false)

	if !s.closed {
		if err := s.stream.Pause(); err != nil {
			s.log.Warn("Error pausing stream: %v", err)
		}
	}

	samples, err := s.buffer.Snapshot(s.opts.LockTimeout)
	if err != nil {
		return nil, err
	}

	return NewRecording(samples, s.config.SampleRate, s.config.Channels), nil
}

// Close stops capture and releases the stream. It is safe to call more than once.
func (s *Session) Close() error {
	s.recording.Store(false)

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.stream.Pause(); err != nil {
		s.log.Debug("Error pausing stream during close: %v", err)
	}

	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}

	s.log.Debug("Recording session resources released")
	return nil
}
