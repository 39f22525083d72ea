package audio

import "errors"

// VoiceSampleRate is the sample rate preferred for speech capture
const VoiceSampleRate = 16000

// InitialBufferCapacity pre-allocates room for ~2 minutes at 16kHz mono
const InitialBufferCapacity = VoiceSampleRate * 120

// DefaultDeviceName selects the host's default input device regardless of its display name
const DefaultDeviceName = "default"

var (
	// ErrNoDefaultDevice is returned when the host reports no default input device
	ErrNoDefaultDevice = errors.New("no default input device available")
	// ErrNoDevices is returned when the host has no input devices at all
	ErrNoDevices = errors.New("no recording devices available")
	// ErrNoSupportedConfigs is returned when a device reports no input configurations
	ErrNoSupportedConfigs = errors.New("no supported input configurations found")
	// ErrUnsupportedFormat is returned when a stream cannot be built for a sample format
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	// ErrForeignDevice is returned when a host is handed a device it did not enumerate
	ErrForeignDevice = errors.New("device does not belong to this host")
)

// SampleFormat is the native sample representation delivered by a stream
type SampleFormat int

const (
	// FormatUnknown means the format could not be determined
	FormatUnknown SampleFormat = iota
	// FormatFloat32 is 32-bit floating point in [-1.0, 1.0]
	FormatFloat32
	// FormatInt16 is signed 16-bit integer PCM
	FormatInt16
	// FormatUint16 is unsigned 16-bit integer PCM centered on 32768
	FormatUint16
)

// String returns the string representation of the format
func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32:
		return "f32"
	case FormatInt16:
		return "i16"
	case FormatUint16:
		return "u16"
	default:
		return "unknown"
	}
}

// CaptureConfig is the format chosen for one session.
// It is selected once at session init and never changes afterwards.
type CaptureConfig struct {
	SampleRate uint32
	Channels   uint16
	Format     SampleFormat
}

// ConfigRange describes one supported input configuration of a device
type ConfigRange struct {
	Channels      uint16
	MinSampleRate uint32
	MaxSampleRate uint32
	Format        SampleFormat
}

// Contains reports whether rate lies within the range
func (r ConfigRange) Contains(rate uint32) bool {
	return r.MinSampleRate <= rate && rate <= r.MaxSampleRate
}

// WithSampleRate pins the range to a concrete capture configuration
func (r ConfigRange) WithSampleRate(rate uint32) CaptureConfig {
	return CaptureConfig{
		SampleRate: rate,
		Channels:   r.Channels,
		Format:     r.Format,
	}
}

// Device is an input device reported by a Host.
// Devices have no identity beyond their display name in the current enumeration.
type Device interface {
	Name() string
	SupportedInputConfigs() ([]ConfigRange, error)
	DefaultInputConfig() (CaptureConfig, error)
}

// SampleSink receives sample blocks from a stream's real-time callback.
// Implementations must not block for long and must never panic.
type SampleSink interface {
	WriteFloat32(samples []float32)
	WriteInt16(samples []int16)
	WriteUint16(samples []uint16)
}

// Stream is a live, callback-driven connection to an input device
type Stream interface {
	// Play starts (or resumes) delivery of sample blocks
	Play() error
	// Pause halts delivery without releasing the device
	Pause() error
	// Close releases the device; the stream cannot be reused
	Close() error
}

// Host is the interface to the platform audio subsystem.
// This abstraction lets PortAudio and miniaudio back the same capture engine.
type Host interface {
	// Name identifies the backend (e.g. "portaudio")
	Name() string

	// InputDevices lists the current input devices.
	// Devices discovered before a failure may be returned alongside the error.
	InputDevices() ([]Device, error)

	// DefaultInputDevice returns the host's default input device
	DefaultInputDevice() (Device, error)

	// OpenInputStream builds a paused input stream delivering into sink
	OpenInputStream(device Device, config CaptureConfig, sink SampleSink) (Stream, error)

	// Close releases all backend resources
	Close() error
}
