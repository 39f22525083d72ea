// Package portaudio implements audio.Host on top of PortAudio.
package portaudio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
)

// LatencyMode defines the latency priority
type LatencyMode int

const (
	// LowLatency prioritizes low latency (real-time)
	LowLatency LatencyMode = iota
	// HighStability prioritizes stability (larger buffer)
	HighStability
)

// maxTriedChannels caps how many channel counts are tried per device
const maxTriedChannels = 2

// Options holds PortAudio stream options
type Options struct {
	Latency         LatencyMode
	FramesPerBuffer int
}

// DefaultOptions returns the default PortAudio options
// Latency: HighStability
// FramesPerBuffer: 1024
func DefaultOptions() Options {
	return Options{
		Latency:         HighStability,
		FramesPerBuffer: 1024,
	}
}

// Host implements audio.Host using PortAudio
type Host struct {
	opts Options
	log  *logger.Logger
}

// NewHost initializes PortAudio and returns a host
func NewHost(opts Options, log *logger.Logger) (*Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	log.Debug("PortAudio initialized: %s", portaudio.VersionText())
	return &Host{opts: opts, log: log}, nil
}

// Name returns the backend name
func (h *Host) Name() string {
	return "portaudio"
}

// InputDevices returns all devices with at least one input channel
func (h *Host) InputDevices() ([]audio.Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	var result []audio.Device
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			result = append(result, &device{info: dev, latency: h.latency(dev)})
		}
	}

	return result, nil
}

// DefaultInputDevice returns PortAudio's default input device
func (h *Host) DefaultInputDevice() (audio.Device, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("failed to get default input device: %w", err)
	}
	return &device{info: info, latency: h.latency(info)}, nil
}

func (h *Host) latency(info *portaudio.DeviceInfo) time.Duration {
	switch h.opts.Latency {
	case LowLatency:
		return info.DefaultLowInputLatency
	default:
		return info.DefaultHighInputLatency
	}
}

// OpenInputStream opens a stopped input stream that delivers into sink
func (h *Host) OpenInputStream(dev audio.Device, config audio.CaptureConfig, sink audio.SampleSink) (audio.Stream, error) {
	d, ok := dev.(*device)
	if !ok {
		return nil, audio.ErrForeignDevice
	}

	if d.info.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("selected device '%s' has no input channels (output-only device)", d.info.Name)
	}

	// PortAudio has no unsigned 16-bit format; every other format maps to a typed callback
	var callback interface{}
	switch config.Format {
	case audio.FormatFloat32:
		callback = func(in []float32) { sink.WriteFloat32(in) }
	case audio.FormatInt16:
		callback = func(in []int16) { sink.WriteInt16(in) }
	default:
		return nil, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, config.Format)
	}

	params := d.params(int(config.Channels), float64(config.SampleRate))
	params.FramesPerBuffer = h.opts.FramesPerBuffer

	paStream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}

	h.log.Debug("Opened PortAudio stream on '%s': %dHz, %d channels, %s",
		d.info.Name, config.SampleRate, config.Channels, config.Format)
	return &stream{s: paStream}, nil
}

// Close terminates PortAudio
func (h *Host) Close() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// device wraps a PortAudio device description
type device struct {
	info    *portaudio.DeviceInfo
	latency time.Duration
}

func (d *device) Name() string {
	return d.info.Name
}

func (d *device) params(channels int, sampleRate float64) portaudio.StreamParameters {
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   d.info,
			Channels: channels,
			Latency:  d.latency,
		},
		SampleRate: sampleRate,
	}
}

// SupportedInputConfigs tries the voice rate and the device's default rate for
// mono and stereo. PortAudio reports no ranges, so each hit is a single-rate range.
func (d *device) SupportedInputConfigs() ([]audio.ConfigRange, error) {
	rates := []float64{audio.VoiceSampleRate}
	if d.info.DefaultSampleRate != audio.VoiceSampleRate {
		rates = append(rates, d.info.DefaultSampleRate)
	}

	maxChannels := d.info.MaxInputChannels
	if maxChannels > maxTriedChannels {
		maxChannels = maxTriedChannels
	}

	var ranges []audio.ConfigRange
	for ch := 1; ch <= maxChannels; ch++ {
		for _, rate := range rates {
			if err := portaudio.IsFormatSupported(d.params(ch, rate), make([]float32, 1)); err != nil {
				continue
			}
			ranges = append(ranges, audio.ConfigRange{
				Channels:      uint16(ch),
				MinSampleRate: uint32(rate),
				MaxSampleRate: uint32(rate),
				Format:        audio.FormatFloat32,
			})
		}
	}

	return ranges, nil
}

// DefaultInputConfig returns the device default rate with up to two channels
func (d *device) DefaultInputConfig() (audio.CaptureConfig, error) {
	if d.info.MaxInputChannels <= 0 {
		return audio.CaptureConfig{}, fmt.Errorf("device '%s' has no input channels", d.info.Name)
	}

	channels := d.info.MaxInputChannels
	if channels > maxTriedChannels {
		channels = maxTriedChannels
	}

	return audio.CaptureConfig{
		SampleRate: uint32(d.info.DefaultSampleRate),
		Channels:   uint16(channels),
		Format:     audio.FormatFloat32,
	}, nil
}

// stream tracks whether the PortAudio stream is active, since starting an
// active stream or stopping a stopped one is an error in PortAudio.
type stream struct {
	s      *portaudio.Stream
	active bool
}

func (s *stream) Play() error {
	if s.active {
		return nil
	}
	if err := s.s.Start(); err != nil {
		return err
	}
	s.active = true
	return nil
}

func (s *stream) Pause() error {
	if !s.active {
		return nil
	}
	s.active = false
	return s.s.Stop()
}

func (s *stream) Close() error {
	if s.active {
		s.active = false
		if err := s.s.Stop(); err != nil {
			s.s.Close()
			return fmt.Errorf("failed to stop stream: %w", err)
		}
	}
	return s.s.Close()
}
