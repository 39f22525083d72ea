// Package audiotest provides an in-memory audio.Host for tests.
// Streams never touch hardware; tests push sample blocks with Deliver.
package audiotest

import (
	"errors"
	"sync"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
)

// Device is a fake input device
type Device struct {
	DeviceName    string
	Configs       []audio.ConfigRange
	ConfigsErr    error
	DefaultConfig audio.CaptureConfig
	DefaultErr    error
}

// NewDevice returns a device that supports 16kHz mono f32
func NewDevice(name string) *Device {
	return &Device{
		DeviceName: name,
		Configs: []audio.ConfigRange{
			{Channels: 2, MinSampleRate: 8000, MaxSampleRate: 48000, Format: audio.FormatFloat32},
			{Channels: 1, MinSampleRate: 8000, MaxSampleRate: 48000, Format: audio.FormatFloat32},
		},
		DefaultConfig: audio.CaptureConfig{SampleRate: 48000, Channels: 2, Format: audio.FormatFloat32},
	}
}

// NewFixedDevice returns a device that only supports the given configuration
func NewFixedDevice(name string, config audio.CaptureConfig) *Device {
	return &Device{
		DeviceName: name,
		Configs: []audio.ConfigRange{
			{Channels: config.Channels, MinSampleRate: config.SampleRate, MaxSampleRate: config.SampleRate, Format: config.Format},
		},
		DefaultConfig: config,
	}
}

func (d *Device) Name() string {
	return d.DeviceName
}

func (d *Device) SupportedInputConfigs() ([]audio.ConfigRange, error) {
	return d.Configs, d.ConfigsErr
}

func (d *Device) DefaultInputConfig() (audio.CaptureConfig, error) {
	return d.DefaultConfig, d.DefaultErr
}

// Stream is a fake input stream.
// Deliver calls are serialized as a real backend serializes its callback.
type Stream struct {
	mu      sync.Mutex
	config  audio.CaptureConfig
	sink    audio.SampleSink
	playing bool
	closed  bool

	playErr  error
	plays    int
	pauses   int
	closes   int
	delivery sync.Mutex
}

// Counts returns how many times Play, Pause and Close were called
func (s *Stream) Counts() (plays, pauses, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays, s.pauses, s.closes
}

// FailPlay makes subsequent Play calls return err
func (s *Stream) FailPlay(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playErr = err
}

// Config returns the configuration the stream was opened with
func (s *Stream) Config() audio.CaptureConfig {
	return s.config
}

func (s *Stream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}
	s.plays++
	if s.playErr != nil {
		return s.playErr
	}
	s.playing = true
	return nil
}

func (s *Stream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pauses++
	s.playing = false
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closes++
	s.playing = false
	s.closed = true
	return nil
}

// Playing reports whether the stream is started
func (s *Stream) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Closed reports whether the stream has been released
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stream) deliver(write func(audio.SampleSink)) bool {
	if !s.Playing() {
		return false
	}
	s.delivery.Lock()
	defer s.delivery.Unlock()
	write(s.sink)
	return true
}

// Deliver invokes the capture callback with f32 samples.
// It returns false without calling the sink when the stream is not playing.
func (s *Stream) Deliver(samples []float32) bool {
	return s.deliver(func(sink audio.SampleSink) { sink.WriteFloat32(samples) })
}

// DeliverInt16 invokes the capture callback with i16 samples
func (s *Stream) DeliverInt16(samples []int16) bool {
	return s.deliver(func(sink audio.SampleSink) { sink.WriteInt16(samples) })
}

// DeliverUint16 invokes the capture callback with u16 samples
func (s *Stream) DeliverUint16(samples []uint16) bool {
	return s.deliver(func(sink audio.SampleSink) { sink.WriteUint16(samples) })
}

// Host is a fake audio.Host
type Host struct {
	mu sync.Mutex

	devices       []audio.Device
	defaultDevice audio.Device
	streams       []*Stream

	devicesErr error
	defaultErr error
	openErr    error
	closed     bool
}

// FailDevices makes InputDevices return err alongside the devices
func (h *Host) FailDevices(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.devicesErr = err
}

// FailDefault makes DefaultInputDevice return err
func (h *Host) FailDefault(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.defaultErr = err
}

// FailOpen makes OpenInputStream return err
func (h *Host) FailOpen(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.openErr = err
}

// NewHost returns a host with the given devices; the first one is the default
func NewHost(devices ...*Device) *Host {
	h := &Host{}
	for _, d := range devices {
		h.devices = append(h.devices, d)
	}
	if len(devices) > 0 {
		h.defaultDevice = devices[0]
	}
	return h
}

// SetDefault changes the default input device; nil means none
func (h *Host) SetDefault(d *Device) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d == nil {
		h.defaultDevice = nil
		return
	}
	h.defaultDevice = d
}

// AddDevice appends a device to the enumeration
func (h *Host) AddDevice(d *Device) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.devices = append(h.devices, d)
}

func (h *Host) Name() string {
	return "fake"
}

func (h *Host) InputDevices() ([]audio.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]audio.Device, len(h.devices))
	copy(out, h.devices)
	return out, h.devicesErr
}

func (h *Host) DefaultInputDevice() (audio.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.defaultErr != nil {
		return nil, h.defaultErr
	}
	if h.defaultDevice == nil {
		return nil, audio.ErrNoDefaultDevice
	}
	return h.defaultDevice, nil
}

func (h *Host) OpenInputStream(device audio.Device, config audio.CaptureConfig, sink audio.SampleSink) (audio.Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := device.(*Device); !ok {
		return nil, audio.ErrForeignDevice
	}
	if h.openErr != nil {
		return nil, h.openErr
	}
	if config.Format == audio.FormatUnknown {
		return nil, audio.ErrUnsupportedFormat
	}

	s := &Stream{config: config, sink: sink}
	h.streams = append(h.streams, s)
	return s, nil
}

// Streams returns every stream opened so far
func (h *Host) Streams() []*Stream {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*Stream, len(h.streams))
	copy(out, h.streams)
	return out
}

// LastStream returns the most recently opened stream, or nil
func (h *Host) LastStream() *Stream {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.streams) == 0 {
		return nil
	}
	return h.streams[len(h.streams)-1]
}

func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Closed reports whether Close was called
func (h *Host) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
