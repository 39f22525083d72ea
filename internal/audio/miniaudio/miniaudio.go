// Package miniaudio implements audio.Host on top of miniaudio via malgo.
package miniaudio

import (
	"fmt"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
)

// miniaudio reports a zero sample rate when a native format accepts any rate
const (
	minSampleRate = 8000
	maxSampleRate = 384000
)

// Host implements audio.Host using a miniaudio context
type Host struct {
	ctx *malgo.AllocatedContext
	log *logger.Logger
}

// NewHost initializes a miniaudio context
func NewHost(log *logger.Logger) (*Host, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug("miniaudio: %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize miniaudio context: %w", err)
	}

	return &Host{ctx: ctx, log: log}, nil
}

// Name returns the backend name
func (h *Host) Name() string {
	return "miniaudio"
}

// InputDevices returns all capture devices
func (h *Host) InputDevices() ([]audio.Device, error) {
	infos, err := h.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}

	result := make([]audio.Device, 0, len(infos))
	for _, info := range infos {
		result = append(result, &device{
			host:  h,
			name:  info.Name(),
			id:    info.ID,
			hasID: true,
		})
	}
	return result, nil
}

// DefaultInputDevice returns the device flagged as default, or miniaudio's
// implicit default when the backend does not flag one.
func (h *Host) DefaultInputDevice() (audio.Device, error) {
	infos, err := h.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}

	for _, info := range infos {
		if info.IsDefault != 0 {
			return &device{host: h, name: info.Name(), id: info.ID, hasID: true}, nil
		}
	}

	if len(infos) == 0 {
		return nil, audio.ErrNoDefaultDevice
	}
	return &device{host: h, name: audio.DefaultDeviceName}, nil
}

// OpenInputStream initializes a stopped capture device delivering into sink
func (h *Host) OpenInputStream(dev audio.Device, config audio.CaptureConfig, sink audio.SampleSink) (audio.Stream, error) {
	d, ok := dev.(*device)
	if !ok || d.host != h {
		return nil, audio.ErrForeignDevice
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Channels = uint32(config.Channels)
	deviceConfig.SampleRate = config.SampleRate
	if d.hasID {
		deviceConfig.Capture.DeviceID = d.id.Pointer()
	}

	var onData func(pOutputSample, pInputSample []byte, frameCount uint32)
	switch config.Format {
	case audio.FormatFloat32:
		deviceConfig.Capture.Format = malgo.FormatF32
		onData = func(_, in []byte, _ uint32) {
			if len(in) < 4 {
				return
			}
			sink.WriteFloat32(unsafe.Slice((*float32)(unsafe.Pointer(&in[0])), len(in)/4))
		}
	case audio.FormatInt16:
		deviceConfig.Capture.Format = malgo.FormatS16
		onData = func(_, in []byte, _ uint32) {
			if len(in) < 2 {
				return
			}
			sink.WriteInt16(unsafe.Slice((*int16)(unsafe.Pointer(&in[0])), len(in)/2))
		}
	default:
		return nil, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, config.Format)
	}

	device, err := malgo.InitDevice(h.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init capture device: %w", err)
	}

	h.log.Debug("Opened miniaudio capture device '%s': %dHz, %d channels, %s",
		d.name, config.SampleRate, config.Channels, config.Format)
	return &stream{dev: device}, nil
}

// Close releases the miniaudio context
func (h *Host) Close() error {
	if h.ctx == nil {
		return nil
	}
	if err := h.ctx.Uninit(); err != nil {
		return fmt.Errorf("failed to uninit miniaudio context: %w", err)
	}
	h.ctx.Free()
	h.ctx = nil
	return nil
}

type device struct {
	host  *Host
	name  string
	id    malgo.DeviceID
	hasID bool
}

func (d *device) Name() string {
	return d.name
}

func (d *device) nativeFormats() ([]malgo.DataFormat, error) {
	if !d.hasID {
		return nil, nil
	}

	info, err := d.host.ctx.DeviceInfo(malgo.Capture, d.id, malgo.Shared)
	if err != nil {
		return nil, fmt.Errorf("failed to query device info: %w", err)
	}
	return info.Formats[:info.FormatCount], nil
}

// toRange maps a native format; miniaudio converts anything that is not s16 to f32 for us
func toRange(f malgo.DataFormat) audio.ConfigRange {
	r := audio.ConfigRange{
		Channels:      uint16(f.Channels),
		MinSampleRate: f.SampleRate,
		MaxSampleRate: f.SampleRate,
		Format:        audio.FormatFloat32,
	}
	if f.Format == malgo.FormatS16 {
		r.Format = audio.FormatInt16
	}
	if r.Channels == 0 {
		r.Channels = 1
	}
	if f.SampleRate == 0 {
		r.MinSampleRate = minSampleRate
		r.MaxSampleRate = maxSampleRate
	}
	return r
}

func (d *device) SupportedInputConfigs() ([]audio.ConfigRange, error) {
	formats, err := d.nativeFormats()
	if err != nil {
		return nil, err
	}

	if len(formats) == 0 {
		// Implicit default device: miniaudio resamples and converts to whatever we request
		return []audio.ConfigRange{{
			Channels:      1,
			MinSampleRate: minSampleRate,
			MaxSampleRate: maxSampleRate,
			Format:        audio.FormatFloat32,
		}}, nil
	}

	ranges := make([]audio.ConfigRange, 0, len(formats))
	for _, f := range formats {
		ranges = append(ranges, toRange(f))
	}
	return ranges, nil
}

// DefaultInputConfig returns the first native format, which miniaudio lists as preferred
func (d *device) DefaultInputConfig() (audio.CaptureConfig, error) {
	formats, err := d.nativeFormats()
	if err != nil {
		return audio.CaptureConfig{}, err
	}

	if len(formats) == 0 {
		return audio.CaptureConfig{SampleRate: 48000, Channels: 1, Format: audio.FormatFloat32}, nil
	}

	r := toRange(formats[0])
	rate := r.MinSampleRate
	if formats[0].SampleRate == 0 {
		rate = 48000
	}
	return r.WithSampleRate(rate), nil
}

type stream struct {
	dev *malgo.Device
}

func (s *stream) Play() error {
	if s.dev.IsStarted() {
		return nil
	}
	return s.dev.Start()
}

func (s *stream) Pause() error {
	if !s.dev.IsStarted() {
		return nil
	}
	return s.dev.Stop()
}

func (s *stream) Close() error {
	s.dev.Uninit()
	return nil
}
