package audio

import "fmt"

// Selection records which rule picked a CaptureConfig
type Selection int

const (
	// SelectedVoiceMono is a mono configuration pinned to 16kHz
	SelectedVoiceMono Selection = iota
	// SelectedVoiceRate is any configuration pinned to 16kHz
	SelectedVoiceRate
	// SelectedDeviceDefault is the device's default input configuration, unmodified
	SelectedDeviceDefault
)

// String returns the string representation of the selection
func (s Selection) String() string {
	switch s {
	case SelectedVoiceMono:
		return "voice-optimized"
	case SelectedVoiceRate:
		return "voice sample rate"
	case SelectedDeviceDefault:
		return "device default"
	default:
		return "unknown"
	}
}

// SelectConfig chooses the capture configuration for a device.
//
// Precedence:
//  1. a mono configuration whose range contains 16kHz, pinned to 16kHz
//  2. any configuration whose range contains 16kHz, pinned to 16kHz
//  3. the device's default input configuration
func SelectConfig(device Device) (CaptureConfig, Selection, error) {
	ranges, err := device.SupportedInputConfigs()
	if err != nil {
		return CaptureConfig{}, 0, fmt.Errorf("failed to query supported configs: %w", err)
	}

	if len(ranges) == 0 {
		return CaptureConfig{}, 0, ErrNoSupportedConfigs
	}

	for _, r := range ranges {
		if r.Channels == 1 && r.Contains(VoiceSampleRate) {
			return r.WithSampleRate(VoiceSampleRate), SelectedVoiceMono, nil
		}
	}

	for _, r := range ranges {
		if r.Contains(VoiceSampleRate) {
			return r.WithSampleRate(VoiceSampleRate), SelectedVoiceRate, nil
		}
	}

	config, err := device.DefaultInputConfig()
	if err != nil {
		return CaptureConfig{}, 0, fmt.Errorf("failed to get default input config: %w", err)
	}
	return config, SelectedDeviceDefault, nil
}
