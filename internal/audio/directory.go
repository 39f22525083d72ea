package audio

import (
	"fmt"
	"strings"
)

// DeviceNotFoundError is returned by FindDevice when no device has the requested name
type DeviceNotFoundError struct {
	Name      string
	Available []string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("device '%s' not found. Available devices: [%s]",
		e.Name, strings.Join(e.Available, ", "))
}

// Enumerate returns the display names of the host's current input devices.
// It is best-effort: names discovered before a failure are returned with the error.
func Enumerate(host Host) ([]string, error) {
	devices, err := host.InputDevices()

	names := make([]string, 0, len(devices))
	for _, dev := range devices {
		if dev == nil {
			continue
		}
		names = append(names, dev.Name())
	}

	if err != nil {
		return names, fmt.Errorf("failed to get input devices: %w", err)
	}
	return names, nil
}

// FindDevice resolves a device by exact display name.
// The literal "default" (any case) resolves to the host's default input device.
func FindDevice(host Host, name string) (Device, error) {
	if strings.EqualFold(name, DefaultDeviceName) {
		dev, err := host.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDefaultDevice, err)
		}
		if dev == nil {
			return nil, ErrNoDefaultDevice
		}
		return dev, nil
	}

	devices, err := host.InputDevices()
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to get input devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevices
	}

	available := make([]string, 0, len(devices))
	for _, dev := range devices {
		if dev == nil {
			continue
		}
		if dev.Name() == name {
			return dev, nil
		}
		available = append(available, dev.Name())
	}

	return nil, &DeviceNotFoundError{Name: name, Available: available}
}
