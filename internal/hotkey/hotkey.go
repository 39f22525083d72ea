package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	"github.com/yok-tottii/EzS2T-Recorder/internal/config"
)

// RecordingMode defines how the hotkey triggers recording
type RecordingMode int

const (
	// PressToHold mode: record while key is held down
	PressToHold RecordingMode = iota
	// Toggle mode: first press starts, second press stops
	Toggle
)

func (m RecordingMode) String() string {
	if m == Toggle {
		return "toggle"
	}
	return "press-to-hold"
}

// EventType represents the type of hotkey event
type EventType int

const (
	// Pressed indicates recording should begin
	Pressed EventType = iota
	// Released indicates recording should end
	Released
)

// Event represents a hotkey event
type Event struct {
	Type EventType
}

// Config holds hotkey configuration
type Config struct {
	Modifiers []hotkey.Modifier
	Key       hotkey.Key
	Mode      RecordingMode
}

// FromSettings builds a Config from the persisted hotkey settings
func FromSettings(settings config.HotkeyConfig, mode string) (Config, error) {
	key, err := ParseKey(settings.Key)
	if err != nil {
		return Config{}, err
	}

	recordingMode, err := ParseMode(mode)
	if err != nil {
		return Config{}, err
	}

	mods := Modifiers(settings.Ctrl, settings.Shift, settings.Alt, settings.Cmd)
	if len(mods) == 0 {
		return Config{}, fmt.Errorf("hotkey %s needs at least one modifier", FormatHotkey(settings))
	}

	return Config{Modifiers: mods, Key: key, Mode: recordingMode}, nil
}

// Manager manages global hotkey registration and events
type Manager struct {
	hk        *hotkey.Hotkey
	config    Config
	eventChan chan Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// New creates a new hotkey manager with the default Ctrl+Alt+Space binding
func New() *Manager {
	return &Manager{
		config: Config{
			Modifiers: Modifiers(true, false, true, false),
			Key:       hotkey.KeySpace,
			Mode:      PressToHold,
		},
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
	}
}

// Register registers the hotkey with the system
func (m *Manager) Register(config Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("hotkey is already running, call Close() first")
	}

	m.config = config

	// Channels may have been closed by a previous Close()
	m.stopChan = make(chan struct{})
	m.eventChan = make(chan Event, 10)

	hk := hotkey.New(m.config.Modifiers, m.config.Key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey: %w", err)
	}

	m.hk = hk
	m.running = true

	m.wg.Add(1)
	go m.listen(hk, m.config.Mode, m.eventChan, m.stopChan)

	return nil
}

// RegisterDefault registers the current configuration
func (m *Manager) RegisterDefault() error {
	return m.Register(m.GetConfig())
}

// listen turns key edges into Pressed/Released events according to mode
func (m *Manager) listen(hk *hotkey.Hotkey, mode RecordingMode, events chan<- Event, stop <-chan struct{}) {
	defer m.wg.Done()

	emit := func(t EventType) bool {
		select {
		case events <- Event{Type: t}:
			return true
		case <-stop:
			return false
		}
	}

	recording := false
	for {
		select {
		case <-hk.Keydown():
			switch mode {
			case PressToHold:
				if !emit(Pressed) {
					return
				}
			case Toggle:
				next := Pressed
				if recording {
					next = Released
				}
				if !emit(next) {
					return
				}
				recording = !recording
			}

		case <-hk.Keyup():
			if mode == PressToHold && !emit(Released) {
				return
			}

		case <-stop:
			return
		}
	}
}

// Events returns the event channel for receiving hotkey events
func (m *Manager) Events() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventChan
}

// Close unregisters the hotkey and stops listening.
// The event channel is closed so consumers observe shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	close(m.stopChan)
	m.wg.Wait()

	// Cleanup continues even when Unregister fails so a later Register can succeed
	var unregisterErr error
	if m.hk != nil {
		if err := m.hk.Unregister(); err != nil {
			unregisterErr = fmt.Errorf("failed to unregister hotkey: %w", err)
		}
		m.hk = nil
	}

	close(m.eventChan)
	m.running = false

	return unregisterErr
}

// IsRunning returns whether the hotkey is currently registered and running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// GetConfig returns a copy of the current hotkey configuration
func (m *Manager) GetConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	configCopy := m.config
	if m.config.Modifiers != nil {
		configCopy.Modifiers = make([]hotkey.Modifier, len(m.config.Modifiers))
		copy(configCopy.Modifiers, m.config.Modifiers)
	}

	return configCopy
}
