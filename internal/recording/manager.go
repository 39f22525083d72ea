package recording

import (
	"fmt"
	"sync"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
)

// Manager is the synchronous facade over the audio worker.
// Each operation sends one Command and blocks for its Response. Calls are
// serialized, so at most one command is ever in flight.
type Manager struct {
	mu     sync.Mutex
	host   audio.Host
	opts   audio.SessionOptions
	log    *logger.Logger
	worker *Worker
	closed bool
}

// NewManager creates a manager; the worker is started lazily on first use
func NewManager(host audio.Host, opts audio.SessionOptions, log *logger.Logger) *Manager {
	return &Manager{
		host: host,
		opts: opts,
		log:  log,
	}
}

// ensureWorker returns the running worker, spawning one if needed; callers hold mu
func (m *Manager) ensureWorker() (*Worker, error) {
	if m.closed {
		return nil, ErrThreadNotInitialized
	}

	if m.worker == nil {
		m.log.Debug("Initializing audio thread...")
		m.worker = newWorker(m.host, m.opts, m.log)
		go m.worker.run()
		m.log.Info("Audio thread initialized")
	}

	return m.worker, nil
}

// roundTrip sends cmd to w and waits for its reply; callers hold mu.
// A worker that fails in transit is forgotten so the next call starts a fresh one.
func (m *Manager) roundTrip(w *Worker, cmd Command) (Response, error) {
	select {
	case <-w.done:
		m.worker = nil
		return Response{}, fmt.Errorf("%w: %s", ErrSendFailed, cmd.Kind)
	default:
	}

	select {
	case w.commands <- cmd:
	case <-w.done:
		m.worker = nil
		return Response{}, fmt.Errorf("%w: %s", ErrSendFailed, cmd.Kind)
	}

	resp, ok := <-w.responses
	if !ok {
		m.worker = nil
		return Response{}, fmt.Errorf("%w: %s", ErrReceiveFailed, cmd.Kind)
	}
	return resp, nil
}

func (m *Manager) send(cmd Command) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, err := m.ensureWorker()
	if err != nil {
		return Response{}, err
	}

	resp, err := m.roundTrip(w, cmd)
	if err != nil {
		return Response{}, err
	}
	if resp.Kind == Error {
		return resp, resp.Err
	}
	return resp, nil
}

func unexpected(cmd CommandKind, resp Response) error {
	return audioErrorf("unexpected response to %s: %d", cmd, resp.Kind)
}

// EnumerateRecordingDevices lists the current input devices.
// On a partial failure the devices found so far are returned with the error.
func (m *Manager) EnumerateRecordingDevices() ([]DeviceInfo, error) {
	m.log.Debug("Enumerating recording devices")

	resp, err := m.send(Command{Kind: EnumerateRecordingDevices})
	devices := make([]DeviceInfo, 0, len(resp.Devices))
	for _, name := range resp.Devices {
		devices = append(devices, DeviceInfo{DeviceID: name, Label: name})
	}

	if err != nil {
		m.log.Error("Failed to enumerate devices: %v", err)
		return devices, err
	}
	if resp.Kind != DeviceList {
		return nil, unexpected(EnumerateRecordingDevices, resp)
	}

	m.log.Info("Found %d recording devices", len(devices))
	return devices, nil
}

// InitRecordingSession opens a session on deviceName, replacing any existing one.
// The literal "default" selects the host's default input device.
func (m *Manager) InitRecordingSession(deviceName string) (SessionInfo, error) {
	m.log.Info("Initializing recording session with device: %s", deviceName)

	resp, err := m.send(Command{Kind: InitRecordingSession, DeviceName: deviceName})
	if err != nil {
		m.log.Error("Failed to initialize recording session: %v", err)
		return SessionInfo{}, err
	}
	if resp.Kind != SessionReady {
		return SessionInfo{}, unexpected(InitRecordingSession, resp)
	}

	m.log.Info("Recording session initialized: %dHz, %d channels", resp.Session.SampleRate, resp.Session.Channels)
	return resp.Session, nil
}

// CloseRecordingSession drops the session if one is open
func (m *Manager) CloseRecordingSession() error {
	m.log.Info("Closing recording session")

	resp, err := m.send(Command{Kind: CloseRecordingSession})
	if err != nil {
		m.log.Error("Failed to close recording session: %v", err)
		return err
	}
	if resp.Kind != Success {
		return unexpected(CloseRecordingSession, resp)
	}
	return nil
}

// GetRecorderState reports IDLE, SESSION or RECORDING
func (m *Manager) GetRecorderState() (State, error) {
	resp, err := m.send(Command{Kind: GetRecorderState})
	if err != nil {
		return Idle, err
	}
	if resp.Kind != StateReport {
		return Idle, unexpected(GetRecorderState, resp)
	}
	return resp.State, nil
}

// StartRecording clears the session buffer and begins capture
func (m *Manager) StartRecording() error {
	m.log.Info("Starting recording")

	resp, err := m.send(Command{Kind: StartRecording})
	if err != nil {
		m.log.Error("Failed to start recording: %v", err)
		return err
	}
	if resp.Kind != Success {
		return unexpected(StartRecording, resp)
	}
	return nil
}

// StopRecording ends capture and returns everything captured since the last start
func (m *Manager) StopRecording() (*audio.AudioRecording, error) {
	m.log.Info("Stopping recording")

	resp, err := m.send(Command{Kind: StopRecording})
	if err != nil {
		m.log.Error("Failed to stop recording: %v", err)
		return nil, err
	}
	if resp.Kind != AudioData || resp.Recording == nil {
		return nil, unexpected(StopRecording, resp)
	}

	m.log.Info("Recording stopped (%d samples, %.2fs)", len(resp.Recording.AudioData), resp.Recording.DurationSeconds)
	return resp.Recording, nil
}

// CancelRecording stops recording and discards the captured audio
func (m *Manager) CancelRecording() error {
	m.log.Info("Canceling recording")

	if _, err := m.StopRecording(); err != nil {
		return err
	}
	return nil
}

// CloseThread closes any session and terminates the worker, waiting for it to exit.
// It succeeds when no worker is running. A later call starts a new worker.
func (m *Manager) CloseThread() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.worker
	if w == nil {
		m.log.Debug("No audio thread to close")
		return nil
	}

	resp, err := m.roundTrip(w, Command{Kind: CloseThread})
	m.worker = nil
	if err != nil {
		return err
	}

	<-w.done
	if resp.Kind != Success {
		return unexpected(CloseThread, resp)
	}

	m.log.Info("Audio thread closed")
	return nil
}

// Close is the teardown path. It asks the worker to exit without waiting for
// the acknowledgment and rejects every later call with ErrThreadNotInitialized.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	w := m.worker
	m.worker = nil
	if w == nil {
		return
	}

	select {
	case w.commands <- Command{Kind: CloseThread}:
	default:
		m.log.Warn("Audio thread busy, CloseThread not delivered")
	}
}
