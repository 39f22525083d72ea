package recording

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/audio/audiotest"
	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
)

func newTestManager(t *testing.T, devices ...*audiotest.Device) (*Manager, *audiotest.Host) {
	t.Helper()

	if len(devices) == 0 {
		devices = []*audiotest.Device{
			audiotest.NewDevice("Built-in Microphone"),
			audiotest.NewDevice("USB Headset"),
		}
	}

	host := audiotest.NewHost(devices...)
	m := NewManager(host, audio.DefaultSessionOptions(), logger.Nop())
	t.Cleanup(func() {
		m.CloseThread()
		m.Close()
	})
	return m, host
}

func samples(n int, value float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = value
	}
	return s
}

func assertState(t *testing.T, m *Manager, want State) {
	t.Helper()

	got, err := m.GetRecorderState()
	if err != nil {
		t.Fatalf("GetRecorderState failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected state %s, got %s", want, got)
	}
}

func TestEnumerateRecordingDevices(t *testing.T) {
	m, _ := newTestManager(t)

	devices, err := m.EnumerateRecordingDevices()
	if err != nil {
		t.Fatalf("EnumerateRecordingDevices failed: %v", err)
	}

	if len(devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(devices))
	}
	for _, d := range devices {
		if d.DeviceID != d.Label {
			t.Errorf("Expected deviceId == label, got %q / %q", d.DeviceID, d.Label)
		}
	}
	if devices[0].Label != "Built-in Microphone" {
		t.Errorf("Unexpected first device %q", devices[0].Label)
	}
}

func TestEnumerateRecordingDevicesPartialFailure(t *testing.T) {
	m, host := newTestManager(t)
	host.FailDevices(errors.New("backend hiccup"))

	devices, err := m.EnumerateRecordingDevices()

	var audioErr *AudioError
	if !errors.As(err, &audioErr) {
		t.Fatalf("Expected AudioError, got %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("Expected partial device list, got %v", devices)
	}

	// The worker keeps serving after a failure
	assertState(t, m, Idle)
}

func TestInitUnknownDevice(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.EnumerateRecordingDevices(); err != nil {
		t.Fatalf("EnumerateRecordingDevices failed: %v", err)
	}

	_, err := m.InitRecordingSession("NoSuchMic")

	var audioErr *AudioError
	if !errors.As(err, &audioErr) {
		t.Fatalf("Expected AudioError, got %v", err)
	}
	for _, want := range []string{"NoSuchMic", "Built-in Microphone", "USB Headset"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got %q", want, err.Error())
		}
	}
	if ErrorKind(err) != "AudioError" {
		t.Errorf("Expected kind AudioError, got %q", ErrorKind(err))
	}

	assertState(t, m, Idle)
}

func TestDefaultDeviceRecording(t *testing.T) {
	m, host := newTestManager(t)

	info, err := m.InitRecordingSession("default")
	if err != nil {
		t.Fatalf("InitRecordingSession failed: %v", err)
	}
	if info.DeviceName != "Built-in Microphone" || info.SampleRate != 16000 || info.Channels != 1 {
		t.Errorf("Unexpected session info: %+v", info)
	}

	if err := m.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	stream := host.LastStream()
	for i := 0; i < 3; i++ {
		if !stream.Deliver(samples(100, 0.25)) {
			t.Fatal("Stream did not accept delivery while recording")
		}
	}

	rec, err := m.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}

	if len(rec.AudioData) != 300 {
		t.Errorf("Expected 300 samples, got %d", len(rec.AudioData))
	}
	if rec.SampleRate != 16000 || rec.Channels != 1 {
		t.Errorf("Unexpected format %dHz/%dch", rec.SampleRate, rec.Channels)
	}

	want := float64(len(rec.AudioData)) / (float64(rec.SampleRate) * float64(rec.Channels))
	if math.Abs(float64(rec.DurationSeconds)-want) > 1e-6 {
		t.Errorf("Expected duration %v, got %v", want, rec.DurationSeconds)
	}
}

func TestStateMachine(t *testing.T) {
	m, _ := newTestManager(t)

	steps := []struct {
		name string
		op   func() error
		want State
	}{
		{"initial", func() error { return nil }, Idle},
		{"init", func() error { _, err := m.InitRecordingSession("USB Headset"); return err }, SessionOpen},
		{"start", m.StartRecording, Recording},
		{"restart while recording", m.StartRecording, Recording},
		{"stop", func() error { _, err := m.StopRecording(); return err }, SessionOpen},
		{"stop again", func() error { _, err := m.StopRecording(); return err }, SessionOpen},
		{"start", m.StartRecording, Recording},
		{"cancel", m.CancelRecording, SessionOpen},
		{"reinit replaces session", func() error { _, err := m.InitRecordingSession("default"); return err }, SessionOpen},
		{"start", m.StartRecording, Recording},
		{"close session", m.CloseRecordingSession, Idle},
	}

	for _, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		got, err := m.GetRecorderState()
		if err != nil {
			t.Fatalf("%s: GetRecorderState failed: %v", step.name, err)
		}
		if got != step.want {
			t.Errorf("%s: expected %s, got %s", step.name, step.want, got)
		}
	}
}

func TestReinitClosesPreviousStream(t *testing.T) {
	m, host := newTestManager(t)

	if _, err := m.InitRecordingSession("USB Headset"); err != nil {
		t.Fatalf("First init failed: %v", err)
	}
	first := host.LastStream()

	if _, err := m.InitRecordingSession("Built-in Microphone"); err != nil {
		t.Fatalf("Second init failed: %v", err)
	}

	if !first.Closed() {
		t.Error("Expected previous stream to be released on re-init")
	}
	if len(host.Streams()) != 2 {
		t.Errorf("Expected 2 streams opened, got %d", len(host.Streams()))
	}
}

func TestNoSessionErrors(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.StartRecording(); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("StartRecording: expected ErrNoActiveRecording, got %v", err)
	}
	if _, err := m.StopRecording(); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("StopRecording: expected ErrNoActiveRecording, got %v", err)
	}
	if err := m.CancelRecording(); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("CancelRecording: expected ErrNoActiveRecording, got %v", err)
	}

	assertState(t, m, Idle)
}

func TestIdempotentClose(t *testing.T) {
	m, _ := newTestManager(t)

	// No worker yet
	if err := m.CloseThread(); err != nil {
		t.Errorf("CloseThread without worker: %v", err)
	}

	if err := m.CloseRecordingSession(); err != nil {
		t.Errorf("CloseRecordingSession without session: %v", err)
	}
	if err := m.CloseRecordingSession(); err != nil {
		t.Errorf("Second CloseRecordingSession: %v", err)
	}
	if err := m.CloseThread(); err != nil {
		t.Errorf("CloseThread without session: %v", err)
	}
	if err := m.CloseThread(); err != nil {
		t.Errorf("Second CloseThread: %v", err)
	}
}

func TestCloseThreadReleasesSession(t *testing.T) {
	m, host := newTestManager(t)

	if _, err := m.InitRecordingSession("default"); err != nil {
		t.Fatalf("InitRecordingSession failed: %v", err)
	}
	if err := m.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	if err := m.CloseThread(); err != nil {
		t.Fatalf("CloseThread failed: %v", err)
	}
	if !host.LastStream().Closed() {
		t.Error("Expected stream released by CloseThread")
	}

	// The next call lazily starts a fresh worker with no session
	assertState(t, m, Idle)
}

func TestBufferResetBetweenCycles(t *testing.T) {
	m, host := newTestManager(t)

	if _, err := m.InitRecordingSession("default"); err != nil {
		t.Fatalf("InitRecordingSession failed: %v", err)
	}
	stream := host.LastStream()

	m.StartRecording()
	stream.Deliver(samples(400, 1))
	first, err := m.StopRecording()
	if err != nil {
		t.Fatalf("First stop failed: %v", err)
	}

	m.StartRecording()
	stream.Deliver(samples(150, -1))
	second, err := m.StopRecording()
	if err != nil {
		t.Fatalf("Second stop failed: %v", err)
	}

	if len(first.AudioData) != 400 || len(second.AudioData) != 150 {
		t.Fatalf("Unexpected lengths %d / %d", len(first.AudioData), len(second.AudioData))
	}
	for _, s := range second.AudioData {
		if s != -1 {
			t.Fatal("Second cycle contains samples from the first cycle")
		}
	}
}

func TestConfigFallbackWithout16kHz(t *testing.T) {
	dev := audiotest.NewFixedDevice("Studio Interface", audio.CaptureConfig{
		SampleRate: 48000,
		Channels:   2,
		Format:     audio.FormatInt16,
	})
	m, host := newTestManager(t, dev)

	info, err := m.InitRecordingSession("Studio Interface")
	if err != nil {
		t.Fatalf("InitRecordingSession failed: %v", err)
	}
	if info.SampleRate != 48000 || info.Channels != 2 || info.Format != "i16" {
		t.Errorf("Expected device default config, got %+v", info)
	}

	m.StartRecording()
	host.LastStream().DeliverInt16(make([]int16, 960))
	rec, err := m.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if math.Abs(float64(rec.DurationSeconds)-0.01) > 1e-6 {
		t.Errorf("Expected 10ms, got %v", rec.DurationSeconds)
	}
}

func TestInitFailuresAreNonFatal(t *testing.T) {
	noConfigs := &audiotest.Device{DeviceName: "Broken"}
	m, host := newTestManager(t, audiotest.NewDevice("Mic"), noConfigs)

	_, err := m.InitRecordingSession("Broken")
	if err == nil || !strings.Contains(err.Error(), "configuration error") {
		t.Errorf("Expected configuration error, got %v", err)
	}

	host.FailOpen(errors.New("device busy"))
	if _, err := m.InitRecordingSession("Mic"); ErrorKind(err) != "AudioError" {
		t.Errorf("Expected AudioError for stream failure, got %v", err)
	}

	host.FailOpen(nil)
	if _, err := m.InitRecordingSession("Mic"); err != nil {
		t.Fatalf("Worker did not recover after failures: %v", err)
	}
	assertState(t, m, SessionOpen)
}

func TestStartFailureKeepsSession(t *testing.T) {
	m, host := newTestManager(t)

	if _, err := m.InitRecordingSession("default"); err != nil {
		t.Fatalf("InitRecordingSession failed: %v", err)
	}
	host.LastStream().FailPlay(errors.New("device unplugged"))

	err := m.StartRecording()
	if ErrorKind(err) != "AudioError" {
		t.Errorf("Expected AudioError, got %v", err)
	}
	assertState(t, m, SessionOpen)
}

func TestCloseRejectsLaterCalls(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.InitRecordingSession("default"); err != nil {
		t.Fatalf("InitRecordingSession failed: %v", err)
	}

	m.Close()
	m.Close()

	if _, err := m.GetRecorderState(); !errors.Is(err, ErrThreadNotInitialized) {
		t.Errorf("Expected ErrThreadNotInitialized, got %v", err)
	}
	if !IsTransport(ErrThreadNotInitialized) {
		t.Error("ErrThreadNotInitialized should be a transport error")
	}
}

func TestWorkerPanicSurfacesAsReceiveFailed(t *testing.T) {
	dev := audiotest.NewDevice("Mic")
	host := &panickingHost{Host: audiotest.NewHost(dev), panics: true}
	m := NewManager(host, audio.DefaultSessionOptions(), logger.Nop())
	defer m.Close()

	_, err := m.EnumerateRecordingDevices()
	if !errors.Is(err, ErrReceiveFailed) {
		t.Fatalf("Expected ErrReceiveFailed, got %v", err)
	}
	if !IsTransport(err) {
		t.Error("Expected transport error")
	}

	// A fresh worker is started on the next call
	host.panics = false
	if _, err := m.EnumerateRecordingDevices(); err != nil {
		t.Errorf("Expected recovery with a new worker, got %v", err)
	}
}

type panickingHost struct {
	*audiotest.Host
	panics bool
}

func (h *panickingHost) InputDevices() ([]audio.Device, error) {
	if h.panics {
		panic("driver crashed")
	}
	return h.Host.InputDevices()
}

func TestConcurrentCallers(t *testing.T) {
	m, host := newTestManager(t)

	if _, err := m.InitRecordingSession("default"); err != nil {
		t.Fatalf("InitRecordingSession failed: %v", err)
	}
	if err := m.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	stream := host.LastStream()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := m.GetRecorderState(); err != nil {
					t.Errorf("GetRecorderState failed: %v", err)
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			stream.Deliver(samples(32, 0.1))
			time.Sleep(100 * time.Microsecond)
		}
	}()

	wg.Wait()

	rec, err := m.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if len(rec.AudioData) != 50*32 {
		t.Errorf("Expected %d samples, got %d", 50*32, len(rec.AudioData))
	}
}
