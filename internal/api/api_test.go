package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/audio/audiotest"
	"github.com/yok-tottii/EzS2T-Recorder/internal/config"
	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
	"github.com/yok-tottii/EzS2T-Recorder/internal/recording"
)

type testEnv struct {
	handler *Handler
	host    *audiotest.Host
	manager *recording.Manager
	config  *config.Config
	mux     *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	host := audiotest.NewHost(
		audiotest.NewDevice("Built-in Microphone"),
		audiotest.NewDevice("USB Headset"),
	)
	manager := recording.NewManager(host, audio.DefaultSessionOptions(), logger.Nop())
	t.Cleanup(func() {
		manager.CloseThread()
		manager.Close()
	})

	cfg := config.DefaultConfig()
	cfg.RecordingsDir = filepath.Join(t.TempDir(), "recordings")

	handler := New(manager, cfg, filepath.Join(t.TempDir(), "config.json"), logger.Nop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &testEnv{handler: handler, host: host, manager: manager, config: cfg, mux: mux}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestNew(t *testing.T) {
	env := newTestEnv(t)

	if env.handler.manager != env.manager {
		t.Error("Expected manager to be set")
	}

	if env.handler.config != env.config {
		t.Error("Expected config to be set")
	}
}

func TestGetDevices(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/devices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Devices []recording.DeviceInfo `json:"devices"`
	}
	decode(t, w, &response)

	if len(response.Devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(response.Devices))
	}
	if response.Devices[1].DeviceID != "USB Headset" || response.Devices[1].Label != "USB Headset" {
		t.Errorf("Unexpected device entry: %+v", response.Devices[1])
	}
}

func TestGetDevicesPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	env.host.FailDevices(errors.New("backend hiccup"))

	w := env.do(t, http.MethodGet, "/api/devices", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}

	var response DevicesResponse
	decode(t, w, &response)

	if len(response.Devices) != 2 {
		t.Errorf("Expected the devices listed before the failure, got %+v", response.Devices)
	}
	if response.Kind != "AudioError" {
		t.Errorf("Expected kind AudioError, got %q", response.Kind)
	}
	if !strings.Contains(response.Error, "backend hiccup") {
		t.Errorf("Expected error to mention the cause, got %q", response.Error)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/session", SessionRequest{DeviceName: "default"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var initResp map[string]interface{}
	decode(t, w, &initResp)
	if initResp["status"] != "success" || initResp["sampleRate"] != float64(16000) || initResp["channels"] != float64(1) {
		t.Errorf("Unexpected init response: %v", initResp)
	}

	assertState(t, env, "SESSION")

	if w := env.do(t, http.MethodPost, "/api/recording/start", nil); w.Code != http.StatusOK {
		t.Fatalf("Start failed: %d %s", w.Code, w.Body.String())
	}
	assertState(t, env, "RECORDING")

	stream := env.host.LastStream()
	for i := 0; i < 3; i++ {
		stream.Deliver(make([]float32, 100))
	}

	w = env.do(t, http.MethodPost, "/api/recording/stop", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Stop failed: %d %s", w.Code, w.Body.String())
	}

	var stopResp struct {
		ID              string    `json:"id"`
		AudioData       []float32 `json:"audioData"`
		SampleRate      uint32    `json:"sampleRate"`
		Channels        uint16    `json:"channels"`
		DurationSeconds float32   `json:"durationSeconds"`
		File            string    `json:"file"`
	}
	decode(t, w, &stopResp)

	if len(stopResp.AudioData) != 300 {
		t.Errorf("Expected 300 samples, got %d", len(stopResp.AudioData))
	}
	if stopResp.SampleRate != 16000 || stopResp.Channels != 1 {
		t.Errorf("Unexpected format %d/%d", stopResp.SampleRate, stopResp.Channels)
	}
	if stopResp.ID == "" || stopResp.File != "" {
		t.Errorf("Unexpected id/file: %q / %q", stopResp.ID, stopResp.File)
	}
	assertState(t, env, "SESSION")

	if w := env.do(t, http.MethodDelete, "/api/session", nil); w.Code != http.StatusOK {
		t.Fatalf("Close session failed: %d", w.Code)
	}
	assertState(t, env, "IDLE")

	// Closing again is still a success
	if w := env.do(t, http.MethodDelete, "/api/session", nil); w.Code != http.StatusOK {
		t.Errorf("Second close session failed: %d", w.Code)
	}
}

func assertState(t *testing.T, env *testEnv, want string) {
	t.Helper()

	w := env.do(t, http.MethodGet, "/api/recorder/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("State request failed: %d", w.Code)
	}

	var resp map[string]string
	decode(t, w, &resp)
	if resp["state"] != want {
		t.Errorf("Expected state %s, got %s", want, resp["state"])
	}
}

func TestInitUnknownDevice(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/session", SessionRequest{DeviceName: "NoSuchMic"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}

	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Kind != "AudioError" {
		t.Errorf("Expected kind AudioError, got %q", resp.Kind)
	}
	for _, want := range []string{"NoSuchMic", "Built-in Microphone", "USB Headset"} {
		if !strings.Contains(resp.Error, want) {
			t.Errorf("Expected error to mention %q, got %q", want, resp.Error)
		}
	}
}

func TestSessionUsesConfiguredDevice(t *testing.T) {
	env := newTestEnv(t)
	env.config.DeviceName = "USB Headset"

	w := env.do(t, http.MethodPost, "/api/session", map[string]string{})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	decode(t, w, &resp)
	if resp["deviceName"] != "USB Headset" {
		t.Errorf("Expected configured device, got %v", resp["deviceName"])
	}
}

func TestNoActiveRecording(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/recording/start", "/api/recording/stop", "/api/recording/cancel"} {
		w := env.do(t, http.MethodPost, path, nil)
		if w.Code != http.StatusConflict {
			t.Errorf("%s: expected status 409, got %d", path, w.Code)
			continue
		}

		var resp ErrorResponse
		decode(t, w, &resp)
		if resp.Kind != "NoActiveRecording" {
			t.Errorf("%s: expected kind NoActiveRecording, got %q", path, resp.Kind)
		}
	}
}

func TestManagerClosed(t *testing.T) {
	env := newTestEnv(t)
	env.manager.Close()

	w := env.do(t, http.MethodGet, "/api/recorder/state", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}

	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Kind != "ThreadNotInitialized" {
		t.Errorf("Expected kind ThreadNotInitialized, got %q", resp.Kind)
	}
}

func TestCancelRecording(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/session", SessionRequest{DeviceName: "default"})
	env.do(t, http.MethodPost, "/api/recording/start", nil)

	w := env.do(t, http.MethodPost, "/api/recording/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Cancel failed: %d %s", w.Code, w.Body.String())
	}
	assertState(t, env, "SESSION")
}

func TestStopAndSave(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/session", SessionRequest{DeviceName: "default"})
	env.do(t, http.MethodPost, "/api/recording/start", nil)
	env.host.LastStream().Deliver(make([]float32, 1600))

	w := env.do(t, http.MethodPost, "/api/recording/stop?save=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Stop failed: %d %s", w.Code, w.Body.String())
	}

	var resp struct {
		File string `json:"file"`
	}
	decode(t, w, &resp)

	if resp.File == "" {
		t.Fatal("Expected file path in response")
	}
	if filepath.Dir(resp.File) != env.config.RecordingsDir {
		t.Errorf("Expected file in %s, got %s", env.config.RecordingsDir, resp.File)
	}
	info, err := os.Stat(resp.File)
	if err != nil {
		t.Fatalf("Recording file missing: %v", err)
	}
	// 44-byte header plus 1600 16-bit samples
	if info.Size() < 44+3200 {
		t.Errorf("Recording file too small: %d bytes", info.Size())
	}
}

func TestStopAndSaveFailureKeepsRecording(t *testing.T) {
	env := newTestEnv(t)

	// A directory cannot be created beneath a regular file
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	env.config.RecordingsDir = filepath.Join(blocker, "recordings")

	env.do(t, http.MethodPost, "/api/session", SessionRequest{DeviceName: "default"})
	env.do(t, http.MethodPost, "/api/recording/start", nil)
	env.host.LastStream().Deliver(make([]float32, 300))

	w := env.do(t, http.MethodPost, "/api/recording/stop?save=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		audio.AudioRecording
		File      string `json:"file"`
		SaveError string `json:"saveError"`
	}
	decode(t, w, &resp)

	if resp.SaveError == "" {
		t.Error("Expected saveError in response")
	}
	if resp.File != "" {
		t.Errorf("Expected no file path, got %q", resp.File)
	}
	if len(resp.AudioData) != 300 {
		t.Errorf("Expected 300 samples, got %d", len(resp.AudioData))
	}
}

func TestRecordingFileName(t *testing.T) {
	rec := audio.NewRecording(nil, 16000, 1)
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	name := RecordingFileName(rec, at)
	want := "recording-20260314-150926-" + rec.ID.String()[:8] + ".wav"
	if name != want {
		t.Errorf("Expected %q, got %q", want, name)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/devices"},
		{http.MethodGet, "/api/session"},
		{http.MethodPost, "/api/recorder/state"},
		{http.MethodGet, "/api/recording/start"},
		{http.MethodGet, "/api/recording/stop"},
		{http.MethodGet, "/api/recording/cancel"},
		{http.MethodDelete, "/api/settings"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, nil)
			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected status 405, got %d", w.Code)
			}
		})
	}
}

func TestGetSettings(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/settings", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response config.Config
	decode(t, w, &response)

	if response.DeviceName != env.config.DeviceName {
		t.Errorf("Expected DeviceName '%s', got '%s'", env.config.DeviceName, response.DeviceName)
	}
}

func TestPutSettings(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/settings", map[string]interface{}{
		"recording_mode": "toggle",
		"device_name":    "USB Headset",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if env.config.RecordingMode != "toggle" {
		t.Errorf("Expected RecordingMode 'toggle', got '%s'", env.config.RecordingMode)
	}

	saved, err := config.Load(env.handler.configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if saved.DeviceName != "USB Headset" {
		t.Errorf("Expected saved DeviceName 'USB Headset', got '%s'", saved.DeviceName)
	}
}

func TestPutSettingsInvalid(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader([]byte("invalid")))
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid JSON, got %d", w.Code)
	}

	w = env.do(t, http.MethodPut, "/api/settings", map[string]interface{}{"backend": "jack"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid backend, got %d", w.Code)
	}
}

func TestPutSettingsOutOfRange(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/settings", map[string]interface{}{
		"server_port":     0,
		"lock_timeout_ms": -1,
		"max_record_time": 0,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", w.Code, w.Body.String())
	}

	if env.config.ServerPort != 18765 || env.config.LockTimeoutMS != 500 || env.config.MaxRecordTime != 60 {
		t.Errorf("Rejected settings were applied: %+v", env.config.Clone())
	}
	if _, err := os.Stat(env.handler.configPath); !os.IsNotExist(err) {
		t.Errorf("Expected no config file after rejected update, stat err = %v", err)
	}
}

func TestPutSettingsRejectedIsNotPartiallyApplied(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]interface{}{
		"device_name":    "USB Headset",
		"recording_mode": "toggle",
		"backend":        "jack",
	}

	// Decoded map order is random, so repeat to cover valid keys being visited first
	for i := 0; i < 50; i++ {
		w := env.do(t, http.MethodPut, "/api/settings", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", w.Code)
		}
		if env.config.DeviceName != "default" || env.config.RecordingMode != "press-to-hold" {
			t.Fatalf("Iteration %d: rejected update was partially applied: device=%q mode=%q",
				i, env.config.DeviceName, env.config.RecordingMode)
		}
	}
}
