package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/yok-tottii/EzS2T-Recorder/internal/audio"
	"github.com/yok-tottii/EzS2T-Recorder/internal/config"
	"github.com/yok-tottii/EzS2T-Recorder/internal/logger"
	"github.com/yok-tottii/EzS2T-Recorder/internal/recording"
)

// Handler manages API endpoints
type Handler struct {
	manager    *recording.Manager
	config     *config.Config
	configPath string
	log        *logger.Logger
}

// New creates a new API handler. Settings are persisted to configPath on update.
func New(manager *recording.Manager, cfg *config.Config, configPath string, log *logger.Logger) *Handler {
	return &Handler{
		manager:    manager,
		config:     cfg,
		configPath: configPath,
		log:        log,
	}
}

// RegisterRoutes registers all API routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/settings", h.handleSettings)
	mux.HandleFunc("/api/devices", h.handleDevices)
	mux.HandleFunc("/api/session", h.handleSession)
	mux.HandleFunc("/api/recorder/state", h.handleState)
	mux.HandleFunc("/api/recording/start", h.handleStart)
	mux.HandleFunc("/api/recording/stop", h.handleStop)
	mux.HandleFunc("/api/recording/cancel", h.handleCancel)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// statusFor maps the recorder error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case recording.IsTransport(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, recording.ErrNoActiveRecording):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorResponse{
		Error: err.Error(),
		Kind:  recording.ErrorKind(err),
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
}

// handleSettings handles GET and PUT /api/settings
func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.config.Clone())
	case http.MethodPut:
		h.putSettings(w, r)
	default:
		methodNotAllowed(w)
	}
}

// putSettings updates the configuration and persists it
func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.config.Update(updates); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Failed to update config: %v", err)})
		return
	}

	if h.configPath != "" {
		if err := h.config.Save(h.configPath); err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("Failed to save config: %v", err)})
			return
		}
	}

	writeSuccess(w)
}

// handleDevices handles GET /api/devices
func (h *Handler) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	devices, err := h.manager.EnumerateRecordingDevices()
	if err != nil {
		// Enumeration is best effort: devices listed before the failure are kept
		writeJSON(w, statusFor(err), DevicesResponse{
			Devices: devices,
			Error:   err.Error(),
			Kind:    recording.ErrorKind(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, DevicesResponse{Devices: devices})
}

// DevicesResponse is the body of GET /api/devices
type DevicesResponse struct {
	Devices []recording.DeviceInfo `json:"devices"`
	Error   string                 `json:"error,omitempty"`
	Kind    string                 `json:"kind,omitempty"`
}

// SessionRequest is the body of POST /api/session
type SessionRequest struct {
	DeviceName string `json:"deviceName"`
}

// handleSession handles POST (init) and DELETE (close) /api/session
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req SessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
		if req.DeviceName == "" {
			req.DeviceName = h.config.Clone().DeviceName
		}

		info, err := h.manager.InitRecordingSession(req.DeviceName)
		if err != nil {
			h.writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "success",
			"deviceName": info.DeviceName,
			"sampleRate": info.SampleRate,
			"channels":   info.Channels,
			"format":     info.Format,
		})

	case http.MethodDelete:
		if err := h.manager.CloseRecordingSession(); err != nil {
			h.writeError(w, err)
			return
		}
		writeSuccess(w)

	default:
		methodNotAllowed(w)
	}
}

// handleState handles GET /api/recorder/state
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	state, err := h.manager.GetRecorderState()
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]recording.State{"state": state})
}

// handleStart handles POST /api/recording/start
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	if err := h.manager.StartRecording(); err != nil {
		h.writeError(w, err)
		return
	}
	writeSuccess(w)
}

// stopResponse is the recording plus the outcome of ?save=true
type stopResponse struct {
	*audio.AudioRecording
	File      string `json:"file,omitempty"`
	SaveError string `json:"saveError,omitempty"`
}

// handleStop handles POST /api/recording/stop[?save=true]
func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	rec, err := h.manager.StopRecording()
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := stopResponse{AudioRecording: rec}
	if r.URL.Query().Get("save") == "true" {
		// The recording has already left the worker, so it is returned even when the write fails
		path, err := h.saveRecording(rec)
		if err != nil {
			h.log.Error("Failed to save recording %s: %v", rec.ID, err)
			resp.SaveError = err.Error()
		} else {
			resp.File = path
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// saveRecording writes rec as a WAV file in the configured recordings directory
func (h *Handler) saveRecording(rec *audio.AudioRecording) (string, error) {
	dir, err := h.config.GetRecordingsDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create recordings directory: %w", err)
	}

	path := filepath.Join(dir, RecordingFileName(rec, time.Now()))
	if err := rec.WriteWAV(path); err != nil {
		return "", err
	}

	h.log.Info("Saved recording to %s", path)
	return path, nil
}

// RecordingFileName names a recording file by timestamp and recording ID
func RecordingFileName(rec *audio.AudioRecording, at time.Time) string {
	return fmt.Sprintf("recording-%s-%s.wav", at.Format("20060102-150405"), rec.ID.String()[:8])
}

// handleCancel handles POST /api/recording/cancel
func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	if err := h.manager.CancelRecording(); err != nil {
		h.writeError(w, err)
		return
	}
	writeSuccess(w)
}
