package recording

import "github.com/yok-tottii/EzS2T-Recorder/internal/audio"

// CommandKind identifies a worker command
type CommandKind int

const (
	EnumerateRecordingDevices CommandKind = iota
	InitRecordingSession
	GetRecorderState
	StartRecording
	StopRecording
	CloseRecordingSession
	CloseThread
)

// String returns the command name
func (k CommandKind) String() string {
	switch k {
	case EnumerateRecordingDevices:
		return "EnumerateRecordingDevices"
	case InitRecordingSession:
		return "InitRecordingSession"
	case GetRecorderState:
		return "GetRecorderState"
	case StartRecording:
		return "StartRecording"
	case StopRecording:
		return "StopRecording"
	case CloseRecordingSession:
		return "CloseRecordingSession"
	case CloseThread:
		return "CloseThread"
	default:
		return "Unknown"
	}
}

// Command is one request to the audio worker.
// DeviceName is only read for InitRecordingSession.
type Command struct {
	Kind       CommandKind
	DeviceName string
}

// ResponseKind identifies which Response fields are populated
type ResponseKind int

const (
	// Success carries only a Message
	Success ResponseKind = iota
	// Error carries Err, and Devices for a partial enumeration
	Error
	// DeviceList carries Devices
	DeviceList
	// AudioData carries Recording
	AudioData
	// StateReport carries State
	StateReport
	// SessionReady carries Session
	SessionReady
)

// Response is the worker's single reply to a Command
type Response struct {
	Kind      ResponseKind
	Message   string
	Devices   []string
	Recording *audio.AudioRecording
	State     State
	Session   SessionInfo
	Err       error
}

// SessionInfo describes the configuration chosen at session init
type SessionInfo struct {
	DeviceName string `json:"deviceName"`
	SampleRate uint32 `json:"sampleRate"`
	Channels   uint16 `json:"channels"`
	Format     string `json:"format"`
	Selection  string `json:"selection"`
}

// DeviceInfo is one entry of the device list exposed to callers.
// Devices have no identity beyond their display name, so both fields hold it.
type DeviceInfo struct {
	DeviceID string `json:"deviceId"`
	Label    string `json:"label"`
}
