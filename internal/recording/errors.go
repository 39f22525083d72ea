package recording

import (
	"errors"
	"fmt"
)

var (
	// ErrThreadNotInitialized is returned once the Manager has been closed
	ErrThreadNotInitialized = errors.New("audio thread not initialized")
	// ErrSendFailed is returned when the worker can no longer accept commands
	ErrSendFailed = errors.New("failed to send command to audio thread")
	// ErrReceiveFailed is returned when the worker exits without replying
	ErrReceiveFailed = errors.New("failed to receive response from audio thread")
	// ErrNoActiveRecording is returned by start/stop when no session is open
	ErrNoActiveRecording = errors.New("no active recording")
	// ErrLockAcquisitionFailed is returned when the sample buffer stays locked past the timeout
	ErrLockAcquisitionFailed = errors.New("failed to acquire audio buffer lock")
)

// AudioError is a device, stream or configuration failure reported by the worker
type AudioError struct {
	Detail string
	err    error
}

func newAudioError(err error) *AudioError {
	return &AudioError{Detail: err.Error(), err: err}
}

func audioErrorf(format string, args ...any) *AudioError {
	return newAudioError(fmt.Errorf(format, args...))
}

func (e *AudioError) Error() string {
	return "audio error: " + e.Detail
}

func (e *AudioError) Unwrap() error {
	return e.err
}

// ErrorKind names the taxonomy entry of err, or "" for nil.
// Anything outside the transport and buffer kinds is an AudioError.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrThreadNotInitialized):
		return "ThreadNotInitialized"
	case errors.Is(err, ErrSendFailed):
		return "SendFailed"
	case errors.Is(err, ErrReceiveFailed):
		return "ReceiveFailed"
	case errors.Is(err, ErrNoActiveRecording):
		return "NoActiveRecording"
	case errors.Is(err, ErrLockAcquisitionFailed):
		return "LockAcquisitionFailed"
	default:
		return "AudioError"
	}
}

// IsTransport reports whether err means the worker itself is unreachable,
// as opposed to the worker reporting a failed operation.
func IsTransport(err error) bool {
	return errors.Is(err, ErrThreadNotInitialized) ||
		errors.Is(err, ErrSendFailed) ||
		errors.Is(err, ErrReceiveFailed)
}
