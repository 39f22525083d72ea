package notification

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	// TypeInfo is an informational notification
	TypeInfo NotificationType = "info"
	// TypeWarning is a warning notification
	TypeWarning NotificationType = "warning"
	// TypeError is an error notification
	TypeError NotificationType = "error"
	// TypeSuccess is a success notification
	TypeSuccess NotificationType = "success"
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
}

// runner executes a notifier command
type runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// NotificationManager sends recorder events to the desktop notification center
type NotificationManager struct {
	appName string
	goos    string
	run     runner
	enabled bool
}

// NewNotificationManager creates a notification manager; a disabled one drops every notification
func NewNotificationManager(appName string, enabled bool) *NotificationManager {
	return &NotificationManager{
		appName: appName,
		goos:    runtime.GOOS,
		run:     execRunner,
		enabled: enabled,
	}
}

// escapeAppleScript quotes s for use inside an AppleScript string literal
func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// command builds the platform notifier invocation
func (nm *NotificationManager) command(n *Notification) (string, []string, error) {
	switch nm.goos {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			escapeAppleScript(n.Message), escapeAppleScript(n.Title))
		return "osascript", []string{"-e", script}, nil
	case "linux":
		urgency := "normal"
		if n.Type == TypeError {
			urgency = "critical"
		}
		return "notify-send", []string{"--app-name", nm.appName, "--urgency", urgency, n.Title, n.Message}, nil
	default:
		return "", nil, fmt.Errorf("notifications are not supported on %s", nm.goos)
	}
}

// Send sends a notification to the user
func (nm *NotificationManager) Send(notification *Notification) error {
	if notification == nil {
		return fmt.Errorf("notification cannot be nil")
	}
	if !nm.enabled {
		return nil
	}

	name, args, err := nm.command(notification)
	if err != nil {
		return err
	}

	if err := nm.run(name, args...); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

func (nm *NotificationManager) send(t NotificationType, message string) error {
	return nm.Send(&Notification{Title: nm.appName, Message: message, Type: t})
}

// RecordingSaved reports a finished take
func (nm *NotificationManager) RecordingSaved(path string, duration time.Duration) error {
	return nm.send(TypeSuccess, fmt.Sprintf("Saved %.1fs to %s", duration.Seconds(), path))
}

// RecordingFailed reports a take that could not be captured or written
func (nm *NotificationManager) RecordingFailed(reason string) error {
	message := "Recording failed"
	if reason != "" {
		message += ": " + reason
	}
	return nm.send(TypeError, message)
}

// ListeningStarted reports that the hotkey is armed
func (nm *NotificationManager) ListeningStarted(hotkey string) error {
	return nm.send(TypeInfo, fmt.Sprintf("Press %s to record", hotkey))
}

// MicrophonePermissionDenied reports that capture will deliver silence
func (nm *NotificationManager) MicrophonePermissionDenied() error {
	return nm.send(TypeWarning, "Microphone access is denied. Allow it in System Settings.")
}
