package hotkey

import (
	"runtime"
	"strings"

	"github.com/yok-tottii/EzS2T-Recorder/internal/config"
)

// ConflictInfo represents information about a known shortcut conflict
type ConflictInfo struct {
	Name        string
	Description string
	OS          string // GOOS the shortcut belongs to
	Hotkey      config.HotkeyConfig
}

// knownConflicts contains system shortcuts that would swallow the recording hotkey
var knownConflicts = []ConflictInfo{
	{
		Name:        "Spotlight",
		Description: "macOS Spotlight search",
		OS:          "darwin",
		Hotkey:      config.HotkeyConfig{Cmd: true, Key: "Space"},
	},
	{
		Name:        "Input Source",
		Description: "macOS input source switch",
		OS:          "darwin",
		Hotkey:      config.HotkeyConfig{Ctrl: true, Key: "Space"},
	},
	{
		Name:        "Force Quit",
		Description: "macOS Force Quit",
		OS:          "darwin",
		Hotkey:      config.HotkeyConfig{Cmd: true, Alt: true, Key: "Escape"},
	},
	{
		Name:        "Input Source",
		Description: "GNOME input source switch",
		OS:          "linux",
		Hotkey:      config.HotkeyConfig{Cmd: true, Key: "Space"},
	},
	{
		Name:        "Close Window",
		Description: "Window manager close",
		OS:          "linux",
		Hotkey:      config.HotkeyConfig{Alt: true, Key: "F4"},
	},
	{
		Name:        "Close Window",
		Description: "Windows close window",
		OS:          "windows",
		Hotkey:      config.HotkeyConfig{Alt: true, Key: "F4"},
	},
	{
		Name:        "Input Language",
		Description: "Windows input language switch",
		OS:          "windows",
		Hotkey:      config.HotkeyConfig{Cmd: true, Key: "Space"},
	},
}

// CheckConflicts checks the hotkey against known shortcuts of the running OS
func CheckConflicts(hk config.HotkeyConfig) []ConflictInfo {
	return checkConflicts(runtime.GOOS, hk)
}

func checkConflicts(goos string, hk config.HotkeyConfig) []ConflictInfo {
	var conflicts []ConflictInfo

	for _, known := range knownConflicts {
		if known.OS == goos && hotkeyMatches(hk, known.Hotkey) {
			conflicts = append(conflicts, known)
		}
	}

	return conflicts
}

// hotkeyMatches reports whether two combinations press the same keys
func hotkeyMatches(a, b config.HotkeyConfig) bool {
	ka, errA := ParseKey(a.Key)
	kb, errB := ParseKey(b.Key)
	if errA != nil || errB != nil || ka != kb {
		return false
	}

	return a.Ctrl == b.Ctrl && a.Shift == b.Shift && a.Alt == b.Alt && a.Cmd == b.Cmd
}

// FormatHotkey returns a human-readable form such as "Ctrl+Alt+Space"
func FormatHotkey(hk config.HotkeyConfig) string {
	var parts []string

	if hk.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if hk.Shift {
		parts = append(parts, "Shift")
	}
	if hk.Alt {
		parts = append(parts, "Alt")
	}
	if hk.Cmd {
		parts = append(parts, "Cmd")
	}

	key := hk.Key
	if len(key) == 1 {
		key = strings.ToUpper(key)
	}
	parts = append(parts, key)

	return strings.Join(parts, "+")
}
