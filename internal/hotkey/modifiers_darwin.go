//go:build darwin

package hotkey

import "golang.design/x/hotkey"

// Modifiers maps the settings flags onto macOS modifier keys
func Modifiers(ctrl, shift, alt, cmd bool) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if shift {
		mods = append(mods, hotkey.ModShift)
	}
	if alt {
		mods = append(mods, hotkey.ModOption)
	}
	if cmd {
		mods = append(mods, hotkey.ModCmd)
	}
	return mods
}
