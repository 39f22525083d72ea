//go:build linux

package hotkey

import "golang.design/x/hotkey"

// Modifiers maps the settings flags onto X11 modifier masks.
// Alt is Mod1 and Cmd is the Super key (Mod4).
func Modifiers(ctrl, shift, alt, cmd bool) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if shift {
		mods = append(mods, hotkey.ModShift)
	}
	if alt {
		mods = append(mods, hotkey.Mod1)
	}
	if cmd {
		mods = append(mods, hotkey.Mod4)
	}
	return mods
}
