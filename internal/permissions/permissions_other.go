//go:build !darwin

package permissions

import (
	"fmt"
	"runtime"
)

// Linux and Windows do not gate capture behind a per-app prompt
func platformChecks() map[Kind]func() PermissionStatus {
	return map[Kind]func() PermissionStatus{}
}

// OpenSettings is only supported on macOS
func OpenSettings(kind Kind) error {
	return fmt.Errorf("opening %s settings is not supported on %s", kind, runtime.GOOS)
}
