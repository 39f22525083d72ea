//go:build darwin

package permissions

/*
#cgo CFLAGS: -x objective-c -fmodules
#cgo LDFLAGS: -framework AVFoundation -framework ApplicationServices

#import <AVFoundation/AVFoundation.h>
#import <ApplicationServices/ApplicationServices.h>

int check_microphone_permission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

int check_accessibility_permission() {
    Boolean isAccessibilityEnabled = AXIsProcessTrusted();
    return isAccessibilityEnabled ? 1 : 0;
}
*/
import "C"

import (
	"fmt"
	"os/exec"
)

func platformChecks() map[Kind]func() PermissionStatus {
	return map[Kind]func() PermissionStatus{
		Microphone: func() PermissionStatus {
			return PermissionStatus(C.check_microphone_permission())
		},
		Accessibility: func() PermissionStatus {
			if C.check_accessibility_permission() == 1 {
				return PermissionAuthorized
			}
			return PermissionDenied
		},
	}
}

var settingsPanes = map[Kind]string{
	Microphone:    "x-apple.systempreferences:com.apple.preference.security?Privacy_Microphone",
	Accessibility: "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility",
}

// OpenSettings opens the System Settings pane where kind is granted
func OpenSettings(kind Kind) error {
	url, ok := settingsPanes[kind]
	if !ok {
		return fmt.Errorf("no settings pane for %s", kind)
	}
	return exec.Command("open", url).Run()
}
