// Package permissions reports the OS privacy permissions capture depends on.
package permissions

import "strings"

// PermissionStatus represents the status of a system permission
type PermissionStatus int

const (
	// PermissionNotDetermined means the user hasn't been asked yet
	PermissionNotDetermined PermissionStatus = 0
	// PermissionRestricted means the permission is restricted by policy
	PermissionRestricted PermissionStatus = 1
	// PermissionDenied means the user has explicitly denied the permission
	PermissionDenied PermissionStatus = 2
	// PermissionAuthorized means the user has authorized the permission
	PermissionAuthorized PermissionStatus = 3
)

func (ps PermissionStatus) String() string {
	switch ps {
	case PermissionNotDetermined:
		return "NotDetermined"
	case PermissionRestricted:
		return "Restricted"
	case PermissionDenied:
		return "Denied"
	case PermissionAuthorized:
		return "Authorized"
	default:
		return "Unknown"
	}
}

// Kind names a permission
type Kind string

const (
	// Microphone gates audio capture
	Microphone Kind = "microphone"
	// Accessibility gates global hotkeys on macOS
	Accessibility Kind = "accessibility"
)

// PermissionChecker queries the platform for permission state
type PermissionChecker struct {
	checks map[Kind]func() PermissionStatus
}

// NewPermissionChecker creates a checker for the running platform
func NewPermissionChecker() *PermissionChecker {
	return &PermissionChecker{checks: platformChecks()}
}

// Status returns the current status of kind; unknown kinds are authorized
func (pc *PermissionChecker) Status(kind Kind) PermissionStatus {
	check, ok := pc.checks[kind]
	if !ok {
		return PermissionAuthorized
	}
	return check()
}

// IsAuthorized returns whether kind is granted
func (pc *PermissionChecker) IsAuthorized(kind Kind) bool {
	return pc.Status(kind) == PermissionAuthorized
}

// Missing lists the given kinds that are not granted, in order
func (pc *PermissionChecker) Missing(kinds ...Kind) []Kind {
	var missing []Kind
	for _, kind := range kinds {
		if !pc.IsAuthorized(kind) {
			missing = append(missing, kind)
		}
	}
	return missing
}

// MissingMessage describes the missing permissions, or "" when all are granted
func (pc *PermissionChecker) MissingMessage(kinds ...Kind) string {
	missing := pc.Missing(kinds...)
	if len(missing) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("The following permissions are required:\n")
	for _, kind := range missing {
		b.WriteString("  - " + string(kind) + " (" + pc.Status(kind).String() + ")\n")
	}
	return b.String()
}
