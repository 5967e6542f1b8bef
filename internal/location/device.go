package location

import "context"

// PermissionState mirrors the platform geolocation permission model.
type PermissionState string

const (
	PermissionGranted     PermissionState = "granted"
	PermissionDenied      PermissionState = "denied"
	PermissionPrompt      PermissionState = "prompt"
	PermissionUnsupported PermissionState = "unsupported"
)

// Position is a raw device fix.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Device is a platform position source (the server-side stand-in for a
// browser's geolocation API). Position must honor context cancellation and
// deadlines; implementations report failures as *Error with the appropriate
// kind (PERMISSION_DENIED, POSITION_UNAVAILABLE, TIMEOUT, NOT_SUPPORTED).
//
// Deployments without a device source leave this nil and the resolver falls
// through to IP-based detection.
type Device interface {
	Position(ctx context.Context) (Position, error)
	Permission(ctx context.Context) PermissionState
}
