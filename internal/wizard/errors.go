package wizard

import "errors"

// Messages shown to the employee for the two user-facing failures
const (
	DocumentRequiredMessage  = "Please upload a police report document."
	CameraUnavailableMessage = "Camera access denied or not available."
)

var (
	ErrInvalidTransition   = errors.New("invalid wizard transition")
	ErrReasonRequired      = errors.New("a reason must be selected")
	ErrDocumentRequired    = errors.New(DocumentRequiredMessage)
	ErrCameraUnavailable   = errors.New(CameraUnavailableMessage)
	ErrCountdownActive     = errors.New("countdown already running")
	ErrNoPhoto             = errors.New("no photo captured")
	ErrSubmitting          = errors.New("submission in progress")
	ErrSessionClosed       = errors.New("wizard session closed")
	ErrSessionNotFound     = errors.New("wizard session not found")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrDocumentTooLarge    = errors.New("document too large")
	ErrAddressNotFound     = errors.New("saved address not found")
)
