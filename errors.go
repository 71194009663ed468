package shaderbox

import "errors"

// Errors returned by the renderer.
var (
	// ErrEncodeFailed is returned when video finalization fails; the
	// partial output file is deleted.
	ErrEncodeFailed = errors.New("shaderbox: video encode failed")

	// ErrVideoActive is returned by StartVideo while a capture session
	// is already running.
	ErrVideoActive = errors.New("shaderbox: video capture already active")

	// ErrRendererClosed is returned for operations on a closed renderer.
	ErrRendererClosed = errors.New("shaderbox: renderer is closed")
)
