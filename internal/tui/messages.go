package tui

import (
	"github.com/qrsentry/qrsentry/internal/scan"
)

// Message types for the Bubble Tea update loop.

// resultMsg carries a classification result from the dispatcher.
type resultMsg struct {
	Result scan.Result
}

// readyMsg reports one capability resolving on the readiness gate.
type readyMsg struct {
	Cap scan.Capability
	Err error
}

// stateTickMsg refreshes scanning/dispatch state for rendering.
type stateTickMsg struct{}

// scanToggleMsg reports the outcome of a start/stop request.
type scanToggleMsg struct {
	Err error
}

// generateDoneMsg reports the outcome of a generation request.
type generateDoneMsg struct {
	Path    string
	Preview string
	Err     error
}
