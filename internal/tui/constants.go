package tui

import "time"

// Package-level constants to avoid magic numbers and improve readability.
const (
	channelBufferSize = 64

	// stateRefreshIntervalMS drives the cadence at which scanning/dispatch
	// state is re-read for rendering.
	stateRefreshIntervalMS = 100

	contentMaxWidth = 72

	stateRefreshInterval = time.Duration(stateRefreshIntervalMS) * time.Millisecond
)
