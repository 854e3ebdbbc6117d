package api

import (
	"errors"
	"fmt"
)

// Sentinel and typed errors for transport-level reporting.
var (
	ErrOffline = errors.New("offline")
)

// RemoteError wraps a non-2xx transport status. The body is ignored: a failed
// status is treated as a transport error regardless of what it carries.
type RemoteError struct {
	StatusCode int
}

func (e RemoteError) Error() string {
	return fmt.Sprintf("remote error: status %d", e.StatusCode)
}

// ClassificationError is returned when the backend answered successfully but
// explicitly reported a classification failure for the payload. The scan may
// continue after one of these.
type ClassificationError struct {
	Message string
}

func (e ClassificationError) Error() string {
	return fmt.Sprintf("Error: %s", e.Message)
}
