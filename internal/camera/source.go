// Package camera abstracts the source of still frames the capture loop samples.
// A Source wraps a live capture pipeline and exposes its most recent frame on
// demand; the loop never cares where frames physically come from.
package camera

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrUnavailable means the capture source could not be acquired at all
	// (missing device, missing directory, permission problem). The scan
	// session is expected to abort without starting.
	ErrUnavailable = errors.New("camera unavailable")

	// ErrNoFrame means the source is acquired but has not produced a frame
	// yet. Callers skip the tick silently; this is not an error condition.
	ErrNoFrame = errors.New("no frame available")
)

// Source supplies the most recent frame from a live capture stream.
// A Source is exclusively owned by one scan session at a time.
type Source interface {
	// Frame returns the newest available frame. It returns ErrNoFrame when
	// nothing has been captured yet or nothing new is available.
	Frame(ctx context.Context) (image.Image, error)

	// Close releases the underlying capture resource. It is idempotent.
	Close() error
}
