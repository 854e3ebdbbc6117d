package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qrsentry/qrsentry/internal/camera"
	"github.com/qrsentry/qrsentry/internal/decode"
)

// DefaultInterval is the capture loop cadence when none is configured.
const DefaultInterval = 500 * time.Millisecond

// ErrAlreadyScanning is returned by Start while a session is active.
var ErrAlreadyScanning = errors.New("scan session already active")

// Session is the state bound to one scanning period: it owns the camera
// source and the polling handle, and both are released together on stop. A
// session ends when the user stops it, when a payload classifies
// successfully, or when the camera source fails.
type Session struct {
	decoder    decode.Decoder
	dispatcher *Dispatcher
	interval   time.Duration

	mu     sync.Mutex
	source camera.Source
	handle *Handle
	active bool

	// dispatchCtx outlives the poll handle: stopping the loop cancels future
	// ticks but not an in-flight dispatch. Only Teardown cancels it.
	dispatchCtx context.Context
	cancel      context.CancelFunc
}

// NewSession wires a capture loop over the given decoder and dispatcher.
// A non-positive interval falls back to DefaultInterval.
func NewSession(dec decode.Decoder, disp *Dispatcher, interval time.Duration) *Session {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Session{
		decoder:    dec,
		dispatcher: disp,
		interval:   interval,
	}
	disp.OnSuccess(func() { go s.Stop() })
	return s
}

// Active reports whether the session is currently scanning.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Dispatcher exposes the session's dispatcher for result observation.
func (s *Session) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Start takes ownership of the camera source, clears the previous result and
// begins periodic sampling. The source is released again by Stop, which the
// session also invokes itself on successful classification.
func (s *Session) Start(ctx context.Context, src camera.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrAlreadyScanning
	}

	s.dispatcher.Reset()

	dispatchCtx, cancel := context.WithCancel(ctx)
	s.source = src
	s.dispatchCtx = dispatchCtx
	s.cancel = cancel
	s.active = true
	s.handle = Every(dispatchCtx, s.interval, s.tick)
	logrus.Debugf("scan session started, interval=%s", s.interval)
	return nil
}

// tick samples one frame, tries to decode it and hands any payload to the
// dispatcher. Per-tick failures are logged and never terminate the loop; only
// a failed camera source ends the session.
func (s *Session) tick(ctx context.Context) {
	s.mu.Lock()
	src := s.source
	dispatchCtx := s.dispatchCtx
	s.mu.Unlock()
	if src == nil {
		return
	}

	img, err := src.Frame(ctx)
	switch {
	case err == nil:
	case errors.Is(err, camera.ErrNoFrame):
		return // source not ready, silently skip this tick
	case errors.Is(err, camera.ErrUnavailable):
		logrus.Warn("camera source failed, stopping scan")
		go s.Stop()
		return
	default:
		logrus.Debugf("tick: frame read failed: %v", err)
		return
	}

	payload, err := s.decoder.Decode(img)
	switch {
	case err == nil:
	case errors.Is(err, decode.ErrNotFound):
		return // nothing in this frame
	default:
		logrus.Debugf("tick: decode failed: %v", err)
		return
	}

	// The dispatch runs on the session context, not the tick context: a stop
	// that lands mid-flight must not cancel the outstanding request.
	s.dispatcher.Dispatch(dispatchCtx, payload)
}

// Stop halts sampling and releases the camera. It is idempotent and safe to
// call after the session ended on its own. An in-flight dispatch is not
// canceled here; its result still applies when it resolves.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	handle := s.handle
	src := s.source
	s.handle = nil
	s.source = nil
	s.mu.Unlock()

	handle.Stop()
	if err := src.Close(); err != nil {
		logrus.Debugf("releasing camera source: %v", err)
	}
	logrus.Debug("scan session stopped")
}

// Teardown stops the session and additionally discards any in-flight dispatch
// result. Used on application exit, when there is nothing left to update.
func (s *Session) Teardown() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.Stop()
}
