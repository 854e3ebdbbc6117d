package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/qrsentry/qrsentry/internal/allowlist"
	"github.com/qrsentry/qrsentry/internal/api"
	"github.com/qrsentry/qrsentry/internal/storage"
)

// Result is the outcome of the most recent classified payload.
type Result struct {
	// Link is the decoded payload, set on successful classification.
	Link string
	// Message is the backend's verdict, or an error description.
	Message string
	// Err is non-nil for transport and classification failures.
	Err error
}

// trustedMessage is the local verdict for allowlisted payloads.
const trustedMessage = "Trusted by local allowlist."

// offlineMessage is the verdict when no backend client is configured.
const offlineMessage = "Decoded (offline, not classified)."

// Dispatcher forwards decoded payloads to the classification backend with
// single-flight semantics: at most one request is outstanding at any time,
// and payloads decoded while a request is in flight are dropped, not queued.
// The camera polls every few hundred milliseconds, so without the guard a
// slow round-trip would fan out into a storm of near-duplicate requests and
// let a late response clobber a newer one.
type Dispatcher struct {
	trust *allowlist.Verifier
	store *storage.Storage

	// inFlight is the whole single-flight guard. The CAS below keeps the
	// read-check-then-set atomic even on a multi-threaded host.
	inFlight atomic.Bool

	mu        sync.Mutex
	client    api.Classifier
	last      Result
	onResult  func(Result)
	onSuccess func()
}

// DispatcherOption mutates Dispatcher configuration.
type DispatcherOption func(*Dispatcher)

// WithTrust consults the local allowlist before any network call.
func WithTrust(v *allowlist.Verifier) DispatcherOption {
	return func(d *Dispatcher) { d.trust = v }
}

// WithHistory persists successful classifications to storage.
func WithHistory(st *storage.Storage) DispatcherOption {
	return func(d *Dispatcher) { d.store = st }
}

// NewDispatcher creates a dispatcher. Pass a nil client to operate offline:
// decoded payloads are then reported without classification.
func NewDispatcher(client api.Classifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{client: client}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetClient attaches a backend client after construction. Used when client
// initialization (health probe) happens in the background at startup.
func (d *Dispatcher) SetClient(c api.Classifier) {
	d.mu.Lock()
	d.client = c
	d.mu.Unlock()
}

// OnResult registers a callback invoked with each applied Result.
func (d *Dispatcher) OnResult(fn func(Result)) {
	d.mu.Lock()
	d.onResult = fn
	d.mu.Unlock()
}

// OnSuccess registers the capture loop's stop hook, invoked only when a
// payload classifies successfully. Error outcomes never trigger it; the user
// may keep scanning after those.
func (d *Dispatcher) OnSuccess(fn func()) {
	d.mu.Lock()
	d.onSuccess = fn
	d.mu.Unlock()
}

// InFlight reports whether a dispatch is currently outstanding.
func (d *Dispatcher) InFlight() bool {
	return d.inFlight.Load()
}

// Last returns the most recently applied result.
func (d *Dispatcher) Last() Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Reset clears the stored result. Called when a new scan session starts.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.last = Result{}
	d.mu.Unlock()
}

// Dispatch submits one decoded payload for classification. An empty payload
// is a no-op, and so is any payload arriving while a dispatch is in flight.
// The request runs asynchronously; Dispatch returns whether it started one.
func (d *Dispatcher) Dispatch(ctx context.Context, payload string) bool {
	if payload == "" {
		return false
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		logrus.Debugf("dispatch in flight, dropping payload")
		return false
	}

	// Local trust decisions short-circuit the backend entirely.
	if d.trust != nil && d.trust.Trusted(payload) {
		d.finish(ctx, Result{Link: payload, Message: trustedMessage})
		return true
	}
	d.mu.Lock()
	client := d.client
	d.mu.Unlock()
	if client == nil {
		d.finish(ctx, Result{Link: payload, Message: offlineMessage})
		return true
	}

	go func() {
		verdict, err := client.Classify(ctx, payload)
		if err != nil {
			d.finish(ctx, Result{Message: err.Error(), Err: err})
			return
		}
		d.finish(ctx, Result{Link: payload, Message: verdict.Message})
	}()
	return true
}

// finish applies a resolved result and returns the dispatcher to idle. When
// the session has been torn down (ctx done) the result is discarded: released
// resources must not be touched by a late response.
func (d *Dispatcher) finish(ctx context.Context, res Result) {
	defer d.inFlight.Store(false)

	if ctx.Err() != nil {
		logrus.Debug("discarding dispatch result after teardown")
		return
	}

	d.mu.Lock()
	d.last = res
	notify := d.onResult
	success := d.onSuccess
	d.mu.Unlock()

	if res.Err == nil && d.store != nil {
		if err := d.store.AppendRecord(res.Link, res.Message); err != nil {
			logrus.Debugf("recording scan history: %v", err)
		}
	}
	if notify != nil {
		notify(res)
	}
	if res.Err == nil && success != nil {
		success()
	}
}

// IsClassificationError reports whether the result's failure came from the
// backend's explicit error field rather than from transport.
func IsClassificationError(res Result) bool {
	var ce api.ClassificationError
	return errors.As(res.Err, &ce)
}
