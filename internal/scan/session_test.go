//nolint:testpackage // White-box tests exercise session internals.
package scan

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrsentry/qrsentry/internal/camera"
	"github.com/qrsentry/qrsentry/internal/decode"
)

// fakeSource serves a fixed frame, or ErrNoFrame when empty.
type fakeSource struct {
	mu     sync.Mutex
	frame  image.Image
	err    error
	closed int
}

func (f *fakeSource) Frame(_ context.Context) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.frame == nil {
		return nil, camera.ErrNoFrame
	}
	return f.frame, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSource) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeDecoder returns a fixed payload, or ErrNotFound when empty.
type fakeDecoder struct {
	mu      sync.Mutex
	payload string
	err     error
	calls   int
}

func (f *fakeDecoder) Decode(_ image.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.payload == "" {
		return "", decode.ErrNotFound
	}
	return f.payload, nil
}

func (f *fakeDecoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testFrame() image.Image {
	return image.NewGray(image.Rect(0, 0, 8, 8))
}

func TestSession_SuccessfulClassificationStopsScanning(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "This looks like a legitimate URL."})
	})
	d := NewDispatcher(backend)
	s := NewSession(&fakeDecoder{payload: "https://example.com"}, d, 10*time.Millisecond)

	src := &fakeSource{frame: testFrame()}
	require.NoError(t, s.Start(context.Background(), src))

	require.Eventually(t, func() bool { return !s.Active() }, 5*time.Second, 10*time.Millisecond)

	// Session released the camera on its own.
	assert.Equal(t, 1, src.closeCount())
	res := d.Last()
	assert.Equal(t, "https://example.com", res.Link)
	assert.Equal(t, "This looks like a legitimate URL.", res.Message)
}

func TestSession_ErrorVerdictKeepsScanning(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unrecognized format"})
	})
	d := NewDispatcher(backend)
	s := NewSession(&fakeDecoder{payload: "gibberish"}, d, 10*time.Millisecond)

	src := &fakeSource{frame: testFrame()}
	require.NoError(t, s.Start(context.Background(), src))

	require.Eventually(t, func() bool {
		return d.Last().Message == "Error: unrecognized format"
	}, 5*time.Second, 10*time.Millisecond)

	// The loop is still running after a classification error.
	assert.True(t, s.Active())
	s.Stop()
	assert.Equal(t, 1, src.closeCount())
}

func TestSession_NoDecodeNoDispatch(t *testing.T) {
	var requests atomic.Int32
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	})
	d := NewDispatcher(backend)
	dec := &fakeDecoder{} // never finds a code
	s := NewSession(dec, d, 5*time.Millisecond)

	require.NoError(t, s.Start(context.Background(), &fakeSource{frame: testFrame()}))
	require.Eventually(t, func() bool { return dec.callCount() >= 5 }, 5*time.Second, time.Millisecond)
	s.Stop()

	assert.Zero(t, requests.Load())
	assert.Equal(t, Result{}, d.Last())
}

func TestSession_SourceNotReadySkipsTicks(t *testing.T) {
	d := NewDispatcher(nil)
	dec := &fakeDecoder{payload: "never-reached"}
	s := NewSession(dec, d, 5*time.Millisecond)

	// Source with no frame yet: ticks skip silently, decoder never runs.
	require.NoError(t, s.Start(context.Background(), &fakeSource{}))
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.Zero(t, dec.callCount())
	assert.Equal(t, Result{}, d.Last())
}

func TestSession_CameraFailureEndsSession(t *testing.T) {
	d := NewDispatcher(nil)
	s := NewSession(&fakeDecoder{}, d, 5*time.Millisecond)

	src := &fakeSource{err: camera.ErrUnavailable}
	require.NoError(t, s.Start(context.Background(), src))

	require.Eventually(t, func() bool { return !s.Active() }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, src.closeCount())
}

func TestSession_StopIsIdempotent(t *testing.T) {
	d := NewDispatcher(nil)
	s := NewSession(&fakeDecoder{}, d, 10*time.Millisecond)

	src := &fakeSource{}
	require.NoError(t, s.Start(context.Background(), src))

	s.Stop()
	s.Stop()
	s.Stop()
	assert.Equal(t, 1, src.closeCount())
	assert.False(t, s.Active())
}

func TestSession_StartWhileActive(t *testing.T) {
	d := NewDispatcher(nil)
	s := NewSession(&fakeDecoder{}, d, 10*time.Millisecond)

	require.NoError(t, s.Start(context.Background(), &fakeSource{}))
	t.Cleanup(s.Stop)

	err := s.Start(context.Background(), &fakeSource{})
	assert.ErrorIs(t, err, ErrAlreadyScanning)
}

func TestSession_StartClearsPreviousResult(t *testing.T) {
	d := NewDispatcher(nil)
	s := NewSession(&fakeDecoder{payload: "payload"}, d, 5*time.Millisecond)

	require.NoError(t, s.Start(context.Background(), &fakeSource{frame: testFrame()}))
	require.Eventually(t, func() bool { return !s.Active() }, 5*time.Second, time.Millisecond)
	require.NotEqual(t, Result{}, d.Last())

	// The next session starts from a blank result.
	require.NoError(t, s.Start(context.Background(), &fakeSource{}))
	assert.Equal(t, Result{}, d.Last())
	s.Stop()
}

func TestSession_SingleFlightAcrossTicks(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	})
	d := NewDispatcher(backend)
	dec := &fakeDecoder{payload: "same-code"}
	s := NewSession(dec, d, 5*time.Millisecond)

	require.NoError(t, s.Start(context.Background(), &fakeSource{frame: testFrame()}))

	// Many ticks decode while the first dispatch is slow; all are dropped.
	require.Eventually(t, func() bool { return dec.callCount() >= 10 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, int32(1), requests.Load())

	close(release)
	require.Eventually(t, func() bool { return !s.Active() }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), requests.Load())
}
