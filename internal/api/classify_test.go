package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Success(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(classifyResponse{Response: "This looks like a legitimate URL."})
	})
	c := newTestClient(t, h)

	v, err := c.Classify(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "This looks like a legitimate URL.", v.Message)
}

func TestClassify_BackendError(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(classifyResponse{Error: "unrecognized format"})
	})
	c := newTestClient(t, h)

	_, err := c.Classify(context.Background(), "gibberish")
	var ce ClassificationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "unrecognized format", ce.Message)
	assert.Equal(t, "Error: unrecognized format", ce.Error())
}

func TestClassify_TransportStatus(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newTestClient(t, h)

	_, err := c.Classify(context.Background(), "x")
	var re RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusInternalServerError, re.StatusCode)
	assert.Contains(t, re.Error(), "500")
}

func TestClassify_NetworkFailure(t *testing.T) {
	c, err := NewClient(WithBaseURL("http://127.0.0.1:1"), withSkipHealthProbe())
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "x")
	require.Error(t, err)
	var re RemoteError
	assert.False(t, errors.As(err, &re))
}
