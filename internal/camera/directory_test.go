package camera

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrame(t *testing.T, dir, name, content string) string {
	t.Helper()
	png, err := qrcode.Encode(content, qrcode.Low, 128)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, png, 0o600))
	return path
}

func TestOpenDirectory_Missing(t *testing.T) {
	_, err := OpenDirectory(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDirectorySource_EmptySpool(t *testing.T) {
	src, err := OpenDirectory(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	_, err = src.Frame(context.Background())
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestDirectorySource_NewestFrameWins(t *testing.T) {
	dir := t.TempDir()
	old := writeFrame(t, dir, "frame-001.png", "old")
	fresh := writeFrame(t, dir, "frame-002.png", "fresh")

	// Force distinct mod times regardless of filesystem resolution.
	past := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(old, past, past))
	_ = fresh

	src, err := OpenDirectory(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	img, err := src.Frame(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, img)
}

func TestDirectorySource_SameFrameNotServedTwice(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame.png", "content")

	src, err := OpenDirectory(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	_, err = src.Frame(context.Background())
	require.NoError(t, err)

	// Unchanged spool: the already-served frame is not decoded again.
	_, err = src.Frame(context.Background())
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestDirectorySource_ClosedSource(t *testing.T) {
	src, err := OpenDirectory(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close()) // idempotent

	_, err = src.Frame(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDirectorySource_IgnoresNonImageFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	src, err := OpenDirectory(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	_, err = src.Frame(context.Background())
	assert.ErrorIs(t, err, ErrNoFrame)
}
