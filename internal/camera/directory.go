package camera

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	// Register the still-frame formats capture pipelines commonly emit.
	_ "image/jpeg"
	_ "image/png"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"
)

// DirectorySource reads frames from a spool directory that an external capture
// pipeline (v4l2 grabber, ffmpeg, a phone syncing shots, ...) writes stills
// into. Frame returns the newest image file, decoded; files already served are
// remembered so the same frame is not re-decoded on every tick.
type DirectorySource struct {
	root string

	mu       sync.Mutex
	lastPath string
	lastMod  time.Time
	closed   bool
}

// OpenDirectory acquires a directory-backed frame source.
// A missing or unreadable directory maps to ErrUnavailable.
func OpenDirectory(root string) (*DirectorySource, error) {
	st, err := os.Stat(root)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, root)
	}
	return &DirectorySource{root: root}, nil
}

// Frame returns the newest captured still, or ErrNoFrame when the spool holds
// nothing newer than the last frame served.
func (s *DirectorySource) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrUnavailable
	}

	path, mod, err := s.newestFrame(ctx)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, ErrNoFrame
	}
	if path == s.lastPath && !mod.After(s.lastMod) {
		return nil, ErrNoFrame
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	s.lastPath = path
	s.lastMod = mod
	return img, nil
}

// newestFrame walks the spool and returns the most recently modified image
// file. Caller must hold s.mu.
func (s *DirectorySource) newestFrame(ctx context.Context) (string, time.Time, error) {
	var (
		walkMu  sync.Mutex
		newest  string
		modTime time.Time
	)
	conf := fastwalk.DefaultConfig
	err := fastwalk.Walk(&conf, s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries.
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		if !isFrameFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		walkMu.Lock()
		if info.ModTime().After(modTime) {
			newest = path
			modTime = info.ModTime()
		}
		walkMu.Unlock()
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", time.Time{}, ctx.Err()
		}
		logrus.Debugf("frame spool walk: %v", err)
	}
	return newest, modTime, nil
}

// Close marks the source released. Further Frame calls fail with ErrUnavailable.
func (s *DirectorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func isFrameFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".png" || ext == ".jpg" || ext == ".jpeg"
}
