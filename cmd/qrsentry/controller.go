package main

import (
	"context"

	"github.com/qrsentry/qrsentry/internal/camera"
	"github.com/qrsentry/qrsentry/internal/generate"
	"github.com/qrsentry/qrsentry/internal/scan"
)

// controller wires the scan session and generator behind the tui.Controller
// surface. Camera acquisition happens per StartScan so a failed grant leaves
// the session inactive and retryable.
type controller struct {
	session    *scan.Session
	watchDir   string
	outputPath string
}

func (c *controller) StartScan(ctx context.Context) error {
	src, err := camera.OpenDirectory(c.watchDir)
	if err != nil {
		return err
	}
	if err := c.session.Start(ctx, src); err != nil {
		_ = src.Close()
		return err
	}
	return nil
}

func (c *controller) StopScan() {
	c.session.Stop()
}

func (c *controller) Scanning() bool {
	return c.session.Active()
}

func (c *controller) Dispatching() bool {
	return c.session.Dispatcher().InFlight()
}

func (c *controller) Generate(text string) (string, error) {
	if err := generate.WritePNG(text, c.outputPath, generate.Options{}); err != nil {
		return "", err
	}
	return c.outputPath, nil
}
