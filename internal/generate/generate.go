// Package generate turns user-supplied text into rendered QR codes.
package generate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mdp/qrterminal/v3"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrEmptyInput rejects generation requests before the encoder is invoked.
var ErrEmptyInput = errors.New("text to encode must not be empty")

// DefaultFileName is the download name for rendered codes.
const DefaultFileName = "qr-code.png"

const defaultSizePx = 256

// Options control rendering of a generated code.
type Options struct {
	// SizePx is the rendered image edge length in pixels. Zero means the
	// 256 px default.
	SizePx int
}

func (o Options) size() int {
	if o.SizePx > 0 {
		return o.SizePx
	}
	return defaultSizePx
}

// PNG encodes text into a rasterized QR image. Capacity (version) selection is
// automatic and the error-correction level is low, trading damage tolerance
// for density.
func PNG(text string, opts Options) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	png, err := qrcode.Encode(text, qrcode.Low, opts.size())
	if err != nil {
		return nil, fmt.Errorf("encode QR: %w", err)
	}
	return png, nil
}

// WritePNG renders text to a PNG file at path. An existing file is replaced:
// regeneration discards the prior image rather than keeping both.
func WritePNG(text, path string, opts Options) error {
	png, err := PNG(text, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, png, 0o644)
}

// Terminal renders text as a half-block ANSI QR code to w, for previewing a
// generated code without leaving the terminal.
func Terminal(text string, w io.Writer) error {
	if text == "" {
		return ErrEmptyInput
	}
	qrterminal.GenerateHalfBlock(text, qrterminal.L, w)
	return nil
}
