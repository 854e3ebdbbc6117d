package decode

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const probeText = "qrsentry-ready"

// Probe confirms the encode and decode capabilities work end to end by
// round-tripping a sentinel code once at startup. Scanning stays disabled
// until the probe passes.
func Probe() error {
	qr, err := qrcode.New(probeText, qrcode.Low)
	if err != nil {
		return fmt.Errorf("encoder probe: %w", err)
	}
	img := qr.Image(128)

	text, err := NewQRDecoder().Decode(img)
	if err != nil {
		return fmt.Errorf("decoder probe: %w", err)
	}
	if text != probeText {
		return fmt.Errorf("decoder probe: round-trip mismatch: %q", text)
	}
	return nil
}
