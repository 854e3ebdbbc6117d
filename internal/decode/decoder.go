// Package decode locates and decodes QR codes in still frames.
package decode

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNotFound means the frame contains no readable QR code. Callers treat this
// as "nothing to do this tick", not a failure.
var ErrNotFound = errors.New("no QR code found")

// Decoder extracts the embedded text of one QR code from a still image.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

// QRDecoder decodes QR codes using the zxing port. A single fast pass is made
// per frame; the capture cadence retries on the next tick anyway, so the
// try-harder hint stays off.
type QRDecoder struct {
	reader gozxing.Reader
}

// NewQRDecoder constructs a QR decoder.
func NewQRDecoder() *QRDecoder {
	return &QRDecoder{reader: zxqrcode.NewQRCodeReader()}
}

// Decode returns the text embedded in the first QR code located in img.
// A frame without a locatable code maps to ErrNotFound.
func (d *QRDecoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize frame: %w", err)
	}
	result, err := d.reader.Decode(bmp, nil)
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("decode frame: %w", err)
	}
	text := result.GetText()
	if text == "" {
		return "", ErrNotFound
	}
	return text, nil
}

// isNotFound reports whether the reader simply failed to locate a code, as
// opposed to failing on a located but corrupt one.
func isNotFound(err error) bool {
	var nfe gozxing.NotFoundException
	return errors.As(err, &nfe)
}
