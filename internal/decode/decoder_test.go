package decode

import (
	"image"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedFrame(t *testing.T, text string) image.Image {
	t.Helper()
	qr, err := qrcode.New(text, qrcode.Low)
	require.NoError(t, err)
	return qr.Image(128)
}

func TestQRDecoder_RoundTrip(t *testing.T) {
	d := NewQRDecoder()

	tests := []string{
		"https://example.com",
		"hello world",
		"wifi:T:WPA;S:net;P:secret;;",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			got, err := d.Decode(encodedFrame(t, text))
			require.NoError(t, err)
			assert.Equal(t, text, got)
		})
	}
}

func TestQRDecoder_BlankFrame(t *testing.T) {
	d := NewQRDecoder()

	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	_, err := d.Decode(blank)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProbe(t *testing.T) {
	require.NoError(t, Probe())
}
