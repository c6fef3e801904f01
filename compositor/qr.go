package compositor

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// qrImage renders text as a square QR code of the given edge length.
func qrImage(text string, size int) (image.Image, error) {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return q.Image(size), nil
}
