package compositor

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	ThumbnailMaxSize = 300
	ThumbnailQuality = 70
)

// Thumbnail downscales an encoded badge to fit within maxSize×maxSize and re-encodes
// it as JPEG at the given quality.
func Thumbnail(encoded []byte, maxSize, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode badge for thumbnail: %w", err)
	}
	thumb := imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
