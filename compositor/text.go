package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	minFontSize = 8
	// labelFill is the share of the box width the text may occupy.
	labelFill = 0.92
)

var (
	boldOnce sync.Once
	boldFont *opentype.Font
	boldErr  error
)

func labelFont() (*opentype.Font, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = opentype.Parse(gobold.TTF)
	})
	return boldFont, boldErr
}

// drawCenteredText writes text centred in box, shrinking the font until it fits.
func drawCenteredText(dst draw.Image, box image.Rectangle, text string, size float64, col color.Color) error {
	if text == "" || box.Empty() {
		return nil
	}
	f, err := labelFont()
	if err != nil {
		return fmt.Errorf("failed to parse label font: %w", err)
	}

	maxWidth := fixed.I(int(float64(box.Dx()) * labelFill))
	if size > float64(box.Dy()) {
		size = float64(box.Dy())
	}

	for {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return fmt.Errorf("failed to create font face: %w", err)
		}

		d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
		advance := d.MeasureString(text)
		if advance > maxWidth && size > minFontSize {
			face.Close()
			size *= 0.9
			continue
		}

		m := face.Metrics()
		ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
		x := box.Min.X + (box.Dx()-advance.Ceil())/2
		y := box.Min.Y + (box.Dy()+ascent-descent)/2
		d.Dot = fixed.P(x, y)
		d.DrawString(text)
		return face.Close()
	}
}
