// Package compositor rasterises a badge (template, adjusted photo, name label) into
// the fixed-size PNG that is downloaded, shared and published.
package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"badge-studio/core"
	"badge-studio/transform"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

type Compositor struct {
	background *image.NRGBA
	now        func() time.Time
}

// New builds a compositor over the given template. A nil template selects the default
// campaign background.
func New(template image.Image) *Compositor {
	var bg *image.NRGBA
	if template == nil {
		bg = defaultBackground(core.OutputSize)
	} else {
		bg = imaging.Fill(template, core.OutputSize, core.OutputSize, imaging.Center, imaging.Lanczos)
	}
	return &Compositor{background: bg, now: time.Now}
}

// LoadTemplate reads a background template from disk.
func LoadTemplate(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open badge template %s: %w", path, err)
	}
	return img, nil
}

// Render produces a 1080×1080 PNG of the badge. The output only depends on the model,
// the transform and the measured layout.
func (c *Compositor) Render(ctx context.Context, model core.BadgeModel, t core.TransformState, surface Surface) (artifact *core.RasterArtifact, err error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			artifact = nil
			err = &core.RenderError{Err: fmt.Errorf("panic during rasterisation: %v", r)}
		}
	}()

	layout, err := surface.Measure()
	if err != nil {
		return nil, &core.RenderError{Err: err}
	}
	outputScale := float64(core.OutputSize) / layout.Width

	log := logrus.WithFields(logrus.Fields{
		"badge_width":  layout.Width,
		"output_scale": outputScale,
		"scale":        t.Scale,
	})

	canvas := imaging.Clone(c.background)
	if err := c.drawPhoto(ctx, canvas, model.Photo, layout, t, outputScale); err != nil {
		log.WithError(err).Error("Failed to draw photo")
		return nil, renderError(err)
	}

	if err := drawLabel(canvas, model.DisplayName(), layout, outputScale); err != nil {
		log.WithError(err).Error("Failed to draw name label")
		return nil, renderError(err)
	}

	if layout.QRText != "" {
		box := toOutput(layout.QRRect, outputScale)
		q, err := qrImage(layout.QRText, box.Dx())
		if err != nil {
			return nil, renderError(err)
		}
		canvas = imaging.Paste(canvas, q, box.Min)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, renderError(fmt.Errorf("failed to encode PNG: %w", err))
	}

	log.WithField("png_bytes", buf.Len()).Debug("Badge rendered")
	return &core.RasterArtifact{
		PNG:        buf.Bytes(),
		Width:      core.OutputSize,
		Height:     core.OutputSize,
		Transform:  t,
		RenderedAt: c.now(),
	}, nil
}

func (c *Compositor) drawPhoto(ctx context.Context, canvas *image.NRGBA, photo *core.PhotoSource, layout Layout, t core.TransformState, outputScale float64) error {
	zoneOut := toOutput(layout.Zone, outputScale)
	if zoneOut.Empty() {
		return fmt.Errorf("photo zone is empty")
	}
	zw, zh := zoneOut.Dx(), zoneOut.Dy()

	placed := transform.Place(
		transform.Size{W: layout.Zone.W, H: layout.Zone.H},
		transform.Size{W: float64(photo.Width), H: float64(photo.Height)},
		photo.FocusY,
		t,
	)
	photoOut := toOutput(placed, outputScale)

	layer := imaging.New(zw, zh, layout.ZoneFill)
	visible := photoOut.Intersect(layer.Bounds())
	if !visible.Empty() && !photoOut.Empty() {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Only the visible part of the source is resampled.
		src := photo.Image
		sb := src.Bounds()
		kx := float64(sb.Dx()) / float64(photoOut.Dx())
		ky := float64(sb.Dy()) / float64(photoOut.Dy())
		crop := image.Rect(
			sb.Min.X+int(math.Floor(float64(visible.Min.X-photoOut.Min.X)*kx)),
			sb.Min.Y+int(math.Floor(float64(visible.Min.Y-photoOut.Min.Y)*ky)),
			sb.Min.X+int(math.Ceil(float64(visible.Max.X-photoOut.Min.X)*kx)),
			sb.Min.Y+int(math.Ceil(float64(visible.Max.Y-photoOut.Min.Y)*ky)),
		).Intersect(sb)
		if !crop.Empty() {
			part := imaging.Resize(imaging.Crop(src, crop), visible.Dx(), visible.Dy(), imaging.Lanczos)
			layer = imaging.Overlay(layer, part, visible.Min, 1.0)
		}
	}

	ringWidth := int(math.Round(layout.RingWidth * outputScale))
	switch layout.Shape {
	case Square:
		draw.Draw(canvas, zoneOut, layer, image.Point{}, draw.Over)
		if ringWidth > 0 {
			ring := frameMask{rect: zoneOut, width: ringWidth}
			draw.DrawMask(canvas, zoneOut, image.NewUniform(layout.RingColor), image.Point{}, ring, zoneOut.Min, draw.Over)
		}
	default:
		clip := ellipseMask{rect: zoneOut}
		draw.DrawMask(canvas, zoneOut, layer, image.Point{}, clip, zoneOut.Min, draw.Over)
		if ringWidth > 0 {
			ring := ellipseMask{rect: zoneOut, inner: float64(ringWidth)}
			draw.DrawMask(canvas, zoneOut, image.NewUniform(layout.RingColor), image.Point{}, ring, zoneOut.Min, draw.Over)
		}
	}
	return nil
}

func drawLabel(canvas *image.NRGBA, name string, layout Layout, outputScale float64) error {
	box := toOutput(layout.Label, outputScale)
	if layout.LabelBackground.A > 0 {
		draw.Draw(canvas, box, image.NewUniform(layout.LabelBackground), image.Point{}, draw.Over)
	}
	if err := drawCenteredText(canvas, box, name, layout.FontSize*outputScale, layout.LabelColor); err != nil {
		return err
	}
	if layout.Caption == "" {
		return nil
	}
	captionBox := toOutput(layout.CaptionRect, outputScale)
	return drawCenteredText(canvas, captionBox, layout.Caption, layout.CaptionFontSize*outputScale, layout.CaptionColor)
}

// defaultBackground is a vertical campaign-green gradient.
func defaultBackground(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		f := float64(y) / float64(size-1)
		row := color.NRGBA{
			R: lerp(campaignGreen.R, campaignDark.R, f),
			G: lerp(campaignGreen.G, campaignDark.G, f),
			B: lerp(campaignGreen.B, campaignDark.B, f),
			A: 0xff,
		}
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, row)
		}
	}
	return img
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

func renderError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &core.RenderError{Err: err}
}
