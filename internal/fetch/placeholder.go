package fetch

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderSize  = 800
	placeholderLabel = "Image not available"
	// basicfont glyphs are 13px tall; scaled up they approximate a 30px label.
	placeholderLabelScale = 3
)

var (
	placeholderBackground = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	placeholderInk        = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

	placeholderOnce sync.Once
	placeholderJPEG []byte
	placeholderErr  error
)

// PlaceholderJPEG returns the encoded placeholder slide. It is rendered once
// and shared by every job.
func PlaceholderJPEG() ([]byte, error) {
	placeholderOnce.Do(func() {
		placeholderJPEG, placeholderErr = renderPlaceholder()
	})
	return placeholderJPEG, placeholderErr
}

func writePlaceholder(path string) error {
	data, err := PlaceholderJPEG()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func renderPlaceholder() ([]byte, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	metrics := face.Metrics()
	width := font.MeasureString(face, placeholderLabel).Ceil()
	height := metrics.Height.Ceil()

	label := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(label, label.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)
	drawer := font.Drawer{
		Dst:  label,
		Src:  image.NewUniform(placeholderInk),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	drawer.DrawString(placeholderLabel)

	scaledW, scaledH := width*placeholderLabelScale, height*placeholderLabelScale
	x0 := (placeholderSize - scaledW) / 2
	y0 := (placeholderSize - scaledH) / 2
	draw.NearestNeighbor.Scale(canvas, image.Rect(x0, y0, x0+scaledW, y0+scaledH), label, label.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("fetch: encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
