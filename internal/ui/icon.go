package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"golang.org/x/image/vector"

	"github.com/tartampluch/go-wishes/internal/config"
)

var (
	iconOnce sync.Once
	iconRes  fyne.Resource
)

// AppIcon returns the application icon: a cake with one candle on a round
// badge. It is drawn once and cached.
func AppIcon() fyne.Resource {
	iconOnce.Do(func() {
		data, err := drawIcon(config.IconSize)
		if err != nil {
			slog.Warn(config.ErrIconRender,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)
			iconRes = theme.FyneLogo()
			return
		}
		iconRes = fyne.NewStaticResource(config.IconFile, data)
	})
	return iconRes
}

func drawIcon(size int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	s := float32(size)

	badge := color.RGBA{R: 0xE9, G: 0x4E, B: 0x77, A: 0xFF}
	cream := color.RGBA{R: 0xFF, G: 0xF4, B: 0xE0, A: 0xFF}
	icing := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	flame := color.RGBA{R: 0xFF, G: 0xC1, B: 0x07, A: 0xFF}

	fillCircle(img, s/2, s/2, s/2, badge)

	// Cake body, icing band, candle and flame, in proportion to size.
	rect := func(x0, y0, x1, y1 float32, c color.Color) {
		r := image.Rect(int(x0*s), int(y0*s), int(x1*s), int(y1*s))
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Over)
	}
	rect(0.22, 0.50, 0.78, 0.76, cream)
	rect(0.22, 0.50, 0.78, 0.57, icing)
	rect(0.47, 0.32, 0.53, 0.50, icing)
	fillCircle(img, 0.50*s, 0.27*s, 0.05*s, flame)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fillCircle rasterizes an anti-aliased disc with four cubic arcs.
func fillCircle(dst *image.RGBA, cx, cy, r float32, c color.Color) {
	const k = 0.5523 // cubic Bézier approximation of a quarter circle
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())

	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k*r, cx+k*r, cy+r, cx, cy+r)
	z.CubeTo(cx-k*r, cy+r, cx-r, cy+k*r, cx-r, cy)
	z.CubeTo(cx-r, cy-k*r, cx-k*r, cy-r, cx, cy-r)
	z.CubeTo(cx+k*r, cy-r, cx+r, cy-k*r, cx+r, cy)
	z.ClosePath()

	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}
