// Package greeting draws the birthday message onto a cake template image.
package greeting

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/tartampluch/go-wishes/internal/config"
)

// Renderer draws centred, outlined text with a single font. Faces are sized
// per template, so one Renderer serves templates of any width.
type Renderer struct {
	font     *sfnt.Font
	baseSize float64
}

// NewRenderer loads the TrueType/OpenType font at fontPath, or the embedded
// Go Bold face when fontPath is empty. baseSize is the point size used on an
// 800px-wide template; zero selects config.DefaultFontSize.
func NewRenderer(fontPath string, baseSize float64) (*Renderer, error) {
	data := gobold.TTF
	if fontPath != "" {
		raw, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrFontLoad, err)
		}
		data = raw
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrFontLoad, err)
	}
	if baseSize <= 0 {
		baseSize = config.DefaultFontSize
	}
	return &Renderer{font: f, baseSize: baseSize}, nil
}

// FontSize scales the base size to the template width, never going below
// config.MinFontSize.
func (r *Renderer) FontSize(width int) float64 {
	size := r.baseSize * float64(width) / config.FontBaseWidth
	return math.Max(size, config.MinFontSize)
}

// Render returns a copy of tmpl with text drawn in the middle: every line
// horizontally centred, the whole block vertically centred on its ink, white
// glyphs over a black outline.
func (r *Renderer) Render(tmpl image.Image, text string) (*image.RGBA, error) {
	bounds := tmpl.Bounds()
	if bounds.Empty() {
		return nil, errors.New(config.ErrTemplateEmpty)
	}

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), tmpl, bounds.Min, draw.Src)

	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    r.FontSize(bounds.Dx()),
		DPI:     config.FontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrFontLoad, err)
	}
	defer func() { _ = face.Close() }()

	for _, dot := range layout(face, strings.Split(text, "\n"), dst.Bounds().Size()) {
		drawOutlined(dst, face, dot.text, dot.origin)
	}
	return dst, nil
}

type placedLine struct {
	text   string
	origin fixed.Point26_6
}

// layout computes the baseline origin of every line so that the union of
// their ink boxes sits in the centre of an image of the given size.
func layout(face font.Face, lines []string, size image.Point) []placedLine {
	lineHeight := face.Metrics().Height

	var (
		block  fixed.Rectangle26_6
		inked  bool
		placed = make([]placedLine, 0, len(lines))
	)
	for i, line := range lines {
		ink, _ := font.BoundString(face, line)
		offset := fixed.Int26_6(i) * lineHeight
		inkW := ink.Max.X - ink.Min.X

		placed = append(placed, placedLine{
			text: line,
			origin: fixed.Point26_6{
				X: (fixed.I(size.X)-inkW)/2 - ink.Min.X,
				Y: offset,
			},
		})

		if ink.Empty() {
			continue
		}
		top, bottom := offset+ink.Min.Y, offset+ink.Max.Y
		if !inked {
			block.Min.Y, block.Max.Y = top, bottom
			inked = true
			continue
		}
		block.Min.Y = min(block.Min.Y, top)
		block.Max.Y = max(block.Max.Y, bottom)
	}

	shift := (fixed.I(size.Y)-(block.Max.Y-block.Min.Y))/2 - block.Min.Y
	for i := range placed {
		placed[i].origin.Y += shift
	}
	return placed
}

// drawOutlined stamps the text in black at every offset within the outline
// radius, then once in white on top.
func drawOutlined(dst *image.RGBA, face font.Face, text string, origin fixed.Point26_6) {
	d := &font.Drawer{Dst: dst, Face: face}

	d.Src = image.NewUniform(color.Black)
	for dx := -config.OutlineWidth; dx <= config.OutlineWidth; dx++ {
		for dy := -config.OutlineWidth; dy <= config.OutlineWidth; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.Point26_6{X: origin.X + fixed.I(dx), Y: origin.Y + fixed.I(dy)}
			d.DrawString(text)
		}
	}

	d.Src = image.NewUniform(color.White)
	d.Dot = origin
	d.DrawString(text)
}
