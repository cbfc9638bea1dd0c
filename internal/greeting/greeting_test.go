package greeting_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-wishes/internal/greeting"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

var templateBlue = color.RGBA{R: 0x20, G: 0x40, B: 0xC0, A: 0xFF}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, templateBlue)
		}
	}
	return img
}

// bbox returns the bounding box of pixels accepted by keep.
func bbox(img *image.RGBA, keep func(color.RGBA) bool) (image.Rectangle, int) {
	box := image.Rectangle{}
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !keep(img.RGBAAt(x, y)) {
				continue
			}
			n++
			box = box.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return box, n
}

func isWhite(c color.RGBA) bool { return c.R > 0xF0 && c.G > 0xF0 && c.B > 0xF0 }
func isBlack(c color.RGBA) bool { return c.R < 0x10 && c.G < 0x10 && c.B < 0x10 }

func newRenderer(t *testing.T) *greeting.Renderer {
	t.Helper()
	r, err := greeting.NewRenderer("", 0)
	require.NoError(t, err)
	return r
}

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestRenderer_FontSizeScalesWithWidth(t *testing.T) {
	r := newRenderer(t)

	assert.InDelta(t, 60, r.FontSize(800), 0.001)
	assert.InDelta(t, 120, r.FontSize(1600), 0.001)
	assert.InDelta(t, 30, r.FontSize(400), 0.001)
	assert.InDelta(t, 12, r.FontSize(50), 0.001, "clamped to the minimum")
}

func TestRenderer_TextIsCentredAndOutlined(t *testing.T) {
	r := newRenderer(t)
	const w, h = 640, 480

	out, err := r.Render(solid(w, h), greeting.Message("Happy Birthday\n{name}!", "Ann"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, w, h), out.Bounds())

	white, whiteCount := bbox(out, isWhite)
	require.Positive(t, whiteCount, "fill drawn")
	_, blackCount := bbox(out, isBlack)
	assert.Positive(t, blackCount, "outline drawn")

	cx := (white.Min.X + white.Max.X) / 2
	cy := (white.Min.Y + white.Max.Y) / 2
	assert.InDelta(t, w/2, cx, 4, "horizontal centre, box %v", white)
	assert.InDelta(t, h/2, cy, 4, "vertical centre, box %v", white)

	// Two lines: the ink is taller than a single line would be.
	assert.Greater(t, white.Dy(), int(r.FontSize(w)))

	// Far corners keep the template colour.
	assert.Equal(t, templateBlue, out.RGBAAt(0, 0))
	assert.Equal(t, templateBlue, out.RGBAAt(w-1, h-1))
}

func TestRenderer_DoesNotMutateTemplate(t *testing.T) {
	r := newRenderer(t)
	tmpl := solid(200, 100)

	_, err := r.Render(tmpl, "Hi")
	require.NoError(t, err)

	_, n := bbox(tmpl, isWhite)
	assert.Zero(t, n)
}

func TestRenderer_RejectsEmptyTemplate(t *testing.T) {
	_, err := newRenderer(t).Render(image.NewRGBA(image.Rect(0, 0, 0, 0)), "x")
	assert.Error(t, err)
}

func TestNewRenderer_BadFont(t *testing.T) {
	path := filepath.Join(t.TempDir(), "font.ttf")
	require.NoError(t, os.WriteFile(path, []byte("not a font"), 0o600))

	_, err := greeting.NewRenderer(path, 60)
	assert.Error(t, err)

	_, err = greeting.NewRenderer(filepath.Join(t.TempDir(), "missing.ttf"), 60)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRenderToFile(t *testing.T) {
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "cake.png")
	f, err := os.Create(tmplPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(320, 240)))
	require.NoError(t, f.Close())

	outDir := filepath.Join(dir, "out")
	name := greeting.CardFileName("Ann Lee", "Ann Lee <+1-555-0100> 5-Mar")
	path, err := newRenderer(t).RenderToFile(tmplPath, outDir, name, "Happy Birthday\nAnn Lee!")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, name), path)

	written, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = written.Close() }()
	img, err := png.Decode(written)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds())
}

func TestRenderToFile_PlainFallback(t *testing.T) {
	path, err := newRenderer(t).RenderToFile("", t.TempDir(), greeting.CardFileName("Bo", "Bo"), "Hello Bo")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestRenderToFile_StaysInOutputDir(t *testing.T) {
	outDir := t.TempDir()
	path, err := newRenderer(t).RenderToFile("", outDir, "../escape.png", "Hi")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "escape.png"), path)
}

func TestCardFileName(t *testing.T) {
	ann := greeting.CardFileName("Ann B", "Ann B <1> 5-Mar")
	assert.Regexp(t, `^birthday_Ann_B_[0-9a-f]{8}\.png$`, ann)
	assert.Equal(t, ann, greeting.CardFileName("Ann B", "Ann B <1> 5-Mar"), "stable for one contact")

	assert.NotEqual(t, ann, greeting.CardFileName("Ann.B", "Ann.B <1> 5-Mar"),
		"names that sanitize alike still get their own file")
	assert.Regexp(t, `^birthday_contact_[0-9a-f]{8}\.png$`, greeting.CardFileName("  ", "x"))
}

func TestTemplates_ListsImagesOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "c.jpeg", "notes.txt", "d.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o700))

	list, err := greeting.Templates(dir)
	require.NoError(t, err)

	var bases []string
	for _, p := range list {
		bases = append(bases, filepath.Base(p))
	}
	assert.Equal(t, []string{"a.jpg", "b.PNG", "c.jpeg", "d.webp"}, bases)

	picked, err := greeting.PickTemplate(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", filepath.Base(picked))

	picked, err = greeting.PickTemplate(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, "b.PNG", filepath.Base(picked))

	_, err = greeting.PickTemplate(dir, "zzz")
	assert.ErrorIs(t, err, greeting.ErrNoTemplates)

	_, err = greeting.PickTemplate(t.TempDir(), "")
	assert.ErrorIs(t, err, greeting.ErrNoTemplates)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "Ann_Lee", greeting.SanitizeFileName(" Ann Lee "))
	assert.Equal(t, "Zoë-1_2", greeting.SanitizeFileName("Zoë-1_2"))
	assert.Equal(t, "contact", greeting.SanitizeFileName("   "))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Happy Birthday\nAnn!", greeting.Message("Happy Birthday\n{name}!", "Ann"))
	assert.Equal(t, "no placeholder", greeting.Message("no placeholder", "Ann"))
}
