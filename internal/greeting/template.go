package greeting

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // template decoders
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/tartampluch/go-wishes/internal/config"
)

// ErrNoTemplates is returned when the template directory holds no image.
var ErrNoTemplates = errors.New("no cake templates found")

// Message substitutes the contact name into a greeting or caption format
// such as "Happy Birthday\n{name}!".
func Message(format, name string) string {
	return strings.ReplaceAll(format, config.NamePlaceholder, name)
}

// Templates lists the image files of dir in lexical order.
func Templates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTemplateDir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.Contains(config.TemplateExtensions, ext) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

// PickTemplate resolves the template to use: the file named name (with or
// without extension) when set, else the first template of dir.
func PickTemplate(dir, name string) (string, error) {
	list, err := Templates(dir)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoTemplates, dir)
	}
	if name == "" {
		return list[0], nil
	}
	for _, p := range list {
		base := filepath.Base(p)
		if strings.EqualFold(base, name) || strings.EqualFold(strings.TrimSuffix(base, filepath.Ext(base)), name) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrNoTemplates, name, dir)
}

// LoadTemplate decodes a PNG, JPEG, BMP or WebP template.
func LoadTemplate(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTemplateLoad, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", config.ErrTemplateLoad, path, err)
	}
	return img, nil
}

// Plain is the fallback background used when no template directory is
// configured: a vertical pastel gradient.
func Plain(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	top := color.RGBA{R: 0xF8, G: 0xBB, B: 0xD0, A: 0xFF}
	bottom := color.RGBA{R: 0x7E, G: 0x57, B: 0xC2, A: 0xFF}
	for y := 0; y < height; y++ {
		c := lerp(top, bottom, float64(y)/float64(max(height-1, 1)))
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xFF}
}

// SanitizeFileName keeps letters, digits, '-' and '_' and replaces every
// other rune with '_'.
func SanitizeFileName(name string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
	if out == "" {
		return config.FallbackFileName
	}
	return out
}

// CardFileName names the image of one contact. The short hash of key keeps
// contacts whose names sanitize alike from sharing a file.
func CardFileName(name, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf(config.FormatImageName, SanitizeFileName(name), sum[:config.CardHashLength])
}

// RenderToFile draws text on the template at tmplPath (or the plain
// background when tmplPath is empty) and writes the PNG into outDir under
// fileName. It returns the written path.
func (r *Renderer) RenderToFile(tmplPath, outDir, fileName, text string) (string, error) {
	var tmpl image.Image
	if tmplPath == "" {
		tmpl = Plain(config.PlainTemplateWidth, config.PlainTemplateHeight)
	} else {
		img, err := LoadTemplate(tmplPath)
		if err != nil {
			return "", err
		}
		tmpl = img
	}

	img, err := r.Render(tmpl, text)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	out := filepath.Join(outDir, filepath.Base(fileName))

	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.FilePermUserRW)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrImageWrite, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("%s: %w", config.ErrImageWrite, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrImageWrite, err)
	}

	slog.Info(config.MsgImageRendered,
		config.LogKeyComponent, config.CompGreeting,
		config.LogKeyName, fileName,
		config.LogKeyFile, out)
	return out, nil
}
