package render

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// monoFamilies are drawn with Go Mono when no override is loaded.
var monoFamilies = map[string]bool{"courier new": true, "courier": true, "monospace": true}

type fontKey struct {
	family       string
	bold, italic bool
}

type faceKey struct {
	fontKey
	size float64
}

// FontSet resolves a run's family and weight to a face. Families without a loaded
// TTF fall back to the Go fonts.
type FontSet struct {
	mu    sync.Mutex
	fonts map[fontKey]*truetype.Font
	faces map[faceKey]font.Face
	sans  [4]*truetype.Font
	mono  [4]*truetype.Font
}

// NewFontSet parses the bundled Go fonts.
func NewFontSet() (*FontSet, error) {
	fs := &FontSet{fonts: make(map[fontKey]*truetype.Font), faces: make(map[faceKey]font.Face)}
	sets := []struct {
		dst  *[4]*truetype.Font
		ttfs [4][]byte
	}{
		{&fs.sans, [4][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF}},
		{&fs.mono, [4][]byte{gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF}},
	}
	for _, s := range sets {
		for i, data := range s.ttfs {
			f, err := truetype.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("parse bundled font: %w", err)
			}
			s.dst[i] = f
		}
	}
	return fs, nil
}

// LoadDir registers every .ttf in dir. File names follow "Family.ttf",
// "Family-Bold.ttf", "Family-Italic.ttf" and "Family-BoldItalic.ttf".
func (fs *FontSet) LoadDir(dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.ttf"))
	if err != nil {
		return fmt.Errorf("scan font dir: %w", err)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read font %s: %w", p, err)
		}
		f, err := truetype.Parse(data)
		if err != nil {
			log.Printf("[Render] skip font %s: %v", p, err)
			continue
		}
		fs.fonts[parseFontName(filepath.Base(p))] = f
	}
	log.Printf("[Render] loaded %d fonts from %s", len(paths), dir)
	return nil
}

func parseFontName(name string) fontKey {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	family, variant, _ := strings.Cut(stem, "-")
	variant = strings.ToLower(variant)
	return fontKey{
		family: strings.ToLower(family),
		bold:   strings.Contains(variant, "bold"),
		italic: strings.Contains(variant, "italic"),
	}
}

// Face returns a cached face for the run's style at size pixels.
func (fs *FontSet) Face(family string, bold, italic bool, size float64) font.Face {
	key := faceKey{fontKey{strings.ToLower(family), bold, italic}, size}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if face, ok := fs.faces[key]; ok {
		return face
	}
	face := truetype.NewFace(fs.resolve(key.fontKey), &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	fs.faces[key] = face
	return face
}

func (fs *FontSet) resolve(k fontKey) *truetype.Font {
	if f, ok := fs.fonts[k]; ok {
		return f
	}
	if f, ok := fs.fonts[fontKey{family: k.family}]; ok {
		return f
	}
	variants := fs.sans
	if monoFamilies[k.family] {
		variants = fs.mono
	}
	i := 0
	if k.bold {
		i |= 1
	}
	if k.italic {
		i |= 2
	}
	return variants[i]
}
