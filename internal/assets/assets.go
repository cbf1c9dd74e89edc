package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slides/internal/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// maxImageBytes bounds a single fetched image.
const maxImageBytes = 32 << 20

var ErrBadDataURL = errors.New("malformed data url")

// Loader fetches image sources: http(s) URLs, data URLs and, when BaseDir is set,
// local file paths relative to it.
type Loader struct {
	Client  *http.Client
	BaseDir string
}

// NewLoader returns a Loader with a bounded HTTP client.
func NewLoader(baseDir string) *Loader {
	return &Loader{Client: &http.Client{Timeout: 15 * time.Second}, BaseDir: baseDir}
}

// Fetch returns the raw bytes behind src.
func (l *Loader) Fetch(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		return decodeDataURL(src)
	}
	u, err := url.Parse(src)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return l.get(ctx, src)
	}
	if l.BaseDir == "" {
		return nil, fmt.Errorf("fetch %q: unsupported source", src)
	}
	path := src
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image file: %w", err)
	}
	return data, nil
}

func (l *Loader) get(ctx context.Context, src string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return data, nil
}

// Size decodes only the header of the image behind src.
func (l *Loader) Size(ctx context.Context, src string) (geometry.Size, error) {
	data, err := l.Fetch(ctx, src)
	if err != nil {
		return geometry.Size{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return geometry.Size{}, fmt.Errorf("decode image config: %w", err)
	}
	return geometry.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}, nil
}

// Image fully decodes the image behind src.
func (l *Loader) Image(ctx context.Context, src string) (image.Image, error) {
	data, err := l.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// decodeDataURL handles data:[<mediatype>][;base64],<data>.
func decodeDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, ErrBadDataURL
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
		}
		return data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return []byte(text), nil
}
